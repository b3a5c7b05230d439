package client

import (
	"context"
	"net/http"

	"github.com/healthmap/healthmap/internal/apperr"
	"github.com/healthmap/healthmap/internal/models"
)

// CreateAdmin registers a new administrator (public endpoint)
func (c *Client) CreateAdmin(ctx context.Context, req models.CreateAdminRequest) (*models.Admin, error) {
	var admin models.Admin
	if err := c.do(ctx, http.MethodPost, "/admins", nil, req, &admin, apperr.ResourceAdmin); err != nil {
		return nil, err
	}
	return &admin, nil
}
