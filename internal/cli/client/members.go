package client

import (
	"context"
	"net/http"

	"github.com/healthmap/healthmap/internal/apperr"
	"github.com/healthmap/healthmap/internal/models"
)

const membersPath = "/membres_structures"

// CreateMember signs up a new structure member (public endpoint)
func (c *Client) CreateMember(ctx context.Context, req models.CreateMemberRequest) (*models.Member, error) {
	var member models.Member
	if err := c.do(ctx, http.MethodPost, membersPath, nil, req, &member, apperr.ResourceMember); err != nil {
		return nil, err
	}
	return &member, nil
}

// ListMembers fetches the member roster. The backend only serves it to
// structure members, which is what role resolution relies on.
func (c *Client) ListMembers(ctx context.Context) ([]models.Member, error) {
	var members []models.Member
	err := c.do(ctx, http.MethodGet, membersPath, nil, nil, &members, apperr.ResourceMember)
	return members, err
}

// GetMember returns one member
func (c *Client) GetMember(ctx context.Context, id int64) (*models.Member, error) {
	var member models.Member
	if err := c.do(ctx, http.MethodGet, idPath(membersPath, id), nil, nil, &member, apperr.ResourceMember); err != nil {
		return nil, err
	}
	return &member, nil
}

// UpdateMember replaces a member's profile
func (c *Client) UpdateMember(ctx context.Context, id int64, req models.UpdateMemberRequest) (*models.Member, error) {
	req.ID = id
	var member models.Member
	if err := c.do(ctx, http.MethodPut, idPath(membersPath, id), nil, req, &member, apperr.ResourceMember); err != nil {
		return nil, err
	}
	return &member, nil
}

// DeleteMember removes a member
func (c *Client) DeleteMember(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, idPath(membersPath, id), nil, nil, nil, apperr.ResourceMember)
}

// MembersByStructure returns the roster entries attached to one structure
func (c *Client) MembersByStructure(ctx context.Context, structureID int64) ([]models.Member, error) {
	members, err := c.ListMembers(ctx)
	if err != nil {
		return nil, err
	}
	filtered := []models.Member{}
	for _, m := range members {
		if m.Structure.ID == structureID {
			filtered = append(filtered, m)
		}
	}
	return filtered, nil
}
