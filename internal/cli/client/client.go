package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/healthmap/healthmap/internal/apperr"
	"github.com/healthmap/healthmap/internal/auth"
	"github.com/healthmap/healthmap/internal/models"
)

// maxErrorBody bounds how much of an error response is kept for logs
const maxErrorBody = 4 << 10

// Client represents an HTTP client for the structures directory API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client. httpClient should carry an auth.Transport so
// stored credentials are attached; nil uses http.DefaultClient.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

// SetHTTPClient sets a custom HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// BaseURL returns the API origin requests are sent to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Login probes creds against the login endpoint with an empty body. The
// backend answers 2xx for valid credentials and nothing about the user.
func (c *Client) Login(ctx context.Context, creds models.Credentials) error {
	req, err := http.NewRequestWithContext(
		auth.WithLoginProbe(ctx),
		http.MethodPost,
		c.baseURL+"/login",
		strings.NewReader("{}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(creds.Email, creds.Password)
	req.Header.Set("Content-Type", "application/json")

	return c.send(req, nil, apperr.ResourceAuth)
}

// do sends a JSON request and decodes a JSON response into out (when non-nil).
// Any non-2xx status becomes an *apperr.AppError using resource's messages.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any, resource apperr.Resource) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return c.send(req, out, resource)
}

func (c *Client) send(req *http.Request, out any, resource apperr.Resource) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperr.NewNetwork(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return apperr.FromStatus(resource, resp.StatusCode, string(body))
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.NewNetwork(err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func idPath(prefix string, id int64) string {
	return fmt.Sprintf("%s/%d", prefix, id)
}
