// FilePath: internal/accountapi/client.go
package accountapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/strct-org/beeportal/internal/errors"
	"github.com/strct-org/beeportal/internal/models"
)

// Client talks to the central Account API on behalf of a signed-in user.
// Every call carries the caller's bearer token; the client itself holds no
// credentials.
type Client struct {
	http *resty.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &Client{http: httpClient}
}

// GetUser fetches the signed-in user's profile. A 404 maps to the
// user-not-found sentinel so callers can branch on it.
func (c *Client) GetUser(ctx context.Context, token string) (*models.User, error) {
	var out models.User
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(&out).
		Get("/api/v1/user")
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, errors.ErrUserNotFound
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("get user: http %d", resp.StatusCode())
	}
	return &out, nil
}

// CreateUser creates the account profile for a freshly signed-up identity.
func (c *Client) CreateUser(ctx context.Context, token string, req *models.CreateUserRequest) (*models.User, error) {
	var out models.User
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(req).
		SetResult(&out).
		Post("/api/v1/user")
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("create user: http %d", resp.StatusCode())
	}
	return &out, nil
}

// DeleteUser removes the account profile.
func (c *Client) DeleteUser(ctx context.Context, token string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		Delete("/api/v1/user")
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("delete user: http %d", resp.StatusCode())
	}
	return nil
}

// GetDevices fetches the device list for the signed-in user.
func (c *Client) GetDevices(ctx context.Context, token string) ([]models.Device, error) {
	var out []models.Device
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(&out).
		Get("/api/v1/device")
	if err != nil {
		return nil, fmt.Errorf("get devices: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("get devices: http %d", resp.StatusCode())
	}
	if out == nil {
		out = []models.Device{}
	}
	return out, nil
}

// ClaimDevice claims a manufactured device for the signed-in user and
// returns the created device record.
func (c *Client) ClaimDevice(ctx context.Context, token string, req *models.ClaimRequest) (*models.Device, error) {
	var out models.Device
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(req).
		SetResult(&out).
		Post("/api/v1/device/claim")
	if err != nil {
		return nil, fmt.Errorf("claim device: %w", err)
	}
	if resp.StatusCode() == http.StatusConflict {
		return nil, errors.NewConflictError("device already claimed", nil)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("claim device: http %d", resp.StatusCode())
	}
	return &out, nil
}
