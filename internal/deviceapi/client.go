// FilePath: internal/deviceapi/client.go
package deviceapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/strct-org/beeportal/internal/errors"
	"github.com/strct-org/beeportal/internal/models"
)

// StatusResponse is the raw body of GET /api/status on a device agent.
type StatusResponse struct {
	Used   int64  `json:"used"`
	Total  int64  `json:"total"`
	IP     string `json:"ip"`
	Uptime int64  `json:"uptime"`
}

type filesResponse struct {
	Files []models.FileItem `json:"files"`
}

type mkdirRequest struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

// Client talks to the per-device agent API. One client serves every device;
// the target is resolved per call from the device id.
type Client struct {
	resolver *Resolver
	http     *resty.Client
}

// NewClient creates a device API client. requestTimeout bounds the regular
// feature calls; status polls are bounded tighter by the aggregator's own
// per-attempt context.
func NewClient(resolver *Resolver, requestTimeout time.Duration) *Client {
	httpClient := resty.New().
		SetTimeout(requestTimeout).
		SetHeader("Accept", "application/json")

	return &Client{
		resolver: resolver,
		http:     httpClient,
	}
}

// Resolver returns the URL resolver this client was built with.
func (c *Client) Resolver() *Resolver {
	return c.resolver
}

// Status fetches the device's reachability and storage usage snapshot.
func (c *Client) Status(ctx context.Context, deviceID string) (*StatusResponse, error) {
	var out StatusResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get(c.resolver.Resolve(deviceID) + "/api/status")
	if err != nil {
		return nil, fmt.Errorf("device %s status: %w", deviceID, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("device %s status: http %d", deviceID, resp.StatusCode())
	}
	return &out, nil
}

// ListFiles fetches the listing of one directory. Listings are never cached
// across directories.
func (c *Client) ListFiles(ctx context.Context, deviceID, path string) ([]models.FileItem, error) {
	var out filesResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("path", path).
		SetResult(&out).
		Get(c.resolver.Resolve(deviceID) + "/api/files")
	if err != nil {
		return nil, errors.NewUpstreamError("device unreachable", err)
	}
	if !resp.IsSuccess() {
		return nil, errors.NewUpstreamError(fmt.Sprintf("device listing failed with http %d", resp.StatusCode()), nil)
	}
	if out.Files == nil {
		return []models.FileItem{}, nil
	}
	return out.Files, nil
}

// NetworkStats fetches the device's current sample and retained history.
func (c *Client) NetworkStats(ctx context.Context, deviceID string) (*models.NetworkStats, error) {
	var out models.NetworkStats
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get(c.resolver.Resolve(deviceID) + "/api/network/stats")
	if err != nil {
		return nil, errors.NewUpstreamError("device unreachable", err)
	}
	if !resp.IsSuccess() {
		return nil, errors.NewUpstreamError(fmt.Sprintf("network stats failed with http %d", resp.StatusCode()), nil)
	}
	return &out, nil
}

// TriggerSpeedtest kicks off an async measurement on the device. No
// meaningful body is guaranteed; callers treat this as fire-and-forget.
func (c *Client) TriggerSpeedtest(ctx context.Context, deviceID string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		Get(c.resolver.Resolve(deviceID) + "/api/network/speedtest")
	if err != nil {
		return errors.NewUpstreamError("failed to trigger speedtest", err)
	}
	if !resp.IsSuccess() {
		return errors.NewUpstreamError(fmt.Sprintf("speedtest trigger failed with http %d", resp.StatusCode()), nil)
	}
	return nil
}

// Mkdir creates a folder inside path. A 409 from the agent maps to a
// conflict error so the caller can tell "already exists" apart.
func (c *Client) Mkdir(ctx context.Context, deviceID, path, name string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(mkdirRequest{Path: path, Name: name}).
		Post(c.resolver.Resolve(deviceID) + "/api/mkdir")
	if err != nil {
		return errors.NewUpstreamError("device unreachable", err)
	}
	if resp.StatusCode() == http.StatusConflict {
		return errors.NewConflictError("folder already exists", nil)
	}
	if !resp.IsSuccess() {
		return errors.NewUpstreamError(fmt.Sprintf("mkdir failed with http %d", resp.StatusCode()), nil)
	}
	return nil
}

// Delete removes the file or folder at path.
func (c *Client) Delete(ctx context.Context, deviceID, path string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("path", path).
		Delete(c.resolver.Resolve(deviceID) + "/api/delete")
	if err != nil {
		return errors.NewUpstreamError("device unreachable", err)
	}
	if !resp.IsSuccess() {
		return errors.NewUpstreamError(fmt.Sprintf("delete failed with http %d", resp.StatusCode()), nil)
	}
	return nil
}

// Upload streams one file to the agent's filesystem endpoint as a multipart
// form with field "file".
func (c *Client) Upload(ctx context.Context, deviceID, path, filename string, content io.Reader) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("path", path).
		SetFileReader("file", filename, content).
		Post(c.resolver.Resolve(deviceID) + "/strct_agent/fs/upload")
	if err != nil {
		return errors.NewUpstreamError("upload failed", err)
	}
	if !resp.IsSuccess() {
		return errors.NewUpstreamError(fmt.Sprintf("upload failed with http %d", resp.StatusCode()), nil)
	}
	return nil
}

// Download opens the raw file stream at path. The caller owns the returned
// reader and must close it.
func (c *Client) Download(ctx context.Context, deviceID, path string) (io.ReadCloser, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(c.resolver.Resolve(deviceID) + "/files" + path)
	if err != nil {
		return nil, errors.NewUpstreamError("device unreachable", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		resp.RawBody().Close()
		return nil, errors.NewUpstreamError(fmt.Sprintf("download failed with http %d", resp.StatusCode()), nil)
	}
	return resp.RawBody(), nil
}
