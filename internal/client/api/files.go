package api

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// FileEntry is a server-sourced listing row. The client never mutates it
// directly; delete/upload calls are the only write paths.
type FileEntry struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
}

type ListFilesResponse struct {
	Items []FileEntry `json:"items"`
}

type StatsResponse struct {
	Count      int     `json:"count"`
	TotalBytes int64   `json:"totalBytes"`
	TotalMB    float64 `json:"totalMB,omitempty"`
	Scope      string  `json:"scope,omitempty"`
	Computed   bool    `json:"computed,omitempty"`
}

type PresignUploadRequest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	SHA256      string `json:"sha256"`
}

type PresignUploadResponse struct {
	UploadURL string `json:"uploadUrl"`
	Key       string `json:"key"`
}

type PresignURLResponse struct {
	URL string `json:"url"`
}

type NotifyUploadRequest struct {
	Key    string `json:"key"`
	Size   int64  `json:"size"`
	SHA256 string `json:"sha256"`
}

// ListFiles returns the server-ordered file listing.
func (c *Client) ListFiles(ctx context.Context) (*ListFilesResponse, error) {
	var resp ListFilesResponse
	if err := c.do(ctx, http.MethodGet, "/files/list", RequestOptions{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FileStats asks the server for aggregate stats. Servers without the
// endpoint answer 404; the files facade falls back to client-side
// aggregation in that case.
func (c *Client) FileStats(ctx context.Context, scope string) (*StatsResponse, error) {
	var resp StatsResponse
	path := "/files/stats?scope=" + url.QueryEscape(scope)
	if err := c.do(ctx, http.MethodGet, path, RequestOptions{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PresignUpload requests a one-time upload capability. The digest is
// mandatory: the server gates acceptance on it.
func (c *Client) PresignUpload(ctx context.Context, req PresignUploadRequest) (*PresignUploadResponse, error) {
	var resp PresignUploadResponse
	if err := c.do(ctx, http.MethodPost, "/files/presign/upload", RequestOptions{Body: req}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PresignView returns a short-lived URL for inline viewing.
func (c *Client) PresignView(ctx context.Context, key string) (*PresignURLResponse, error) {
	var resp PresignURLResponse
	path := "/files/presign/view?key=" + url.QueryEscape(key)
	if err := c.do(ctx, http.MethodGet, path, RequestOptions{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PresignDownload returns a short-lived URL that forces a download.
func (c *Client) PresignDownload(ctx context.Context, key string) (*PresignURLResponse, error) {
	var resp PresignURLResponse
	path := "/files/presign/download?key=" + url.QueryEscape(key)
	if err := c.do(ctx, http.MethodGet, path, RequestOptions{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteFile removes one object. The caller is responsible for dropping the
// corresponding entry from any locally held list.
func (c *Client) DeleteFile(ctx context.Context, key string) error {
	path := "/files/delete?key=" + url.QueryEscape(key)
	return c.do(ctx, http.MethodDelete, path, RequestOptions{}, nil)
}

// NotifyUpload reports a completed transfer, repeating size and digest so
// the server can verify independently.
func (c *Client) NotifyUpload(ctx context.Context, req NotifyUploadRequest) error {
	return c.do(ctx, http.MethodPost, "/files/notify-upload", RequestOptions{Body: req}, nil)
}
