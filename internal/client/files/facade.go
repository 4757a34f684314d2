// Package files is the read side of the vault: listing, aggregate stats
// with a client-side fallback, short-lived access URLs, and deletion.
package files

import (
	"context"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/securevault/securevault/internal/client/api"
	"github.com/securevault/securevault/internal/logging"
)

const bytesPerMB = 1024 * 1024

// API is the slice of the transport the facade needs.
type API interface {
	ListFiles(ctx context.Context) (*api.ListFilesResponse, error)
	FileStats(ctx context.Context, scope string) (*api.StatsResponse, error)
	PresignView(ctx context.Context, key string) (*api.PresignURLResponse, error)
	PresignDownload(ctx context.Context, key string) (*api.PresignURLResponse, error)
	DeleteFile(ctx context.Context, key string) error
}

// newBackoff builds the retry schedule for idempotent reads. Test seam.
var newBackoff = func() retry.Backoff {
	return retry.WithMaxRetries(2, retry.WithJitterPercent(10, retry.NewExponential(200*time.Millisecond)))
}

// Facade wraps the files endpoints with a retry decorator. Only idempotent
// GETs retry, and only on transport failures and 5xx answers; 4xx answers
// are final. Mutating calls go through exactly once.
type Facade struct {
	api API
	log logging.Logger
}

func New(apiClient API, log logging.Logger) *Facade {
	return &Facade{
		api: apiClient,
		log: log.With("component", "files"),
	}
}

// retryable classifies an error for the decorator. An API answer below 500
// is the server's final word; everything else is worth another attempt.
func retryable(err error) error {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError {
		return err
	}
	return retry.RetryableError(err)
}

// List returns the server-ordered listing.
func (f *Facade) List(ctx context.Context) ([]api.FileEntry, error) {
	var items []api.FileEntry
	err := retry.Do(ctx, newBackoff(), func(ctx context.Context) error {
		resp, err := f.api.ListFiles(ctx)
		if err != nil {
			return retryable(err)
		}
		items = resp.Items
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Stats returns aggregate stats for the given scope. When the server has no
// stats endpoint (404), the facade computes count, total bytes, and total MB
// from a fresh listing and marks the result as computed.
func (f *Facade) Stats(ctx context.Context, scope string) (*api.StatsResponse, error) {
	var stats *api.StatsResponse
	err := retry.Do(ctx, newBackoff(), func(ctx context.Context) error {
		resp, err := f.api.FileStats(ctx, scope)
		if err != nil {
			return retryable(err)
		}
		stats = resp
		return nil
	})
	if err == nil {
		return stats, nil
	}
	if !api.IsStatus(err, http.StatusNotFound) {
		return nil, err
	}

	f.log.Debug(ctx, "stats endpoint missing, computing from listing", "scope", scope)
	items, err := f.List(ctx)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, it := range items {
		total += it.Size
	}
	return &api.StatsResponse{
		Count:      len(items),
		TotalBytes: total,
		TotalMB:    math.Round(float64(total)/bytesPerMB*100) / 100,
		Scope:      scope,
		Computed:   true,
	}, nil
}

// ViewURL returns a short-lived URL for inline viewing.
func (f *Facade) ViewURL(ctx context.Context, key string) (string, error) {
	return f.presigned(ctx, key, f.api.PresignView)
}

// DownloadURL returns a short-lived URL that forces a download.
func (f *Facade) DownloadURL(ctx context.Context, key string) (string, error) {
	return f.presigned(ctx, key, f.api.PresignDownload)
}

func (f *Facade) presigned(ctx context.Context, key string, fetch func(context.Context, string) (*api.PresignURLResponse, error)) (string, error) {
	var u string
	err := retry.Do(ctx, newBackoff(), func(ctx context.Context) error {
		resp, err := fetch(ctx, key)
		if err != nil {
			return retryable(err)
		}
		u = resp.URL
		return nil
	})
	if err != nil {
		return "", err
	}
	return u, nil
}

// Delete removes one object. Never retried: a repeated delete after an
// ambiguous failure could race a re-upload under the same key.
func (f *Facade) Delete(ctx context.Context, key string) error {
	if err := f.api.DeleteFile(ctx, key); err != nil {
		return err
	}
	f.log.Info(ctx, "file deleted", "key", key)
	return nil
}
