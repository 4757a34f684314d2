// Package netx contains low-level HTTP helpers for talking to object
// storage directly, outside the JSON API transport.
package netx

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// SSEHeaderName and SSEHeaderValue must match what the backend presigned;
// a mismatched value makes storage reject the signature.
const (
	SSEHeaderName  = "x-amz-server-side-encryption"
	SSEHeaderValue = "AES256"
)

// PutPresigned issues a single PUT of body to a presigned storage URL.
// The presigned URL carries the capability, so no auth header is attached.
// Any non-2xx status is an error; the response body is included to keep
// storage-side XML error messages recoverable.
func PutPresigned(ctx context.Context, client *http.Client, url, contentType string, body io.Reader, size int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, body)
	if err != nil {
		return err
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(SSEHeaderName, SSEHeaderValue)

	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("storage put failed: %s; body: %s", resp.Status, string(b))
	}
	return nil
}
