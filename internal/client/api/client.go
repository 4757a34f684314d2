package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/securevault/securevault/internal/logging"
)

// SessionStore is the slice of the session the transport needs: the token
// for the Authorization header, and Clear for the 401 side effect.
type SessionStore interface {
	Token() string
	Clear() error
}

// Client is the single HTTP transport for every call to the SecureVault
// API. It resolves addresses against a configured base, attaches auth
// headers, serializes bodies, and normalizes error shapes. It performs
// exactly one network round trip per call and never retries; resilience
// belongs to decorators layered above it.
type Client struct {
	baseURL string
	http    *http.Client
	session SessionStore
	log     logging.Logger
}

func New(baseURL string, sess SessionStore, log logging.Logger, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		session: sess,
		log:     log,
	}
}

// RequestOptions controls a single transport call.
type RequestOptions struct {
	Method  string            // defaults to GET
	Body    any               // JSON-serialized when non-nil
	Headers map[string]string // merged in; caller headers are never overwritten
	NoAuth  bool              // skip bearer injection
}

// JoinURL resolves path against base, collapsing duplicate separators while
// preserving the scheme delimiter. Absolute http(s) paths are used as-is.
func JoinURL(base, path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	full := strings.TrimRight(base, "/") + path

	scheme := ""
	rest := full
	if i := strings.Index(full, "://"); i >= 0 {
		scheme, rest = full[:i+3], full[i+3:]
	}
	for strings.Contains(rest, "//") {
		rest = strings.ReplaceAll(rest, "//", "/")
	}
	return scheme + rest
}

// Request performs one round trip and returns the raw response payload.
//
// Behavior per the transport contract:
//   - structured bodies are JSON-serialized with a JSON content type unless
//     the caller already supplied one;
//   - a bearer Authorization header is injected when a token exists and the
//     caller neither disabled auth nor set their own;
//   - the response body is parsed as JSON when possible so structured error
//     payloads stay recoverable;
//   - 401 clears the session before the error propagates;
//   - non-2xx statuses produce an *Error carrying status, payload, and a
//     human-readable message.
func (c *Client) Request(ctx context.Context, path string, opts RequestOptions) ([]byte, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	url := JoinURL(c.baseURL, path)

	var bodyReader io.Reader
	jsonBody := false
	if opts.Body != nil {
		data, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
		jsonBody = true
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}
	if jsonBody && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if !opts.NoAuth && req.Header.Get("Authorization") == "" {
		if token := c.session.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: read response: %w", method, url, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode == http.StatusUnauthorized {
			// Stale tokens must not survive a rejected request.
			if cerr := c.session.Clear(); cerr != nil {
				c.log.Warn(ctx, "clearing session after 401 failed", "error", cerr)
			}
		}
		apiErr := newError(resp.StatusCode, resp.Status, raw)
		c.log.Debug(ctx, "api request failed",
			"method", method, "path", path, "status", resp.StatusCode, "message", apiErr.Message)
		return nil, apiErr
	}

	return raw, nil
}

// do performs a Request and decodes the JSON payload into out when out is
// non-nil. An empty success body leaves out at its zero value, matching the
// empty-structure default of the contract.
func (c *Client) do(ctx context.Context, method, path string, opts RequestOptions, out any) error {
	opts.Method = method
	raw, err := c.Request(ctx, path, opts)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}
