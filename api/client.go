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

	"github.com/charmbracelet/log"
)

// Authorizer supplies auth headers for outgoing requests and performs the
// single refresh attempt the pipeline is allowed after a 401. It is
// satisfied by the auth package's Authenticator. A nil Authorizer makes the
// client anonymous.
type Authorizer interface {
	AuthHeaders() map[string]string
	RefreshAccessToken(ctx context.Context) (bool, error)
}

// RequestOptions customize a single fetch.
type RequestOptions struct {
	// Method defaults to GET.
	Method string

	// Body is JSON-encoded into the request when non-nil. Content-Type
	// defaults to application/json unless Header overrides it.
	Body any

	// Header entries are merged over the auth header snapshot.
	Header http.Header
}

// Result carries a normalized response payload plus transfer metadata.
type Result struct {
	Payload     any
	ContentType string
	SizeBytes   int64
	Duration    time.Duration
}

// Opts configures a [Client]. Zero fields fall back to defaults.
type Opts struct {
	// FileProxyURL routes link and chunk downloads through a CORS proxy
	// when set. The original URL rides in a url query parameter.
	FileProxyURL string

	// HTTPClient defaults to [http.DefaultClient].
	HTTPClient *http.Client

	// Logger defaults to a discarding logger.
	Logger *log.Logger

	// ChunkWorkers caps concurrent chunk downloads, defaults to 4.
	ChunkWorkers int
}

// Client is the fetch pipeline for one API base URL.
type Client struct {
	baseURL      string
	fileProxyURL string
	authz        Authorizer
	client       *http.Client
	logger       *log.Logger
	chunkWorkers int
}

// NewClient builds a Client for the given base URL. The Authorizer may be
// nil for an anonymous client.
func NewClient(baseURL string, authz Authorizer, opts Opts) *Client {
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	workers := opts.ChunkWorkers
	if workers <= 0 {
		workers = 4
	}

	return &Client{
		baseURL:      baseURL,
		fileProxyURL: opts.FileProxyURL,
		authz:        authz,
		client:       client,
		logger:       logger,
		chunkWorkers: workers,
	}
}

// joinURL joins base and path with exactly one slash between them.
func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// Fetch issues a request against the API base and returns the normalized
// payload with transfer metadata. On a 401 it refreshes the session once
// and retries once with a fresh header snapshot; a second 401 is final,
// as is a 401 when the refresh reports failure.
func (c *Client) Fetch(ctx context.Context, path string, opts *RequestOptions) (*Result, error) {
	if opts == nil {
		opts = &RequestOptions{}
	}

	target := joinURL(c.baseURL, path)
	start := time.Now()

	resp, body, err := c.roundTrip(ctx, target, opts, c.authHeaders())
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && c.authz != nil {
		refreshed, rerr := c.authz.RefreshAccessToken(ctx)
		switch {
		case rerr != nil:
			c.logger.Warn("refresh after 401 failed", "path", path, "error", rerr)
		case refreshed:
			c.logger.Debug("retrying after refresh", "path", path)
			resp, body, err = c.roundTrip(ctx, target, opts, c.authHeaders())
			if err != nil {
				return nil, err
			}
		}
	}

	result, err := c.buildResult(resp, body, time.Since(start))
	if err != nil {
		return nil, err
	}

	c.logger.Debug("fetch complete",
		"path", path,
		"status", resp.StatusCode,
		"bytes", result.SizeBytes,
		"duration", result.Duration)
	return result, nil
}

// Get fetches a path and returns only the payload, discarding metadata.
func (c *Client) Get(ctx context.Context, path string) (any, error) {
	res, err := c.Fetch(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	return res.Payload, nil
}

// Post sends a JSON body to a path and returns only the payload.
func (c *Client) Post(ctx context.Context, path string, body any) (any, error) {
	res, err := c.Fetch(ctx, path, &RequestOptions{Method: http.MethodPost, Body: body})
	if err != nil {
		return nil, err
	}
	return res.Payload, nil
}

func (c *Client) authHeaders() map[string]string {
	if c.authz == nil {
		return nil
	}
	return c.authz.AuthHeaders()
}

// roundTrip issues one attempt with the given auth header snapshot and
// reads the full body.
func (c *Client) roundTrip(ctx context.Context, target string, opts *RequestOptions, authHeaders map[string]string) (*http.Response, []byte, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	var reqBody io.Reader
	if opts.Body != nil {
		encoded, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build request: %w", err)
	}

	for k, v := range authHeaders {
		req.Header.Set(k, v)
	}
	for k, vs := range opts.Header {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if opts.Body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response: %w", err)
	}

	return resp, body, nil
}

// buildResult normalizes a completed response. Non-2xx statuses become a
// typed [*Error] carrying the normalized body.
func (c *Client) buildResult(resp *http.Response, body []byte, elapsed time.Duration) (*Result, error) {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _, err := normalizeBody(body, resp.Header)
		if err != nil {
			payload = string(body)
		}
		return nil, &Error{StatusCode: resp.StatusCode, Status: resp.Status, Body: payload}
	}

	payload, contentType, err := normalizeBody(body, resp.Header)
	if err != nil {
		return nil, err
	}

	size := int64(len(body))
	if resp.ContentLength >= 0 {
		size = resp.ContentLength
	}

	return &Result{
		Payload:     payload,
		ContentType: contentType,
		SizeBytes:   size,
		Duration:    elapsed,
	}, nil
}
