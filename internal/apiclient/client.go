package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxResponseBytes = 8 << 20

type Options struct {
	BaseURL   string
	Timeout   time.Duration
	ProbePath string
	// HTTPClient overrides the default client; Timeout is ignored when it is set.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to the remote management API. It holds no per-user state: the bearer token
// is passed on every call.
type Client struct {
	baseURL   string
	probePath string
	http      *http.Client
	log       *slog.Logger
}

// Response is a raw remote reply with its body fully read.
type Response struct {
	StatusCode int
	Body       []byte
}

func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func New(opts Options) (*Client, error) {
	base := strings.TrimSpace(opts.BaseURL)
	if base == "" {
		return nil, fmt.Errorf("base url is required")
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", opts.BaseURL)
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	probe := strings.TrimPrefix(strings.TrimSpace(opts.ProbePath), "/")
	if probe == "" {
		probe = "Dashboard"
	}

	return &Client{
		baseURL:   base,
		probePath: probe,
		http:      hc,
		log:       logger.With("module", "apiclient"),
	}, nil
}

func (c *Client) BaseURL() string { return c.baseURL }

// Probe checks that the remote API answers its liveness endpoint with a 2xx status.
func (c *Client) Probe(ctx context.Context) error {
	resp, err := c.Do(ctx, http.MethodGet, c.probePath, "", nil)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return fmt.Errorf("%w: probe returned status %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}

// Do performs one round trip. Transport failures are reported as ErrUnavailable; any HTTP
// status, including non-2xx, is returned in the Response for the caller to interpret.
func (c *Client) Do(ctx context.Context, method, path, token string, body any) (*Response, error) {
	target := c.baseURL + strings.TrimPrefix(path, "/")

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		c.log.WarnContext(ctx, "remote call failed",
			"operation", "remote_call",
			"outcome", "failure",
			"method", method,
			"path", path,
			"error", err.Error(),
		)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	c.log.DebugContext(ctx, "remote call completed",
		"operation", "remote_call",
		"method", method,
		"path", path,
		"status_code", res.StatusCode,
		"token_present", token != "",
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &Response{StatusCode: res.StatusCode, Body: data}, nil
}

// GetData fetches path and unwraps the envelope. Any non-2xx status or success=false is an
// error; the zero T is returned with it.
func GetData[T any](ctx context.Context, c *Client, path, token string) (T, error) {
	var zero T
	resp, err := c.Do(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return zero, err
	}
	if !resp.OK() {
		return zero, &RemoteError{StatusCode: resp.StatusCode, Message: errorMessage(resp.Body)}
	}
	var env Envelope[T]
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return zero, fmt.Errorf("%w: decode envelope: %v", ErrMalformed, err)
	}
	if !env.Success {
		msg := env.Text()
		if msg == "" {
			msg = FallbackMessage
		}
		return zero, &RemoteError{StatusCode: resp.StatusCode, Message: msg}
	}
	return env.Data, nil
}

// GetRaw fetches path and decodes a bare JSON document with no envelope.
func GetRaw[T any](ctx context.Context, c *Client, path, token string) (T, error) {
	var out T
	resp, err := c.Do(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return out, err
	}
	if !resp.OK() {
		return out, &RemoteError{StatusCode: resp.StatusCode, Message: errorMessage(resp.Body)}
	}
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return out, fmt.Errorf("%w: decode body: %v", ErrMalformed, err)
	}
	return out, nil
}

// Send issues a write (POST, PUT, DELETE). A 2xx status is success and the response is
// returned for optional inspection; anything else becomes a RemoteError carrying the
// error envelope message.
func (c *Client) Send(ctx context.Context, method, path, token string, body any) (*Response, error) {
	resp, err := c.Do(ctx, method, path, token, body)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return resp, &RemoteError{StatusCode: resp.StatusCode, Message: errorMessage(resp.Body)}
	}
	return resp, nil
}
