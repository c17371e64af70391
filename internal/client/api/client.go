package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/viqi/internal/common"
	"github.com/dmitrijs2005/viqi/internal/logging"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
)

// TokenSource yields the bearer token for the current identity, or "" when
// requests should go out anonymously.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type TokenFunc func(ctx context.Context) (string, error)

func (f TokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

type Client struct {
	baseURL        string
	http           *http.Client
	tokens         TokenSource
	onUnauthorized func(ctx context.Context)
	log            logging.Logger
	maxRetries     uint64
	backoffBase    time.Duration
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithUnauthorizedHandler sets the hook run on every 401, before the error is
// returned to the caller.
func WithUnauthorizedHandler(fn func(ctx context.Context)) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithRetry bounds GET retries. max=0 disables them.
func WithRetry(max uint64, base time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = max
		c.backoffBase = base
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		http:        &http.Client{Timeout: 15 * time.Second},
		log:         logging.Discard(),
		maxRetries:  2,
		backoffBase: 200 * time.Millisecond,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SetUnauthorizedHandler replaces the 401 hook after construction, for
// wiring components that depend on the client themselves.
func (c *Client) SetUnauthorizedHandler(fn func(ctx context.Context)) {
	c.onUnauthorized = fn
}

func (c *Client) SetTokenSource(ts TokenSource) {
	c.tokens = ts
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	if c.maxRetries == 0 {
		return c.do(ctx, http.MethodGet, path, nil, out)
	}
	b := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.backoffBase))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := c.do(ctx, http.MethodGet, path, nil, out)
		if retryable(err) {
			c.log.Debug(ctx, "retrying request", "path", path, "error", err)
			return retry.RetryableError(err)
		}
		return err
	})
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, http.MethodPost, path, in, out)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	reqID := uuid.NewString()
	req.Header.Set(common.RequestIDHeaderName, reqID)

	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			c.log.Warn(ctx, "token lookup failed, sending anonymously", "error", err)
		} else if token != "" {
			req.Header.Set(common.AuthorizationHeaderName, "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	c.log.Debug(ctx, "api call", "method", method, "path", path, "status", resp.StatusCode,
		"request_id", reqID, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		herr := &HTTPError{StatusCode: resp.StatusCode, Detail: readDetail(resp.Body)}
		if resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
			c.onUnauthorized(ctx)
		}
		return herr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// readDetail pulls FastAPI's {"detail": "..."} out of an error body, falling
// back to the raw text.
func readDetail(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, 4096))
	var body struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Detail != nil {
		if s, ok := body.Detail.(string); ok {
			return s
		}
		b, _ := json.Marshal(body.Detail)
		return string(b)
	}
	return strings.TrimSpace(string(raw))
}
