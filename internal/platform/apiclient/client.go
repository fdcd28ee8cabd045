package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "adsdash/internal/platform/errors"
	"adsdash/internal/platform/id"
)

// RequestIDHeader carries the per-request id used to correlate client and server logs.
const RequestIDHeader = "X-Request-ID"

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is the shared transport for the metrics backend. Every call is bounded by timeout.
type Client struct {
	BaseURL *url.URL
	HTTP    HTTPDoer

	timeout time.Duration
	ids     id.Generator
	log     *zap.Logger
}

func New(base string, timeout time.Duration, log *zap.Logger) (*Client, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("parse api url: %q is not absolute", base)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		BaseURL: u,
		HTTP:    &http.Client{Timeout: timeout},
		timeout: timeout,
		ids:     id.UUID{},
		log:     log,
	}, nil
}

// PostForm sends form as application/x-www-form-urlencoded and decodes the JSON reply into out.
func (c *Client) PostForm(ctx context.Context, op, path string, form url.Values, out any) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolve(path, nil), strings.NewReader(form.Encode()))
	if err != nil {
		return &apperrors.RequestError{Op: op, Message: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, op, out)
}

// GetJSON issues an authenticated GET and decodes the JSON reply into out.
func (c *Client) GetJSON(ctx context.Context, op, path, token string, query url.Values, out any) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolve(path, query), nil)
	if err != nil {
		return &apperrors.RequestError{Op: op, Message: "build request", Err: err}
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return c.do(req, op, out)
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *Client) resolve(path string, query url.Values) string {
	ref := &url.URL{Path: strings.TrimRight(c.BaseURL.Path, "/") + path}
	if len(query) > 0 {
		ref.RawQuery = query.Encode()
	}
	return c.BaseURL.ResolveReference(ref).String()
}

func (c *Client) do(req *http.Request, op string, out any) error {
	requestID := c.ids.New()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		c.log.Warn("api request failed",
			zap.String("op", op),
			zap.String("request_id", requestID),
			zap.Duration("elapsed", time.Since(started)),
			zap.Error(err),
		)
		return transportError(op, err)
	}
	defer resp.Body.Close()

	c.log.Debug("api request",
		zap.String("op", op),
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(started)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		detail := Detail(buf)
		if resp.StatusCode == http.StatusUnauthorized {
			if detail == "" {
				detail = "session expired"
			}
			return &apperrors.AuthError{Message: detail}
		}
		msg := detail
		if msg == "" {
			msg = StatusMessage(resp.StatusCode)
		}
		return &apperrors.RequestError{Op: op, Status: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if isTimeout(err) {
			return transportError(op, err)
		}
		return &apperrors.RequestError{Op: op, Message: "decode response", Err: err}
	}
	return nil
}

// StatusMessage is the fallback text for an error status without a detail.
func StatusMessage(status int) string {
	return fmt.Sprintf("status %d", status)
}

// Detail extracts the backend's human-readable `detail` string from an error payload.
// Validation errors carry a list there; those yield "".
func Detail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}
	var detail string
	if err := json.Unmarshal(payload.Detail, &detail); err != nil {
		return ""
	}
	return strings.TrimSpace(detail)
}

func transportError(op string, err error) error {
	if isTimeout(err) {
		return &apperrors.RequestError{Op: op, Message: "request timed out", Err: context.DeadlineExceeded}
	}
	if errors.Is(err, context.Canceled) {
		return &apperrors.RequestError{Op: op, Message: "request canceled", Err: err}
	}
	return &apperrors.RequestError{Op: op, Message: "network error", Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
