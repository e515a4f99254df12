// Package client talks to the attendance scraping backend over HTTP+JSON.
//
// Responses are returned verbatim. The client performs no retries and no
// schema validation; interpreting success=false is the caller's job.
package client

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

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nsit-tools/attendance-dashboard/internal/logger"
	"github.com/nsit-tools/attendance-dashboard/internal/model"
)

// DefaultBaseURL is the backend address of the observed deployment.
const DefaultBaseURL = "http://localhost:5001"

// maxBodyBytes caps response bodies; a CAPTCHA screenshot is the largest
// payload the backend sends.
const maxBodyBytes = 8 << 20

// ErrTransport wraps every failure to reach the backend or decode its reply.
var ErrTransport = errors.New("backend unreachable")

type requestIDKey struct{}

// WithRequestID attaches a request ID that outgoing calls forward as
// X-Request-ID. Without one, each call gets a fresh uuid.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.New().String()
}

// Client is the backend API client.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds each call. Zero leaves calls unbounded.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithLogger sets the logger used for per-call debug lines.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log.With().Str("component", "backend_client").Logger() }
}

// New creates a Client for baseURL. An empty baseURL selects DefaultBaseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend address in use.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// RequestCaptcha asks the backend to open a portal session for identifier
// and return its CAPTCHA image along with the session handle.
func (c *Client) RequestCaptcha(ctx context.Context, identifier string) (*model.CaptchaResponse, error) {
	c.log.Info().Str("roll_no", logger.MaskIdentifier(identifier)).Msg("requesting captcha")

	var out model.CaptchaResponse
	if err := c.do(ctx, http.MethodPost, "/api/captcha", model.CaptchaRequest{RollNo: identifier}, &out); err != nil {
		return nil, fmt.Errorf("request captcha: %w", err)
	}
	return &out, nil
}

// RequestAttendance submits the credentials against an open session handle
// and returns the scraped per-subject records.
func (c *Client) RequestAttendance(ctx context.Context, req model.AttendanceRequest) (*model.AttendanceResponse, error) {
	c.log.Info().
		Int("year", req.Year).
		Int("semester", req.Semester).
		Msg("requesting attendance")

	var out model.AttendanceResponse
	if err := c.do(ctx, http.MethodPost, "/api/attendance", req, &out); err != nil {
		return nil, fmt.Errorf("request attendance: %w", err)
	}
	return &out, nil
}

// Health reports the backend's status.
func (c *Client) Health(ctx context.Context) (*model.HealthResponse, error) {
	var out model.HealthResponse
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, &out); err != nil {
		return nil, fmt.Errorf("health: %w", err)
	}
	return &out, nil
}

// do issues one request and decodes the JSON reply into out. Non-2xx
// statuses are not errors: the backend reports failures in the body.
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode body: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	reqID := requestID(ctx)
	req.Header.Set("X-Request-ID", reqID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("path", path).Str("request_id", reqID).Msg("backend request failed")
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Str("request_id", reqID).
		Msg("backend response")

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s response (status %d): %v", ErrTransport, path, resp.StatusCode, err)
	}
	return nil
}
