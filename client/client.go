// Package client is a typed wrapper over the taskboard gateway's REST surface.
//
// Every gateway response uses the envelope
//
//	{"success": bool, "data": ..., "error": "...", "message": "..."}
//
// and every failure is returned as an *APIError carrying the most specific
// human readable message the gateway supplied.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultBaseURL     = "http://localhost:8080"
	defaultTimeout     = 10 * time.Second
	defaultMoveRetries = 2
	defaultRetryDelay  = 200 * time.Millisecond
	maxResponseSize    = 4 << 20

	tracerName = "taskboard/client"

	headerIdempotencyKey = "Idempotency-Key"
)

// Client issues requests against the gateway. It is safe for concurrent use.
type Client struct {
	baseURL     string
	token       string
	http        *http.Client
	logger      *log.Logger
	tracer      trace.Tracer
	moveRetries int
	retryDelay  time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		if tp != nil {
			c.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithMoveRetries bounds how many times MoveTask re-sends a request that
// failed in transport or with a 5xx. Retries reuse the idempotency key.
func WithMoveRetries(n int, delay time.Duration) Option {
	return func(c *Client) {
		if n >= 0 {
			c.moveRetries = n
		}
		if delay > 0 {
			c.retryDelay = delay
		}
	}
}

// New creates a Client for the gateway rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:     baseURL,
		http:        &http.Client{Timeout: defaultTimeout},
		logger:      log.StandardLogger(),
		tracer:      otel.GetTracerProvider().Tracer(tracerName),
		moveRetries: defaultMoveRetries,
		retryDelay:  defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope struct {
	Success bool                   `json:"success"`
	Data    sonic.NoCopyRawMessage `json:"data,omitempty"`
	Error   string                 `json:"error,omitempty"`
	Message string                 `json:"message,omitempty"`
}

type call struct {
	method   string
	route    string
	path     string
	body     any
	headers  map[string]string
	fallback string
}

// do performs one HTTP round-trip and decodes the envelope's data into out
// when out is non-nil.
func (c *Client) do(ctx context.Context, req call, out any) (err error) {
	ctx, span := c.tracer.Start(ctx, "taskboard.client "+req.method+" "+req.route,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", req.method),
			attribute.String("http.route", req.route),
		))
	start := time.Now()
	status := 0
	defer func() {
		span.SetAttributes(attribute.Int("http.status_code", status))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
		c.logger.WithFields(log.Fields{
			"method":      req.method,
			"route":       req.route,
			"status":      status,
			"duration_ms": time.Since(start).Milliseconds(),
		}).Debug("gateway request")
	}()

	var body io.Reader
	if req.body != nil {
		payload, merr := sonic.Marshal(req.body)
		if merr != nil {
			return fmt.Errorf("encode %s request: %w", req.route, merr)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", req.route, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return &APIError{Message: req.fallback, Err: err}
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return &APIError{StatusCode: status, Message: req.fallback, Err: err}
	}

	var env envelope
	decodeErr := sonic.Unmarshal(raw, &env)
	if status >= http.StatusBadRequest || decodeErr != nil || !env.Success {
		return &APIError{StatusCode: status, Message: messageFrom(env, decodeErr, req.fallback)}
	}
	if out == nil {
		return nil
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return &APIError{StatusCode: status, Message: req.fallback}
	}
	if err := sonic.Unmarshal(env.Data, out); err != nil {
		return &APIError{StatusCode: status, Message: req.fallback, Err: err}
	}
	return nil
}

// messageFrom prefers the structured error field, then message, then the
// per-operation fallback.
func messageFrom(env envelope, decodeErr error, fallback string) string {
	if decodeErr == nil {
		if msg := strings.TrimSpace(env.Error); msg != "" {
			return msg
		}
		if msg := strings.TrimSpace(env.Message); msg != "" {
			return msg
		}
	}
	if fallback == "" {
		return "Something went wrong"
	}
	return fallback
}
