package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/scrumlink/internal/common"
	"github.com/dmitrijs2005/scrumlink/internal/logging"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "scrumlink/1.0"

	// maxErrorMessageLen bounds how much of a non-JSON error body is kept.
	maxErrorMessageLen = 256
)

// REST is a Transport over HTTP/JSON backed by a resty client.
//
// Default headers are kept outside the resty client and applied per request,
// so they can be replaced while other requests are in flight.
type REST struct {
	client *resty.Client
	logger logging.Logger

	mu        sync.RWMutex
	headers   map[string]string
	refresher AuthRefresher
}

var _ Transport = (*REST)(nil)

// Option configures a REST transport.
type Option func(*REST)

// WithTimeout sets the per-request timeout of the underlying HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(t *REST) { t.client.SetTimeout(d) }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l logging.Logger) Option {
	return func(t *REST) { t.logger = l.With("component", "transport") }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(t *REST) { t.client.SetHeader("User-Agent", ua) }
}

// NewREST constructs a REST transport. Every request carries a fresh
// X-Request-ID unless the caller already set one.
func NewREST(opts ...Option) *REST {
	t := &REST{
		client:  resty.New(),
		logger:  logging.Discard(),
		headers: map[string]string{},
	}

	t.client.
		SetTimeout(defaultTimeout).
		SetHeader("User-Agent", defaultUserAgent).
		SetHeader("Accept", "application/json")

	t.client.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		if r.Header.Get(common.RequestIDHeaderName) == "" {
			r.SetHeader(common.RequestIDHeaderName, uuid.NewString())
		}
		return nil
	})

	for _, opt := range opts {
		opt(t)
	}
	t.client.SetLogger(restyLogger{t.logger})
	return t
}

// restyLogger routes resty's own diagnostics into the transport logger.
type restyLogger struct {
	l logging.Logger
}

func (r restyLogger) Errorf(format string, v ...any) {
	r.l.Warn(context.Background(), "resty: "+fmt.Sprintf(format, v...))
}

func (r restyLogger) Warnf(format string, v ...any) {
	r.l.Warn(context.Background(), "resty: "+fmt.Sprintf(format, v...))
}

func (r restyLogger) Debugf(format string, v ...any) {
	r.l.Debug(context.Background(), "resty: "+fmt.Sprintf(format, v...))
}

func (t *REST) Get(ctx context.Context, uri string, out any) error {
	return t.do(ctx, http.MethodGet, uri, nil, out, CallOptions{})
}

func (t *REST) ExecAction(ctx context.Context, uri string, payload any, out any, opts ...CallOption) error {
	return t.do(ctx, http.MethodPost, uri, payload, out, ResolveCallOptions(opts))
}

func (t *REST) SetDefaultHeader(name, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if value == "" {
		delete(t.headers, name)
		return
	}
	t.headers[name] = value
}

func (t *REST) SetAuthRefresher(r AuthRefresher) {
	t.mu.Lock()
	t.refresher = r
	t.mu.Unlock()
}

func (t *REST) defaultHeaders() map[string]string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	h := make(map[string]string, len(t.headers))
	for k, v := range t.headers {
		h[k] = v
	}
	return h
}

func (t *REST) authRefresher() AuthRefresher {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.refresher
}

func (t *REST) do(ctx context.Context, method, uri string, payload, out any, o CallOptions) error {
	resp, err := t.send(ctx, method, uri, payload)
	if err != nil {
		return err
	}

	if resp.StatusCode() == http.StatusUnauthorized && !o.SkipRetryOnAuthFailure {
		if r := t.authRefresher(); r != nil {
			t.logger.Debug(ctx, "auth failure, asking refresher", "method", method, "uri", uri)
			if r.RefreshAuth(ctx) {
				// headers are re-read, so the retry carries the new token
				resp, err = t.send(ctx, method, uri, payload)
				if err != nil {
					return err
				}
			}
		}
	}

	if !resp.IsSuccess() {
		return newStatusError(resp.StatusCode(), resp.Body())
	}
	return decode(resp.Body(), out)
}

func (t *REST) send(ctx context.Context, method, uri string, payload any) (*resty.Response, error) {
	req := t.client.R().
		SetContext(ctx).
		SetHeaders(t.defaultHeaders())
	if payload != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(payload)
	}

	resp, err := req.Execute(method, uri)
	if err != nil {
		t.logger.Debug(ctx, "request failed", "method", method, "uri", uri, "error", err)
		return nil, fmt.Errorf("%w: %s %s: %w", ErrUnavailable, method, uri, err)
	}

	t.logger.Debug(ctx, "request completed",
		"method", method,
		"uri", uri,
		"status", resp.StatusCode(),
		"request_id", resp.Request.Header.Get(common.RequestIDHeaderName),
		"duration", resp.Time(),
	)
	return resp, nil
}

func decode(body []byte, out any) error {
	if out == nil {
		return nil
	}
	if len(body) == 0 {
		return fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return nil
}

// newStatusError extracts a message from a JSON error body ({"message": ...}
// or {"error": ...}) and falls back to the raw body text.
func newStatusError(code int, body []byte) *StatusError {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil {
		if payload.Message != "" {
			return &StatusError{StatusCode: code, Message: payload.Message}
		}
		if payload.Error != "" {
			return &StatusError{StatusCode: code, Message: payload.Error}
		}
	}

	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorMessageLen {
		msg = msg[:maxErrorMessageLen] + "..."
	}
	return &StatusError{StatusCode: code, Message: msg}
}
