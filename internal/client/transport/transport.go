// Package transport defines the REST collaborator used by the session client
// and a concrete implementation backed by resty.
//
// The session core never builds HTTP requests itself: it asks a Transport to
// GET a resource or execute an action, installs default headers (the bearer
// token) and registers an AuthRefresher that the transport consults when the
// server answers 401 Unauthorized.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnavailable wraps failures to get any HTTP answer at all: DNS,
	// connection refused, TLS, timeouts and cancellation.
	ErrUnavailable = errors.New("server unavailable")

	// ErrMalformedResponse is returned when a 2xx body cannot be decoded into
	// the expected shape.
	ErrMalformedResponse = errors.New("malformed response body")
)

// StatusError is a structured non-2xx answer from the server.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server responded with %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("server responded with %d: %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

// AuthRefresher is consulted by a Transport when a request fails with
// 401 Unauthorized. Returning true asks the transport to repeat the original
// request once; false surfaces the original failure to the caller.
type AuthRefresher interface {
	RefreshAuth(ctx context.Context) bool
}

// Transport is the REST collaborator of the session client.
type Transport interface {
	// Get fetches uri and decodes the JSON body into out (which may be nil).
	Get(ctx context.Context, uri string, out any) error

	// ExecAction posts payload as JSON to uri and decodes the answer into out.
	ExecAction(ctx context.Context, uri string, payload any, out any, opts ...CallOption) error

	// SetDefaultHeader sets a header sent with every subsequent request.
	// An empty value removes the header.
	SetDefaultHeader(name, value string)

	// SetAuthRefresher installs (or, with nil, removes) the auth failure hook.
	SetAuthRefresher(r AuthRefresher)
}

// CallOptions is the resolved form of a list of CallOption values.
type CallOptions struct {
	SkipRetryOnAuthFailure bool
}

// CallOption tunes a single ExecAction call.
type CallOption func(*CallOptions)

// SkipRetryOnAuthFailure disables the AuthRefresher for one call. The refresh
// action itself uses it so a rejected refresh token cannot recurse.
func SkipRetryOnAuthFailure() CallOption {
	return func(o *CallOptions) { o.SkipRetryOnAuthFailure = true }
}

// ResolveCallOptions applies opts in order. Transport implementations use it
// to read the per-call settings.
func ResolveCallOptions(opts []CallOption) CallOptions {
	var o CallOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
