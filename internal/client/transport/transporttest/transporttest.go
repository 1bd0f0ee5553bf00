// Package transporttest provides an in-memory transport.Transport for tests.
//
// Routes are registered per method and URI. Responses round-trip through
// JSON so decoding behaves as it would on the wire, and 401 answers consult
// the installed AuthRefresher exactly like transport.REST does.
package transporttest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/dmitrijs2005/scrumlink/internal/client/transport"
)

// Responder produces the response for one call. payload is the JSON-decoded
// request body (nil for GET). Returning a *transport.StatusError simulates a
// non-2xx answer.
type Responder func(ctx context.Context, payload map[string]any, headers map[string]string) (any, error)

// Call records a request seen by the fake.
type Call struct {
	Method  string
	URI     string
	Payload map[string]any
	Headers map[string]string
	Skip    bool
}

// Fake is a scripted transport.Transport.
type Fake struct {
	mu        sync.Mutex
	routes    map[string]Responder
	headers   map[string]string
	refresher transport.AuthRefresher
	calls     []Call
}

var _ transport.Transport = (*Fake)(nil)

func New() *Fake {
	return &Fake{routes: map[string]Responder{}, headers: map[string]string{}}
}

func key(method, uri string) string { return method + " " + uri }

// Handle registers r for method and uri, replacing any earlier responder.
func (f *Fake) Handle(method, uri string, r Responder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[key(method, uri)] = r
}

// HandleJSON registers a responder that always answers with v.
func (f *Fake) HandleJSON(method, uri string, v any) {
	f.Handle(method, uri, func(context.Context, map[string]any, map[string]string) (any, error) {
		return v, nil
	})
}

// HandleError registers a responder that always fails with err.
func (f *Fake) HandleError(method, uri string, err error) {
	f.Handle(method, uri, func(context.Context, map[string]any, map[string]string) (any, error) {
		return nil, err
	})
}

func (f *Fake) Get(ctx context.Context, uri string, out any) error {
	return f.do(ctx, http.MethodGet, uri, nil, out, false)
}

func (f *Fake) ExecAction(ctx context.Context, uri string, payload any, out any, opts ...transport.CallOption) error {
	return f.do(ctx, http.MethodPost, uri, payload, out, transport.ResolveCallOptions(opts).SkipRetryOnAuthFailure)
}

func (f *Fake) SetDefaultHeader(name, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if value == "" {
		delete(f.headers, name)
		return
	}
	f.headers[name] = value
}

func (f *Fake) SetAuthRefresher(r transport.AuthRefresher) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refresher = r
}

// Header returns the current default header value.
func (f *Fake) Header(name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.headers[name]
}

// Refresher returns the installed AuthRefresher.
func (f *Fake) Refresher() transport.AuthRefresher {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refresher
}

// Calls returns a copy of the recorded calls.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsTo returns the recorded calls for method and uri.
func (f *Fake) CallsTo(method, uri string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Method == method && c.URI == uri {
			out = append(out, c)
		}
	}
	return out
}

func (f *Fake) do(ctx context.Context, method, uri string, payload, out any, skip bool) error {
	err := f.once(ctx, method, uri, payload, out, skip)
	if skip || !transport.IsStatus(err, http.StatusUnauthorized) {
		return err
	}

	f.mu.Lock()
	r := f.refresher
	f.mu.Unlock()
	if r == nil || !r.RefreshAuth(ctx) {
		return err
	}
	return f.once(ctx, method, uri, payload, out, skip)
}

func (f *Fake) once(ctx context.Context, method, uri string, payload, out any, skip bool) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", transport.ErrUnavailable, err)
	}

	var body map[string]any
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return err
		}
	}

	f.mu.Lock()
	headers := make(map[string]string, len(f.headers))
	for k, v := range f.headers {
		headers[k] = v
	}
	f.calls = append(f.calls, Call{Method: method, URI: uri, Payload: body, Headers: headers, Skip: skip})
	r, ok := f.routes[key(method, uri)]
	f.mu.Unlock()

	if !ok {
		return &transport.StatusError{StatusCode: http.StatusNotFound, Message: "no route for " + key(method, uri)}
	}

	v, err := r(ctx, body, headers)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %w", transport.ErrMalformedResponse, err)
	}
	return nil
}
