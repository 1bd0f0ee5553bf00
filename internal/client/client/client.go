package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/dmitrijs2005/scrumlink/internal/client/apimap"
	"github.com/dmitrijs2005/scrumlink/internal/client/auth"
	"github.com/dmitrijs2005/scrumlink/internal/client/notify"
	"github.com/dmitrijs2005/scrumlink/internal/client/transport"
	"github.com/dmitrijs2005/scrumlink/internal/logging"
)

// Client is the session façade: one logical, authenticated connection to one
// host.
type Client struct {
	transport transport.Transport
	session   *auth.Session
	logger    logging.Logger

	mu         sync.RWMutex
	connecting bool
	hostURL    string
	apiMap     apimap.Map
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger shared by the client and its auth session.
func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New builds a disconnected Client on top of t.
func New(t transport.Transport, opts ...Option) *Client {
	c := &Client{transport: t, logger: logging.Discard()}
	for _, opt := range opts {
		opt(c)
	}
	c.session = auth.NewSession(t, c.logger)
	c.logger = c.logger.With("component", "client")
	return c
}

// Connect logs in to hostBaseURL with username and password.
//
// It returns ("", nil) on success, a non-empty message with a nil error when
// the server rejected the attempt or could not be reached, and an error for
// misuse (ErrBusy) or a broken server contract. A failed attempt leaves the
// previously committed host, map and tokens untouched.
func (c *Client) Connect(ctx context.Context, hostBaseURL, username, password string, handler notify.Handler) (string, error) {
	if err := c.beginConnect(); err != nil {
		return "", err
	}
	defer c.endConnect()

	return c.connect(ctx, hostBaseURL, handler, func(ctx context.Context, host string, m apimap.Map) (string, error) {
		loginURI, err := apimap.ResolveAbsolute(host, m, apimap.IDUserAuth, apimap.RelAction)
		if err != nil {
			return "", err
		}
		if _, err := c.session.Login(ctx, loginURI, username, password); err != nil {
			return describe("login failed", err)
		}
		return "", nil
	})
}

// ConnectWithRefreshToken resumes a session using the refresh token already
// held by the client (see RestoreRefreshToken) instead of credentials.
func (c *Client) ConnectWithRefreshToken(ctx context.Context, hostBaseURL string, handler notify.Handler) (string, error) {
	if err := c.beginConnect(); err != nil {
		return "", err
	}
	defer c.endConnect()

	if c.session.Tokens().RefreshToken == "" {
		return "", auth.ErrNoRefreshToken
	}
	return c.connect(ctx, hostBaseURL, handler, func(ctx context.Context, host string, m apimap.Map) (string, error) {
		refreshURI, err := apimap.ResolveAbsolute(host, m, apimap.IDUserAuthRefresh, apimap.RelAction)
		if err != nil {
			return "", err
		}
		if _, err := c.session.Refresh(ctx, refreshURI); err != nil {
			return describe("resume failed", err)
		}
		return "", nil
	})
}

type authenticateFunc func(ctx context.Context, host string, m apimap.Map) (string, error)

// connect runs under the connecting guard. Host and map are committed only
// after authenticate succeeds.
func (c *Client) connect(ctx context.Context, hostBaseURL string, handler notify.Handler, authenticate authenticateFunc) (string, error) {
	host := apimap.Canonicalize(hostBaseURL)
	if err := validateAbsoluteURI(host); err != nil {
		return fmt.Sprintf("invalid host URL %q", hostBaseURL), nil
	}
	log := c.logger.With("host", host)

	entries, err := apimap.Load(ctx, c.transport, host)
	if err != nil {
		log.Warn(ctx, "loading api map failed", "error", err)
		return describe("loading api map failed", err)
	}
	m := apimap.Build(entries)

	refreshURI, err := apimap.ResolveAbsolute(host, m, apimap.IDUserAuthRefresh, apimap.RelAction)
	if err != nil {
		return "", err
	}

	if msg, err := authenticate(ctx, host, m); msg != "" || err != nil {
		return msg, err
	}

	c.mu.Lock()
	c.hostURL = host
	c.apiMap = m
	c.mu.Unlock()

	c.session.SetNotificationHandler(notify.Chain(notify.LogHandler(log), handler))
	c.session.RegisterAutoRefreshHook(refreshURI)

	log.Info(ctx, "connected", "endpoints", len(m))
	return "", nil
}

func (c *Client) beginConnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connecting {
		return ErrBusy
	}
	c.connecting = true
	return nil
}

func (c *Client) endConnect() {
	c.mu.Lock()
	c.connecting = false
	c.mu.Unlock()
}

// Disconnect drops the session tokens. The endpoint map and host stay
// committed so a later Connect can reuse the same Client.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connecting {
		return ErrDisconnectWhileConnecting
	}
	if c.session.Tokens().IsZero() {
		return nil
	}
	c.transport.SetAuthRefresher(nil)
	c.session.Clear()
	c.logger.Info(context.Background(), "disconnected", "host", c.hostURL)
	return nil
}

// IsConnected reports whether a map is committed and an access token is held.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiMap != nil && c.hostURL != "" && c.session.HasAuthToken()
}

// IsConnecting reports whether a connect attempt is running.
func (c *Client) IsConnecting() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connecting
}

// HostURL returns the committed canonical host, or "" before the first
// successful connect.
func (c *Client) HostURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hostURL
}

// RestoreRefreshToken seeds the refresh token used by ConnectWithRefreshToken.
func (c *Client) RestoreRefreshToken(token string) {
	c.session.SetRefreshToken(token)
}

// RefreshToken returns the currently held refresh token, for callers that
// want to resume the session later.
func (c *Client) RefreshToken() string {
	return c.session.Tokens().RefreshToken
}

// SessionExpiry returns the expiry of the current access token when the
// server issues JWTs.
func (c *Client) SessionExpiry() (time.Time, bool) {
	return c.session.Tokens().AuthExpiry()
}

// describe turns structured transport failures into a message for the user
// and passes everything else through as an error.
func describe(op string, err error) (string, error) {
	var se *transport.StatusError
	switch {
	case errors.As(err, &se):
		return fmt.Sprintf("%s: %s", op, se.Error()), nil
	case errors.Is(err, transport.ErrUnavailable),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return fmt.Sprintf("%s: %v", op, err), nil
	default:
		return "", fmt.Errorf("%s: %w", op, err)
	}
}

func validateAbsoluteURI(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidURI, raw, err)
	}
	if !u.IsAbs() || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w %q: not an absolute http(s) url", ErrInvalidURI, raw)
	}
	return nil
}
