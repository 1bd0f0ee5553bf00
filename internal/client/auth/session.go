// Package auth owns the authentication state of a session: the token pair,
// the login and refresh actions, and the hook the transport calls when the
// server rejects an access token.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/scrumlink/internal/client/models"
	"github.com/dmitrijs2005/scrumlink/internal/client/notify"
	"github.com/dmitrijs2005/scrumlink/internal/client/transport"
	"github.com/dmitrijs2005/scrumlink/internal/common"
	"github.com/dmitrijs2005/scrumlink/internal/logging"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrNoRefreshToken is returned by Refresh when no refresh token is held.
	ErrNoRefreshToken = fmt.Errorf("%w: no refresh token held", common.ErrPrecondition)

	// ErrEmptyTokens is returned when the server answers a login or refresh
	// without an access token.
	ErrEmptyTokens = errors.New("server returned an empty token pair")
)

// Session holds the token pair of one logical session and keeps the
// transport's Authorization header in sync with it.
//
// At most one refresh is in flight per refresh token: concurrent callers that
// hold the same refresh token share the result of a single call.
type Session struct {
	transport transport.Transport
	logger    logging.Logger

	mu         sync.RWMutex
	tokens     Tokens
	refreshURI string
	notifier   notify.Handler

	refreshes  singleflight.Group
	refreshing atomic.Bool
}

var _ transport.AuthRefresher = (*Session)(nil)

// NewSession binds a Session to t. A nil logger discards output.
func NewSession(t transport.Transport, logger logging.Logger) *Session {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Session{transport: t, logger: logger.With("component", "auth")}
}

// Tokens returns the current token pair.
func (s *Session) Tokens() Tokens {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens
}

// HasAuthToken reports whether an access token is held.
func (s *Session) HasAuthToken() bool {
	return s.Tokens().AuthToken != ""
}

// IsRefreshing reports whether a refresh call is in flight.
func (s *Session) IsRefreshing() bool {
	return s.refreshing.Load()
}

// SetNotificationHandler replaces the handler used by RefreshAuth.
func (s *Session) SetNotificationHandler(h notify.Handler) {
	s.mu.Lock()
	s.notifier = h
	s.mu.Unlock()
}

// SetRefreshToken seeds a refresh token obtained outside this process, e.g.
// from a previous run, so Refresh can resume the session.
func (s *Session) SetRefreshToken(token string) {
	s.mu.Lock()
	s.tokens.RefreshToken = token
	s.mu.Unlock()
}

// Login exchanges credentials for a token pair at loginURI. A rejected login
// is reported to the caller as is; it never triggers the refresh hook. On
// failure the previously held tokens stay in place.
func (s *Session) Login(ctx context.Context, loginURI, username, password string) (Tokens, error) {
	var pair models.TokenPair
	req := models.LoginRequest{Username: username, Password: password}
	if err := s.transport.ExecAction(ctx, loginURI, req, &pair, transport.SkipRetryOnAuthFailure()); err != nil {
		s.logger.Warn(ctx, "login failed", "user", username, "error", err)
		return Tokens{}, err
	}

	tokens, err := s.store(pair)
	if err != nil {
		return Tokens{}, err
	}
	s.logAuthenticated(ctx, "logged in", tokens, "user", username)
	return tokens, nil
}

// refreshTimeout bounds a shared refresh call, which outlives the callers
// that started it.
const refreshTimeout = 30 * time.Second

// Refresh exchanges the held refresh token for a new pair at refreshURI.
//
// Callers holding the same refresh token share one call. The shared call is
// detached from any single caller's context, so a caller that gives up only
// fails itself; the rotation still completes for the others.
func (s *Session) Refresh(ctx context.Context, refreshURI string) (Tokens, error) {
	if err := ctx.Err(); err != nil {
		return Tokens{}, err
	}
	current := s.Tokens().RefreshToken
	if current == "" {
		return Tokens{}, ErrNoRefreshToken
	}

	ch := s.refreshes.DoChan(current, func() (any, error) {
		s.refreshing.Store(true)
		defer s.refreshing.Store(false)

		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		return s.refreshFrom(fctx, refreshURI, current)
	})

	select {
	case <-ctx.Done():
		s.logger.Debug(ctx, "gave up waiting for refresh", "error", ctx.Err())
		return Tokens{}, ctx.Err()
	case res := <-ch:
		if res.Shared {
			s.logger.Debug(ctx, "joined in-flight refresh")
		}
		if res.Err != nil {
			return Tokens{}, res.Err
		}
		return res.Val.(Tokens), nil
	}
}

// refreshFrom spends refreshToken unless it has already been rotated by an
// earlier flight, in which case the tokens now held are returned.
func (s *Session) refreshFrom(ctx context.Context, refreshURI, refreshToken string) (Tokens, error) {
	held := s.Tokens()
	switch {
	case held.RefreshToken == "":
		return Tokens{}, ErrNoRefreshToken
	case held.RefreshToken != refreshToken && held.AuthToken != "":
		s.logger.Debug(ctx, "refresh token already rotated")
		return held, nil
	}
	return s.doRefresh(ctx, refreshURI, refreshToken)
}

func (s *Session) doRefresh(ctx context.Context, refreshURI, refreshToken string) (Tokens, error) {
	var pair models.TokenPair
	req := models.RefreshTokenRequest{RefreshToken: refreshToken}
	if err := s.transport.ExecAction(ctx, refreshURI, req, &pair, transport.SkipRetryOnAuthFailure()); err != nil {
		s.logger.Warn(ctx, "token refresh failed", "error", err)
		return Tokens{}, err
	}

	tokens, err := s.store(pair)
	if err != nil {
		return Tokens{}, err
	}
	s.logAuthenticated(ctx, "tokens refreshed", tokens)
	return tokens, nil
}

// store commits a token pair returned by the server and installs the bearer
// header. A pair without a refresh token keeps the one already held.
func (s *Session) store(pair models.TokenPair) (Tokens, error) {
	if pair.AuthToken == "" {
		return Tokens{}, ErrEmptyTokens
	}
	tokens := Tokens{AuthToken: pair.AuthToken, RefreshToken: pair.RefreshToken}

	s.mu.Lock()
	if tokens.RefreshToken == "" {
		tokens.RefreshToken = s.tokens.RefreshToken
	}
	s.tokens = tokens
	s.transport.SetDefaultHeader(common.AuthHeaderName, common.BearerPrefix+tokens.AuthToken)
	s.mu.Unlock()
	return tokens, nil
}

func (s *Session) logAuthenticated(ctx context.Context, msg string, t Tokens, args ...any) {
	if exp, ok := t.AuthExpiry(); ok {
		args = append(args, "expires_at", exp)
	}
	s.logger.Info(ctx, msg, args...)
}

// RegisterAutoRefreshHook makes the session the transport's AuthRefresher,
// refreshing against refreshURI.
func (s *Session) RegisterAutoRefreshHook(refreshURI string) {
	s.mu.Lock()
	s.refreshURI = refreshURI
	s.mu.Unlock()
	s.transport.SetAuthRefresher(s)
}

// RefreshAuth implements transport.AuthRefresher. It reports progress through
// the notification handler and converts every failure into false.
func (s *Session) RefreshAuth(ctx context.Context) (ok bool) {
	s.mu.RLock()
	uri, notifier := s.refreshURI, s.notifier
	s.mu.RUnlock()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error(ctx, "refresh hook panicked", "panic", r)
			ok = false
		}
	}()

	notifier.Notify(ctx, notify.MsgReconnecting, notify.LevelInfo)

	if uri == "" {
		s.logger.Warn(ctx, "auth failure with no refresh endpoint registered")
		notifier.Notify(ctx, notify.MsgCouldNotReconnect, notify.LevelError)
		return false
	}

	if _, err := s.Refresh(ctx, uri); err != nil {
		notifier.Notify(ctx, notify.MsgCouldNotReconnect, notify.LevelError)
		return false
	}

	notifier.Notify(ctx, notify.MsgReconnected, notify.LevelInfo)
	return true
}

// Clear drops the held tokens and removes the bearer header.
func (s *Session) Clear() {
	s.mu.Lock()
	s.tokens = Tokens{}
	s.transport.SetDefaultHeader(common.AuthHeaderName, "")
	s.mu.Unlock()
}
