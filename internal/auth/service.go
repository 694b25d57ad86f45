package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"chanlytics/internal/metrics"
	"chanlytics/pkg/logger"

	"github.com/google/uuid"
)

// State is the authentication state seen by a request.
type State string

const (
	StateLoading         State = "loading"
	StateAuthenticated   State = "authenticated"
	StateUnauthenticated State = "unauthenticated"
)

var (
	ErrNotAuthenticated = errors.New("auth: user not authenticated")
	ErrMissingInput     = errors.New("auth: email and password are required")
	ErrStoreUnavailable = errors.New("auth: session store unavailable")
)

// providerRefreshSkew renews provider tokens slightly before they expire.
const providerRefreshSkew = time.Minute

// Context owns the signed-in sessions of the application. It is built once
// at startup and shared by every handler.
type Context struct {
	provider Provider
	store    SessionStore
	tokens   *Manager
	metrics  *metrics.Metrics
	clock    func() time.Time

	ready atomic.Bool
}

type ContextOption func(*Context)

func WithClock(clock func() time.Time) ContextOption {
	return func(c *Context) { c.clock = clock }
}

func WithMetrics(m *metrics.Metrics) ContextOption {
	return func(c *Context) { c.metrics = m }
}

func NewContext(provider Provider, store SessionStore, tokens *Manager, opts ...ContextOption) *Context {
	c := &Context{provider: provider, store: store, tokens: tokens, clock: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Start verifies the session store. Until it succeeds every request
// resolves to StateLoading.
func (c *Context) Start(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	c.ready.Store(true)
	return nil
}

func (c *Context) Ready() bool { return c.ready.Load() }

// SignInWithPassword authenticates with the provider and opens a session.
// A rejected password yields an error wrapping ErrInvalidCredentials whose
// text is the provider's message.
func (c *Context) SignInWithPassword(ctx context.Context, email, password string) (TokenPair, Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		c.metrics.ObserveSignIn(metrics.ResultInvalid)
		return TokenPair{}, Session{}, ErrMissingInput
	}
	log := logger.From(ctx)

	ps, err := c.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			c.metrics.ObserveSignIn(metrics.ResultInvalid)
			log.Info("sign in rejected", slog.String("reason", err.Error()))
		} else {
			c.metrics.ObserveSignIn(metrics.ResultError)
			log.Error("sign in failed", slog.Any("err", err))
		}
		return TokenPair{}, Session{}, err
	}

	now := c.clock()
	sess := Session{
		ID:                   uuid.NewString(),
		User:                 ps.User,
		ProviderAccessToken:  ps.AccessToken,
		ProviderRefreshToken: ps.RefreshToken,
		ProviderExpiresAt:    ps.ExpiresAt,
		CreatedAt:            now,
		ExpiresAt:            now.Add(c.tokens.RefreshTTL()),
	}
	if err := c.store.Save(ctx, sess, c.tokens.RefreshTTL()); err != nil {
		c.metrics.ObserveSignIn(metrics.ResultError)
		return TokenPair{}, Session{}, err
	}

	pair, err := c.tokens.IssuePair(now, sess.User.ID, sess.ID)
	if err != nil {
		_ = c.store.Delete(ctx, sess.ID)
		c.metrics.ObserveSignIn(metrics.ResultError)
		return TokenPair{}, Session{}, err
	}
	c.metrics.ObserveSignIn(metrics.ResultOK)
	log.Info("signed in", slog.String("user_id", sess.User.ID), slog.String("session_id", sess.ID))
	return pair, sess, nil
}

// Resolve maps an access token to its session and state.
func (c *Context) Resolve(ctx context.Context, accessToken string) (Session, State) {
	if !c.Ready() {
		return Session{}, StateLoading
	}
	if accessToken == "" {
		return Session{}, StateUnauthenticated
	}
	claims, err := c.tokens.Verify(accessToken, TokenTypeAccess, c.clock())
	if err != nil {
		return Session{}, StateUnauthenticated
	}
	sess, ok, err := c.store.Get(ctx, claims.SessionID)
	if err != nil {
		logger.From(ctx).Error("session lookup failed", slog.Any("err", err))
		return Session{}, StateLoading
	}
	if !ok || sess.User.ID != claims.UserID {
		return Session{}, StateUnauthenticated
	}
	return sess, StateAuthenticated
}

// Refresh rotates the token pair for a live session, renewing the provider
// token when it is about to expire.
func (c *Context) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	now := c.clock()
	claims, err := c.tokens.Verify(refreshToken, TokenTypeRefresh, now)
	if err != nil {
		return TokenPair{}, fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
	}
	sess, ok, err := c.store.Get(ctx, claims.SessionID)
	if err != nil {
		return TokenPair{}, err
	}
	if !ok {
		return TokenPair{}, ErrNotAuthenticated
	}

	if !sess.ProviderExpiresAt.IsZero() && now.Add(providerRefreshSkew).After(sess.ProviderExpiresAt) {
		ps, err := c.provider.RefreshSession(ctx, sess.ProviderRefreshToken)
		if err != nil {
			logger.From(ctx).Warn("provider refresh failed", slog.String("session_id", sess.ID), slog.Any("err", err))
			return TokenPair{}, fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
		}
		sess.ProviderAccessToken = ps.AccessToken
		sess.ProviderRefreshToken = ps.RefreshToken
		sess.ProviderExpiresAt = ps.ExpiresAt
		if ps.User.ID != "" {
			sess.User = ps.User
		}
	}

	sess.ExpiresAt = now.Add(c.tokens.RefreshTTL())
	if err := c.store.Save(ctx, sess, c.tokens.RefreshTTL()); err != nil {
		return TokenPair{}, err
	}
	return c.tokens.IssuePair(now, sess.User.ID, sess.ID)
}

// SignOut ends a session. The provider logout is best effort; the local
// session is always removed.
func (c *Context) SignOut(ctx context.Context, sessionID string) error {
	log := logger.From(ctx)
	sess, ok, err := c.store.Get(ctx, sessionID)
	if err != nil {
		log.Warn("sign out lookup failed", slog.String("session_id", sessionID), slog.Any("err", err))
	}
	if ok && sess.ProviderAccessToken != "" {
		if err := c.provider.SignOut(ctx, sess.ProviderAccessToken); err != nil {
			log.Warn("provider sign out failed", slog.String("session_id", sessionID), slog.Any("err", err))
		}
	}
	return c.store.Delete(ctx, sessionID)
}

// UpdateUserCompanyName writes company_name into the provider's user
// metadata. On failure the stored session is left untouched. Once the
// provider has accepted the change the update succeeds even if the cached
// profile cannot be rewritten.
func (c *Context) UpdateUserCompanyName(ctx context.Context, sessionID, name string) (User, error) {
	log := logger.From(ctx)
	sess, ok, err := c.store.Get(ctx, sessionID)
	if err != nil {
		return User{}, err
	}
	if !ok {
		return User{}, ErrNotAuthenticated
	}
	ttl := sess.ExpiresAt.Sub(c.clock())
	if ttl <= 0 {
		return User{}, ErrNotAuthenticated
	}

	name = strings.TrimSpace(name)
	u, err := c.provider.UpdateUser(ctx, sess.ProviderAccessToken, map[string]any{"company_name": name})
	if err != nil {
		log.Error("update company name failed", slog.String("user_id", sess.User.ID), slog.Any("err", err))
		return User{}, err
	}
	if u.ID == "" {
		u = sess.User
		u.CompanyName = name
	}
	sess.User = u

	if err := c.store.Save(ctx, sess, ttl); err != nil {
		log.Warn("cached profile not updated", slog.String("session_id", sessionID), slog.Any("err", err))
	}
	return u, nil
}

// User returns the session's profile as the provider currently reports it,
// falling back to the cached copy when the provider cannot be reached.
func (c *Context) User(ctx context.Context, sessionID string) (User, error) {
	sess, ok, err := c.store.Get(ctx, sessionID)
	if err != nil {
		return User{}, err
	}
	if !ok {
		return User{}, ErrNotAuthenticated
	}

	u, err := c.provider.GetUser(ctx, sess.ProviderAccessToken)
	if err != nil || u.ID != sess.User.ID {
		if err != nil {
			logger.From(ctx).Warn("provider user lookup failed", slog.String("user_id", sess.User.ID), slog.Any("err", err))
		}
		return sess.User, nil
	}
	if u != sess.User {
		sess.User = u
		if ttl := sess.ExpiresAt.Sub(c.clock()); ttl > 0 {
			if err := c.store.Save(ctx, sess, ttl); err != nil {
				logger.From(ctx).Warn("cached profile not refreshed", slog.String("session_id", sessionID), slog.Any("err", err))
			}
		}
	}
	return u, nil
}
