// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samber/oops"

	"github.com/lipodem/trackpanel/internal/credentials"
	"github.com/lipodem/trackpanel/pkg/errutil"
)

// Session removal reasons, used as metric labels.
const (
	revokeLogout   = "logout"
	revokeExpired  = "expired"
	revokeIdle     = "idle"
	revokeAccount  = "account"
	revokeJanitor  = "janitor"
	janitorTimeout = 30 * time.Second
)

// SessionOption configures a SessionManager.
type SessionOption func(*SessionManager)

// WithSessionTimeout sets both the absolute lifetime granted on create or
// refresh and the idle limit.
func WithSessionTimeout(d time.Duration) SessionOption {
	return func(m *SessionManager) {
		m.timeout = d
	}
}

// WithSessionClock replaces time.Now.
func WithSessionClock(now func() time.Time) SessionOption {
	return func(m *SessionManager) {
		m.now = now
	}
}

// WithJanitorInterval enables periodic removal of expired sessions.
// Zero disables it.
func WithJanitorInterval(d time.Duration) SessionOption {
	return func(m *SessionManager) {
		m.janitorInterval = d
	}
}

// WithSessionLogger sets the logger.
func WithSessionLogger(l *slog.Logger) SessionOption {
	return func(m *SessionManager) {
		m.logger = l
	}
}

// SessionManager issues and checks server sessions.
type SessionManager struct {
	store           SessionStore
	timeout         time.Duration
	now             func() time.Time
	logger          *slog.Logger
	janitorInterval time.Duration

	startOnce sync.Once
	closeOnce sync.Once
	started   atomic.Bool
	stop      chan struct{}
	done      chan struct{}
}

// NewSessionManager creates a SessionManager.
func NewSessionManager(store SessionStore, opts ...SessionOption) (*SessionManager, error) {
	if store == nil {
		return nil, oops.Errorf("session store is required")
	}
	m := &SessionManager{
		store:   store,
		timeout: DefaultSessionTimeout,
		now:     time.Now,
		logger:  slog.Default(),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.timeout <= 0 {
		return nil, oops.Errorf("session timeout must be positive")
	}
	if m.logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	return m, nil
}

// Timeout returns the configured session timeout.
func (m *SessionManager) Timeout() time.Duration {
	return m.timeout
}

// Create mints a session for account and returns it with its plaintext
// token.
func (m *SessionManager) Create(ctx context.Context, account *credentials.Account) (*Session, string, error) {
	token, hash, err := GenerateSessionToken()
	if err != nil {
		return nil, "", err
	}
	session, err := NewSession(account, hash, m.now(), m.timeout)
	if err != nil {
		return nil, "", err
	}
	if err := m.store.Create(ctx, session); err != nil {
		return nil, "", oops.Code("AUTH_SESSION_CREATE_FAILED").
			With("operation", "persist session").
			Wrap(err)
	}
	SessionsCreated.Inc()
	return session, token, nil
}

// Validate returns the session for token if it exists, has not expired
// and has not been idle longer than the timeout. Invalid sessions found
// this way are deleted. Validate does not record activity.
func (m *SessionManager) Validate(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, unauthorized()
	}
	session, err := m.store.GetByTokenHash(ctx, HashSessionToken(token))
	if errors.Is(err, ErrNotFound) {
		return nil, unauthorized()
	}
	if err != nil {
		return nil, oops.Code("SESSION_VALIDATE_FAILED").
			With("operation", "get session by token hash").
			Wrap(err)
	}

	now := m.now()
	reason := ""
	switch {
	case session.IsExpiredAt(now):
		reason = revokeExpired
	case session.IsIdleAt(now, m.timeout):
		reason = revokeIdle
	}
	if reason != "" {
		m.remove(ctx, session, reason)
		return nil, unauthorized()
	}
	return session, nil
}

// Touch validates the session and records activity at now. Only
// LastActivity is written, so a concurrent Refresh keeps its expiry. A
// failed validation leaves the session untouched.
func (m *SessionManager) Touch(ctx context.Context, token string) (*Session, error) {
	session, err := m.Validate(ctx, token)
	if err != nil {
		return nil, err
	}
	now := m.now()
	if err := m.store.Touch(ctx, session.ID, now); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, unauthorized()
		}
		return nil, oops.Code("SESSION_TOUCH_FAILED").With("session_id", session.ID).Wrap(err)
	}
	session.LastActivity = now
	return session, nil
}

// Refresh extends a currently valid session to now plus the timeout.
func (m *SessionManager) Refresh(ctx context.Context, token string) (*Session, error) {
	session, err := m.Validate(ctx, token)
	if err != nil {
		return nil, err
	}
	now := m.now()
	expires := now.Add(m.timeout)
	if err := m.store.UpdateActivity(ctx, session.ID, now, expires); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, unauthorized()
		}
		return nil, oops.Code("SESSION_REFRESH_FAILED").With("session_id", session.ID).Wrap(err)
	}
	session.LastActivity = now
	session.ExpiresAt = expires
	return session, nil
}

// Revoke invalidates the session for token. Revoking an unknown or
// already revoked token succeeds.
func (m *SessionManager) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	session, err := m.store.GetByTokenHash(ctx, HashSessionToken(token))
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return oops.Code("AUTH_LOGOUT_FAILED").With("operation", "get session by token hash").Wrap(err)
	}
	if err := m.store.Delete(ctx, session.ID); err != nil && !errors.Is(err, ErrNotFound) {
		return oops.Code("AUTH_LOGOUT_FAILED").
			With("operation", "delete session").
			With("session_id", session.ID).
			Wrap(err)
	}
	SessionsRevoked.WithLabelValues(revokeLogout).Inc()
	return nil
}

// RevokeAccount removes every session of accountID except exceptID.
func (m *SessionManager) RevokeAccount(ctx context.Context, accountID, exceptID string) (int64, error) {
	n, err := m.store.DeleteByAccount(ctx, accountID, exceptID)
	if err != nil {
		return 0, oops.Code("SESSION_REVOKE_ACCOUNT_FAILED").With("account_id", accountID).Wrap(err)
	}
	SessionsRevoked.WithLabelValues(revokeAccount).Add(float64(n))
	return n, nil
}

// Sweep deletes every expired or idle session.
func (m *SessionManager) Sweep(ctx context.Context) (int64, error) {
	now := m.now()
	n, err := m.store.DeleteExpired(ctx, now, now.Add(-m.timeout))
	if err != nil {
		return 0, oops.Code("SESSION_SWEEP_FAILED").Wrap(err)
	}
	SessionsRevoked.WithLabelValues(revokeJanitor).Add(float64(n))
	return n, nil
}

// Start launches the janitor if an interval is configured.
func (m *SessionManager) Start() {
	if m.janitorInterval <= 0 {
		return
	}
	m.startOnce.Do(func() {
		m.started.Store(true)
		go m.janitor()
	})
}

// Close stops the janitor and waits for it to exit.
func (m *SessionManager) Close() error {
	m.closeOnce.Do(func() {
		close(m.stop)
	})
	if !m.started.Load() {
		return nil
	}
	select {
	case <-m.done:
		return nil
	case <-time.After(janitorTimeout):
		return oops.Errorf("session janitor did not stop within %s", janitorTimeout)
	}
}

func (m *SessionManager) janitor() {
	defer close(m.done)
	ticker := time.NewTicker(m.janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), janitorTimeout)
			n, err := m.Sweep(ctx)
			cancel()
			if err != nil {
				errutil.LogError(ctx, m.logger, "session sweep failed", err)
				continue
			}
			if n > 0 {
				m.logger.Debug("removed expired sessions", "count", n)
			}
		}
	}
}

func (m *SessionManager) remove(ctx context.Context, s *Session, reason string) {
	if err := m.store.Delete(ctx, s.ID); err != nil && !errors.Is(err, ErrNotFound) {
		errutil.LogError(ctx, m.logger, "failed to delete invalid session", err)
		return
	}
	SessionsRevoked.WithLabelValues(reason).Inc()
}
