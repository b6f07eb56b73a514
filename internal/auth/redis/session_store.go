// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package redis implements auth.SessionStore on Redis. Each session is a
// JSON value expiring at the session's absolute expiry, indexed by token
// hash and by account.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/lipodem/trackpanel/internal/auth"
)

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "trackpanel:"

const maxWatchRetries = 3

// SessionStore implements auth.SessionStore using Redis.
type SessionStore struct {
	client goredis.UniversalClient
	prefix string
	now    func() time.Time
}

// Option configures a SessionStore.
type Option func(*SessionStore)

// WithPrefix overrides DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(s *SessionStore) {
		s.prefix = prefix
	}
}

// WithClock replaces time.Now when computing key expiry.
func WithClock(now func() time.Time) Option {
	return func(s *SessionStore) {
		s.now = now
	}
}

// NewSessionStore creates a SessionStore on client.
func NewSessionStore(client goredis.UniversalClient, opts ...Option) *SessionStore {
	s := &SessionStore{client: client, prefix: DefaultPrefix, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SessionStore) sessionKey(id string) string {
	return s.prefix + "session:" + id
}

func (s *SessionStore) tokenKey(hash string) string {
	return s.prefix + "token:" + hash
}

func (s *SessionStore) accountKey(accountID string) string {
	return s.prefix + "account:" + accountID
}

// ttl returns how long keys for a session expiring at expiresAt should
// live. Redis rejects non-positive expirations, so already expired
// sessions get the smallest TTL Redis accepts.
func (s *SessionStore) ttl(expiresAt time.Time) time.Duration {
	d := expiresAt.Sub(s.now())
	if d < time.Millisecond {
		return time.Millisecond
	}
	return d
}

// Create stores a new session.
func (s *SessionStore) Create(ctx context.Context, session *auth.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return oops.Code("SESSION_CREATE_FAILED").With("operation", "encode session").Wrap(err)
	}
	ttl := s.ttl(session.ExpiresAt)
	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, s.sessionKey(session.ID), data, ttl)
		pipe.Set(ctx, s.tokenKey(session.TokenHash), session.ID, ttl)
		pipe.SAdd(ctx, s.accountKey(session.AccountID), session.ID)
		return nil
	})
	if err != nil {
		return oops.Code("SESSION_CREATE_FAILED").
			With("operation", "store session").
			With("account_id", session.AccountID).
			Wrap(err)
	}
	return nil
}

// GetByTokenHash retrieves a session by its token hash.
func (s *SessionStore) GetByTokenHash(ctx context.Context, tokenHash string) (*auth.Session, error) {
	id, err := s.client.Get(ctx, s.tokenKey(tokenHash)).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("SESSION_GET_BY_TOKEN_FAILED").
			With("operation", "get token index").
			Wrap(err)
	}
	return s.get(ctx, s.client, id)
}

type getter interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
}

func (s *SessionStore) get(ctx context.Context, c getter, id string) (*auth.Session, error) {
	data, err := c.Get(ctx, s.sessionKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, oops.Code("SESSION_NOT_FOUND").With("id", id).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("SESSION_GET_FAILED").With("id", id).Wrap(err)
	}
	var session auth.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, oops.Code("SESSION_DECODE_FAILED").With("id", id).Wrap(err)
	}
	return &session, nil
}

// UpdateActivity sets LastActivity and ExpiresAt of a session. The update
// runs under WATCH so concurrent updates never resurrect a deleted session.
func (s *SessionStore) UpdateActivity(ctx context.Context, id string, lastActivity, expiresAt time.Time) error {
	return s.update(ctx, id, "SESSION_UPDATE_ACTIVITY_FAILED", func(session *auth.Session) {
		session.LastActivity = lastActivity
		session.ExpiresAt = expiresAt
	})
}

// Touch sets LastActivity only. ExpiresAt is taken from the stored session
// inside the same WATCH, so a concurrent refresh is kept.
func (s *SessionStore) Touch(ctx context.Context, id string, lastActivity time.Time) error {
	return s.update(ctx, id, "SESSION_TOUCH_FAILED", func(session *auth.Session) {
		session.LastActivity = lastActivity
	})
}

func (s *SessionStore) update(ctx context.Context, id, code string, apply func(*auth.Session)) error {
	key := s.sessionKey(id)
	var err error
	for range maxWatchRetries {
		err = s.client.Watch(ctx, func(tx *goredis.Tx) error {
			session, err := s.get(ctx, tx, id)
			if err != nil {
				return err
			}
			apply(session)
			data, err := json.Marshal(session)
			if err != nil {
				return oops.Code(code).With("operation", "encode session").Wrap(err)
			}
			ttl := s.ttl(session.ExpiresAt)
			_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
				pipe.Set(ctx, key, data, ttl)
				pipe.Expire(ctx, s.tokenKey(session.TokenHash), ttl)
				return nil
			})
			return err
		}, key)
		if !errors.Is(err, goredis.TxFailedErr) {
			break
		}
	}
	if err == nil || errors.Is(err, auth.ErrNotFound) {
		return err
	}
	return oops.Code(code).With("id", id).Wrap(err)
}

// Delete removes a session by ID.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	session, err := s.get(ctx, s.client, id)
	if err != nil {
		return err
	}
	if _, err := s.remove(ctx, session); err != nil {
		return oops.Code("SESSION_DELETE_FAILED").With("id", id).Wrap(err)
	}
	return nil
}

// DeleteByAccount removes every session of an account except exceptID.
func (s *SessionStore) DeleteByAccount(ctx context.Context, accountID, exceptID string) (int64, error) {
	ids, err := s.client.SMembers(ctx, s.accountKey(accountID)).Result()
	if err != nil {
		return 0, oops.Code("SESSION_DELETE_BY_ACCOUNT_FAILED").
			With("operation", "list account sessions").
			With("account_id", accountID).
			Wrap(err)
	}
	var n int64
	for _, id := range ids {
		if id == exceptID {
			continue
		}
		session, err := s.get(ctx, s.client, id)
		if errors.Is(err, auth.ErrNotFound) {
			// Expired by TTL; drop the stale index entry.
			s.client.SRem(ctx, s.accountKey(accountID), id)
			continue
		}
		if err != nil {
			return n, err
		}
		removed, err := s.remove(ctx, session)
		if err != nil {
			return n, oops.Code("SESSION_DELETE_BY_ACCOUNT_FAILED").With("account_id", accountID).Wrap(err)
		}
		if removed {
			n++
		}
	}
	return n, nil
}

// DeleteExpired removes sessions idle since before idleBefore or past
// their expiry. Redis already drops keys at absolute expiry, so this
// mostly catches idle sessions.
func (s *SessionStore) DeleteExpired(ctx context.Context, now, idleBefore time.Time) (int64, error) {
	var n int64
	iter := s.client.Scan(ctx, 0, s.sessionKey("*"), 100).Iterator()
	for iter.Next(ctx) {
		id := iter.Val()[len(s.sessionKey("")):]
		session, err := s.get(ctx, s.client, id)
		if errors.Is(err, auth.ErrNotFound) {
			continue
		}
		if err != nil {
			return n, err
		}
		if !session.ExpiresAt.Before(now) && !session.LastActivity.Before(idleBefore) {
			continue
		}
		removed, err := s.remove(ctx, session)
		if err != nil {
			return n, oops.Code("SESSION_DELETE_EXPIRED_FAILED").With("id", id).Wrap(err)
		}
		if removed {
			n++
		}
	}
	if err := iter.Err(); err != nil {
		return n, oops.Code("SESSION_DELETE_EXPIRED_FAILED").With("operation", "scan sessions").Wrap(err)
	}
	return n, nil
}

func (s *SessionStore) remove(ctx context.Context, session *auth.Session) (bool, error) {
	var del *goredis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		del = pipe.Del(ctx, s.sessionKey(session.ID))
		pipe.Del(ctx, s.tokenKey(session.TokenHash))
		pipe.SRem(ctx, s.accountKey(session.AccountID), session.ID)
		return nil
	})
	if err != nil {
		return false, err
	}
	return del.Val() > 0, nil
}
