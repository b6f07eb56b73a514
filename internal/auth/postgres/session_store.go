// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package postgres implements auth.SessionStore on the auth_sessions
// table created by the migrations in internal/store.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/lipodem/trackpanel/internal/auth"
	"github.com/lipodem/trackpanel/internal/credentials"
)

// DB is the subset of pgxpool.Pool the store uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SessionStore implements auth.SessionStore using PostgreSQL.
type SessionStore struct {
	db DB
}

// NewSessionStore creates a new SessionStore.
func NewSessionStore(db DB) *SessionStore {
	return &SessionStore{db: db}
}

const sessionColumns = `id, token_hash, account_id, username, role, permissions, patient_id,
		assigned_patients, created_at, expires_at, last_activity`

// Create stores a new session.
func (r *SessionStore) Create(ctx context.Context, session *auth.Session) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO auth_sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		session.ID,
		session.TokenHash,
		session.AccountID,
		session.Username,
		string(session.Role),
		nonNil(session.Permissions),
		nullable(session.PatientID),
		nonNil(session.AssignedPatients),
		session.CreatedAt,
		session.ExpiresAt,
		session.LastActivity,
	)
	if err != nil {
		return oops.Code("SESSION_CREATE_FAILED").
			With("operation", "insert auth_session").
			With("account_id", session.AccountID).
			Wrap(err)
	}
	return nil
}

// GetByTokenHash retrieves a session by its token hash.
func (r *SessionStore) GetByTokenHash(ctx context.Context, tokenHash string) (*auth.Session, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM auth_sessions
		WHERE token_hash = $1
	`, tokenHash)

	session, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("SESSION_GET_BY_TOKEN_FAILED").
			With("operation", "get session by token hash").
			Wrap(err)
	}
	return session, nil
}

// UpdateActivity sets last_activity and expires_at for a session. Only
// Refresh moves expires_at.
func (r *SessionStore) UpdateActivity(ctx context.Context, id string, lastActivity, expiresAt time.Time) error {
	result, err := r.db.Exec(ctx, `
		UPDATE auth_sessions SET last_activity = $2, expires_at = $3
		WHERE id = $1
	`, id, lastActivity, expiresAt)
	if err != nil {
		return oops.Code("SESSION_UPDATE_ACTIVITY_FAILED").
			With("operation", "update activity and expiry").
			With("id", id).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("SESSION_NOT_FOUND").
			With("id", id).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// Touch sets last_activity only, leaving expires_at to Refresh.
func (r *SessionStore) Touch(ctx context.Context, id string, lastActivity time.Time) error {
	result, err := r.db.Exec(ctx, `
		UPDATE auth_sessions SET last_activity = $2
		WHERE id = $1
	`, id, lastActivity)
	if err != nil {
		return oops.Code("SESSION_TOUCH_FAILED").
			With("operation", "update last_activity").
			With("id", id).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("SESSION_NOT_FOUND").
			With("id", id).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// Delete removes a session by ID.
func (r *SessionStore) Delete(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `
		DELETE FROM auth_sessions WHERE id = $1
	`, id)
	if err != nil {
		return oops.Code("SESSION_DELETE_FAILED").
			With("operation", "delete auth_session").
			With("id", id).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("SESSION_NOT_FOUND").
			With("id", id).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// DeleteByAccount removes all sessions of an account except exceptID.
func (r *SessionStore) DeleteByAccount(ctx context.Context, accountID, exceptID string) (int64, error) {
	result, err := r.db.Exec(ctx, `
		DELETE FROM auth_sessions WHERE account_id = $1 AND id <> $2
	`, accountID, exceptID)
	if err != nil {
		return 0, oops.Code("SESSION_DELETE_BY_ACCOUNT_FAILED").
			With("operation", "delete auth_sessions by account").
			With("account_id", accountID).
			Wrap(err)
	}
	// No ErrNotFound when nothing matched; that's a valid state.
	return result.RowsAffected(), nil
}

// DeleteExpired removes expired or idle sessions and returns the count.
func (r *SessionStore) DeleteExpired(ctx context.Context, now, idleBefore time.Time) (int64, error) {
	result, err := r.db.Exec(ctx, `
		DELETE FROM auth_sessions WHERE expires_at < $1 OR last_activity < $2
	`, now, idleBefore)
	if err != nil {
		return 0, oops.Code("SESSION_DELETE_EXPIRED_FAILED").
			With("operation", "delete expired auth_sessions").
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

// scanSession scans a single row into a Session.
// Callers are responsible for handling pgx.ErrNoRows.
func scanSession(row pgx.Row) (*auth.Session, error) {
	var (
		s         auth.Session
		role      string
		patientID *string
	)
	err := row.Scan(&s.ID, &s.TokenHash, &s.AccountID, &s.Username, &role, &s.Permissions,
		&patientID, &s.AssignedPatients, &s.CreatedAt, &s.ExpiresAt, &s.LastActivity)
	if err != nil {
		// Propagate pgx.ErrNoRows unchanged for callers to handle with context.
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("SESSION_SCAN_FAILED").
			With("operation", "scan auth_session").
			Wrap(err)
	}
	s.Role = credentials.Role(role)
	if patientID != nil {
		s.PatientID = *patientID
	}
	if len(s.AssignedPatients) == 0 {
		s.AssignedPatients = nil
	}
	return &s, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
