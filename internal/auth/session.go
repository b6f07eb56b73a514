// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/lipodem/trackpanel/internal/credentials"
)

// Session token configuration.
const (
	SessionTokenBytes     = 32 // 32 bytes = 64 hex chars
	DefaultSessionTimeout = 4 * time.Hour
)

// Session is a server-side login session. The plaintext token is only
// handed to the client; stores keep its hash.
type Session struct {
	ID               string           `json:"id"`
	TokenHash        string           `json:"tokenHash"`
	AccountID        string           `json:"accountId"`
	Username         string           `json:"username"`
	Role             credentials.Role `json:"role"`
	Permissions      []string         `json:"permissions"`
	PatientID        string           `json:"patientId,omitempty"`
	AssignedPatients []string         `json:"assignedPatients,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	ExpiresAt        time.Time        `json:"expiresAt"`
	LastActivity     time.Time        `json:"lastActivity"`
}

// NewSession creates a validated Session for account starting at now.
func NewSession(account *credentials.Account, tokenHash string, now time.Time, timeout time.Duration) (*Session, error) {
	if account == nil || account.ID == "" {
		return nil, oops.Code("SESSION_INVALID_ACCOUNT").Errorf("account ID cannot be empty")
	}
	if tokenHash == "" {
		return nil, oops.Code("SESSION_INVALID_HASH").Errorf("token hash cannot be empty")
	}
	if timeout <= 0 {
		return nil, oops.Code("SESSION_INVALID_EXPIRY").Errorf("session timeout must be positive")
	}
	return &Session{
		ID:               ulid.Make().String(),
		TokenHash:        tokenHash,
		AccountID:        account.ID,
		Username:         account.Username,
		Role:             account.Role,
		Permissions:      EffectivePermissions(account),
		PatientID:        account.PatientID,
		AssignedPatients: slices.Clone(account.AssignedPatients),
		CreatedAt:        now,
		ExpiresAt:        now.Add(timeout),
		LastActivity:     now,
	}, nil
}

// IsExpiredAt reports whether the session is past its absolute expiry at t.
func (s *Session) IsExpiredAt(t time.Time) bool {
	return t.After(s.ExpiresAt)
}

// IsIdleAt reports whether the session has been inactive longer than
// timeout at t.
func (s *Session) IsIdleAt(t time.Time, timeout time.Duration) bool {
	return t.Sub(s.LastActivity) > timeout
}

// HasPermission reports whether the session grants permission.
func (s *Session) HasPermission(permission string) bool {
	return HasPermission(s.Permissions, permission)
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	c := *s
	c.Permissions = slices.Clone(s.Permissions)
	c.AssignedPatients = slices.Clone(s.AssignedPatients)
	return &c
}

// GenerateSessionToken creates a secure random token and its hash.
// Returns (plaintext_token, sha256_hash, error).
func GenerateSessionToken() (token, hash string, err error) {
	tokenBytes := make([]byte, SessionTokenBytes)
	if _, err = rand.Read(tokenBytes); err != nil {
		return "", "", oops.Code("SESSION_TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", SessionTokenBytes).
			Wrap(err)
	}

	token = hex.EncodeToString(tokenBytes)
	return token, HashSessionToken(token), nil
}

// HashSessionToken computes the SHA256 hash of a session token.
func HashSessionToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// SessionStore persists sessions.
type SessionStore interface {
	// Create stores a new session.
	Create(ctx context.Context, session *Session) error

	// GetByTokenHash retrieves a session by its token hash. Returns
	// ErrNotFound when absent.
	GetByTokenHash(ctx context.Context, tokenHash string) (*Session, error)

	// UpdateActivity sets LastActivity and ExpiresAt of a session.
	UpdateActivity(ctx context.Context, id string, lastActivity, expiresAt time.Time) error

	// Touch sets LastActivity of a session and leaves ExpiresAt as stored.
	Touch(ctx context.Context, id string, lastActivity time.Time) error

	// Delete removes a session by ID. Returns ErrNotFound when absent.
	Delete(ctx context.Context, id string) error

	// DeleteByAccount removes every session of an account except exceptID
	// and returns how many were removed.
	DeleteByAccount(ctx context.Context, accountID, exceptID string) (int64, error)

	// DeleteExpired removes sessions whose absolute expiry is before now or
	// whose last activity is before idleBefore.
	DeleteExpired(ctx context.Context, now, idleBefore time.Time) (int64, error)
}
