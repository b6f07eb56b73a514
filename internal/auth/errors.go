// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"errors"
	"math"
	"time"

	"github.com/samber/oops"
)

// Error codes surfaced by the service. Transport layers map these to
// user-facing statuses.
const (
	CodeInvalidInput       = "AUTH_INVALID_INPUT"
	CodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	CodeAccountDisabled    = "AUTH_ACCOUNT_DISABLED"
	CodeAccountLocked      = "AUTH_ACCOUNT_LOCKED"
	CodeUnauthorized       = "AUTH_UNAUTHORIZED"
	CodeForbidden          = "AUTH_FORBIDDEN"
	CodeUsernameTaken      = "AUTH_USERNAME_TAKEN"
	CodeConflict           = "AUTH_CONFLICT"
	CodeInternal           = "AUTH_INTERNAL"
)

// ErrNotFound is returned by session stores when a session does not exist.
var ErrNotFound = errors.New("not found")

// Stable user-facing messages.
const (
	msgInvalidCredentials = "invalid username or password"
	msgAccountDisabled    = "account is disabled"
	msgAccountLocked      = "account is temporarily locked"
	msgUnauthorized       = "authentication required"
	msgForbidden          = "insufficient permissions"
	msgUsernameTaken      = "username already exists"
	msgConflict           = "the credential record changed concurrently, please retry"
	msgInternal           = "internal error"
)

func invalidInput(msg string) error {
	return oops.Code(CodeInvalidInput).Errorf("%s", msg)
}

func invalidCredentials() error {
	return oops.Code(CodeInvalidCredentials).Errorf(msgInvalidCredentials)
}

func accountDisabled() error {
	return oops.Code(CodeAccountDisabled).Errorf(msgAccountDisabled)
}

func accountLocked(lockedUntil time.Time, remaining time.Duration) error {
	return oops.Code(CodeAccountLocked).
		With("locked_until", lockedUntil).
		With("remaining_minutes", RemainingMinutes(remaining)).
		Errorf(msgAccountLocked)
}

func unauthorized() error {
	return oops.Code(CodeUnauthorized).Errorf(msgUnauthorized)
}

func forbidden(permission string) error {
	return oops.Code(CodeForbidden).With("permission", permission).Errorf(msgForbidden)
}

func usernameTaken(username string) error {
	return oops.Code(CodeUsernameTaken).With("username", username).Errorf(msgUsernameTaken)
}

// RemainingMinutes rounds a remaining lock duration up to whole minutes.
func RemainingMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Minutes()))
}
