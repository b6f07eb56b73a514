// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"time"

	"github.com/lipodem/trackpanel/internal/credentials"
)

// Lockout defaults.
const (
	DefaultMaxAttempts     = 5
	DefaultLockoutDuration = 30 * time.Minute
)

// LockoutPolicy is the failed-attempt state machine stored on each
// account. It mutates the account it is given; persisting it is the
// caller's job.
type LockoutPolicy struct {
	MaxAttempts int           `koanf:"max_attempts"`
	Duration    time.Duration `koanf:"duration"`
}

// DefaultLockoutPolicy locks for 30 minutes after 5 failures.
func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{MaxAttempts: DefaultMaxAttempts, Duration: DefaultLockoutDuration}
}

// LockoutStatus describes an account after a check or a transition.
type LockoutStatus struct {
	Locked            bool
	LockedUntil       time.Time
	Remaining         time.Duration
	RemainingAttempts int
}

// Check reports whether the account is locked at now. It never changes
// the account.
func (p LockoutPolicy) Check(a *credentials.Account, now time.Time) LockoutStatus {
	if a.LockedUntil != nil && a.LockedUntil.After(now) {
		return LockoutStatus{
			Locked:      true,
			LockedUntil: *a.LockedUntil,
			Remaining:   a.LockedUntil.Sub(now),
		}
	}
	remaining := p.MaxAttempts - a.LoginAttempts
	if a.LockedUntil != nil {
		// Expired lock: the next failure starts a fresh count.
		remaining = p.MaxAttempts
	}
	return LockoutStatus{RemainingAttempts: max(remaining, 0)}
}

// RecordFailure counts a failed verification. Reaching MaxAttempts locks
// the account for Duration. Calling it on a locked account is a no-op.
func (p LockoutPolicy) RecordFailure(a *credentials.Account, now time.Time) LockoutStatus {
	if st := p.Check(a, now); st.Locked {
		return st
	}
	if a.LockedUntil != nil {
		a.LoginAttempts = 0
		a.LockedUntil = nil
	}

	a.LoginAttempts++
	if a.LoginAttempts >= p.MaxAttempts {
		until := now.Add(p.Duration)
		a.LockedUntil = &until
		return LockoutStatus{Locked: true, LockedUntil: until, Remaining: p.Duration}
	}
	return LockoutStatus{RemainingAttempts: p.MaxAttempts - a.LoginAttempts}
}

// RecordSuccess resets the counter, clears any lock and stamps lastLogin.
func (p LockoutPolicy) RecordSuccess(a *credentials.Account, now time.Time) {
	a.LoginAttempts = 0
	a.LockedUntil = nil
	a.LastLogin = &now
}
