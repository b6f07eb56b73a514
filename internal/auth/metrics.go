// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Login outcome labels.
const (
	OutcomeSuccess  = "success"
	OutcomeInvalid  = "invalid_credentials"
	OutcomeDisabled = "disabled"
	OutcomeLocked   = "locked"
	OutcomeError    = "error"
)

// LoginAttempts counts login attempts by outcome.
// Use RegisterMetrics to register this with a Prometheus registry.
var LoginAttempts = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "trackpanel_login_attempts_total",
		Help: "Total number of login attempts by outcome",
	},
	[]string{"outcome"},
)

// Lockouts counts accounts that became locked.
var Lockouts = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "trackpanel_account_lockouts_total",
		Help: "Total number of accounts locked after repeated failures",
	},
)

// ConflictRetries counts credential writes retried after a version conflict.
var ConflictRetries = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "trackpanel_credential_conflict_retries_total",
		Help: "Total number of credential record writes retried after a version conflict",
	},
	[]string{"operation"},
)

// SessionsCreated counts server sessions created.
var SessionsCreated = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "trackpanel_sessions_created_total",
		Help: "Total number of sessions created",
	},
)

// SessionsRevoked counts sessions removed, by reason.
var SessionsRevoked = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "trackpanel_sessions_revoked_total",
		Help: "Total number of sessions removed by reason",
	},
	[]string{"reason"},
)

// RegisterMetrics registers auth metrics with the given Prometheus registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(LoginAttempts)
	reg.MustRegister(Lockouts)
	reg.MustRegister(ConflictRetries)
	reg.MustRegister(SessionsCreated)
	reg.MustRegister(SessionsRevoked)
}
