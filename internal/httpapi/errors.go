// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package httpapi

import (
	"net/http"
	"time"

	"github.com/lipodem/trackpanel/internal/auth"
	"github.com/lipodem/trackpanel/internal/credentials"
	"github.com/lipodem/trackpanel/pkg/errutil"
)

// statusByCode maps service error codes to HTTP statuses. Codes not
// listed are internal and answered with 500.
var statusByCode = map[string]int{
	auth.CodeInvalidInput:       http.StatusBadRequest,
	auth.CodeInvalidCredentials: http.StatusUnauthorized,
	auth.CodeUnauthorized:       http.StatusUnauthorized,
	auth.CodeForbidden:          http.StatusForbidden,
	auth.CodeAccountDisabled:    http.StatusForbidden,
	auth.CodeAccountLocked:      http.StatusLocked,
	auth.CodeUsernameTaken:      http.StatusConflict,
	auth.CodeConflict:           http.StatusConflict,
	credentials.CodeUnavailable: http.StatusServiceUnavailable,
}

const (
	msgUnavailable = "credential store unavailable, please retry"
	msgInternal    = "internal error"
)

// writeError answers with the status and user-facing message of err.
// Internal errors are logged and answered generically.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errutil.Code(err)
	status, known := statusByCode[code]
	if !known {
		if isClientGone(err) {
			s.logger.DebugContext(r.Context(), "request canceled by client", "path", r.URL.Path)
		} else {
			errutil.LogError(r.Context(), s.logger, "request failed", err)
		}
		writeFailure(w, http.StatusInternalServerError, msgInternal, nil)
		return
	}

	fields := map[string]any{"code": code}
	message := err.Error()
	switch code {
	case credentials.CodeUnavailable:
		errutil.LogError(r.Context(), s.logger, "credential store unavailable", err)
		message = msgUnavailable
	case auth.CodeInvalidCredentials:
		if n, ok := errutil.ContextValue(err, "remaining_attempts"); ok {
			fields["remainingAttempts"] = n
		}
		if until, ok := errutil.ContextValue(err, "locked_until"); ok {
			fields["lockedUntil"] = until
		}
	case auth.CodeAccountLocked:
		if m, ok := errutil.ContextValue(err, "remaining_minutes"); ok {
			fields["remainingMinutes"] = m
		}
		if until, ok := errutil.ContextValue(err, "locked_until"); ok {
			if t, isTime := until.(time.Time); isTime {
				fields["lockedUntil"] = t.UTC()
			}
		}
	}
	writeFailure(w, status, message, fields)
}
