// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"slices"

	"github.com/lipodem/trackpanel/internal/credentials"
)

// Principal is the authenticated caller of a service operation, derived
// from either a server session or a bearer token.
type Principal struct {
	AccountID        string
	Username         string
	Role             credentials.Role
	PatientID        string
	Permissions      []string
	AssignedPatients []string

	// SessionID is empty for bearer-token principals.
	SessionID string
}

func principalFromSession(s *Session) *Principal {
	return &Principal{
		AccountID:        s.AccountID,
		Username:         s.Username,
		Role:             s.Role,
		PatientID:        s.PatientID,
		Permissions:      slices.Clone(s.Permissions),
		AssignedPatients: slices.Clone(s.AssignedPatients),
		SessionID:        s.ID,
	}
}

func principalFromClaims(c *BearerClaims) *Principal {
	return &Principal{
		AccountID:   c.AccountID,
		Username:    c.Username,
		Role:        c.Role,
		PatientID:   c.PatientID,
		Permissions: DefaultPermissions(c.Role),
	}
}

// HasPermission reports whether the principal holds permission.
func (p *Principal) HasPermission(permission string) bool {
	return HasPermission(p.Permissions, permission)
}

// CanRegisterPatients reports whether the principal's role may create
// patient accounts.
func (p *Principal) CanRegisterPatients() bool {
	return p.Role == credentials.RoleAdmin || p.Role == credentials.RoleDietitian
}
