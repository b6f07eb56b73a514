// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package credentials

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Role names an account's role in the panel.
type Role string

// Known roles. The document may carry others; they are preserved as-is.
const (
	RoleAdmin     Role = "admin"
	RoleDietitian Role = "dietitian"
	RolePatient   Role = "patient"
)

// AccountKind says which list of the document an account lives in.
type AccountKind string

// Account kinds.
const (
	KindUser    AccountKind = "user"
	KindPatient AccountKind = "patient"
)

// Account is one entry of the credential document, either an operator
// (users list) or a patient (patients list).
type Account struct {
	ID                string     `json:"id"`
	Username          string     `json:"username"`
	PasswordHash      string     `json:"passwordHash"`
	Role              Role       `json:"role,omitempty"`
	Active            bool       `json:"active"`
	FullName          string     `json:"fullName,omitempty"`
	Email             string     `json:"email,omitempty"`
	PatientID         string     `json:"patientId,omitempty"`
	Permissions       []string   `json:"permissions,omitempty"`
	AssignedPatients  []string   `json:"assignedPatients,omitempty"`
	LoginAttempts     int        `json:"loginAttempts,omitempty"`
	LockedUntil       *time.Time `json:"lockedUntil,omitempty"`
	LastLogin         *time.Time `json:"lastLogin,omitempty"`
	PasswordChangedAt *time.Time `json:"passwordChangedAt,omitempty"`
	CreatedAt         time.Time  `json:"createdAt,omitzero"`
	CreatedBy         string     `json:"createdBy,omitempty"`

	// Kind is derived from the list the account was decoded from.
	Kind AccountKind `json:"-"`

	extra map[string]json.RawMessage
}

// accountKeys are the document keys owned by Account's typed fields.
var accountKeys = []string{
	"id", "username", "passwordHash", "role", "active", "fullName", "email",
	"patientId", "permissions", "assignedPatients", "loginAttempts",
	"lockedUntil", "lastLogin", "passwordChangedAt", "createdAt", "createdBy",
}

// Legacy keys written by older panel versions.
const (
	legacyActiveKey          = "isActive"
	legacyPasswordChangedKey = "lastPasswordChange"
)

// accountFields has Account's layout without its JSON methods.
type accountFields Account

// UnmarshalJSON decodes an account, keeping unknown keys for re-encoding.
func (a *Account) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	aux := struct {
		ID json.RawMessage `json:"id"`
		*accountFields
	}{accountFields: (*accountFields)(a)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	a.ID = decodeID(aux.ID)

	if _, ok := raw["active"]; !ok {
		if v, ok := raw[legacyActiveKey]; ok {
			_ = json.Unmarshal(v, &a.Active) //nolint:errcheck // malformed legacy flag reads as inactive
		}
	}
	if a.PasswordChangedAt == nil {
		if v, ok := raw[legacyPasswordChangedKey]; ok {
			var t time.Time
			if json.Unmarshal(v, &t) == nil {
				a.PasswordChangedAt = &t
			}
		}
	}

	for _, k := range accountKeys {
		delete(raw, k)
	}
	a.extra = nil
	if len(raw) > 0 {
		a.extra = raw
	}
	return nil
}

// MarshalJSON encodes the account together with any preserved unknown keys.
// Legacy keys present in the source document are kept in sync.
func (a Account) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(accountFields(a))
	if err != nil {
		return nil, err
	}
	if len(a.extra) == 0 {
		return base, nil
	}

	merged := make(map[string]json.RawMessage, len(a.extra)+len(accountKeys))
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, v := range a.extra {
		if _, ok := merged[k]; !ok {
			merged[k] = v
		}
	}
	if _, ok := a.extra[legacyActiveKey]; ok {
		merged[legacyActiveKey], _ = json.Marshal(a.Active) //nolint:errcheck // bool always encodes
	}
	if _, ok := a.extra[legacyPasswordChangedKey]; ok && a.PasswordChangedAt != nil {
		merged[legacyPasswordChangedKey], _ = json.Marshal(a.PasswordChangedAt) //nolint:errcheck // time always encodes
	}
	return json.Marshal(merged)
}

// decodeID accepts both string and numeric ids; numeric ids keep their
// literal text.
func decodeID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.Trim(string(raw), `"`)
}

// IsPatient reports whether the account lives in the patients list.
func (a *Account) IsPatient() bool {
	return a.Kind == KindPatient
}

// View returns the outward-facing representation. It never carries the
// password hash.
func (a *Account) View() AccountView {
	return AccountView{
		ID:               a.ID,
		Username:         a.Username,
		Role:             a.Role,
		Kind:             a.Kind,
		FullName:         a.FullName,
		Email:            a.Email,
		PatientID:        a.PatientID,
		AssignedPatients: a.AssignedPatients,
		Active:           a.Active,
		LastLogin:        a.LastLogin,
		CreatedAt:        a.CreatedAt,
		CreatedBy:        a.CreatedBy,
	}
}

// AccountView is the public representation of an account.
type AccountView struct {
	ID               string      `json:"id"`
	Username         string      `json:"username"`
	Role             Role        `json:"role"`
	Kind             AccountKind `json:"kind"`
	FullName         string      `json:"fullName,omitempty"`
	Email            string      `json:"email,omitempty"`
	PatientID        string      `json:"patientId,omitempty"`
	AssignedPatients []string    `json:"assignedPatients,omitempty"`
	Active           bool        `json:"active"`
	LastLogin        *time.Time  `json:"lastLogin,omitempty"`
	CreatedAt        time.Time   `json:"createdAt,omitzero"`
	CreatedBy        string      `json:"createdBy,omitempty"`
}
