// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package credentials

import (
	"encoding/json"
	"time"
)

// Record is the whole credential document: every operator and patient
// account plus the last-update stamp.
type Record struct {
	Users       []*Account `json:"users"`
	Patients    []*Account `json:"patients"`
	LastUpdated time.Time  `json:"lastUpdated,omitzero"`

	extra map[string]json.RawMessage
}

var recordKeys = []string{"users", "patients", "lastUpdated"}

type recordFields Record

// UnmarshalJSON decodes the document and tags each account with its kind.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if err := json.Unmarshal(data, (*recordFields)(r)); err != nil {
		return err
	}
	for _, a := range r.Users {
		if a != nil {
			a.Kind = KindUser
		}
	}
	for _, a := range r.Patients {
		if a != nil {
			a.Kind = KindPatient
		}
	}
	for _, k := range recordKeys {
		delete(raw, k)
	}
	r.extra = nil
	if len(raw) > 0 {
		r.extra = raw
	}
	return nil
}

// MarshalJSON encodes the document, keeping unknown top-level keys.
func (r Record) MarshalJSON() ([]byte, error) {
	fields := recordFields(r)
	if fields.Users == nil {
		fields.Users = []*Account{}
	}
	if fields.Patients == nil {
		fields.Patients = []*Account{}
	}
	base, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	if len(r.extra) == 0 {
		return base, nil
	}
	merged := make(map[string]json.RawMessage, len(r.extra)+len(recordKeys))
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, v := range r.extra {
		if _, ok := merged[k]; !ok {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

// Accounts returns every account, users first.
func (r *Record) Accounts() []*Account {
	all := make([]*Account, 0, len(r.Users)+len(r.Patients))
	for _, a := range r.Users {
		if a != nil {
			all = append(all, a)
		}
	}
	for _, a := range r.Patients {
		if a != nil {
			all = append(all, a)
		}
	}
	return all
}

// FindByUsername locates an account across both lists. Matching is
// case-sensitive.
func (r *Record) FindByUsername(username string) *Account {
	for _, a := range r.Accounts() {
		if a.Username == username {
			return a
		}
	}
	return nil
}

// FindByID locates an account across both lists.
func (r *Record) FindByID(id string) *Account {
	for _, a := range r.Accounts() {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// UsernameTaken reports whether any account already uses username.
func (r *Record) UsernameTaken(username string) bool {
	return r.FindByUsername(username) != nil
}

// HasRole reports whether any operator account holds role.
func (r *Record) HasRole(role Role) bool {
	for _, a := range r.Users {
		if a != nil && a.Role == role {
			return true
		}
	}
	return false
}

// AddUser appends an operator account.
func (r *Record) AddUser(a *Account) {
	a.Kind = KindUser
	r.Users = append(r.Users, a)
}

// AddPatient appends a patient account.
func (r *Record) AddPatient(a *Account) {
	a.Kind = KindPatient
	r.Patients = append(r.Patients, a)
}

// Check verifies the document invariants: every account has an id and a
// username, and no two accounts share a username.
func (r *Record) Check() error {
	seen := make(map[string]struct{}, len(r.Users)+len(r.Patients))
	for _, a := range r.Accounts() {
		if a.ID == "" {
			return invalidDocument("account %q has no id", a.Username)
		}
		if a.Username == "" {
			return invalidDocument("account %q has no username", a.ID)
		}
		if _, dup := seen[a.Username]; dup {
			return invalidDocument("username %q appears more than once", a.Username)
		}
		seen[a.Username] = struct{}{}
	}
	return nil
}

// Decode parses and validates a stored document. Empty content yields an
// empty record.
func Decode(data []byte) (*Record, error) {
	if len(data) == 0 {
		return &Record{}, nil
	}
	if err := ValidateDocument(data); err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, invalidDocument("decode: %v", err)
	}
	return &rec, nil
}

// Encode checks the invariants and renders the document with two-space
// indentation.
func Encode(rec *Record) ([]byte, error) {
	if err := rec.Check(); err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return nil, invalidDocument("encode: %v", err)
	}
	return data, nil
}
