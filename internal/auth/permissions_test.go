// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lipodem/trackpanel/internal/auth"
	"github.com/lipodem/trackpanel/internal/credentials"
)

func TestHasPermission(t *testing.T) {
	tests := []struct {
		name    string
		granted []string
		want    string
		ok      bool
	}{
		{"ALL grants anything", []string{auth.PermissionAll}, "accounts.delete", true},
		{"exact match", []string{"accounts.read"}, "accounts.read", true},
		{"glob match", []string{"patients.*"}, "patients.register", true},
		{"glob stays within segment", []string{"patients.*"}, "patients.notes.write", false},
		{"no grant", nil, "accounts.read", false},
		{"invalid pattern ignored", []string{"patients.[", "self.*"}, "self.view", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ok, auth.HasPermission(tt.granted, tt.want))
		})
	}
}

func TestEffectivePermissions(t *testing.T) {
	explicit := &credentials.Account{Role: credentials.RoleDietitian, Permissions: []string{"reports.read"}}
	assert.Equal(t, []string{"reports.read"}, auth.EffectivePermissions(explicit))

	admin := &credentials.Account{Role: credentials.RoleAdmin}
	assert.Equal(t, []string{auth.PermissionAll}, auth.EffectivePermissions(admin))

	unknown := &credentials.Account{Role: "auditor"}
	assert.Empty(t, auth.EffectivePermissions(unknown))
}
