// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"slices"
	"sync"

	"github.com/gobwas/glob"

	"github.com/lipodem/trackpanel/internal/credentials"
)

// PermissionAll grants every permission.
const PermissionAll = "ALL"

// PermissionAccountsRead allows listing accounts.
const PermissionAccountsRead = "accounts.read"

var globCache sync.Map // pattern -> glob.Glob, or nil for invalid patterns

// DefaultPermissions returns the grants of a role whose account lists none.
func DefaultPermissions(role credentials.Role) []string {
	switch role {
	case credentials.RoleAdmin:
		return []string{PermissionAll}
	case credentials.RoleDietitian:
		return []string{"patients.*", PermissionAccountsRead}
	case credentials.RolePatient:
		return []string{"self.*"}
	default:
		return nil
	}
}

// EffectivePermissions returns the account's explicit grants, or its
// role's defaults when it has none.
func EffectivePermissions(a *credentials.Account) []string {
	if len(a.Permissions) > 0 {
		return slices.Clone(a.Permissions)
	}
	return DefaultPermissions(a.Role)
}

// HasPermission reports whether granted covers want. Grants are exact
// names, ALL, or glob patterns over dot-separated segments.
func HasPermission(granted []string, want string) bool {
	for _, g := range granted {
		if g == PermissionAll || g == want {
			return true
		}
		if m := compileGrant(g); m != nil && m.Match(want) {
			return true
		}
	}
	return false
}

func compileGrant(pattern string) glob.Glob {
	if cached, ok := globCache.Load(pattern); ok {
		g, _ := cached.(glob.Glob)
		return g
	}
	g, err := glob.Compile(pattern, '.')
	if err != nil {
		globCache.Store(pattern, nil)
		return nil
	}
	globCache.Store(pattern, g)
	return g
}
