// Copyright 2026 The Yardstick Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package authz

import "fmt"

// Role is a user's role inside their tenant.
type Role string

// -----------------------------------------------------------------------------
// Role Name Constants
// These are the canonical names stored with each user record and encoded in
// session tokens.
// -----------------------------------------------------------------------------

const (
	// RoleAdmin may upgrade the tenant plan and edit or delete any note
	// in the tenant.
	RoleAdmin Role = "admin"

	// RoleMember may create notes and edit or delete the notes they authored.
	RoleMember Role = "member"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

// ParseRole converts a stored role name into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("invalid role: %q", s)
	}
	return r, nil
}
