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

// Package authz holds the request principal and the authorization predicates
// applied to it.
//
// Tenant Isolation Principles:
//  1. The tenant of a request is derived only from the verified session.
//  2. Resources are located inside the principal's tenant before any
//     predicate here runs. A resource of another tenant is reported as
//     not found, never as forbidden.
//  3. Predicates are pure: they read the principal and the resource and
//     nothing else.
package authz

import "errors"

// ErrForbidden is returned when the principal lacks the role or ownership
// required for an operation.
var ErrForbidden = errors.New("forbidden")

// Principal is the authenticated identity attached to a request.
type Principal struct {
	UserID   string `json:"id"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	TenantID string `json:"tenantId"`
}

// IsAdmin reports whether the principal holds the admin role.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// RequireAdmin fails with ErrForbidden unless p is an admin.
func RequireAdmin(p *Principal) error {
	if !p.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

// RequireOwnerOrAdmin fails with ErrForbidden unless p authored the resource
// or is an admin.
func RequireOwnerOrAdmin(p *Principal, authorID string) error {
	if p == nil {
		return ErrForbidden
	}
	if p.UserID == authorID || p.IsAdmin() {
		return nil
	}
	return ErrForbidden
}
