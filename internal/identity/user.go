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

package identity

import (
	"context"
	"errors"

	"github.com/yardsticknotes/yardstick/internal/authz"
)

// Domain errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// User represents a seeded account. Users are immutable at runtime.
type User struct {
	ID           string
	TenantID     string // Always required. A user belongs to exactly one tenant.
	Email        string
	PasswordHash string
	Role         authz.Role
}

// Principal returns the authorization view of the user.
func (u *User) Principal() *authz.Principal {
	return &authz.Principal{
		UserID:   u.ID,
		Email:    u.Email,
		Role:     u.Role,
		TenantID: u.TenantID,
	}
}

// UserRepository defines the interface for user lookup
type UserRepository interface {
	// GetByEmail retrieves a user by email. Emails are globally unique.
	GetByEmail(ctx context.Context, email string) (*User, error)
}
