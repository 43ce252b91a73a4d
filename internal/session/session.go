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

// Package session issues and verifies the stateless bearer tokens that carry
// a signed-in user between requests.
package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/yardsticknotes/yardstick/internal/identity"
	"github.com/yardsticknotes/yardstick/internal/tenant"
)

// Verification errors. ErrInvalidToken and ErrExpiredToken are both reported
// to clients as an invalid token.
var (
	ErrMissingCredential = errors.New("missing bearer credential")
	ErrInvalidToken      = errors.New("invalid token")
	ErrExpiredToken      = errors.New("token expired")
	ErrUnknownPrincipal  = errors.New("token subject no longer exists")
)

// Session is the result of a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *identity.User
	Tenant    *tenant.Tenant
}

// Claims is the token payload.
type Claims struct {
	UserID   string `json:"id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	TenantID string `json:"tenantId"`
	jwt.RegisteredClaims
}
