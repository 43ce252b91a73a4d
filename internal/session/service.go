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

package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/yardsticknotes/yardstick/internal/authz"
	"github.com/yardsticknotes/yardstick/internal/identity"
	"github.com/yardsticknotes/yardstick/internal/tenant"
)

// Service issues sessions and resolves bearer tokens to principals.
type Service struct {
	tokens   *TokenManager
	users    identity.UserRepository
	tenants  tenant.Repository
	cache    *ristretto.Cache[string, *Claims]
	cacheTTL time.Duration
}

// NewService creates a session service. Verified token claims are cached by
// raw token for cacheTTL, never past the token's expiry; a zero TTL
// disables the cache. Users and tenants are always read from their
// repositories.
func NewService(tokens *TokenManager, users identity.UserRepository, tenants tenant.Repository, cacheTTL time.Duration) (*Service, error) {
	s := &Service{
		tokens:   tokens,
		users:    users,
		tenants:  tenants,
		cacheTTL: cacheTTL,
	}
	if cacheTTL > 0 {
		c, err := ristretto.NewCache(&ristretto.Config[string, *Claims]{
			NumCounters: 10_000,
			MaxCost:     1_000,
			BufferItems: 64,
			// Cost counts tokens, not bytes.
			IgnoreInternalCost: true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create token cache: %w", err)
		}
		s.cache = c
	}
	return s, nil
}

// Close releases the cache.
func (s *Service) Close() {
	if s.cache != nil {
		s.cache.Close()
	}
}

// Issue signs a token for an authenticated user.
func (s *Service) Issue(ctx context.Context, user *identity.User) (*Session, error) {
	t, err := s.tenants.GetByID(ctx, user.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve tenant of user %s: %w", user.ID, err)
	}

	token, expiresAt, err := s.tokens.Sign(user)
	if err != nil {
		return nil, err
	}

	return &Session{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
		Tenant:    t,
	}, nil
}

// Verify checks raw and resolves the principal from the current user
// record, not from the token claims. The tenant is always read fresh so a
// plan change is visible on the next request.
func (s *Service) Verify(ctx context.Context, raw string) (*authz.Principal, *tenant.Tenant, error) {
	if raw == "" {
		return nil, nil, ErrMissingCredential
	}

	claims, err := s.parse(raw)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.lookupUser(ctx, claims.Email)
	if err != nil {
		return nil, nil, err
	}

	t, err := s.tenants.GetByID(ctx, user.TenantID)
	if err != nil {
		if errors.Is(err, tenant.ErrTenantNotFound) {
			return nil, nil, ErrUnknownPrincipal
		}
		return nil, nil, fmt.Errorf("failed to resolve tenant: %w", err)
	}

	return user.Principal(), t, nil
}

// parse verifies raw, reusing a cached verification while the token is
// still unexpired.
func (s *Service) parse(raw string) (*Claims, error) {
	if s.cache != nil {
		if claims, ok := s.cache.Get(raw); ok {
			if !claims.ExpiresAt.After(s.tokens.now()) {
				return nil, ErrExpiredToken
			}
			return claims, nil
		}
	}

	claims, err := s.tokens.Parse(raw)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		ttl := min(s.cacheTTL, claims.ExpiresAt.Sub(s.tokens.now()))
		if ttl > 0 {
			s.cache.SetWithTTL(raw, claims, 1, ttl)
		}
	}
	return claims, nil
}

// lookupUser resolves the token subject on every request so deleted or
// changed users take effect immediately.
func (s *Service) lookupUser(ctx context.Context, email string) (*identity.User, error) {
	u, err := s.users.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return nil, ErrUnknownPrincipal
		}
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	return u, nil
}

// BearerToken extracts the token from an Authorization header value.
// It returns "" unless the value is "Bearer <non-empty>".
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
