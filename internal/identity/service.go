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
	"fmt"
	"log/slog"
	"strings"

	"github.com/yardsticknotes/yardstick/internal/audit"
	"github.com/yardsticknotes/yardstick/internal/observability/logger"
	"github.com/yardsticknotes/yardstick/internal/observability/metrics"
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher handles password hashing using bcrypt
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher creates a new password hasher. A cost outside bcrypt's
// accepted range falls back to bcrypt.DefaultCost.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash hashes a password
func (h *PasswordHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Verify verifies a password against a hash
func (h *PasswordHasher) Verify(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}

// dummyHash is compared against when the email is unknown so that both
// failure paths cost one bcrypt comparison.
const dummyHash = "$2a$10$l2QvebvRFcfHUxCUCuCqwuh040QGS.G/ikUtE6/c.761mIqlo1iFa"

// Service provides identity-related business logic
type Service struct {
	repo        UserRepository
	hasher      *PasswordHasher
	auditLogger audit.Logger
	metrics     *metrics.Domain
}

// NewService creates a new identity service
func NewService(repo UserRepository, hasher *PasswordHasher, auditLogger audit.Logger, m *metrics.Domain) *Service {
	return &Service{
		repo:        repo,
		hasher:      hasher,
		auditLogger: auditLogger,
		metrics:     m,
	}
}

// Authenticate authenticates a user with email and password.
// Unknown email and wrong password both return ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	email = normalizeEmail(email)

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			return nil, fmt.Errorf("failed to look up user: %w", err)
		}
		_, _ = s.hasher.Verify(password, dummyHash)
		s.loginFailed(ctx, "", "", email, "user_not_found")
		return nil, ErrInvalidCredentials
	}

	valid, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil || !valid {
		s.loginFailed(ctx, user.TenantID, user.ID, email, "invalid_password")
		return nil, ErrInvalidCredentials
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeLoginSuccess,
		TenantID: user.TenantID,
		ActorID:  user.ID,
		Resource: audit.ResourceSession,
	})
	s.metrics.Login(ctx, metrics.LoginSuccess)

	return user, nil
}

func (s *Service) loginFailed(ctx context.Context, tenantID, actorID, email, reason string) {
	slog.DebugContext(ctx, "login rejected",
		logger.Email(email),
		logger.ErrorType(reason),
	)
	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeLoginFailed,
		TenantID: tenantID,
		ActorID:  actorID,
		Resource: audit.ResourceSession,
		Metadata: map[string]any{
			audit.AttrReason: reason,
			audit.AttrEmail:  email,
		},
	})
	s.metrics.Login(ctx, metrics.LoginFailure)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
