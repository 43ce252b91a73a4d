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

package tenant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yardsticknotes/yardstick/internal/audit"
	"github.com/yardsticknotes/yardstick/internal/authz"
	"github.com/yardsticknotes/yardstick/internal/observability/logger"
	"github.com/yardsticknotes/yardstick/internal/observability/metrics"
)

// Service provides tenant business logic
type Service struct {
	repo        Repository
	auditLogger audit.Logger
	metrics     *metrics.Domain
}

// NewService creates a new tenant service
func NewService(repo Repository, auditLogger audit.Logger, m *metrics.Domain) *Service {
	return &Service{
		repo:        repo,
		auditLogger: auditLogger,
		metrics:     m,
	}
}

// Upgrade moves the tenant identified by slug to the pro plan.
//
// The role check runs before the slug lookup, so members learn nothing about
// which slugs exist. Admins of another tenant get ErrForbidden. Upgrading a
// pro tenant succeeds without change.
func (s *Service) Upgrade(ctx context.Context, p *authz.Principal, slug string) (*Tenant, error) {
	if err := authz.RequireAdmin(p); err != nil {
		s.denied(ctx, p, slug, "admin_required")
		return nil, err
	}

	t, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if t.ID != p.TenantID {
		s.denied(ctx, p, slug, "foreign_tenant")
		return nil, authz.ErrForbidden
	}

	if t.Plan == PlanPro {
		return t, nil
	}

	upgraded, err := s.repo.UpdatePlan(ctx, t.ID, PlanPro)
	if err != nil {
		if errors.Is(err, ErrTenantNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to upgrade tenant: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeTenantUpgraded,
		TenantID: t.ID,
		ActorID:  p.UserID,
		Resource: audit.ResourceTenant,
		Metadata: map[string]any{audit.AttrPlan: string(PlanPro)},
	})
	s.metrics.TenantUpgraded(ctx, t.ID)
	slog.InfoContext(ctx, "tenant upgraded",
		logger.TenantID(t.ID),
		logger.TenantSlug(t.Slug),
		logger.UserID(p.UserID),
	)

	return upgraded, nil
}

func (s *Service) denied(ctx context.Context, p *authz.Principal, slug, reason string) {
	ev := audit.Event{
		Type:     audit.TypeAccessDenied,
		Resource: audit.ResourceTenant,
		Metadata: map[string]any{audit.AttrReason: reason, "slug": slug},
	}
	if p != nil {
		ev.TenantID = p.TenantID
		ev.ActorID = p.UserID
	}
	s.auditLogger.Log(ctx, ev)
}
