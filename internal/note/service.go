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

package note

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yardsticknotes/yardstick/internal/audit"
	"github.com/yardsticknotes/yardstick/internal/authz"
	"github.com/yardsticknotes/yardstick/internal/id"
	"github.com/yardsticknotes/yardstick/internal/observability/logger"
	"github.com/yardsticknotes/yardstick/internal/observability/metrics"
	"github.com/yardsticknotes/yardstick/internal/tenant"
)

// Service provides note business logic on top of a Repository.
type Service struct {
	repo          Repository
	auditLogger   audit.Logger
	metrics       *metrics.Domain
	freeNoteLimit int
	now           func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithMetrics attaches domain counters.
func WithMetrics(m *metrics.Domain) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a new note service
func NewService(repo Repository, auditLogger audit.Logger, freeNoteLimit int, opts ...Option) *Service {
	s := &Service{
		repo:          repo,
		auditLogger:   auditLogger,
		freeNoteLimit: freeNoteLimit,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// timestamp returns the current time at storage precision.
func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// List returns the notes of the principal's tenant in insertion order.
func (s *Service) List(ctx context.Context, p *authz.Principal) ([]*Note, error) {
	return s.repo.List(ctx, p.TenantID)
}

// Get returns one note of the principal's tenant.
func (s *Service) Get(ctx context.Context, p *authz.Principal, noteID string) (*Note, error) {
	return s.repo.Get(ctx, p.TenantID, noteID)
}

// Create adds a note authored by p in p's tenant, subject to the plan limit.
// The limit is checked before the fields, so a tenant at its cap is told to
// upgrade even when the request is incomplete.
func (s *Service) Create(ctx context.Context, p *authz.Principal, title, content string) (*Note, error) {
	now := s.timestamp()
	n := &Note{
		ID:        id.NewUUIDv7(),
		Title:     title,
		Content:   content,
		TenantID:  p.TenantID,
		AuthorID:  p.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.repo.Create(ctx, n, func(t *tenant.Tenant, count int) error {
		if err := tenant.CheckNoteQuota(t, count, s.freeNoteLimit); err != nil {
			return err
		}
		if strings.TrimSpace(title) == "" || strings.TrimSpace(content) == "" {
			return ErrValidation
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrValidation) {
			return nil, err
		}
		if errors.Is(err, tenant.ErrPlanLimitExceeded) {
			slog.InfoContext(ctx, "free plan limit reached",
				logger.TenantID(p.TenantID),
				logger.UserID(p.UserID),
			)
			s.auditLogger.Log(ctx, audit.Event{
				Type:     audit.TypeNoteLimitReached,
				TenantID: p.TenantID,
				ActorID:  p.UserID,
				Resource: audit.ResourceNote,
				Metadata: map[string]any{audit.AttrLimit: s.freeNoteLimit},
			})
			s.metrics.LimitRejected(ctx, p.TenantID)
			return nil, err
		}
		if errors.Is(err, tenant.ErrTenantNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create note: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeNoteCreated,
		TenantID: p.TenantID,
		ActorID:  p.UserID,
		Resource: audit.ResourceNote,
		Metadata: map[string]any{audit.AttrNoteID: n.ID},
	})
	s.metrics.NoteCreated(ctx, p.TenantID)

	return n, nil
}

// Update changes the title and/or content of a note. Only the author or an
// admin of the note's tenant may update it.
func (s *Service) Update(ctx context.Context, p *authz.Principal, noteID string, patch Patch) (*Note, error) {
	updated, err := s.repo.Update(ctx, p.TenantID, noteID, func(n *Note) error {
		if err := authz.RequireOwnerOrAdmin(p, n.AuthorID); err != nil {
			return err
		}
		if patch.Title != nil && *patch.Title != "" {
			n.Title = *patch.Title
		}
		if patch.Content != nil && *patch.Content != "" {
			n.Content = *patch.Content
		}
		n.UpdatedAt = s.nextUpdatedAt(n.UpdatedAt)
		return nil
	})
	if err != nil {
		if errors.Is(err, authz.ErrForbidden) {
			s.denied(ctx, p, noteID, "update")
		}
		return nil, err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeNoteUpdated,
		TenantID: p.TenantID,
		ActorID:  p.UserID,
		Resource: audit.ResourceNote,
		Metadata: map[string]any{audit.AttrNoteID: noteID},
	})

	return updated, nil
}

// Delete removes a note. Only the author or an admin of the note's tenant may
// delete it.
func (s *Service) Delete(ctx context.Context, p *authz.Principal, noteID string) (*Note, error) {
	deleted, err := s.repo.Delete(ctx, p.TenantID, noteID, func(n *Note) error {
		return authz.RequireOwnerOrAdmin(p, n.AuthorID)
	})
	if err != nil {
		if errors.Is(err, authz.ErrForbidden) {
			s.denied(ctx, p, noteID, "delete")
		}
		return nil, err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeNoteDeleted,
		TenantID: p.TenantID,
		ActorID:  p.UserID,
		Resource: audit.ResourceNote,
		Metadata: map[string]any{audit.AttrNoteID: noteID},
	})

	return deleted, nil
}

// nextUpdatedAt returns a timestamp strictly after prev.
func (s *Service) nextUpdatedAt(prev time.Time) time.Time {
	now := s.timestamp()
	if !now.After(prev) {
		now = prev.Add(time.Microsecond)
	}
	return now
}

func (s *Service) denied(ctx context.Context, p *authz.Principal, noteID, op string) {
	slog.DebugContext(ctx, "note access denied",
		logger.NoteID(noteID),
		logger.Operation(op),
		logger.UserID(p.UserID),
		logger.Role(string(p.Role)),
	)
	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeAccessDenied,
		TenantID: p.TenantID,
		ActorID:  p.UserID,
		Resource: audit.ResourceNote,
		Metadata: map[string]any{audit.AttrNoteID: noteID, audit.AttrReason: op},
	})
}
