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

// Package memory is the in-process store. One Store serves users, tenants
// and notes behind a single lock, so a note creation's count-then-insert and
// a plan upgrade are serialized with each other.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/yardsticknotes/yardstick/internal/identity"
	"github.com/yardsticknotes/yardstick/internal/note"
	"github.com/yardsticknotes/yardstick/internal/tenant"
)

// Store implements identity.UserRepository and note.Repository directly and
// tenant.Repository through Tenants.
type Store struct {
	mu sync.RWMutex

	users   map[string]*identity.User // by email
	tenants map[string]*tenant.Tenant
	slugs   map[string]string
	notes   []*note.Note // insertion order
}

var (
	_ identity.UserRepository = (*Store)(nil)
	_ tenant.Repository       = tenantView{}
	_ note.Repository         = (*Store)(nil)
)

// New creates an empty store.
func New() *Store {
	return &Store{
		users:   make(map[string]*identity.User),
		tenants: make(map[string]*tenant.Tenant),
		slugs:   make(map[string]string),
	}
}

// NewSeeded creates a store loaded with seed.
func NewSeeded(seed *Seed) (*Store, error) {
	r, err := seed.Resolve(time.Now())
	if err != nil {
		return nil, err
	}
	s := New()
	for _, t := range r.Tenants {
		s.tenants[t.ID] = t
		s.slugs[t.Slug] = t.ID
	}
	for _, u := range r.Users {
		s.users[u.Email] = u
	}
	s.notes = append(s.notes, r.Notes...)
	return s, nil
}

// GetByEmail implements identity.UserRepository.
func (s *Store) GetByEmail(_ context.Context, email string) (*identity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[email]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

// Tenants returns the tenant repository view of the store.
func (s *Store) Tenants() tenant.Repository {
	return tenantView{s}
}

type tenantView struct{ s *Store }

func (v tenantView) GetByID(_ context.Context, id string) (*tenant.Tenant, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	return v.s.tenantLocked(id)
}

func (v tenantView) GetBySlug(_ context.Context, slug string) (*tenant.Tenant, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()

	tid, ok := v.s.slugs[slug]
	if !ok {
		return nil, tenant.ErrTenantNotFound
	}
	return v.s.tenantLocked(tid)
}

func (v tenantView) UpdatePlan(_ context.Context, id string, plan tenant.Plan) (*tenant.Tenant, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	t, ok := v.s.tenants[id]
	if !ok {
		return nil, tenant.ErrTenantNotFound
	}
	t.Plan = plan
	cp := *t
	return &cp, nil
}

func (s *Store) tenantLocked(id string) (*tenant.Tenant, error) {
	t, ok := s.tenants[id]
	if !ok {
		return nil, tenant.ErrTenantNotFound
	}
	cp := *t
	return &cp, nil
}

// List implements note.Repository.
func (s *Store) List(_ context.Context, tenantID string) ([]*note.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*note.Note{}
	for _, n := range s.notes {
		if n.TenantID == tenantID {
			cp := *n
			out = append(out, &cp)
		}
	}
	return out, nil
}

// Get implements note.Repository.
func (s *Store) Get(_ context.Context, tenantID, id string) (*note.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexLocked(tenantID, id)
	if i < 0 {
		return nil, note.ErrNoteNotFound
	}
	cp := *s.notes[i]
	return &cp, nil
}

// Create implements note.Repository.
func (s *Store) Create(_ context.Context, n *note.Note, admit note.AdmitFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tenants[n.TenantID]
	if !ok {
		return tenant.ErrTenantNotFound
	}
	count := 0
	for _, existing := range s.notes {
		if existing.TenantID == n.TenantID {
			count++
		}
	}
	if admit != nil {
		cp := *t
		if err := admit(&cp, count); err != nil {
			return err
		}
	}

	stored := *n
	s.notes = append(s.notes, &stored)
	return nil
}

// Update implements note.Repository.
func (s *Store) Update(_ context.Context, tenantID, id string, mutate func(n *note.Note) error) (*note.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(tenantID, id)
	if i < 0 {
		return nil, note.ErrNoteNotFound
	}
	draft := *s.notes[i]
	if err := mutate(&draft); err != nil {
		return nil, err
	}
	// Identity and ownership are not mutable.
	draft.ID, draft.TenantID, draft.AuthorID, draft.CreatedAt = s.notes[i].ID, s.notes[i].TenantID, s.notes[i].AuthorID, s.notes[i].CreatedAt

	stored := draft
	s.notes[i] = &stored
	return &draft, nil
}

// Delete implements note.Repository.
func (s *Store) Delete(_ context.Context, tenantID, id string, check func(n *note.Note) error) (*note.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(tenantID, id)
	if i < 0 {
		return nil, note.ErrNoteNotFound
	}
	removed := *s.notes[i]
	if check != nil {
		if err := check(&removed); err != nil {
			return nil, err
		}
	}
	s.notes = append(s.notes[:i], s.notes[i+1:]...)
	return &removed, nil
}

func (s *Store) indexLocked(tenantID, id string) int {
	for i, n := range s.notes {
		if n.ID == id && n.TenantID == tenantID {
			return i
		}
	}
	return -1
}
