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

package memory

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/yardsticknotes/yardstick/internal/authz"
	"github.com/yardsticknotes/yardstick/internal/identity"
	"github.com/yardsticknotes/yardstick/internal/note"
	"github.com/yardsticknotes/yardstick/internal/tenant"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

// Seed is the fixture set a Store starts with.
type Seed struct {
	Tenants []SeedTenant `yaml:"tenants"`
	Users   []SeedUser   `yaml:"users"`
	Notes   []SeedNote   `yaml:"notes"`
}

// SeedTenant describes one tenant.
type SeedTenant struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Slug string `yaml:"slug"`
	Plan string `yaml:"plan"`
}

// SeedUser describes one user. Tenant is the tenant slug.
type SeedUser struct {
	ID           string `yaml:"id"`
	Tenant       string `yaml:"tenant"`
	Email        string `yaml:"email"`
	Role         string `yaml:"role"`
	PasswordHash string `yaml:"password_hash"`
}

// SeedNote describes one note. Author is the author's email; the note
// belongs to the author's tenant.
type SeedNote struct {
	ID        string    `yaml:"id"`
	Author    string    `yaml:"author"`
	Title     string    `yaml:"title"`
	Content   string    `yaml:"content"`
	CreatedAt time.Time `yaml:"created_at"`
}

// DefaultSeed returns the built-in demo fixtures.
func DefaultSeed() (*Seed, error) {
	return ParseSeed(defaultSeed)
}

// LoadSeedFile reads fixtures from a YAML file.
func LoadSeedFile(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes YAML fixtures.
func ParseSeed(data []byte) (*Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed: %w", err)
	}
	return &seed, nil
}

// Resolved is a seed with references resolved and invariants checked.
type Resolved struct {
	Tenants []*tenant.Tenant
	Users   []*identity.User
	Notes   []*note.Note
}

// Resolve links users to tenants and notes to authors. Notes without a
// creation time get now, in file order.
func (s *Seed) Resolve(now time.Time) (*Resolved, error) {
	out := &Resolved{}
	bySlug := make(map[string]*tenant.Tenant, len(s.Tenants))
	tenantIDs := make(map[string]bool, len(s.Tenants))

	for _, st := range s.Tenants {
		plan := tenant.Plan(st.Plan)
		if st.Plan == "" {
			plan = tenant.PlanFree
		}
		if st.ID == "" || st.Slug == "" || !plan.Valid() {
			return nil, fmt.Errorf("invalid seed tenant %q", st.Slug)
		}
		if bySlug[st.Slug] != nil || tenantIDs[st.ID] {
			return nil, fmt.Errorf("duplicate seed tenant %q", st.Slug)
		}
		t := &tenant.Tenant{ID: st.ID, Name: st.Name, Slug: st.Slug, Plan: plan}
		bySlug[st.Slug] = t
		tenantIDs[st.ID] = true
		out.Tenants = append(out.Tenants, t)
	}

	byEmail := make(map[string]*identity.User, len(s.Users))
	userIDs := make(map[string]bool, len(s.Users))
	for _, su := range s.Users {
		t := bySlug[su.Tenant]
		if t == nil {
			return nil, fmt.Errorf("seed user %q references unknown tenant %q", su.Email, su.Tenant)
		}
		role, err := authz.ParseRole(su.Role)
		if err != nil {
			return nil, fmt.Errorf("seed user %q: %w", su.Email, err)
		}
		email := strings.ToLower(strings.TrimSpace(su.Email))
		if su.ID == "" || email == "" || su.PasswordHash == "" {
			return nil, fmt.Errorf("invalid seed user %q", su.Email)
		}
		if byEmail[email] != nil || userIDs[su.ID] {
			return nil, fmt.Errorf("duplicate seed user %q", su.Email)
		}
		u := &identity.User{ID: su.ID, TenantID: t.ID, Email: email, PasswordHash: su.PasswordHash, Role: role}
		byEmail[email] = u
		userIDs[su.ID] = true
		out.Users = append(out.Users, u)
	}

	noteIDs := make(map[string]bool, len(s.Notes))
	for i, sn := range s.Notes {
		author := byEmail[strings.ToLower(strings.TrimSpace(sn.Author))]
		if author == nil {
			return nil, fmt.Errorf("seed note %q references unknown author %q", sn.ID, sn.Author)
		}
		if sn.ID == "" || noteIDs[sn.ID] {
			return nil, fmt.Errorf("invalid or duplicate seed note %q", sn.ID)
		}
		created := sn.CreatedAt
		if created.IsZero() {
			created = now.Add(time.Duration(i) * time.Microsecond)
		}
		created = created.UTC().Truncate(time.Microsecond)
		noteIDs[sn.ID] = true
		out.Notes = append(out.Notes, &note.Note{
			ID:        sn.ID,
			Title:     sn.Title,
			Content:   sn.Content,
			TenantID:  author.TenantID,
			AuthorID:  author.ID,
			CreatedAt: created,
			UpdatedAt: created,
		})
	}

	return out, nil
}
