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

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/yardsticknotes/yardstick/internal/tenant"
)

// TenantRepository implements tenant.Repository
type TenantRepository struct {
	db *DB
}

// NewTenantRepository creates a new tenant repository
func NewTenantRepository(db *DB) *TenantRepository {
	return &TenantRepository{db: db}
}

// GetByID retrieves a tenant by ID
func (r *TenantRepository) GetByID(ctx context.Context, id string) (*tenant.Tenant, error) {
	return scanTenant(r.db.pool.QueryRow(ctx, `
		SELECT id, name, slug, plan FROM tenants WHERE id = $1
	`, id))
}

// GetBySlug retrieves a tenant by slug
func (r *TenantRepository) GetBySlug(ctx context.Context, slug string) (*tenant.Tenant, error) {
	return scanTenant(r.db.pool.QueryRow(ctx, `
		SELECT id, name, slug, plan FROM tenants WHERE slug = $1
	`, slug))
}

// UpdatePlan sets the plan. The row lock it takes serializes with note
// creation, which locks the same row.
func (r *TenantRepository) UpdatePlan(ctx context.Context, id string, plan tenant.Plan) (*tenant.Tenant, error) {
	return scanTenant(r.db.pool.QueryRow(ctx, `
		UPDATE tenants SET plan = $2 WHERE id = $1
		RETURNING id, name, slug, plan
	`, id, string(plan)))
}

func scanTenant(row pgx.Row) (*tenant.Tenant, error) {
	var t tenant.Tenant
	var plan string
	if err := row.Scan(&t.ID, &t.Name, &t.Slug, &plan); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tenant.ErrTenantNotFound
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	t.Plan = tenant.Plan(plan)
	return &t, nil
}
