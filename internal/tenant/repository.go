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
)

var (
	ErrTenantNotFound = errors.New("tenant not found")
)

// Repository defines tenant persistence. Tenants are seeded; only the plan mutates.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*Tenant, error)
	// UpdatePlan sets the plan of tenant id and returns the updated tenant.
	UpdatePlan(ctx context.Context, id string, plan Plan) (*Tenant, error)
}
