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
	"errors"
	"fmt"
)

// Plan is a tenant subscription tier.
type Plan string

// Plans. A tenant only ever moves from free to pro.
const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
)

// DefaultFreeNoteLimit is the number of notes a free tenant may hold.
const DefaultFreeNoteLimit = 3

// Tenant is an organization owning users and notes.
type Tenant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
	Plan Plan   `json:"plan"`
}

// Valid reports whether p is a known plan.
func (p Plan) Valid() bool {
	return p == PlanFree || p == PlanPro
}

// UpgradeURL is the path a client calls to lift the plan limit of slug.
func UpgradeURL(slug string) string {
	return "/api/tenants/" + slug + "/upgrade"
}

// QuotaError reports a note creation refused by the free plan limit.
type QuotaError struct {
	Slug  string
	Limit int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("tenant %s reached the free plan limit of %d notes", e.Slug, e.Limit)
}

// Is lets errors.Is match ErrPlanLimitExceeded.
func (e *QuotaError) Is(target error) bool {
	return target == ErrPlanLimitExceeded
}

// UpgradeURL returns the upgrade path for the tenant.
func (e *QuotaError) UpgradeURL() string {
	return UpgradeURL(e.Slug)
}

// CheckNoteQuota decides whether a tenant currently holding count notes may
// create another. Pro tenants are unbounded.
func CheckNoteQuota(t *Tenant, count, freeLimit int) error {
	if t == nil {
		return ErrTenantNotFound
	}
	if t.Plan == PlanFree && count >= freeLimit {
		return &QuotaError{Slug: t.Slug, Limit: freeLimit}
	}
	return nil
}

// ErrPlanLimitExceeded is matched by every *QuotaError.
var ErrPlanLimitExceeded = errors.New("plan limit exceeded")
