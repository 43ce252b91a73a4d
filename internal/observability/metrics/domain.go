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

package metrics

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Login results
const (
	LoginSuccess = "success"
	LoginFailure = "failure"
)

// Domain holds the application counters. A nil *Domain records nothing.
type Domain struct {
	logins          metric.Int64Counter
	notesCreated    metric.Int64Counter
	limitRejections metric.Int64Counter
	upgrades        metric.Int64Counter
}

// NewDomain registers the application counters on m.
func NewDomain(m *Meter) (*Domain, error) {
	logins, err := m.CreateCounter("yardstick.logins", "Login attempts by result")
	if err != nil {
		return nil, err
	}
	created, err := m.CreateCounter("yardstick.notes.created", "Notes created")
	if err != nil {
		return nil, err
	}
	rejected, err := m.CreateCounter("yardstick.notes.limit_rejections", "Note creations rejected by the free plan limit")
	if err != nil {
		return nil, err
	}
	upgrades, err := m.CreateCounter("yardstick.tenants.upgrades", "Tenant plan upgrades")
	if err != nil {
		return nil, err
	}
	return &Domain{
		logins:          logins,
		notesCreated:    created,
		limitRejections: rejected,
		upgrades:        upgrades,
	}, nil
}

// Login counts a login attempt.
func (d *Domain) Login(ctx context.Context, result string) {
	if d == nil {
		return
	}
	d.logins.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// NoteCreated counts a created note.
func (d *Domain) NoteCreated(ctx context.Context, tenantID string) {
	if d == nil {
		return
	}
	d.notesCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("tenant_id", tenantID)))
}

// LimitRejected counts a creation refused by the plan limit.
func (d *Domain) LimitRejected(ctx context.Context, tenantID string) {
	if d == nil {
		return
	}
	d.limitRejections.Add(ctx, 1, metric.WithAttributes(attribute.String("tenant_id", tenantID)))
}

// TenantUpgraded counts a plan upgrade.
func (d *Domain) TenantUpgraded(ctx context.Context, tenantID string) {
	if d == nil {
		return
	}
	d.upgrades.Add(ctx, 1, metric.WithAttributes(attribute.String("tenant_id", tenantID)))
}
