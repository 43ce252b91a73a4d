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

package http

import (
	"context"

	"github.com/yardsticknotes/yardstick/internal/authz"
	"github.com/yardsticknotes/yardstick/internal/tenant"
)

type contextKey string

const (
	principalKey contextKey = "principal"
	tenantKey    contextKey = "tenant"
)

// withIdentity stores the verified principal and its tenant on ctx.
func withIdentity(ctx context.Context, p *authz.Principal, t *tenant.Tenant) context.Context {
	ctx = context.WithValue(ctx, principalKey, p)
	return context.WithValue(ctx, tenantKey, t)
}

// PrincipalFromContext returns the principal set by AuthMiddleware, or nil.
func PrincipalFromContext(ctx context.Context) *authz.Principal {
	if val, ok := ctx.Value(principalKey).(*authz.Principal); ok {
		return val
	}
	return nil
}

// TenantFromContext returns the principal's tenant as read at verification.
func TenantFromContext(ctx context.Context) *tenant.Tenant {
	if val, ok := ctx.Value(tenantKey).(*tenant.Tenant); ok {
		return val
	}
	return nil
}
