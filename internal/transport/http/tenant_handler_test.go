package http

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yardsticknotes/yardstick/internal/tenant"
)

// TestPurpose: Validates that only an admin of the tenant can upgrade it.
// Scope: Unit Test
// Security: Privilege Escalation (CWE-269), Tenant Isolation
// Expected: Member gets 403 "Admin access required"; a foreign admin gets 403; the own admin gets 200 with plan "pro".
// Test Case ID: TEN-04
func TestUpgradeTenant_Authorization(t *testing.T) {
	env := newTestEnv(t, false)
	member := env.login(t, "user@acme.test")
	globexAdmin := env.login(t, "admin@globex.test")
	acmeAdmin := env.login(t, "admin@acme.test")

	w := env.do(t, http.MethodPost, "/api/tenants/acme/upgrade", member, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, msgAdminRequired, decode[map[string]string](t, w)["message"])

	w = env.do(t, http.MethodPost, "/api/tenants/acme/upgrade", globexAdmin, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, msgAccessDenied, decode[map[string]string](t, w)["message"])

	acme, err := env.store.Tenants().GetBySlug(t.Context(), "acme")
	require.NoError(t, err)
	assert.Equal(t, tenant.PlanFree, acme.Plan, "rejected upgrades must not change the plan")

	w = env.do(t, http.MethodPost, "/api/tenants/acme/upgrade", acmeAdmin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[UpgradeResponse](t, w)
	assert.Equal(t, tenant.PlanPro, resp.Tenant.Plan)
	assert.Equal(t, "acme", resp.Tenant.Slug)

	// Upgrading again is a no-op.
	w = env.do(t, http.MethodPost, "/api/tenants/acme/upgrade", acmeAdmin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpgradeTenant_UnknownSlug(t *testing.T) {
	env := newTestEnv(t, false)
	admin := env.login(t, "admin@acme.test")

	w := env.do(t, http.MethodPost, "/api/tenants/initech/upgrade", admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Tenant not found", decode[map[string]string](t, w)["message"])
}

func TestUpgradeTenant_RequiresToken(t *testing.T) {
	env := newTestEnv(t, false)

	w := env.do(t, http.MethodPost, "/api/tenants/acme/upgrade", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
