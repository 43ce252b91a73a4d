package session

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yardsticknotes/yardstick/internal/authz"
	"github.com/yardsticknotes/yardstick/internal/identity"
	"github.com/yardsticknotes/yardstick/internal/tenant"
)

const testSecret = "test-secret"

type fakeUsers map[string]*identity.User

func (f fakeUsers) GetByEmail(_ context.Context, email string) (*identity.User, error) {
	if u, ok := f[email]; ok {
		return u, nil
	}
	return nil, identity.ErrUserNotFound
}

type fakeTenants map[string]*tenant.Tenant

func (f fakeTenants) GetByID(_ context.Context, id string) (*tenant.Tenant, error) {
	if t, ok := f[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, tenant.ErrTenantNotFound
}

func (f fakeTenants) GetBySlug(_ context.Context, slug string) (*tenant.Tenant, error) {
	for _, t := range f {
		if t.Slug == slug {
			cp := *t
			return &cp, nil
		}
	}
	return nil, tenant.ErrTenantNotFound
}

func (f fakeTenants) UpdatePlan(_ context.Context, id string, plan tenant.Plan) (*tenant.Tenant, error) {
	t, ok := f[id]
	if !ok {
		return nil, tenant.ErrTenantNotFound
	}
	t.Plan = plan
	cp := *t
	return &cp, nil
}

var acmeAdmin = &identity.User{
	ID:       "user-acme-admin",
	TenantID: "tenant-acme",
	Email:    "admin@acme.test",
	Role:     authz.RoleAdmin,
}

func newTestService(t *testing.T, cacheTTL time.Duration) (*Service, fakeUsers, fakeTenants) {
	t.Helper()
	users := fakeUsers{acmeAdmin.Email: acmeAdmin}
	tenants := fakeTenants{"tenant-acme": {ID: "tenant-acme", Name: "Acme", Slug: "acme", Plan: tenant.PlanFree}}
	svc, err := NewService(NewTokenManager(testSecret, 24*time.Hour), users, tenants, cacheTTL)
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return svc, users, tenants
}

func TestService_IssueAndVerify(t *testing.T) {
	svc, _, _ := newTestService(t, 0)
	ctx := context.Background()

	sess, err := svc.Issue(ctx, acmeAdmin)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, "acme", sess.Tenant.Slug)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), sess.ExpiresAt, time.Minute)

	p, tn, err := svc.Verify(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, &authz.Principal{
		UserID:   "user-acme-admin",
		Email:    "admin@acme.test",
		Role:     authz.RoleAdmin,
		TenantID: "tenant-acme",
	}, p)
	assert.Equal(t, tenant.PlanFree, tn.Plan)
}

func TestTokenManager_Claims(t *testing.T) {
	m := NewTokenManager(testSecret, time.Hour)
	raw, _, err := m.Sign(acmeAdmin)
	require.NoError(t, err)

	claims, err := m.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "user-acme-admin", claims.UserID)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "tenant-acme", claims.TenantID)
	require.NotNil(t, claims.IssuedAt)
	assert.Equal(t, time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

// TestPurpose: Validates that forged, malformed, wrongly signed and expired tokens are rejected.
// Scope: Unit Test
// Security: Token integrity (CWE-347), algorithm confusion
// Expected: ErrInvalidToken or ErrExpiredToken; never a principal.
// Test Case ID: SES-01
func TestService_Verify_Rejects(t *testing.T) {
	svc, _, _ := newTestService(t, 0)
	ctx := context.Background()

	other := NewTokenManager("another-secret", time.Hour)
	foreign, _, err := other.Sign(acmeAdmin)
	require.NoError(t, err)

	hs512 := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		Email:            acmeAdmin.Email,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	wrongAlg, err := hs512.SignedString([]byte(testSecret))
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Email:            acmeAdmin.Email,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Email: acmeAdmin.Email})
	withoutExpiry, err := noExp.SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := map[string]string{
		"garbage":        "not.a.token",
		"wrong secret":   foreign,
		"wrong alg":      wrongAlg,
		"alg none":       unsigned,
		"missing expiry": withoutExpiry,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			p, _, err := svc.Verify(ctx, raw)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Nil(t, p)
		})
	}

	t.Run("expired", func(t *testing.T) {
		m := NewTokenManager(testSecret, time.Hour)
		m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		expired, _, err := m.Sign(acmeAdmin)
		require.NoError(t, err)

		_, _, err = svc.Verify(ctx, expired)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("missing", func(t *testing.T) {
		_, _, err := svc.Verify(ctx, "")
		assert.ErrorIs(t, err, ErrMissingCredential)
	})
}

// TestPurpose: Validates that a token whose subject no longer exists is rejected.
// Scope: Unit Test
// Security: Session invalidation on principal removal
// Expected: ErrUnknownPrincipal.
// Test Case ID: SES-02
func TestService_Verify_UnknownPrincipal(t *testing.T) {
	svc, users, _ := newTestService(t, 0)
	ctx := context.Background()

	sess, err := svc.Issue(ctx, acmeAdmin)
	require.NoError(t, err)

	delete(users, acmeAdmin.Email)
	_, _, err = svc.Verify(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrUnknownPrincipal)
}

func TestService_Verify_FreshTenant(t *testing.T) {
	svc, _, tenants := newTestService(t, time.Minute)
	ctx := context.Background()

	sess, err := svc.Issue(ctx, acmeAdmin)
	require.NoError(t, err)

	_, err = tenants.UpdatePlan(ctx, "tenant-acme", tenant.PlanPro)
	require.NoError(t, err)

	_, tn, err := svc.Verify(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, tenant.PlanPro, tn.Plan)
}

// TestPurpose: Validates that the token cache never outlives the principal: a removed user is rejected and a role change applies on the next request.
// Scope: Unit Test
// Security: Session invalidation on principal removal, Privilege Retention (CWE-613)
// Expected: With the cache warm, a demoted admin resolves as member and a deleted user yields ErrUnknownPrincipal.
// Test Case ID: SES-05
func TestService_Verify_CacheResolvesPrincipalFresh(t *testing.T) {
	svc, users, _ := newTestService(t, time.Minute)
	ctx := context.Background()

	sess, err := svc.Issue(ctx, acmeAdmin)
	require.NoError(t, err)

	p, _, err := svc.Verify(ctx, sess.Token)
	require.NoError(t, err)
	require.True(t, p.IsAdmin())
	svc.cache.Wait()
	_, cached := svc.cache.Get(sess.Token)
	require.True(t, cached)

	demoted := *acmeAdmin
	demoted.Role = authz.RoleMember
	users[acmeAdmin.Email] = &demoted
	p, _, err = svc.Verify(ctx, sess.Token)
	require.NoError(t, err)
	assert.False(t, p.IsAdmin())

	delete(users, acmeAdmin.Email)
	_, _, err = svc.Verify(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrUnknownPrincipal)
}

func TestService_Verify_CachedTokenStillExpires(t *testing.T) {
	svc, _, _ := newTestService(t, time.Hour)
	ctx := context.Background()

	sess, err := svc.Issue(ctx, acmeAdmin)
	require.NoError(t, err)
	_, _, err = svc.Verify(ctx, sess.Token)
	require.NoError(t, err)
	svc.cache.Wait()

	svc.tokens.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
	_, _, err = svc.Verify(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi"},
		{"bearer abc", "abc"},
		{"Bearer ", ""},
		{"Bearer", ""},
		{"Basic dXNlcjpwYXNz", ""},
		{"", ""},
		{"abc.def.ghi", ""},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, BearerToken(tt.header))
		})
	}
}
