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
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yardsticknotes/yardstick/internal/note"
	"github.com/yardsticknotes/yardstick/internal/tenant"
)

// TestPurpose: Walks the full free-plan lifecycle over HTTP: notes up to the cap, the limit response, an admin upgrade and unlimited creation afterwards.
// Scope: Integration Test (in-memory store)
// Security: Subscription enforcement, Privilege Escalation (CWE-269)
// Expected: The 4th note is refused with 403 and upgradeUrl until the admin upgrades.
// Test Case ID: E2E-01
func TestScenario_FreePlanLimitAndUpgrade(t *testing.T) {
	env := newTestEnv(t, false)
	member := env.login(t, "user@acme.test")
	admin := env.login(t, "admin@acme.test")

	// acme is seeded with two notes.
	w := env.do(t, http.MethodGet, "/api/notes", member, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, decode[[]note.Note](t, w), 2)

	w = env.do(t, http.MethodPost, "/api/notes", member, CreateNoteRequest{Title: "Third", Content: "fits"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[note.Note](t, w)
	assert.Equal(t, "tenant-acme", created.TenantID)
	assert.Equal(t, "user-acme-member", created.AuthorID)
	assert.NotEmpty(t, created.ID)

	w = env.do(t, http.MethodPost, "/api/notes", member, CreateNoteRequest{Title: "Fourth", Content: "too many"})
	require.Equal(t, http.StatusForbidden, w.Code)
	body := decode[map[string]string](t, w)
	assert.Equal(t, msgPlanLimit, body["message"])
	assert.Equal(t, "/api/tenants/acme/upgrade", body["upgradeUrl"])

	// Following the upgradeUrl lifts the cap.
	w = env.do(t, http.MethodPost, body["upgradeUrl"], admin, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/auth/me", member, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[map[string]UserResponse](t, w)["user"]
	assert.Equal(t, tenant.PlanPro, me.Tenant.Plan, "the existing token sees the new plan")

	for i := range 5 {
		w = env.do(t, http.MethodPost, "/api/notes", member, CreateNoteRequest{
			Title:   fmt.Sprintf("Pro note %d", i),
			Content: "unlimited",
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w = env.do(t, http.MethodGet, "/api/notes", member, nil)
	assert.Len(t, decode[[]note.Note](t, w), 8)
}

// TestPurpose: Validates that a note of another tenant is indistinguishable from a missing note for every operation.
// Scope: Integration Test (in-memory store)
// Security: Tenant Isolation (IDOR, CWE-639)
// Expected: HTTP 404 "Note not found" for GET, PUT and DELETE; the note is unchanged.
// Test Case ID: E2E-02
func TestScenario_CrossTenantIsolation(t *testing.T) {
	env := newTestEnv(t, false)
	globex := env.login(t, "admin@globex.test")
	acme := env.login(t, "admin@acme.test")

	w := env.do(t, http.MethodGet, "/api/notes", globex, nil)
	require.Equal(t, http.StatusOK, w.Code)
	for _, n := range decode[[]note.Note](t, w) {
		assert.Equal(t, "tenant-globex", n.TenantID)
	}

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		var body any
		if method == http.MethodPut {
			body = UpdateNoteRequest{Title: ptr("hijacked")}
		}
		w := env.do(t, method, "/api/notes/note-acme-welcome", globex, body)
		assert.Equal(t, http.StatusNotFound, w.Code, method)
		assert.Equal(t, "Note not found", decode[map[string]string](t, w)["message"])
	}

	w = env.do(t, http.MethodGet, "/api/notes/note-acme-welcome", acme, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEqual(t, "hijacked", decode[note.Note](t, w).Title)
}

// TestPurpose: Validates note ownership rules: members edit only their own notes, admins edit any note of the tenant.
// Scope: Integration Test (in-memory store)
// Security: Broken Access Control (CWE-284)
// Expected: Member gets 403 on the admin's note; admin updates and deletes the member's note.
// Test Case ID: E2E-03
func TestScenario_OwnershipRules(t *testing.T) {
	env := newTestEnv(t, false)
	member := env.login(t, "user@acme.test")
	admin := env.login(t, "admin@acme.test")

	w := env.do(t, http.MethodPost, "/api/notes", member, CreateNoteRequest{Title: "Mine", Content: "draft"})
	require.Equal(t, http.StatusCreated, w.Code)
	mine := decode[note.Note](t, w)

	// note-acme-welcome belongs to the admin.
	w = env.do(t, http.MethodPut, "/api/notes/note-acme-welcome", member, UpdateNoteRequest{Title: ptr("mine now")})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = env.do(t, http.MethodDelete, "/api/notes/note-acme-welcome", member, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPut, "/api/notes/"+mine.ID, member, UpdateNoteRequest{Content: ptr("final")})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[note.Note](t, w)
	assert.Equal(t, "Mine", updated.Title, "absent fields keep their value")
	assert.Equal(t, "final", updated.Content)
	assert.True(t, updated.UpdatedAt.After(mine.UpdatedAt))
	assert.Equal(t, mine.CreatedAt, updated.CreatedAt)

	w = env.do(t, http.MethodPut, "/api/notes/"+mine.ID, admin, UpdateNoteRequest{Title: ptr("Reviewed"), Content: ptr("")})
	require.Equal(t, http.StatusOK, w.Code)
	reviewed := decode[note.Note](t, w)
	assert.Equal(t, "Reviewed", reviewed.Title)
	assert.Equal(t, "final", reviewed.Content, "empty fields keep their value")

	w = env.do(t, http.MethodDelete, "/api/notes/"+mine.ID, admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	deleted := decode[DeleteNoteResponse](t, w)
	assert.Equal(t, mine.ID, deleted.Note.ID)

	w = env.do(t, http.MethodGet, "/api/notes/"+mine.ID, admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateNote_EmptyBodyTouchesOnly(t *testing.T) {
	env := newTestEnv(t, false)
	admin := env.login(t, "admin@acme.test")

	w := env.do(t, http.MethodGet, "/api/notes/note-acme-welcome", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	before := decode[note.Note](t, w)

	w = env.do(t, http.MethodPut, "/api/notes/note-acme-welcome", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	after := decode[note.Note](t, w)
	assert.Equal(t, before.Title, after.Title)
	assert.Equal(t, before.Content, after.Content)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))

	w = env.do(t, http.MethodPut, "/api/notes/note-acme-welcome", admin, "{broken")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateNote_AtLimitReportsUpgradeFirst(t *testing.T) {
	env := newTestEnv(t, false)
	member := env.login(t, "user@acme.test")

	w := env.do(t, http.MethodPost, "/api/notes", member, CreateNoteRequest{Title: "Third", Content: "fits"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodPost, "/api/notes", member, CreateNoteRequest{})
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "/api/tenants/acme/upgrade", decode[map[string]string](t, w)["upgradeUrl"])
}

func TestCreateNote_Validation(t *testing.T) {
	env := newTestEnv(t, false)
	member := env.login(t, "user@acme.test")

	for name, body := range map[string]any{
		"missing title":   CreateNoteRequest{Content: "x"},
		"missing content": CreateNoteRequest{Title: "x"},
		"malformed":       "{",
	} {
		t.Run(name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/notes", member, body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "Title and content are required", decode[map[string]string](t, w)["message"])
		})
	}
}

func TestRouter_SPAFallback(t *testing.T) {
	env := newTestEnv(t, false)
	static := fstest.MapFS{
		"index.html":    {Data: []byte("<html>yardstick</html>")},
		"assets/app.js": {Data: []byte("console.log('hi')")},
	}
	router := NewRouter(env.handler, nil, RouterConfig{StaticFS: static})

	serve := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	w := serve("/notes/123")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "yardstick")

	w = serve("/assets/app.js")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "console.log")

	// API misses never fall through to the client.
	w = serve("/api/unknown")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Route not found", decode[map[string]string](t, w)["message"])
}

func ptr(s string) *string { return &s }
