package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"github.com/yardsticknotes/yardstick/internal/audit"
	"github.com/yardsticknotes/yardstick/internal/identity"
	"github.com/yardsticknotes/yardstick/internal/note"
	"github.com/yardsticknotes/yardstick/internal/session"
	"github.com/yardsticknotes/yardstick/internal/store/memory"
	"github.com/yardsticknotes/yardstick/internal/tenant"
)

const testSecret = "router-test-secret"

type testEnv struct {
	handler *Handler
	router  *chi.Mux
	store   *memory.Store
	tokens  *session.TokenManager
	audit   *recordingAudit
}

// recordingAudit keeps every event it is given.
type recordingAudit struct {
	mu     sync.Mutex
	events []audit.Event
}

func (a *recordingAudit) Log(_ context.Context, event audit.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, event)
}

// ofType returns the recorded events with the given type.
func (a *recordingAudit) ofType(eventType string) []audit.Event {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []audit.Event
	for _, ev := range a.events {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}

func newTestEnv(t *testing.T, devMode bool) *testEnv {
	t.Helper()

	seed, err := memory.DefaultSeed()
	require.NoError(t, err)
	store, err := memory.NewSeeded(seed)
	require.NoError(t, err)

	auditLogger := &recordingAudit{}
	tokens := session.NewTokenManager(testSecret, 24*time.Hour)
	sessions, err := session.NewService(tokens, store, store.Tenants(), 0)
	require.NoError(t, err)
	t.Cleanup(sessions.Close)

	h := NewHandler(
		identity.NewService(store, identity.NewPasswordHasher(10), auditLogger, nil),
		sessions,
		tenant.NewService(store.Tenants(), auditLogger, nil),
		note.NewService(store, auditLogger, tenant.DefaultFreeNoteLimit),
		auditLogger,
		devMode,
	)

	return &testEnv{
		handler: h,
		router:  NewRouter(h, nil, RouterConfig{CORSOrigin: "*"}),
		store:   store,
		tokens:  tokens,
		audit:   auditLogger,
	}
}

// do sends a request through the full router.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// login signs in and returns the bearer token.
func (e *testEnv) login(t *testing.T, email string) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Email: email, Password: "password"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}
