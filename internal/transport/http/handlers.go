// @title Yardstick Notes API
// @version 1.0.0
// @description Multi-tenant notes with plan limits

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package http

import (
	"encoding/json"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/yardsticknotes/yardstick/internal/audit"
	"github.com/yardsticknotes/yardstick/internal/identity"
	"github.com/yardsticknotes/yardstick/internal/note"
	"github.com/yardsticknotes/yardstick/internal/observability/logger"
	"github.com/yardsticknotes/yardstick/internal/session"
	"github.com/yardsticknotes/yardstick/internal/tenant"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
)

// Handler holds HTTP handlers and dependencies
type Handler struct {
	identityService *identity.Service
	sessionService  *session.Service
	tenantService   *tenant.Service
	noteService     *note.Service
	auditLogger     audit.Logger
	devMode         bool
}

// NewHandler creates a new HTTP handler. In devMode 500 responses carry the
// underlying error text.
func NewHandler(
	identityService *identity.Service,
	sessionService *session.Service,
	tenantService *tenant.Service,
	noteService *note.Service,
	auditLogger audit.Logger,
	devMode bool,
) *Handler {
	return &Handler{
		identityService: identityService,
		sessionService:  sessionService,
		tenantService:   tenantService,
		noteService:     noteService,
		auditLogger:     auditLogger,
		devMode:         devMode,
	}
}

// RouterConfig holds router-level options
type RouterConfig struct {
	CORSOrigin     string
	StaticFS       fs.FS // optional built client
	TracerProvider trace.TracerProvider
	RequestTimeout time.Duration
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler, rateLimiter *RateLimiter, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(CORSMiddleware(cfg.CORSOrigin))
	if rateLimiter != nil {
		r.Use(RateLimitMiddleware(rateLimiter))
	}
	r.Use(func(handler http.Handler) http.Handler {
		opts := []otelhttp.Option{
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		}
		if cfg.TracerProvider != nil {
			opts = append(opts, otelhttp.WithTracerProvider(cfg.TracerProvider))
		}
		return otelhttp.NewHandler(handler, "http_request", opts...)
	})
	r.Use(LoggingMiddleware())
	r.Use(h.RecoverMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	// Health check
	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", h.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(h.AuthMiddleware)

			r.Get("/auth/me", h.GetCurrentUser)

			r.Route("/notes", func(r chi.Router) {
				r.Get("/", h.ListNotes)
				r.Post("/", h.CreateNote)
				r.Get("/{noteID}", h.GetNote)
				r.Put("/{noteID}", h.UpdateNote)
				r.Delete("/{noteID}", h.DeleteNote)
			})

			r.With(h.RequireAdmin).Post("/tenants/{slug}/upgrade", h.UpgradeTenant)
		})

		r.NotFound(routeNotFound)
	})

	if cfg.StaticFS != nil {
		spa := SPAHandler{StaticFS: cfg.StaticFS}
		r.NotFound(spa.ServeHTTP)
	} else {
		r.NotFound(routeNotFound)
	}
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}

// HealthCheck returns the health status
// @Summary Health Check
// @Description Checks if the service is up and running
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

func routeNotFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusNotFound, "Route not found")
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("failed to encode response", logger.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"message": message,
	})
}

func getIPAddress(r *http.Request) string {
	// Check X-Forwarded-For header first
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
