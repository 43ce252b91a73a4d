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
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/yardsticknotes/yardstick/internal/audit"
	"github.com/yardsticknotes/yardstick/internal/authz"
	"github.com/yardsticknotes/yardstick/internal/observability/logger"
	"github.com/yardsticknotes/yardstick/internal/session"
)

// LoggingMiddleware logs the start and end of every request
func LoggingMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			slog.DebugContext(r.Context(), "http_request_start",
				logger.RequestID(middleware.GetReqID(r.Context())),
				logger.Method(r.Method),
				logger.Path(r.URL.Path),
				logger.RemoteAddr(r.RemoteAddr),
			)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				slog.InfoContext(r.Context(), "http_request_end",
					logger.RequestID(middleware.GetReqID(r.Context())),
					logger.Method(r.Method),
					logger.Path(r.URL.Path),
					logger.RemoteAddr(r.RemoteAddr),
					logger.UserAgent(r.UserAgent()),
					logger.StatusCode(ww.Status()),
					logger.Duration(time.Since(start).Milliseconds()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// AuthMiddleware verifies the bearer token and stores the principal and its
// tenant on the request context. The tenant comes only from the token
// subject's user record.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := session.BearerToken(r.Header.Get("Authorization"))

		p, t, err := h.sessionService.Verify(r.Context(), raw)
		if err != nil {
			if !isAuthError(err) {
				h.respondInternal(w, r, err)
				return
			}
			reason := tokenRejectReason(err)
			slog.WarnContext(r.Context(), "bearer verification failed",
				logger.Error(err),
				logger.ErrorType(reason),
				logger.Path(r.URL.Path),
			)
			h.auditLogger.Log(r.Context(), audit.Event{
				Type:      audit.TypeTokenRejected,
				Resource:  r.URL.Path,
				IPAddress: getIPAddress(r),
				UserAgent: r.UserAgent(),
				Metadata:  map[string]any{audit.AttrReason: reason},
			})
			h.respondServiceError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), p, t)))
	})
}

func isAuthError(err error) bool {
	return errorsIsAny(err,
		session.ErrMissingCredential,
		session.ErrInvalidToken,
		session.ErrExpiredToken,
		session.ErrUnknownPrincipal,
	)
}

// tokenRejectReason names the verification failure for logs and audit.
func tokenRejectReason(err error) string {
	switch {
	case errors.Is(err, session.ErrMissingCredential):
		return "missing_credential"
	case errors.Is(err, session.ErrExpiredToken):
		return "expired_token"
	case errors.Is(err, session.ErrUnknownPrincipal):
		return "unknown_principal"
	default:
		return "invalid_token"
	}
}

// RequireAdmin rejects principals without the admin role.
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := PrincipalFromContext(r.Context())
		if err := authz.RequireAdmin(p); err != nil {
			ev := audit.Event{
				Type:      audit.TypeAccessDenied,
				Resource:  r.URL.Path,
				IPAddress: getIPAddress(r),
				UserAgent: r.UserAgent(),
				Metadata:  map[string]any{audit.AttrReason: "admin_required"},
			}
			if p != nil {
				ev.TenantID = p.TenantID
				ev.ActorID = p.UserID
			}
			h.auditLogger.Log(r.Context(), ev)
			respondError(w, http.StatusForbidden, msgAdminRequired)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CORSMiddleware allows cross-origin calls from origin and answers
// preflight requests.
func CORSMiddleware(origin string) func(http.Handler) http.Handler {
	if origin == "" {
		origin = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hdr := w.Header()
			hdr.Set("Access-Control-Allow-Origin", origin)
			if origin != "*" {
				hdr.Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				hdr.Set("Access-Control-Allow-Methods", "GET,HEAD,PUT,PATCH,POST,DELETE")
				if reqHeaders := r.Header.Get("Access-Control-Request-Headers"); reqHeaders != "" {
					hdr.Set("Access-Control-Allow-Headers", reqHeaders)
				} else {
					hdr.Set("Access-Control-Allow-Headers", "Authorization,Content-Type")
				}
				hdr.Set("Access-Control-Max-Age", "600")
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RecoverMiddleware turns a panic into the standard 500 body.
func (h *Handler) RecoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			slog.ErrorContext(r.Context(), "panic recovered",
				logger.RequestID(middleware.GetReqID(r.Context())),
				slog.String("stack", string(debug.Stack())),
			)
			h.respondInternal(w, r, fmt.Errorf("panic: %v", rec))
		}()

		next.ServeHTTP(w, r)
	})
}
