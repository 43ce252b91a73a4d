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
	"log/slog"
	"net/http"

	"github.com/yardsticknotes/yardstick/internal/authz"
	"github.com/yardsticknotes/yardstick/internal/identity"
	"github.com/yardsticknotes/yardstick/internal/note"
	"github.com/yardsticknotes/yardstick/internal/observability/logger"
	"github.com/yardsticknotes/yardstick/internal/session"
	"github.com/yardsticknotes/yardstick/internal/tenant"
)

const (
	msgAuthRequired  = "Authentication required"
	msgInvalidToken  = "Invalid token"
	msgAccessDenied  = "Access denied"
	msgAdminRequired = "Admin access required"
	msgPlanLimit     = "Free plan limit reached. Upgrade to Pro for unlimited notes."
	msgInternal      = "Something went wrong!"
)

// respondServiceError maps a domain error to its HTTP status and body.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var quota *tenant.QuotaError
	switch {
	case errors.As(err, &quota):
		respondJSON(w, http.StatusForbidden, map[string]string{
			"message":    msgPlanLimit,
			"upgradeUrl": quota.UpgradeURL(),
		})
	case errors.Is(err, note.ErrValidation):
		respondError(w, http.StatusBadRequest, "Title and content are required")
	case errors.Is(err, identity.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, session.ErrMissingCredential):
		respondError(w, http.StatusUnauthorized, msgAuthRequired)
	case errors.Is(err, session.ErrInvalidToken),
		errors.Is(err, session.ErrExpiredToken),
		errors.Is(err, session.ErrUnknownPrincipal):
		respondError(w, http.StatusUnauthorized, msgInvalidToken)
	case errors.Is(err, authz.ErrForbidden):
		respondError(w, http.StatusForbidden, msgAccessDenied)
	case errors.Is(err, note.ErrNoteNotFound):
		respondError(w, http.StatusNotFound, "Note not found")
	case errors.Is(err, tenant.ErrTenantNotFound):
		respondError(w, http.StatusNotFound, "Tenant not found")
	default:
		h.respondInternal(w, r, err)
	}
}

// respondInternal logs err and answers 500. The error text is only exposed
// in development.
func (h *Handler) respondInternal(w http.ResponseWriter, r *http.Request, err error) {
	attrs := []any{
		logger.Error(err),
		logger.Method(r.Method),
		logger.Path(r.URL.Path),
	}
	if p := PrincipalFromContext(r.Context()); p != nil {
		attrs = append(attrs,
			logger.UserID(p.UserID),
			logger.TenantID(p.TenantID),
			logger.Role(string(p.Role)),
		)
	}
	slog.ErrorContext(r.Context(), "request failed", attrs...)

	body := map[string]any{"message": msgInternal}
	if h.devMode && err != nil {
		body["error"] = err.Error()
	}
	respondJSON(w, http.StatusInternalServerError, body)
}

func errorsIsAny(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
