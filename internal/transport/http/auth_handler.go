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
	"encoding/json"
	"net/http"
	"strings"

	"github.com/yardsticknotes/yardstick/internal/authz"
	"github.com/yardsticknotes/yardstick/internal/tenant"
)

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required" example:"admin@acme.test"`
	Password string `json:"password" binding:"required" example:"password"`
}

// UserResponse is the client view of a signed-in user
type UserResponse struct {
	ID     string         `json:"id"`
	Email  string         `json:"email"`
	Role   authz.Role     `json:"role"`
	Tenant *tenant.Tenant `json:"tenant"`
}

// LoginResponse carries the bearer token and the user view
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// Login handles user login
// @Summary Login
// @Description Authenticate with email and password and receive a bearer token
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.identityService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	sess, err := h.sessionService.Issue(r.Context(), user)
	if err != nil {
		h.respondInternal(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, LoginResponse{
		Token: sess.Token,
		User: UserResponse{
			ID:     user.ID,
			Email:  user.Email,
			Role:   user.Role,
			Tenant: sess.Tenant,
		},
	})
}

// GetCurrentUser returns the signed-in user with the current tenant plan
// @Summary Current user
// @Description Returns the authenticated user and their tenant
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]UserResponse
// @Failure 401 {object} map[string]string
// @Router /auth/me [get]
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())
	t := TenantFromContext(r.Context())

	respondJSON(w, http.StatusOK, map[string]UserResponse{
		"user": {
			ID:     p.UserID,
			Email:  p.Email,
			Role:   p.Role,
			Tenant: t,
		},
	})
}
