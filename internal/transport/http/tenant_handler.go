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
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/yardsticknotes/yardstick/internal/authz"
	"github.com/yardsticknotes/yardstick/internal/tenant"
)

// UpgradeResponse carries the upgraded tenant
type UpgradeResponse struct {
	Message string         `json:"message"`
	Tenant  *tenant.Tenant `json:"tenant"`
}

// UpgradeTenant moves the caller's tenant to the pro plan
// @Summary Upgrade tenant
// @Description Admins may upgrade their own tenant. Upgrading a pro tenant is a no-op.
// @Tags Tenants
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Tenant slug"
// @Success 200 {object} UpgradeResponse
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /tenants/{slug}/upgrade [post]
func (h *Handler) UpgradeTenant(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())

	t, err := h.tenantService.Upgrade(r.Context(), p, chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, authz.ErrForbidden) && !p.IsAdmin() {
			respondError(w, http.StatusForbidden, msgAdminRequired)
			return
		}
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, UpgradeResponse{
		Message: "Tenant upgraded to Pro plan successfully",
		Tenant:  t,
	})
}
