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
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/yardsticknotes/yardstick/internal/note"
)

// CreateNoteRequest is the body of a note creation
type CreateNoteRequest struct {
	Title   string `json:"title" example:"Team Meeting"`
	Content string `json:"content" example:"Remember the team meeting at 2 PM"`
}

// UpdateNoteRequest is the body of a note update. Absent or empty fields
// keep their current value.
type UpdateNoteRequest struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

// DeleteNoteResponse echoes the removed note
type DeleteNoteResponse struct {
	Message string     `json:"message"`
	Note    *note.Note `json:"note"`
}

// ListNotes lists the notes of the caller's tenant
// @Summary List notes
// @Tags Notes
// @Produce json
// @Security BearerAuth
// @Success 200 {array} note.Note
// @Failure 401 {object} map[string]string
// @Router /notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.noteService.List(r.Context(), PrincipalFromContext(r.Context()))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, notes)
}

// GetNote returns one note of the caller's tenant
// @Summary Get note
// @Tags Notes
// @Produce json
// @Security BearerAuth
// @Param noteID path string true "Note ID"
// @Success 200 {object} note.Note
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /notes/{noteID} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	n, err := h.noteService.Get(r.Context(), PrincipalFromContext(r.Context()), chi.URLParam(r, "noteID"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, n)
}

// CreateNote creates a note in the caller's tenant
// @Summary Create note
// @Description Free tenants are limited to a fixed number of notes
// @Tags Notes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateNoteRequest true "Note"
// @Success 201 {object} note.Note
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Title and content are required")
		return
	}

	n, err := h.noteService.Create(r.Context(), PrincipalFromContext(r.Context()), req.Title, req.Content)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, n)
}

// UpdateNote changes a note's title and/or content
// @Summary Update note
// @Description Only the author or a tenant admin may update a note
// @Tags Notes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param noteID path string true "Note ID"
// @Param request body UpdateNoteRequest true "Fields to change"
// @Success 200 {object} note.Note
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /notes/{noteID} [put]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var req UpdateNoteRequest
	// An empty body is an empty patch; only updatedAt moves.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	n, err := h.noteService.Update(r.Context(), PrincipalFromContext(r.Context()), chi.URLParam(r, "noteID"), note.Patch{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, n)
}

// DeleteNote removes a note
// @Summary Delete note
// @Description Only the author or a tenant admin may delete a note
// @Tags Notes
// @Produce json
// @Security BearerAuth
// @Param noteID path string true "Note ID"
// @Success 200 {object} DeleteNoteResponse
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /notes/{noteID} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	n, err := h.noteService.Delete(r.Context(), PrincipalFromContext(r.Context()), chi.URLParam(r, "noteID"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, DeleteNoteResponse{
		Message: "Note deleted successfully",
		Note:    n,
	})
}
