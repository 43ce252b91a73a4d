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

package note

import (
	"context"
	"errors"
	"time"

	"github.com/yardsticknotes/yardstick/internal/tenant"
)

// Domain errors
var (
	ErrNoteNotFound = errors.New("note not found")
	ErrValidation   = errors.New("title and content are required")
)

// Note is a tenant-owned document.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	TenantID  string    `json:"tenantId"`
	AuthorID  string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Patch carries the fields of an update. Nil or empty fields keep their value.
type Patch struct {
	Title   *string
	Content *string
}

// AdmitFunc decides whether a note may be created in t, which currently holds
// count notes.
type AdmitFunc func(t *tenant.Tenant, count int) error

// Repository defines tenant-scoped note persistence.
//
// Every method takes the tenant ID of the caller; a note of another tenant
// is reported as ErrNoteNotFound. Create, Update and Delete run their
// callbacks and the write under one lock or transaction, so the count seen
// by admit and the note seen by mutate/check cannot change before the write.
type Repository interface {
	List(ctx context.Context, tenantID string) ([]*Note, error)
	Get(ctx context.Context, tenantID, id string) (*Note, error)
	// Create resolves n.TenantID, counts its notes, calls admit and inserts n
	// if admit returns nil. A missing tenant yields tenant.ErrTenantNotFound.
	Create(ctx context.Context, n *Note, admit AdmitFunc) error
	// Update applies mutate to a copy of the stored note and persists it.
	Update(ctx context.Context, tenantID, id string, mutate func(n *Note) error) (*Note, error)
	// Delete removes the note if check returns nil and returns the removed note.
	Delete(ctx context.Context, tenantID, id string, check func(n *Note) error) (*Note, error)
}
