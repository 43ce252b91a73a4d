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

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/yardsticknotes/yardstick/internal/note"
	"github.com/yardsticknotes/yardstick/internal/tenant"
)

// NoteRepository implements note.Repository. Every statement filters on
// tenant_id.
type NoteRepository struct {
	db *DB
}

// NewNoteRepository creates a new note repository
func NewNoteRepository(db *DB) *NoteRepository {
	return &NoteRepository{db: db}
}

const noteColumns = "id, title, content, tenant_id, user_id, created_at, updated_at"

// List returns the tenant's notes in insertion order
func (r *NoteRepository) List(ctx context.Context, tenantID string) ([]*note.Note, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT `+noteColumns+`
		FROM notes
		WHERE tenant_id = $1
		ORDER BY created_at, id
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	notes := []*note.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	return notes, nil
}

// Get retrieves a note of the tenant
func (r *NoteRepository) Get(ctx context.Context, tenantID, id string) (*note.Note, error) {
	return scanNote(r.db.pool.QueryRow(ctx, `
		SELECT `+noteColumns+`
		FROM notes
		WHERE id = $1 AND tenant_id = $2
	`, id, tenantID))
}

// Create locks the tenant row, counts its notes, admits and inserts in one
// transaction.
func (r *NoteRepository) Create(ctx context.Context, n *note.Note, admit note.AdmitFunc) error {
	return pgx.BeginFunc(ctx, r.db.pool, func(tx pgx.Tx) error {
		t, err := scanTenant(tx.QueryRow(ctx, `
			SELECT id, name, slug, plan FROM tenants WHERE id = $1 FOR UPDATE
		`, n.TenantID))
		if err != nil {
			return err
		}

		var count int
		if err := tx.QueryRow(ctx, `SELECT count(*) FROM notes WHERE tenant_id = $1`, t.ID).Scan(&count); err != nil {
			return fmt.Errorf("failed to count notes: %w", err)
		}
		if admit != nil {
			if err := admit(t, count); err != nil {
				return err
			}
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO notes (`+noteColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, n.ID, n.Title, n.Content, n.TenantID, n.AuthorID, n.CreatedAt, n.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert note: %w", err)
		}
		return nil
	})
}

// Update locks the note row, applies mutate and writes title, content and
// updated_at back.
func (r *NoteRepository) Update(ctx context.Context, tenantID, id string, mutate func(n *note.Note) error) (*note.Note, error) {
	var updated *note.Note
	err := pgx.BeginFunc(ctx, r.db.pool, func(tx pgx.Tx) error {
		n, err := lockNote(ctx, tx, tenantID, id)
		if err != nil {
			return err
		}
		if err := mutate(n); err != nil {
			return err
		}

		updated, err = scanNote(tx.QueryRow(ctx, `
			UPDATE notes SET title = $3, content = $4, updated_at = $5
			WHERE id = $1 AND tenant_id = $2
			RETURNING `+noteColumns, id, tenantID, n.Title, n.Content, n.UpdatedAt))
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete locks the note row, runs check and removes it.
func (r *NoteRepository) Delete(ctx context.Context, tenantID, id string, check func(n *note.Note) error) (*note.Note, error) {
	var removed *note.Note
	err := pgx.BeginFunc(ctx, r.db.pool, func(tx pgx.Tx) error {
		n, err := lockNote(ctx, tx, tenantID, id)
		if err != nil {
			return err
		}
		if check != nil {
			if err := check(n); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(ctx, `DELETE FROM notes WHERE id = $1 AND tenant_id = $2`, id, tenantID); err != nil {
			return fmt.Errorf("failed to delete note: %w", err)
		}
		removed = n
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func lockNote(ctx context.Context, tx pgx.Tx, tenantID, id string) (*note.Note, error) {
	return scanNote(tx.QueryRow(ctx, `
		SELECT `+noteColumns+`
		FROM notes
		WHERE id = $1 AND tenant_id = $2
		FOR UPDATE
	`, id, tenantID))
}

func scanNote(row pgx.Row) (*note.Note, error) {
	var n note.Note
	err := row.Scan(&n.ID, &n.Title, &n.Content, &n.TenantID, &n.AuthorID, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, note.ErrNoteNotFound
		}
		return nil, fmt.Errorf("failed to scan note: %w", err)
	}
	n.CreatedAt = n.CreatedAt.UTC()
	n.UpdatedAt = n.UpdatedAt.UTC()
	return &n, nil
}

var (
	_ note.Repository   = (*NoteRepository)(nil)
	_ tenant.Repository = (*TenantRepository)(nil)
)
