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

package audit

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// Event types
const (
	TypeLoginSuccess     = "login_success"
	TypeLoginFailed      = "login_failed"
	TypeNoteCreated      = "note_created"
	TypeNoteUpdated      = "note_updated"
	TypeNoteDeleted      = "note_deleted"
	TypeNoteLimitReached = "note_limit_reached"
	TypeAccessDenied     = "access_denied"
	TypeTenantUpgraded   = "tenant_upgraded"
	TypeTokenRejected    = "token_rejected"
)

// Metadata keys
const (
	AttrReason   = "reason"
	AttrEmail    = "email"
	AttrPlan     = "plan"
	AttrLimit    = "limit"
	AttrNoteID   = "note_id"
	AttrTenantID = "tenant_id"
)

// Resources
const (
	ResourceSession = "session"
	ResourceNote    = "note"
	ResourceTenant  = "tenant"
)

// Event represents an auditable action
type Event struct {
	Type      string
	TenantID  string
	ActorID   string
	Resource  string
	Metadata  map[string]any
	Timestamp time.Time
	IPAddress string
	UserAgent string
}

// Logger defines the interface for audit logging
type Logger interface {
	Log(ctx context.Context, event Event)
}

// SlogLogger implements Logger using slog
type SlogLogger struct{}

// NewSlogLogger creates a new audit logger
func NewSlogLogger() *SlogLogger {
	return &SlogLogger{}
}

// Log records an audit event
func (l *SlogLogger) Log(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	attrs := []any{
		slog.String("audit_type", event.Type),
		slog.String("tenant_id", event.TenantID),
		slog.String("actor_id", event.ActorID),
		slog.String("resource", event.Resource),
		slog.Time("timestamp", event.Timestamp),
	}

	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.UserAgent != "" {
		attrs = append(attrs, slog.String("user_agent", event.UserAgent))
	}

	if len(event.Metadata) > 0 {
		group := []any{}
		for k, v := range event.Metadata {
			if isSecret(k) {
				v = "[REDACTED]"
			}
			group = append(group, slog.Any(k, v))
		}
		attrs = append(attrs, slog.Group("metadata", group...))
	}

	level := slog.LevelInfo
	if isFailure(event.Type) {
		level = slog.LevelWarn
	}
	slog.Log(ctx, level, "AUDIT_EVENT", append(attrs, slog.String("component", "audit"))...)
}

// isFailure reports whether an event type records a refused request.
func isFailure(eventType string) bool {
	switch eventType {
	case TypeLoginFailed, TypeAccessDenied, TypeTokenRejected, TypeNoteLimitReached:
		return true
	}
	return false
}

var secretMarkers = []string{"password", "secret", "token", "key", "hash", "credential", "authorization"}

// isSecret reports whether a metadata key likely names a secret.
func isSecret(key string) bool {
	k := strings.ToLower(key)
	for _, s := range secretMarkers {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}

// Nop discards every event.
type Nop struct{}

// Log implements Logger.
func (Nop) Log(context.Context, Event) {}
