package models

import "time"

// AuditEvent records an action of interest (logins, blocks, post mutations)
// for later inspection.
type AuditEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`  // e.g. "auth.login", "post.delete"
	Level     string    `json:"level"` // "info", "warn", "error"
	Message   string    `json:"message"`
	Username  *string   `json:"username,omitempty"` // nil for anonymous events
	CreatedAt time.Time `json:"created_at"`
}
