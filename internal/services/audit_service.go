package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/aster-app/aster/internal/models"
)

// AuditServiceProvider defines the interface for the audit trail.
type AuditServiceProvider interface {
	Record(ctx context.Context, eventType, level, message string, username *string) error
	Recent(ctx context.Context, limit int) ([]models.AuditEvent, error)
	PruneOlderThan(ctx context.Context, age time.Duration) (int64, error)
}

// AuditService records actions of interest (logins, blocks, post mutations)
// to the database. Writes happen outside the request transaction: a failed
// audit insert must never roll back the action it describes.
type AuditService struct {
	db  *sql.DB
	now func() time.Time
}

// NewAuditService creates a new AuditService.
func NewAuditService(db *sql.DB) *AuditService {
	return &AuditService{db: db, now: time.Now}
}

// Record logs a new audit event. username may be nil for anonymous events.
func (s *AuditService) Record(ctx context.Context, eventType, level, message string, username *string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO audit_event (id, type, level, message, username, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		uuid.New().String(), eventType, level, message, username, s.now().UTC())
	return err
}

// Recent retrieves the most recent audit events.
func (s *AuditService) Recent(ctx context.Context, limit int) ([]models.AuditEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, type, level, message, username, created_at FROM audit_event ORDER BY created_at DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.AuditEvent
	for rows.Next() {
		var event models.AuditEvent
		if err := rows.Scan(&event.ID, &event.Type, &event.Level, &event.Message, &event.Username, &event.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// PruneOlderThan deletes audit events older than the given age and returns
// how many rows were removed.
func (s *AuditService) PruneOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := s.now().UTC().Add(-age)
	res, err := s.db.ExecContext(ctx, "DELETE FROM audit_event WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
