package repository

import (
	"context"
	"database/sql"

	"github.com/01moynul/resell-golang/internal/apperr"
	"github.com/01moynul/resell-golang/internal/models"
)

// AuditStore is the MySQL AuditRepository. It never updates or deletes.
type AuditStore struct {
	db *sql.DB
}

var _ AuditRepository = (*AuditStore)(nil)

// Append always writes through the pool, never through a caller's
// transaction, so a rollback elsewhere cannot take the entry with it.
func (s *AuditStore) Append(ctx context.Context, e *models.AuditLogEntry) error {
	query := `
		INSERT INTO audit_log (actor_id, action, entity_type, entity_id, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	res, err := s.db.ExecContext(ctx, query, e.ActorID, e.Action, e.EntityType, e.EntityID, e.Detail, e.CreatedAt)
	if err != nil {
		return apperr.Persistence("append audit entry", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		e.ID = id
	}
	return nil
}

func (s *AuditStore) ListRecent(ctx context.Context, limit, offset int) ([]models.AuditLogEntry, error) {
	limit, offset = NormalizePage(limit, offset)
	query := `
		SELECT id, actor_id, action, entity_type, entity_id, detail, created_at
		FROM audit_log
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperr.Persistence("list audit log", err)
	}
	defer rows.Close()

	entries := []models.AuditLogEntry{}
	for rows.Next() {
		var e models.AuditLogEntry
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.EntityType, &e.EntityID, &e.Detail, &e.CreatedAt); err != nil {
			return nil, apperr.Persistence("list audit log", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("list audit log", err)
	}
	return entries, nil
}
