package service

import (
	"context"
	"time"

	"github.com/01moynul/resell-golang/internal/metrics"
	"github.com/01moynul/resell-golang/internal/models"
	"github.com/01moynul/resell-golang/internal/repository"
	"github.com/sirupsen/logrus"
)

// AuditLog records sensitive mutations. Appends are best-effort: a failed
// write is logged and counted but never reaches the caller.
type AuditLog struct {
	repo repository.AuditRepository
	log  logrus.FieldLogger
}

func NewAuditLog(repo repository.AuditRepository, log logrus.FieldLogger) *AuditLog {
	return &AuditLog{repo: repo, log: log}
}

// Append writes one entry. It outlives a cancelled request context so that
// a client disconnecting right after a committed sale does not lose the
// trail.
func (a *AuditLog) Append(ctx context.Context, actorID int64, action models.AuditAction, entityType string, entityID int64, detail string) {
	entry := &models.AuditLogEntry{
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Detail:     detail,
		CreatedAt:  time.Now(),
	}

	if err := a.repo.Append(context.WithoutCancel(ctx), entry); err != nil {
		metrics.AuditWriteFailures.Inc()
		a.log.WithError(err).
			WithField("action", action).
			WithField("entity_type", entityType).
			WithField("entity_id", entityID).
			Warn("audit append failed")
	}
}

// ListRecent returns entries newest first.
func (a *AuditLog) ListRecent(ctx context.Context, limit, offset int) ([]models.AuditLogEntry, error) {
	limit, offset = repository.NormalizePage(limit, offset)
	return readWithRetry(ctx, a.log, "list audit log", func(ctx context.Context) ([]models.AuditLogEntry, error) {
		return a.repo.ListRecent(ctx, limit, offset)
	})
}
