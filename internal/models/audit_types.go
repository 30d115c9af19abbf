package models

import "time"

// AuditAction is the verb recorded for a sensitive mutation.
type AuditAction string

const (
	AuditCreate AuditAction = "CREAR"
	AuditUpdate AuditAction = "EDITAR"
	AuditDelete AuditAction = "ELIMINAR"
)

// Audited entity types.
const (
	EntityUnit = "UNIT"
	EntitySale = "SALE"
)

// AuditLogEntry is the model for the append-only 'audit_log' table.
type AuditLogEntry struct {
	ID         int64       `json:"id" db:"id"`
	ActorID    int64       `json:"actorId" db:"actor_id"`
	Action     AuditAction `json:"action" db:"action"`
	EntityType string      `json:"entityType" db:"entity_type"`
	EntityID   int64       `json:"entityId" db:"entity_id"`
	Detail     string      `json:"detail" db:"detail"`
	CreatedAt  time.Time   `json:"createdAt" db:"created_at"`
}
