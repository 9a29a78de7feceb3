package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditLog represents a record stored in audit_log. Before and After hold
// JSON-serialisable snapshots of the entity around the action.
type AuditLog struct {
	ActorID  uuid.UUID
	Action   string
	Entity   string
	EntityID uuid.UUID
	Before   any
	After    any
	At       time.Time

	IP        string
	UserAgent string
}

// AuditLogger writes records into audit_log.
type AuditLogger struct {
	pool *pgxpool.Pool
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(pool *pgxpool.Pool) *AuditLogger {
	return &AuditLogger{pool: pool}
}

// Record persists the log entry.
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil {
		return errors.New("audit logger not initialised")
	}
	if log.Action == "" || log.Entity == "" || log.EntityID == uuid.Nil {
		return errors.New("audit log requires action/entity/entity_id")
	}
	before, err := snapshot(log.Before)
	if err != nil {
		return err
	}
	after, err := snapshot(log.After)
	if err != nil {
		return err
	}
	var actor *uuid.UUID
	if log.ActorID != uuid.Nil {
		actor = &log.ActorID
	}
	var at *time.Time
	if !log.At.IsZero() {
		at = &log.At
	}
	_, err = l.pool.Exec(ctx, `INSERT INTO audit_log (id, entity_type, entity_id, action, performed_by_user_id, old_values, new_values, ip_address, user_agent, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), NULLIF($9, ''), COALESCE($10, NOW()))`,
		uuid.New(), log.Entity, log.EntityID, log.Action, actor, before, after, log.IP, log.UserAgent, at)
	return err
}

func snapshot(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
