package shared

import (
	"context"

	"github.com/google/uuid"
)

// Notice is a notification addressed to specific users, to every active user
// holding one of Roles, or both.
type Notice struct {
	UserIDs []uuid.UUID
	Roles   []Role
	Title   string
	Message string
	Link    string
}

// Events collects the side effects decided by a committed operation.
type Events struct {
	Audits  []AuditLog
	Notices []Notice
}

// Audit appends an audit record.
func (e *Events) Audit(log AuditLog) {
	e.Audits = append(e.Audits, log)
}

// NotifyUsers appends a notice for the given users. Nil ids are skipped.
func (e *Events) NotifyUsers(title, message, link string, ids ...uuid.UUID) {
	targets := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id != uuid.Nil {
			targets = append(targets, id)
		}
	}
	if len(targets) == 0 {
		return
	}
	e.Notices = append(e.Notices, Notice{UserIDs: targets, Title: title, Message: message, Link: link})
}

// NotifyRoles appends a notice for every active user of the given roles.
func (e *Events) NotifyRoles(title, message, link string, roles ...Role) {
	if len(roles) == 0 {
		return
	}
	e.Notices = append(e.Notices, Notice{Roles: roles, Title: title, Message: message, Link: link})
}

// Empty reports whether there is nothing to emit.
func (e Events) Empty() bool {
	return len(e.Audits) == 0 && len(e.Notices) == 0
}

// Emitter drains events after the owning transaction committed. Failures are
// the emitter's concern and never reach the caller.
type Emitter interface {
	Emit(ctx context.Context, events Events)
}

// NopEmitter discards events.
type NopEmitter struct{}

// Emit implements Emitter.
func (NopEmitter) Emit(context.Context, Events) {}

// RecordingEmitter keeps emitted events in memory.
type RecordingEmitter struct {
	Events []Events
}

// Emit implements Emitter.
func (r *RecordingEmitter) Emit(_ context.Context, events Events) {
	r.Events = append(r.Events, events)
}

// Notices flattens every recorded notice.
func (r *RecordingEmitter) Notices() []Notice {
	var out []Notice
	for _, ev := range r.Events {
		out = append(out, ev.Notices...)
	}
	return out
}

// Audits flattens every recorded audit record.
func (r *RecordingEmitter) Audits() []AuditLog {
	var out []AuditLog
	for _, ev := range r.Events {
		out = append(out, ev.Audits...)
	}
	return out
}
