package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/textileco/pettycash/internal/shared"
)

// UserDirectory expands role-addressed notices into user ids.
type UserDirectory interface {
	ActiveUserIDsByRole(ctx context.Context, roles ...shared.Role) ([]uuid.UUID, error)
}

// AuditRecorder persists audit records.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// FailureObserver counts dropped side effects.
type FailureObserver interface {
	ObserveEmitFailure(kind string)
}

// Dispatcher implements shared.Emitter on top of the notification store,
// the audit log and the user directory. Write failures are logged and dropped.
type Dispatcher struct {
	store     Store
	directory UserDirectory
	audit     AuditRecorder
	logger    *slog.Logger
	failures  FailureObserver
	now       func() time.Time
}

// NewDispatcher wires a Dispatcher. failures may be nil.
func NewDispatcher(store Store, directory UserDirectory, audit AuditRecorder, logger *slog.Logger, failures FailureObserver) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{store: store, directory: directory, audit: audit, logger: logger, failures: failures, now: time.Now}
}

// Emit implements shared.Emitter.
func (d *Dispatcher) Emit(ctx context.Context, events shared.Events) {
	if events.Empty() {
		return
	}
	// The caller's transaction already committed; a cancelled request must
	// not drop its side effects.
	ctx = context.WithoutCancel(ctx)
	meta := shared.RequestMetaFromContext(ctx)
	now := d.now()

	for _, log := range events.Audits {
		if log.At.IsZero() {
			log.At = now
		}
		if log.IP == "" {
			log.IP = meta.IP
		}
		if log.UserAgent == "" {
			log.UserAgent = meta.UserAgent
		}
		if err := d.audit.Record(ctx, log); err != nil {
			d.fail("audit", err, slog.String("entity", log.Entity), slog.String("entity_id", log.EntityID.String()), slog.String("action", log.Action))
		}
	}

	var rows []Notification
	for _, notice := range events.Notices {
		recipients, err := d.recipients(ctx, notice)
		if err != nil {
			d.fail("notification", err, slog.String("title", notice.Title))
			continue
		}
		for _, userID := range recipients {
			rows = append(rows, Notification{
				ID:        uuid.New(),
				UserID:    userID,
				Title:     notice.Title,
				Message:   notice.Message,
				Link:      notice.Link,
				CreatedAt: now,
			})
		}
	}
	if len(rows) == 0 {
		return
	}
	if err := d.store.InsertNotifications(ctx, rows); err != nil {
		d.fail("notification", err, slog.Int("count", len(rows)))
	}
}

// recipients merges explicit ids with active role holders, keeping first
// occurrence order.
func (d *Dispatcher) recipients(ctx context.Context, notice shared.Notice) ([]uuid.UUID, error) {
	ids := append([]uuid.UUID(nil), notice.UserIDs...)
	if len(notice.Roles) > 0 {
		byRole, err := d.directory.ActiveUserIDsByRole(ctx, notice.Roles...)
		if err != nil {
			return nil, err
		}
		ids = append(ids, byRole...)
	}
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

func (d *Dispatcher) fail(kind string, err error, attrs ...any) {
	d.logger.Error("side effect dropped", append([]any{slog.String("kind", kind), slog.Any("error", err)}, attrs...)...)
	if d.failures != nil {
		d.failures.ObserveEmitFailure(kind)
	}
}

var _ shared.Emitter = (*Dispatcher)(nil)
