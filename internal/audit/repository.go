package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	mdshared "github.com/textileco/pettycash/internal/masterdata/shared"
)

// PGRepository reads audit_log from PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const timelineSelect = `SELECT a.id, a.created_at, a.performed_by_user_id, COALESCE(u.name, ''), a.action,
       a.entity_type, a.entity_id, a.old_values, a.new_values, COALESCE(a.ip_address, ''), COALESCE(a.user_agent, '')
FROM audit_log a
LEFT JOIN users u ON u.id = a.performed_by_user_id`

func conditions(f TimelineFilters) *mdshared.Conditions {
	var c mdshared.Conditions
	if f.From != nil {
		c.Add("a.created_at >= ?", *f.From)
	}
	if f.To != nil {
		c.Add("a.created_at < ?::date + 1", *f.To)
	}
	if f.ActorID != nil {
		c.Add("a.performed_by_user_id = ?", *f.ActorID)
	}
	if f.Entity != "" {
		c.Add("a.entity_type = ?", f.Entity)
	}
	if f.EntityID != nil {
		c.Add("a.entity_id = ?", *f.EntityID)
	}
	if f.Action != "" {
		c.Add("a.action = ?", f.Action)
	}
	return &c
}

// Window returns limit rows starting at offset, newest first.
func (r *PGRepository) Window(ctx context.Context, f TimelineFilters, offset, limit int) ([]TimelineRow, error) {
	c := conditions(f)
	n := len(c.Args)
	query := timelineSelect + c.Where() + fmt.Sprintf(" ORDER BY a.created_at DESC, a.id LIMIT $%d OFFSET $%d", n+1, n+2)
	return r.query(ctx, query, append(c.Args, limit, offset)...)
}

// All returns every matching row, newest first.
func (r *PGRepository) All(ctx context.Context, f TimelineFilters) ([]TimelineRow, error) {
	c := conditions(f)
	return r.query(ctx, timelineSelect+c.Where()+" ORDER BY a.created_at DESC, a.id", c.Args...)
}

func (r *PGRepository) query(ctx context.Context, query string, args ...any) ([]TimelineRow, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (TimelineRow, error) {
		var t TimelineRow
		err := row.Scan(&t.ID, &t.At, &t.ActorID, &t.ActorName, &t.Action,
			&t.Entity, &t.EntityID, &t.Before, &t.After, &t.IP, &t.UserAgent)
		return t, err
	})
}

var _ Repository = (*PGRepository)(nil)
