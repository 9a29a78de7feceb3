package materials

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/textileco/pettycash/internal/masterdata/shared"
)

type Repository interface {
	ListActive(ctx context.Context, filters shared.ListFilters) ([]Material, error)
	Create(ctx context.Context, material Material) error
	Update(ctx context.Context, id uuid.UUID, patch Patch) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) ListActive(ctx context.Context, filters shared.ListFilters) ([]Material, error) {
	var c shared.Conditions
	c.Add("active = ?", true)
	if filters.Search != "" {
		c.Add("(name ILIKE ? OR category ILIKE ?)", shared.Like(filters.Search))
	}
	rows, err := r.db.Query(ctx, `SELECT id, name, COALESCE(category, ''), unit_of_measure, default_rate, COALESCE(notes, ''), active, created_at, updated_at
FROM materials`+c.Where()+` ORDER BY category NULLS FIRST, name`, c.Args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Material, error) {
		var m Material
		err := row.Scan(&m.ID, &m.Name, &m.Category, &m.UnitOfMeasure, &m.DefaultRate, &m.Notes, &m.Active, &m.CreatedAt, &m.UpdatedAt)
		return m, err
	})
}

func (r *repository) Create(ctx context.Context, m Material) error {
	_, err := r.db.Exec(ctx, `INSERT INTO materials (id, name, category, unit_of_measure, default_rate, notes)
VALUES ($1, $2, NULLIF($3, ''), $4, $5, NULLIF($6, ''))`, m.ID, m.Name, m.Category, m.UnitOfMeasure, m.DefaultRate, m.Notes)
	return shared.WriteErr(err, "material already exists")
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, p Patch) error {
	tag, err := r.db.Exec(ctx, `UPDATE materials SET
name = COALESCE($2, name),
category = COALESCE($3, category),
unit_of_measure = COALESCE($4, unit_of_measure),
default_rate = COALESCE($5, default_rate),
notes = COALESCE($6, notes),
active = COALESCE($7, active),
updated_at = NOW()
WHERE id = $1`, id, p.Name, p.Category, p.UnitOfMeasure, p.DefaultRate, p.Notes, p.Active)
	if err != nil {
		return err
	}
	return shared.Affected(tag.RowsAffected(), "material")
}
