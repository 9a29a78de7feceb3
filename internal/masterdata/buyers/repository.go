package buyers

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/textileco/pettycash/internal/masterdata/shared"
	"github.com/textileco/pettycash/internal/platform/db"
	internalShared "github.com/textileco/pettycash/internal/shared"
)

type Repository interface {
	List(ctx context.Context) ([]Buyer, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, buyer Buyer) error
	Update(ctx context.Context, id uuid.UUID, patch Patch) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context) ([]Buyer, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, code, COALESCE(contact_details, ''), COALESCE(notes, ''), created_at, updated_at
FROM buyers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Buyer, error) {
		var b Buyer
		err := row.Scan(&b.ID, &b.Name, &b.Code, &b.ContactDetails, &b.Notes, &b.CreatedAt, &b.UpdatedAt)
		return b, err
	})
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM buyers`).Scan(&n)
	return n, err
}

func (r *repository) Create(ctx context.Context, b Buyer) error {
	_, err := r.db.Exec(ctx, `INSERT INTO buyers (id, name, code, contact_details, notes) VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''))`,
		b.ID, b.Name, b.Code, b.ContactDetails, b.Notes)
	return shared.WriteErr(err, "buyer code already exists")
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, p Patch) error {
	tag, err := r.db.Exec(ctx, `UPDATE buyers SET
name = COALESCE($2, name),
code = COALESCE($3, code),
contact_details = COALESCE($4, contact_details),
notes = COALESCE($5, notes),
updated_at = NOW()
WHERE id = $1`, id, p.Name, p.Code, p.ContactDetails, p.Notes)
	if err != nil {
		return shared.WriteErr(err, "buyer code already exists")
	}
	return shared.Affected(tag.RowsAffected(), "buyer")
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM buyers WHERE id = $1`, id)
	if db.IsForeignKeyViolation(err) {
		return fmt.Errorf("%w: buyer is referenced by orders or requests", internalShared.ErrConflict)
	}
	if err != nil {
		return err
	}
	return shared.Affected(tag.RowsAffected(), "buyer")
}
