package vendors

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/textileco/pettycash/internal/masterdata/shared"
)

type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Vendor, error)
	Get(ctx context.Context, id uuid.UUID) (Vendor, error)
	Create(ctx context.Context, vendor Vendor) error
	Update(ctx context.Context, id uuid.UUID, patch Patch) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const columns = `id, name, COALESCE(contact_person, ''), COALESCE(phone, ''), COALESCE(email, ''), COALESCE(address, ''),
COALESCE(gstin, ''), COALESCE(ledger_code, ''), COALESCE(notes, ''), active, created_at, updated_at`

func scan(row pgx.Row) (Vendor, error) {
	var v Vendor
	err := row.Scan(&v.ID, &v.Name, &v.ContactPerson, &v.Phone, &v.Email, &v.Address, &v.GSTIN, &v.LedgerCode, &v.Notes, &v.Active, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Vendor, error) {
	var c shared.Conditions
	if filters.Search != "" {
		c.Add("(name ILIKE ? OR contact_person ILIKE ?)", shared.Like(filters.Search))
	}
	if filters.IsActive != nil {
		c.Add("active = ?", *filters.IsActive)
	}
	rows, err := r.db.Query(ctx, `SELECT `+columns+` FROM vendors`+c.Where()+` ORDER BY name`, c.Args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Vendor, error) { return scan(row) })
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (Vendor, error) {
	v, err := scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM vendors WHERE id = $1`, id))
	return v, shared.NotFound(err, "vendor")
}

func (r *repository) Create(ctx context.Context, v Vendor) error {
	_, err := r.db.Exec(ctx, `INSERT INTO vendors (id, name, contact_person, phone, email, address, gstin, ledger_code, notes, active)
VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), TRUE)`,
		v.ID, v.Name, v.ContactPerson, v.Phone, v.Email, v.Address, v.GSTIN, v.LedgerCode, v.Notes)
	return shared.WriteErr(err, "vendor already exists")
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, p Patch) error {
	tag, err := r.db.Exec(ctx, `UPDATE vendors SET
name = COALESCE($2, name),
contact_person = COALESCE($3, contact_person),
phone = COALESCE($4, phone),
email = COALESCE($5, email),
address = COALESCE($6, address),
gstin = COALESCE($7, gstin),
ledger_code = COALESCE($8, ledger_code),
notes = COALESCE($9, notes),
active = COALESCE($10, active),
updated_at = NOW()
WHERE id = $1`, id, p.Name, p.ContactPerson, p.Phone, p.Email, p.Address, p.GSTIN, p.LedgerCode, p.Notes, p.Active)
	if err != nil {
		return shared.WriteErr(err, "vendor already exists")
	}
	return shared.Affected(tag.RowsAffected(), "vendor")
}

func (r *repository) Deactivate(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `UPDATE vendors SET active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return shared.Affected(tag.RowsAffected(), "vendor")
}
