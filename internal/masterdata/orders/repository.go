package orders

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/textileco/pettycash/internal/masterdata/shared"
)

type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Order, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, order Order) error
	Update(ctx context.Context, id uuid.UUID, patch Patch) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Order, error) {
	var c shared.Conditions
	if filters.BuyerID != nil {
		c.Add("o.buyer_id = ?", *filters.BuyerID)
	}
	rows, err := r.db.Query(ctx, `SELECT o.id, o.order_no, o.buyer_id, COALESCE(b.name, ''), COALESCE(o.style, ''), COALESCE(o.season, ''),
COALESCE(o.remarks, ''), o.start_date, o.end_date, o.status, o.created_at, o.updated_at
FROM orders o LEFT JOIN buyers b ON b.id = o.buyer_id`+c.Where()+` ORDER BY o.order_no`, c.Args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Order, error) {
		var o Order
		err := row.Scan(&o.ID, &o.OrderNo, &o.BuyerID, &o.BuyerName, &o.Style, &o.Season, &o.Remarks, &o.StartDate, &o.EndDate, &o.Status, &o.CreatedAt, &o.UpdatedAt)
		return o, err
	})
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&n)
	return n, err
}

func (r *repository) Create(ctx context.Context, o Order) error {
	_, err := r.db.Exec(ctx, `INSERT INTO orders (id, order_no, buyer_id, style, season, remarks, start_date, end_date, status)
VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7, $8, $9)`,
		o.ID, o.OrderNo, o.BuyerID, o.Style, o.Season, o.Remarks, o.StartDate, o.EndDate, o.Status)
	return shared.WriteErr(err, "order number already exists")
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, p Patch) error {
	tag, err := r.db.Exec(ctx, `UPDATE orders SET
style = COALESCE($2, style),
season = COALESCE($3, season),
remarks = COALESCE($4, remarks),
start_date = COALESCE($5, start_date),
end_date = COALESCE($6, end_date),
status = COALESCE($7, status),
updated_at = NOW()
WHERE id = $1`, id, p.Style, p.Season, p.Remarks, p.StartDate, p.EndDate, p.Status)
	if err != nil {
		return err
	}
	return shared.Affected(tag.RowsAffected(), "order")
}
