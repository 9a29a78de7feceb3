package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/textileco/pettycash/internal/platform/db"
	"github.com/textileco/pettycash/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, name, email, COALESCE(phone, ''), role, COALESCE(department, ''), status, created_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role, &u.Department, &u.Status, &u.CreatedAt)
	return u, err
}

// ListUsers returns all users.
func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY role, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// GetUser fetches one user.
func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, fmt.Errorf("%w: user not found", shared.ErrNotFound)
	}
	return u, err
}

// CreateUser inserts an account.
func (r *Repository) CreateUser(ctx context.Context, u User, passwordHash string) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO users (id, name, email, phone, password_hash, role, department, status)
VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, NULLIF($7, ''), $8)`,
		u.ID, u.Name, u.Email, u.Phone, passwordHash, u.Role, u.Department, u.Status)
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("%w: email already exists", shared.ErrConflict)
	}
	return err
}

// UpdateUser keeps columns whose input is nil.
func (r *Repository) UpdateUser(ctx context.Context, id uuid.UUID, input UpdateInput) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET
name = COALESCE($2, name),
phone = COALESCE($3, phone),
role = COALESCE($4, role),
department = COALESCE($5, department),
status = COALESCE($6, status),
updated_at = NOW()
WHERE id = $1`, id, input.Name, input.Phone, input.Role, input.Department, input.Status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: user not found", shared.ErrNotFound)
	}
	return nil
}

// ActiveUserIDsByRole lists active users holding any of roles.
func (r *Repository) ActiveUserIDsByRole(ctx context.Context, roles ...shared.Role) ([]uuid.UUID, error) {
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}
	rows, err := r.pool.Query(ctx, `SELECT id FROM users WHERE status = 'ACTIVE' AND role = ANY($1) ORDER BY id`, names)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
}

var _ RepositoryPort = (*Repository)(nil)
