package shared

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/textileco/pettycash/internal/platform/db"
	internalShared "github.com/textileco/pettycash/internal/shared"
)

// NotFound maps a missing row to ErrNotFound.
func NotFound(err error, entity string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s not found", internalShared.ErrNotFound, entity)
	}
	return err
}

// WriteErr maps constraint violations of inserts and updates.
func WriteErr(err error, duplicate string) error {
	switch {
	case err == nil:
		return nil
	case db.IsUniqueViolation(err):
		return fmt.Errorf("%w: %s", internalShared.ErrConflict, duplicate)
	case db.IsForeignKeyViolation(err):
		return fmt.Errorf("%w: referenced record does not exist", internalShared.ErrNotFound)
	}
	return err
}

// Affected turns a zero row count into ErrNotFound.
func Affected(rows int64, entity string) error {
	if rows == 0 {
		return fmt.Errorf("%w: %s not found", internalShared.ErrNotFound, entity)
	}
	return nil
}
