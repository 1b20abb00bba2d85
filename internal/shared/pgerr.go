package shared

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// TranslatePG maps low-level postgres errors onto user-facing write
// errors, keeping the backend detail where the constraint name is
// meaningful to the operator.
func TranslatePG(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%s: %w (%s)", op, ErrDuplicate, pgErr.ConstraintName)
		case "23503":
			return fmt.Errorf("%s: referenced record missing (%s)", op, pgErr.ConstraintName)
		case "23514":
			return fmt.Errorf("%s: rejected by constraint %s", op, pgErr.ConstraintName)
		}
		return fmt.Errorf("%s: %s", op, pgErr.Message)
	}
	return fmt.Errorf("%s: %w", op, err)
}
