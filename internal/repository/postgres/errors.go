package postgres

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"rental-marketplace-backend/internal/domain"
)

const uniqueViolation = "23505"

// mapError converts driver errors into the domain taxonomy. notFound is the
// message used when the row does not exist.
func mapError(op, notFound string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewNotFoundError("%s", notFound)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return &domain.Error{Code: domain.CodeConflict, Message: op + ": duplicate record", Err: err}
	}
	return domain.NewInfrastructureError(op, err)
}

// uuidStrings renders ids for pq.Array; lib/pq has no native uuid[] binding.
func uuidStrings[T interface{ String() string }](ids []T) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
