package repository

import (
	"errors"

	"github.com/lib/pq"
)

// ErrDuplicate is returned when an insert or update trips a uniqueness
// constraint. Uniqueness invariants (one film per week, one suggestion
// per member per week, one interaction row per member per film) live in
// the store's constraint layer, so this sentinel is the authoritative
// conflict signal; services translate it into the domain taxonomy.
var ErrDuplicate = errors.New("duplicate key")

// unique_violation
const pqUniqueViolation = "23505"

func translateUnique(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
		return ErrDuplicate
	}
	return err
}
