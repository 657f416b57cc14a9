package store

import (
	"errors"

	"github.com/lib/pq"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write would duplicate a value the schema
// declares unique (username, email, book title, novelist name). The
// database constraint is the authoritative conflict signal: check-then-
// insert cannot win a race, the constraint can.
var ErrConflict = errors.New("conflict")

const uniqueViolationCode = "23505"

// translateError maps driver-level uniqueness violations to ErrConflict
// and passes everything else through.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolationCode {
		return ErrConflict
	}
	return err
}
