package repository

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrNotFound the referenced row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict a uniqueness or exclusivity constraint rejected the write.
	// Races between concurrent writers surface here; callers report, not retry.
	ErrConflict = errors.New("conflict")
	// ErrNoModelForTEI no TEI range matches, so the radio cannot be classified.
	ErrNoModelForTEI = errors.New("no radio model found for TEI")
	// ErrInvalidTransition the requested ticket status move is not allowed.
	ErrInvalidTransition = errors.New("invalid status transition")
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pqForeignKeyViolation
}
