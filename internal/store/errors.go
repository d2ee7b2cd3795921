package store

import (
	"errors"

	"github.com/lib/pq"
)

// Sentinel errors surfaced by repositories.
var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateEmail is returned when an account insert collides on email.
	ErrDuplicateEmail = errors.New("email already exists")

	// ErrProfileExists is returned when a doctor profile insert collides on
	// the owning account. A single account holds at most one profile.
	ErrProfileExists = errors.New("doctor profile already exists")

	// ErrDuplicateLicense is returned when a doctor profile insert collides
	// on the medical license number.
	ErrDuplicateLicense = errors.New("medical license already registered")
)

const uniqueViolation = "23505"

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation, optionally on the named constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}
