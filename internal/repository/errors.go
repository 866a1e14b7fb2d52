package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a keyed lookup matches nothing.
	ErrNotFound = pgx.ErrNoRows
	// ErrVersionConflict signals that a conditional write lost a race.
	ErrVersionConflict = errors.New("repository: version conflict")
	// ErrDuplicateTag signals an asset tag collision within a company.
	ErrDuplicateTag = errors.New("repository: duplicate asset tag")
	// ErrDuplicateEmail signals an identity email collision.
	ErrDuplicateEmail = errors.New("repository: duplicate email")
)

const uniqueViolation = "23505"

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
