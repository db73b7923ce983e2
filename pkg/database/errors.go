package database

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes used for constraint-violation mapping.
const (
	codeUniqueViolation    = "23505"
	codeExclusionViolation = "23P01"
)

// IsUniqueViolation reports whether err is a unique-constraint violation
// (duplicate slug, duplicate active membership, duplicate email).
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}

// IsExclusionViolation reports whether err is an exclusion-constraint
// violation. The bookings table carries an exclusion constraint over
// (resource_id, [start,end)) so concurrent overlapping inserts cannot both
// commit; the loser surfaces here.
func IsExclusionViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeExclusionViolation
}
