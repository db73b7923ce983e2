package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	uniq := &pgconn.PgError{Code: "23505", ConstraintName: "organizations_slug_key"}
	assert.True(t, IsUniqueViolation(uniq))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert organization: %w", uniq)))

	assert.False(t, IsUniqueViolation(nil))
	assert.False(t, IsUniqueViolation(errors.New("duplicate key")))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23P01"}))
}

func TestIsExclusionViolation(t *testing.T) {
	excl := &pgconn.PgError{Code: "23P01", ConstraintName: "bookings_no_overlap"}
	assert.True(t, IsExclusionViolation(excl))
	assert.True(t, IsExclusionViolation(fmt.Errorf("insert booking: %w", excl)))

	assert.False(t, IsExclusionViolation(nil))
	assert.False(t, IsExclusionViolation(&pgconn.PgError{Code: "23505"}))
}
