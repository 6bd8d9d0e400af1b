package models

import (
	"errors"
	"strings"

	"github.com/uptrace/bun/driver/pgdriver"
)

// IsUniqueViolation reports whether err is a primary-key or unique-index
// violation. Both the Postgres production backend and the SQLite test
// backend are recognized.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgerr pgdriver.Error
	if errors.As(err, &pgerr) {
		// unique_violation
		return pgerr.Field('C') == "23505"
	}

	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
