package postgres

import (
	"strings"

	domainerrors "kinship/internal/domain/errors"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// translateWriteError classifies a failed insert or update. A foreign key
// violation on parent_id means the referenced parent vanished between the
// engine's existence check and the write, so it surfaces as the same
// reference error the check itself would have produced. Everything else
// stays an opaque storage failure.
func translateWriteError(err error, details string) error {
	if isForeignKeyConstraintViolation(err) {
		return domainerrors.ErrParentNotFound.WrapMessage("parent reference rejected by storage constraint")
	}
	if isCheckConstraintViolation(err) || isNotNullConstraintViolation(err) {
		return domainerrors.NewDatabaseExecuteError(err, "user row rejected by storage constraint")
	}

	return domainerrors.NewDatabaseExecuteError(err, details)
}

// Helper functions for PostgreSQL error checking
func isForeignKeyConstraintViolation(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}

	// PostgreSQL foreign_key_violation error code
	errMsg := strings.ToLower(err.Error())

	return strings.Contains(errMsg, "foreign key") || strings.Contains(errMsg, "23503")
}

func isNotNullConstraintViolation(err error) bool {
	errMsg := strings.ToLower(err.Error())

	return strings.Contains(errMsg, "null value") ||
		strings.Contains(errMsg, "not null") ||
		strings.Contains(errMsg, "23502") // PostgreSQL not_null_violation error code
}

func isCheckConstraintViolation(err error) bool {
	if errors.Is(err, gorm.ErrCheckConstraintViolated) {
		return true
	}

	// PostgreSQL check_violation error code
	errMsg := strings.ToLower(err.Error())

	return strings.Contains(errMsg, "check constraint") || strings.Contains(errMsg, "23514")
}
