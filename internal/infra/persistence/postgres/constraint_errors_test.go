package postgres

import (
	"testing"

	domainerrors "kinship/internal/domain/errors"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestIsForeignKeyConstraintViolation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "gorm sentinel",
			err:  gorm.ErrForeignKeyViolated,
			want: true,
		},
		{
			name: "wrapped gorm sentinel",
			err:  errors.Wrap(gorm.ErrForeignKeyViolated, "insert failed"),
			want: true,
		},
		{
			name: "postgres driver message",
			err:  errors.New(`insert or update on table "users" violates foreign key constraint "fk_users_parent" (SQLSTATE 23503)`),
			want: true,
		},
		{
			name: "check violation is not foreign key",
			err:  errors.New(`new row for relation "users" violates check constraint "chk_child_no_address" (SQLSTATE 23514)`),
			want: false,
		},
		{
			name: "plain failure",
			err:  errors.New("connection reset by peer"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, isForeignKeyConstraintViolation(tt.err))
		})
	}
}

func TestIsCheckConstraintViolation(t *testing.T) {
	t.Parallel()

	assert.True(t, isCheckConstraintViolation(gorm.ErrCheckConstraintViolated))
	assert.True(t, isCheckConstraintViolation(
		errors.New(`new row for relation "users" violates check constraint "chk_child_no_address" (SQLSTATE 23514)`),
	))
	assert.False(t, isCheckConstraintViolation(gorm.ErrForeignKeyViolated))
	assert.False(t, isCheckConstraintViolation(errors.New("connection reset by peer")))
}

func TestIsNotNullConstraintViolation(t *testing.T) {
	t.Parallel()

	assert.True(t, isNotNullConstraintViolation(
		errors.New(`null value in column "first_name" of relation "users" violates not-null constraint (SQLSTATE 23502)`),
	))
	assert.False(t, isNotNullConstraintViolation(gorm.ErrForeignKeyViolated))
	assert.False(t, isNotNullConstraintViolation(errors.New("connection reset by peer")))
}

func TestTranslateWriteError_ForeignKeyBecomesReferenceError(t *testing.T) {
	t.Parallel()

	// A parent deleted between the existence check and the insert must yield
	// the same reference error the check itself produces.
	for _, cause := range []error{
		gorm.ErrForeignKeyViolated,
		errors.New(`insert or update on table "users" violates foreign key constraint "fk_users_parent" (SQLSTATE 23503)`),
	} {
		err := translateWriteError(cause, "failed to create user")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domainerrors.ErrParentNotFound))

		var appErr domainerrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "REFERENCE_NOT_FOUND", appErr.ErrorCode())
	}
}

func TestTranslateWriteError_RowConstraintsStayOpaque(t *testing.T) {
	t.Parallel()

	for _, cause := range []error{
		errors.New(`new row for relation "users" violates check constraint "chk_child_no_address" (SQLSTATE 23514)`),
		errors.New(`null value in column "first_name" of relation "users" violates not-null constraint (SQLSTATE 23502)`),
	} {
		err := translateWriteError(cause, "failed to create user")
		require.Error(t, err)

		var appErr domainerrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "DATABASE_EXECUTE_FAILED", appErr.ErrorCode())
		assert.True(t, errors.Is(err, cause))
	}
}

func TestTranslateWriteError_UnclassifiedFailureKeepsCallerContext(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset by peer")

	err := translateWriteError(cause, "failed to update user")
	require.Error(t, err)

	var appErr domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "DATABASE_EXECUTE_FAILED", appErr.ErrorCode())
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "failed to update user", appErr.Details())
}
