package validator

import (
	"testing"

	domainerrors "kinship/internal/domain/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupForm struct {
	FirstName string `validate:"required"`
	ParentID  *uint  `validate:"required"`
	UserType  string `validate:"required,eq=child"`
}

func TestValidate_FailureCarriesReadableFieldSummary(t *testing.T) {
	t.Parallel()

	v := New()

	err := v.Validate(&signupForm{UserType: "admin"})
	require.Error(t, err)

	var appErr domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_FAILED", appErr.ErrorCode())
	assert.Contains(t, appErr.Details(), "first_name is required")
	assert.Contains(t, appErr.Details(), "parent_id is required")
	assert.Contains(t, appErr.Details(), "user_type must be 'child'")

	// The go-playground rendering leaks the request-struct name; ours must not.
	assert.NotContains(t, appErr.Details(), "signupForm")
	assert.NotContains(t, appErr.Details(), "Key:")
}

func TestValidate_ValidStructPasses(t *testing.T) {
	t.Parallel()

	v := New()
	parentID := uint(7)

	assert.NoError(t, v.Validate(&signupForm{
		FirstName: "Jane",
		ParentID:  &parentID,
		UserType:  "child",
	}))
}
