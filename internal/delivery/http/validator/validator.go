// Package validator bridges go-playground/validator into echo's Validator hook.
package validator

import (
	"fmt"
	"strings"
	"unicode"

	domainerrors "kinship/internal/domain/errors"
	"kinship/internal/errors"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type echoValidator struct {
	validate *validator.Validate
}

// New creates the struct-tag validator used by the echo server.
func New() echo.Validator {
	return &echoValidator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Validate implements echo.Validator. Failures surface as the validation
// error of the response taxonomy with a readable field summary, never the
// validator's raw output with request-struct internals.
func (v *echoValidator) Validate(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return domainerrors.ErrValidationFailed.WithDetails(describeFieldErrors(fieldErrs))
	}

	return domainerrors.ErrValidationFailed.WithDetails(err.Error())
}

func describeFieldErrors(fieldErrs validator.ValidationErrors) string {
	parts := make([]string, 0, len(fieldErrs))
	for _, fieldErr := range fieldErrs {
		field := snakeCase(fieldErr.Field())

		switch fieldErr.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", field))
		case "eq":
			parts = append(parts, fmt.Sprintf("%s must be '%s'", field, fieldErr.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed the '%s' rule", field, fieldErr.Tag()))
		}
	}

	return strings.Join(parts, "; ")
}

// snakeCase converts a struct field name to its JSON wire name,
// keeping initialisms such as ID intact.
func snakeCase(field string) string {
	runes := []rune(field)

	var b strings.Builder
	b.Grow(len(field) + 2)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && !unicode.IsUpper(runes[i-1]) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))

			continue
		}
		b.WriteRune(r)
	}

	return b.String()
}
