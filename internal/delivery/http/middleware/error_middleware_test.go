package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	domainerrors "kinship/internal/domain/errors"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func renderError(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := NewErrorMiddleware(logger)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/users", nil)
	rec := httptest.NewRecorder()

	m.HandleHTTPError(err, e.NewContext(req, rec))

	return rec
}

func TestHandleHTTPError_ValidationFailureKeepsTaxonomyCode(t *testing.T) {
	err := domainerrors.ErrValidationFailed.WithDetails("first_name is required")

	rec := renderError(t, errors.WithStack(err))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"code":"VALIDATION_FAILED"`)
	assert.Contains(t, body, "first_name is required")
	assert.NotContains(t, body, "HTTP_ERROR")
	assert.NotContains(t, body, "Field validation")
}

func TestHandleHTTPError_StorageFailureStaysOpaque(t *testing.T) {
	cause := errors.New(`pq: duplicate key value violates unique constraint "users_pkey"`)
	err := domainerrors.NewDatabaseExecuteError(cause, "failed to create user")

	rec := renderError(t, err)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"code":"DATABASE_EXECUTE_FAILED"`)
	assert.NotContains(t, body, "duplicate key")
}

func TestHandleHTTPError_UnknownErrorIsGeneric500(t *testing.T) {
	rec := renderError(t, errors.New("connection reset by peer"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"code":"INTERNAL_ERROR"`)
	assert.NotContains(t, body, "connection reset")
}
