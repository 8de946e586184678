package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"kinship/internal/delivery/http/validator"
	"kinship/internal/domain/entity"
	domainerrors "kinship/internal/domain/errors"
	mockUsecase "kinship/internal/mocks/usecase"
	"kinship/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type handlerFixtures struct {
	handler *UserHandler
	uc      *mockUsecase.MockUserUsecase
	echo    *echo.Echo
}

func createTestHandler(t *testing.T) handlerFixtures {
	uc := mockUsecase.NewMockUserUsecase(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	e := echo.New()
	e.Validator = validator.New()

	return handlerFixtures{
		handler: NewUserHandler(uc, logger),
		uc:      uc,
		echo:    e,
	}
}

func (f handlerFixtures) newContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()

	return f.echo.NewContext(req, rec), rec
}

func strPtr(s string) *string { return &s }

func uintPtr(u uint) *uint { return &u }

func testParentEntity() *entity.User {
	return &entity.User{
		ID:        1,
		FirstName: "John",
		LastName:  "Doe",
		UserType:  entity.UserTypeParent,
		Street:    strPtr("123 Main St"),
		City:      strPtr("Anytown"),
		State:     strPtr("CA"),
		ZipCode:   strPtr("12345"),
		Children:  []*entity.User{},
	}
}

func testChildEntity() *entity.User {
	return &entity.User{
		ID:        2,
		FirstName: "Jane",
		LastName:  "Doe",
		UserType:  entity.UserTypeChild,
		ParentID:  uintPtr(1),
	}
}

func TestUserHandler_GetUser_ParentSerializesChildrenList(t *testing.T) {
	f := createTestHandler(t)

	f.uc.EXPECT().GetUser(mock.Anything, uint(1)).Return(testParentEntity(), nil)

	c, rec := f.newContext(http.MethodGet, "/users/1", "")
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, f.handler.GetUser(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"children":[]`)
	assert.Contains(t, rec.Body.String(), `"user_type":"parent"`)
}

func TestUserHandler_GetUser_ChildOmitsChildrenKey(t *testing.T) {
	f := createTestHandler(t)

	f.uc.EXPECT().GetUser(mock.Anything, uint(2)).Return(testChildEntity(), nil)

	c, rec := f.newContext(http.MethodGet, "/users/2", "")
	c.SetParamNames("id")
	c.SetParamValues("2")

	require.NoError(t, f.handler.GetUser(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "children")
	assert.Contains(t, rec.Body.String(), `"parent_id":1`)
}

func TestUserHandler_GetUser_InvalidID(t *testing.T) {
	f := createTestHandler(t)

	c, rec := f.newContext(http.MethodGet, "/users/abc", "")
	c.SetParamNames("id")
	c.SetParamValues("abc")

	require.NoError(t, f.handler.GetUser(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_INPUT")
}

func TestUserHandler_CreateUser_ParentSuccess(t *testing.T) {
	f := createTestHandler(t)

	f.uc.EXPECT().
		CreateParent(mock.Anything, &usecase.CreateParentInput{
			FirstName: "John",
			LastName:  "Doe",
			Street:    "123 Main St",
			City:      "Anytown",
			State:     "CA",
			ZipCode:   "12345",
		}).
		Return(testParentEntity(), nil)

	body := `{
		"first_name": "  John  ",
		"last_name": "Doe",
		"user_type": "parent",
		"street": "123 Main St",
		"city": "Anytown",
		"state": "CA",
		"zip_code": "12345"
	}`
	c, rec := f.newContext(http.MethodPost, "/users", body)

	require.NoError(t, f.handler.CreateUser(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)
}

func TestUserHandler_CreateUser_ChildSuccess(t *testing.T) {
	f := createTestHandler(t)

	f.uc.EXPECT().
		CreateChild(mock.Anything, &usecase.CreateChildInput{
			FirstName: "Jane",
			LastName:  "Doe",
			ParentID:  1,
		}).
		Return(testChildEntity(), nil)

	body := `{"first_name": "Jane", "last_name": "Doe", "user_type": "child", "parent_id": 1}`
	c, rec := f.newContext(http.MethodPost, "/users", body)

	require.NoError(t, f.handler.CreateUser(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestUserHandler_CreateUser_UnknownUserType(t *testing.T) {
	f := createTestHandler(t)

	body := `{"first_name": "Jane", "last_name": "Doe", "user_type": "admin"}`
	c, rec := f.newContext(http.MethodPost, "/users", body)

	require.NoError(t, f.handler.CreateUser(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "user_type must be either parent or child")
}

func TestUserHandler_CreateUser_ChildWithAddressFieldRejected(t *testing.T) {
	f := createTestHandler(t)

	// street is not part of the child payload shape.
	body := `{"first_name": "Jane", "last_name": "Doe", "user_type": "child", "parent_id": 1, "street": "123 Main St"}`
	c, rec := f.newContext(http.MethodPost, "/users", body)

	require.NoError(t, f.handler.CreateUser(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_FAILED")
}

func TestUserHandler_CreateUser_UnknownFieldRejected(t *testing.T) {
	f := createTestHandler(t)

	body := `{"first_name": "John", "last_name": "Doe", "user_type": "parent", "street": "s", "city": "c", "state": "st", "zip_code": "z", "nickname": "JD"}`
	c, rec := f.newContext(http.MethodPost, "/users", body)

	require.NoError(t, f.handler.CreateUser(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_FAILED")
}

func TestUserHandler_CreateUser_MissingRequiredFieldFailsValidation(t *testing.T) {
	f := createTestHandler(t)

	body := `{"first_name": "John", "last_name": "Doe", "user_type": "parent", "city": "c", "state": "st", "zip_code": "z"}`
	c, _ := f.newContext(http.MethodPost, "/users", body)

	err := f.handler.CreateUser(c)
	require.Error(t, err)

	var appErr domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.HTTPCode())
	assert.Equal(t, "VALIDATION_FAILED", appErr.ErrorCode())
	assert.Contains(t, appErr.Details(), "street is required")
}

func TestUserHandler_CreateUser_WhitespaceOnlyNameFailsValidation(t *testing.T) {
	f := createTestHandler(t)

	body := `{"first_name": "   ", "last_name": "Doe", "user_type": "parent", "street": "s", "city": "c", "state": "st", "zip_code": "z"}`
	c, _ := f.newContext(http.MethodPost, "/users", body)

	err := f.handler.CreateUser(c)
	require.Error(t, err)

	var appErr domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_FAILED", appErr.ErrorCode())
	assert.Contains(t, appErr.Details(), "first_name is required")
	assert.NotContains(t, appErr.Details(), "createParentRequest")
}

func TestUserHandler_UpdateUser_BuildsSparseFieldMap(t *testing.T) {
	f := createTestHandler(t)

	f.uc.EXPECT().
		UpdateUser(mock.Anything, uint(2), usecase.UpdateFields{
			"first_name": "Janet",
			"parent_id":  uint(5),
		}).
		Return(testChildEntity(), nil)

	body := `{"first_name": "Janet", "parent_id": 5}`
	c, rec := f.newContext(http.MethodPut, "/users/2", body)
	c.SetParamNames("id")
	c.SetParamValues("2")

	require.NoError(t, f.handler.UpdateUser(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUserHandler_UpdateUser_NullKeptDistinctFromAbsence(t *testing.T) {
	f := createTestHandler(t)

	f.uc.EXPECT().
		UpdateUser(mock.Anything, uint(2), usecase.UpdateFields{
			"street": nil,
		}).
		Return(testChildEntity(), nil)

	body := `{"street": null}`
	c, rec := f.newContext(http.MethodPut, "/users/2", body)
	c.SetParamNames("id")
	c.SetParamValues("2")

	require.NoError(t, f.handler.UpdateUser(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUserHandler_UpdateUser_UserTypeImmutable(t *testing.T) {
	f := createTestHandler(t)

	body := `{"user_type": "parent"}`
	c, rec := f.newContext(http.MethodPut, "/users/2", body)
	c.SetParamNames("id")
	c.SetParamValues("2")

	require.NoError(t, f.handler.UpdateUser(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "user_type is immutable")
}

func TestUserHandler_UpdateUser_UnknownFieldRejected(t *testing.T) {
	f := createTestHandler(t)

	body := `{"nickname": "JD"}`
	c, rec := f.newContext(http.MethodPut, "/users/2", body)
	c.SetParamNames("id")
	c.SetParamValues("2")

	require.NoError(t, f.handler.UpdateUser(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown field 'nickname'")
}

func TestUserHandler_UpdateUser_NonStringValueRejected(t *testing.T) {
	f := createTestHandler(t)

	body := `{"first_name": 42}`
	c, rec := f.newContext(http.MethodPut, "/users/2", body)
	c.SetParamNames("id")
	c.SetParamValues("2")

	require.NoError(t, f.handler.UpdateUser(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "must be a string")
}

func TestUserHandler_UpdateUser_NegativeParentIDRejected(t *testing.T) {
	f := createTestHandler(t)

	body := `{"parent_id": -1}`
	c, rec := f.newContext(http.MethodPut, "/users/2", body)
	c.SetParamNames("id")
	c.SetParamValues("2")

	require.NoError(t, f.handler.UpdateUser(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "parent_id must be a positive integer")
}

func TestUserHandler_UpdateUser_UsecaseErrorIsPropagated(t *testing.T) {
	f := createTestHandler(t)

	f.uc.EXPECT().
		UpdateUser(mock.Anything, uint(2), usecase.UpdateFields{"first_name": "Janet"}).
		Return(nil, domainerrors.ErrEmptyUpdate)

	body := `{"first_name": "Janet"}`
	c, _ := f.newContext(http.MethodPut, "/users/2", body)
	c.SetParamNames("id")
	c.SetParamValues("2")

	err := f.handler.UpdateUser(c)
	require.Error(t, err)

	var appErr domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "EMPTY_UPDATE", appErr.ErrorCode())
}

func TestUserHandler_DeleteUser_SummaryPayload(t *testing.T) {
	f := createTestHandler(t)

	f.uc.EXPECT().
		DeleteUser(mock.Anything, uint(1)).
		Return(&usecase.DeleteUserOutput{
			Message:         "User 'John Doe' (ID: 1) deleted successfully along with 2 child user(s)",
			DeletedUserID:   1,
			DeletedUserType: entity.UserTypeParent,
			ChildrenDeleted: 2,
		}, nil)

	c, rec := f.newContext(http.MethodDelete, "/users/1", "")
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, f.handler.DeleteUser(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"deleted_user_id":1`)
	assert.Contains(t, rec.Body.String(), `"deleted_user_type":"parent"`)
	assert.Contains(t, rec.Body.String(), `"children_deleted":2`)
}

func TestUserHandler_DeleteAllUsers_ConfirmFlagParsing(t *testing.T) {
	f := createTestHandler(t)

	f.uc.EXPECT().
		DeleteAllUsers(mock.Anything, true).
		Return(&usecase.DeleteAllUsersOutput{
			Message:         "All users deleted successfully",
			TotalDeleted:    3,
			ParentsDeleted:  1,
			ChildrenDeleted: 2,
		}, nil)

	c, rec := f.newContext(http.MethodDelete, "/users?confirm=true", "")

	require.NoError(t, f.handler.DeleteAllUsers(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_deleted":3`)
}

func TestUserHandler_DeleteAllUsers_MissingConfirmPassedAsFalse(t *testing.T) {
	f := createTestHandler(t)

	f.uc.EXPECT().
		DeleteAllUsers(mock.Anything, false).
		Return(nil, domainerrors.ErrConfirmationRequired)

	c, _ := f.newContext(http.MethodDelete, "/users", "")

	err := f.handler.DeleteAllUsers(c)
	require.Error(t, err)

	var appErr domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "CONFIRMATION_REQUIRED", appErr.ErrorCode())
}

func TestUserHandler_DeleteAllUsers_EmptyStore(t *testing.T) {
	f := createTestHandler(t)

	f.uc.EXPECT().
		DeleteAllUsers(mock.Anything, true).
		Return(&usecase.DeleteAllUsersOutput{
			Message:         "No users found to delete",
			NothingToDelete: true,
		}, nil)

	c, rec := f.newContext(http.MethodDelete, "/users?confirm=true", "")

	require.NoError(t, f.handler.DeleteAllUsers(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No users found to delete")
	assert.NotContains(t, rec.Body.String(), "total_deleted")
}

func TestUserHandler_ListUsers_SerializesBothVariants(t *testing.T) {
	f := createTestHandler(t)

	parent := testParentEntity()
	child := testChildEntity()
	parent.Children = []*entity.User{child}

	f.uc.EXPECT().ListUsers(mock.Anything).Return([]*entity.User{parent, child}, nil)

	c, rec := f.newContext(http.MethodGet, "/users", "")

	require.NoError(t, f.handler.ListUsers(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `"user_type":"parent"`)
	assert.Contains(t, body, `"user_type":"child"`)
	assert.Contains(t, body, `"children":[{`)
}

func TestUserHandler_ListUsers_EmptyStore(t *testing.T) {
	f := createTestHandler(t)

	f.uc.EXPECT().ListUsers(mock.Anything).Return([]*entity.User{}, nil)

	c, rec := f.newContext(http.MethodGet, "/users", "")

	require.NoError(t, f.handler.ListUsers(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)
	assert.NotContains(t, rec.Body.String(), `"error"`)
}
