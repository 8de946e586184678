// Package handler contains the HTTP handlers for the application.
package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"kinship/internal/delivery/http/response"
	"kinship/internal/domain/entity"
	"kinship/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// UserHandler holds dependencies for user-related handlers.
type UserHandler struct {
	uc     usecase.UserUsecase
	logger *slog.Logger
}

// NewUserHandler is the constructor for UserHandler, injected by Fx.
func NewUserHandler(uc usecase.UserUsecase, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		uc:     uc,
		logger: logger,
	}
}

// --- Request payloads ---
// Creation payloads are decoded strictly: unknown fields are rejected so a
// typo in a client payload fails loudly instead of silently dropping data.

type createParentRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name"  validate:"required"`
	UserType  string `json:"user_type"  validate:"required,eq=parent"`
	Street    string `json:"street"     validate:"required"`
	City      string `json:"city"       validate:"required"`
	State     string `json:"state"      validate:"required"`
	ZipCode   string `json:"zip_code"   validate:"required"`
}

func (r *createParentRequest) trim() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Street = strings.TrimSpace(r.Street)
	r.City = strings.TrimSpace(r.City)
	r.State = strings.TrimSpace(r.State)
	r.ZipCode = strings.TrimSpace(r.ZipCode)
}

type createChildRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name"  validate:"required"`
	UserType  string `json:"user_type"  validate:"required,eq=child"`
	ParentID  uint   `json:"parent_id"  validate:"required"`
}

func (r *createChildRequest) trim() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
}

// updatableStringFields are the recognized string-valued update keys.
var updatableStringFields = map[string]struct{}{
	usecase.FieldFirstName: {},
	usecase.FieldLastName:  {},
	usecase.FieldStreet:    {},
	usecase.FieldCity:      {},
	usecase.FieldState:     {},
	usecase.FieldZipCode:   {},
}

// --- Response payloads ---

// userResponse is the wire shape of a user. Children is a pointer so parents
// always serialize a list (possibly empty) while children omit the key.
type userResponse struct {
	ID        uint             `json:"id"`
	FirstName string           `json:"first_name"`
	LastName  string           `json:"last_name"`
	UserType  string           `json:"user_type"`
	Street    *string          `json:"street"`
	City      *string          `json:"city"`
	State     *string          `json:"state"`
	ZipCode   *string          `json:"zip_code"`
	ParentID  *uint            `json:"parent_id"`
	Children  *[]*userResponse `json:"children,omitempty"`
}

func toUserResponse(user *entity.User) *userResponse {
	resp := &userResponse{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		UserType:  user.UserType.String(),
		Street:    user.Street,
		City:      user.City,
		State:     user.State,
		ZipCode:   user.ZipCode,
		ParentID:  user.ParentID,
	}

	if user.IsParent() {
		children := make([]*userResponse, 0, len(user.Children))
		for _, child := range user.Children {
			children = append(children, toUserResponse(child))
		}
		resp.Children = &children
	}

	return resp
}

type deleteUserResponse struct {
	Message         string `json:"message"`
	DeletedUserID   uint   `json:"deleted_user_id"`
	DeletedUserType string `json:"deleted_user_type"`
	ChildrenDeleted int64  `json:"children_deleted"`
}

type deleteAllUsersResponse struct {
	Message         string `json:"message"`
	TotalDeleted    int64  `json:"total_deleted"`
	ParentsDeleted  int64  `json:"parents_deleted"`
	ChildrenDeleted int64  `json:"children_deleted"`
}

// --- Handlers ---

// ListUsers handles GET /users.
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.uc.ListUsers(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}

	resp := make([]*userResponse, 0, len(users))
	for _, user := range users {
		resp = append(resp, toUserResponse(user))
	}

	return response.Success(c, http.StatusOK, resp, "Users retrieved successfully")
}

// GetUser handles GET /users/:id.
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := parseUserID(c)
	if err != nil {
		return response.BindingError(c, "INVALID_INPUT", "user id must be a positive integer")
	}

	user, err := h.uc.GetUser(c.Request().Context(), id)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toUserResponse(user), "User retrieved successfully")
}

// CreateUser handles POST /users. The payload variant is discriminated by
// user_type, then decoded strictly against that variant's shape.
func (h *UserHandler) CreateUser(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return response.BindingError(c, "INVALID_INPUT", "failed to read request body")
	}

	var discriminator struct {
		UserType string `json:"user_type"`
	}
	if err := json.Unmarshal(body, &discriminator); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "invalid JSON payload")
	}

	switch entity.UserType(discriminator.UserType) {
	case entity.UserTypeParent:
		return h.createParent(c, body)
	case entity.UserTypeChild:
		return h.createChild(c, body)
	default:
		return response.BadRequest(c, "VALIDATION_FAILED", "user_type must be either parent or child")
	}
}

func (h *UserHandler) createParent(c echo.Context, body []byte) error {
	var req createParentRequest
	if err := decodeStrict(body, &req); err != nil {
		return response.BadRequest(c, "VALIDATION_FAILED", err.Error())
	}

	req.trim()
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.uc.CreateParent(c.Request().Context(), &usecase.CreateParentInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Street:    req.Street,
		City:      req.City,
		State:     req.State,
		ZipCode:   req.ZipCode,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, toUserResponse(user), "User created successfully")
}

func (h *UserHandler) createChild(c echo.Context, body []byte) error {
	var req createChildRequest
	if err := decodeStrict(body, &req); err != nil {
		return response.BadRequest(c, "VALIDATION_FAILED", err.Error())
	}

	req.trim()
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.uc.CreateChild(c.Request().Context(), &usecase.CreateChildInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		ParentID:  req.ParentID,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, toUserResponse(user), "User created successfully")
}

// UpdateUser handles PUT /users/:id. The payload is a sparse field map;
// recognized keys keep their JSON null distinct from absence because the
// consistency rules treat them differently.
func (h *UserHandler) UpdateUser(c echo.Context) error {
	id, err := parseUserID(c)
	if err != nil {
		return response.BindingError(c, "INVALID_INPUT", "user id must be a positive integer")
	}

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(c.Request().Body).Decode(&raw); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "invalid JSON payload")
	}

	fields, shapeErr := buildUpdateFields(raw)
	if shapeErr != "" {
		return response.BadRequest(c, "VALIDATION_FAILED", shapeErr)
	}

	user, err := h.uc.UpdateUser(c.Request().Context(), id, fields)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toUserResponse(user), "User updated successfully")
}

// buildUpdateFields shape-checks a raw update payload into the engine's field
// map. Returns a non-empty message describing the first shape violation.
func buildUpdateFields(raw map[string]json.RawMessage) (usecase.UpdateFields, string) {
	fields := make(usecase.UpdateFields, len(raw))

	for key, rawValue := range raw {
		if isJSONNull(rawValue) {
			if _, recognized := updatableStringFields[key]; !recognized && key != usecase.FieldParentID {
				return nil, unknownFieldMessage(key)
			}
			fields[key] = nil

			continue
		}

		if _, recognized := updatableStringFields[key]; recognized {
			var value string
			if err := json.Unmarshal(rawValue, &value); err != nil {
				return nil, fmt.Sprintf("field '%s' must be a string", key)
			}
			fields[key] = value

			continue
		}

		if key == usecase.FieldParentID {
			var number json.Number
			if err := json.Unmarshal(rawValue, &number); err != nil {
				return nil, "parent_id must be an integer"
			}
			parentID, err := strconv.ParseUint(number.String(), 10, 64)
			if err != nil {
				return nil, "parent_id must be a positive integer"
			}
			fields[key] = uint(parentID)

			continue
		}

		return nil, unknownFieldMessage(key)
	}

	return fields, ""
}

func unknownFieldMessage(key string) string {
	if key == "user_type" {
		return "user_type is immutable and cannot be updated"
	}

	return fmt.Sprintf("unknown field '%s'", key)
}

// DeleteUser handles DELETE /users/:id.
func (h *UserHandler) DeleteUser(c echo.Context) error {
	id, err := parseUserID(c)
	if err != nil {
		return response.BindingError(c, "INVALID_INPUT", "user id must be a positive integer")
	}

	output, err := h.uc.DeleteUser(c.Request().Context(), id)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, deleteUserResponse{
		Message:         output.Message,
		DeletedUserID:   output.DeletedUserID,
		DeletedUserType: output.DeletedUserType.String(),
		ChildrenDeleted: output.ChildrenDeleted,
	}, "User deleted successfully")
}

// DeleteAllUsers handles DELETE /users. The confirmation flag must be the
// literal query value confirm=true.
func (h *UserHandler) DeleteAllUsers(c echo.Context) error {
	confirm := c.QueryParam("confirm") == "true"

	output, err := h.uc.DeleteAllUsers(c.Request().Context(), confirm)
	if err != nil {
		return errors.WithStack(err)
	}

	if output.NothingToDelete {
		return response.Success(c, http.StatusOK, echo.Map{"message": output.Message}, "No users to delete")
	}

	return response.Success(c, http.StatusOK, deleteAllUsersResponse{
		Message:         output.Message,
		TotalDeleted:    output.TotalDeleted,
		ParentsDeleted:  output.ParentsDeleted,
		ChildrenDeleted: output.ChildrenDeleted,
	}, "All users deleted successfully")
}

// Root serves the API banner.
func Root(c echo.Context) error {
	return response.Success(c, http.StatusOK, echo.Map{
		"message": "Welcome to the User Management API",
		"version": "1.0.0",
	}, "Service information")
}

// HealthCheck is a simple handler to check if the service is up.
func HealthCheck(c echo.Context) error {
	return response.Success(c, http.StatusOK, map[string]string{"status": "ok"}, "Service is healthy")
}

// --- Helpers ---

func parseUserID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, errors.Wrap(err, "invalid user id")
	}

	return uint(id), nil
}

// decodeStrict decodes JSON rejecting unknown fields and trailing data.
func decodeStrict(body []byte, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return errors.Wrap(err, "invalid payload shape")
	}

	if dec.More() {
		return errors.New("unexpected trailing data in payload")
	}

	return nil
}

func isJSONNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}
