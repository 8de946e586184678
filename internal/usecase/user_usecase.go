// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"kinship/internal/domain/entity"
)

// Recognized update field names. The delivery layer validates payload shape
// against these before the consistency rules run; the keys double as column
// names for the record store.
const (
	FieldFirstName = "first_name"
	FieldLastName  = "last_name"
	FieldStreet    = "street"
	FieldCity      = "city"
	FieldState     = "state"
	FieldZipCode   = "zip_code"
	FieldParentID  = "parent_id"
)

// AddressFields lists the four parent-only address fields.
var AddressFields = []string{FieldStreet, FieldCity, FieldState, FieldZipCode}

// --- Input DTOs ---

// CreateParentInput defines the data required to create a parent user.
// All fields are required and already trimmed by the shape layer.
type CreateParentInput struct {
	FirstName string
	LastName  string
	Street    string
	City      string
	State     string
	ZipCode   string
}

// CreateChildInput defines the data required to create a child user.
type CreateChildInput struct {
	FirstName string
	LastName  string
	ParentID  uint
}

// UpdateFields is a sparse field-to-value mapping for a partial update.
// Key presence means the caller wants the field changed; an untyped nil value
// means the caller sent an explicit null. String fields carry string values,
// parent_id carries a uint.
type UpdateFields map[string]any

// --- Output DTOs ---

// DeleteUserOutput summarizes a single-user deletion, including the cascade.
type DeleteUserOutput struct {
	Message         string
	DeletedUserID   uint
	DeletedUserType entity.UserType
	ChildrenDeleted int64
}

// DeleteAllUsersOutput summarizes a bulk deletion. NothingToDelete marks the
// distinct empty-store outcome, in which case the counts are zero.
type DeleteAllUsersOutput struct {
	Message         string
	TotalDeleted    int64
	ParentsDeleted  int64
	ChildrenDeleted int64
	NothingToDelete bool
}

// UserUsecase defines the interface for user-related business operations.
// This is the contract that the delivery layer (e.g., API handlers) will depend on.
type UserUsecase interface {
	// ListUsers retrieves every user, with children freshly populated for parents.
	ListUsers(ctx context.Context) ([]*entity.User, error)

	// GetUser retrieves one user by ID, with children populated if it is a parent.
	GetUser(ctx context.Context, id uint) (*entity.User, error)

	// CreateParent validates and persists a new parent user.
	CreateParent(ctx context.Context, input *CreateParentInput) (*entity.User, error)

	// CreateChild validates the parent reference and persists a new child user.
	CreateChild(ctx context.Context, input *CreateChildInput) (*entity.User, error)

	// UpdateUser applies a partial update after enforcing the per-type field rules.
	UpdateUser(ctx context.Context, id uint, fields UpdateFields) (*entity.User, error)

	// DeleteUser removes a user and, for parents, all of its children in one transaction.
	DeleteUser(ctx context.Context, id uint) (*DeleteUserOutput, error)

	// DeleteAllUsers removes every user, gated behind an explicit confirmation flag.
	DeleteAllUsers(ctx context.Context, confirm bool) (*DeleteAllUsersOutput, error)
}
