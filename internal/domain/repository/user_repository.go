// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"kinship/internal/domain/entity"
)

// ErrUserNotFound is a repository-level sentinel returned when a user row is absent.
var ErrUserNotFound = errors.New("user not found")

// UserRepository defines the record-store operations over the single users
// table. The consistency engine depends on this interface, not the concrete
// implementation, and runs every mutation through a transaction-bound instance.
type UserRepository interface {
	// Create persists a new user and fills in its store-generated ID.
	Create(ctx context.Context, user *entity.User) error

	// FindByID retrieves a single user by its unique ID.
	FindByID(ctx context.Context, id uint) (*entity.User, error)

	// FindAll retrieves every user in the store.
	FindAll(ctx context.Context) ([]*entity.User, error)

	// FindChildren retrieves all users whose parent_id equals parentID.
	FindChildren(ctx context.Context, parentID uint) ([]*entity.User, error)

	// CountChildren counts the users whose parent_id equals parentID.
	CountChildren(ctx context.Context, parentID uint) (int64, error)

	// Count counts all users.
	Count(ctx context.Context) (int64, error)

	// CountByType counts the users of the given type.
	CountByType(ctx context.Context, userType entity.UserType) (int64, error)

	// Update applies the given column-value map to the user with the given ID
	// and returns the updated user.
	Update(ctx context.Context, id uint, fields map[string]any) (*entity.User, error)

	// Delete removes the user with the given ID.
	Delete(ctx context.Context, id uint) error

	// DeleteChildren removes all users whose parent_id equals parentID and
	// returns the number of rows removed.
	DeleteChildren(ctx context.Context, parentID uint) (int64, error)

	// DeleteAll removes every user and returns the number of rows removed.
	DeleteAll(ctx context.Context) (int64, error)
}
