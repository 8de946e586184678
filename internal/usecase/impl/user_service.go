// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"fmt"
	"log/slog"

	deliverycontext "kinship/internal/delivery/context"
	"kinship/internal/domain/entity"
	domainerrors "kinship/internal/domain/errors"
	"kinship/internal/domain/repository"
	"kinship/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// userService implements the UserUsecase interface. It is the consistency
// engine that keeps the parent/child rules true across every mutation:
// parents never reference a parent, children always reference an existing
// parent and never carry address fields, and a user's type never changes.
type userService struct {
	txManager repository.TransactionManager
	userRepo  repository.UserRepository
	logger    *slog.Logger
}

// UserServiceParams holds dependencies for the user service, injected by Fx.
type UserServiceParams struct {
	fx.In

	TxManager repository.TransactionManager
	UserRepo  repository.UserRepository
	Logger    *slog.Logger
}

// NewUserService is the constructor for userService. It receives all dependencies as interfaces.
func NewUserService(params UserServiceParams) usecase.UserUsecase {
	return &userService{
		txManager: params.TxManager,
		userRepo:  params.UserRepo,
		logger:    params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *userService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// ListUsers retrieves every user and assembles children for parents from the
// same snapshot. Assembly attaches one level only: entries in a parent's
// children list never carry their own children.
func (srv *userService) ListUsers(ctx context.Context) ([]*entity.User, error) {
	users, err := srv.userRepo.FindAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list users")
	}

	childrenByParent := make(map[uint][]*entity.User)
	for _, user := range users {
		if user.ParentID != nil {
			childrenByParent[*user.ParentID] = append(childrenByParent[*user.ParentID], user)
		}
	}

	for _, user := range users {
		if user.IsParent() {
			children := childrenByParent[user.ID]
			if children == nil {
				children = []*entity.User{}
			}
			user.Children = children
		}
	}

	return users, nil
}

// GetUser retrieves one user by ID. Children are queried fresh for parents.
func (srv *userService) GetUser(ctx context.Context, id uint) (*entity.User, error) {
	user, err := srv.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, domainerrors.ErrUserNotFound.WithDetails(fmt.Sprintf("user with id %d not found", id))
		}

		return nil, errors.Wrap(err, "failed to find user by id")
	}

	if err := srv.attachChildren(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// CreateParent persists a new parent user. The shape layer has already
// guaranteed all required fields are non-empty after trimming.
func (srv *userService) CreateParent(ctx context.Context, input *usecase.CreateParentInput) (*entity.User, error) {
	user := &entity.User{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		UserType:  entity.UserTypeParent,
		Street:    &input.Street,
		City:      &input.City,
		State:     &input.State,
		ZipCode:   &input.ZipCode,
	}

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		return repoFactory.UserRepo().Create(ctx, user)
	})
	if err != nil {
		srv.log(ctx).Error("Failed to create parent user", slog.Any("error", err))

		return nil, err
	}

	// A new parent has no children yet.
	user.Children = []*entity.User{}

	srv.log(ctx).Info("Parent user created", slog.Uint64("userID", uint64(user.ID)))

	return user, nil
}

// CreateChild verifies the parent reference inside the same transaction as the
// insert, then persists the child. The lookup-then-insert pair is best effort
// against a concurrent parent deletion; the record store's foreign key backstop
// surfaces the same REFERENCE_NOT_FOUND when it fires.
func (srv *userService) CreateChild(ctx context.Context, input *usecase.CreateChildInput) (*entity.User, error) {
	parentID := input.ParentID
	user := &entity.User{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		UserType:  entity.UserTypeChild,
		ParentID:  &parentID,
	}

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()

		if err := srv.checkParentReference(ctx, userRepo, parentID); err != nil {
			return err
		}

		return userRepo.Create(ctx, user)
	})
	if err != nil {
		srv.log(ctx).Warn("Failed to create child user",
			slog.Uint64("parentID", uint64(parentID)),
			slog.Any("error", err),
		)

		return nil, err
	}

	srv.log(ctx).Info("Child user created",
		slog.Uint64("userID", uint64(user.ID)),
		slog.Uint64("parentID", uint64(parentID)),
	)

	return user, nil
}

// UpdateUser enforces the per-type field rules against the user's current,
// immutable type and applies only the surviving fields.
func (srv *userService) UpdateUser(ctx context.Context, id uint, fields usecase.UpdateFields) (*entity.User, error) {
	var updated *entity.User

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()

		current, err := userRepo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return domainerrors.ErrUserNotFound.WithDetails(fmt.Sprintf("user with id %d not found", id))
			}

			return errors.Wrap(err, "failed to find user by id")
		}

		changes, err := srv.resolveUpdateFields(ctx, userRepo, current, fields)
		if err != nil {
			return err
		}

		updated, err = userRepo.Update(ctx, id, changes)
		if err != nil {
			return errors.Wrap(err, "failed to update user")
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := srv.attachChildren(ctx, updated); err != nil {
		return nil, err
	}

	srv.log(ctx).Info("User updated", slog.Uint64("userID", uint64(id)))

	return updated, nil
}

// resolveUpdateFields turns the sparse update mapping into the column map the
// record store applies. Rule ordering matters:
//  1. A child touching any address field fails, even with an explicit null.
//  2. Remaining explicit nulls are dropped, they are not changes.
//  3. Nothing left to change is an empty update.
//  4. A parent being assigned a non-null parent_id fails.
//  5. A child's new parent_id must resolve to an existing parent user.
func (srv *userService) resolveUpdateFields(
	ctx context.Context,
	userRepo repository.UserRepository,
	current *entity.User,
	fields usecase.UpdateFields,
) (map[string]any, error) {
	if !current.IsParent() {
		for _, field := range usecase.AddressFields {
			if _, present := fields[field]; present {
				return nil, domainerrors.ErrInvalidField.WithDetails(
					fmt.Sprintf("child users cannot have address field: '%s'", field))
			}
		}
	}

	changes := make(map[string]any, len(fields))
	for field, value := range fields {
		if value != nil {
			changes[field] = value
		}
	}

	if len(changes) == 0 {
		return nil, domainerrors.ErrEmptyUpdate
	}

	if newParentID, present := changes[usecase.FieldParentID]; present {
		if current.IsParent() {
			return nil, domainerrors.ErrInvalidField.WithDetails("parent users cannot have a parent_id")
		}

		parentID, ok := newParentID.(uint)
		if !ok {
			return nil, domainerrors.ErrValidationFailed.WithDetails("parent_id must be an integer")
		}

		if err := srv.checkParentReference(ctx, userRepo, parentID); err != nil {
			return nil, err
		}
	}

	return changes, nil
}

// checkParentReference resolves a parent_id and enforces both existence and
// type integrity of the referenced user.
func (srv *userService) checkParentReference(ctx context.Context, userRepo repository.UserRepository, parentID uint) error {
	parent, err := userRepo.FindByID(ctx, parentID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return domainerrors.ErrParentNotFound.WithDetails(
				fmt.Sprintf("parent user with id %d not found", parentID))
		}

		return errors.Wrap(err, "failed to look up referenced parent")
	}

	if !parent.IsParent() {
		return domainerrors.ErrParentTypeMismatch.WithDetails(
			fmt.Sprintf("user %d has user type '%s'", parentID, parent.UserType))
	}

	return nil
}

// DeleteUser removes a user and, if it is a parent, every user referencing it,
// atomically as one transaction. The child count is snapshotted before the
// deletes so the summary reflects exactly what the cascade removed.
func (srv *userService) DeleteUser(ctx context.Context, id uint) (*usecase.DeleteUserOutput, error) {
	var output *usecase.DeleteUserOutput

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()

		target, err := userRepo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return domainerrors.ErrUserNotFound.WithDetails(fmt.Sprintf("user with id %d not found", id))
			}

			return errors.Wrap(err, "failed to find user by id")
		}

		var childrenCount int64
		if target.IsParent() {
			childrenCount, err = userRepo.CountChildren(ctx, id)
			if err != nil {
				return errors.Wrap(err, "failed to count children")
			}

			if _, err := userRepo.DeleteChildren(ctx, id); err != nil {
				return errors.Wrap(err, "failed to delete children")
			}
		}

		if err := userRepo.Delete(ctx, id); err != nil {
			return errors.Wrap(err, "failed to delete user")
		}

		message := fmt.Sprintf("User '%s' (ID: %d) deleted successfully", target.FullName(), id)
		if target.IsParent() && childrenCount > 0 {
			message += fmt.Sprintf(" along with %d child user(s)", childrenCount)
		}

		output = &usecase.DeleteUserOutput{
			Message:         message,
			DeletedUserID:   id,
			DeletedUserType: target.UserType,
			ChildrenDeleted: childrenCount,
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	srv.log(ctx).Info("User deleted",
		slog.Uint64("userID", uint64(id)),
		slog.String("userType", output.DeletedUserType.String()),
		slog.Int64("childrenDeleted", output.ChildrenDeleted),
	)

	return output, nil
}

// DeleteAllUsers destroys every user in the store after an explicit
// confirmation. Counts are snapshotted inside the same transaction that
// deletes, and an already-empty store short-circuits with a distinct outcome.
func (srv *userService) DeleteAllUsers(ctx context.Context, confirm bool) (*usecase.DeleteAllUsersOutput, error) {
	if !confirm {
		return nil, domainerrors.ErrConfirmationRequired
	}

	var output *usecase.DeleteAllUsersOutput

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()

		total, err := userRepo.Count(ctx)
		if err != nil {
			return errors.Wrap(err, "failed to count users")
		}

		if total == 0 {
			output = &usecase.DeleteAllUsersOutput{
				Message:         "No users found to delete",
				NothingToDelete: true,
			}

			return nil
		}

		parents, err := userRepo.CountByType(ctx, entity.UserTypeParent)
		if err != nil {
			return errors.Wrap(err, "failed to count parent users")
		}

		children, err := userRepo.CountByType(ctx, entity.UserTypeChild)
		if err != nil {
			return errors.Wrap(err, "failed to count child users")
		}

		if _, err := userRepo.DeleteAll(ctx); err != nil {
			return errors.Wrap(err, "failed to delete all users")
		}

		output = &usecase.DeleteAllUsersOutput{
			Message:         "All users deleted successfully",
			TotalDeleted:    total,
			ParentsDeleted:  parents,
			ChildrenDeleted: children,
		}

		return nil
	})
	if err != nil {
		srv.log(ctx).Error("Failed to delete all users", slog.Any("error", err))

		return nil, err
	}

	if !output.NothingToDelete {
		srv.log(ctx).Info("All users deleted",
			slog.Int64("totalDeleted", output.TotalDeleted),
			slog.Int64("parentsDeleted", output.ParentsDeleted),
			slog.Int64("childrenDeleted", output.ChildrenDeleted),
		)
	}

	return output, nil
}

// attachChildren populates the derived children list for a parent user with a
// fresh query. Attached children are leaves: their own Children stays nil.
func (srv *userService) attachChildren(ctx context.Context, user *entity.User) error {
	if !user.IsParent() {
		return nil
	}

	children, err := srv.userRepo.FindChildren(ctx, user.ID)
	if err != nil {
		return errors.Wrap(err, "failed to find children")
	}

	if children == nil {
		children = []*entity.User{}
	}
	user.Children = children

	return nil
}
