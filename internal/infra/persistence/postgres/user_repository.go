// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"

	"kinship/internal/domain/entity"
	domainerrors "kinship/internal/domain/errors"
	"kinship/internal/domain/repository"
	"kinship/internal/infra/persistence/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// userRepository implements the repository.UserRepository interface using GORM.
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository is the constructor for userRepository.
// It returns the repository as a repository.UserRepository interface, adhering to dependency inversion.
func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepository{
		db: db,
	}
}

// Create persists a new user row and fills in the generated ID.
// A foreign key violation on parent_id means the referenced parent vanished
// between the engine's existence check and the insert; it surfaces as the same
// reference error the check itself would have produced.
func (repo *userRepository) Create(ctx context.Context, user *entity.User) error {
	userM := fromUserDomain(user)

	if err := repo.db.WithContext(ctx).Create(userM).Error; err != nil {
		return translateWriteError(err, "failed to create user")
	}

	user.ID = userM.ID

	return nil
}

// FindByID retrieves a single user by its unique ID.
func (repo *userRepository) FindByID(ctx context.Context, id uint) (*entity.User, error) {
	var userM model.UserModel

	if err := repo.db.WithContext(ctx).
		Where("id = ?", id).
		First(&userM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}

		return nil, errors.Wrap(err, "failed to find user by ID")
	}

	return toUserDomain(&userM), nil
}

// FindAll retrieves every user ordered by ID.
func (repo *userRepository) FindAll(ctx context.Context) ([]*entity.User, error) {
	var userModels []*model.UserModel

	if err := repo.db.WithContext(ctx).
		Order("id ASC").
		Find(&userModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list users")
	}

	users := make([]*entity.User, 0, len(userModels))
	for _, userM := range userModels {
		users = append(users, toUserDomain(userM))
	}

	return users, nil
}

// FindChildren retrieves all users whose parent_id equals parentID.
func (repo *userRepository) FindChildren(ctx context.Context, parentID uint) ([]*entity.User, error) {
	var userModels []*model.UserModel

	if err := repo.db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("id ASC").
		Find(&userModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find children")
	}

	children := make([]*entity.User, 0, len(userModels))
	for _, userM := range userModels {
		children = append(children, toUserDomain(userM))
	}

	return children, nil
}

// CountChildren counts the users whose parent_id equals parentID.
func (repo *userRepository) CountChildren(ctx context.Context, parentID uint) (int64, error) {
	var count int64

	if err := repo.db.WithContext(ctx).
		Model(&model.UserModel{}).
		Where("parent_id = ?", parentID).
		Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, "failed to count children")
	}

	return count, nil
}

// Count counts all users.
func (repo *userRepository) Count(ctx context.Context) (int64, error) {
	var count int64

	if err := repo.db.WithContext(ctx).
		Model(&model.UserModel{}).
		Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, "failed to count users")
	}

	return count, nil
}

// CountByType counts the users of the given type.
func (repo *userRepository) CountByType(ctx context.Context, userType entity.UserType) (int64, error) {
	var count int64

	if err := repo.db.WithContext(ctx).
		Model(&model.UserModel{}).
		Where("user_type = ?", userType.String()).
		Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, "failed to count users by type")
	}

	return count, nil
}

// Update applies the given column-value map to a single row and reads the row
// back so the caller sees exactly what the store persisted.
func (repo *userRepository) Update(ctx context.Context, id uint, fields map[string]any) (*entity.User, error) {
	if err := repo.db.WithContext(ctx).
		Model(&model.UserModel{}).
		Where("id = ?", id).
		Updates(fields).Error; err != nil {
		return nil, translateWriteError(err, "failed to update user")
	}

	return repo.FindByID(ctx, id)
}

// Delete removes the user with the given ID.
func (repo *userRepository) Delete(ctx context.Context, id uint) error {
	result := repo.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.UserModel{})

	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to delete user")
	}

	// If no rows were affected, the user was not found.
	if result.RowsAffected == 0 {
		return repository.ErrUserNotFound
	}

	return nil
}

// DeleteChildren removes all users whose parent_id equals parentID.
func (repo *userRepository) DeleteChildren(ctx context.Context, parentID uint) (int64, error) {
	result := repo.db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Delete(&model.UserModel{})

	if result.Error != nil {
		return 0, domainerrors.NewDatabaseExecuteError(result.Error, "failed to delete children")
	}

	return result.RowsAffected, nil
}

// DeleteAll removes every user. Children go first so the self-referencing
// foreign key never sees a dangling parent_id mid-statement.
func (repo *userRepository) DeleteAll(ctx context.Context) (int64, error) {
	children := repo.db.WithContext(ctx).
		Where("parent_id IS NOT NULL").
		Delete(&model.UserModel{})
	if children.Error != nil {
		return 0, domainerrors.NewDatabaseExecuteError(children.Error, "failed to delete child users")
	}

	rest := repo.db.WithContext(ctx).
		Where("1 = 1").
		Delete(&model.UserModel{})
	if rest.Error != nil {
		return children.RowsAffected, domainerrors.NewDatabaseExecuteError(rest.Error, "failed to delete users")
	}

	return children.RowsAffected + rest.RowsAffected, nil
}

// --- Mapper Functions ---
// These helpers convert between domain entities and persistence models.

// toUserDomain converts a GORM UserModel to a domain User entity.
func toUserDomain(data *model.UserModel) *entity.User {
	if data == nil {
		return nil
	}

	return &entity.User{
		ID:        data.ID,
		FirstName: data.FirstName,
		LastName:  data.LastName,
		UserType:  entity.UserType(data.UserType),
		Street:    data.Street,
		City:      data.City,
		State:     data.State,
		ZipCode:   data.ZipCode,
		ParentID:  data.ParentID,
	}
}

// fromUserDomain converts a domain User entity to a GORM UserModel for persistence.
func fromUserDomain(data *entity.User) *model.UserModel {
	if data == nil {
		return nil
	}

	return &model.UserModel{
		ID:        data.ID,
		FirstName: data.FirstName,
		LastName:  data.LastName,
		UserType:  data.UserType.String(),
		Street:    data.Street,
		City:      data.City,
		State:     data.State,
		ZipCode:   data.ZipCode,
		ParentID:  data.ParentID,
	}
}
