package impl

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"kinship/internal/domain/entity"
	"kinship/internal/domain/repository"
	mockRepo "kinship/internal/mocks/repository"
	"kinship/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// userServiceFixtures holds all test dependencies for user service tests.
type userServiceFixtures struct {
	service   usecase.UserUsecase
	txManager *mockRepo.MockTransactionManager
	userRepo  *mockRepo.MockUserRepository
}

func createTestUserService(t *testing.T) userServiceFixtures {
	txManager := mockRepo.NewMockTransactionManager(t)
	userRepo := mockRepo.NewMockUserRepository(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	service := NewUserService(UserServiceParams{
		TxManager: txManager,
		UserRepo:  userRepo,
		Logger:    logger,
	})

	return userServiceFixtures{
		service:   service,
		txManager: txManager,
		userRepo:  userRepo,
	}
}

// expectTransaction makes the transaction manager run the given function
// against a factory backed by the supplied transactional repository mock.
func expectTransaction(t *testing.T, fx userServiceFixtures, txRepo *mockRepo.MockUserRepository) {
	fx.txManager.EXPECT().
		Execute(mock.Anything, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			factory := mockRepo.NewMockRepositoryFactory(t)
			factory.EXPECT().UserRepo().Return(txRepo)

			return fn(factory)
		})
}

func strPtr(s string) *string { return &s }

func uintPtr(u uint) *uint { return &u }

func testParent(id uint) *entity.User {
	return &entity.User{
		ID:        id,
		FirstName: "John",
		LastName:  "Doe",
		UserType:  entity.UserTypeParent,
		Street:    strPtr("123 Main St"),
		City:      strPtr("Anytown"),
		State:     strPtr("CA"),
		ZipCode:   strPtr("12345"),
	}
}

func testChild(id uint, parentID uint) *entity.User {
	return &entity.User{
		ID:        id,
		FirstName: "Jane",
		LastName:  "Doe",
		UserType:  entity.UserTypeChild,
		ParentID:  uintPtr(parentID),
	}
}

func TestUserService_CreateParent_Success(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()

	txRepo := mockRepo.NewMockUserRepository(t)
	txRepo.EXPECT().
		Create(ctx, mock.AnythingOfType("*entity.User")).
		Run(func(ctx context.Context, user *entity.User) {
			user.ID = 1
		}).
		Return(nil)
	expectTransaction(t, fx, txRepo)

	user, err := fx.service.CreateParent(ctx, &usecase.CreateParentInput{
		FirstName: "John",
		LastName:  "Doe",
		Street:    "123 Main St",
		City:      "Anytown",
		State:     "CA",
		ZipCode:   "12345",
	})

	require.NoError(t, err)
	assert.Equal(t, uint(1), user.ID)
	assert.Equal(t, entity.UserTypeParent, user.UserType)
	assert.Nil(t, user.ParentID)
	require.NotNil(t, user.Street)
	assert.Equal(t, "123 Main St", *user.Street)
	require.NotNil(t, user.Children)
	assert.Empty(t, user.Children)
}

func TestUserService_CreateChild_Success(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()

	txRepo := mockRepo.NewMockUserRepository(t)
	txRepo.EXPECT().
		FindByID(ctx, uint(1)).
		Return(testParent(1), nil)
	txRepo.EXPECT().
		Create(ctx, mock.AnythingOfType("*entity.User")).
		Run(func(ctx context.Context, user *entity.User) {
			user.ID = 2
		}).
		Return(nil)
	expectTransaction(t, fx, txRepo)

	user, err := fx.service.CreateChild(ctx, &usecase.CreateChildInput{
		FirstName: "Jane",
		LastName:  "Doe",
		ParentID:  1,
	})

	require.NoError(t, err)
	assert.Equal(t, uint(2), user.ID)
	assert.Equal(t, entity.UserTypeChild, user.UserType)
	require.NotNil(t, user.ParentID)
	assert.Equal(t, uint(1), *user.ParentID)
	assert.Nil(t, user.Street)
	assert.Nil(t, user.Children)
}

func TestUserService_GetUser_ParentWithChildren(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()

	fx.userRepo.EXPECT().
		FindByID(ctx, uint(1)).
		Return(testParent(1), nil)
	fx.userRepo.EXPECT().
		FindChildren(ctx, uint(1)).
		Return([]*entity.User{testChild(2, 1)}, nil)

	user, err := fx.service.GetUser(ctx, 1)

	require.NoError(t, err)
	require.Len(t, user.Children, 1)
	assert.Equal(t, uint(2), user.Children[0].ID)
}

func TestUserService_GetUser_ChildHasNoChildrenList(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()

	fx.userRepo.EXPECT().
		FindByID(ctx, uint(2)).
		Return(testChild(2, 1), nil)

	user, err := fx.service.GetUser(ctx, 2)

	require.NoError(t, err)
	assert.Nil(t, user.Children)
}

func TestUserService_ListUsers_GroupsChildrenUnderParents(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()

	childless := testParent(3)
	childless.FirstName = "Mary"

	fx.userRepo.EXPECT().
		FindAll(ctx).
		Return([]*entity.User{testParent(1), testChild(2, 1), childless}, nil)

	users, err := fx.service.ListUsers(ctx)

	require.NoError(t, err)
	require.Len(t, users, 3)

	require.Len(t, users[0].Children, 1)
	assert.Equal(t, uint(2), users[0].Children[0].ID)

	// Children entries are leaves of the assembly.
	assert.Nil(t, users[1].Children)

	// A parent without children still gets an empty list, not nil.
	require.NotNil(t, users[2].Children)
	assert.Empty(t, users[2].Children)
}

func TestUserService_UpdateUser_Success(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()

	updated := testParent(1)
	updated.FirstName = "Johnny"

	txRepo := mockRepo.NewMockUserRepository(t)
	txRepo.EXPECT().
		FindByID(ctx, uint(1)).
		Return(testParent(1), nil)
	txRepo.EXPECT().
		Update(ctx, uint(1), map[string]interface{}{"first_name": "Johnny"}).
		Return(updated, nil)
	expectTransaction(t, fx, txRepo)

	fx.userRepo.EXPECT().
		FindChildren(ctx, uint(1)).
		Return(nil, nil)

	user, err := fx.service.UpdateUser(ctx, 1, usecase.UpdateFields{
		"first_name": "Johnny",
	})

	require.NoError(t, err)
	assert.Equal(t, "Johnny", user.FirstName)
	require.NotNil(t, user.Children)
	assert.Empty(t, user.Children)
}

func TestUserService_UpdateUser_ChildReassignedToNewParent(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()

	updated := testChild(2, 3)

	txRepo := mockRepo.NewMockUserRepository(t)
	txRepo.EXPECT().
		FindByID(ctx, uint(2)).
		Return(testChild(2, 1), nil)
	txRepo.EXPECT().
		FindByID(ctx, uint(3)).
		Return(testParent(3), nil)
	txRepo.EXPECT().
		Update(ctx, uint(2), map[string]interface{}{"parent_id": uint(3)}).
		Return(updated, nil)
	expectTransaction(t, fx, txRepo)

	user, err := fx.service.UpdateUser(ctx, 2, usecase.UpdateFields{
		"parent_id": uint(3),
	})

	require.NoError(t, err)
	require.NotNil(t, user.ParentID)
	assert.Equal(t, uint(3), *user.ParentID)
}

func TestUserService_DeleteUser_ParentCascadesToChildren(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()

	txRepo := mockRepo.NewMockUserRepository(t)
	txRepo.EXPECT().
		FindByID(ctx, uint(1)).
		Return(testParent(1), nil)
	txRepo.EXPECT().
		CountChildren(ctx, uint(1)).
		Return(int64(2), nil)
	txRepo.EXPECT().
		DeleteChildren(ctx, uint(1)).
		Return(int64(2), nil)
	txRepo.EXPECT().
		Delete(ctx, uint(1)).
		Return(nil)
	expectTransaction(t, fx, txRepo)

	output, err := fx.service.DeleteUser(ctx, 1)

	require.NoError(t, err)
	assert.Equal(t, uint(1), output.DeletedUserID)
	assert.Equal(t, entity.UserTypeParent, output.DeletedUserType)
	assert.Equal(t, int64(2), output.ChildrenDeleted)
	assert.Equal(t, "User 'John Doe' (ID: 1) deleted successfully along with 2 child user(s)", output.Message)
}

func TestUserService_DeleteUser_ChildDeletesOnlyItself(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()

	txRepo := mockRepo.NewMockUserRepository(t)
	txRepo.EXPECT().
		FindByID(ctx, uint(2)).
		Return(testChild(2, 1), nil)
	txRepo.EXPECT().
		Delete(ctx, uint(2)).
		Return(nil)
	expectTransaction(t, fx, txRepo)

	output, err := fx.service.DeleteUser(ctx, 2)

	require.NoError(t, err)
	assert.Equal(t, entity.UserTypeChild, output.DeletedUserType)
	assert.Equal(t, int64(0), output.ChildrenDeleted)
	assert.Equal(t, "User 'Jane Doe' (ID: 2) deleted successfully", output.Message)
}

func TestUserService_DeleteUser_ChildlessParentMessageHasNoSuffix(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()

	txRepo := mockRepo.NewMockUserRepository(t)
	txRepo.EXPECT().
		FindByID(ctx, uint(1)).
		Return(testParent(1), nil)
	txRepo.EXPECT().
		CountChildren(ctx, uint(1)).
		Return(int64(0), nil)
	txRepo.EXPECT().
		DeleteChildren(ctx, uint(1)).
		Return(int64(0), nil)
	txRepo.EXPECT().
		Delete(ctx, uint(1)).
		Return(nil)
	expectTransaction(t, fx, txRepo)

	output, err := fx.service.DeleteUser(ctx, 1)

	require.NoError(t, err)
	assert.Equal(t, "User 'John Doe' (ID: 1) deleted successfully", output.Message)
}

func TestUserService_DeleteAllUsers_Success(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()

	txRepo := mockRepo.NewMockUserRepository(t)
	txRepo.EXPECT().
		Count(ctx).
		Return(int64(3), nil)
	txRepo.EXPECT().
		CountByType(ctx, entity.UserTypeParent).
		Return(int64(1), nil)
	txRepo.EXPECT().
		CountByType(ctx, entity.UserTypeChild).
		Return(int64(2), nil)
	txRepo.EXPECT().
		DeleteAll(ctx).
		Return(int64(3), nil)
	expectTransaction(t, fx, txRepo)

	output, err := fx.service.DeleteAllUsers(ctx, true)

	require.NoError(t, err)
	assert.False(t, output.NothingToDelete)
	assert.Equal(t, int64(3), output.TotalDeleted)
	assert.Equal(t, int64(1), output.ParentsDeleted)
	assert.Equal(t, int64(2), output.ChildrenDeleted)
	assert.Equal(t, "All users deleted successfully", output.Message)
}

func TestUserService_DeleteAllUsers_EmptyStoreShortCircuits(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()

	txRepo := mockRepo.NewMockUserRepository(t)
	txRepo.EXPECT().
		Count(ctx).
		Return(int64(0), nil)
	expectTransaction(t, fx, txRepo)

	output, err := fx.service.DeleteAllUsers(ctx, true)

	require.NoError(t, err)
	assert.True(t, output.NothingToDelete)
	assert.Equal(t, int64(0), output.TotalDeleted)
	assert.Equal(t, "No users found to delete", output.Message)
}
