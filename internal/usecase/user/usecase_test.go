package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	domain "user-crud-service/internal/domain/user"
	pkgerrors "user-crud-service/pkg/errors"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	args := m.Called(ctx, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockRepository) Exists(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, id int64, changes domain.UserChanges) (*domain.User, error) {
	args := m.Called(ctx, id, changes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) List(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func setupTestService(t *testing.T) (*Service, *MockRepository) {
	mockRepo := new(MockRepository)
	svc := New(mockRepo, zaptest.NewLogger(t))
	return svc, mockRepo
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func validInput() UserInput {
	return UserInput{
		Name:  strPtr("Ana"),
		Email: strPtr("ana@x.com"),
		Age:   intPtr(20),
	}
}

func storedUser(id int64, email string) *domain.User {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &domain.User{ID: id, Name: "Ana", Email: email, Age: 20, CreatedAt: now, UpdatedAt: now}
}

// ==================== CREATE USER TESTS ====================

func TestCreateUser_Success(t *testing.T) {
	svc, mockRepo := setupTestService(t)
	ctx := context.Background()

	mockRepo.On("GetByEmail", ctx, "ana@x.com").Return(nil, nil)
	mockRepo.On("Create", ctx, mock.MatchedBy(func(u *domain.User) bool {
		return u.Name == "Ana" && u.Email == "ana@x.com" && u.Age == 20 && u.ID == 0
	})).Return(storedUser(1, "ana@x.com"), nil)

	got, err := svc.CreateUser(ctx, CreateUserRequest{Input: validInput()})

	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, "Ana", got.Name)
	assert.Equal(t, got.CreatedAt, got.UpdatedAt)
	mockRepo.AssertExpectations(t)
}

func TestCreateUser_NormalizesEmail(t *testing.T) {
	svc, mockRepo := setupTestService(t)
	ctx := context.Background()

	in := validInput()
	in.Email = strPtr("  Ana@X.COM ")
	in.Name = strPtr("  Ana ")

	mockRepo.On("GetByEmail", ctx, "ana@x.com").Return(nil, nil)
	mockRepo.On("Create", ctx, mock.MatchedBy(func(u *domain.User) bool {
		return u.Email == "ana@x.com" && u.Name == "Ana"
	})).Return(storedUser(1, "ana@x.com"), nil)

	_, err := svc.CreateUser(ctx, CreateUserRequest{Input: in})

	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestCreateUser_ValidationError_MissingFields(t *testing.T) {
	svc, mockRepo := setupTestService(t)

	got, err := svc.CreateUser(context.Background(), CreateUserRequest{})

	assert.Nil(t, got)
	var verr *pkgerrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"name", "email", "age"}, verr.Fields.Fields())
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateUser_ValidationError_AgeOutOfRange(t *testing.T) {
	for _, age := range []int{-1, 151} {
		svc, mockRepo := setupTestService(t)
		in := validInput()
		in.Age = intPtr(age)

		_, err := svc.CreateUser(context.Background(), CreateUserRequest{Input: in})

		var verr *pkgerrors.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, []string{"age"}, verr.Fields.Fields())
		mockRepo.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	}
}

func TestCreateUser_ValidationError_EmailInvalid(t *testing.T) {
	svc, mockRepo := setupTestService(t)
	in := validInput()
	in.Email = strPtr("not-an-email")

	_, err := svc.CreateUser(context.Background(), CreateUserRequest{Input: in})

	var verr *pkgerrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"email"}, verr.Fields.Fields())
	assert.Contains(t, err.Error(), "email must be a valid email")
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	svc, mockRepo := setupTestService(t)
	ctx := context.Background()

	mockRepo.On("GetByEmail", ctx, "ana@x.com").Return(storedUser(7, "ana@x.com"), nil)

	got, err := svc.CreateUser(ctx, CreateUserRequest{Input: validInput()})

	assert.Nil(t, got)
	var dup *pkgerrors.AlreadyExistsError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "email", dup.Resource)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateUser_StoreReportsDuplicate(t *testing.T) {
	svc, mockRepo := setupTestService(t)
	ctx := context.Background()

	// Another request won the race between the pre-check and the insert.
	mockRepo.On("GetByEmail", ctx, "ana@x.com").Return(nil, nil)
	mockRepo.On("Create", ctx, mock.Anything).Return(nil, pkgerrors.NewAlreadyExistsError("email", "email already in use"))

	_, err := svc.CreateUser(ctx, CreateUserRequest{Input: validInput()})

	var dup *pkgerrors.AlreadyExistsError
	assert.ErrorAs(t, err, &dup)
}

func TestCreateUser_LookupError(t *testing.T) {
	svc, mockRepo := setupTestService(t)
	ctx := context.Background()

	storeErr := pkgerrors.NewInternalError("failed to get user by email", errors.New("connection reset"))
	mockRepo.On("GetByEmail", ctx, "ana@x.com").Return(nil, storeErr)

	_, err := svc.CreateUser(ctx, CreateUserRequest{Input: validInput()})

	assert.ErrorIs(t, err, storeErr)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// ==================== UPDATE USER TESTS ====================

func TestUpdateUser_Success(t *testing.T) {
	svc, mockRepo := setupTestService(t)
	ctx := context.Background()

	in := UserInput{Name: strPtr("Ana Maria"), Email: strPtr("ANA@x.com")}

	mockRepo.On("Exists", ctx, int64(1)).Return(true, nil)
	mockRepo.On("GetByEmail", ctx, "ana@x.com").Return(storedUser(1, "ana@x.com"), nil)
	mockRepo.On("Update", ctx, int64(1), mock.MatchedBy(func(c domain.UserChanges) bool {
		return *c.Name == "Ana Maria" && *c.Email == "ana@x.com" && c.Age == nil
	})).Return(storedUser(1, "ana@x.com"), nil)

	got, err := svc.UpdateUser(ctx, UpdateUserRequest{ID: 1, Input: in})

	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ID)
	mockRepo.AssertExpectations(t)
}

func TestUpdateUser_EmptyPayload(t *testing.T) {
	svc, mockRepo := setupTestService(t)
	ctx := context.Background()

	mockRepo.On("Exists", ctx, int64(3)).Return(true, nil)
	mockRepo.On("Update", ctx, int64(3), domain.UserChanges{}).Return(storedUser(3, "ana@x.com"), nil)

	got, err := svc.UpdateUser(ctx, UpdateUserRequest{ID: 3})

	require.NoError(t, err)
	assert.Equal(t, int64(3), got.ID)
	mockRepo.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
	mockRepo.AssertExpectations(t)
}

func TestUpdateUser_ValidationError(t *testing.T) {
	svc, mockRepo := setupTestService(t)

	in := UserInput{Name: strPtr("   "), Age: intPtr(200)}

	_, err := svc.UpdateUser(context.Background(), UpdateUserRequest{ID: 1, Input: in})

	var verr *pkgerrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"name", "age"}, verr.Fields.Fields())
	mockRepo.AssertNotCalled(t, "Exists", mock.Anything, mock.Anything)
}

func TestUpdateUser_NotFound(t *testing.T) {
	svc, mockRepo := setupTestService(t)
	ctx := context.Background()

	mockRepo.On("Exists", ctx, int64(42)).Return(false, nil)

	_, err := svc.UpdateUser(ctx, UpdateUserRequest{ID: 42, Input: UserInput{Age: intPtr(30)}})

	var nf *pkgerrors.NotFoundError
	require.ErrorAs(t, err, &nf)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateUser_NonPositiveID(t *testing.T) {
	svc, mockRepo := setupTestService(t)

	_, err := svc.UpdateUser(context.Background(), UpdateUserRequest{ID: 0})

	var nf *pkgerrors.NotFoundError
	require.ErrorAs(t, err, &nf)
	mockRepo.AssertNotCalled(t, "Exists", mock.Anything, mock.Anything)
}

func TestUpdateUser_DuplicateEmail(t *testing.T) {
	svc, mockRepo := setupTestService(t)
	ctx := context.Background()

	mockRepo.On("Exists", ctx, int64(1)).Return(true, nil)
	mockRepo.On("GetByEmail", ctx, "taken@x.com").Return(storedUser(2, "taken@x.com"), nil)

	_, err := svc.UpdateUser(ctx, UpdateUserRequest{ID: 1, Input: UserInput{Email: strPtr("taken@x.com")}})

	var dup *pkgerrors.AlreadyExistsError
	require.ErrorAs(t, err, &dup)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateUser_RowVanishedBeforeUpdate(t *testing.T) {
	svc, mockRepo := setupTestService(t)
	ctx := context.Background()

	mockRepo.On("Exists", ctx, int64(1)).Return(true, nil)
	mockRepo.On("Update", ctx, int64(1), mock.Anything).Return(nil, pkgerrors.NewNotFoundError("user", "user not found"))

	_, err := svc.UpdateUser(ctx, UpdateUserRequest{ID: 1, Input: UserInput{Age: intPtr(21)}})

	var nf *pkgerrors.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

// ==================== DELETE USER TESTS ====================

func TestDeleteUser_Success(t *testing.T) {
	svc, mockRepo := setupTestService(t)
	ctx := context.Background()

	mockRepo.On("Exists", ctx, int64(1)).Return(true, nil)
	mockRepo.On("Delete", ctx, int64(1)).Return(nil)

	resp, err := svc.DeleteUser(ctx, DeleteUserRequest{ID: 1})

	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.ID)
	mockRepo.AssertExpectations(t)
}

func TestDeleteUser_NotFound(t *testing.T) {
	svc, mockRepo := setupTestService(t)
	ctx := context.Background()

	mockRepo.On("Exists", ctx, int64(9)).Return(false, nil)

	resp, err := svc.DeleteUser(ctx, DeleteUserRequest{ID: 9})

	assert.Nil(t, resp)
	var nf *pkgerrors.NotFoundError
	require.ErrorAs(t, err, &nf)
	mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDeleteUser_ExistsError(t *testing.T) {
	svc, mockRepo := setupTestService(t)
	ctx := context.Background()

	storeErr := pkgerrors.NewInternalError("failed to check user", errors.New("timeout"))
	mockRepo.On("Exists", ctx, int64(1)).Return(false, storeErr)

	_, err := svc.DeleteUser(ctx, DeleteUserRequest{ID: 1})

	assert.ErrorIs(t, err, storeErr)
}

// ==================== GET / LIST TESTS ====================

func TestGetUser_Found(t *testing.T) {
	svc, mockRepo := setupTestService(t)
	ctx := context.Background()

	stored := storedUser(5, "ana@x.com")
	mockRepo.On("GetByID", ctx, int64(5)).Return(stored, nil)

	got, err := svc.GetUser(ctx, GetUserRequest{ID: 5})

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, *toDTO(stored), *got)
}

func TestGetUser_NotFoundIsNotAnError(t *testing.T) {
	svc, mockRepo := setupTestService(t)
	ctx := context.Background()

	mockRepo.On("GetByID", ctx, int64(99)).Return(nil, nil)

	got, err := svc.GetUser(ctx, GetUserRequest{ID: 99})

	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetUser_NonPositiveID(t *testing.T) {
	svc, mockRepo := setupTestService(t)

	got, err := svc.GetUser(context.Background(), GetUserRequest{ID: -1})

	assert.NoError(t, err)
	assert.Nil(t, got)
	mockRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestListUsers_Success(t *testing.T) {
	svc, mockRepo := setupTestService(t)
	ctx := context.Background()

	mockRepo.On("List", ctx).Return([]domain.User{
		*storedUser(2, "b@x.com"),
		*storedUser(1, "a@x.com"),
	}, nil)

	resp, err := svc.ListUsers(ctx, ListUsersRequest{})

	require.NoError(t, err)
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, int64(2), resp.Users[0].ID)
	assert.Equal(t, "a@x.com", resp.Users[1].Email)
}

func TestListUsers_Empty(t *testing.T) {
	svc, mockRepo := setupTestService(t)
	ctx := context.Background()

	mockRepo.On("List", ctx).Return([]domain.User{}, nil)

	resp, err := svc.ListUsers(ctx, ListUsersRequest{})

	require.NoError(t, err)
	assert.Equal(t, 0, resp.Count)
	assert.NotNil(t, resp.Users)
}

func TestListUsers_StoreError(t *testing.T) {
	svc, mockRepo := setupTestService(t)
	ctx := context.Background()

	mockRepo.On("List", ctx).Return(nil, errors.New("db down"))

	resp, err := svc.ListUsers(ctx, ListUsersRequest{})

	assert.Error(t, err)
	assert.Nil(t, resp)
}
