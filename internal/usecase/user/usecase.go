package user

import (
	"context"

	"go.uber.org/zap"

	domain "user-crud-service/internal/domain/user"
	pkgerrors "user-crud-service/pkg/errors"
	"user-crud-service/pkg/logger"
)

// Repository defines the interface for user data access operations.
// It abstracts the data layer, allowing different implementations
// (e.g., PostgreSQL, SQLite, an in-memory fake) to be used interchangeably.
type Repository interface {
	Create(ctx context.Context, u *domain.User) (*domain.User, error)                        // Insert and return the stored row
	GetByID(ctx context.Context, id int64) (*domain.User, error)                             // nil, nil when absent
	GetByEmail(ctx context.Context, email string) (*domain.User, error)                      // nil, nil when absent
	Exists(ctx context.Context, id int64) (bool, error)                                      // Primary key lookup only
	Update(ctx context.Context, id int64, changes domain.UserChanges) (*domain.User, error) // NotFoundError when the row is gone
	Delete(ctx context.Context, id int64) error                                              // NotFoundError when the row is gone
	List(ctx context.Context) ([]domain.User, error)                                         // Most recent first
}

// Service implements the business logic for user management operations.
// It provides a clean separation between the transport layer and data layer.
type Service struct {
	repo     Repository  // Repository for data access
	log      *zap.Logger // Logger for structured logging
	validate *Validator  // Validator for request payloads
}

var _ Usecase = (*Service)(nil)

// New creates a new Service with the provided repository and logger.
func New(r Repository, log *zap.Logger) *Service {
	return &Service{repo: r, log: log, validate: NewValidator()}
}

func invalidData(fields pkgerrors.FieldErrors) error {
	return pkgerrors.NewValidationError("invalid data", fields)
}

func duplicateEmail() error {
	return pkgerrors.NewAlreadyExistsError("email", "email already in use")
}

func userNotFound() error {
	return pkgerrors.NewNotFoundError("user", "user not found")
}

// CreateUser creates a new user after validating the request and checking email uniqueness.
func (s *Service) CreateUser(ctx context.Context, in CreateUserRequest) (*User, error) {
	log := logger.WithContext(ctx, s.log)

	fields, errs := s.validate.Validate(in.Input, ModeFull)
	if len(errs) > 0 {
		log.Warn("create user validation failed", zap.Strings("fields", errs.Fields()))
		return nil, invalidData(errs)
	}

	log.Info("creating user", zap.String("name", *fields.Name), zap.String("email", *fields.Email))

	existing, err := s.repo.GetByEmail(ctx, *fields.Email)
	if err != nil {
		log.Error("failed to check existing email", zap.String("email", *fields.Email), zap.Error(err))
		return nil, err
	}
	if existing != nil {
		log.Warn("email already exists", zap.String("email", *fields.Email), zap.Int64("existing_id", existing.ID))
		return nil, duplicateEmail()
	}

	created, err := s.repo.Create(ctx, &domain.User{
		Name:  *fields.Name,
		Email: *fields.Email,
		Age:   *fields.Age,
	})
	if err != nil {
		log.Error("failed to create user", zap.String("email", *fields.Email), zap.Error(err))
		return nil, err
	}

	log.Info("user created", zap.Int64("id", created.ID))
	return toDTO(created), nil
}

// UpdateUser applies a partial update after validating the present fields,
// confirming the user exists and checking email uniqueness against other users.
func (s *Service) UpdateUser(ctx context.Context, in UpdateUserRequest) (*User, error) {
	log := logger.WithContext(ctx, s.log).With(zap.Int64("id", in.ID))

	changes, errs := s.validate.Validate(in.Input, ModePartial)
	if len(errs) > 0 {
		log.Warn("update user validation failed", zap.Strings("fields", errs.Fields()))
		return nil, invalidData(errs)
	}

	log.Info("updating user")

	if in.ID <= 0 {
		return nil, userNotFound()
	}

	exists, err := s.repo.Exists(ctx, in.ID)
	if err != nil {
		log.Error("failed to check user existence", zap.Error(err))
		return nil, err
	}
	if !exists {
		log.Warn("user not found for update")
		return nil, userNotFound()
	}

	if changes.Email != nil {
		existing, err := s.repo.GetByEmail(ctx, *changes.Email)
		if err != nil {
			log.Error("failed to check existing email", zap.String("email", *changes.Email), zap.Error(err))
			return nil, err
		}
		if existing != nil && existing.ID != in.ID {
			log.Warn("email already exists", zap.String("email", *changes.Email), zap.Int64("existing_id", existing.ID))
			return nil, duplicateEmail()
		}
	}

	updated, err := s.repo.Update(ctx, in.ID, changes)
	if err != nil {
		log.Error("failed to update user", zap.Error(err))
		return nil, err
	}

	return toDTO(updated), nil
}

// DeleteUser removes a user after confirming it exists.
func (s *Service) DeleteUser(ctx context.Context, in DeleteUserRequest) (*DeleteUserResponse, error) {
	log := logger.WithContext(ctx, s.log).With(zap.Int64("id", in.ID))
	log.Info("deleting user")

	if in.ID <= 0 {
		return nil, userNotFound()
	}

	exists, err := s.repo.Exists(ctx, in.ID)
	if err != nil {
		log.Error("failed to check user existence", zap.Error(err))
		return nil, err
	}
	if !exists {
		log.Warn("user not found for delete")
		return nil, userNotFound()
	}

	if err := s.repo.Delete(ctx, in.ID); err != nil {
		log.Error("failed to delete user", zap.Error(err))
		return nil, err
	}

	return &DeleteUserResponse{ID: in.ID}, nil
}

// GetUser retrieves a user by ID. A missing user is a normal outcome and
// is reported as nil, nil.
func (s *Service) GetUser(ctx context.Context, in GetUserRequest) (*User, error) {
	if in.ID <= 0 {
		return nil, nil
	}

	u, err := s.repo.GetByID(ctx, in.ID)
	if err != nil {
		logger.WithContext(ctx, s.log).Error("failed to get user", zap.Int64("id", in.ID), zap.Error(err))
		return nil, err
	}
	if u == nil {
		return nil, nil
	}

	return toDTO(u), nil
}

// ListUsers returns every user, most recently created first.
func (s *Service) ListUsers(ctx context.Context, _ ListUsersRequest) (*ListUsersResponse, error) {
	domainUsers, err := s.repo.List(ctx)
	if err != nil {
		logger.WithContext(ctx, s.log).Error("failed to list users", zap.Error(err))
		return nil, err
	}

	users := make([]User, len(domainUsers))
	for i := range domainUsers {
		users[i] = *toDTO(&domainUsers[i])
	}

	return &ListUsersResponse{
		Users: users,
		Count: len(users),
	}, nil
}
