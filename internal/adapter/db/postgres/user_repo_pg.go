package postgres

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"user-crud-service/internal/domain/user"
	usecase "user-crud-service/internal/usecase/user"
	pkgerrors "user-crud-service/pkg/errors"
	"user-crud-service/pkg/logger"
)

// UserRepoPG implements the user Repository using GORM. Despite the name it
// runs against any GORM dialector; production uses PostgreSQL.
type UserRepoPG struct {
	db  *gorm.DB    // GORM database connection
	log *zap.Logger // Structured logger for database operations
}

var _ usecase.Repository = (*UserRepoPG)(nil)

// NewUserRepoPG creates a new instance of UserRepoPG.
func NewUserRepoPG(db *gorm.DB, log *zap.Logger) *UserRepoPG {
	return &UserRepoPG{db: db, log: log}
}

// UserSchema represents the database schema for the users table.
type UserSchema struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	Name      string    `gorm:"size:255;not null"`
	Email     string    `gorm:"size:255;not null;uniqueIndex"`
	Age       int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName specifies the table name for the UserSchema model.
func (UserSchema) TableName() string {
	return "users"
}

func (m *UserSchema) toDomain() *user.User {
	return &user.User{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		Age:       m.Age,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// now is the timestamp stored on writes. Microsecond precision matches what
// PostgreSQL keeps, so the returned record equals what a later read sees.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// Create inserts a new user and returns the stored record.
func (r *UserRepoPG) Create(ctx context.Context, u *user.User) (*user.User, error) {
	if u == nil {
		return nil, pkgerrors.NewInternalError("user cannot be nil", nil)
	}

	ts := now()
	model := UserSchema{
		Name:      u.Name,
		Email:     u.Email,
		Age:       u.Age,
		CreatedAt: ts,
		UpdatedAt: ts,
	}

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if isUniqueViolation(err) {
			logger.WithContext(ctx, r.log).Info("email already stored", zap.String("email", u.Email))
			return nil, emailTaken()
		}
		logger.WithContext(ctx, r.log).Error("failed to create user in db", zap.Error(err), zap.String("email", u.Email))
		return nil, pkgerrors.NewInternalError("failed to create user", err)
	}

	logger.WithContext(ctx, r.log).Info("user created in db", zap.Int64("id", model.ID))
	return model.toDomain(), nil
}

// GetByID returns the user with the given id, or nil when there is none.
func (r *UserRepoPG) GetByID(ctx context.Context, id int64) (*user.User, error) {
	var model UserSchema
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WithContext(ctx, r.log).Debug("user not found", zap.Int64("id", id))
			return nil, nil
		}
		logger.WithContext(ctx, r.log).Error("failed to get user from db", zap.Error(err), zap.Int64("id", id))
		return nil, pkgerrors.NewInternalError("failed to get user", err)
	}

	return model.toDomain(), nil
}

// GetByEmail returns the user stored under email, or nil when there is none.
// The caller passes the normalized address.
func (r *UserRepoPG) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	var model UserSchema
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WithContext(ctx, r.log).Debug("user not found by email", zap.String("email", email))
			return nil, nil
		}
		logger.WithContext(ctx, r.log).Error("failed to get user by email from db", zap.Error(err), zap.String("email", email))
		return nil, pkgerrors.NewInternalError("failed to get user by email", err)
	}

	return model.toDomain(), nil
}

// Exists reports whether a user with id is stored.
func (r *UserRepoPG) Exists(ctx context.Context, id int64) (bool, error) {
	var row struct{ ID int64 }
	err := r.db.WithContext(ctx).Model(&UserSchema{}).Select("id").Where("id = ?", id).Take(&row).Error
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return false, nil
	default:
		logger.WithContext(ctx, r.log).Error("failed to check user existence", zap.Error(err), zap.Int64("id", id))
		return false, pkgerrors.NewInternalError("failed to check user existence", err)
	}
}

// Update applies the non-nil fields of changes and refreshes updated_at.
// It returns a NotFoundError when no row has the id.
// Store failures other than unique violations come back as InternalError.
func (r *UserRepoPG) Update(ctx context.Context, id int64, changes user.UserChanges) (*user.User, error) {
	values := map[string]any{"updated_at": now()}
	if changes.Name != nil {
		values["name"] = *changes.Name
	}
	if changes.Email != nil {
		values["email"] = *changes.Email
	}
	if changes.Age != nil {
		values["age"] = *changes.Age
	}

	var model UserSchema
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&UserSchema{}).Where("id = ?", id).Updates(values)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.First(&model, id).Error
	})

	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		logger.WithContext(ctx, r.log).Debug("user to update not found", zap.Int64("id", id))
		return nil, userMissing()
	case isUniqueViolation(err):
		logger.WithContext(ctx, r.log).Info("email already stored", zap.Int64("id", id))
		return nil, emailTaken()
	default:
		logger.WithContext(ctx, r.log).Error("failed to update user in db", zap.Error(err), zap.Int64("id", id))
		return nil, pkgerrors.NewInternalError("failed to update user", err)
	}

	logger.WithContext(ctx, r.log).Info("user updated in db", zap.Int64("id", id))
	return model.toDomain(), nil
}

// Delete removes the user with id. It returns a NotFoundError when no row was removed.
func (r *UserRepoPG) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&UserSchema{}, id)
	if res.Error != nil {
		logger.WithContext(ctx, r.log).Error("failed to delete user in db", zap.Error(res.Error), zap.Int64("id", id))
		return pkgerrors.NewInternalError("failed to delete user", res.Error)
	}
	if res.RowsAffected == 0 {
		return userMissing()
	}

	logger.WithContext(ctx, r.log).Info("user deleted in db", zap.Int64("id", id))
	return nil
}

// List returns every user, newest first.
func (r *UserRepoPG) List(ctx context.Context) ([]user.User, error) {
	var models []UserSchema
	if err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&models).Error; err != nil {
		logger.WithContext(ctx, r.log).Error("failed to list users from db", zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to list users", err)
	}

	users := make([]user.User, len(models))
	for i := range models {
		users[i] = *models[i].toDomain()
	}

	return users, nil
}

func emailTaken() error {
	return pkgerrors.NewAlreadyExistsError("email", "email already in use")
}

func userMissing() error {
	return pkgerrors.NewNotFoundError("user", "user not found")
}
