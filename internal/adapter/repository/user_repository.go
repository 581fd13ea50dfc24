package repository

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/paywatch/subscription-service/internal/domain/model"
	"github.com/paywatch/subscription-service/internal/domain/repository"
)

type userRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB, logger *zap.Logger) repository.UserRepository {
	return &userRepository{
		db:     db,
		logger: logger,
	}
}

// GetByEmail retrieves a user by email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User

	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get user by email",
			zap.String("email", email),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// GetByID retrieves a user by id
func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get user by ID",
			zap.String("user_id", id),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// Create inserts a user. A concurrent insert for the same email is not an
// error: the existing row is returned instead.
func (r *userRepository) Create(ctx context.Context, user *model.User) (*model.User, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoNothing: true,
		}).
		Create(user)

	if res.Error != nil {
		r.logger.Error("Failed to create user",
			zap.String("email", user.Email),
			zap.Error(res.Error))
		return nil, fmt.Errorf("failed to create user: %w", res.Error)
	}

	if res.RowsAffected > 0 {
		return user, nil
	}

	return r.GetByEmail(ctx, user.Email)
}

// FillMissingNames sets name fields only where the stored value is empty.
// Each field is guarded individually so a populated name is never
// overwritten by webhook data.
func (r *userRepository) FillMissingNames(ctx context.Context, email, firstName, lastName string) error {
	if firstName != "" {
		err := r.db.WithContext(ctx).
			Model(&model.User{}).
			Where("email = ? AND (first_name = '' OR first_name IS NULL)", email).
			Update("first_name", firstName).Error
		if err != nil {
			return fmt.Errorf("failed to fill first name: %w", err)
		}
	}

	if lastName != "" {
		err := r.db.WithContext(ctx).
			Model(&model.User{}).
			Where("email = ? AND (last_name = '' OR last_name IS NULL)", email).
			Update("last_name", lastName).Error
		if err != nil {
			return fmt.Errorf("failed to fill last name: %w", err)
		}
	}

	return nil
}
