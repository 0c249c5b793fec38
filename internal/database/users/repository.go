// Package users provides database operations for user and role management.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.GetByEmail(ctx, email)
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/santos/internal/entities"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrRoleNotFound   = errors.New("role not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create stores a new user. Email uniqueness is enforced by the schema; a
// violation is returned as ErrDuplicateEmail.
func (r *Repository) Create(ctx context.Context, user *entities.User) error {
	err := r.db.WithContext(ctx).Omit("Roles").Create(user).Error
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateEmail
	}
	// Drivers without error translation: the row that won is visible now.
	if exists, existsErr := r.EmailExists(ctx, user.Email); existsErr == nil && exists {
		return fmt.Errorf("%w: %v", ErrDuplicateEmail, err)
	}
	return err
}

// GetByEmail retrieves a user by email (case-insensitive) with roles loaded.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).
		Preload("Roles").
		Where("LOWER(email) = ?", strings.ToLower(email)).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// EmailExists reports whether a user already uses email.
func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entities.User{}).
		Where("LOWER(email) = ?", strings.ToLower(email)).
		Count(&count).Error
	return count > 0, err
}

// TouchLastLogin records a successful login time.
func (r *Repository) TouchLastLogin(ctx context.Context, userID uint, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&entities.User{}).
		Where("id = ?", userID).
		Update("last_login_at", at).Error
}

// AddToRole assigns a role to a user. Returns false when the user already
// had the role, in which case nothing is written.
func (r *Repository) AddToRole(ctx context.Context, user *entities.User, roleName string) (bool, error) {
	var role entities.Role
	if err := r.db.WithContext(ctx).Where("name = ?", roleName).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, fmt.Errorf("%w: %s", ErrRoleNotFound, roleName)
		}
		return false, err
	}

	if user.HasRole(roleName) {
		return false, nil
	}

	if err := r.db.WithContext(ctx).Model(user).Association("Roles").Append(&role); err != nil {
		return false, fmt.Errorf("failed to assign role %s: %w", roleName, err)
	}
	return true, nil
}

// Count returns the number of registered users.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.User{}).Count(&count).Error
	return count, err
}
