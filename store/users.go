package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/webappapi/socialboard/models"
)

// UserRepository reads and writes users.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a UserRepository.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts user. Uniqueness is left to the database indexes.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("create user: %w", ErrDuplicate)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// FindByLogin looks a user up by username or email address.
func (r *UserRepository) FindByLogin(ctx context.Context, identifier string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("username = ? OR email_address = ?", identifier, identifier).
		First(&user).Error
	if err != nil {
		return nil, fmt.Errorf("find user: %w", notFound(err))
	}
	return &user, nil
}

// GetPublic returns the public projection of one user.
func (r *UserRepository) GetPublic(ctx context.Context, id uint) (*models.PublicUser, error) {
	var user models.PublicUser
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Take(&user).Error
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, notFound(err))
	}
	return &user, nil
}

// ListPublic returns every user, projected to public columns, newest first.
func (r *UserRepository) ListPublic(ctx context.Context) ([]models.PublicUser, error) {
	users := []models.PublicUser{}
	err := r.db.WithContext(ctx).Model(&models.User{}).Order("created_at DESC, id DESC").Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Count returns the number of users.
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Count(&n).Error
	return n, err
}
