package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"notetutor/internal/model"
)

// ErrDuplicateKey reports a unique-index conflict, e.g. two registrations racing
// for the same username.
var ErrDuplicateKey = errors.New("duplicate key")

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(user *model.User) error {
	if err := r.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("create user failed: %w", ErrDuplicateKey)
		}
		return fmt.Errorf("create user failed: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByUsername(username string) (*model.User, error) {
	return r.first("username", r.db.Where("username = ?", username))
}

func (r *UserRepository) GetByEmail(email string) (*model.User, error) {
	return r.first("email", r.db.Where("email = ?", email))
}

func (r *UserRepository) GetByID(id uint) (*model.User, error) {
	return r.first("id", r.db.Where("id = ?", id))
}

func (r *UserRepository) TouchLastLogin(id uint, at time.Time) error {
	if err := r.db.Model(&model.User{}).Where("id = ?", id).UpdateColumn("last_login_at", at).Error; err != nil {
		return fmt.Errorf("update last login failed: %w", err)
	}
	return nil
}

// first returns nil, nil when no row matches.
func (r *UserRepository) first(by string, query *gorm.DB) (*model.User, error) {
	var user model.User
	if err := query.First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by %s failed: %w", by, err)
	}
	return &user, nil
}
