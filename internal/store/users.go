package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/admissions-dev/admissions/internal/apperrors"
	"github.com/admissions-dev/admissions/internal/auth"
	"github.com/admissions-dev/admissions/internal/models"
	"gorm.io/gorm"
)

type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// CreateUser registers a new account. The email pre-check gives a clean
// error on the common path; the unique index on email is what actually
// guarantees uniqueness under concurrent signups.
func (s *UserStore) CreateUser(ctx context.Context, email, fullName, program, password string) (*models.User, error) {
	existing, err := s.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.Conflict("Email already registered")
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return nil, apperrors.Internal("Failed to hash password", err)
	}

	user := models.User{
		Email:        email,
		FullName:     fullName,
		Program:      program,
		PasswordHash: passwordHash,
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict("Email already registered")
		}
		return nil, apperrors.Internal("Failed to create user", err)
	}

	return &user, nil
}

// FindByEmail returns nil, nil when no user has the email.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, "email = ?", email)
}

// FindByUUID returns nil, nil when no user has the UUID.
func (s *UserStore) FindByUUID(ctx context.Context, uuid string) (*models.User, error) {
	return s.findOne(ctx, "uuid = ?", uuid)
}

func (s *UserStore) findOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var user models.User

	err := s.db.WithContext(ctx).Where(query, arg).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to load user", fmt.Errorf("find user by %s: %w", query, err))
	}

	return &user, nil
}
