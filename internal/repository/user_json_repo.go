package repository

import (
	"context"
	"fmt"
	"strings"

	"herbal_store/internal/domain"

	"github.com/sirupsen/logrus"
)

type jsonUserRepository struct {
	users *Collection[domain.User, *domain.User]
	log   *logrus.Logger
}

func NewJSONUserRepository(dataDir string, logger *logrus.Logger) (domain.UserRepository, error) {
	users, err := NewCollection[domain.User](dataDir, "users", logger)
	if err != nil {
		return nil, err
	}
	return &jsonUserRepository{users: users, log: logger}, nil
}

func (r *jsonUserRepository) CreateUser(_ context.Context, user *domain.User) (*domain.User, error) {
	r.log.Debugf("Repository: Attempting to create user with email: %s", user.Email)
	created, err := r.users.Create(user, func(existing *domain.User) error {
		if strings.EqualFold(existing.Email, user.Email) {
			return fmt.Errorf("user with email '%s' already exists: %w", user.Email, domain.ErrConflict)
		}
		return nil
	})
	if err != nil {
		r.log.Warnf("Repository: Failed to create user '%s': %v", user.Email, err)
		return nil, err
	}
	r.log.Infof("Repository: User created successfully with ID: %s, Email: %s", created.ID, created.Email)
	return created, nil
}

func (r *jsonUserRepository) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	user, err := r.users.FindByID(id)
	if err != nil {
		r.log.Warnf("Repository: User with ID %s not found", id)
		return nil, err
	}
	return user, nil
}

func (r *jsonUserRepository) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	found, err := r.users.Find(func(u *domain.User) bool { return strings.EqualFold(u.Email, email) })
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		r.log.Warnf("Repository: User with email %s not found", email)
		return nil, fmt.Errorf("user with email %s: %w", email, domain.ErrNotFound)
	}
	return &found[0], nil
}

func (r *jsonUserRepository) SetAdmin(_ context.Context, id string, isAdmin bool) (*domain.User, error) {
	return r.users.Update(id, func(u *domain.User) error {
		u.IsAdmin = isAdmin
		return nil
	})
}
