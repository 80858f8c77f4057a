package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"herbal_store/internal/domain"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

type postgresUserRepository struct {
	db  *sql.DB
	log *logrus.Logger
}

func NewPostgresUserRepository(db *sql.DB, logger *logrus.Logger) domain.UserRepository {
	return &postgresUserRepository{
		db:  db,
		log: logger,
	}
}

const userColumns = `id, name, email, password_hash, is_admin, created_at, updated_at, version`

func scanUser(row rowScanner) (*domain.User, error) {
	user := &domain.User{}
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.IsAdmin,
		&user.CreatedAt, &user.UpdatedAt, &user.Version)
	return user, err
}

func (r *postgresUserRepository) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	r.log.Debugf("Repository: Attempting to create user with email: %s", user.Email)

	var err error
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		created := *user
		created.ID = millisID(time.Now(), attempt)
		err = r.db.QueryRowContext(ctx, `
            INSERT INTO users (id, name, email, password_hash, is_admin)
            VALUES ($1, $2, $3, $4, $5)
            RETURNING created_at, updated_at, version`,
			created.ID, created.Name, created.Email, created.PasswordHash, created.IsAdmin,
		).Scan(&created.CreatedAt, &created.UpdatedAt, &created.Version)
		if err == nil {
			r.log.Infof("Repository: User created successfully with ID: %s, Email: %s", created.ID, created.Email)
			return &created, nil
		}

		var pqErr *pq.Error
		if !errors.As(err, &pqErr) || pqErr.Code != pqUniqueViolation {
			break
		}
		if pqErr.Constraint != "users_pkey" {
			r.log.Warnf("Repository: Attempted to create user with duplicate email: %s", user.Email)
			return nil, fmt.Errorf("user with email '%s' already exists: %w", user.Email, domain.ErrConflict)
		}
	}

	r.log.Errorf("Repository: Failed to create user '%s': %v", user.Email, err)
	return nil, fmt.Errorf("could not create user: %w", err)
}

func (r *postgresUserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE LOWER(email) = LOWER($1)", email)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.Warnf("Repository: User with email %s not found", email)
			return nil, fmt.Errorf("user with email %s: %w", email, domain.ErrNotFound)
		}
		r.log.Errorf("Repository: Failed to get user by email %s: %v", email, err)
		return nil, fmt.Errorf("could not get user by email: %w", err)
	}
	return user, nil
}

func (r *postgresUserRepository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.Warnf("Repository: User with ID %s not found", id)
			return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
		}
		r.log.Errorf("Repository: Failed to get user by ID %s: %v", id, err)
		return nil, fmt.Errorf("could not get user by id: %w", err)
	}
	return user, nil
}

func (r *postgresUserRepository) SetAdmin(ctx context.Context, id string, isAdmin bool) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
        UPDATE users SET is_admin = $1, updated_at = NOW(), version = version + 1
        WHERE id = $2
        RETURNING `+userColumns, isAdmin, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("could not update user: %w", err)
	}
	return user, nil
}
