package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"herbal_store/internal/domain"
	"herbal_store/internal/session"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var _ domain.UserUseCase = (*userUseCase)(nil)

// errBadCredentials is returned for every login failure so callers cannot probe which part was wrong.
var errBadCredentials = fmt.Errorf("invalid email or password: %w", domain.ErrUnauthorized)

type userUseCase struct {
	userRepo   domain.UserRepository
	sessions   session.Store[string]
	sessionTTL time.Duration
	log        *logrus.Logger
}

func NewUserUseCase(repo domain.UserRepository, sessions session.Store[string], sessionTTL time.Duration, logger *logrus.Logger) domain.UserUseCase {
	return &userUseCase{
		userRepo:   repo,
		sessions:   sessions,
		sessionTTL: sessionTTL,
		log:        logger,
	}
}

func (uc *userUseCase) RegisterUser(ctx context.Context, name, email, password string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	uc.log.Infof("Use Case: Attempting registration for email: %s", email)

	if name == "" {
		return nil, fmt.Errorf("user name cannot be empty: %w", domain.ErrInvalidInput)
	}
	if !isValidEmail(email) {
		uc.log.Warnf("Use Case: Registration failed - invalid email format: %s", email)
		return nil, fmt.Errorf("invalid email format: %w", domain.ErrInvalidInput)
	}
	if err := validatePassword(password); err != nil {
		uc.log.Warnf("Use Case: Registration failed - password validation error: %v", err)
		return nil, fmt.Errorf("%v: %w", err, domain.ErrInvalidInput)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		uc.log.Errorf("Use Case: Failed to hash password for %s: %v", email, err)
		return nil, fmt.Errorf("internal error processing password: %w", err)
	}

	created, err := uc.userRepo.CreateUser(ctx, &domain.User{Name: name, Email: email, PasswordHash: string(hashed)})
	if err != nil {
		return nil, err
	}
	uc.log.Infof("Use Case: User registered successfully. ID: %s, Email: %s", created.ID, created.Email)
	return created, nil
}

func (uc *userUseCase) AuthenticateUser(ctx context.Context, email, password string) (*domain.AuthResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !isValidEmail(email) || password == "" {
		return nil, errBadCredentials
	}

	user, err := uc.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			uc.log.Warnf("Use Case: Auth failed - user not found: %s", email)
			return nil, errBadCredentials
		}
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			uc.log.Warnf("Use Case: Auth failed - incorrect password for user %s", user.ID)
			return nil, errBadCredentials
		}
		return nil, fmt.Errorf("internal error during authentication: %w", err)
	}

	token := uuid.NewString()
	uc.sessions.Set(token, user.ID, uc.sessionTTL)
	uc.log.Infof("Use Case: Authentication successful for user %s", user.ID)

	return &domain.AuthResponse{Token: token, UserID: user.ID, Name: user.Name, IsAdmin: user.IsAdmin}, nil
}

func (uc *userUseCase) Authorize(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, fmt.Errorf("missing token: %w", domain.ErrUnauthorized)
	}
	userID, ok := uc.sessions.Get(token)
	if !ok {
		return nil, fmt.Errorf("invalid or expired token: %w", domain.ErrUnauthorized)
	}
	user, err := uc.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			uc.sessions.Delete(token)
			return nil, fmt.Errorf("session user no longer exists: %w", domain.ErrUnauthorized)
		}
		return nil, err
	}
	return user, nil
}

func (uc *userUseCase) Logout(_ context.Context, token string) {
	uc.sessions.Delete(token)
}

// EnsureAdmin creates the account if needed and grants it the admin role.
func (uc *userUseCase) EnsureAdmin(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := uc.userRepo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, domain.ErrNotFound) {
		user, err = uc.RegisterUser(ctx, "Administrator", email, password)
	}
	if err != nil {
		return nil, fmt.Errorf("could not bootstrap admin %s: %w", email, err)
	}
	if user.IsAdmin {
		return user, nil
	}
	uc.log.Infof("Use Case: Granting admin role to %s", user.Email)
	return uc.userRepo.SetAdmin(ctx, user.ID, true)
}

func isValidEmail(email string) bool {
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return false
	}
	domainParts := strings.Split(parts[1], ".")
	return len(domainParts) >= 2 && domainParts[0] != "" && domainParts[len(domainParts)-1] != ""
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters long")
	}
	var hasUpper, hasLower, hasDigit bool
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return errors.New("password must contain an uppercase letter, a lowercase letter and a digit")
	}
	return nil
}
