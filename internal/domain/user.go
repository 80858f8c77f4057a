package domain

import "context"

type User struct {
	RecordMeta
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
	IsAdmin      bool   `json:"isAdmin"`
}

type AuthResponse struct {
	Token   string `json:"token"`
	UserID  string `json:"userId"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"isAdmin"`
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *User) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	SetAdmin(ctx context.Context, id string, isAdmin bool) (*User, error)
}

type UserUseCase interface {
	RegisterUser(ctx context.Context, name, email, password string) (*User, error)
	AuthenticateUser(ctx context.Context, email, password string) (*AuthResponse, error)
	Authorize(ctx context.Context, token string) (*User, error)
	Logout(ctx context.Context, token string)
	EnsureAdmin(ctx context.Context, email, password string) (*User, error)
}
