package domain

import (
	"context"
	"errors"
)

type RegisterRequest struct {
	Username string
	Email    string
	FullName string
	Password string
}

type LoginRequest struct {
	Username string
	Password string
}

type LoginResult struct {
	User     User
	RawToken string
}

type ChangePasswordRequest struct {
	OldPassword string
	NewPassword string
}

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (User, error)
	Login(ctx context.Context, req LoginRequest) (LoginResult, error)
	Logout(ctx context.Context, rawToken string) error
	Authenticate(ctx context.Context, rawToken string) (User, error)
	ChangePassword(ctx context.Context, userID string, req ChangePasswordRequest) error
	GetByID(ctx context.Context, userID string) (User, error)
}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("invalid session")
	ErrSessionExpired     = errors.New("session expired")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidUsername    = errors.New("username is required")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrUserNotFound       = errors.New("user not found")
)
