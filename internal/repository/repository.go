package repository

import (
	"context"

	"github.com/nkiryanov/smallsquare/internal/models"
)

type CreateUserParams struct {
	Username     string
	PasswordHash string
	Nickname     string
	Email        string
	Name         string
	Role         models.Role
}

type UpdateProfileParams struct {
	Username string
	Email    string
	Nickname string
	Name     string
}

// User repository interface
type UserRepo interface {
	// Create active user
	// If username, email or nickname is taken must return apperrors.ErrUsernameTaken,
	// apperrors.ErrEmailTaken or apperrors.ErrNicknameTaken accordingly
	CreateUser(ctx context.Context, arg CreateUserParams) (models.User, error)

	// Get user by one of its unique fields
	// Inactive users are returned too
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, id int64) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	GetUserByNickname(ctx context.Context, nickname string) (models.User, error)

	// Check whether any user (active or not) holds the value
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByNickname(ctx context.Context, nickname string) (bool, error)

	// Updates bump updated_at
	// If user not found must return apperrors.ErrUserNotFound
	UpdatePassword(ctx context.Context, id int64, passwordHash string) (models.User, error)
	SetActive(ctx context.Context, id int64, active bool) (models.User, error)
	UpdateProfile(ctx context.Context, id int64, arg UpdateProfileParams) (models.User, error)
}

type Storage interface {
	User() UserRepo

	// Run fn in transaction
	// Commit if fn returns nil, rollback otherwise
	InTx(ctx context.Context, fn func(Storage) error) error
}
