package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/smallsquare/internal/apperrors"
	"github.com/nkiryanov/smallsquare/internal/models"
	"github.com/nkiryanov/smallsquare/internal/repository"
)

type UserRepo struct {
	db DBTX
}

const userColumns = `id, username, password_hash, nickname, email, name, role, is_active, created_at, updated_at`

const createUser = `-- name: CreateUser
INSERT INTO users (username, password_hash, nickname, email, name, role)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + userColumns

func (r *UserRepo) CreateUser(ctx context.Context, arg repository.CreateUserParams) (models.User, error) {
	if arg.Role == "" {
		arg.Role = models.RoleUser
	}

	rows, _ := r.db.Query(ctx, createUser, arg.Username, arg.PasswordHash, arg.Nickname, arg.Email, arg.Name, arg.Role)
	user, err := pgx.CollectOneRow(rows, rowToUser)
	if err != nil {
		return user, mapWriteError(err)
	}

	return user, nil
}

const getUserByID = `-- name: GetUserByID
SELECT ` + userColumns + ` FROM users
WHERE id = $1
`

func (r *UserRepo) GetUserByID(ctx context.Context, id int64) (models.User, error) {
	return r.getUser(ctx, getUserByID, id)
}

const getUserByUsername = `-- name: GetUserByUsername
SELECT ` + userColumns + ` FROM users
WHERE username = $1
`

func (r *UserRepo) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	return r.getUser(ctx, getUserByUsername, username)
}

const getUserByEmail = `-- name: GetUserByEmail
SELECT ` + userColumns + ` FROM users
WHERE email = $1
`

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	return r.getUser(ctx, getUserByEmail, email)
}

const getUserByNickname = `-- name: GetUserByNickname
SELECT ` + userColumns + ` FROM users
WHERE nickname = $1
`

func (r *UserRepo) GetUserByNickname(ctx context.Context, nickname string) (models.User, error) {
	return r.getUser(ctx, getUserByNickname, nickname)
}

const existsByUsername = `-- name: ExistsByUsername
SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)
`

func (r *UserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, existsByUsername, username)
}

const existsByEmail = `-- name: ExistsByEmail
SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)
`

func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, existsByEmail, email)
}

const existsByNickname = `-- name: ExistsByNickname
SELECT EXISTS (SELECT 1 FROM users WHERE nickname = $1)
`

func (r *UserRepo) ExistsByNickname(ctx context.Context, nickname string) (bool, error) {
	return r.exists(ctx, existsByNickname, nickname)
}

const updatePassword = `-- name: UpdatePassword
UPDATE users
SET password_hash = $2, updated_at = now()
WHERE id = $1
RETURNING ` + userColumns

func (r *UserRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) (models.User, error) {
	return r.getUser(ctx, updatePassword, id, passwordHash)
}

const setActive = `-- name: SetActive
UPDATE users
SET is_active = $2, updated_at = now()
WHERE id = $1
RETURNING ` + userColumns

func (r *UserRepo) SetActive(ctx context.Context, id int64, active bool) (models.User, error) {
	return r.getUser(ctx, setActive, id, active)
}

const updateProfile = `-- name: UpdateProfile
UPDATE users
SET username = $2, email = $3, nickname = $4, name = $5, updated_at = now()
WHERE id = $1
RETURNING ` + userColumns

func (r *UserRepo) UpdateProfile(ctx context.Context, id int64, arg repository.UpdateProfileParams) (models.User, error) {
	rows, _ := r.db.Query(ctx, updateProfile, id, arg.Username, arg.Email, arg.Nickname, arg.Name)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, mapWriteError(err)
	}
}

// getUser runs query returning exactly one user row
func (r *UserRepo) getUser(ctx context.Context, query string, args ...any) (models.User, error) {
	rows, _ := r.db.Query(ctx, query, args...)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

func (r *UserRepo) exists(ctx context.Context, query string, value string) (bool, error) {
	rows, _ := r.db.Query(ctx, query, value)
	ok, err := pgx.CollectOneRow(rows, pgx.RowTo[bool])
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

// Constraint names come from the users migration
var uniqueConstraintErrors = map[string]error{
	"users_username_key": apperrors.ErrUsernameTaken,
	"users_email_key":    apperrors.ErrEmailTaken,
	"users_nickname_key": apperrors.ErrNicknameTaken,
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		if mapped, ok := uniqueConstraintErrors[pgErr.ConstraintName]; ok {
			return mapped
		}
		return apperrors.ErrUserExists
	}

	return fmt.Errorf("db error: %w", err)
}

func rowToUser(row pgx.CollectableRow) (models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.Nickname, &u.Email, &u.Name,
		&u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}
