package user

import (
	"context"
	"errors"

	"github.com/nkiryanov/smallsquare/internal/apperrors"
	"github.com/nkiryanov/smallsquare/internal/credentials"
	"github.com/nkiryanov/smallsquare/internal/models"
	"github.com/nkiryanov/smallsquare/internal/repository"
)

type UserService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *UserService {
	return &UserService{storage: storage}
}

// Me returns user by id, inactive users included
func (s *UserService) Me(ctx context.Context, userID int64) (models.User, error) {
	var user models.User
	err := s.storage.InTx(ctx, func(storage repository.Storage) (err error) {
		user, err = storage.User().GetUserByID(ctx, userID)
		return err
	})
	return user, err
}

// UpdateProfile replaces username, email, nickname and name of the user
// Values the user holds already are not reported as taken
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, in credentials.ProfileInput) (models.User, error) {
	profile, err := credentials.ParseProfile(in)
	if err != nil {
		return models.User{}, err
	}

	var user models.User
	err = s.storage.InTx(ctx, func(storage repository.Storage) error {
		repo := storage.User()

		if _, err := repo.GetUserByID(ctx, userID); err != nil {
			return err
		}

		checks := []struct {
			get   func(context.Context, string) (models.User, error)
			value string
			err   error
		}{
			{repo.GetUserByUsername, profile.Username.String(), apperrors.ErrUsernameTaken},
			{repo.GetUserByEmail, profile.Email.String(), apperrors.ErrEmailTaken},
			{repo.GetUserByNickname, profile.Nickname.String(), apperrors.ErrNicknameTaken},
		}
		for _, c := range checks {
			holder, err := c.get(ctx, c.value)
			switch {
			case errors.Is(err, apperrors.ErrUserNotFound):
				continue
			case err != nil:
				return err
			case holder.ID != userID:
				return c.err
			}
		}

		user, err = repo.UpdateProfile(ctx, userID, repository.UpdateProfileParams{
			Username: profile.Username.String(),
			Email:    profile.Email.String(),
			Nickname: profile.Nickname.String(),
			Name:     profile.Name.String(),
		})
		return err
	})
	if err != nil {
		return models.User{}, err
	}

	return user, nil
}
