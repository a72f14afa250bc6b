package credentials

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/smallsquare/internal/apperrors"
)

func requireValidationError(t *testing.T, err error, field string, kind error) {
	t.Helper()

	require.Error(t, err)
	require.ErrorIs(t, err, apperrors.ErrValidation)
	require.ErrorIs(t, err, kind)

	var verr *apperrors.ValidationError
	require.True(t, errors.As(err, &verr), "should be ValidationError")
	require.Equal(t, field, verr.Field)
}

func TestCredentials_Username(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		for _, value := range []string{"user01", "username1", strings.Repeat("a", 20), "ABCdef123"} {
			u, err := NewUsername(value)

			require.NoError(t, err, "username %q should be valid", value)
			require.Equal(t, value, u.String())
		}
	})

	t.Run("blank", func(t *testing.T) {
		for _, value := range []string{"", "   ", "\t\n"} {
			_, err := NewUsername(value)

			requireValidationError(t, err, "username", apperrors.ErrFieldBlank)
		}
	})

	t.Run("wrong pattern", func(t *testing.T) {
		for _, value := range []string{"user1", strings.Repeat("a", 21), "user_name", "юзернейм1", "user name"} {
			_, err := NewUsername(value)

			requireValidationError(t, err, "username", apperrors.ErrFieldPattern)
		}
	})
}

func TestCredentials_Password(t *testing.T) {
	tests := []struct {
		name  string
		value string
		err   error
	}{
		{"exactly 8 chars", "abcdef1!", nil},
		{"long", "Passw0rd!Passw0rd!", nil},
		{"all specials accepted", "a1" + PasswordSpecials, nil},
		{"7 chars", "abcde1!", apperrors.ErrFieldPattern},
		{"missing special", "abcdefg1", apperrors.ErrFieldPattern},
		{"missing digit", "abcdefg!", apperrors.ErrFieldPattern},
		{"missing letter", "1234567!", apperrors.ErrFieldPattern},
		{"empty", "", apperrors.ErrFieldBlank},
		{"spaces only", "         ", apperrors.ErrFieldBlank},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPassword(tt.value)

			if tt.err == nil {
				require.NoError(t, err)
				require.Equal(t, tt.value, p.String())
				return
			}
			requireValidationError(t, err, "password", tt.err)
		})
	}
}

func TestCredentials_Nickname(t *testing.T) {
	tests := []struct {
		value string
		err   error
	}{
		{"abc", nil},
		{"nickname1", nil},
		{strings.Repeat("n", 15), nil},
		{"ab", apperrors.ErrFieldPattern},
		{strings.Repeat("n", 16), apperrors.ErrFieldPattern},
		{"nick-name", apperrors.ErrFieldPattern},
		{"", apperrors.ErrFieldBlank},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			_, err := NewNickname(tt.value)

			if tt.err == nil {
				require.NoError(t, err)
				return
			}
			requireValidationError(t, err, "nickname", tt.err)
		})
	}
}

func TestCredentials_Name(t *testing.T) {
	tests := []struct {
		value string
		err   error
	}{
		{"홍길동", nil},
		{"John", nil},
		{"a", nil},
		{strings.Repeat("가", 30), nil},
		{strings.Repeat("a", 30), nil},
		{strings.Repeat("a", 31), apperrors.ErrFieldPattern},
		{"홍John", apperrors.ErrFieldPattern},
		{"John Smith", apperrors.ErrFieldPattern},
		{"name1", apperrors.ErrFieldPattern},
		{"ㄱㄴ", apperrors.ErrFieldPattern},
		{" ", apperrors.ErrFieldBlank},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			_, err := NewName(tt.value)

			if tt.err == nil {
				require.NoError(t, err)
				return
			}
			requireValidationError(t, err, "name", tt.err)
		})
	}
}

func TestCredentials_Email(t *testing.T) {
	tests := []struct {
		value string
		err   error
	}{
		{"a@b.com", nil},
		{"first.last+tag@sub.example.org", nil},
		{"a@b", apperrors.ErrFieldPattern},
		{"a@b.c", apperrors.ErrFieldPattern},
		{"ab.com", apperrors.ErrFieldPattern},
		{"a b@c.com", apperrors.ErrFieldPattern},
		{"", apperrors.ErrFieldBlank},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			_, err := NewEmail(tt.value)

			if tt.err == nil {
				require.NoError(t, err)
				return
			}
			requireValidationError(t, err, "email", tt.err)
		})
	}
}

func TestCredentials_ParseSignup(t *testing.T) {
	valid := SignupInput{
		Username:      "username1",
		Password:      "Passw0rd!",
		CheckPassword: "Passw0rd!",
		Nickname:      "nickname1",
		Email:         "a@b.com",
		Name:          "name",
	}

	t.Run("ok", func(t *testing.T) {
		s, err := ParseSignup(valid)

		require.NoError(t, err)
		require.Equal(t, "username1", s.Username.String())
		require.Equal(t, "Passw0rd!", s.Password.String())
		require.Equal(t, "nickname1", s.Nickname.String())
		require.Equal(t, "a@b.com", s.Email.String())
		require.Equal(t, "name", s.Name.String())
	})

	t.Run("first invalid field wins", func(t *testing.T) {
		in := valid
		in.Password = "short"
		in.Email = "wrong"

		_, err := ParseSignup(in)

		requireValidationError(t, err, "password", apperrors.ErrFieldPattern)
	})

	t.Run("confirmation is not compared", func(t *testing.T) {
		in := valid
		in.CheckPassword = "different"

		_, err := ParseSignup(in)

		require.NoError(t, err)
	})
}

func TestCredentials_ParseProfile(t *testing.T) {
	_, err := ParseProfile(ProfileInput{Username: "username1", Email: "a@b.com", Nickname: "", Name: "name"})

	requireValidationError(t, err, "nickname", apperrors.ErrFieldBlank)
}
