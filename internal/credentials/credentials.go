// Package credentials holds validated identity fields.
//
// Every type here is built by its constructor only, so a value of it is always valid.
package credentials

import (
	"strings"

	"github.com/nkiryanov/smallsquare/internal/apperrors"
)

// Check value against the validator tag
// Blank values are reported separately from values that do not match the rule
func check(field string, value string, tag string) error {
	if validate.Var(strings.TrimSpace(value), "required") != nil {
		return apperrors.NewValidationError(field, apperrors.KindBlank)
	}
	if validate.Var(value, tag) != nil {
		return apperrors.NewValidationError(field, apperrors.KindPattern)
	}
	return nil
}

type Username struct{ value string }

func NewUsername(raw string) (Username, error) {
	if err := check("username", raw, "username"); err != nil {
		return Username{}, err
	}
	return Username{value: raw}, nil
}

func (u Username) String() string { return u.value }

// Plain text password that satisfies strength rules
type Password struct{ value string }

func NewPassword(raw string) (Password, error) {
	if err := check("password", raw, "password"); err != nil {
		return Password{}, err
	}
	return Password{value: raw}, nil
}

func (p Password) String() string { return p.value }

type Nickname struct{ value string }

func NewNickname(raw string) (Nickname, error) {
	if err := check("nickname", raw, "nickname"); err != nil {
		return Nickname{}, err
	}
	return Nickname{value: raw}, nil
}

func (n Nickname) String() string { return n.value }

type Name struct{ value string }

func NewName(raw string) (Name, error) {
	if err := check("name", raw, "personname"); err != nil {
		return Name{}, err
	}
	return Name{value: raw}, nil
}

func (n Name) String() string { return n.value }

type Email struct{ value string }

func NewEmail(raw string) (Email, error) {
	if err := check("email", raw, "mailbox"); err != nil {
		return Email{}, err
	}
	return Email{value: raw}, nil
}

func (e Email) String() string { return e.value }

// Raw signup payload as it comes from the client
type SignupInput struct {
	Username      string
	Password      string
	CheckPassword string
	Nickname      string
	Email         string
	Name          string
}

// Validated signup fields
type Signup struct {
	Username Username
	Password Password
	Nickname Nickname
	Email    Email
	Name     Name
}

// ParseSignup validates fields in order username, password, nickname, name, email.
// The first invalid field is returned as *apperrors.ValidationError.
// Password confirmation is not compared here.
func ParseSignup(in SignupInput) (Signup, error) {
	var (
		s   Signup
		err error
	)

	if s.Username, err = NewUsername(in.Username); err != nil {
		return Signup{}, err
	}
	if s.Password, err = NewPassword(in.Password); err != nil {
		return Signup{}, err
	}
	if s.Nickname, err = NewNickname(in.Nickname); err != nil {
		return Signup{}, err
	}
	if s.Name, err = NewName(in.Name); err != nil {
		return Signup{}, err
	}
	if s.Email, err = NewEmail(in.Email); err != nil {
		return Signup{}, err
	}

	return s, nil
}

// Raw profile update payload
type ProfileInput struct {
	Username string
	Email    string
	Nickname string
	Name     string
}

type Profile struct {
	Username Username
	Email    Email
	Nickname Nickname
	Name     Name
}

func ParseProfile(in ProfileInput) (Profile, error) {
	var (
		p   Profile
		err error
	)

	if p.Username, err = NewUsername(in.Username); err != nil {
		return Profile{}, err
	}
	if p.Email, err = NewEmail(in.Email); err != nil {
		return Profile{}, err
	}
	if p.Nickname, err = NewNickname(in.Nickname); err != nil {
		return Profile{}, err
	}
	if p.Name, err = NewName(in.Name); err != nil {
		return Profile{}, err
	}

	return p, nil
}
