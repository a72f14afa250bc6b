package credentials

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// Characters at least one of which must be present in a password
const PasswordSpecials = `!@#$%^&*()_+-=[]{};':"\|,.<>/?`

var (
	usernameRe = regexp.MustCompile(`^[A-Za-z0-9]{6,20}$`)
	nicknameRe = regexp.MustCompile(`^[A-Za-z0-9]{3,15}$`)
	hangulRe   = regexp.MustCompile(`^[가-힣]+$`)
	latinRe    = regexp.MustCompile(`^[A-Za-z]+$`)
	mailboxRe  = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Errors are impossible here: tags are non-empty and functions are not nil
	_ = v.RegisterValidation("username", matchString(usernameRe))
	_ = v.RegisterValidation("nickname", matchString(nicknameRe))
	_ = v.RegisterValidation("mailbox", matchString(mailboxRe))
	_ = v.RegisterValidation("personname", validatePersonName)
	_ = v.RegisterValidation("password", validatePassword)

	return v
}

func matchString(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

// Either hangul only or latin letters only, up to 30 characters
func validatePersonName(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if utf8.RuneCountInString(name) > 30 {
		return false
	}
	return hangulRe.MatchString(name) || latinRe.MatchString(name)
}

func validatePassword(fl validator.FieldLevel) bool {
	password := fl.Field().String()
	if utf8.RuneCountInString(password) < 8 {
		return false
	}

	var letter, digit, special bool
	for _, r := range password {
		switch {
		case 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z':
			letter = true
		case '0' <= r && r <= '9':
			digit = true
		case strings.ContainsRune(PasswordSpecials, r):
			special = true
		}
	}

	return letter && digit && special
}
