package utils

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/nyaruka/phonenumbers"
)

const PhoneRegion = "RU"

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-zА-Яа-яЁё]+([ \-][A-Za-zА-Яа-яЁё]+)*$`)
	emailPattern    = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)
)

func ValidUsername(name string) bool {
	n := len([]rune(name))
	return n >= 2 && n <= 30 && usernamePattern.MatchString(name)
}

func ValidEmail(email string) bool {
	return len(email) <= 80 && emailPattern.MatchString(email)
}

func ValidPhone(phone string) bool {
	num, err := phonenumbers.Parse(phone, PhoneRegion)
	if err != nil {
		return false
	}
	return phonenumbers.IsValidNumber(num)
}

// NormalizePhone returns the E.164 form of a valid phone number.
func NormalizePhone(phone string) string {
	num, err := phonenumbers.Parse(phone, PhoneRegion)
	if err != nil {
		return phone
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}

// ValidPassword requires 8-50 chars with at least one letter and one digit.
func ValidPassword(password string) bool {
	if len(password) < 8 || len(password) > 50 {
		return false
	}
	var letter, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsSpace(r):
			return false
		}
	}
	return letter && digit
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RegisterValidators adds the username, phone and password tags to gin's
// binding validator.
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return ValidUsername(fl.Field().String())
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return ValidPhone(fl.Field().String())
	})
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return ValidPassword(fl.Field().String())
	})
}
