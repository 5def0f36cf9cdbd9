package validation

import (
	"errors"
	"net/mail"
	"regexp"
	"unicode"
	"unicode/utf8"
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,30}$`)
	slugRegex     = regexp.MustCompile(`^[a-z0-9-]+$`)
)

const (
	minPasswordLength = 8
	maxPasswordLength = 128
	maxEmailLength    = 254
	maxSlugLength     = 200
)

// ValidatePassword requires 8-128 characters with at least one upper, one lower and one digit.
func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < minPasswordLength {
		return errors.New("password must be at least 8 characters")
	}
	if n > maxPasswordLength {
		return errors.New("password must be at most 128 characters")
	}

	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return errors.New("password must contain an uppercase letter, a lowercase letter and a digit")
	}
	return nil
}

// ValidateUsername checks length and the allowed character set.
func ValidateUsername(username string) error {
	if !usernameRegex.MatchString(username) {
		return errors.New("username must be 3-30 characters and contain only letters, numbers, underscores and hyphens")
	}
	return nil
}

// ValidateEmail checks the address parses and fits the column.
func ValidateEmail(email string) error {
	if len(email) > maxEmailLength {
		return errors.New("email must be at most 254 characters")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return errors.New("email must be a valid address")
	}
	return nil
}

func ValidateSlug(slug string) error {
	if slug == "" || len(slug) > maxSlugLength || !slugRegex.MatchString(slug) {
		return errors.New("slug must be 1-200 characters of lowercase letters, numbers and hyphens")
	}
	return nil
}
