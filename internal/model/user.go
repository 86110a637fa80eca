// Package model defines domain entities for the application.
package model

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode"
)

// Validation errors for user fields.
var (
	ErrUsernameRequired   = errors.New("username is required")
	ErrUsernameWhitespace = errors.New("username cannot contain spaces")
	ErrEmailRequired      = errors.New("email is required")
	ErrEmailInvalid       = errors.New("email is invalid")
	ErrPasswordRequired   = errors.New("password is required")
)

// emailPattern is the loose "something@something.something" shape used both
// to validate registrations and to classify login identifiers.
var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// User represents a registered account.
// PasswordHash and Token are never serialized.
type User struct {
	ID           string    `json:"_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Token        string    `json:"-"`
	CreatedAt    time.Time `json:"-"`
}

// Sanitized returns a copy of the user with credential fields cleared.
func (u *User) Sanitized() *User {
	return &User{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// LooksLikeEmail reports whether s has an email shape.
func LooksLikeEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidateUsername checks that a username is present and has no whitespace.
func ValidateUsername(username string) error {
	if username == "" {
		return ErrUsernameRequired
	}
	for _, r := range username {
		if unicode.IsSpace(r) {
			return ErrUsernameWhitespace
		}
	}
	return nil
}

// ValidateEmail checks that an email is present and email-shaped.
func ValidateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return ErrEmailRequired
	}
	if !LooksLikeEmail(email) {
		return ErrEmailInvalid
	}
	return nil
}
