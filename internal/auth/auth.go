// Package auth is a local stand-in for sign-in. It checks that credentials
// are present and well formed and hands back an identity label. Nothing is
// verified or stored; the label scopes the collection and grants no access.
package auth

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

var (
	ErrMissingCredentials = errors.New("please enter both email and password")
	ErrMissingFields      = errors.New("please fill in all fields")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters long")
)

// SignIn returns the identity for email when the credentials pass the local
// checks.
func SignIn(email, password string) (string, error) {
	identity := strings.TrimSpace(email)
	if identity == "" || password == "" {
		return "", ErrMissingCredentials
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return "", ErrPasswordTooShort
	}
	return identity, nil
}

// SignUp checks a new account form. Success only means the form is
// acceptable; no account is created.
func SignUp(email, password, confirm string) error {
	if strings.TrimSpace(email) == "" || password == "" || confirm == "" {
		return ErrMissingFields
	}
	if password != confirm {
		return ErrPasswordMismatch
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}
