package auth

import "errors"

var (
	ErrMissingUsername = errors.New("missing-username")
	ErrUsernameTooLong = errors.New("username-too-long")
)
