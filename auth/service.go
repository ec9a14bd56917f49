package auth

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"
)

const MaxUsernameLength = 32

type service struct {
	users        UserStore
	tokenManager TokenManager
	now          func() time.Time
}

func NewService(users UserStore, tokenManager TokenManager) *service {
	return &service{users: users, tokenManager: tokenManager, now: time.Now}
}

// Login registers username and returns a token carrying it.
func (as *service) Login(ctx context.Context, username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", ErrMissingUsername
	}
	if utf8.RuneCountInString(username) > MaxUsernameLength {
		return "", ErrUsernameTooLong
	}

	now := as.now()
	if _, err := as.users.Register(ctx, username, now); err != nil {
		return "", err
	}

	return as.tokenManager.Generate(username, now)
}

// VerifyToken returns the username if the token is valid, else, it returns an error
func (as *service) VerifyToken(token string) (string, error) {
	return as.tokenManager.Verify(token)
}
