package auth

import (
	"context"
	"partyrelay/domain"
	"time"
)

type UserStore interface {
	Register(ctx context.Context, username string, now time.Time) (domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)
}

type TokenManager interface {
	Generate(username string, now time.Time) (string, error)
	Verify(token string) (string, error)
}

type AuthService interface {
	Login(ctx context.Context, username string) (string, error)
	VerifyToken(token string) (string, error)
}
