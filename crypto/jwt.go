package crypto

import (
	"errors"
	"fmt"
	"partyrelay/domain"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "partyrelay"

// JWTManager signs login tokens with HS256. The username travels in the
// subject claim.
type JWTManager struct {
	secretKey []byte
	maxAge    time.Duration
	parser    *jwt.Parser
}

func NewJWTManager(secretKey string, maxAge time.Duration) *JWTManager {
	return &JWTManager{
		secretKey: []byte(secretKey),
		maxAge:    maxAge,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(issuer),
			jwt.WithExpirationRequired(),
		),
	}
}

func (m *JWTManager) Generate(username string, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.maxAge)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.UnexpectedTokenGenerationError, err)
	}
	return signed, nil
}

// Verify returns the username carried by the token.
func (m *JWTManager) Verify(tokenString string) (string, error) {
	var claims jwt.RegisteredClaims
	token, err := m.parser.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return m.secretKey, nil
	})
	if err != nil {
		return "", verifyError(token, err)
	}
	if claims.Subject == "" {
		return "", domain.ErrCorruptedToken
	}
	return claims.Subject, nil
}

func verifyError(token *jwt.Token, err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		if token != nil && token.Method != nil && token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return domain.ErrInvalidSigningAlg
		}
		return domain.ErrInvalidTokenSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return domain.ErrExpiredToken
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing),
		errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return domain.ErrCorruptedToken
	default:
		return fmt.Errorf("%w: %w", domain.UnexpectedTokenVerificationError, err)
	}
}
