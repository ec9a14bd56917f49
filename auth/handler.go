package auth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"partyrelay/domain"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

var (
	ErrMissingUsernameStr      = "Username is required"
	ErrUsernameTooLongStr      = "username-too-long"
	ErrServerTimeoutStr        = "server-timeout"
	ErrInvalidRequestFormatStr = "bad-request-format"
	ErrUnknownStr              = "unknown-error"
)

const TokenCookie = "token"

type authHandler struct {
	authService  AuthService
	cookieMaxAge time.Duration
	logger       zerolog.Logger
}

func NewAuthHandler(service AuthService, cookieMaxAge time.Duration, logger zerolog.Logger) *authHandler {
	return &authHandler{authService: service, cookieMaxAge: cookieMaxAge, logger: logger}
}

func (ah *authHandler) LoginHandler(ctx *gin.Context) {
	var loginRequest struct {
		Username string `json:"username"`
	}

	err := ctx.ShouldBindJSON(&loginRequest)

	if err != nil && !errors.Is(err, io.EOF) {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": ErrInvalidRequestFormatStr})
		return
	}

	token, err := ah.authService.Login(ctx.Request.Context(), loginRequest.Username)

	if err != nil {
		switch {
		case errors.Is(err, ErrMissingUsername):
			ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": ErrMissingUsernameStr})
		case errors.Is(err, ErrUsernameTooLong):
			ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": ErrUsernameTooLongStr})
		case errors.Is(err, context.DeadlineExceeded):
			ctx.AbortWithStatusJSON(http.StatusGatewayTimeout, gin.H{"error": ErrServerTimeoutStr})
		case errors.Is(err, context.Canceled):
			ctx.AbortWithStatus(499)
		case errors.Is(err, domain.UnexpectedTokenGenerationError):
			ah.logger.Error().Err(err).
				Str("ip", ctx.ClientIP()).
				Str("user_agent", ctx.Request.UserAgent()).
				Msg("Login: token generation failed")
			ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": ErrUnknownStr})
		default:
			ah.logger.Error().Err(err).
				Str("ip", ctx.ClientIP()).
				Str("username", loginRequest.Username).
				Msg("Login: unexpected error")
			ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": ErrUnknownStr})
		}
		return
	}

	ctx.SetSameSite(http.SameSiteNoneMode)
	ctx.SetCookie(TokenCookie, token, int(ah.cookieMaxAge.Seconds()), "/", "", true, true)
	ctx.JSON(http.StatusOK, gin.H{"success": true, "username": strings.TrimSpace(loginRequest.Username)})
}

func (ah *authHandler) LogoutHandler(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteNoneMode)
	ctx.SetCookie(TokenCookie, "", -1, "/", "", true, true)
	ctx.JSON(http.StatusOK, gin.H{"success": true})
}

// WhoAmIHandler reports the username carried by the login cookie.
func (ah *authHandler) WhoAmIHandler(ctx *gin.Context) {
	token, err := ctx.Cookie(TokenCookie)
	if err != nil || token == "" {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing-token"})
		return
	}

	username, err := ah.authService.VerifyToken(token)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrExpiredToken):
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "expired-token"})
		case errors.Is(err, domain.ErrInvalidSigningAlg),
			errors.Is(err, domain.ErrInvalidTokenSignature),
			errors.Is(err, domain.ErrCorruptedToken):
			ah.logger.Warn().Err(err).Str("ip", ctx.ClientIP()).Msg("WhoAmI: suspicious token")
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid-token"})
		default:
			ah.logger.Error().Err(err).Msg("WhoAmI: token verification failed")
			ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": ErrUnknownStr})
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"username": username})
}

// Register mounts the login routes.
func (ah *authHandler) Register(r gin.IRoutes) {
	r.POST("/login", ah.LoginHandler)
	r.POST("/logout", ah.LogoutHandler)
	r.GET("/me", ah.WhoAmIHandler)
}
