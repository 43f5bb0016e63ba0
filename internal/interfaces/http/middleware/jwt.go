package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/isow/backend/internal/infrastructure/auth"
	"github.com/isow/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// JWT context keys
const (
	JWTClaimsKey    = "jwt_claims"
	JWTEmailKey     = "jwt_email"
	AuthHeaderKey   = "Authorization"
	BearerPrefix    = "Bearer "
	AccessTokenName = "access_token"
)

// TokenVerifier validates an access token and rejects revoked ones
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*auth.Claims, error)
}

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	Verifier TokenVerifier
	// SkipPaths are exact paths that don't require authentication
	SkipPaths []string
	// OnError replaces the default 401 JSON response, e.g. with a redirect
	OnError func(c *gin.Context, err error)
	Logger  *zap.Logger
}

// JWTAuthMiddleware requires a valid access token in the Authorization
// header or the access_token cookie
func JWTAuthMiddleware(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		for _, skip := range cfg.SkipPaths {
			if c.Request.URL.Path == skip {
				c.Next()
				return
			}
		}

		token := ExtractToken(c)
		if token == "" {
			handleAuthError(c, cfg, auth.ErrInvalidToken)
			return
		}

		claims, err := cfg.Verifier.VerifyToken(c.Request.Context(), token)
		if err != nil {
			handleAuthError(c, cfg, err)
			return
		}

		// The token must belong to the browser session that presents it.
		// A request without a session cookie adopts the token's session.
		if sid := GetSessionID(c); sid != "" && claims.SessionID != sid {
			if !c.GetBool(SessionIssuedKey) {
				handleAuthError(c, cfg, auth.ErrInvalidClaims)
				return
			}
			AdoptSession(c, claims.SessionID)
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTEmailKey, claims.Email)
		c.Next()
	}
}

// ExtractToken returns the bearer token, falling back to the access_token cookie
func ExtractToken(c *gin.Context) string {
	if h := c.GetHeader(AuthHeaderKey); strings.HasPrefix(h, BearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(h, BearerPrefix))
	}
	if v, err := c.Cookie(AccessTokenName); err == nil {
		return v
	}
	return ""
}

func handleAuthError(c *gin.Context, cfg JWTMiddlewareConfig, err error) {
	cfg.Logger.Debug("JWT authentication failed",
		zap.Error(err),
		zap.String("path", c.Request.URL.Path))

	if cfg.OnError != nil {
		cfg.OnError(c, err)
		c.Abort()
		return
	}

	code, message := dto.ErrCodeUnauthorized, "Authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, message = dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrTokenBlacklisted):
		code, message = dto.ErrCodeTokenRevoked, "Token has been revoked"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrInvalidClaims),
		errors.Is(err, auth.ErrInvalidTokenType), errors.Is(err, auth.ErrTokenNotYetValid):
		code, message = dto.ErrCodeTokenInvalid, "Invalid token"
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// RedirectOnAuthError sends unauthenticated page requests to target
func RedirectOnAuthError(target string) func(c *gin.Context, err error) {
	return func(c *gin.Context, _ error) {
		c.Redirect(http.StatusFound, target)
	}
}

// GetJWTClaims retrieves JWT claims from gin.Context
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(JWTClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}
