package middleware

import (
	"errors"
	"quizhub/internal/apperr"
	"quizhub/internal/auth"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	userIDKey    = "user_id"
	userRoleKey  = "user_role"
	userEmailKey = "user_email"
)

type AccessTokenParser interface {
	ParseAccess(token string) (*auth.Claims, error)
}

// Auth is a middleware to protect routes that require a valid bearer access token.
func Auth(parser AccessTokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			abort(c, apperr.Unauthenticated(apperr.CodeUnauthorized, "missing or malformed bearer token"))
			return
		}

		claims, err := parser.ParseAccess(strings.TrimSpace(token))
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				abort(c, apperr.Unauthenticated(apperr.CodeTokenExpired, "access token has expired").Wrap(err))
				return
			}
			abort(c, apperr.Unauthenticated(apperr.CodeInvalidToken, "access token is invalid").Wrap(err))
			return
		}

		c.Set(userIDKey, claims.Subject)
		c.Set(userRoleKey, claims.Role)
		c.Set(userEmailKey, claims.Email)

		c.Next()
	}
}

// RequireRole must run after Auth.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(userRoleKey) != role {
			abort(c, apperr.Forbidden("requires role "+role))
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated caller set by Auth.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

func abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
