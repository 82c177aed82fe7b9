package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/creditledger/internal/domain/errors"
	"github.com/polkiloo/creditledger/internal/domain/model"
	pkgAuth "github.com/polkiloo/creditledger/internal/pkg/auth"
)

const (
	// UserIDContextKey is a gin context key for authenticated user identifier.
	UserIDContextKey = "userID"
	authCookieName   = "creditledger_token"
)

// TokenParser resolves an auth token to a user id.
type TokenParser interface {
	ParseToken(token string) (int64, error)
}

// RoleResolver looks up the role of an authenticated user.
type RoleResolver interface {
	UserRole(ctx context.Context, userID int64) (model.Role, error)
}

// AuthRequired ensures user is authenticated before accessing handler.
func AuthRequired(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		userID, err := parser.ParseToken(token)
		if err != nil {
			if errors.Is(err, pkgAuth.ErrInvalidToken) {
				c.AbortWithStatus(http.StatusUnauthorized)
				return
			}
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}

		c.Set(UserIDContextKey, userID)
		c.Next()
	}
}

// AdminRequired lets through only users with the ADMIN role. Must run after AuthRequired.
func AdminRequired(roles RoleResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetInt64(UserIDContextKey)
		if userID == 0 {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		role, err := roles.UserRole(c.Request.Context(), userID)
		switch {
		case errors.Is(err, domainErrors.ErrNotFound):
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		case err != nil:
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		case role != model.RoleAdmin:
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}

	if cookie, err := c.Cookie(authCookieName); err == nil {
		return cookie
	}
	return ""
}

// SetAuthCookie writes auth token cookie to response.
func SetAuthCookie(c *gin.Context, token string) {
	c.SetCookie(authCookieName, token, 0, "/", "", false, true)
	c.Header("Authorization", "Bearer "+token)
}
