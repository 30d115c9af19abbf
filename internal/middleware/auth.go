package middleware

import (
	"net/http"
	"strings"

	"github.com/01moynul/resell-golang/internal/auth"
	"github.com/gin-gonic/gin"
)

// Context keys set by the auth middleware.
const (
	userIDKey   = "userID"
	userRoleKey = "userRole"
)

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(c *gin.Context) (string, bool) {
	parts := strings.Split(c.GetHeader("Authorization"), " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// AuthMiddleware creates a gin.HandlerFunc that only lets staff with a
// valid token through.
func AuthMiddleware(v *auth.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. --- Get Authorization Header ---
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}
		tokenString, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token format (must be Bearer)"})
			return
		}

		// 2. --- Validate Token ---
		id, err := v.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		// 3. --- Success ---
		c.Set(userIDKey, id.UserID)
		c.Set(userRoleKey, id.Role)
		c.Next()
	}
}

// OptionalAuth attaches the caller's identity when a valid token is sent
// and otherwise lets the request through anonymously. Used by the public
// forms, which record an owner when there is one.
func OptionalAuth(v *auth.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString, ok := bearerToken(c); ok {
			if id, err := v.ValidateToken(tokenString); err == nil {
				c.Set(userIDKey, id.UserID)
				c.Set(userRoleKey, id.Role)
			}
		}
		c.Next()
	}
}

// AdminMiddleware must run after AuthMiddleware. It refuses anyone whose
// token does not carry the administrator role.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := UserID(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in context (AuthMiddleware must run first)"})
			return
		}
		if c.GetString(userRoleKey) != auth.RoleAdministrator {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied: Administrator role required"})
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated staff id, if any.
func UserID(c *gin.Context) (int64, bool) {
	raw, exists := c.Get(userIDKey)
	if !exists {
		return 0, false
	}
	id, ok := raw.(int64)
	return id, ok
}
