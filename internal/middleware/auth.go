package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sushihost/backend/internal/models"
)

// SessionCookie is the name of the session cookie set on login.
const SessionCookie = "session"

const contextUserKey = "current_user"

// CurrentUser returns the user resolved by the auth middleware, or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(contextUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// userLoader matches AuthService.CurrentUser.
type userLoader func(c *gin.Context) (*models.User, error)

// OptionalAuth resolves the session into the request context without
// blocking unauthenticated callers.
func OptionalAuth(load userLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := load(c)
		if err == nil && user != nil {
			c.Set(contextUserKey, user)
		}
		c.Next()
	}
}

// RequireSession rejects requests without a live session.
func RequireSession(load userLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := load(c)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve session"})
			c.Abort()
			return
		}
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}
		c.Set(contextUserKey, user)
		c.Next()
	}
}

// RequireVerified runs after RequireSession and additionally insists on
// a verified email address. Applied to endpoints that create durable,
// shareable resources.
func RequireVerified() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}
		if !user.EmailVerified {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "email verification required",
				"message": "Please verify your email address to use this feature",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin runs after RequireSession and insists on the admin role.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}
		if !user.IsAdmin() {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}
