// Package middleware provides authentication middleware for the Gin web framework.
package middleware

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// Session keys for storing user information
const (
	// UserIDKey is the key used to store user ID in session
	UserIDKey = "user_id"
	// UserRoleKey is the key used to store the user's role in session
	UserRoleKey = "user_role"
)

func abortUnauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"error": "Authentication required",
		"code":  "UNAUTHORIZED",
	})
	c.Abort()
}

// sessionUser pulls the user ID and role out of the session, tolerating the
// float64 form JSON-serialized session stores produce
func sessionUser(c *gin.Context) (int, string, bool) {
	session := sessions.Default(c)

	rawID := session.Get(UserIDKey)
	if rawID == nil {
		return 0, "", false
	}
	userID, ok := rawID.(int)
	if !ok {
		idFloat, ok := rawID.(float64)
		if !ok {
			return 0, "", false
		}
		userID = int(idFloat)
	}

	role, ok := session.Get(UserRoleKey).(string)
	if !ok || role == "" {
		return 0, "", false
	}

	return userID, role, true
}

// RequireAuth returns a middleware that requires a valid session
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, role, ok := sessionUser(c)
		if !ok {
			abortUnauthorized(c)
			return
		}

		c.Set(UserIDKey, userID)
		c.Set(UserRoleKey, role)
		c.Next()
	}
}

// RequireEducator returns a middleware that requires an educator session
func RequireEducator() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, role, ok := sessionUser(c)
		if !ok {
			abortUnauthorized(c)
			return
		}

		if role != "educator" {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Educator access required",
				"code":  "FORBIDDEN",
			})
			c.Abort()
			return
		}

		c.Set(UserIDKey, userID)
		c.Set(UserRoleKey, role)
		c.Next()
	}
}
