package mw

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SessionState reports whether a user is logged in.
type SessionState interface {
	LoggedIn() bool
}

// RequireSession rejects requests with 401 while no session token is held.
func RequireSession(session SessionState) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !session.LoggedIn() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
			return
		}
		c.Next()
	}
}
