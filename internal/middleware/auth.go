package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const ContextKeyUserID = "user_id"

// TokenResolver maps a bearer token to a user id. The workspace
// implements it against the session table, which is the sole authority
// on live sessions.
type TokenResolver interface {
	ResolveToken(token string) (int64, error)
}

// Auth validates the caller's token and stashes the resolved user id in
// the request context. Tokens arrive as "Authorization: Bearer <token>"
// or, for websocket upgrades where headers are awkward, as ?token=.
func Auth(resolver TokenResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := bearerToken(c)
		if tok == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		userID, err := resolver.ResolveToken(tok)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(ContextKeyUserID, userID)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
		return ""
	}
	return c.Query("token")
}

// GetUserID returns the authenticated caller's id, or 0 when the
// middleware did not run.
func GetUserID(c *gin.Context) int64 {
	val, exists := c.Get(ContextKeyUserID)
	if !exists {
		return 0
	}
	id, ok := val.(int64)
	if !ok {
		return 0
	}
	return id
}
