package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const authorizationHeader = "Authorization"
const bearerPrefix = "Bearer "

// LoginPath is where unauthenticated clients are sent.
const LoginPath = "/login"

// RequireSession resolves the bearer token and injects the session into the
// request context. While the session store is still unverified requests get
// 503 rather than a login redirect.
func RequireSession(ac *Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(authorizationHeader))
		tok := ""
		if strings.HasPrefix(raw, bearerPrefix) {
			tok = strings.TrimSpace(strings.TrimPrefix(raw, bearerPrefix))
		}

		sess, state := ac.Resolve(c.Request.Context(), tok)
		switch state {
		case StateLoading:
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "auth not ready", "state": state})
			return
		case StateUnauthenticated:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated", "state": state, "redirect": LoginPath})
			return
		}

		ctx := WithSession(c.Request.Context(), sess)
		c.Request = c.Request.WithContext(ctx)

		// Also store on gin context for handler convenience.
		c.Set("user_id", sess.User.ID)
		c.Set("session_id", sess.ID)

		c.Next()
	}
}
