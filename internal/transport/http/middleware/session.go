package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	ContextSessionIDKey = "session_id"
	SessionCookieName   = "cerebro_session"
	SessionHeaderName   = "X-Session-ID"

	maxSessionIDLen = 64
)

// Session resolves the conversation key of the caller. An explicit header
// wins over the cookie; a caller with neither gets a fresh cookie.
func Session(secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := strings.TrimSpace(c.GetHeader(SessionHeaderName))
		if sessionID == "" {
			if cookie, err := c.Cookie(SessionCookieName); err == nil {
				sessionID = strings.TrimSpace(cookie)
			}
		}
		if sessionID == "" || len(sessionID) > maxSessionIDLen {
			sessionID = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(SessionCookieName, sessionID, 0, "/", "", secure, true)
		}

		c.Set(ContextSessionIDKey, sessionID)
		c.Header(SessionHeaderName, sessionID)
		c.Next()
	}
}

func SessionID(c *gin.Context) string {
	return c.GetString(ContextSessionIDKey)
}
