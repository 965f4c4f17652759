package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	SessionCookie = "dash_session"
	sessionIDKey  = "session_id"
)

// Session makes sure every browser carries a session id cookie and exposes it
// to handlers through SessionID.
func Session(secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie(SessionCookie)
		if err == nil {
			if _, perr := uuid.Parse(sid); perr != nil {
				err = perr
			}
		}
		if err != nil {
			sid = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(SessionCookie, sid, 0, "/", "", secure, true)
		}
		c.Set(sessionIDKey, sid)
		c.Next()
	}
}

// SessionID returns the id set by Session, or "" when it did not run.
func SessionID(c *gin.Context) string {
	return c.GetString(sessionIDKey)
}
