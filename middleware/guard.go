package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/duynhne/credential-service/internal/core/domain"
	"github.com/duynhne/credential-service/internal/session"
)

// Gin context keys populated by ResolveSession.
const (
	ContextUserKey    = "auth.user"
	ContextSessionKey = "auth.session"
)

// ResolveSession reads the session cookie, resolves it against the session
// Authority, and stores the user id and session in the request context.
// It never aborts: a missing or invalid cookie simply leaves both unset,
// and downstream handlers or RequireUser decide what that means.
func ResolveSession(authority *session.Authority) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(authority.CookieName())
		if err != nil {
			c.Next()
			return
		}

		s, err := authority.Resolve(c.Request.Context(), cookie)
		if err != nil {
			// Treat a store fault during resolution as an anonymous
			// request rather than failing every endpoint behind it.
			zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("Session resolution failed")
			c.Next()
			return
		}
		if s == nil {
			c.Next()
			return
		}

		c.Set(ContextUserKey, s.UserID)
		c.Set(ContextSessionKey, s)
		c.Next()
	}
}

// RequireUser gates protected endpoints: requests without a resolved
// session are rejected with 401 before the handler runs.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get(ContextUserKey); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Unauthorized",
			})
			return
		}
		c.Next()
	}
}

// SessionFromContext returns the resolved session, if any.
func SessionFromContext(c *gin.Context) (*domain.SessionRow, bool) {
	v, ok := c.Get(ContextSessionKey)
	if !ok {
		return nil, false
	}
	s, ok := v.(*domain.SessionRow)
	return s, ok
}

// UserIDFromContext returns the resolved user id, if any.
func UserIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}
