package middleware

import (
	"errors"
	"net/http"

	"github.com/m1moraru/Taskify/internal/sessions"
	"github.com/m1moraru/Taskify/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

const (
	// UserIDKey is the gin context key the auth gate stores the resolved
	// identity under. Handlers read it via CurrentUserID.
	UserIDKey = "user_id"

	// SessionIDKey holds the session identifier for logout handling.
	SessionIDKey = "session_id"
)

// SessionAuth resolves the session cookie through the injected store and
// attaches the authenticated user identity to the request context. Requests
// without a valid, unexpired session are rejected with 401 before the
// downstream handler runs.
func SessionAuth(store sessions.Store, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(cookieName)
		if err != nil || sessionID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthenticated",
				"message": "Authentication required",
			})
			return
		}

		session, err := store.Get(c.Request.Context(), sessionID)
		if err != nil {
			if !errors.Is(err, sessions.ErrSessionNotFound) {
				logger.Get().Error().Err(err).Msg("failed to resolve session")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "failed to resolve session",
				})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthenticated",
				"message": "Session is invalid or has expired",
			})
			return
		}

		c.Set(UserIDKey, session.UserID)
		c.Set(SessionIDKey, session.ID)
		c.Next()
	}
}

// CurrentUserID returns the identity the auth gate attached to the context.
func CurrentUserID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(UserIDKey)
	if !exists {
		return uuid.Nil, false
	}
	userID, ok := value.(uuid.UUID)
	return userID, ok
}
