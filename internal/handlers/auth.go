package handlers

import (
	"errors"
	"net/http"

	"github.com/m1moraru/Taskify/internal/config"
	"github.com/m1moraru/Taskify/internal/middleware"
	"github.com/m1moraru/Taskify/internal/services"
	"github.com/m1moraru/Taskify/internal/sessions"
	"github.com/m1moraru/Taskify/pkg/logger"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AuthHandler struct {
	db          *gorm.DB
	userService services.UserService
	store       sessions.Store
	session     config.SessionConfig
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func NewAuthHandler(db *gorm.DB, userService services.UserService, store sessions.Store, session config.SessionConfig) *AuthHandler {
	return &AuthHandler{db: db, userService: userService, store: store, session: session}
}

// Login verifies the credentials, establishes a session and delivers its id
// in an HTTP-only cookie. Unknown email and wrong password produce the same
// response.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "invalid_credentials",
			"message": "Invalid email or password",
		})
		return
	}

	user, err := h.userService.LoginUser(h.db, req.Email, req.Password)
	if err != nil {
		if !errors.Is(err, services.ErrInvalidCredentials) {
			logger.Get().Error().Err(err).Msg("login lookup failed")
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Login failed",
			})
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "invalid_credentials",
			"message": "Invalid email or password",
		})
		return
	}

	session, err := h.store.Create(c.Request.Context(), user.ID)
	if err != nil {
		logger.Get().Error().Err(err).Msg("failed to create session")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Login failed",
		})
		return
	}

	h.setSessionCookie(c, session.ID, int(h.session.TTL.Seconds()))

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged in successfully",
		"user": userSummaryOf(user.ID, user.FirstName, user.Email, user.CreatedAt),
	})
}

// Logout invalidates the current session and expires the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	sessionID := c.GetString(middleware.SessionIDKey)
	if sessionID != "" {
		if err := h.store.Delete(c.Request.Context(), sessionID); err != nil {
			logger.Get().Warn().Err(err).Msg("failed to delete session on logout")
		}
	}

	h.setSessionCookie(c, "", -1)
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.session.CookieName, value, maxAge, "/", "", h.session.CookieSecure, true)
}
