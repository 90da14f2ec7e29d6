package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/m1moraru/Taskify/internal/middleware"
	"github.com/m1moraru/Taskify/internal/services"
	"github.com/m1moraru/Taskify/internal/sessions"
	"github.com/m1moraru/Taskify/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type UserHandler struct {
	db          *gorm.DB
	userService services.UserService
	store       sessions.Store
}

func NewUserHandler(db *gorm.DB, userService services.UserService, store sessions.Store) *UserHandler {
	return &UserHandler{db: db, userService: userService, store: store}
}

func (h *UserHandler) GetMe(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	user, err := h.userService.GetUser(h.db, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		logger.Get().Error().Err(err).Msg("failed to load profile")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get user profile"})
		return
	}

	c.JSON(http.StatusOK, userSummaryOf(user.ID, user.FirstName, user.Email, user.CreatedAt))
}

// GetUser serves /api/users/:id. Accounts are strictly isolated: asking for
// any id other than your own reads the same as asking for one that does not
// exist.
func (h *UserHandler) GetUser(c *gin.Context) {
	userID, targetID, ok := h.resolveOwnID(c)
	if !ok {
		return
	}

	user, err := h.userService.GetUser(h.db, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		logger.Get().Error().Err(err).Str("user_id", targetID.String()).Msg("failed to load user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get user"})
		return
	}

	c.JSON(http.StatusOK, userSummaryOf(user.ID, user.FirstName, user.Email, user.CreatedAt))
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	userID, _, ok := h.resolveOwnID(c)
	if !ok {
		return
	}

	var patch services.UserPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Validation failed",
			"details": err.Error(),
		})
		return
	}

	user, err := h.userService.UpdateUser(h.db, userID, patch)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, services.ErrEmailTaken):
			c.JSON(http.StatusConflict, gin.H{
				"error":   "Update failed",
				"details": "An account with this email already exists",
			})
		default:
			logger.Get().Error().Err(err).Msg("failed to update user")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update user"})
		}
		return
	}

	c.JSON(http.StatusOK, userSummaryOf(user.ID, user.FirstName, user.Email, user.CreatedAt))
}

// DeleteUser removes the account, its tasks and every live session, then
// expires the cookie.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	userID, _, ok := h.resolveOwnID(c)
	if !ok {
		return
	}

	if err := h.userService.DeleteUser(h.db, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		logger.Get().Error().Err(err).Msg("failed to delete user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete user"})
		return
	}

	if err := h.store.DeleteAllForUser(c.Request.Context(), userID); err != nil {
		logger.Get().Warn().Err(err).Msg("failed to invalidate sessions for deleted user")
	}

	c.Status(http.StatusNoContent)
}

// resolveOwnID reads the :id parameter and enforces per-user isolation: a
// well-formed id that is not the caller's own is reported as not found, so
// the response never reveals whether the account exists.
func (h *UserHandler) resolveOwnID(c *gin.Context) (own uuid.UUID, target uuid.UUID, ok bool) {
	userID, exists := middleware.CurrentUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return uuid.Nil, uuid.Nil, false
	}

	targetID := uuid.FromStringOrNil(c.Param("id"))
	if targetID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return uuid.Nil, uuid.Nil, false
	}

	return userID, targetID, true
}

func userSummaryOf(id uuid.UUID, firstName, email string, createdAt time.Time) UserSummary {
	return UserSummary{
		ID:        id.String(),
		FirstName: firstName,
		Email:     email,
		CreatedAt: createdAt.UTC().Format(time.RFC3339),
	}
}
