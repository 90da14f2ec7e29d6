package handlers

import (
	"errors"
	"net/http"

	"github.com/m1moraru/Taskify/internal/services"
	"github.com/m1moraru/Taskify/pkg/logger"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type RegisterHandler struct {
	db          *gorm.DB
	userService services.UserService
}

func NewRegisterHandler(db *gorm.DB, userService services.UserService) *RegisterHandler {
	return &RegisterHandler{db: db, userService: userService}
}

type UserSummary struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

func (h *RegisterHandler) Register(c *gin.Context) {
	var req services.RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Validation failed",
			"details": err.Error(),
		})
		return
	}

	user, err := h.userService.RegisterUser(h.db, req)
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{
				"error":   "Registration failed",
				"details": "An account with this email already exists",
			})
			return
		}
		logger.Get().Error().Err(err).Msg("registration failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Registration failed",
			"details": "An unexpected error occurred. Please try again later.",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Welcome to Taskify! Your account has been created successfully.",
		"user": userSummaryOf(user.ID, user.FirstName, user.Email, user.CreatedAt),
	})
}
