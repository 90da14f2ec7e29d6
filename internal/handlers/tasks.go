package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/m1moraru/Taskify/internal/middleware"
	"github.com/m1moraru/Taskify/internal/models"
	"github.com/m1moraru/Taskify/internal/services"
	"github.com/m1moraru/Taskify/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type TaskHandler struct {
	db          *gorm.DB
	taskService services.TaskService
}

func NewTaskHandler(db *gorm.DB, taskService services.TaskService) *TaskHandler {
	return &TaskHandler{db: db, taskService: taskService}
}

type createTaskInput struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Priority    models.Priority `json:"priority"`
	Status      models.Status   `json:"status"`
	Deadline    *string         `json:"deadline"`
}

type taskPatchInput struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Priority    *models.Priority `json:"priority"`
	Status      *models.Status   `json:"status"`
	Deadline    *string          `json:"deadline"`
	Archived    *bool            `json:"archived"`
}

func (h *TaskHandler) GetTasks(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	tasks, err := h.taskService.ListTasks(h.db, userID)
	if err != nil {
		handleTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input createTaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Validation failed",
			"details": err.Error(),
		})
		return
	}

	deadline, err := parseDeadline(input.Deadline)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Validation failed",
			"details": err.Error(),
		})
		return
	}

	task, err := h.taskService.CreateTask(h.db, userID, services.CreateTaskRequest{
		Title:       input.Title,
		Description: input.Description,
		Priority:    input.Priority,
		Status:      input.Status,
		Deadline:    deadline,
	})
	if err != nil {
		handleTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, task)
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	id := uuid.FromStringOrNil(c.Param("id"))

	var input taskPatchInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Validation failed",
			"details": err.Error(),
		})
		return
	}

	deadline, err := parseDeadline(input.Deadline)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Validation failed",
			"details": err.Error(),
		})
		return
	}

	task, err := h.taskService.UpdateTask(h.db, userID, id, services.TaskPatch{
		Title:       input.Title,
		Description: input.Description,
		Priority:    input.Priority,
		Status:      input.Status,
		Deadline:    deadline,
		Archived:    input.Archived,
		// An explicit empty deadline clears it; an absent field leaves it.
		ClearDeadline: input.Deadline != nil && *input.Deadline == "",
	})
	if err != nil {
		handleTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	id := uuid.FromStringOrNil(c.Param("id"))

	if err := h.taskService.DeleteTask(h.db, userID, id); err != nil {
		handleTaskError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// parseDeadline accepts both a bare date and a full RFC 3339 timestamp, the
// two shapes the frontend date picker has been observed to send.
func parseDeadline(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, *value); err == nil {
		return &t, nil
	}
	if t, err := time.Parse("2006-01-02", *value); err == nil {
		return &t, nil
	}
	return nil, errors.New("deadline must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
}

func handleTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
	case services.IsValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Validation failed",
			"details": err.Error(),
		})
	default:
		logger.Get().Error().Err(err).Msg("task request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process task request"})
	}
}
