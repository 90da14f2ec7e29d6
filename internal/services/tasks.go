package services

import (
	"strings"
	"time"

	"github.com/m1moraru/Taskify/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type CreateTaskRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Priority    models.Priority `json:"priority"`
	Status      models.Status   `json:"status"`
	Deadline    *time.Time      `json:"deadline"`
}

// TaskPatch is the explicit partial-update payload: only non-nil fields are
// validated and merged into the stored row. Setting Archived to true is how
// a task gets archived; there is no separate endpoint for it.
type TaskPatch struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Priority    *models.Priority `json:"priority"`
	Status      *models.Status   `json:"status"`
	Deadline    *time.Time       `json:"deadline"`
	Archived    *bool            `json:"archived"`

	// ClearDeadline removes the stored deadline; it takes precedence over
	// Deadline. Set when the request sends an explicit empty deadline.
	ClearDeadline bool `json:"-"`
}

type TaskService interface {
	ListTasks(db *gorm.DB, userID uuid.UUID) ([]models.Task, error)
	CreateTask(db *gorm.DB, userID uuid.UUID, req CreateTaskRequest) (*models.Task, error)
	UpdateTask(db *gorm.DB, userID, id uuid.UUID, patch TaskPatch) (*models.Task, error)
	DeleteTask(db *gorm.DB, userID, id uuid.UUID) error
}

type TaskServiceImpl struct{}

func NewTaskService() *TaskServiceImpl {
	return &TaskServiceImpl{}
}

// ListTasks returns every task the caller owns, archived ones included, in
// insertion order. Filtering the archive view is the client's concern.
func (s *TaskServiceImpl) ListTasks(db *gorm.DB, userID uuid.UUID) ([]models.Task, error) {
	tasks := []models.Task{}
	err := db.Where("user_id = ?", userID).Order("created_at asc").Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *TaskServiceImpl) CreateTask(db *gorm.DB, userID uuid.UUID, req CreateTaskRequest) (*models.Task, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	priority := req.Priority
	if priority == "" {
		priority = models.PriorityLow
	}
	if !priority.Valid() {
		return nil, ErrInvalidPriority
	}

	status := req.Status
	if status == "" {
		status = models.StatusToDo
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	task := models.Task{
		ID:          uuid.Must(uuid.NewV4()),
		UserID:      userID,
		Title:       title,
		Description: req.Description,
		Priority:    priority,
		Status:      status,
		Deadline:    req.Deadline,
		Archived:    false,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := db.Create(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask merges the patch into the task after validating enum fields.
// The lookup is scoped to the owner, so a task belonging to someone else is
// indistinguishable from a missing one.
func (s *TaskServiceImpl) UpdateTask(db *gorm.DB, userID, id uuid.UUID, patch TaskPatch) (*models.Task, error) {
	if patch.Priority != nil && !patch.Priority.Valid() {
		return nil, ErrInvalidPriority
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, ErrTitleRequired
	}

	var task models.Task
	err := db.Where("id = ? AND user_id = ?", id, userID).First(&task).Error
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		task.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}
	if patch.Status != nil {
		task.Status = *patch.Status
	}
	if patch.ClearDeadline {
		task.Deadline = nil
	} else if patch.Deadline != nil {
		task.Deadline = patch.Deadline
	}
	if patch.Archived != nil {
		task.Archived = *patch.Archived
	}

	task.UpdatedAt = time.Now()
	if err := db.Save(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// DeleteTask permanently removes the task. Deleting twice reports not found
// the second time.
func (s *TaskServiceImpl) DeleteTask(db *gorm.DB, userID, id uuid.UUID) error {
	result := db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Task{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
