package services_test

import (
	"testing"
	"time"

	"github.com/m1moraru/Taskify/internal/models"
	"github.com/m1moraru/Taskify/internal/services"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCreateTask_DefaultsAndGeneratedFields(t *testing.T) {
	db := setupTestDB(t)
	svc := services.NewTaskService()
	user := registerTestUser(t, db, "maria@example.com")

	task, err := svc.CreateTask(db, user.ID, services.CreateTaskRequest{Title: "Buy milk"})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, task.ID)
	assert.Equal(t, user.ID, task.UserID)
	assert.Equal(t, models.PriorityLow, task.Priority)
	assert.Equal(t, models.StatusToDo, task.Status)
	assert.False(t, task.Archived)
	assert.False(t, task.CreatedAt.IsZero())
}

func TestCreateTask_Validation(t *testing.T) {
	db := setupTestDB(t)
	svc := services.NewTaskService()
	user := registerTestUser(t, db, "maria@example.com")

	tests := []struct {
		name    string
		req     services.CreateTaskRequest
		wantErr error
	}{
		{
			name:    "missing title",
			req:     services.CreateTaskRequest{Title: "   "},
			wantErr: services.ErrTitleRequired,
		},
		{
			name:    "priority outside the enumerated set",
			req:     services.CreateTaskRequest{Title: "Buy milk", Priority: "Urgent"},
			wantErr: services.ErrInvalidPriority,
		},
		{
			name:    "status outside the enumerated set",
			req:     services.CreateTaskRequest{Title: "Buy milk", Status: "Done"},
			wantErr: services.ErrInvalidStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateTask(db, user.ID, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)

			// Rejected input must not leave a row behind.
			var count int64
			db.Model(&models.Task{}).Count(&count)
			assert.Zero(t, count)
		})
	}
}

func TestListTasks_OwnerScopedInsertionOrder(t *testing.T) {
	db := setupTestDB(t)
	svc := services.NewTaskService()
	owner := registerTestUser(t, db, "maria@example.com")
	other := registerTestUser(t, db, "ana@example.com")

	first, err := svc.CreateTask(db, owner.ID, services.CreateTaskRequest{Title: "first"})
	require.NoError(t, err)
	second, err := svc.CreateTask(db, owner.ID, services.CreateTaskRequest{Title: "second"})
	require.NoError(t, err)
	_, err = svc.CreateTask(db, other.ID, services.CreateTaskRequest{Title: "foreign"})
	require.NoError(t, err)

	tasks, err := svc.ListTasks(db, owner.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, first.ID, tasks[0].ID)
	assert.Equal(t, second.ID, tasks[1].ID)
}

func TestUpdateTask_PartialPatch(t *testing.T) {
	db := setupTestDB(t)
	svc := services.NewTaskService()
	user := registerTestUser(t, db, "maria@example.com")

	deadline := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	task, err := svc.CreateTask(db, user.ID, services.CreateTaskRequest{
		Title:       "Buy milk",
		Description: "Two liters",
		Priority:    models.PriorityMedium,
		Deadline:    &deadline,
	})
	require.NoError(t, err)

	status := models.StatusInProgress
	updated, err := svc.UpdateTask(db, user.ID, task.ID, services.TaskPatch{Status: &status})
	require.NoError(t, err)

	// Only the provided field changed.
	assert.Equal(t, models.StatusInProgress, updated.Status)
	assert.Equal(t, "Buy milk", updated.Title)
	assert.Equal(t, "Two liters", updated.Description)
	assert.Equal(t, models.PriorityMedium, updated.Priority)
	require.NotNil(t, updated.Deadline)
	assert.True(t, deadline.Equal(*updated.Deadline))
	assert.False(t, updated.Archived)
}

func TestUpdateTask_ArchiveLeavesOtherFieldsAlone(t *testing.T) {
	db := setupTestDB(t)
	svc := services.NewTaskService()
	user := registerTestUser(t, db, "maria@example.com")

	task, err := svc.CreateTask(db, user.ID, services.CreateTaskRequest{
		Title:    "Buy milk",
		Priority: models.PriorityHigh,
	})
	require.NoError(t, err)

	archived := true
	updated, err := svc.UpdateTask(db, user.ID, task.ID, services.TaskPatch{Archived: &archived})
	require.NoError(t, err)

	assert.True(t, updated.Archived)
	assert.Equal(t, "Buy milk", updated.Title)
	assert.Equal(t, models.PriorityHigh, updated.Priority)
	assert.Equal(t, models.StatusToDo, updated.Status)
}

func TestUpdateTask_ClearDeadline(t *testing.T) {
	db := setupTestDB(t)
	svc := services.NewTaskService()
	user := registerTestUser(t, db, "maria@example.com")

	deadline := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	task, err := svc.CreateTask(db, user.ID, services.CreateTaskRequest{
		Title:    "Buy milk",
		Deadline: &deadline,
	})
	require.NoError(t, err)

	// A patch that does not mention the deadline keeps it.
	archived := true
	updated, err := svc.UpdateTask(db, user.ID, task.ID, services.TaskPatch{Archived: &archived})
	require.NoError(t, err)
	require.NotNil(t, updated.Deadline)

	updated, err = svc.UpdateTask(db, user.ID, task.ID, services.TaskPatch{ClearDeadline: true})
	require.NoError(t, err)
	assert.Nil(t, updated.Deadline)

	tasks, err := svc.ListTasks(db, user.ID)
	require.NoError(t, err)
	assert.Nil(t, tasks[0].Deadline)
}

func TestUpdateTask_InvalidEnumRejectedBeforeMerge(t *testing.T) {
	db := setupTestDB(t)
	svc := services.NewTaskService()
	user := registerTestUser(t, db, "maria@example.com")

	task, err := svc.CreateTask(db, user.ID, services.CreateTaskRequest{Title: "Buy milk"})
	require.NoError(t, err)

	bad := models.Priority("Urgent")
	_, err = svc.UpdateTask(db, user.ID, task.ID, services.TaskPatch{Priority: &bad})
	assert.ErrorIs(t, err, services.ErrInvalidPriority)

	tasks, err := svc.ListTasks(db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PriorityLow, tasks[0].Priority)
}

func TestUpdateTask_ForeignTaskReadsAsNotFound(t *testing.T) {
	db := setupTestDB(t)
	svc := services.NewTaskService()
	owner := registerTestUser(t, db, "maria@example.com")
	intruder := registerTestUser(t, db, "ana@example.com")

	task, err := svc.CreateTask(db, owner.ID, services.CreateTaskRequest{Title: "private"})
	require.NoError(t, err)

	title := "hijacked"
	_, err = svc.UpdateTask(db, intruder.ID, task.ID, services.TaskPatch{Title: &title})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	err = svc.DeleteTask(db, intruder.ID, task.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// The owner's task is untouched.
	tasks, err := svc.ListTasks(db, owner.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "private", tasks[0].Title)
}

func TestDeleteTask_SecondDeleteReportsNotFound(t *testing.T) {
	db := setupTestDB(t)
	svc := services.NewTaskService()
	user := registerTestUser(t, db, "maria@example.com")

	task, err := svc.CreateTask(db, user.ID, services.CreateTaskRequest{Title: "Buy milk"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTask(db, user.ID, task.ID))
	assert.ErrorIs(t, svc.DeleteTask(db, user.ID, task.ID), gorm.ErrRecordNotFound)
}
