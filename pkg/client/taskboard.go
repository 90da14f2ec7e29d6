package client

import (
	"context"

	"github.com/m1moraru/Taskify/internal/models"

	"github.com/gofrs/uuid"
)

// TaskBoard holds the task list a view renders. Every mutation goes through
// the server first and the local list only changes once the server confirms,
// so the board never displays state that does not match a persisted record.
type TaskBoard struct {
	client *Client
	tasks  []models.Task
}

func NewTaskBoard(c *Client) *TaskBoard {
	return &TaskBoard{client: c}
}

// Refresh replaces the local list with server truth.
func (b *TaskBoard) Refresh(ctx context.Context) error {
	tasks, err := b.client.ListTasks(ctx)
	if err != nil {
		return err
	}
	b.tasks = tasks
	return nil
}

// Create submits the task and re-fetches the list on success.
func (b *TaskBoard) Create(ctx context.Context, task NewTask) (*models.Task, error) {
	created, err := b.client.CreateTask(ctx, task)
	if err != nil {
		return nil, err
	}
	if err := b.Refresh(ctx); err != nil {
		return nil, err
	}
	return created, nil
}

// Update patches the task and folds the confirmed result into the list.
func (b *TaskBoard) Update(ctx context.Context, id uuid.UUID, patch TaskPatch) (*models.Task, error) {
	updated, err := b.client.UpdateTask(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	b.replace(*updated)
	return updated, nil
}

// Archive flags the task archived. The board keeps it (the archive view
// still shows it) but Active() stops returning it.
func (b *TaskBoard) Archive(ctx context.Context, id uuid.UUID) error {
	archived, err := b.client.ArchiveTask(ctx, id)
	if err != nil {
		return err
	}
	b.replace(*archived)
	return nil
}

// Delete removes the task from the local list only after the server reports
// success; a failed call leaves the board exactly as it was.
func (b *TaskBoard) Delete(ctx context.Context, id uuid.UUID) error {
	if err := b.client.DeleteTask(ctx, id); err != nil {
		return err
	}

	kept := b.tasks[:0]
	for _, task := range b.tasks {
		if task.ID != id {
			kept = append(kept, task)
		}
	}
	b.tasks = kept
	return nil
}

// Active returns the default view: tasks not yet archived.
func (b *TaskBoard) Active() []models.Task {
	var active []models.Task
	for _, task := range b.tasks {
		if !task.Archived {
			active = append(active, task)
		}
	}
	return active
}

// Archived returns the archive view.
func (b *TaskBoard) Archived() []models.Task {
	var archived []models.Task
	for _, task := range b.tasks {
		if task.Archived {
			archived = append(archived, task)
		}
	}
	return archived
}

// Tasks returns the full list, archived included.
func (b *TaskBoard) Tasks() []models.Task {
	return b.tasks
}

// PrioritySummary counts active tasks per priority for the dashboard
// overview.
func (b *TaskBoard) PrioritySummary() map[models.Priority]int {
	summary := map[models.Priority]int{
		models.PriorityLow:    0,
		models.PriorityMedium: 0,
		models.PriorityHigh:   0,
	}
	for _, task := range b.Active() {
		summary[task.Priority]++
	}
	return summary
}

func (b *TaskBoard) replace(updated models.Task) {
	for i, task := range b.tasks {
		if task.ID == updated.ID {
			b.tasks[i] = updated
			return
		}
	}
	b.tasks = append(b.tasks, updated)
}
