package domain

import (
	"slices"
	"strings"
	"time"
)

// TaskStatus represents a task completion state.
type TaskStatus string

// TaskStatus values.
const (
	TaskStatusTodo TaskStatus = "todo"
	TaskStatusDone TaskStatus = "done"
)

var validTaskStatuses = []TaskStatus{TaskStatusTodo, TaskStatusDone}

// EntityTypeProject is the entity type used for project-scoped tasks.
const EntityTypeProject = "project"

// Task is one checklist entry attached to an entity, usually a project.
type Task struct {
	ID          string
	EntityType  string
	EntityID    string
	Title       string
	Status      TaskStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// TaskInput holds input values for NewTask.
type TaskInput struct {
	ID         string
	EntityType string
	EntityID   string
	Title      string
	Status     TaskStatus
}

// NewTask constructs a task, defaulting to a project-scoped todo.
func NewTask(in TaskInput, now time.Time) (Task, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.EntityType = strings.ToLower(strings.TrimSpace(in.EntityType))
	in.EntityID = strings.TrimSpace(in.EntityID)
	in.Title = strings.TrimSpace(in.Title)

	if in.ID == "" || in.EntityID == "" {
		return Task{}, ErrInvalidID
	}
	if in.Title == "" {
		return Task{}, ErrInvalidTitle
	}
	if in.EntityType == "" {
		in.EntityType = EntityTypeProject
	}
	status, err := NormalizeTaskStatus(in.Status)
	if err != nil {
		return Task{}, err
	}

	task := Task{
		ID:         in.ID,
		EntityType: in.EntityType,
		EntityID:   in.EntityID,
		Title:      in.Title,
		Status:     status,
		CreatedAt:  now.UTC(),
		UpdatedAt:  now.UTC(),
	}
	if status == TaskStatusDone {
		ts := now.UTC()
		task.CompletedAt = &ts
	}
	return task, nil
}

// NormalizeTaskStatus canonicalizes a status value, defaulting to todo.
func NormalizeTaskStatus(status TaskStatus) (TaskStatus, error) {
	status = TaskStatus(strings.ToLower(strings.TrimSpace(string(status))))
	if status == "" {
		return TaskStatusTodo, nil
	}
	if !slices.Contains(validTaskStatuses, status) {
		return "", ErrInvalidStatus
	}
	return status, nil
}

// Complete marks the task done.
func (t *Task) Complete(now time.Time) {
	ts := now.UTC()
	t.Status = TaskStatusDone
	t.CompletedAt = &ts
	t.UpdatedAt = ts
}

// Reopen moves the task back to todo.
func (t *Task) Reopen(now time.Time) {
	t.Status = TaskStatusTodo
	t.CompletedAt = nil
	t.UpdatedAt = now.UTC()
}
