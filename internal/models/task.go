package models

import "time"

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "Low"
	TaskPriorityMedium TaskPriority = "Medium"
	TaskPriorityHigh   TaskPriority = "High"
)

// IsValidPriority reports whether the priority is one of the known levels.
func IsValidPriority(p TaskPriority) bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

// Task belongs either to a project (project_id set) or to its owner alone.
// Authorization is always resolved through the project's membership when a
// project is set; the task carries no denormalized role data.
type Task struct {
	ID          string       `json:"id" db:"id"`
	Title       string       `json:"title" db:"title"`
	Description string       `json:"description" db:"description"`
	Priority    TaskPriority `json:"priority" db:"priority"`
	DueDate     *time.Time   `json:"due_date,omitempty" db:"due_date"`
	Tags        []string     `json:"tags" db:"tags"`
	Completed   bool         `json:"completed" db:"completed"`
	CompletedAt *time.Time   `json:"completed_at,omitempty" db:"completed_at"`
	OwnerID     string       `json:"owner_id" db:"owner_id"`
	ProjectID   *string      `json:"project_id,omitempty" db:"project_id"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"`
}
