package models

import "time"

// Task is a single to-do item owned by one user.
type Task struct {
	ID          int64     `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	Title       string    `json:"title" db:"title"`
	Description *string   `json:"description" db:"description"`
	Completed   bool      `json:"completed" db:"completed"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// NewTask holds validated input for creating a task.
type NewTask struct {
	Title       string
	Description *string
}

// TaskChanges holds validated, partial input for updating a task.
// A nil Title leaves the title untouched. Description is applied only
// when DescriptionSet is true; a nil Description then clears it.
type TaskChanges struct {
	Title          *string
	Description    *string
	DescriptionSet bool
}

// Empty reports whether the changes would leave the task's fields as they are.
func (c TaskChanges) Empty() bool {
	return c.Title == nil && !c.DescriptionSet
}

// StatusFilter selects tasks by completion state when listing.
type StatusFilter string

const (
	StatusAll       StatusFilter = "all"
	StatusPending   StatusFilter = "pending"
	StatusCompleted StatusFilter = "completed"
)

// ParseStatusFilter maps the query value to a filter. An empty value means all.
func ParseStatusFilter(raw string) (StatusFilter, bool) {
	switch StatusFilter(raw) {
	case "", StatusAll:
		return StatusAll, true
	case StatusPending:
		return StatusPending, true
	case StatusCompleted:
		return StatusCompleted, true
	}
	return "", false
}

// Completed returns the completed flag to filter on, or nil for no filter.
func (f StatusFilter) Completed() *bool {
	var v bool
	switch f {
	case StatusPending:
		v = false
	case StatusCompleted:
		v = true
	default:
		return nil
	}
	return &v
}
