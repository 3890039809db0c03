package domain

import "time"

// Priority is the urgency of a todo.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"

	DefaultPriority = PriorityMedium
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Domain entity: the stored todo record.
// Does not depend on Gin or any store driver.
type Todo struct {
	ID          string
	Title       string
	Description string
	Priority    Priority
	Completed   bool
	DueDate     *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Patch is a partial update. Nil fields are left untouched.
// ClearDueDate removes the due date and takes precedence over DueDate.
type Patch struct {
	Title        *string
	Description  *string
	Priority     *Priority
	Completed    *bool
	DueDate      *time.Time
	ClearDueDate bool
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil &&
		p.Completed == nil && p.DueDate == nil && !p.ClearDueDate
}

// Apply returns t with the patch fields applied.
func (p Patch) Apply(t Todo) Todo {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.ClearDueDate {
		t.DueDate = nil
	} else if p.DueDate != nil {
		d := *p.DueDate
		t.DueDate = &d
	}
	return t
}
