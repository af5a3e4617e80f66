package domain

import "time"

// Core domain models used internally. Entity lifecycle (create/update/delete)
// belongs to the surrounding CRUD layer; the scoring and search services only
// read these, except for Project.HealthScore which the health service writes.

type ProjectStatus string

const (
	ProjectDraft      ProjectStatus = "draft"
	ProjectPlanning   ProjectStatus = "planning"
	ProjectInProgress ProjectStatus = "in_progress"
	ProjectOnHold     ProjectStatus = "on_hold"
	ProjectCompleted  ProjectStatus = "completed"
	ProjectCancelled  ProjectStatus = "cancelled"
)

// Preliminary reports whether the project has no meaningful task data yet.
func (s ProjectStatus) Preliminary() bool {
	return s == ProjectDraft || s == ProjectPlanning
}

// Finished reports whether the project is done and its health score frozen.
func (s ProjectStatus) Finished() bool {
	return s == ProjectCompleted || s == ProjectCancelled
}

type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskInReview   TaskStatus = "in_review"
	TaskBlocked    TaskStatus = "blocked"
	TaskCompleted  TaskStatus = "completed"
	TaskCancelled  TaskStatus = "cancelled"
)

type Project struct {
	ID             string
	Name           string
	Description    string
	Status         ProjectStatus
	Budget         float64 // 0 when unset
	ActualCost     float64
	HealthScore    int // always in [0,100]
	Progress       int
	OwnerID        *string
	ManagerID      *string
	CreatedByID    string
	OrganizationID string
	StartDate      *time.Time
	EndDate        *time.Time
	UpdatedAt      time.Time
}

type Task struct {
	ID          string
	ProjectID   *string // nil for orphan tasks, excluded from scoring
	Title       string
	Description string
	Status      TaskStatus
	Priority    string
	AssigneeID  *string
	DueDate     *time.Time
	CompletedAt *time.Time
	UpdatedAt   time.Time
}

type Partner struct {
	ID             string
	CompanyName    string
	Name           string
	Email          string
	ContactPerson  string
	Type           string
	Rating         float64
	Status         string
	OrganizationID string
	UpdatedAt      time.Time
}
