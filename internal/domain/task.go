package domain

import "strings"

type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusDisputed  TaskStatus = "disputed"
)

type TaskType string

const (
	TaskTypeOneTime TaskType = "one_time"
	TaskTypeWeekly  TaskType = "weekly"
)

type Task struct {
	ID              int        `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	CreatedBy       int        `json:"created_by"`
	AssignedTo      int        `json:"assigned_to"`
	Status          TaskStatus `json:"status"`
	TaskType        TaskType   `json:"task_type"`
	WeeklyStartDate string     `json:"weekly_start_date,omitempty"`
	WeeklyEndDate   string     `json:"weekly_end_date,omitempty"`
	DueDate         string     `json:"due_date,omitempty"`
	CompletedAt     string     `json:"completed_at,omitempty"`
	CreatedAt       string     `json:"created_at,omitempty"`
	UpdatedAt       string     `json:"updated_at,omitempty"`
}

// Placeholder reports whether the task was fabricated locally while offline.
func (t Task) Placeholder() bool {
	return t.ID < 0
}

type CreateTaskRequest struct {
	Title           string   `json:"title"`
	Description     string   `json:"description,omitempty"`
	AssignedTo      int      `json:"assigned_to"`
	TaskType        TaskType `json:"task_type"`
	WeeklyStartDate string   `json:"weekly_start_date,omitempty"`
	WeeklyEndDate   string   `json:"weekly_end_date,omitempty"`
	DueDate         string   `json:"due_date,omitempty"`
	CreatedBy       int      `json:"created_by,omitempty"`
}

func (r *CreateTaskRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	if r.TaskType == "" {
		r.TaskType = TaskTypeOneTime
	}
}

func (r CreateTaskRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return invalid("title", "is required")
	}
	if r.AssignedTo <= 0 {
		return invalid("assigned_to", "must reference a family member")
	}

	switch r.TaskType {
	case "", TaskTypeOneTime:
	case TaskTypeWeekly:
		if r.WeeklyStartDate != "" && r.WeeklyEndDate != "" && r.WeeklyEndDate < r.WeeklyStartDate {
			return invalid("weekly_end_date", "must not precede weekly_start_date")
		}
	default:
		return invalid("task_type", "must be one_time or weekly")
	}

	return nil
}

type ReassignTaskRequest struct {
	NewAssignedTo int `json:"new_assigned_to"`
}

func (r ReassignTaskRequest) Validate() error {
	if r.NewAssignedTo <= 0 {
		return invalid("new_assigned_to", "must reference a family member")
	}

	return nil
}
