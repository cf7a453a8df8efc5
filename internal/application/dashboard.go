package application

import (
	"context"
	"fmt"
	"time"

	"github.com/tentimesukulele/BobiPlanCheck/internal/domain"
)

type TaskCounts struct {
	Total        int `json:"total"`
	Pending      int `json:"pending"`
	Completed    int `json:"completed"`
	Disputed     int `json:"disputed"`
	AssignedToMe int `json:"assigned_to_me"`
}

// CompletedPercent is 0 when there are no tasks.
func (c TaskCounts) CompletedPercent() float64 {
	if c.Total == 0 {
		return 0
	}

	return float64(c.Completed) * 100 / float64(c.Total)
}

type DashboardSnapshot struct {
	User           *domain.CurrentUser `json:"user,omitempty"`
	ActingMemberID int                 `json:"acting_member_id"`
	Online         bool                `json:"online"`
	PendingActions int                 `json:"pending_actions"`
	OldestPending  time.Time           `json:"oldest_pending"`
	Tasks          *TaskCounts         `json:"tasks,omitempty"`
	TasksError     string              `json:"tasks_error,omitempty"`
	WeekType       domain.WeekType     `json:"week_type"`
	CapturedAt     time.Time           `json:"captured_at"`
}

// Dashboard gathers the state shown by the status screen.
type Dashboard struct {
	backend  *Backend
	tasks    *TaskService
	schedule *ScheduleService
}

func NewDashboard(backend *Backend, tasks *TaskService, schedule *ScheduleService) *Dashboard {
	return &Dashboard{backend: backend, tasks: tasks, schedule: schedule}
}

// Snapshot never fails because of the network. Task counts are omitted when
// neither the server nor the cache can answer.
func (d *Dashboard) Snapshot(ctx context.Context) (DashboardSnapshot, error) {
	snapshot := DashboardSnapshot{
		ActingMemberID: d.backend.actor(ctx, 0),
		Online:         d.backend.Online(ctx),
		CapturedAt:     d.backend.clock.Now(),
	}

	if d.backend.identity != nil {
		if user, ok := d.backend.identity.CurrentUser(ctx); ok {
			snapshot.User = &user
		}
	}

	if d.backend.queue != nil {
		pending, err := d.backend.queue.Pending(ctx)
		if err != nil {
			return DashboardSnapshot{}, fmt.Errorf("read offline queue: %w", err)
		}
		snapshot.PendingActions = len(pending)
		if len(pending) > 0 {
			snapshot.OldestPending = pending[0].EnqueuedAt()
		}
	}

	if d.tasks != nil {
		tasks, err := d.tasks.All(ctx)
		if err != nil {
			snapshot.TasksError = err.Error()
		} else {
			counts := countTasks(tasks, snapshot.ActingMemberID)
			snapshot.Tasks = &counts
		}
	}

	if d.schedule != nil {
		snapshot.WeekType = d.schedule.StoredWeekType(ctx)
	}

	return snapshot, nil
}

func countTasks(tasks []domain.Task, memberID int) TaskCounts {
	counts := TaskCounts{Total: len(tasks)}
	for _, task := range tasks {
		switch task.Status {
		case domain.TaskStatusCompleted:
			counts.Completed++
		case domain.TaskStatusDisputed:
			counts.Disputed++
		default:
			counts.Pending++
		}
		if task.AssignedTo == memberID && task.Status != domain.TaskStatusCompleted {
			counts.AssignedToMe++
		}
	}

	return counts
}
