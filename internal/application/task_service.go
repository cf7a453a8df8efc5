package application

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tentimesukulele/BobiPlanCheck/internal/domain"
)

type TaskService struct {
	backend *Backend
}

func NewTaskService(backend *Backend) *TaskService {
	return &TaskService{backend: backend}
}

func (s *TaskService) All(ctx context.Context) ([]domain.Task, error) {
	return cachedFetch(ctx, s.backend, "tasks_all", func(ctx context.Context) ([]domain.Task, error) {
		return fetchList[domain.Task](ctx, s.backend, tasksPath)
	})
}

func (s *TaskService) AssignedTo(ctx context.Context, memberID int) ([]domain.Task, error) {
	return fetchList[domain.Task](ctx, s.backend, withQuery(tasksPath, map[string]any{"assigned_to": memberID}))
}

func (s *TaskService) CreatedBy(ctx context.Context, memberID int) ([]domain.Task, error) {
	return fetchList[domain.Task](ctx, s.backend, withQuery(tasksPath, map[string]any{"created_by": memberID}))
}

func (s *TaskService) Get(ctx context.Context, id int) (domain.Task, error) {
	if err := requireSavedID("id", id); err != nil {
		return domain.Task{}, err
	}

	return fetchOne[domain.Task](ctx, s.backend, taskPath(id))
}

// Create attributes the task to createdBy. Offline, it returns a placeholder
// with a negative id and queues the request.
func (s *TaskService) Create(ctx context.Context, createdBy int, req domain.CreateTaskRequest) (domain.Task, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return domain.Task{}, err
	}
	createdBy = s.backend.actor(ctx, createdBy)
	req.CreatedBy = createdBy

	result, err := s.backend.mutate(ctx, mutation{
		kind:     domain.ActionCreate,
		method:   http.MethodPost,
		endpoint: tasksPath,
		body:     req,
		actorID:  createdBy,
	})
	if err != nil {
		return domain.Task{}, fmt.Errorf("create task: %w", err)
	}
	if result.queued != nil {
		now := s.backend.now()
		return domain.Task{
			ID:              s.backend.placeholderID(),
			Title:           req.Title,
			Description:     req.Description,
			CreatedBy:       createdBy,
			AssignedTo:      req.AssignedTo,
			Status:          domain.TaskStatusPending,
			TaskType:        req.TaskType,
			WeeklyStartDate: req.WeeklyStartDate,
			WeeklyEndDate:   req.WeeklyEndDate,
			DueDate:         req.DueDate,
			CreatedAt:       now,
			UpdatedAt:       now,
		}, nil
	}

	return decodeRequired[domain.Task](result, "create task")
}

func (s *TaskService) Complete(ctx context.Context, id int) (*domain.PendingAction, error) {
	if err := requireSavedID("id", id); err != nil {
		return nil, err
	}

	result, err := s.backend.mutate(ctx, mutation{
		kind:     domain.ActionUpdate,
		method:   http.MethodPut,
		endpoint: completeTaskPath(id),
	})
	if err != nil {
		return nil, fmt.Errorf("complete task %d: %w", id, err)
	}

	return result.queued, nil
}

func (s *TaskService) Reassign(ctx context.Context, id int, newAssignee int) (*domain.PendingAction, error) {
	if err := requireSavedID("id", id); err != nil {
		return nil, err
	}
	req := domain.ReassignTaskRequest{NewAssignedTo: newAssignee}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	result, err := s.backend.mutate(ctx, mutation{
		kind:     domain.ActionUpdate,
		method:   http.MethodPut,
		endpoint: reassignTaskPath(id),
		body:     req,
	})
	if err != nil {
		return nil, fmt.Errorf("reassign task %d: %w", id, err)
	}

	return result.queued, nil
}

func (s *TaskService) Delete(ctx context.Context, id int) (*domain.PendingAction, error) {
	if err := requireSavedID("id", id); err != nil {
		return nil, err
	}

	result, err := s.backend.mutate(ctx, mutation{
		kind:     domain.ActionDelete,
		method:   http.MethodDelete,
		endpoint: taskPath(id),
	})
	if err != nil {
		return nil, fmt.Errorf("delete task %d: %w", id, err)
	}

	return result.queued, nil
}
