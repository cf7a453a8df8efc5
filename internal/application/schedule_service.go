package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/tentimesukulele/BobiPlanCheck/internal/domain"
	"github.com/tentimesukulele/BobiPlanCheck/internal/ports"
	"go.uber.org/zap"
)

const WeekTypeKey = "currentWeekType"

type ScheduleService struct {
	backend *Backend
	store   ports.KeyValueStore
}

func NewScheduleService(backend *Backend, store ports.KeyValueStore) *ScheduleService {
	return &ScheduleService{backend: backend, store: store}
}

func (s *ScheduleService) ForStudent(ctx context.Context, studentID int) ([]domain.ScheduleEntry, error) {
	if err := requireSavedID("student_id", studentID); err != nil {
		return nil, err
	}

	return cachedFetch(ctx, s.backend, fmt.Sprintf("schedule_student_%d", studentID), func(ctx context.Context) ([]domain.ScheduleEntry, error) {
		return fetchList[domain.ScheduleEntry](ctx, s.backend, studentSchedulePath(studentID))
	})
}

func (s *ScheduleService) All(ctx context.Context) ([]domain.ScheduleEntry, error) {
	return fetchList[domain.ScheduleEntry](ctx, s.backend, schedulePath)
}

// ForWeek flattens the per-day grouping of the week endpoint.
func (s *ScheduleService) ForWeek(ctx context.Context, studentID int, week domain.WeekType) ([]domain.ScheduleEntry, error) {
	if err := requireSavedID("student_id", studentID); err != nil {
		return nil, err
	}
	if _, err := domain.ParseWeekType(string(week)); err != nil {
		return nil, err
	}

	envelope, err := s.backend.get(ctx, weekSchedulePath(studentID, week))
	if err != nil {
		return nil, err
	}

	var grouped domain.WeekSchedule
	if err := decodeData(envelope, &grouped); err != nil {
		return nil, fmt.Errorf("decode week schedule: %w", err)
	}

	return grouped.Flatten(), nil
}

func (s *ScheduleService) Today(ctx context.Context, studentID int) ([]domain.ScheduleEntry, error) {
	if err := requireSavedID("student_id", studentID); err != nil {
		return nil, err
	}

	envelope, err := s.backend.get(ctx, todaySchedulePath(studentID))
	if err != nil {
		return nil, err
	}

	var today struct {
		Schedule []domain.ScheduleEntry `json:"schedule"`
	}
	if err := decodeData(envelope, &today); err != nil {
		return nil, fmt.Errorf("decode today's schedule: %w", err)
	}
	if today.Schedule == nil {
		return []domain.ScheduleEntry{}, nil
	}

	return today.Schedule, nil
}

// CurrentWeekType asks the server and falls back to the school calendar.
func (s *ScheduleService) CurrentWeekType(ctx context.Context) domain.WeekType {
	week, err := s.serverWeekType(ctx)
	if err == nil {
		return week
	}

	fallback := domain.WeekTypeFor(s.backend.clock.Now())
	s.backend.logger.Debug("current week type unavailable, using school calendar",
		zap.String("week_type", string(fallback)),
		zap.Error(err),
	)

	return fallback
}

func (s *ScheduleService) serverWeekType(ctx context.Context) (domain.WeekType, error) {
	envelope, err := s.backend.get(ctx, currentWeekPath)
	if err != nil {
		return "", err
	}

	var current struct {
		CurrentWeekType string `json:"current_week_type"`
	}
	if err := decodeData(envelope, &current); err != nil {
		return "", fmt.Errorf("decode current week: %w", err)
	}
	if current.CurrentWeekType == "" {
		return domain.WeekA, nil
	}

	return domain.ParseWeekType(current.CurrentWeekType)
}

// StoredWeekType returns the manually selected week, initialising it from
// CurrentWeekType when nothing is stored.
func (s *ScheduleService) StoredWeekType(ctx context.Context) domain.WeekType {
	raw, err := s.store.Get(ctx, WeekTypeKey)
	if err == nil {
		if week, parseErr := domain.ParseWeekType(raw); parseErr == nil {
			return week
		}
	} else if !errors.Is(err, domain.ErrNotFound) {
		s.backend.logger.Warn("read stored week type failed", zap.Error(err))
	}

	week := s.CurrentWeekType(ctx)
	if err := s.store.Set(ctx, WeekTypeKey, string(week)); err != nil {
		s.backend.logger.Warn("store week type failed", zap.Error(err))
	}

	return week
}

func (s *ScheduleService) SetWeekType(ctx context.Context, week domain.WeekType) error {
	parsed, err := domain.ParseWeekType(string(week))
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, WeekTypeKey, string(parsed)); err != nil {
		return fmt.Errorf("%w: store week type: %w", domain.ErrPersistence, err)
	}

	return nil
}

// Create adds a lesson. Week BOTH is sent as one entry per week type.
// Offline entries come back as placeholders with negative ids.
func (s *ScheduleService) Create(ctx context.Context, req domain.CreateScheduleRequest) ([]domain.ScheduleEntry, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	created := make([]domain.ScheduleEntry, 0, 2)
	for _, part := range req.Split() {
		entry, err := s.createOne(ctx, part)
		if err != nil {
			return created, err
		}
		created = append(created, entry)
	}

	return created, nil
}

func (s *ScheduleService) createOne(ctx context.Context, req domain.CreateScheduleRequest) (domain.ScheduleEntry, error) {
	result, err := s.backend.mutate(ctx, mutation{
		kind:     domain.ActionCreate,
		method:   http.MethodPost,
		endpoint: schedulePath,
		body:     req,
	})
	if err != nil {
		return domain.ScheduleEntry{}, fmt.Errorf("create %s week lesson: %w", req.WeekType, err)
	}
	if result.queued != nil {
		now := s.backend.now()
		return domain.ScheduleEntry{
			ID:        s.backend.placeholderID(),
			StudentID: req.StudentID,
			WeekType:  req.WeekType,
			DayOfWeek: req.DayOfWeek,
			Subject:   req.Subject,
			StartTime: req.StartTime,
			EndTime:   req.EndTime,
			Teacher:   req.Teacher,
			Classroom: req.Classroom,
			CreatedAt: now,
			UpdatedAt: now,
		}, nil
	}

	return decodeRequired[domain.ScheduleEntry](result, "create lesson")
}

func (s *ScheduleService) Update(ctx context.Context, id int, req domain.UpdateScheduleRequest) (*domain.PendingAction, error) {
	if err := requireSavedID("id", id); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	result, err := s.backend.mutate(ctx, mutation{
		kind:     domain.ActionUpdate,
		method:   http.MethodPut,
		endpoint: scheduleEntryPath(id),
		body:     req,
	})
	if err != nil {
		return nil, fmt.Errorf("update lesson %d: %w", id, err)
	}

	return result.queued, nil
}

func (s *ScheduleService) Delete(ctx context.Context, id int) (*domain.PendingAction, error) {
	if err := requireSavedID("id", id); err != nil {
		return nil, err
	}

	result, err := s.backend.mutate(ctx, mutation{
		kind:     domain.ActionDelete,
		method:   http.MethodDelete,
		endpoint: scheduleEntryPath(id),
	})
	if err != nil {
		return nil, fmt.Errorf("delete lesson %d: %w", id, err)
	}

	return result.queued, nil
}
