package application

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/tentimesukulele/BobiPlanCheck/internal/domain"
)

const DefaultUpcomingDays = 7

type CalendarService struct {
	backend *Backend
}

func NewCalendarService(backend *Backend) *CalendarService {
	return &CalendarService{backend: backend}
}

func (s *CalendarService) All(ctx context.Context) ([]domain.CalendarEvent, error) {
	return cachedFetch(ctx, s.backend, "calendar_all", func(ctx context.Context) ([]domain.CalendarEvent, error) {
		return fetchList[domain.CalendarEvent](ctx, s.backend, calendarPath)
	})
}

func (s *CalendarService) Upcoming(ctx context.Context) ([]domain.CalendarEvent, error) {
	return s.query(ctx, map[string]any{"upcoming_only": true})
}

func (s *CalendarService) ForMember(ctx context.Context, memberID int) ([]domain.CalendarEvent, error) {
	return s.query(ctx, map[string]any{"member_id": memberID})
}

func (s *CalendarService) CreatedBy(ctx context.Context, memberID int) ([]domain.CalendarEvent, error) {
	return s.query(ctx, map[string]any{"created_by": memberID})
}

func (s *CalendarService) Range(ctx context.Context, start, end time.Time) ([]domain.CalendarEvent, error) {
	if end.Before(start) {
		return nil, &domain.ValidationError{Field: "end_date", Reason: "must not precede start_date"}
	}

	return s.query(ctx, map[string]any{
		"start_date": start.UTC().Format(time.RFC3339Nano),
		"end_date":   end.UTC().Format(time.RFC3339Nano),
	})
}

// ForDate lists the events of the local calendar day containing date.
func (s *CalendarService) ForDate(ctx context.Context, date time.Time) ([]domain.CalendarEvent, error) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	end := start.AddDate(0, 0, 1).Add(-time.Millisecond)

	return s.Range(ctx, start, end)
}

func (s *CalendarService) Today(ctx context.Context) ([]domain.CalendarEvent, error) {
	return s.ForDate(ctx, s.backend.clock.Now())
}

func (s *CalendarService) UpcomingForMember(ctx context.Context, memberID, days int) ([]domain.CalendarEvent, error) {
	if days <= 0 {
		days = DefaultUpcomingDays
	}

	return fetchList[domain.CalendarEvent](ctx, s.backend, withQuery(upcomingEventsPath(days), map[string]any{"member_id": memberID}))
}

// Conflicts lists the member's events overlapping [start, end), ignoring excludeEventID when positive.
func (s *CalendarService) Conflicts(ctx context.Context, memberID int, start, end string, excludeEventID int) ([]domain.CalendarEvent, error) {
	params := map[string]any{
		"member_id":  memberID,
		"start_time": start,
		"end_time":   end,
	}
	if excludeEventID > 0 {
		params["exclude_event_id"] = excludeEventID
	}

	return fetchList[domain.CalendarEvent](ctx, s.backend, withQuery(calendarConflicts, params))
}

func (s *CalendarService) IsMemberAvailable(ctx context.Context, memberID int, start, end string, excludeEventID int) (bool, error) {
	conflicts, err := s.Conflicts(ctx, memberID, start, end, excludeEventID)
	if err != nil {
		return false, err
	}

	return len(conflicts) == 0, nil
}

func (s *CalendarService) Get(ctx context.Context, id int) (domain.CalendarEvent, error) {
	if err := requireSavedID("id", id); err != nil {
		return domain.CalendarEvent{}, err
	}

	return fetchOne[domain.CalendarEvent](ctx, s.backend, eventPath(id))
}

func (s *CalendarService) Create(ctx context.Context, createdBy int, req domain.CreateEventRequest) (domain.CalendarEvent, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return domain.CalendarEvent{}, err
	}
	createdBy = s.backend.actor(ctx, createdBy)

	result, err := s.backend.mutate(ctx, mutation{
		kind:     domain.ActionCreate,
		method:   http.MethodPost,
		endpoint: calendarPath,
		body:     req,
		actorID:  createdBy,
	})
	if err != nil {
		return domain.CalendarEvent{}, fmt.Errorf("create event: %w", err)
	}
	if result.queued != nil {
		now := s.backend.now()
		id := s.backend.placeholderID()
		participants := make([]domain.CalendarParticipant, 0, len(req.ParticipantIDs))
		for _, memberID := range req.ParticipantIDs {
			participants = append(participants, domain.CalendarParticipant{EventID: id, MemberID: memberID, Response: domain.RSVPPending})
		}
		return domain.CalendarEvent{
			ID:           id,
			Title:        req.Title,
			Description:  req.Description,
			StartTime:    req.StartTime,
			EndTime:      req.EndTime,
			Location:     req.Location,
			EventType:    req.EventType,
			CreatedBy:    createdBy,
			CreatedAt:    now,
			UpdatedAt:    now,
			Participants: participants,
		}, nil
	}

	return decodeRequired[domain.CalendarEvent](result, "create event")
}

func (s *CalendarService) Update(ctx context.Context, id int, req domain.UpdateEventRequest) (*domain.PendingAction, error) {
	if err := requireSavedID("id", id); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	result, err := s.backend.mutate(ctx, mutation{
		kind:     domain.ActionUpdate,
		method:   http.MethodPut,
		endpoint: eventPath(id),
		body:     req,
	})
	if err != nil {
		return nil, fmt.Errorf("update event %d: %w", id, err)
	}

	return result.queued, nil
}

func (s *CalendarService) Delete(ctx context.Context, id int) (*domain.PendingAction, error) {
	if err := requireSavedID("id", id); err != nil {
		return nil, err
	}

	result, err := s.backend.mutate(ctx, mutation{
		kind:     domain.ActionDelete,
		method:   http.MethodDelete,
		endpoint: eventPath(id),
	})
	if err != nil {
		return nil, fmt.Errorf("delete event %d: %w", id, err)
	}

	return result.queued, nil
}

// Respond records memberID's RSVP.
func (s *CalendarService) Respond(ctx context.Context, id int, memberID int, response domain.RSVP) (*domain.PendingAction, error) {
	if err := requireSavedID("id", id); err != nil {
		return nil, err
	}
	req := domain.RespondRequest{Response: response}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	result, err := s.backend.mutate(ctx, mutation{
		kind:     domain.ActionUpdate,
		method:   http.MethodPut,
		endpoint: respondEventPath(id),
		body:     req,
		actorID:  memberID,
	})
	if err != nil {
		return nil, fmt.Errorf("respond to event %d: %w", id, err)
	}

	return result.queued, nil
}

func (s *CalendarService) query(ctx context.Context, params map[string]any) ([]domain.CalendarEvent, error) {
	return fetchList[domain.CalendarEvent](ctx, s.backend, withQuery(calendarPath, params))
}
