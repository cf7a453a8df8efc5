package domain

import (
	"strings"
	"time"
)

type EventType string

const (
	EventTypeAppointment EventType = "appointment"
	EventTypeReminder    EventType = "reminder"
	EventTypeMeeting     EventType = "meeting"
)

type RSVP string

const (
	RSVPPending  RSVP = "pending"
	RSVPAccepted RSVP = "accepted"
	RSVPDeclined RSVP = "declined"
)

type CalendarEvent struct {
	ID           int                   `json:"id"`
	Title        string                `json:"title"`
	Description  string                `json:"description,omitempty"`
	StartTime    string                `json:"start_time"`
	EndTime      string                `json:"end_time,omitempty"`
	Location     string                `json:"location,omitempty"`
	EventType    EventType             `json:"event_type"`
	CreatedBy    int                   `json:"created_by"`
	CreatedAt    string                `json:"created_at,omitempty"`
	UpdatedAt    string                `json:"updated_at,omitempty"`
	Participants []CalendarParticipant `json:"participants"`
}

type CalendarParticipant struct {
	ID        int    `json:"id"`
	EventID   int    `json:"event_id"`
	MemberID  int    `json:"member_id"`
	Response  RSVP   `json:"response"`
	CreatedAt string `json:"created_at,omitempty"`
}

type CreateEventRequest struct {
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	StartTime      string    `json:"start_time"`
	EndTime        string    `json:"end_time,omitempty"`
	Location       string    `json:"location,omitempty"`
	EventType      EventType `json:"event_type"`
	ParticipantIDs []int     `json:"participant_ids"`
}

func (r *CreateEventRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	if r.EventType == "" {
		r.EventType = EventTypeAppointment
	}
	if r.ParticipantIDs == nil {
		r.ParticipantIDs = []int{}
	}
}

func (r CreateEventRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return invalid("title", "is required")
	}
	if err := validateEventType(r.EventType); err != nil {
		return err
	}

	return validateEventWindow(r.StartTime, r.EndTime, true)
}

type UpdateEventRequest struct {
	Title          *string    `json:"title,omitempty"`
	Description    *string    `json:"description,omitempty"`
	StartTime      *string    `json:"start_time,omitempty"`
	EndTime        *string    `json:"end_time,omitempty"`
	Location       *string    `json:"location,omitempty"`
	EventType      *EventType `json:"event_type,omitempty"`
	ParticipantIDs []int      `json:"participant_ids,omitempty"`
}

func (r UpdateEventRequest) Validate() error {
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		return invalid("title", "must not be blank")
	}
	if r.EventType != nil {
		if err := validateEventType(*r.EventType); err != nil {
			return err
		}
	}

	start, end := "", ""
	if r.StartTime != nil {
		start = *r.StartTime
	}
	if r.EndTime != nil {
		end = *r.EndTime
	}

	return validateEventWindow(start, end, r.StartTime != nil)
}

type RespondRequest struct {
	Response RSVP `json:"response"`
}

func (r RespondRequest) Validate() error {
	switch r.Response {
	case RSVPAccepted, RSVPDeclined:
		return nil
	default:
		return invalid("response", "must be accepted or declined")
	}
}

func validateEventType(eventType EventType) error {
	switch eventType {
	case "", EventTypeAppointment, EventTypeReminder, EventTypeMeeting:
		return nil
	default:
		return invalid("event_type", "must be appointment, reminder or meeting")
	}
}

func validateEventWindow(start, end string, startRequired bool) error {
	if startRequired && strings.TrimSpace(start) == "" {
		return invalid("start_time", "is required")
	}

	var startAt time.Time
	if start != "" {
		parsed, err := time.Parse(time.RFC3339, start)
		if err != nil {
			return invalid("start_time", "must be an RFC3339 timestamp")
		}
		startAt = parsed
	}

	if end == "" {
		return nil
	}

	endAt, err := time.Parse(time.RFC3339, end)
	if err != nil {
		return invalid("end_time", "must be an RFC3339 timestamp")
	}
	if !startAt.IsZero() && !endAt.After(startAt) {
		return invalid("end_time", "must be after start_time")
	}

	return nil
}
