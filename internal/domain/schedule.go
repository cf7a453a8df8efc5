package domain

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

type WeekType string

const (
	WeekA WeekType = "A"
	WeekB WeekType = "B"
	// WeekBoth is only accepted on create and expands to one entry per week.
	WeekBoth WeekType = "BOTH"
)

func ParseWeekType(raw string) (WeekType, error) {
	switch WeekType(strings.ToUpper(strings.TrimSpace(raw))) {
	case WeekA:
		return WeekA, nil
	case WeekB:
		return WeekB, nil
	default:
		return "", invalid("week_type", "must be A or B")
	}
}

func (w WeekType) Other() WeekType {
	if w == WeekA {
		return WeekB
	}

	return WeekA
}

type ScheduleEntry struct {
	ID        int      `json:"id"`
	StudentID int      `json:"student_id"`
	WeekType  WeekType `json:"week_type"`
	DayOfWeek int      `json:"day_of_week"`
	Subject   string   `json:"subject"`
	StartTime string   `json:"start_time"`
	EndTime   string   `json:"end_time"`
	Teacher   string   `json:"teacher,omitempty"`
	Classroom string   `json:"classroom,omitempty"`
	CreatedAt string   `json:"created_at,omitempty"`
	UpdatedAt string   `json:"updated_at,omitempty"`
}

// WeekSchedule is the grouped shape returned by the per-week endpoint. The
// backend keys days by their number.
type WeekSchedule struct {
	Schedule map[string]ScheduleDay `json:"schedule"`
}

type ScheduleDay struct {
	DayOfWeek int             `json:"day_of_week"`
	Subjects  []ScheduleEntry `json:"subjects"`
}

// Flatten lists every lesson ordered by day.
func (w WeekSchedule) Flatten() []ScheduleEntry {
	days := make([]ScheduleDay, 0, len(w.Schedule))
	for _, day := range w.Schedule {
		days = append(days, day)
	}
	sort.SliceStable(days, func(a, b int) bool {
		return days[a].DayOfWeek < days[b].DayOfWeek
	})

	entries := make([]ScheduleEntry, 0)
	for _, day := range days {
		entries = append(entries, day.Subjects...)
	}

	return entries
}

type CreateScheduleRequest struct {
	StudentID int      `json:"student_id"`
	WeekType  WeekType `json:"week_type"`
	DayOfWeek int      `json:"day_of_week"`
	Subject   string   `json:"subject"`
	StartTime string   `json:"start_time"`
	EndTime   string   `json:"end_time"`
	Teacher   string   `json:"teacher,omitempty"`
	Classroom string   `json:"classroom,omitempty"`
}

func (r CreateScheduleRequest) Validate() error {
	if r.StudentID <= 0 {
		return invalid("student_id", "must reference a student")
	}

	switch r.WeekType {
	case WeekA, WeekB, WeekBoth:
	default:
		return invalid("week_type", "must be A, B or BOTH")
	}

	if r.DayOfWeek < 1 || r.DayOfWeek > 7 {
		return invalid("day_of_week", "must be between 1 and 7")
	}
	if strings.TrimSpace(r.Subject) == "" {
		return invalid("subject", "is required")
	}

	return validateLessonWindow(r.StartTime, r.EndTime)
}

// Split expands a BOTH request into one request per week type.
func (r CreateScheduleRequest) Split() []CreateScheduleRequest {
	if r.WeekType != WeekBoth {
		return []CreateScheduleRequest{r}
	}

	a, b := r, r
	a.WeekType = WeekA
	b.WeekType = WeekB
	return []CreateScheduleRequest{a, b}
}

type UpdateScheduleRequest struct {
	WeekType  *WeekType `json:"week_type,omitempty"`
	DayOfWeek *int      `json:"day_of_week,omitempty"`
	Subject   *string   `json:"subject,omitempty"`
	StartTime *string   `json:"start_time,omitempty"`
	EndTime   *string   `json:"end_time,omitempty"`
	Teacher   *string   `json:"teacher,omitempty"`
	Classroom *string   `json:"classroom,omitempty"`
}

func (r UpdateScheduleRequest) Validate() error {
	if r.WeekType != nil && *r.WeekType != WeekA && *r.WeekType != WeekB {
		return invalid("week_type", "must be A or B")
	}
	if r.DayOfWeek != nil && (*r.DayOfWeek < 1 || *r.DayOfWeek > 7) {
		return invalid("day_of_week", "must be between 1 and 7")
	}
	if r.Subject != nil && strings.TrimSpace(*r.Subject) == "" {
		return invalid("subject", "must not be blank")
	}
	if r.StartTime != nil && !lessonTimePattern.MatchString(*r.StartTime) {
		return invalid("start_time", "must be HH:MM")
	}
	if r.EndTime != nil && !lessonTimePattern.MatchString(*r.EndTime) {
		return invalid("end_time", "must be HH:MM")
	}
	if r.StartTime != nil && r.EndTime != nil {
		return validateLessonWindow(*r.StartTime, *r.EndTime)
	}

	return nil
}

var lessonTimePattern = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)

func validateLessonWindow(start, end string) error {
	if !lessonTimePattern.MatchString(start) {
		return invalid("start_time", "must be HH:MM")
	}
	if !lessonTimePattern.MatchString(end) {
		return invalid("end_time", "must be HH:MM")
	}
	if minutesOfDay(end) <= minutesOfDay(start) {
		return invalid("end_time", "must be after start_time")
	}

	return nil
}

func minutesOfDay(clock string) int {
	rawHours, rawMinutes, _ := strings.Cut(clock, ":")
	hours, _ := strconv.Atoi(rawHours)
	minutes, _ := strconv.Atoi(rawMinutes)
	return hours*60 + minutes
}
