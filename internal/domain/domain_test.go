package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverallAverageUsesWeightedSubjectAverages(t *testing.T) {
	grades := []Grade{
		{Subject: "A", Grade: 5, Weight: 2},
		{Subject: "A", Grade: 3, Weight: 1},
	}

	assert.InDelta(t, 4.333, OverallAverage(grades), 0.001)
	assert.InDelta(t, 4.333, SubjectAverageOf(grades, "A"), 0.001)
	assert.Zero(t, SubjectAverageOf(grades, "B"))
}

func TestOverallAverageIsMeanOfSubjects(t *testing.T) {
	grades := []Grade{
		{Subject: "Matematika", Grade: 5, Weight: 1},
		{Subject: "Matematika", Grade: 5, Weight: 1},
		{Subject: "Matematika", Grade: 5, Weight: 1},
		{Subject: "Fizika", Grade: 2, Weight: 1},
	}

	assert.InDelta(t, 3.5, OverallAverage(grades), 0.0001)

	stats := Statistics(grades)
	require.Len(t, stats.SubjectAverages, 2)
	assert.Equal(t, "Fizika", stats.SubjectAverages[0].Subject)
	assert.Equal(t, 3, stats.SubjectAverages[1].GradeCount)
	assert.Equal(t, 2, stats.TotalSubjects)
}

func TestOverallAverageOfNothingIsZero(t *testing.T) {
	assert.Zero(t, OverallAverage(nil))
	assert.Equal(t, GradeStatistics{SubjectAverages: []SubjectAverage{}}, EmptyGradeStatistics())
}

func TestSchoolYearAndSemester(t *testing.T) {
	tests := []struct {
		name     string
		at       time.Time
		year     string
		semester string
	}{
		{name: "september opens a year", at: time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC), year: "2025/2026", semester: "1"},
		{name: "january stays in first semester", at: time.Date(2026, 1, 20, 8, 0, 0, 0, time.UTC), year: "2025/2026", semester: "1"},
		{name: "february starts second semester", at: time.Date(2026, 2, 2, 8, 0, 0, 0, time.UTC), year: "2025/2026", semester: "2"},
		{name: "august closes the year", at: time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC), year: "2025/2026", semester: "2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.year, SchoolYear(tt.at))
			assert.Equal(t, tt.semester, Semester(tt.at))
		})
	}
}

func TestWeekTypeForAlternatesWeekly(t *testing.T) {
	firstWeek := time.Date(2025, 9, 3, 10, 0, 0, 0, time.UTC)
	secondWeek := firstWeek.Add(7 * 24 * time.Hour)
	springWeek := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, WeekA, WeekTypeFor(firstWeek))
	assert.Equal(t, WeekB, WeekTypeFor(secondWeek))
	assert.Equal(t, WeekTypeFor(springWeek).Other(), WeekTypeFor(springWeek.Add(7*24*time.Hour)))
}

func TestCreateGradeRequestValidate(t *testing.T) {
	valid := CreateGradeRequest{
		StudentID:    3,
		Subject:      "Matematika",
		Grade:        4,
		DateReceived: "2025-10-01",
		Weight:       1,
		Semester:     "1",
		SchoolYear:   "2025/2026",
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*CreateGradeRequest)
		field  string
	}{
		{name: "grade too high", mutate: func(r *CreateGradeRequest) { r.Grade = 6 }, field: "grade"},
		{name: "grade too low", mutate: func(r *CreateGradeRequest) { r.Grade = 0 }, field: "grade"},
		{name: "fractional weight", mutate: func(r *CreateGradeRequest) { r.Weight = 1.5 }, field: "weight"},
		{name: "blank subject", mutate: func(r *CreateGradeRequest) { r.Subject = "  " }, field: "subject"},
		{name: "bad semester", mutate: func(r *CreateGradeRequest) { r.Semester = "3" }, field: "semester"},
		{name: "bad school year", mutate: func(r *CreateGradeRequest) { r.SchoolYear = "2025/2027" }, field: "school_year"},
		{name: "unknown grade type", mutate: func(r *CreateGradeRequest) { r.GradeType = "quiz" }, field: "grade_type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)

			err := req.Validate()
			require.ErrorIs(t, err, ErrValidation)
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.field, validationErr.Field)
		})
	}
}

func TestCreateGradeRequestNormalizeDefaults(t *testing.T) {
	req := CreateGradeRequest{Subject: " Kemija "}
	req.Normalize()

	assert.Equal(t, "Kemija", req.Subject)
	assert.Equal(t, float64(MinWeight), req.Weight)
	assert.Equal(t, GradeTypeOther, req.GradeType)
}

func TestCreateScheduleRequestValidate(t *testing.T) {
	req := CreateScheduleRequest{StudentID: 3, WeekType: WeekA, DayOfWeek: 1, Subject: "SLO", StartTime: "8:00", EndTime: "08:45"}
	require.NoError(t, req.Validate())

	req.EndTime = "07:45"
	assert.ErrorIs(t, req.Validate(), ErrValidation)

	req.EndTime = "24:00"
	assert.ErrorIs(t, req.Validate(), ErrValidation)

	req.EndTime = "09:30"
	req.DayOfWeek = 8
	assert.ErrorIs(t, req.Validate(), ErrValidation)
}

func TestCreateScheduleRequestSplitBoth(t *testing.T) {
	req := CreateScheduleRequest{StudentID: 3, WeekType: WeekBoth, DayOfWeek: 2, Subject: "MAT", StartTime: "10:00", EndTime: "10:45"}

	parts := req.Split()
	require.Len(t, parts, 2)
	assert.Equal(t, WeekA, parts[0].WeekType)
	assert.Equal(t, WeekB, parts[1].WeekType)

	req.WeekType = WeekB
	assert.Len(t, req.Split(), 1)
}

func TestCreateTaskAndEventValidation(t *testing.T) {
	assert.ErrorIs(t, CreateTaskRequest{Title: "", AssignedTo: 3}.Validate(), ErrValidation)
	assert.ErrorIs(t, CreateTaskRequest{Title: "Clean room"}.Validate(), ErrValidation)
	assert.NoError(t, CreateTaskRequest{Title: "Clean room", AssignedTo: 3}.Validate())

	event := CreateEventRequest{Title: "Zobozdravnik", StartTime: "2025-10-01T10:00:00Z", EndTime: "2025-10-01T09:00:00Z"}
	assert.ErrorIs(t, event.Validate(), ErrValidation)
	event.EndTime = "2025-10-01T11:00:00Z"
	assert.NoError(t, event.Validate())
	event.StartTime = ""
	assert.ErrorIs(t, event.Validate(), ErrValidation)

	assert.ErrorIs(t, RespondRequest{Response: RSVPPending}.Validate(), ErrValidation)
	assert.NoError(t, RespondRequest{Response: RSVPDeclined}.Validate())
}

func TestPendingActionReplayMethod(t *testing.T) {
	tests := []struct {
		name   string
		action PendingAction
		want   string
		body   bool
	}{
		{name: "create posts", action: PendingAction{Kind: ActionCreate, Payload: json.RawMessage(`{"a":1}`)}, want: http.MethodPost, body: true},
		{name: "legacy update posts", action: PendingAction{Kind: ActionUpdate, Payload: json.RawMessage(`{"a":1}`)}, want: http.MethodPost, body: true},
		{name: "recorded verb wins", action: PendingAction{Kind: ActionUpdate, Method: "put", Payload: json.RawMessage(`{}`)}, want: http.MethodPut, body: true},
		{name: "delete has no body", action: PendingAction{Kind: ActionDelete, Payload: json.RawMessage(`{"a":1}`)}, want: http.MethodDelete, body: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.action.ReplayMethod())
			assert.Equal(t, tt.body, tt.action.ReplayBody() != nil)
		})
	}
}

func TestPendingActionDecodesLegacyEntries(t *testing.T) {
	var actions []PendingAction
	raw := `[{"id":"1700000000000abc","type":"CREATE","endpoint":"/tasks","data":{"title":"x"},"timestamp":1700000000000}]`

	require.NoError(t, json.Unmarshal([]byte(raw), &actions))
	require.Len(t, actions, 1)
	assert.Equal(t, ActionCreate, actions[0].Kind)
	assert.Equal(t, int64(1700000000000), actions[0].EnqueuedAt().UnixMilli())
	assert.JSONEq(t, `{"title":"x"}`, string(actions[0].Payload))
}

func TestCacheEntryFreshness(t *testing.T) {
	storedAt := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)
	entry := CacheEntry{Data: json.RawMessage(`[]`), Timestamp: storedAt.UnixMilli()}

	assert.True(t, entry.Fresh(storedAt.Add(29*time.Minute), 30*time.Minute))
	assert.False(t, entry.Fresh(storedAt.Add(30*time.Minute), 30*time.Minute))
}

func TestPlaceholderIDsAreUniqueUnderConcurrency(t *testing.T) {
	var ids PlaceholderIDs
	now := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)
	seen := sync.Map{}
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := ids.Next(now)
			_, loaded := seen.LoadOrStore(id, struct{}{})
			assert.False(t, loaded)
			assert.Negative(t, id)
		}()
	}
	wg.Wait()

	first := ids.Next(now)
	assert.Less(t, ids.Next(now), first)
}

func TestPlaceholderIDsAreSeededFromTheClock(t *testing.T) {
	now := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)

	var earlierRun PlaceholderIDs
	first := earlierRun.Next(now)
	assert.Equal(t, int(-now.UnixMicro()), first)
	assert.Equal(t, first-1, earlierRun.Next(now))

	var laterRun PlaceholderIDs
	assert.Less(t, laterRun.Next(now.Add(time.Millisecond)), first-1)

	// A clock that steps back never breaks the strictly decreasing order.
	assert.Less(t, earlierRun.Next(now.Add(-time.Hour)), first-1)
}

func TestRequestErrorClassification(t *testing.T) {
	transient := &RequestError{Method: http.MethodGet, Path: "/tasks", Message: "request timed out", Err: context.DeadlineExceeded}
	status := &RequestError{Method: http.MethodPost, Path: "/tasks", Message: "Title is required", StatusCode: http.StatusUnprocessableEntity}

	assert.True(t, IsTransient(fmt.Errorf("wrapped: %w", transient)))
	assert.ErrorIs(t, transient, context.DeadlineExceeded)
	assert.False(t, IsTransient(status))
	assert.False(t, IsTransient(errors.New("plain")))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusCode(fmt.Errorf("wrapped: %w", status)))
	assert.Contains(t, status.Error(), "status 422")
}

func TestActingMemberRoundTrip(t *testing.T) {
	ctx := WithActingMember(context.Background(), 4)

	id, ok := ActingMember(ctx)
	require.True(t, ok)
	assert.Equal(t, 4, id)

	_, ok = ActingMember(context.Background())
	assert.False(t, ok)
}

func TestMemberByID(t *testing.T) {
	member, err := MemberByID(3)
	require.NoError(t, err)
	assert.Equal(t, "Anže", member.Name)
	assert.Equal(t, MemberRoleChild, member.Role)

	_, err = MemberByID(42)
	assert.ErrorIs(t, err, ErrMemberNotFound)
	assert.Len(t, FamilyDirectory(), 5)
}

func TestWeekScheduleFlattenOrdersByDay(t *testing.T) {
	t.Parallel()

	var week WeekSchedule
	raw := `{"schedule":{
		"3":{"day_of_week":3,"subjects":[{"id":7,"subject":"Kemija"}]},
		"1":{"day_of_week":1,"subjects":[{"id":1,"subject":"Matematika"},{"id":2,"subject":"Fizika"}]}
	}}`
	require.NoError(t, json.Unmarshal([]byte(raw), &week))

	entries := week.Flatten()
	require.Len(t, entries, 3)
	assert.Equal(t, []int{1, 2, 7}, []int{entries[0].ID, entries[1].ID, entries[2].ID})
	assert.Empty(t, WeekSchedule{}.Flatten())
}
