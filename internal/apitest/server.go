// Package apitest runs an in-memory household API for tests.
package apitest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/tentimesukulele/BobiPlanCheck/internal/domain"
)

const (
	BasePath       = "/api"
	identityHeader = "x-family-member-id"
)

// RecordedRequest is one call as seen by the server, path relative to BasePath.
type RecordedRequest struct {
	Method   string
	Path     string
	Query    string
	MemberID string
	Body     string
}

type failure struct {
	status  int
	message string
	details []string
	times   int
}

type Server struct {
	*httptest.Server

	mu          sync.Mutex
	now         func() time.Time
	nextID      int
	unreachable bool
	failures    map[string]*failure
	requests    []RecordedRequest

	members  map[int]domain.FamilyMember
	tasks    map[int]domain.Task
	events   map[int]domain.CalendarEvent
	lessons  map[int]domain.ScheduleEntry
	grades   map[int]domain.Grade
	tokens   map[int]domain.NotificationToken
	pushes   map[int]domain.PushTokenRequest
	weekType domain.WeekType
}

// New starts a server seeded with the family directory and stops it on cleanup.
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		now:      time.Now,
		nextID:   100,
		failures: map[string]*failure{},
		members:  map[int]domain.FamilyMember{},
		tasks:    map[int]domain.Task{},
		events:   map[int]domain.CalendarEvent{},
		lessons:  map[int]domain.ScheduleEntry{},
		grades:   map[int]domain.Grade{},
		tokens:   map[int]domain.NotificationToken{},
		pushes:   map[int]domain.PushTokenRequest{},
		weekType: domain.WeekA,
	}
	for _, member := range domain.FamilyDirectory() {
		s.members[member.ID] = member
	}

	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)

	return s
}

// BaseURL is the API root to hand to the client.
func (s *Server) BaseURL() string {
	return s.URL + BasePath
}

// SetUnreachable makes every request fail without an HTTP response.
func (s *Server) SetUnreachable(unreachable bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unreachable = unreachable
}

// Fail answers the next times calls of method path with status and message.
func (s *Server) Fail(method, path string, times, status int, message string, details ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = &failure{status: status, message: message, details: details, times: times}
}

func (s *Server) SetWeekType(week domain.WeekType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.weekType = week
}

func (s *Server) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedRequest(nil), s.requests...)
}

// RequestsTo filters Requests by method and path.
func (s *Server) RequestsTo(method, path string) []RecordedRequest {
	matched := make([]RecordedRequest, 0)
	for _, req := range s.Requests() {
		if req.Method == method && req.Path == path {
			matched = append(matched, req)
		}
	}

	return matched
}

func (s *Server) AddTask(task domain.Task) domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	if task.ID == 0 {
		task.ID = s.allocID()
	}
	if task.Status == "" {
		task.Status = domain.TaskStatusPending
	}
	if task.TaskType == "" {
		task.TaskType = domain.TaskTypeOneTime
	}
	s.tasks[task.ID] = task
	return task
}

func (s *Server) AddEvent(event domain.CalendarEvent) domain.CalendarEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	if event.ID == 0 {
		event.ID = s.allocID()
	}
	if event.Participants == nil {
		event.Participants = []domain.CalendarParticipant{}
	}
	s.events[event.ID] = event
	return event
}

func (s *Server) AddLesson(lesson domain.ScheduleEntry) domain.ScheduleEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lesson.ID == 0 {
		lesson.ID = s.allocID()
	}
	s.lessons[lesson.ID] = lesson
	return lesson
}

func (s *Server) AddGrade(grade domain.Grade) domain.Grade {
	s.mu.Lock()
	defer s.mu.Unlock()
	if grade.ID == 0 {
		grade.ID = s.allocID()
	}
	if grade.Weight == 0 {
		grade.Weight = 1
	}
	s.grades[grade.ID] = grade
	return grade
}

func (s *Server) Tasks() []domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedValues(s.tasks, func(t domain.Task) int { return t.ID })
}

func (s *Server) Events() []domain.CalendarEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedValues(s.events, func(e domain.CalendarEvent) int { return e.ID })
}

func (s *Server) Lessons() []domain.ScheduleEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedValues(s.lessons, func(l domain.ScheduleEntry) int { return l.ID })
}

func (s *Server) Grades() []domain.Grade {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedValues(s.grades, func(g domain.Grade) int { return g.ID })
}

func (s *Server) Members() []domain.FamilyMember {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedValues(s.members, func(m domain.FamilyMember) int { return m.ID })
}

func (s *Server) Tokens() []domain.NotificationToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedValues(s.tokens, func(t domain.NotificationToken) int { return t.ID })
}

func (s *Server) PushToken(memberID int) (domain.PushTokenRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.pushes[memberID]
	return token, ok
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.faults)

	r.Route(BasePath, func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeData(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Route("/family", func(r chi.Router) {
			r.Get("/", s.listMembers)
			r.Post("/", s.createMember)
			r.Get("/{id}", s.getMember)
			r.Put("/{id}", s.updateMember)
			r.Delete("/{id}", s.deleteMember)
			r.Put("/{id}/push-token", s.updatePushToken)
			r.Get("/{id}/activity", s.memberActivity)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", s.listTasks)
			r.Post("/", s.createTask)
			r.Get("/{id}", s.getTask)
			r.Delete("/{id}", s.deleteTask)
			r.Put("/{id}/complete", s.completeTask)
			r.Put("/{id}/reassign", s.reassignTask)
		})

		r.Route("/calendar", func(r chi.Router) {
			r.Get("/", s.listEvents)
			r.Post("/", s.createEvent)
			r.Get("/conflicts", s.conflictingEvents)
			r.Get("/upcoming/{days}", s.upcomingEvents)
			r.Get("/{id}", s.getEvent)
			r.Put("/{id}", s.updateEvent)
			r.Delete("/{id}", s.deleteEvent)
			r.Put("/{id}/respond", s.respondEvent)
		})

		r.Route("/schedule", func(r chi.Router) {
			r.Get("/", s.listLessons)
			r.Post("/", s.createLesson)
			r.Get("/current-week", s.currentWeek)
			r.Get("/student/{id}", s.studentLessons)
			r.Get("/today/{id}", s.todayLessons)
			r.Get("/week/{id}/{week}", s.weekLessons)
			r.Put("/{id}", s.updateLesson)
			r.Delete("/{id}", s.deleteLesson)
		})

		r.Route("/grades", func(r chi.Router) {
			r.Get("/", s.listGrades)
			r.Get("/all", s.listAllGrades)
			r.Get("/stats/{id}", s.gradeStats)
			r.Post("/", s.createGrade)
			r.Put("/{id}", s.updateGrade)
			r.Delete("/{id}", s.deleteGrade)
		})

		r.Post("/notifications/register-token", s.registerToken)
		r.Delete("/notifications/tokens/{id}", s.deleteTokens)
	})

	return r
}

// faults records every request and applies unreachability and injected failures.
func (s *Server) faults(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		path := strings.TrimPrefix(r.URL.Path, BasePath)
		if path != "/" {
			path = strings.TrimSuffix(path, "/")
		}

		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{
			Method:   r.Method,
			Path:     path,
			Query:    r.URL.RawQuery,
			MemberID: r.Header.Get(identityHeader),
			Body:     string(body),
		})
		unreachable := s.unreachable
		var injected *failure
		if f, ok := s.failures[r.Method+" "+path]; ok && f.times > 0 {
			f.times--
			copied := *f
			injected = &copied
		}
		s.mu.Unlock()

		if unreachable {
			dropConnection(w)
			return
		}
		if injected != nil {
			writeError(w, injected.status, injected.message, injected.details...)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func dropConnection(w http.ResponseWriter) {
	hijacker, ok := w.(http.Hijacker)
	if !ok {
		panic("apitest: response writer cannot be hijacked")
	}

	conn, _, err := hijacker.Hijack()
	if err != nil {
		return
	}
	_ = conn.Close()
}

func (s *Server) allocID() int {
	s.nextID++
	return s.nextID
}

func (s *Server) stamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeEnvelope(w, status, map[string]any{"success": true, "data": data})
}

func writeMessage(w http.ResponseWriter, message string) {
	writeEnvelope(w, http.StatusOK, map[string]any{"success": true, "message": message})
}

func writeError(w http.ResponseWriter, status int, message string, details ...string) {
	envelope := map[string]any{"success": false, "error": message}
	if len(details) > 0 {
		envelope["details"] = details
	}
	writeEnvelope(w, status, envelope)
}

func writeEnvelope(w http.ResponseWriter, status int, envelope map[string]any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope)
}

func decodeBody(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err.Error())
		return false
	}

	return true
}

func pathInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	value, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || value <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}

	return value, true
}

func queryInt(r *http.Request, name string) int {
	value, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}

	return value
}

func actingMember(r *http.Request) int {
	id, err := strconv.Atoi(r.Header.Get(identityHeader))
	if err != nil || id <= 0 {
		return domain.DefaultMemberID
	}

	return id
}

func sortedValues[T any](items map[int]T, id func(T) int) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		out = append(out, item)
	}
	sort.Slice(out, func(a, b int) bool { return id(out[a]) < id(out[b]) })

	return out
}
