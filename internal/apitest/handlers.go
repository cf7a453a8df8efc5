package apitest

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tentimesukulele/BobiPlanCheck/internal/domain"
)

func (s *Server) listMembers(w http.ResponseWriter, _ *http.Request) {
	writeData(w, http.StatusOK, s.Members())
}

func (s *Server) getMember(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}

	s.mu.Lock()
	member, found := s.members[id]
	s.mu.Unlock()
	if !found {
		writeError(w, http.StatusNotFound, "Family member not found")
		return
	}

	writeData(w, http.StatusOK, member)
}

func (s *Server) createMember(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateMemberRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Validation failed", err.Error())
		return
	}

	s.mu.Lock()
	member := domain.FamilyMember{
		ID:          s.allocID(),
		Name:        req.Name,
		Role:        req.Role,
		AvatarColor: req.AvatarColor,
		CreatedAt:   s.stamp(),
		UpdatedAt:   s.stamp(),
	}
	s.members[member.ID] = member
	s.mu.Unlock()

	writeData(w, http.StatusCreated, member)
}

func (s *Server) updateMember(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	var req domain.UpdateMemberRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Validation failed", err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	member, found := s.members[id]
	if !found {
		writeError(w, http.StatusNotFound, "Family member not found")
		return
	}
	if req.Name != nil {
		member.Name = *req.Name
	}
	if req.Role != nil {
		member.Role = *req.Role
	}
	if req.AvatarColor != nil {
		member.AvatarColor = *req.AvatarColor
	}
	member.UpdatedAt = s.stamp()
	s.members[id] = member

	writeData(w, http.StatusOK, member)
}

func (s *Server) deleteMember(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.members[id]; !found {
		writeError(w, http.StatusNotFound, "Family member not found")
		return
	}
	delete(s.members, id)

	writeMessage(w, "Family member deleted")
}

func (s *Server) updatePushToken(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	var req domain.PushTokenRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	s.pushes[id] = req
	s.mu.Unlock()

	writeMessage(w, "Push token updated")
}

func (s *Server) memberActivity(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}

	s.mu.Lock()
	assigned, created := 0, 0
	for _, task := range s.tasks {
		if task.AssignedTo == id {
			assigned++
		}
		if task.CreatedBy == id {
			created++
		}
	}
	s.mu.Unlock()

	writeData(w, http.StatusOK, map[string]any{
		"member_id":      id,
		"tasks_assigned": assigned,
		"tasks_created":  created,
	})
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	assignedTo := queryInt(r, "assigned_to")
	createdBy := queryInt(r, "created_by")

	tasks := make([]domain.Task, 0)
	for _, task := range s.Tasks() {
		if assignedTo > 0 && task.AssignedTo != assignedTo {
			continue
		}
		if createdBy > 0 && task.CreatedBy != createdBy {
			continue
		}
		tasks = append(tasks, task)
	}

	writeData(w, http.StatusOK, tasks)
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}

	s.mu.Lock()
	task, found := s.tasks[id]
	s.mu.Unlock()
	if !found {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}

	writeData(w, http.StatusOK, task)
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateTaskRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Validation failed", err.Error())
		return
	}

	taskType := req.TaskType
	if taskType == "" {
		taskType = domain.TaskTypeOneTime
	}

	s.mu.Lock()
	task := domain.Task{
		ID:              s.allocID(),
		Title:           req.Title,
		Description:     req.Description,
		CreatedBy:       actingMember(r),
		AssignedTo:      req.AssignedTo,
		Status:          domain.TaskStatusPending,
		TaskType:        taskType,
		WeeklyStartDate: req.WeeklyStartDate,
		WeeklyEndDate:   req.WeeklyEndDate,
		DueDate:         req.DueDate,
		CreatedAt:       s.stamp(),
		UpdatedAt:       s.stamp(),
	}
	s.tasks[task.ID] = task
	s.mu.Unlock()

	writeData(w, http.StatusCreated, task)
}

func (s *Server) completeTask(w http.ResponseWriter, r *http.Request) {
	s.updateTask(w, r, func(task *domain.Task) {
		task.Status = domain.TaskStatusCompleted
		task.CompletedAt = s.stamp()
	})
}

func (s *Server) reassignTask(w http.ResponseWriter, r *http.Request) {
	var req domain.ReassignTaskRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Validation failed", err.Error())
		return
	}

	s.updateTask(w, r, func(task *domain.Task) {
		task.AssignedTo = req.NewAssignedTo
	})
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request, apply func(*domain.Task)) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	task, found := s.tasks[id]
	if !found {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	apply(&task)
	task.UpdatedAt = s.stamp()
	s.tasks[id] = task

	writeData(w, http.StatusOK, task)
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.tasks[id]; !found {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	delete(s.tasks, id)

	writeMessage(w, "Task deleted")
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	memberID := queryInt(r, "member_id")
	createdBy := queryInt(r, "created_by")
	upcomingOnly := query.Get("upcoming_only") == "true"
	rangeStart, hasStart := parseTime(query.Get("start_date"))
	rangeEnd, hasEnd := parseTime(query.Get("end_date"))

	s.mu.Lock()
	now := s.now()
	s.mu.Unlock()

	events := make([]domain.CalendarEvent, 0)
	for _, event := range s.Events() {
		start, _ := parseTime(event.StartTime)
		if upcomingOnly && start.Before(now) {
			continue
		}
		if memberID > 0 && !involves(event, memberID) {
			continue
		}
		if createdBy > 0 && event.CreatedBy != createdBy {
			continue
		}
		if hasStart && start.Before(rangeStart) {
			continue
		}
		if hasEnd && start.After(rangeEnd) {
			continue
		}
		events = append(events, event)
	}

	writeData(w, http.StatusOK, events)
}

func (s *Server) upcomingEvents(w http.ResponseWriter, r *http.Request) {
	days, ok := pathInt(w, r, "days")
	if !ok {
		return
	}
	memberID := queryInt(r, "member_id")

	s.mu.Lock()
	now := s.now()
	s.mu.Unlock()
	until := now.AddDate(0, 0, days)

	events := make([]domain.CalendarEvent, 0)
	for _, event := range s.Events() {
		start, _ := parseTime(event.StartTime)
		if start.Before(now) || start.After(until) {
			continue
		}
		if memberID > 0 && !involves(event, memberID) {
			continue
		}
		events = append(events, event)
	}

	writeData(w, http.StatusOK, events)
}

func (s *Server) conflictingEvents(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	memberID := queryInt(r, "member_id")
	exclude := queryInt(r, "exclude_event_id")
	start, okStart := parseTime(query.Get("start_time"))
	end, okEnd := parseTime(query.Get("end_time"))
	if memberID <= 0 || !okStart || !okEnd {
		writeError(w, http.StatusBadRequest, "member_id, start_time and end_time are required")
		return
	}

	conflicts := make([]domain.CalendarEvent, 0)
	for _, event := range s.Events() {
		if event.ID == exclude || !involves(event, memberID) {
			continue
		}
		eventStart, _ := parseTime(event.StartTime)
		eventEnd, ok := parseTime(event.EndTime)
		if !ok {
			eventEnd = eventStart.Add(time.Hour)
		}
		if eventStart.Before(end) && start.Before(eventEnd) {
			conflicts = append(conflicts, event)
		}
	}

	writeData(w, http.StatusOK, conflicts)
}

func (s *Server) getEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}

	s.mu.Lock()
	event, found := s.events[id]
	s.mu.Unlock()
	if !found {
		writeError(w, http.StatusNotFound, "Event not found")
		return
	}

	writeData(w, http.StatusOK, event)
}

func (s *Server) createEvent(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateEventRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Validation failed", err.Error())
		return
	}

	s.mu.Lock()
	event := domain.CalendarEvent{
		ID:          s.allocID(),
		Title:       req.Title,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Location:    req.Location,
		EventType:   req.EventType,
		CreatedBy:   actingMember(r),
		CreatedAt:   s.stamp(),
		UpdatedAt:   s.stamp(),
	}
	event.Participants = make([]domain.CalendarParticipant, 0, len(req.ParticipantIDs))
	for _, memberID := range req.ParticipantIDs {
		event.Participants = append(event.Participants, domain.CalendarParticipant{
			ID:       s.allocID(),
			EventID:  event.ID,
			MemberID: memberID,
			Response: domain.RSVPPending,
		})
	}
	s.events[event.ID] = event
	s.mu.Unlock()

	writeData(w, http.StatusCreated, event)
}

func (s *Server) updateEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	var req domain.UpdateEventRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Validation failed", err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	event, found := s.events[id]
	if !found {
		writeError(w, http.StatusNotFound, "Event not found")
		return
	}
	if req.Title != nil {
		event.Title = *req.Title
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.StartTime != nil {
		event.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		event.EndTime = *req.EndTime
	}
	if req.Location != nil {
		event.Location = *req.Location
	}
	if req.EventType != nil {
		event.EventType = *req.EventType
	}
	event.UpdatedAt = s.stamp()
	s.events[id] = event

	writeData(w, http.StatusOK, event)
}

func (s *Server) deleteEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.events[id]; !found {
		writeError(w, http.StatusNotFound, "Event not found")
		return
	}
	delete(s.events, id)

	writeMessage(w, "Event deleted")
}

func (s *Server) respondEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	var req domain.RespondRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Validation failed", err.Error())
		return
	}
	memberID := actingMember(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	event, found := s.events[id]
	if !found {
		writeError(w, http.StatusNotFound, "Event not found")
		return
	}

	responded := false
	for i := range event.Participants {
		if event.Participants[i].MemberID == memberID {
			event.Participants[i].Response = req.Response
			responded = true
		}
	}
	if !responded {
		event.Participants = append(event.Participants, domain.CalendarParticipant{
			ID:       s.allocID(),
			EventID:  id,
			MemberID: memberID,
			Response: req.Response,
		})
	}
	s.events[id] = event

	writeMessage(w, "Response recorded")
}

func (s *Server) listLessons(w http.ResponseWriter, _ *http.Request) {
	writeData(w, http.StatusOK, s.Lessons())
}

func (s *Server) studentLessons(w http.ResponseWriter, r *http.Request) {
	studentID, ok := pathInt(w, r, "id")
	if !ok {
		return
	}

	writeData(w, http.StatusOK, s.lessonsWhere(func(l domain.ScheduleEntry) bool {
		return l.StudentID == studentID
	}))
}

func (s *Server) todayLessons(w http.ResponseWriter, r *http.Request) {
	studentID, ok := pathInt(w, r, "id")
	if !ok {
		return
	}

	s.mu.Lock()
	now := s.now()
	week := s.weekType
	s.mu.Unlock()
	day := domain.IsoWeekday(now)

	writeData(w, http.StatusOK, map[string]any{
		"week_type":   week,
		"day_of_week": day,
		"schedule": s.lessonsWhere(func(l domain.ScheduleEntry) bool {
			return l.StudentID == studentID && l.WeekType == week && l.DayOfWeek == day
		}),
	})
}

func (s *Server) weekLessons(w http.ResponseWriter, r *http.Request) {
	studentID, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	week, err := domain.ParseWeekType(chi.URLParam(r, "week"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid week type")
		return
	}

	grouped := map[string]domain.ScheduleDay{}
	for _, lesson := range s.lessonsWhere(func(l domain.ScheduleEntry) bool {
		return l.StudentID == studentID && l.WeekType == week
	}) {
		key := strconv.Itoa(lesson.DayOfWeek)
		day := grouped[key]
		day.DayOfWeek = lesson.DayOfWeek
		day.Subjects = append(day.Subjects, lesson)
		grouped[key] = day
	}

	writeData(w, http.StatusOK, map[string]any{
		"student_id": studentID,
		"week_type":  week,
		"schedule":   grouped,
	})
}

func (s *Server) currentWeek(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	week := s.weekType
	s.mu.Unlock()

	writeData(w, http.StatusOK, map[string]any{"current_week_type": week})
}

func (s *Server) createLesson(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateScheduleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Validation failed", err.Error())
		return
	}
	if req.WeekType == domain.WeekBoth {
		writeError(w, http.StatusUnprocessableEntity, "Validation failed", "week_type must be A or B")
		return
	}

	s.mu.Lock()
	lesson := domain.ScheduleEntry{
		ID:        s.allocID(),
		StudentID: req.StudentID,
		WeekType:  req.WeekType,
		DayOfWeek: req.DayOfWeek,
		Subject:   req.Subject,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Teacher:   req.Teacher,
		Classroom: req.Classroom,
		CreatedAt: s.stamp(),
		UpdatedAt: s.stamp(),
	}
	s.lessons[lesson.ID] = lesson
	s.mu.Unlock()

	writeData(w, http.StatusCreated, lesson)
}

func (s *Server) updateLesson(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	var req domain.UpdateScheduleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Validation failed", err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	lesson, found := s.lessons[id]
	if !found {
		writeError(w, http.StatusNotFound, "Schedule entry not found")
		return
	}
	if req.WeekType != nil {
		lesson.WeekType = *req.WeekType
	}
	if req.DayOfWeek != nil {
		lesson.DayOfWeek = *req.DayOfWeek
	}
	if req.Subject != nil {
		lesson.Subject = *req.Subject
	}
	if req.StartTime != nil {
		lesson.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		lesson.EndTime = *req.EndTime
	}
	if req.Teacher != nil {
		lesson.Teacher = *req.Teacher
	}
	if req.Classroom != nil {
		lesson.Classroom = *req.Classroom
	}
	lesson.UpdatedAt = s.stamp()
	s.lessons[id] = lesson

	writeData(w, http.StatusOK, lesson)
}

func (s *Server) deleteLesson(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.lessons[id]; !found {
		writeError(w, http.StatusNotFound, "Schedule entry not found")
		return
	}
	delete(s.lessons, id)

	writeMessage(w, "Schedule entry deleted")
}

func (s *Server) lessonsWhere(keep func(domain.ScheduleEntry) bool) []domain.ScheduleEntry {
	lessons := make([]domain.ScheduleEntry, 0)
	for _, lesson := range s.Lessons() {
		if keep(lesson) {
			lessons = append(lessons, lesson)
		}
	}

	return lessons
}

func (s *Server) listGrades(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, s.filterGrades(r))
}

func (s *Server) listAllGrades(w http.ResponseWriter, r *http.Request) {
	grades := s.filterGrades(r)
	for i := range grades {
		if member, err := domain.MemberByID(grades[i].StudentID); err == nil {
			grades[i].StudentName = member.Name
		}
	}

	writeData(w, http.StatusOK, grades)
}

func (s *Server) gradeStats(w http.ResponseWriter, r *http.Request) {
	studentID, ok := pathInt(w, r, "id")
	if !ok {
		return
	}

	grades := make([]domain.Grade, 0)
	for _, grade := range s.filterGrades(r) {
		if grade.StudentID == studentID {
			grades = append(grades, grade)
		}
	}

	writeData(w, http.StatusOK, domain.Statistics(grades))
}

func (s *Server) filterGrades(r *http.Request) []domain.Grade {
	query := r.URL.Query()
	studentID := queryInt(r, "student_id")

	grades := make([]domain.Grade, 0)
	for _, grade := range s.Grades() {
		if studentID > 0 && grade.StudentID != studentID {
			continue
		}
		if subject := query.Get("subject"); subject != "" && !strings.EqualFold(grade.Subject, subject) {
			continue
		}
		if semester := query.Get("semester"); semester != "" && grade.Semester != semester {
			continue
		}
		if year := query.Get("school_year"); year != "" && grade.SchoolYear != year {
			continue
		}
		grades = append(grades, grade)
	}

	return grades
}

func (s *Server) createGrade(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateGradeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Validation failed", err.Error())
		return
	}

	s.mu.Lock()
	grade := domain.Grade{
		ID:           s.allocID(),
		StudentID:    req.StudentID,
		Subject:      req.Subject,
		Grade:        req.Grade,
		Description:  req.Description,
		DateReceived: req.DateReceived,
		Weight:       req.Weight,
		Teacher:      req.Teacher,
		GradeType:    req.GradeType,
		Semester:     req.Semester,
		SchoolYear:   req.SchoolYear,
		AddedBy:      actingMember(r),
		CreatedAt:    s.stamp(),
		UpdatedAt:    s.stamp(),
	}
	s.grades[grade.ID] = grade
	s.mu.Unlock()

	writeData(w, http.StatusCreated, grade)
}

func (s *Server) updateGrade(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	var req domain.UpdateGradeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Validation failed", err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	grade, found := s.grades[id]
	if !found {
		writeError(w, http.StatusNotFound, "Grade not found")
		return
	}
	if req.Subject != nil {
		grade.Subject = *req.Subject
	}
	if req.Grade != nil {
		grade.Grade = *req.Grade
	}
	if req.Description != nil {
		grade.Description = *req.Description
	}
	if req.DateReceived != nil {
		grade.DateReceived = *req.DateReceived
	}
	if req.Weight != nil {
		grade.Weight = *req.Weight
	}
	if req.Teacher != nil {
		grade.Teacher = *req.Teacher
	}
	if req.GradeType != nil {
		grade.GradeType = *req.GradeType
	}
	if req.Semester != nil {
		grade.Semester = *req.Semester
	}
	if req.SchoolYear != nil {
		grade.SchoolYear = *req.SchoolYear
	}
	grade.UpdatedAt = s.stamp()
	s.grades[id] = grade

	writeData(w, http.StatusOK, grade)
}

func (s *Server) deleteGrade(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.grades[id]; !found {
		writeError(w, http.StatusNotFound, "Grade not found")
		return
	}
	delete(s.grades, id)

	writeMessage(w, "Grade deleted")
}

func (s *Server) registerToken(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterTokenRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Validation failed", err.Error())
		return
	}

	s.mu.Lock()
	token := domain.NotificationToken{
		ID:        s.allocID(),
		MemberID:  req.MemberID,
		Token:     req.Token,
		Platform:  req.DeviceType,
		Active:    true,
		CreatedAt: s.stamp(),
		UpdatedAt: s.stamp(),
	}
	s.tokens[token.ID] = token
	s.mu.Unlock()

	writeData(w, http.StatusCreated, token)
}

func (s *Server) deleteTokens(w http.ResponseWriter, r *http.Request) {
	memberID, ok := pathInt(w, r, "id")
	if !ok {
		return
	}

	s.mu.Lock()
	removed := 0
	for id, token := range s.tokens {
		if token.MemberID == memberID {
			delete(s.tokens, id)
			removed++
		}
	}
	s.mu.Unlock()

	writeMessage(w, fmt.Sprintf("Removed %d tokens", removed))
}

func involves(event domain.CalendarEvent, memberID int) bool {
	if event.CreatedBy == memberID {
		return true
	}
	for _, participant := range event.Participants {
		if participant.MemberID == memberID {
			return true
		}
	}

	return false
}

func parseTime(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false
	}

	return parsed, true
}
