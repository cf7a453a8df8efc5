package application

import (
	"fmt"

	"github.com/tentimesukulele/BobiPlanCheck/internal/domain"
)

const (
	familyPath        = "/family"
	tasksPath         = "/tasks"
	calendarPath      = "/calendar"
	calendarConflicts = "/calendar/conflicts"
	schedulePath      = "/schedule"
	currentWeekPath   = "/schedule/current-week"
	gradesPath        = "/grades"
	allGradesPath     = "/grades/all"
	registerTokenPath = "/notifications/register-token"
)

func familyMemberPath(id int) string { return fmt.Sprintf("%s/%d", familyPath, id) }
func pushTokenPath(id int) string { return fmt.Sprintf("%s/%d/push-token", familyPath, id) }
func activityPath(id int) string { return fmt.Sprintf("%s/%d/activity", familyPath, id) }

func taskPath(id int) string { return fmt.Sprintf("%s/%d", tasksPath, id) }
func completeTaskPath(id int) string { return fmt.Sprintf("%s/%d/complete", tasksPath, id) }
func reassignTaskPath(id int) string { return fmt.Sprintf("%s/%d/reassign", tasksPath, id) }

func eventPath(id int) string { return fmt.Sprintf("%s/%d", calendarPath, id) }
func respondEventPath(id int) string { return fmt.Sprintf("%s/%d/respond", calendarPath, id) }
func upcomingEventsPath(days int) string { return fmt.Sprintf("%s/upcoming/%d", calendarPath, days) }

func scheduleEntryPath(id int) string { return fmt.Sprintf("%s/%d", schedulePath, id) }
func studentSchedulePath(studentID int) string { return fmt.Sprintf("%s/student/%d", schedulePath, studentID) }
func todaySchedulePath(studentID int) string { return fmt.Sprintf("%s/today/%d", schedulePath, studentID) }
func weekSchedulePath(studentID int, week domain.WeekType) string {
	return fmt.Sprintf("%s/week/%d/%s", schedulePath, studentID, week)
}

func gradePath(id int) string { return fmt.Sprintf("%s/%d", gradesPath, id) }
func gradeStatsPath(studentID int) string { return fmt.Sprintf("%s/stats/%d", gradesPath, studentID) }

func notificationTokensPath(memberID int) string {
	return fmt.Sprintf("/notifications/tokens/%d", memberID)
}
