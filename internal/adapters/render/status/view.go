package status

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/tentimesukulele/BobiPlanCheck/internal/application"
	"github.com/tentimesukulele/BobiPlanCheck/internal/domain"
)

type RenderOptions struct {
	Now time.Time
	// StaleAfter flags the offline queue once its oldest action is older than this.
	StaleAfter time.Duration
}

// dashboardPanels lists the dashboard sections top to bottom. The week panel
// is left out when the week type is unknown.
func dashboardPanels(snapshot application.DashboardSnapshot, opts RenderOptions, s styles) []func() string {
	panels := []func() string{
		func() string { return s.title.Render("BobiPlan") },
		func() string { return s.member.Render(memberTitle(snapshot)) },
		func() string { return connectionLine(snapshot.Online, s) },
	}

	if snapshot.WeekType != "" {
		panels = append(panels, func() string {
			return s.detail.Render(fmt.Sprintf("week: %s", snapshot.WeekType))
		})
	}

	return append(panels,
		func() string { return s.section.Render(queueLine(snapshot, opts, s)) },
		func() string { return s.section.Render(tasksBlock(snapshot, s)) },
	)
}

func memberTitle(snapshot application.DashboardSnapshot) string {
	if snapshot.User == nil {
		return fmt.Sprintf("Member #%d (nobody selected)", snapshot.ActingMemberID)
	}

	title := fmt.Sprintf("%s (#%d, %s)", strings.TrimSpace(snapshot.User.Name), snapshot.User.ID, roleLabel(snapshot.User.Role))
	if snapshot.ActingMemberID > 0 && snapshot.ActingMemberID != snapshot.User.ID {
		title += fmt.Sprintf(" acting as #%d", snapshot.ActingMemberID)
	}

	return title
}

func roleLabel(role domain.MemberRole) string {
	if role == "" {
		return "member"
	}

	return string(role)
}

func connectionLine(online bool, s styles) string {
	label := s.label.Render("connection:")
	if online {
		return label + " " + s.online.Render("online")
	}

	return label + " " + s.warning.Render("offline")
}

func queueLine(snapshot application.DashboardSnapshot, opts RenderOptions, s styles) string {
	label := s.label.Render("pending changes:")
	if snapshot.PendingActions == 0 {
		return label + " " + s.empty.Render("none")
	}

	line := label + " " + s.detail.Render(fmt.Sprintf("%d", snapshot.PendingActions))
	if snapshot.OldestPending.IsZero() {
		return line
	}

	line += " " + s.meta.Render(fmt.Sprintf("(oldest %s)", formatAge(snapshot.OldestPending, opts.Now)))
	if !opts.Now.IsZero() && opts.StaleAfter > 0 && opts.Now.Sub(snapshot.OldestPending) >= opts.StaleAfter {
		line += " " + s.warning.Render("[stale]")
	}

	return line
}

func tasksBlock(snapshot application.DashboardSnapshot, s styles) string {
	if snapshot.Tasks == nil {
		message := "tasks: unavailable"
		if snapshot.TasksError != "" {
			message += " (" + snapshot.TasksError + ")"
		}
		return s.empty.Render(message)
	}

	counts := snapshot.Tasks
	if counts.Total == 0 {
		return s.empty.Render("No tasks yet.")
	}

	percent := counts.CompletedPercent()
	percentStyle := lipgloss.NewStyle().Foreground(interpolateColor(percent, 0, 100))
	progress := lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.label.Render("tasks done:"),
		" ",
		renderProgressBar(percent, 24, s),
		" ",
		percentStyle.Render(fmt.Sprintf("%2.0f%%", clampPercent(percent))),
	)

	detail := s.meta.Render(fmt.Sprintf("%d total, %d pending, %d completed, %d disputed",
		counts.Total, counts.Pending, counts.Completed, counts.Disputed))
	mine := s.detail.Render(fmt.Sprintf("open for you: %d", counts.AssignedToMe))

	return lipgloss.JoinVertical(lipgloss.Left, progress, detail, mine)
}

func renderProgressBar(donePercent float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	fraction := clampPercent(donePercent) / 100.0
	filled := int(math.Round(float64(width) * fraction))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func formatAge(at, now time.Time) string {
	if now.IsZero() {
		return at.Format(time.RFC3339)
	}

	elapsed := now.Sub(at)
	if elapsed < time.Minute {
		return "just now"
	}
	if elapsed < time.Hour {
		return plural(int(elapsed.Minutes()), "minute") + " ago"
	}
	if elapsed < 24*time.Hour {
		return plural(int(elapsed.Hours()), "hour") + " ago"
	}

	return plural(int(math.Floor(elapsed.Hours()/24)), "day") + " ago"
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}

	return fmt.Sprintf("%d %ss", n, unit)
}

// interpolateColor maps value onto the 240..255 greyscale ramp.
func interpolateColor(value, min, max float64) lipgloss.Color {
	if max == min {
		return lipgloss.Color("255")
	}

	normalized := (value - min) / (max - min)
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 1 {
		normalized = 1
	}

	return lipgloss.Color(fmt.Sprintf("%d", int(240+15*normalized)))
}
