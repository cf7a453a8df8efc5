package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tentimesukulele/BobiPlanCheck/internal/domain"
)

func newScheduleCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Manage school timetables with alternating A/B weeks",
	}

	cmd.AddCommand(
		newScheduleListCmd(app),
		newScheduleAddCmd(app),
		newScheduleDeleteCmd(app),
		newScheduleWeekCmd(app),
	)

	return cmd
}

func newScheduleListCmd(app *app) *cobra.Command {
	var (
		studentID int
		week      string
		today     bool
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List lessons of a student (the acting member by default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := resolveMemberID(cmd.Context(), app, studentID)
			if err != nil {
				return err
			}

			var lessons []domain.ScheduleEntry
			switch {
			case today:
				lessons, err = app.schedule.Today(cmd.Context(), id)
			case week != "":
				var parsed domain.WeekType
				parsed, err = domain.ParseWeekType(week)
				if err != nil {
					return err
				}
				lessons, err = app.schedule.ForWeek(cmd.Context(), id, parsed)
			default:
				lessons, err = app.schedule.ForStudent(cmd.Context(), id)
			}
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, lessons)
			}

			if len(lessons) == 0 {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "no lessons")
				return err
			}
			for _, lesson := range lessons {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\tday %d\t%s-%s\t%s\n",
					lesson.ID, lesson.WeekType, lesson.DayOfWeek, lesson.StartTime, lesson.EndTime, lesson.Subject)
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&studentID, "student", 0, "Student member id")
	cmd.Flags().StringVar(&week, "week", "", "Only lessons of week A or B")
	cmd.Flags().BoolVar(&today, "today", false, "Only today's lessons for the current week type")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print lessons as JSON")

	return cmd
}

func newScheduleAddCmd(app *app) *cobra.Command {
	var (
		req  domain.CreateScheduleRequest
		week string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a lesson; week BOTH adds it to A and B",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := resolveMemberID(cmd.Context(), app, req.StudentID)
			if err != nil {
				return err
			}
			req.StudentID = id
			req.WeekType = domain.WeekType(week)

			created, err := app.schedule.Create(cmd.Context(), req)
			if err != nil {
				return err
			}

			for _, entry := range created {
				state := "created"
				if entry.ID < 0 {
					state = "saved offline"
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s lesson #%d %s (week %s, day %d)\n", state, entry.ID, entry.Subject, entry.WeekType, entry.DayOfWeek)
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&req.StudentID, "student", 0, "Student member id")
	cmd.Flags().StringVar(&week, "week", string(domain.WeekBoth), "Week type: A, B or BOTH")
	cmd.Flags().IntVar(&req.DayOfWeek, "day", 0, "Day of week, 1 (Monday) to 7 (Sunday)")
	cmd.Flags().StringVar(&req.Subject, "subject", "", "Subject")
	cmd.Flags().StringVar(&req.StartTime, "start", "", "Start time (HH:MM)")
	cmd.Flags().StringVar(&req.EndTime, "end", "", "End time (HH:MM)")
	cmd.Flags().StringVar(&req.Teacher, "teacher", "", "Teacher")
	cmd.Flags().StringVar(&req.Classroom, "classroom", "", "Classroom")
	_ = cmd.MarkFlagRequired("day")
	_ = cmd.MarkFlagRequired("subject")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}

func newScheduleDeleteCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a lesson",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRecordID(args[0], "lesson")
			if err != nil {
				return err
			}

			queued, err := app.schedule.Delete(cmd.Context(), id)
			if err != nil {
				return err
			}

			return writeMutationOutcome(cmd, fmt.Sprintf("lesson #%d deleted", id), queued)
		},
	}
}

func newScheduleWeekCmd(app *app) *cobra.Command {
	var set string

	cmd := &cobra.Command{
		Use:   "week",
		Short: "Show or set the week type used for timetables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if set != "" {
				week, err := domain.ParseWeekType(set)
				if err != nil {
					return err
				}
				if err := app.schedule.SetWeekType(cmd.Context(), week); err != nil {
					return err
				}
			}

			week := app.schedule.StoredWeekType(cmd.Context())
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "week %s\n", week)
			return err
		},
	}

	cmd.Flags().StringVar(&set, "set", "", "Store A or B as the current week type")

	return cmd
}
