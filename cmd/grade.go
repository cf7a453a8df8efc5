package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tentimesukulele/BobiPlanCheck/internal/domain"
)

func newGradeCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grade",
		Short: "Track school grades",
	}

	cmd.AddCommand(
		newGradeListCmd(app),
		newGradeAddCmd(app),
		newGradeDeleteCmd(app),
		newGradeAverageCmd(app),
	)

	return cmd
}

func bindGradeFilter(cmd *cobra.Command, filter *domain.GradeFilter) {
	cmd.Flags().StringVar(&filter.Subject, "subject", "", "Only this subject")
	cmd.Flags().StringVar(&filter.Semester, "semester", "", "Semester 1 or 2")
	cmd.Flags().StringVar(&filter.SchoolYear, "school-year", "", "School year, e.g. 2024/2025")
}

func newGradeListCmd(app *app) *cobra.Command {
	var (
		studentID int
		all       bool
		filter    domain.GradeFilter
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List grades of a student (the acting member by default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				grades []domain.Grade
				err    error
			)
			if all {
				grades, err = app.grades.All(cmd.Context(), filter)
			} else {
				var id int
				id, err = resolveMemberID(cmd.Context(), app, studentID)
				if err != nil {
					return err
				}
				grades, err = app.grades.ForStudent(cmd.Context(), id, filter)
			}
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, grades)
			}

			if len(grades) == 0 {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "no grades")
				return err
			}
			for _, grade := range grades {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\t%g\tweight %g\n", grade.ID, grade.DateReceived, grade.Subject, grade.Grade, grade.Weight)
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&studentID, "student", 0, "Student member id")
	cmd.Flags().BoolVar(&all, "all", false, "Grades of every student")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print grades as JSON")
	bindGradeFilter(cmd, &filter)

	return cmd
}

func newGradeAddCmd(app *app) *cobra.Command {
	var (
		req       domain.CreateGradeRequest
		gradeType string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a grade",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := resolveMemberID(cmd.Context(), app, req.StudentID)
			if err != nil {
				return err
			}
			req.StudentID = id
			req.GradeType = domain.GradeType(gradeType)

			now := app.now()
			if req.DateReceived == "" {
				req.DateReceived = now.Format("2006-01-02")
			}
			if req.Semester == "" {
				req.Semester = domain.Semester(now)
			}
			if req.SchoolYear == "" {
				req.SchoolYear = domain.SchoolYear(now)
			}

			grade, err := app.grades.Create(cmd.Context(), 0, req)
			if err != nil {
				return err
			}

			if grade.ID < 0 {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "grade %g in %s saved offline as #%d, it will sync when the server is reachable\n", grade.Grade, grade.Subject, grade.ID)
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "recorded grade #%d: %g in %s\n", grade.ID, grade.Grade, grade.Subject)
			return err
		},
	}

	cmd.Flags().IntVar(&req.StudentID, "student", 0, "Student member id")
	cmd.Flags().StringVar(&req.Subject, "subject", "", "Subject")
	cmd.Flags().Float64Var(&req.Grade, "grade", 0, "Grade from 1 to 5")
	cmd.Flags().Float64Var(&req.Weight, "weight", 1, "Weight from 1 to 5")
	cmd.Flags().StringVar(&gradeType, "type", string(domain.GradeTypeOther), "test, homework, oral, project or other")
	cmd.Flags().StringVar(&req.Description, "description", "", "Description")
	cmd.Flags().StringVar(&req.Teacher, "teacher", "", "Teacher")
	cmd.Flags().StringVar(&req.DateReceived, "date", "", "Date received (YYYY-MM-DD), today by default")
	cmd.Flags().StringVar(&req.Semester, "semester", "", "Semester 1 or 2, current by default")
	cmd.Flags().StringVar(&req.SchoolYear, "school-year", "", "School year, current by default")
	_ = cmd.MarkFlagRequired("subject")
	_ = cmd.MarkFlagRequired("grade")

	return cmd
}

func newGradeDeleteCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a grade",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRecordID(args[0], "grade")
			if err != nil {
				return err
			}

			queued, err := app.grades.Delete(cmd.Context(), id)
			if err != nil {
				return err
			}

			return writeMutationOutcome(cmd, fmt.Sprintf("grade #%d deleted", id), queued)
		},
	}
}

func newGradeAverageCmd(app *app) *cobra.Command {
	var (
		studentID int
		filter    domain.GradeFilter
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "average",
		Short: "Show weighted averages per subject",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := resolveMemberID(cmd.Context(), app, studentID)
			if err != nil {
				return err
			}

			if filter.Subject != "" {
				grades, err := app.grades.ForStudent(cmd.Context(), id, filter)
				if err != nil {
					return err
				}
				average := domain.SubjectAverageOf(grades, filter.Subject)
				if asJSON {
					return writeJSON(cmd, domain.SubjectAverage{Subject: filter.Subject, Average: average, GradeCount: len(grades)})
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%.2f\n", filter.Subject, average)
				return err
			}

			stats, err := app.grades.Statistics(cmd.Context(), id, filter)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, stats)
			}

			for _, subject := range stats.SubjectAverages {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%.2f\t(%d grades)\n", subject.Subject, subject.Average, subject.GradeCount)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "overall\t%.2f\n", stats.OverallAverage)
			return err
		},
	}

	cmd.Flags().IntVar(&studentID, "student", 0, "Student member id")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print averages as JSON")
	bindGradeFilter(cmd, &filter)

	return cmd
}
