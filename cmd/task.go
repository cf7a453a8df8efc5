package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tentimesukulele/BobiPlanCheck/internal/domain"
)

func newTaskCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage household tasks",
	}

	cmd.AddCommand(
		newTaskListCmd(app),
		newTaskCreateCmd(app),
		newTaskCompleteCmd(app),
		newTaskReassignCmd(app),
		newTaskDeleteCmd(app),
	)

	return cmd
}

func newTaskListCmd(app *app) *cobra.Command {
	var (
		assignedTo int
		createdBy  int
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks, optionally filtered by assignee or creator",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if assignedTo != 0 && createdBy != 0 {
				return fmt.Errorf("--assigned-to and --created-by are mutually exclusive")
			}

			var (
				tasks []domain.Task
				err   error
			)
			switch {
			case assignedTo != 0:
				tasks, err = app.tasks.AssignedTo(cmd.Context(), assignedTo)
			case createdBy != 0:
				tasks, err = app.tasks.CreatedBy(cmd.Context(), createdBy)
			default:
				tasks, err = app.tasks.All(cmd.Context())
			}
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, tasks)
			}

			if len(tasks) == 0 {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "no tasks")
				return err
			}
			for _, task := range tasks {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\tassigned to #%d\n", task.ID, task.Status, task.Title, task.AssignedTo)
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&assignedTo, "assigned-to", 0, "Only tasks assigned to this member id")
	cmd.Flags().IntVar(&createdBy, "created-by", 0, "Only tasks created by this member id")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print tasks as JSON")

	return cmd
}

func newTaskCreateCmd(app *app) *cobra.Command {
	var (
		req      domain.CreateTaskRequest
		taskType string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req.TaskType = domain.TaskType(taskType)

			task, err := app.tasks.Create(cmd.Context(), 0, req)
			if err != nil {
				return err
			}

			if task.Placeholder() {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "task %q saved offline as #%d, it will sync when the server is reachable\n", task.Title, task.ID)
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "created task #%d %q\n", task.ID, task.Title)
			return err
		},
	}

	cmd.Flags().StringVar(&req.Title, "title", "", "Task title")
	cmd.Flags().StringVar(&req.Description, "description", "", "Task description")
	cmd.Flags().IntVar(&req.AssignedTo, "assign", 0, "Member id the task is assigned to")
	cmd.Flags().StringVar(&taskType, "type", string(domain.TaskTypeOneTime), "Task type: one_time or weekly")
	cmd.Flags().StringVar(&req.DueDate, "due", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&req.WeeklyStartDate, "week-start", "", "First day of a weekly task (YYYY-MM-DD)")
	cmd.Flags().StringVar(&req.WeeklyEndDate, "week-end", "", "Last day of a weekly task (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("assign")

	return cmd
}

func newTaskCompleteCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <id>",
		Short: "Mark a task as completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRecordID(args[0], "task")
			if err != nil {
				return err
			}

			queued, err := app.tasks.Complete(cmd.Context(), id)
			if err != nil {
				return err
			}

			return writeMutationOutcome(cmd, fmt.Sprintf("task #%d completed", id), queued)
		},
	}
}

func newTaskReassignCmd(app *app) *cobra.Command {
	var assignee int

	cmd := &cobra.Command{
		Use:   "reassign <id>",
		Short: "Hand a task to another member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRecordID(args[0], "task")
			if err != nil {
				return err
			}

			queued, err := app.tasks.Reassign(cmd.Context(), id, assignee)
			if err != nil {
				return err
			}

			return writeMutationOutcome(cmd, fmt.Sprintf("task #%d reassigned to #%d", id, assignee), queued)
		},
	}

	cmd.Flags().IntVar(&assignee, "to", 0, "New assignee member id")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func newTaskDeleteCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRecordID(args[0], "task")
			if err != nil {
				return err
			}

			queued, err := app.tasks.Delete(cmd.Context(), id)
			if err != nil {
				return err
			}

			return writeMutationOutcome(cmd, fmt.Sprintf("task #%d deleted", id), queued)
		},
	}
}
