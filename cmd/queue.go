package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/tentimesukulele/BobiPlanCheck/internal/domain"
)

var errServerUnreachable = errors.New("server unreachable")

func newQueueCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and replay changes made while offline",
	}

	cmd.AddCommand(
		newQueueListCmd(app),
		newQueueSyncCmd(app),
		newQueueClearCmd(app),
	)

	return cmd
}

func newQueueListCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pending changes in replay order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			actions, err := app.queue.Pending(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				if actions == nil {
					actions = []domain.PendingAction{}
				}
				return writeJSON(cmd, actions)
			}

			if len(actions) == 0 {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "no pending changes")
				return err
			}
			for _, action := range actions {
				line := fmt.Sprintf("%s\t%s %s\t%s", action.ID, action.ReplayMethod(), action.Endpoint, action.EnqueuedAt().Format(time.RFC3339))
				if action.Attempts > 0 {
					line += fmt.Sprintf("\tattempts %d: %s", action.Attempts, action.LastError)
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), line)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print pending changes as JSON")
	return cmd
}

func newQueueSyncCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Replay pending changes against the server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !app.backend.Online(cmd.Context()) {
				count, err := app.queue.Count(cmd.Context())
				if err != nil {
					return err
				}
				return fmt.Errorf("%w: %d changes stay queued", errServerUnreachable, count)
			}

			result, err := runSyncProgress(cmd.Context(), cmd.ErrOrStderr(), app.queue.DrainWithProgress)
			if err != nil {
				return fmt.Errorf("sync offline changes: %w", err)
			}
			if asJSON {
				return writeJSON(cmd, result)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "synced %d of %d changes, %d failed, %d dropped, %d remaining\n",
				result.Succeeded, result.Attempted, result.Failed, result.Dropped, result.Remaining)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the sync result as JSON")
	return cmd
}

func newQueueClearCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Discard every pending change",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.queue.Clear(cmd.Context()); err != nil {
				return err
			}

			_, err := fmt.Fprintln(cmd.OutOrStdout(), "pending changes discarded")
			return err
		},
	}
}

func newCacheCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached server responses",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove cached responses and pending changes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.cache.ClearAll(cmd.Context()); err != nil {
				return err
			}

			_, err := fmt.Fprintln(cmd.OutOrStdout(), "cache cleared")
			return err
		},
	})

	return cmd
}
