package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	statusadapter "github.com/tentimesukulele/BobiPlanCheck/internal/adapters/render/status"
	"github.com/tentimesukulele/BobiPlanCheck/internal/application"
	"github.com/tentimesukulele/BobiPlanCheck/internal/domain"
)

const defaultStaleAfter = 24 * time.Hour

func newStatusCmd(app *app) *cobra.Command {
	var (
		asJSON     bool
		staleAfter time.Duration
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show acting member, connectivity, pending changes and task progress",
		RunE: func(cmd *cobra.Command, _ []string) error {
			snapshot, err := app.dashboard.Snapshot(cmd.Context())
			if err != nil {
				return err
			}

			return writeSnapshotOutput(cmd, app, snapshot, staleAfter, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the snapshot as JSON")
	cmd.Flags().DurationVar(&staleAfter, "stale-after", defaultStaleAfter, "Flag pending changes older than this")

	return cmd
}

func writeSnapshotOutput(cmd *cobra.Command, app *app, snapshot application.DashboardSnapshot, staleAfter time.Duration, asJSON bool) error {
	if asJSON {
		return writeJSON(cmd, snapshot)
	}

	rendered, err := app.statusRenderer(snapshot, statusadapter.RenderOptions{
		Now:        app.now(),
		StaleAfter: staleAfter,
	})
	if err != nil {
		return fmt.Errorf("render status: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}

func writeJSON(cmd *cobra.Command, value any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

// writeMutationOutcome reports whether a change reached the server or waits in the queue.
func writeMutationOutcome(cmd *cobra.Command, what string, queued *domain.PendingAction) error {
	if queued != nil {
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s queued for sync (%s)\n", what, queued.ID)
		return err
	}

	_, err := fmt.Fprintln(cmd.OutOrStdout(), what)
	return err
}
