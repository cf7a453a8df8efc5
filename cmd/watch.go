package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tentimesukulele/BobiPlanCheck/internal/adapters/reachability"
	"go.uber.org/zap"
)

func newWatchCmd(app *app) *cobra.Command {
	var (
		schedule string
		duration time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch connectivity and sync pending changes whenever the server comes back",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}

			if schedule == "" {
				schedule = app.cfg.Monitor.Schedule
			}
			monitor := reachability.NewMonitor(app.probe, schedule, app.logger.Named("monitor"))

			out := cmd.OutOrStdout()
			drain := app.queue.HandleConnectivity(ctx)
			unsubscribe := monitor.AddListener(func(online bool) {
				if !online {
					_, _ = fmt.Fprintf(out, "%s offline, changes will be queued\n", app.now().Format(time.TimeOnly))
					return
				}

				_, _ = fmt.Fprintf(out, "%s online, syncing pending changes\n", app.now().Format(time.TimeOnly))
				drain(true)
				if remaining, err := app.queue.Count(ctx); err == nil {
					_, _ = fmt.Fprintf(out, "%d changes still pending\n", remaining)
				}
			})
			defer unsubscribe()

			if err := monitor.Start(ctx); err != nil {
				return err
			}
			defer monitor.Stop()

			app.logger.Debug("watching connectivity", zap.String("schedule", schedule))
			<-ctx.Done()
			return nil
		},
	}

	cmd.Flags().StringVar(&schedule, "schedule", "", "Cron spec for reachability checks, e.g. \"@every 10s\"")
	cmd.Flags().DurationVar(&duration, "for", 0, "Stop after this long instead of waiting for an interrupt")

	return cmd
}
