package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

type globalFlags struct {
	offline bool
	actAs   int
}

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "bp",
		Short:         "BobiPlan CLI (bp): household tasks, calendar, schedule and grades",
		Long:          "bp talks to the BobiPlan household API. Changes made while the server is unreachable are queued locally and replayed once it is back; reads fall back to the last cached answer.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	flags := &globalFlags{}
	rootCmd.PersistentFlags().BoolVar(&flags.offline, "offline", false, "Treat the server as unreachable: queue changes and read from cache")
	rootCmd.PersistentFlags().IntVar(&flags.actAs, "as", 0, "Act as this family member id for the current command")

	rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		if flags.actAs < 0 {
			return fmt.Errorf("--as must be a positive member id, got %d", flags.actAs)
		}
		if flags.actAs > 0 {
			app.identity.Set(flags.actAs)
		}
		app.probe.ForceOffline(flags.offline)
		return nil
	}
	rootCmd.PersistentPostRun = func(_ *cobra.Command, _ []string) {
		app.close()
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newMemberCmd(app),
		newTaskCmd(app),
		newEventCmd(app),
		newScheduleCmd(app),
		newGradeCmd(app),
		newQueueCmd(app),
		newCacheCmd(app),
		newNotifyCmd(app),
		newStatusCmd(app),
		newWatchCmd(app),
	)

	return rootCmd
}
