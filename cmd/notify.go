package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tentimesukulele/BobiPlanCheck/internal/domain"
)

var errTokenNotRegistered = errors.New("push token not registered, see log for details")

func newNotifyCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Register or remove push notification tokens",
	}

	cmd.AddCommand(
		newNotifyRegisterCmd(app),
		newNotifyUnregisterCmd(app),
	)

	return cmd
}

func newNotifyRegisterCmd(app *app) *cobra.Command {
	var (
		memberID int
		token    string
		platform string
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a device push token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := resolveMemberID(cmd.Context(), app, memberID)
			if err != nil {
				return err
			}

			if !app.notifications.RegisterToken(cmd.Context(), id, token, domain.Platform(platform)) {
				return errTokenNotRegistered
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "push token registered for member #%d\n", id)
			return err
		},
	}

	cmd.Flags().IntVar(&memberID, "member", 0, "Member id, the acting member by default")
	cmd.Flags().StringVar(&token, "token", "", "Push token issued to the device")
	cmd.Flags().StringVar(&platform, "platform", string(domain.PlatformAndroid), "ios or android")
	_ = cmd.MarkFlagRequired("token")

	return cmd
}

func newNotifyUnregisterCmd(app *app) *cobra.Command {
	var memberID int

	cmd := &cobra.Command{
		Use:   "unregister",
		Short: "Remove every push token of a member",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := resolveMemberID(cmd.Context(), app, memberID)
			if err != nil {
				return err
			}
			if err := app.notifications.DeleteTokens(cmd.Context(), id); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "push tokens removed for member #%d\n", id)
			return err
		},
	}

	cmd.Flags().IntVar(&memberID, "member", 0, "Member id, the acting member by default")

	return cmd
}
