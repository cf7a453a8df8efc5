package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMemberCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "member",
		Short: "List family members and choose who uses this device",
	}

	cmd.AddCommand(
		newMemberListCmd(app),
		newMemberSelectCmd(app),
		newMemberWhoamiCmd(app),
		newMemberLogoutCmd(app),
	)

	return cmd
}

func newMemberListCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List family members",
		RunE: func(cmd *cobra.Command, _ []string) error {
			members, err := app.members.List(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, members)
			}

			for _, member := range members {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", member.ID, member.Name, member.Role)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print members as JSON")
	return cmd
}

func newMemberSelectCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "select <id>",
		Short: "Remember a family member as the user of this device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRecordID(args[0], "member")
			if err != nil {
				return err
			}

			user, err := app.members.Select(cmd.Context(), id)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "now acting as %s (#%d, %s)\n", user.Name, user.ID, user.Role)
			return err
		},
	}
}

func newMemberWhoamiCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the selected family member",
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, ok := app.members.Whoami(cmd.Context())
			if !ok {
				id, err := resolveMemberID(cmd.Context(), app, 0)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "nobody selected, acting as member #%d\n", id)
				return err
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s (#%d, %s)\n", user.Name, user.ID, user.Role)
			return err
		},
	}
}

func newMemberLogoutCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the selected member and clear cached data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.members.Logout(cmd.Context()); err != nil {
				return err
			}

			_, err := fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return err
		},
	}
}
