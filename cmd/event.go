package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tentimesukulele/BobiPlanCheck/internal/domain"
)

func newEventCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event",
		Short: "Manage family calendar events",
	}

	cmd.AddCommand(
		newEventListCmd(app),
		newEventCreateCmd(app),
		newEventRespondCmd(app),
		newEventDeleteCmd(app),
	)

	return cmd
}

func newEventListCmd(app *app) *cobra.Command {
	var (
		memberID int
		upcoming bool
		today    bool
		days     int
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List calendar events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				events []domain.CalendarEvent
				err    error
			)
			switch {
			case today:
				events, err = app.calendar.Today(cmd.Context())
			case days > 0:
				var id int
				id, err = resolveMemberID(cmd.Context(), app, memberID)
				if err != nil {
					return err
				}
				events, err = app.calendar.UpcomingForMember(cmd.Context(), id, days)
			case upcoming:
				events, err = app.calendar.Upcoming(cmd.Context())
			case memberID != 0:
				events, err = app.calendar.ForMember(cmd.Context(), memberID)
			default:
				events, err = app.calendar.All(cmd.Context())
			}
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, events)
			}

			if len(events) == 0 {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "no events")
				return err
			}
			for _, event := range events {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\t%s\n", event.ID, event.StartTime, event.EventType, event.Title)
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&memberID, "member", 0, "Only events created by or involving this member id")
	cmd.Flags().BoolVar(&upcoming, "upcoming", false, "Only events that have not started yet")
	cmd.Flags().BoolVar(&today, "today", false, "Only events of the current day")
	cmd.Flags().IntVar(&days, "days", 0, "Events of the acting (or --member) member within this many days")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print events as JSON")

	return cmd
}

func newEventCreateCmd(app *app) *cobra.Command {
	var (
		req           domain.CreateEventRequest
		eventType     string
		participants  []int
		checkConflict bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a calendar event",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req.EventType = domain.EventType(eventType)
			req.ParticipantIDs = participants

			if checkConflict {
				busy, err := busyParticipants(cmd, app, req)
				if err != nil {
					return err
				}
				if len(busy) > 0 {
					return fmt.Errorf("members already busy in that window: %s", strings.Join(busy, ", "))
				}
			}

			event, err := app.calendar.Create(cmd.Context(), 0, req)
			if err != nil {
				return err
			}

			if event.ID < 0 {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "event %q saved offline as #%d, it will sync when the server is reachable\n", event.Title, event.ID)
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "created event #%d %q\n", event.ID, event.Title)
			return err
		},
	}

	cmd.Flags().StringVar(&req.Title, "title", "", "Event title")
	cmd.Flags().StringVar(&req.Description, "description", "", "Event description")
	cmd.Flags().StringVar(&req.StartTime, "start", "", "Start time (RFC 3339)")
	cmd.Flags().StringVar(&req.EndTime, "end", "", "End time (RFC 3339)")
	cmd.Flags().StringVar(&req.Location, "location", "", "Location")
	cmd.Flags().StringVar(&eventType, "type", string(domain.EventTypeAppointment), "Event type: appointment, reminder or meeting")
	cmd.Flags().IntSliceVar(&participants, "participant", nil, "Participant member id (repeatable)")
	cmd.Flags().BoolVar(&checkConflict, "check-conflicts", false, "Refuse to create the event when a participant is busy")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("start")

	return cmd
}

func busyParticipants(cmd *cobra.Command, app *app, req domain.CreateEventRequest) ([]string, error) {
	var busy []string
	for _, memberID := range req.ParticipantIDs {
		available, err := app.calendar.IsMemberAvailable(cmd.Context(), memberID, req.StartTime, req.EndTime, 0)
		if err != nil {
			return nil, fmt.Errorf("check availability of member %d: %w", memberID, err)
		}
		if !available {
			busy = append(busy, fmt.Sprintf("#%d", memberID))
		}
	}

	return busy, nil
}

func newEventRespondCmd(app *app) *cobra.Command {
	var response string

	cmd := &cobra.Command{
		Use:   "respond <id>",
		Short: "Accept or decline an event invitation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRecordID(args[0], "event")
			if err != nil {
				return err
			}

			queued, err := app.calendar.Respond(cmd.Context(), id, 0, domain.RSVP(response))
			if err != nil {
				return err
			}

			return writeMutationOutcome(cmd, fmt.Sprintf("event #%d: %s", id, response), queued)
		},
	}

	cmd.Flags().StringVar(&response, "response", string(domain.RSVPAccepted), "accepted, declined or pending")

	return cmd
}

func newEventDeleteCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a calendar event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRecordID(args[0], "event")
			if err != nil {
				return err
			}

			queued, err := app.calendar.Delete(cmd.Context(), id)
			if err != nil {
				return err
			}

			return writeMutationOutcome(cmd, fmt.Sprintf("event #%d deleted", id), queued)
		},
	}
}
