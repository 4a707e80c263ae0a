package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"noteguard-be/pkg/events"
	pktNats "noteguard-be/pkg/nats"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newWatchCmd(opts Options) *cobra.Command {
	var (
		durable   string
		eventType string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print lifecycle events from NATS as they arrive",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Config.App.NatsURL == "" {
				return fmt.Errorf("NATS_URL is not set")
			}

			sub, err := pktNats.NewSubscriber(opts.Config.App.NatsURL)
			if err != nil {
				return err
			}
			defer sub.Close()

			subject := pktNats.StreamSubjects
			if eventType != "" {
				subject = events.Subject(events.BaseEvent{Type: eventType})
			}

			out := cmd.OutOrStdout()
			ctx := cmd.Context()
			err = sub.Subscribe(ctx, subject, durable, func(_ context.Context, event events.Event) error {
				return printEvent(out, event)
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(out, color.CyanString("Watching ")+color.YellowString(subject)+color.CyanString(" (Ctrl+C to stop)"))
			<-ctx.Done()
			return nil
		},
	}

	cmd.Flags().StringVar(&durable, "durable", "", "durable consumer name; empty starts at new messages")
	cmd.Flags().StringVar(&eventType, "type", "", "only show one event type, e.g. NOTE_SHARED")
	return cmd
}

func printEvent(out io.Writer, event events.Event) error {
	payload, err := json.Marshal(event.Payload())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s %s %s\n",
		color.YellowString(event.Timestamp().Format("2006-01-02T15:04:05Z07:00")),
		color.GreenString("%-20s", event.EventType()),
		payload,
	)
	return err
}
