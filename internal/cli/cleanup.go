package cli

import (
	"fmt"

	"noteguard-be/internal/entity"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// operator is the identity maintenance commands act as.
var operator = entity.Actor{Id: uuid.Nil, Role: entity.UserRoleAdmin}

func newSweepCmd(opts Options) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Invalidate expired share links and delete expired notes now",
		RunE: withServices(opts, func(cmd *cobra.Command, svc *services) error {
			ctx := cmd.Context()
			res, err := svc.cleanup.Sweep(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, color.GreenString("✓")+" Cleanup completed at "+color.YellowString(res.RanAt.Format("2006-01-02 15:04:05 MST")))
			fmt.Fprintf(out, "  Share links invalidated: %s\n", color.CyanString("%d", res.SharesInvalidated))
			fmt.Fprintf(out, "  Notes purged:            %s\n", color.CyanString("%d", res.NotesPurged))
			return nil
		}),
	}
}

func newExpiringCmd(opts Options) *cobra.Command {
	var hours int

	cmd := &cobra.Command{
		Use:   "expiring",
		Short: "Count notes that expire within the next N hours",
		RunE: withServices(opts, func(cmd *cobra.Command, svc *services) error {
			ctx := cmd.Context()
			res, err := svc.cleanup.ExpiringWithin(ctx, hours)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Notes expiring within %s: %s\n", color.YellowString("%dh", res.Hours), color.CyanString("%d", res.ExpiringWithin))
			fmt.Fprintf(out, "Already expired, awaiting sweep: %s\n", color.CyanString("%d", res.AlreadyExpired))
			return nil
		}),
	}
	cmd.Flags().IntVar(&hours, "hours", 24, "look-ahead window in hours")
	return cmd
}

func newStatsCmd(opts Options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show user and note statistics",
		RunE: withServices(opts, func(cmd *cobra.Command, svc *services) error {
			ctx := cmd.Context()
			dash, err := svc.admin.Dashboard(ctx, operator)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, color.CyanString("Users"))
			fmt.Fprintf(out, "  Total:   %d\n  Admins:  %d\n  Regular: %d\n", dash.Users.TotalUsers, dash.Users.AdminUsers, dash.Users.RegularUsers)
			fmt.Fprintln(out, color.CyanString("Notes"))
			fmt.Fprintf(out, "  Total:              %d\n  Shared:             %d\n  Expired:            %d\n  Expiring in 24h:    %d\n",
				dash.Notes.TotalNotes, dash.Notes.SharedNotes, dash.Notes.ExpiredNotes, dash.Notes.ExpiringWithinDay)
			return nil
		}),
	}
}
