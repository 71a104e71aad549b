package cli

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dalemusser/admitportal/internal/app/store/audit"
	"github.com/dalemusser/admitportal/internal/domain/models"
	"github.com/spf13/cobra"
)

func newAuditCommand(opts *options) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "audit [APPLICATION_ID]",
		Short: "Show audit events, newest first (admin --actor only)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := audit.QueryFilter{Limit: limit}
			if len(args) == 1 {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				filter.ApplicationID = &id
			}
			return opts.run(cmd, func(ctx context.Context, e *env) error {
				actor, err := opts.resolveActor(ctx, e)
				if err != nil {
					return err
				}
				if actor.Role != models.RoleAdmin {
					return fmt.Errorf("audit: %s is not an admin", opts.actor)
				}
				events, err := e.events.Query(ctx, filter)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "TIME\tEVENT\tACTOR\tAPPLICATION\tDETAILS")
				for _, ev := range events {
					actorID, appID := "-", "-"
					if ev.ActorID != nil {
						actorID = ev.ActorID.Hex()
					}
					if ev.ApplicationID != nil {
						appID = ev.ApplicationID.Hex()
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
						ev.Timestamp.UTC().Format(time.RFC3339), ev.EventType, actorID, appID, details(ev))
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum events to show (0 means 100)")
	return cmd
}

// details renders event details as sorted key=value pairs.
func details(ev audit.Event) string {
	if !ev.Success && ev.FailureReason != "" {
		return "denied: " + ev.FailureReason
	}
	keys := slices.Sorted(maps.Keys(ev.Details))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+ev.Details[k])
	}
	return strings.Join(parts, " ")
}
