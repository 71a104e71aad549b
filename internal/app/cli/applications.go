package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dalemusser/admitportal/internal/app/store/docstore"
	"github.com/dalemusser/admitportal/internal/app/system/idgen"
	"github.com/dalemusser/admitportal/internal/app/system/normalize"
	"github.com/dalemusser/admitportal/internal/app/workflow"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newApplicationsCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "applications",
		Aliases: []string{"apps"},
		Short:   "List, inspect and move applications as --actor",
	}
	cmd.AddCommand(
		newListCommand(opts),
		newShowCommand(opts),
		newTransitionCommand(opts),
		newAssignCommand(opts),
	)
	return cmd
}

func parseID(s string) (primitive.ObjectID, error) {
	id, ok := idgen.ParseHex(s)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("%q is not an application id", s)
	}
	return id, nil
}

func newListCommand(opts *options) *cobra.Command {
	var (
		status  string
		student string
		page    int
		limit   int
		sortBy  string
		desc    bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the applications --actor can see",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, e *env) error {
				actor, err := opts.resolveActor(ctx, e)
				if err != nil {
					return err
				}
				filter := workflow.Filter{Status: normalize.Status(status)}
				if student != "" {
					u, err := e.users.GetByEmail(ctx, student)
					if errors.Is(err, docstore.ErrNotFound) {
						return fmt.Errorf("no user with email %s", student)
					}
					if err != nil {
						return err
					}
					filter.StudentID = &u.ID
				}

				res, err := e.svc.List(ctx, actor, filter, docstore.PageRequest{
					Page:  page,
					Limit: limit,
					Sort:  docstore.Sort{Field: sortBy, Desc: desc},
				})
				if err != nil {
					return err
				}

				tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tSTATUS\tSTUDENT\tUNIVERSITY\tCOURSE\tUPDATED")
				for _, v := range res.Data {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
						v.ID.Hex(), v.Status, studentLabel(v), universityLabel(v), courseLabel(v),
						v.UpdatedAt.UTC().Format(time.RFC3339))
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				p := res.Pagination
				fmt.Fprintf(e.out, "page %d of %d (%d total)\n", p.Page, max(p.TotalPages, 1), p.Total)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only this status")
	cmd.Flags().StringVar(&student, "student", "", "only this student's applications (email)")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&limit, "limit", 0, "page size (0 uses the default)")
	cmd.Flags().StringVar(&sortBy, "sort", "created_at", "created_at, updated_at, submitted_at or status")
	cmd.Flags().BoolVar(&desc, "desc", false, "sort descending")
	return cmd
}

func studentLabel(v workflow.ApplicationView) string {
	if v.Student == nil {
		return v.StudentID.Hex()
	}
	return v.Student.Email
}

func universityLabel(v workflow.ApplicationView) string {
	if v.University == nil {
		return v.UniversityID.Hex()
	}
	return v.University.Code
}

func courseLabel(v workflow.ApplicationView) string {
	if v.Course == nil {
		return v.CourseID.Hex()
	}
	if v.Course.Code != "" {
		return v.Course.Code
	}
	return v.Course.Name
}

func newShowCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Print one application as JSON, with the statuses --actor may move it to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return opts.run(cmd, func(ctx context.Context, e *env) error {
				actor, err := opts.resolveActor(ctx, e)
				if err != nil {
					return err
				}
				view, err := e.svc.Get(ctx, actor, id)
				if err != nil {
					return err
				}
				next, err := e.svc.NextStatuses(ctx, actor, id)
				if err != nil {
					return err
				}
				out := struct {
					*workflow.ApplicationView
					Next []string `json:"next_statuses"`
				}{view, next}
				if out.Next == nil {
					out.Next = []string{}
				}
				enc := json.NewEncoder(e.out)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			})
		},
	}
}

func newTransitionCommand(opts *options) *cobra.Command {
	var notes string
	cmd := &cobra.Command{
		Use:   "transition ID STATUS",
		Short: "Move an application to STATUS as --actor",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return opts.run(cmd, func(ctx context.Context, e *env) error {
				actor, err := opts.resolveActor(ctx, e)
				if err != nil {
					return err
				}
				app, err := e.svc.Transition(ctx, actor, id, args[1], notes)
				if err != nil {
					return err
				}
				last := app.StatusHistory[len(app.StatusHistory)-1]
				fmt.Fprintf(e.out, "%s is now %s (%s)\n", app.ID.Hex(), app.Status,
					last.Timestamp.UTC().Format(time.RFC3339))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&notes, "notes", "", "note recorded in the status history")
	return cmd
}

func newAssignCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "assign ID COUNSELOR_EMAIL",
		Short: "Assign a counselor to an application (admin --actor only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return opts.run(cmd, func(ctx context.Context, e *env) error {
				actor, err := opts.resolveActor(ctx, e)
				if err != nil {
					return err
				}
				counselor, err := e.users.GetByEmail(ctx, args[1])
				if errors.Is(err, docstore.ErrNotFound) {
					return fmt.Errorf("no user with email %s", args[1])
				}
				if err != nil {
					return err
				}
				if _, err := e.svc.AssignCounselor(ctx, actor, id, counselor.ID); err != nil {
					return err
				}
				fmt.Fprintf(e.out, "%s assigned to %s\n", id.Hex(), strings.ToLower(counselor.Email))
				return nil
			})
		},
	}
}
