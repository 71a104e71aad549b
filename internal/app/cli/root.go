// Package cli implements admitctl, the operator tool that works directly on a
// data directory: seeding reference data, inspecting applications and moving
// them through the workflow as a named user.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dalemusser/admitportal/internal/app/store/audit"
	"github.com/dalemusser/admitportal/internal/app/store/docstore"
	userstore "github.com/dalemusser/admitportal/internal/app/store/users"
	"github.com/dalemusser/admitportal/internal/app/system/auditlog"
	"github.com/dalemusser/admitportal/internal/app/system/timeouts"
	"github.com/dalemusser/admitportal/internal/app/workflow"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// options are the persistent flags shared by every subcommand.
type options struct {
	dataDir     string
	actor       string
	transitions string
	verbose     bool
}

// env is what a subcommand runs against. It lives for one command.
type env struct {
	ds     *docstore.Store
	svc    *workflow.Service
	users  *userstore.Store
	events *audit.Store
	audit  *auditlog.Logger
	log    *zap.Logger
	out    io.Writer
}

// NewRootCommand builds the admitctl command tree writing to out.
func NewRootCommand(out io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "admitctl",
		Short:         "Operate an admissions portal data directory",
		Long:          `admitctl seeds reference data and inspects or changes applications directly in a data directory. Stop the server first or point it at a copy: the store assumes one process.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(out)

	defDir := os.Getenv("ADMITPORTAL_DATA_DIR")
	if defDir == "" {
		defDir = "./data"
	}
	root.PersistentFlags().StringVar(&opts.dataDir, "data-dir", defDir, "data directory (env ADMITPORTAL_DATA_DIR)")
	root.PersistentFlags().StringVar(&opts.actor, "actor", "", "email of the user to act as")
	root.PersistentFlags().StringVar(&opts.transitions, "transitions", workflow.ModeStrict, "transition graph: strict or permissive")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log to stderr")

	root.AddCommand(
		newSeedCommand(opts),
		newKeygenCommand(),
		newApplicationsCommand(opts),
		newAuditCommand(opts),
	)
	return root
}

// Execute runs admitctl with os.Args and returns the process exit code.
func Execute() int {
	root := NewRootCommand(os.Stdout)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "admitctl:", err)
		return 1
	}
	return 0
}

// run opens the store, hands fn a ready env and closes the store afterwards.
func (o *options) run(cmd *cobra.Command, fn func(ctx context.Context, e *env) error) error {
	logger := zap.NewNop()
	if o.verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		logger = l
		defer func() { _ = logger.Sync() }()
	}

	ds, err := docstore.Open(o.dataDir, docstore.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("open %s: %w", o.dataDir, err)
	}
	defer func() {
		if cerr := ds.Close(); cerr != nil {
			logger.Error("docstore close failed", zap.Error(cerr))
		}
	}()

	events := audit.New(ds)
	al := auditlog.New(events, logger, auditlog.Config{Workflow: auditlog.ModeDB, Admin: auditlog.ModeDB})
	svc, err := workflow.New(ds, workflow.Config{Transitions: o.transitions},
		workflow.WithAuditLogger(al),
		workflow.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeouts.Batch())
	defer cancel()

	return fn(ctx, &env{
		ds:     ds,
		svc:    svc,
		users:  userstore.New(ds),
		events: events,
		audit:  al,
		log:    logger,
		out:    cmd.OutOrStdout(),
	})
}

var errNoActor = errors.New("--actor is required")

// actor resolves --actor to an active user.
func (o *options) resolveActor(ctx context.Context, e *env) (workflow.Actor, error) {
	if o.actor == "" {
		return workflow.Actor{}, errNoActor
	}
	u, err := e.users.GetByEmail(ctx, o.actor)
	if errors.Is(err, docstore.ErrNotFound) {
		return workflow.Actor{}, fmt.Errorf("no user with email %s", o.actor)
	}
	if err != nil {
		return workflow.Actor{}, err
	}
	if !u.IsActive {
		return workflow.Actor{}, fmt.Errorf("user %s is deactivated", o.actor)
	}
	return workflow.Actor{ID: u.ID, Role: u.Role}, nil
}
