package cli

import (
	"context"
	"fmt"

	"github.com/dalemusser/admitportal/internal/app/seed"
	"github.com/dalemusser/admitportal/internal/app/system/auth"
	"github.com/spf13/cobra"
)

func newSeedCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "seed CATALOG.yaml",
		Short: "Create universities, courses and users from a YAML catalog",
		Long:  `seed creates every university, course and user in the catalog that does not exist yet. Running it twice is harmless.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := seed.LoadFile(args[0])
			if err != nil {
				return err
			}
			return opts.run(cmd, func(ctx context.Context, e *env) error {
				res, err := seed.New(e.ds, e.audit, e.log).Apply(ctx, cat, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(e.out, "created %d universities, %d courses, %d users\n",
					res.Universities, res.Courses, res.Users)
				return nil
			})
		},
	}
}

func newKeygenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Print a random session signing key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := auth.GenerateSessionKey()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
}
