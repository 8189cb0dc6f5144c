package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mind-engage/triangle-practice/internal/app"
	"github.com/mind-engage/triangle-practice/internal/attempt"
)

func newResetCmd(o *rootOpts) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset NAME",
		Short: "Delete ALL attempts of a student",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errNotConfirmed
			}
			return o.run(cmd, func(ctx context.Context, a *app.App) error {
				n, err := a.Dashboard().ResetStudent(ctx, o.teacher, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %d records for %s\n", n, args[0])
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm; this cannot be undone")
	return cmd
}

func newDeleteAttemptCmd(o *rootOpts) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete-attempt NAME KEY",
		Short: "Delete one attempt of a student",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := attempt.ParseKey(args[1])
			if err != nil {
				return err
			}
			if !yes {
				return errNotConfirmed
			}
			return o.run(cmd, func(ctx context.Context, a *app.App) error {
				n, err := a.Dashboard().DeleteAttempt(ctx, o.teacher, args[0], key)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %d records of attempt %s\n", n, key)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm; this cannot be undone")
	return cmd
}
