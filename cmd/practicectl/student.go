package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mind-engage/triangle-practice/internal/app"
	"github.com/mind-engage/triangle-practice/internal/attempt"
)

func newStudentCmd(o *rootOpts) *cobra.Command {
	var key string
	cmd := &cobra.Command{
		Use:   "student NAME",
		Short: "Show a student's attempts, or one attempt's items with --attempt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, a *app.App) error {
				dash := a.Dashboard()
				out := cmd.OutOrStdout()
				if key != "" {
					k, err := attempt.ParseKey(key)
					if err != nil {
						return err
					}
					strip, err := dash.AttemptItems(ctx, o.teacher, args[0], k)
					if err != nil {
						return err
					}
					for _, g := range strip {
						fmt.Fprintf(out, "SBG %.1f:", g.SBG)
						for _, it := range g.Items {
							mark := "x"
							if it.Correct {
								mark = "ok"
							}
							fmt.Fprintf(out, " Q%d(%s)", it.QuestionID, mark)
						}
						fmt.Fprintln(out)
					}
					return nil
				}

				sum, err := dash.Student(ctx, o.teacher, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Student: %s\n", sum.Student)
				fmt.Fprintf(out, "Practice attempts: %d\n", sum.Attempts)
				fmt.Fprintf(out, "Current SBG level: %.1f\n", sum.CurrentSBG)
				if len(sum.List) == 0 {
					return nil
				}
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "\nKEY\tWHEN\tCORRECT")
				for _, at := range sum.List {
					fmt.Fprintf(tw, "%s\t%s\t%d/%d\n", at.Key, at.Label, at.Correct, at.Items)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&key, "attempt", "", "attempt key to lay out by SBG")
	return cmd
}

var errNotConfirmed = errors.New("refusing to delete without --yes")
