package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mind-engage/triangle-practice/internal/app"
	"github.com/mind-engage/triangle-practice/internal/mastery"
)

func newStatsCmd(o *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the class overview and item analysis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.run(cmd, func(ctx context.Context, a *app.App) error {
				ov, err := a.Dashboard().Overview(ctx, o.teacher)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Teacher: %s\n", ov.Teacher)
				fmt.Fprintf(out, "Students: %d\n", ov.Stats.Students)
				fmt.Fprintf(out, "Practice attempts: %d\n", ov.Stats.Attempts)
				fmt.Fprintf(out, "Overall accuracy: %d%%\n\n", ov.Stats.Accuracy)

				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "BAND\tSTUDENTS")
				for _, b := range mastery.Bands {
					fmt.Fprintf(tw, "%s\t%d\n", b, ov.Stats.Bands[b])
				}
				fmt.Fprintln(tw, "\nSTUDENT\tATTEMPTS\tSBG\tBAND")
				for _, s := range ov.Students {
					fmt.Fprintf(tw, "%s\t%d\t%.1f\t%s\n", s.Student, s.Attempts, s.Mastery, s.Band)
				}
				fmt.Fprintln(tw, "\nQUESTION\tSBG\tCORRECT\tTOTAL\tPERCENT")
				for _, it := range ov.Items {
					fmt.Fprintf(tw, "Q%d\t%.1f\t%d\t%d\t%d%%\n", it.QuestionID, it.SBG, it.Correct, it.Total, it.Percent)
				}
				return tw.Flush()
			})
		},
	}
}
