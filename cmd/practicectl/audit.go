package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mind-engage/triangle-practice/internal/app"
	"github.com/mind-engage/triangle-practice/internal/audit"
)

func newAuditCmd(o *rootOpts) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "List recent resets and deleted attempts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := o.open(cmd.Context())
			defer a.Close()
			return listAudit(cmd, a, limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "number of events")
	return cmd
}

func listAudit(cmd *cobra.Command, a *app.App, limit int) error {
	repo, ok := a.Audit.(*audit.EventRepo)
	if !ok {
		return errors.New("audit log needs a SQL record store")
	}
	events, err := repo.List(cmd.Context(), limit)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tTYPE\tKEY\tDATA")
	for _, e := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.CreatedAt.Format(time.DateTime), e.Type, e.Key, e.Data)
	}
	return tw.Flush()
}
