package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mind-engage/triangle-practice/internal/app"
)

func newExportCmd(o *rootOpts) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the class dashboard to an XLSX file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.run(cmd, func(ctx context.Context, a *app.App) error {
				if path == "" {
					path = fmt.Sprintf("%s-%s.xlsx", o.teacher, time.Now().Format("20060102"))
				}
				f, err := os.Create(path)
				if err != nil {
					return err
				}
				if err := a.Dashboard().Export(ctx, o.teacher, f); err != nil {
					f.Close()
					os.Remove(path)
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&path, "out", "o", "", "output file (default <teacher>-<date>.xlsx)")
	return cmd
}
