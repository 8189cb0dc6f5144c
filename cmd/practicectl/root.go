package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mind-engage/triangle-practice/internal/app"
	"github.com/mind-engage/triangle-practice/internal/config"
	"github.com/mind-engage/triangle-practice/internal/logger"
)

type rootOpts struct {
	envFile  string
	driver   string
	dsn      string
	teacher  string
	logLevel string
}

func newRootCmd() *cobra.Command {
	o := &rootOpts{}
	root := &cobra.Command{
		Use:          "practicectl",
		Short:        "Teacher tools for the triangle practice records",
		Long:         "practicectl reads and maintains the answer-record store behind the practice dashboard.",
		SilenceUsage: true,
	}
	f := root.PersistentFlags()
	f.StringVar(&o.envFile, "env", ".env", "optional .env file")
	f.StringVar(&o.driver, "db-driver", "", "record store driver (overrides DB_DRIVER)")
	f.StringVar(&o.dsn, "dsn", "", "record store DSN (overrides DB_DSN)")
	f.StringVarP(&o.teacher, "teacher", "t", "", "teacher whose class to work on")
	f.StringVar(&o.logLevel, "log-level", "warn", "log level")

	root.AddCommand(
		newStatsCmd(o),
		newStudentCmd(o),
		newResetCmd(o),
		newDeleteAttemptCmd(o),
		newExportCmd(o),
		newAuditCmd(o),
		newHashPasswordCmd(),
	)
	return root
}

// open builds the app from config plus flag overrides.
func (o *rootOpts) open(ctx context.Context) *app.App {
	cfg := config.Load(o.envFile)
	if o.driver != "" {
		cfg.DBDriver = o.driver
	}
	if o.dsn != "" {
		cfg.DBDSN = o.dsn
	}
	log := logger.New(logger.Options{Level: o.logLevel})
	return app.New(ctx, cfg, log)
}

func (o *rootOpts) requireTeacher() error {
	if o.teacher == "" {
		return errors.New("--teacher is required")
	}
	return nil
}

func (o *rootOpts) run(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	if err := o.requireTeacher(); err != nil {
		return err
	}
	a := o.open(cmd.Context())
	defer a.Close()
	if err := fn(cmd.Context(), a); err != nil {
		a.Log.Debug("command failed", zap.String("cmd", cmd.Name()), zap.Error(err))
		return err
	}
	return nil
}
