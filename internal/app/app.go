// Package app opens the collaborators both binaries share, based on config.
package app

import (
	"context"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/mind-engage/triangle-practice/internal/audit"
	"github.com/mind-engage/triangle-practice/internal/config"
	"github.com/mind-engage/triangle-practice/internal/dashboard"
	"github.com/mind-engage/triangle-practice/internal/db"
	"github.com/mind-engage/triangle-practice/internal/metrics"
	"github.com/mind-engage/triangle-practice/internal/records"
	"github.com/mind-engage/triangle-practice/internal/roster"
	"github.com/mind-engage/triangle-practice/internal/snapshot"
	"github.com/mind-engage/triangle-practice/internal/storage"
)

type App struct {
	Cfg     config.Config
	Log     *zap.Logger
	Metrics *metrics.Metrics
	Roster  *roster.Roster

	DB        *sqlx.DB // nil without a SQL store
	Store     records.Store
	Audit     audit.Recorder
	Blobs     storage.BlobStore // nil when the blob store failed to open
	Snapshots *snapshot.Store
}

// New never fails on an unreachable store or blob backend: it logs and
// carries on with records.Unavailable and no snapshots.
func New(ctx context.Context, cfg config.Config, log *zap.Logger) *App {
	a := &App{
		Cfg:     cfg,
		Log:     log,
		Metrics: metrics.New(),
		Roster:  roster.Default(),
		Store:   records.Unavailable{},
		Audit:   audit.Discard{},
	}

	switch drv := db.Driver(cfg.DBDriver); drv {
	case db.DriverNone:
		log.Warn("running without a record store")
	case db.DriverMemory:
		a.Store = records.NewMemStore()
		log.Warn("records are kept in memory only")
	default:
		conn, err := db.Open(ctx, drv, cfg.DBDSN)
		if err != nil {
			log.Error("record store unavailable", zap.String("driver", cfg.DBDriver), zap.Error(err))
			break
		}
		a.DB = conn
		a.Store = records.NewSQLStore(conn)
		a.Audit = audit.NewEventRepo(conn)
	}

	blobs, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Warn("blob store unavailable, snapshots disabled", zap.String("driver", cfg.BlobDriver), zap.Error(err))
	} else {
		a.Blobs = blobs
		a.Snapshots = snapshot.New(blobs)
	}
	return a
}

// SQL returns the SQL store when one is open.
func (a *App) SQL() (*records.SQLStore, bool) {
	s, ok := a.Store.(*records.SQLStore)
	return s, ok
}

// Dashboard builds the teacher service over the app's collaborators.
func (a *App) Dashboard() *dashboard.Service {
	return dashboard.NewService(dashboard.Deps{
		Store:     a.Store,
		Roster:    a.Roster,
		Audit:     a.Audit,
		Snapshots: a.Snapshots,
		Logger:    a.Log,
		Metrics:   a.Metrics,
		PageSize:  a.Cfg.PageSize,
	})
}

// Close releases the database. Sync errors on a console logger are ignored.
func (a *App) Close() error {
	_ = a.Log.Sync()
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
