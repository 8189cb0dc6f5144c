package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	api "github.com/mind-engage/triangle-practice/internal/api/http"
	"github.com/mind-engage/triangle-practice/internal/app"
	"github.com/mind-engage/triangle-practice/internal/auth"
	"github.com/mind-engage/triangle-practice/internal/config"
	"github.com/mind-engage/triangle-practice/internal/logger"
	"github.com/mind-engage/triangle-practice/internal/practice"
	"github.com/mind-engage/triangle-practice/internal/session"
)

const sessionIdle = 2 * time.Hour

func main() {
	cfg := config.Load()
	log := logger.New(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Store, blobs, metrics ---
	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	a := app.New(openCtx, cfg, log)
	cancel()
	defer a.Close()

	// --- Auth (local JWT) ---
	authSvc := auth.NewAuthService(cfg.AuthHMACSecret)
	if len(cfg.TeacherCredentials) == 0 {
		log.Warn("TEACHER_CREDENTIALS is empty; teacher login is disabled")
	}
	limiter := auth.NewLoginLimiter(cfg.LoginRatePerMin)
	go limiter.Run(ctx)

	practiceSvc := practice.NewService(practice.Deps{
		Reducer:   session.NewReducer(nil, nil, nil),
		Store:     a.Store,
		Snapshots: a.Snapshots,
		Roster:    a.Roster,
		Logger:    log.Named("practice"),
		Metrics:   a.Metrics,
		PageSize:  cfg.PageSize,
	})
	go evictIdle(ctx, practiceSvc, log)

	deps := api.Deps{
		Auth:          authSvc,
		Authenticator: auth.NewAuthenticator(authSvc, a.Roster, cfg.TeacherCredentials),
		Limiter:       limiter,
		Practice:      practiceSvc,
		Dashboard:     a.Dashboard(),
		Blobs:         a.Blobs,
		Metrics:       a.Metrics,
		Logger:        log.Named("http"),
		CORSOrigins:   cfg.CORSOrigins,
	}
	if sqlStore, ok := a.SQL(); ok {
		deps.Ready = sqlStore
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("listening", zap.String("addr", cfg.HTTPAddr), zap.String("mode", string(cfg.Mode)),
			zap.String("db", cfg.DBDriver), zap.String("blobs", cfg.BlobDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
	log.Info("stopped")
}

func evictIdle(ctx context.Context, svc *practice.Service, log *zap.Logger) {
	t := time.NewTicker(10 * time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := svc.Evict(sessionIdle); n > 0 {
				log.Info("evicted idle sessions", zap.Int("count", n))
			}
		}
	}
}
