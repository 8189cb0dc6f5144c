package http

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/mind-engage/triangle-practice/internal/auth"
	"github.com/mind-engage/triangle-practice/internal/dashboard"
	"github.com/mind-engage/triangle-practice/internal/metrics"
	"github.com/mind-engage/triangle-practice/internal/practice"
	"github.com/mind-engage/triangle-practice/internal/rbac"
	"github.com/mind-engage/triangle-practice/internal/storage"
)

type Deps struct {
	Auth          *auth.AuthService
	Authenticator *auth.Authenticator
	Limiter       *auth.LoginLimiter
	Practice      *practice.Service
	Dashboard     *dashboard.Service
	Blobs         storage.BlobStore
	Metrics       *metrics.Metrics
	Logger        *zap.Logger
	Ready         Pinger
	CORSOrigins   []string
}

// NewRouter wires every route. Nil Blobs or Metrics leave their routes out.
func NewRouter(d Deps) chi.Router {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, RequestLogger(d.Logger), middleware.Recoverer)
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/auth", func(ar chi.Router) {
		if d.Limiter != nil {
			ar.Use(d.Limiter.Middleware)
		}
		ar.Post("/student", StudentLoginHandler(d.Authenticator))
		ar.Post("/teacher", TeacherLoginHandler(d.Authenticator))
	})

	// Protected API (JWT -> role in context -> RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(d.Auth))

		pr.Route("/practice", func(p chi.Router) {
			p.Use(rbac.Require(rbac.PermPracticeUse))
			p.Get("/questions", ListQuestionsHandler(d.Practice))
			p.Post("/sessions", CreateSessionHandler(d.Practice))
			p.Get("/sessions/{sessionID}", GetSessionHandler(d.Practice))
			p.Post("/sessions/{sessionID}/intents", PostIntentHandler(d.Practice))
		})

		pr.Route("/dashboard", func(dr chi.Router) {
			dr.With(rbac.Require(rbac.PermDashboardView)).Group(func(v chi.Router) {
				v.Get("/overview", OverviewHandler(d.Dashboard))
				v.Get("/questions", QuestionCardsHandler(d.Dashboard))
				v.Get("/students/{student}", StudentSummaryHandler(d.Dashboard))
				v.Get("/students/{student}/items", StudentItemsHandler(d.Dashboard))
				v.Get("/students/{student}/attempts/{key}", AttemptItemsHandler(d.Dashboard))
			})
			dr.With(rbac.Require(rbac.PermDashboardDelete)).Group(func(del chi.Router) {
				del.Delete("/students/{student}/attempts/{key}", DeleteAttemptHandler(d.Dashboard))
				del.Delete("/students/{student}", ResetStudentHandler(d.Dashboard))
			})
			dr.With(rbac.Require(rbac.PermDashboardExport)).
				Get("/export.xlsx", ExportHandler(d.Dashboard))
		})

		if d.Blobs != nil {
			pr.Route("/assets", func(ar chi.Router) {
				ar.Use(rbac.RequireAny(rbac.PermPracticeUse, rbac.PermDashboardView))
				MountAssets(ar, d.Blobs, d.Logger)
			})
		}
	})

	r.Get("/healthz", HealthzHandler())
	r.Get("/readyz", ReadyzHandler(d.Ready))
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics.Handler())
	}
	return r
}
