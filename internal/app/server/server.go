package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hrms/internal/domain/attendance"
	"hrms/internal/domain/audit"
	"hrms/internal/domain/core"
	"hrms/internal/domain/leave"
	"hrms/internal/domain/notifications"
	"hrms/internal/domain/payroll"
	"hrms/internal/platform/config"
	cryptoutil "hrms/internal/platform/crypto"
	"hrms/internal/platform/db"
	"hrms/internal/platform/email"
	"hrms/internal/platform/jobs"
	"hrms/internal/platform/metrics"
	"hrms/internal/transport/http/api"
	attendancehandler "hrms/internal/transport/http/handlers/attendance"
	audithandler "hrms/internal/transport/http/handlers/audit"
	authhandler "hrms/internal/transport/http/handlers/auth"
	corehandler "hrms/internal/transport/http/handlers/core"
	leavehandler "hrms/internal/transport/http/handlers/leave"
	notificationhandler "hrms/internal/transport/http/handlers/notifications"
	payrollhandler "hrms/internal/transport/http/handlers/payroll"
	"hrms/internal/transport/http/middleware"
)

// App owns every long-lived component and the assembled router.
type App struct {
	Config  config.Config
	DB      *pgxpool.Pool
	Router  chi.Router
	Jobs    *jobs.Service
	Metrics *metrics.Collector

	jobsCancel context.CancelFunc
}

// New connects to the database, runs migrations and seeding when enabled,
// and wires the full route tree.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			pool.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed database: %w", err)
		}
	}

	encryption, err := cryptoutil.New(cfg.DataEncryptionKey)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init encryption: %w", err)
	}

	workStart, err := attendance.ParseWorkStart(cfg.WorkStart)
	if err != nil {
		pool.Close()
		return nil, err
	}
	policy := attendance.Policy{
		WorkStart:     workStart,
		Grace:         cfg.LateGrace,
		StandardShift: cfg.StandardShiftHours,
	}

	jobSvc := jobs.New(pool, cfg)
	jobsCtx, jobsCancel := context.WithCancel(context.Background())
	jobSvc.Start(jobsCtx)

	collector := metrics.New()
	auditor := audit.New(pool)
	mailer := email.New(cfg)

	notificationStore := notifications.NewStore(pool)
	notifySvc := notifications.New(notificationStore, mailer, cfg.EmailFrom)

	coreStore := core.NewStore(pool, encryption)
	coreSvc := core.NewService(coreStore)

	leaveSvc := leave.NewService(leave.NewStore(pool), coreStore)
	attendanceSvc := attendance.NewService(attendance.NewStore(pool), coreStore, policy)
	payrollSvc := payroll.NewService(payroll.NewStore(pool), coreStore, attendanceSvc, jobSvc, notifySvc,
		cfg.PayslipDir, cfg.PayslipStaleAfter)

	app := &App{
		Config:     cfg,
		DB:         pool,
		Jobs:       jobSvc,
		Metrics:    collector,
		jobsCancel: jobsCancel,
	}
	app.Router = app.buildRouter(
		authhandler.NewHandler(pool, cfg.JWTSecret, encryption, notifySvc),
		corehandler.NewHandler(coreSvc, auditor, notifySvc),
		leavehandler.NewHandler(leaveSvc, auditor, notifySvc),
		attendancehandler.NewHandler(attendanceSvc, auditor),
		payrollhandler.NewHandler(payrollSvc, auditor),
		notificationhandler.NewHandler(notifySvc),
		audithandler.NewHandler(auditor),
	)
	return app, nil
}

func (a *App) buildRouter(
	authH *authhandler.Handler,
	coreH *corehandler.Handler,
	leaveH *leavehandler.Handler,
	attendanceH *attendancehandler.Handler,
	payrollH *payrollhandler.Handler,
	notificationH *notificationhandler.Handler,
	auditH *audithandler.Handler,
) chi.Router {
	isProd := a.Config.Environment == "production"

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.SecureHeaders(isProd))
	r.Use(middleware.Logger)
	if a.Config.MetricsEnabled {
		r.Use(middleware.Metrics(a.Metrics))
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.BodyLimit(a.Config.MaxBodyBytes))
	r.Use(middleware.Auth(a.Config.JWTSecret))
	r.Use(middleware.RateLimit(a.Config.RateLimitPerMinute, time.Minute))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		api.Success(w, map[string]string{"status": "ok"}, middleware.GetRequestID(req.Context()))
	})
	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		if err := a.DB.Ping(req.Context()); err != nil {
			api.Fail(w, http.StatusServiceUnavailable, "not_ready", "database unreachable", middleware.GetRequestID(req.Context()))
			return
		}
		api.Success(w, map[string]string{"status": "ready"}, middleware.GetRequestID(req.Context()))
	})
	if a.Config.MetricsEnabled {
		r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
			api.Success(w, a.Metrics.Snapshot(), middleware.GetRequestID(req.Context()))
		})
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Tighter limit on the credential endpoints, keyed by IP and by
		// the submitted email.
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthRateLimit(a.Config.RateLimitPerMinute, time.Minute))
			authH.RegisterRoutes(r)
		})

		coreH.RegisterRoutes(r)
		leaveH.RegisterRoutes(r)
		attendanceH.RegisterRoutes(r)
		payrollH.RegisterRoutes(r)
		notificationH.RegisterRoutes(r)
		auditH.RegisterRoutes(r)
	})

	return r
}

// Close stops the background worker and releases the pool.
func (a *App) Close() {
	if a.jobsCancel != nil {
		a.jobsCancel()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
