package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/robfig/cron/v3"

	"opsdash/internal/config"
	dp "opsdash/internal/dataprocessing"
	apierrors "opsdash/internal/errors"
	"opsdash/internal/infrastructure"
	"opsdash/internal/kpi"
	customMiddleware "opsdash/internal/middleware"
	"opsdash/internal/services"
	handlers "opsdash/internal/transport/http"
	ws "opsdash/internal/websocket"
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Logger        *slog.Logger
	Router        *chi.Mux
	Server        *http.Server
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics

	DataService   *services.DataService
	Analytics     *services.AnalyticsService
	HealthService *services.HealthService
	Scheduler     *services.RefreshScheduler
	WebSocketHub  *ws.Hub

	unsubscribe func()
	listener    net.Listener
	stopOnce    sync.Once
}

// NewApplication loads configuration from the environment, initializes the
// global logger and builds the application.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion))

	paths, err := config.GetPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to get paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution(logger)

	return New(cfg, logger)
}

// New builds an application from an already loaded configuration. Nothing
// is loaded or started until Start.
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}

	otelProviders, err := infrastructure.InitializeOTel(cfg.Otel, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateBusinessMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	a := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
	}

	if err := a.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := a.setupRouter(); err != nil {
		return nil, fmt.Errorf("failed to set up router: %w", err)
	}
	a.createServer()

	return a, nil
}

// initializeServices wires the loader, snapshot service, analytics, refresh
// schedule, websocket hub and health checks.
func (a *Application) initializeServices() error {
	loc, err := a.Config.Datasets.TimeLocation()
	if err != nil {
		return err
	}

	loader := dp.NewLoader(
		dp.NewSource(a.Config.Datasets.Source, a.Config.Datasets.FetchTimeout),
		dp.WithLocation(loc),
		dp.WithLogger(a.Logger),
		dp.WithTracer(a.OTelProviders.Tracer),
		dp.WithMetrics(a.Metrics),
		dp.WithMaxWarnings(a.Config.Datasets.MaxWarnings),
	)

	a.DataService = services.NewDataService(loader, a.Config.Datasets, a.Logger, a.Metrics)
	a.Analytics = services.NewAnalyticsService(a.DataService, kpi.DefaultThresholds(), loc, a.Logger)
	a.Scheduler = services.NewRefreshScheduler(a.DataService, a.Config.Datasets.RefreshSchedule, loc, a.Logger)

	wsMetrics, err := ws.NewMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create websocket metrics: %w", err)
	}
	a.WebSocketHub = ws.NewHub(a.Config.WebSocket, a.Logger, wsMetrics)
	a.unsubscribe = a.DataService.Subscribe(a.WebSocketHub.OnReload)

	a.HealthService = services.NewHealthService(a.DataService, a.WebSocketHub,
		staleAfter(a.Config.Datasets.RefreshSchedule), a.Logger)

	a.Logger.Info("Services initialized",
		slog.String("dataset_source", a.Config.Datasets.Source),
		slog.Bool("remote_source", a.Config.Datasets.IsRemote()),
		slog.String("refresh_schedule", a.Config.Datasets.RefreshSchedule),
		slog.String("location", loc.String()))
	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() error {
	r := chi.NewRouter()
	errorHandler := apierrors.NewErrorHandler(a.Logger, a.Config.Logging.Development)

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	// The websocket route must not be wrapped by response writers that hide
	// http.Hijacker, so it sits outside the main group.
	r.With(customMiddleware.WebSocketTraceMiddleware(a.Logger)).
		Handle("/ws", ws.NewHandler(a.WebSocketHub, a.Config.WebSocket, a.Config.Security.AllowedOrigins, a.Logger))

	otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics)
	if err != nil {
		return err
	}

	r.Group(func(r chi.Router) {
		// RequestID → RealIP → OTel → Logger → Recoverer → Timeout
		r.Use(otelMiddleware.Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.corsConfig()))
		}
		if rl := a.Config.Security.RateLimit; rl.Enabled {
			r.Use(customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, a.Logger).Handler)
		}

		r.Route("/api", func(r chi.Router) {
			r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))
			a.setupAPIRoutes(r, errorHandler)
		})
	})

	// Prometheus scrapes skip request logging and rate limiting
	r.Handle("/metrics", handlers.NewMetricsHandler(a.prometheusHandler()))

	a.Router = r
	return nil
}

// setupAPIRoutes registers everything under /api
func (a *Application) setupAPIRoutes(r chi.Router, errorHandler *apierrors.ErrorHandler) {
	health := handlers.NewHealthHandler(a.HealthService, a.Logger)
	r.Get("/health", health.HealthCheck)
	r.Get("/health/ready", health.ReadinessCheck)
	r.Get("/health/live", health.LivenessCheck)
	r.Get("/version", health.Version)

	r.Post("/client-log", handlers.NewClientLogHandler(a.Logger).Handle)

	r.Mount("/datasets", handlers.NewDatasetHandler(a.DataService, a.Logger, errorHandler).Routes())

	analytics := handlers.NewAnalyticsHandler(a.Analytics, customMiddleware.NewQueryValidator(a.Logger), a.Logger, errorHandler)
	r.Mount("/", analytics.Routes())
}

// prometheusHandler serves the OTel registry when telemetry is enabled and
// the default Go collectors otherwise.
func (a *Application) prometheusHandler() http.Handler {
	if a.Config.Otel.Enabled {
		return a.OTelProviders.PrometheusHTTP
	}
	return nil
}

func (a *Application) corsConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			customMiddleware.RequestIDHeader,
			"X-Requested-With",
		},
		ExposedHeaders: []string{customMiddleware.RequestIDHeader},
		MaxAge:         300,
		Logger:         a.Logger,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Server.Address(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(a.Logger.Handler(), slog.LevelError),
	}
}

// Start loads the datasets, starts background services and begins serving.
// cancel is called if the server stops unexpectedly.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("address", a.Server.Addr),
		slog.String("level", a.Config.Logging.Level))

	a.WebSocketHub.Start()

	status, err := a.DataService.Load(ctx)
	if err != nil {
		return fmt.Errorf("initial dataset load: %w", err)
	}
	a.logLoadStatus(ctx, status)

	if err := a.Scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start refresh scheduler: %w", err)
	}

	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	a.listener = ln

	go func() {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.performStartupHealthCheck(ctx)

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", ln.Addr().String()))
	return nil
}

// Addr returns the address the server is listening on, empty before Start.
func (a *Application) Addr() string {
	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}

// Stop gracefully stops the application. It is safe to call more than once.
func (a *Application) Stop(ctx context.Context) error {
	var errs []error
	a.stopOnce.Do(func() {
		a.Logger.InfoContext(ctx, "Shutting down application")

		shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
		defer cancel()

		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
		}

		if err := a.Scheduler.Stop(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error stopping refresh scheduler", slog.String("error", err.Error()))
		}

		if a.unsubscribe != nil {
			a.unsubscribe()
		}
		a.WebSocketHub.Stop()

		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}

		a.Logger.InfoContext(ctx, "Application shutdown complete")
	})
	return errors.Join(errs...)
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		_ = a.Stop(context.Background())
		return err
	}

	select {
	case sig := <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		a.Logger.WarnContext(ctx, "Server stopped unexpectedly")
	}

	err := a.Stop(context.Background())
	if closeErr := infrastructure.CloseLogFile(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

func (a *Application) logLoadStatus(ctx context.Context, status services.LoadStatus) {
	failed := 0
	for _, d := range status.Datasets {
		if d.Error != "" {
			failed++
			a.Logger.WarnContext(ctx, "Dataset failed to load",
				slog.String("dataset", d.Name),
				slog.String("file", d.File),
				slog.String("error", d.Error))
		}
	}
	a.Logger.InfoContext(ctx, "Initial dataset load complete",
		slog.String("load_id", status.LoadID),
		slog.Int("total_records", status.TotalRecords),
		slog.Int("datasets", len(status.Datasets)),
		slog.Int("failed", failed))
}

// performStartupHealthCheck logs the readiness report once everything is
// running. A degraded start is not fatal.
func (a *Application) performStartupHealthCheck(ctx context.Context) {
	report := a.HealthService.ReadinessCheck(ctx)
	if report.Status != services.StatusReady {
		a.Logger.WarnContext(ctx, "Startup health check warnings",
			slog.String("status", report.Status),
			slog.String("datasets", report.Services["datasets"].Message))
		return
	}
	a.Logger.InfoContext(ctx, "Startup health check passed")
}

// staleAfter allows two missed refreshes before readiness reports degraded.
// Without a schedule the snapshot never goes stale.
func staleAfter(schedule string) time.Duration {
	if schedule == "" {
		return 0
	}
	sched, err := cron.ParseStandard(schedule)
	if err != nil {
		return 0
	}
	next := sched.Next(time.Now())
	return 2 * sched.Next(next).Sub(next)
}
