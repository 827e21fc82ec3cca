package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nexus/docs"
	"nexus/internal/config"
	"nexus/internal/database"
	"nexus/internal/database/migration"
	"nexus/internal/health"
	handlers "nexus/internal/http/handler"
	"nexus/internal/http/middleware"
	"nexus/internal/logging"
	"nexus/internal/metrics"
	tracing "nexus/internal/otel"
	"nexus/internal/reconcile"
	"nexus/internal/repository/postgres"
	"nexus/internal/service"
	"nexus/internal/staleness"
	"nexus/internal/storage"
)

// @title Nexus Sync API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	w, closeLog := logging.NewWriter(logging.FileOptions{
		Path:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	defer closeLog()
	log := logging.New(w, cfg.Location())

	if err := run(cfg, log); err != nil {
		log.Error("server_exited", err, nil)
		closeLog()
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, log *logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, log)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
		return err
	}

	sections, err := config.LoadSections(cfg.Document.SectionsFile)
	if err != nil {
		return err
	}
	states := postgres.NewSyncStatePostgres(db)
	for s, sc := range sections {
		if err := states.EnsureThreshold(ctx, s, sc.StaleAfterMinutes); err != nil {
			return err
		}
	}

	objStore, err := newObjectStore(ctx, cfg)
	if err != nil {
		return err
	}
	documents := storage.NewDocuments(objStore, cfg.Document.Prefix, sections)

	syncMetrics, err := metrics.NewSync(prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	promMiddleware, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}

	tracker := staleness.NewTracker(states, nil)
	engine := reconcile.NewEngine(documents, tracker, reconcile.Stores{
		Projects: postgres.NewProjectPostgres(db),
		Services: postgres.NewServicePostgres(db),
		Usage:    postgres.NewUsagePostgres(db),
	},
		reconcile.WithLocker(postgres.NewAdvisoryLocker(db)),
		reconcile.WithMetrics(syncMetrics),
		reconcile.WithLogger(log),
	)
	linkExpiry := time.Duration(cfg.Document.DownloadURLExpirySec) * time.Second
	syncSvc := service.NewSyncService(engine, tracker, health.NewReporter(tracker, syncMetrics), documents, linkExpiry)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	app.Use(otelfiber.Middleware())
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))
	app.Use(promMiddleware.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	handlers.RegisterRoutes(app, db, syncSvc)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	go func() {
		<-ctx.Done()
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	addr := ":" + cfg.Port
	log.Info("server_starting", map[string]any{"addr": addr, "document_backend": cfg.Document.Backend})
	return app.Listen(addr)
}

func newObjectStore(ctx context.Context, cfg *config.AppConfig) (storage.Storage, error) {
	if cfg.Document.Backend == "fs" {
		return storage.NewFS(cfg.Document.Dir)
	}
	return storage.NewMinIO(ctx, cfg.MinIO)
}
