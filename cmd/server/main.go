package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Ramsey-B/banyan/config"
	"github.com/Ramsey-B/banyan/internal/repositories/businessunit"
	"github.com/Ramsey-B/banyan/internal/repositories/leadershipchange"
	"github.com/Ramsey-B/banyan/internal/repositories/orgchartsnapshot"
	"github.com/Ramsey-B/banyan/internal/repositories/position"
	"github.com/Ramsey-B/banyan/pkg/changes"
	"github.com/Ramsey-B/banyan/pkg/classify"
	"github.com/Ramsey-B/banyan/pkg/collector"
	"github.com/Ramsey-B/banyan/pkg/crawler"
	"github.com/Ramsey-B/banyan/pkg/database"
	"github.com/Ramsey-B/banyan/pkg/discovery"
	"github.com/Ramsey-B/banyan/pkg/events"
	"github.com/Ramsey-B/banyan/pkg/graph"
	"github.com/Ramsey-B/banyan/pkg/httpclient"
	"github.com/Ramsey-B/banyan/pkg/kafka"
	"github.com/Ramsey-B/banyan/pkg/merging"
	"github.com/Ramsey-B/banyan/pkg/middleware"
	"github.com/Ramsey-B/banyan/pkg/models"
	"github.com/Ramsey-B/banyan/pkg/orgchart"
	"github.com/Ramsey-B/banyan/pkg/ratelimit"
	"github.com/Ramsey-B/banyan/pkg/registry"
	"github.com/Ramsey-B/banyan/pkg/routes/change"
	"github.com/Ramsey-B/banyan/pkg/routes/chart"
	"github.com/Ramsey-B/banyan/pkg/routes/collection"
	"github.com/Ramsey-B/banyan/pkg/routes/health"
	"github.com/Ramsey-B/banyan/pkg/routes/unit"
	"github.com/Ramsey-B/banyan/pkg/sources"
	"github.com/Ramsey-B/banyan/pkg/tracing"
	"github.com/Ramsey-B/banyan/pkg/tracing/exporters"
)

func main() {
	_ = godotenv.Load()

	var cfg config.Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to read configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited with error", zap.Error(err))
	}
}

func buildLogger(cfg config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.PrettyLogs {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build(zap.Fields(zap.String("app", cfg.AppName)))
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(&exporters.ConsoleExporter{}))
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				logger.Warn("failed to shut down tracer provider", zap.Error(err))
			}
		}()
		otel.SetTracerProvider(tp)
		tracing.SetTracer(tp.Tracer(cfg.AppName))
	}

	db, err := connectWithRetry(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	migrateOpts := database.MigrateOptions{
		Version:      cfg.DatabaseMigrationVersion,
		Force:        cfg.DatabaseMigrationForce,
		AutoRollback: cfg.DatabaseMigrationAutoRollback,
	}
	if err := database.Migrate(db, cfg.DatabaseName, cfg.DatabaseMigrationFolderPath, migrateOpts, logger); err != nil {
		return err
	}

	// Repositories
	unitRepo := businessunit.NewRepository(db, logger)
	positionRepo := position.NewRepository(db, logger)
	changeRepo := leadershipchange.NewRepository(db, logger)
	snapshotRepo := orgchartsnapshot.NewRepository(db, logger)

	// Outbound HTTP with per-domain rate limiting and a shared cache
	limiter := ratelimit.New(time.Duration(cfg.HTTPMinIntervalMs) * time.Millisecond)
	cache := httpclient.NewCache(cfg.HTTPCacheTTL)
	httpCfg := httpclient.DefaultConfig()
	httpCfg.MaxRetries = cfg.HTTPMaxRetries
	httpCfg.UserAgent = cfg.RegistryUserAgent
	client := httpclient.NewClient(httpCfg, logger, limiter, cache)

	classifier := classify.NewHTTPClassifier(client, logger, classify.Config{
		BaseURL: cfg.ClassifierBaseURL,
		APIKey:  cfg.ClassifierAPIKey,
		Model:   cfg.ClassifierModel,
		Timeout: time.Duration(cfg.ClassifierTimeoutSeconds) * time.Second,
	})
	siteCrawler := crawler.New(client, logger)
	registryClient := registry.NewClient(client, logger, cfg.RegistryBaseURL)

	// Discovery signals, strongest first
	discoverer := discovery.NewDiscoverer([]discovery.Signal{
		discovery.NewRegistrySignal(registryClient, logger),
		discovery.NewWebsiteSignal(siteCrawler, classifier, logger),
		discovery.NewKnowledgeSignal(classifier, logger),
	}, unitRepo, logger)

	evidenceSources := []sources.Source{
		sources.NewWebSource(siteCrawler, classifier, logger),
		sources.NewFilingSource(registryClient, classifier, logger),
		sources.NewNewsSource(client, classifier, logger, cfg.NewsBaseURL),
	}

	var emitter *events.Emitter
	if cfg.KafkaEnabled {
		producer := kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.KafkaBrokers,
			BatchSize:    cfg.KafkaBatchSize,
			BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
			RequiredAcks: cfg.KafkaRequiredAcks,
			Compression:  cfg.KafkaCompression,
		}, logger)
		defer producer.Close()
		emitter = events.NewEmitter(producer, logger, cfg.KafkaChangeTopic, cfg.KafkaSnapshotTopic)
	}

	var projector collector.GraphProjector
	var graphPing func() error
	if cfg.GraphDBEnabled {
		graphClient, err := graph.NewClient(graph.Config{
			Host:     cfg.GraphDBHost,
			Port:     cfg.GraphDBPort,
			Username: cfg.GraphDBUser,
			Password: cfg.GraphDBPassword,
		}, logger)
		if err != nil {
			return err
		}
		defer graphClient.Close(context.Background())
		projector = graph.NewProjector(graphClient, logger)
		graphPing = func() error { return graphClient.VerifyConnectivity(context.Background()) }
	}

	runner := collector.NewRunner(collector.Deps{
		Units:      unitRepo,
		Positions:  positionRepo,
		Changes:    changeRepo,
		Discoverer: discoverer,
		Resolver:   merging.NewResolver(logger, positionStore{positionRepo}),
		Detector:   changes.NewDetector(logger),
		Builder:    orgchart.NewBuilder(classifier, positionRepo, snapshotRepo, logger),
		Sources:    evidenceSources,
		Emitter:    emitter,
		Graph:      projector,
		Logger:     logger,
	})

	defaults := models.CollectionConfig{
		MaxConcurrentUnits:      cfg.MaxConcurrentUnits,
		MaxUnits:                cfg.MaxUnits,
		MaxPagesPerUnit:         cfg.MaxPagesPerUnit,
		MaxCrawlDepth:           cfg.MaxCrawlDepth,
		MaxSearches:             cfg.MaxSearches,
		EnableWebSource:         true,
		EnableFilingSource:      true,
		EnableNewsSource:        true,
		BuildOrgCharts:          true,
		MinSignificance:         cfg.MinSignificance,
		NameSimilarityThreshold: cfg.NameSimilarityThreshold,
		DepartureConfidence:     models.ParseConfidence(cfg.DepartureConfidence),
	}

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second
	e.Server.ReadHeaderTimeout = time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second
	e.Server.MaxHeaderBytes = cfg.MaxHeaderBytes

	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Logger(logger))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))

	checker := health.NewChecker(db, graphPing, "1.0.0")
	checker.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1")
	unit.NewHandler(unitRepo, positionRepo).Register(api)
	collection.NewHandler(runner, defaults, logger).Register(api)
	change.NewHandler(unitRepo, changeRepo).Register(api)
	chart.NewHandler(unitRepo, positionRepo, snapshotRepo).Register(api)

	checker.SetReady(true)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("server starting", zap.Int("port", cfg.Port))
	if err := e.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// connectWithRetry attempts the database connection with linear backoff so
// the service survives the database coming up after it in compose setups.
func connectWithRetry(ctx context.Context, cfg config.Config, logger *zap.Logger) (*sqlx.DB, error) {
	dbCfg := database.Config{
		Host:            cfg.DatabaseHost,
		Port:            cfg.DatabasePort,
		UserName:        cfg.DatabaseUserName,
		Password:        cfg.DatabasePassword,
		Name:            cfg.DatabaseName,
		SSLMode:         cfg.DatabaseSSLMode,
		MaxOpenConns:    cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.StartupMaxAttempts; attempt++ {
		db, err := database.Connect(ctx, dbCfg, logger)
		if err == nil {
			return db, nil
		}
		lastErr = err
		logger.Warn("database connection failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", cfg.StartupMaxAttempts),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * time.Second):
		}
	}
	return nil, fmt.Errorf("database unreachable after %d attempts: %w", cfg.StartupMaxAttempts, lastErr)
}

// positionStore adapts the position repository to the resolver's narrower
// store interface
type positionStore struct {
	repo *position.Repository
}

func (s positionStore) ListCurrentByUnit(ctx context.Context, unitID string) ([]models.Position, error) {
	return s.repo.ListCurrentByUnit(ctx, unitID)
}

func (s positionStore) Create(ctx context.Context, p *models.Position) error {
	_, err := s.repo.Create(ctx, p)
	return err
}

func (s positionStore) Update(ctx context.Context, p *models.Position) error {
	return s.repo.Update(ctx, p)
}
