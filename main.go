package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/joho/godotenv/autoload"

	"automated-identity-matching/internal/infrastructure/repository"
	"automated-identity-matching/internal/ingest"
	"automated-identity-matching/internal/matcher"
	"automated-identity-matching/internal/notify"
	"automated-identity-matching/pkg/circuit"
	"automated-identity-matching/pkg/config"
	"automated-identity-matching/pkg/database"
	"automated-identity-matching/pkg/geo"
	"automated-identity-matching/pkg/health"
	"automated-identity-matching/pkg/logging"
	"automated-identity-matching/pkg/metrics"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logCfg := logging.LogConfig{
		Level:       logging.ParseLevel(cfg.LogLevel),
		Format:      cfg.LogFormat,
		Output:      "stdout",
		EnableFile:  cfg.EnableFileLogging,
		FilePath:    cfg.LogFile,
		EnableAsync: true,
	}
	logger, err := logging.NewLogger(logCfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	logger.Info("Starting identity matching service",
		logging.String("env", cfg.Env),
		logging.Int("workers", cfg.WorkerCount))

	db, err := database.NewWithConfig(cfg.DatabaseURL, cfg)
	if err != nil {
		logger.Fatal("Failed to connect to reference database", err)
	}
	defer db.Close()

	zips, err := geo.LoadZipTable(cfg.ZipTablePath)
	if err != nil {
		logger.Fatal("Failed to load zip geo table", err)
	}
	logger.Info("Loaded zip geo table",
		logging.String("path", cfg.ZipTablePath),
		logging.Int("entries", zips.Len()))

	repo := repository.NewSQLRepository(db, logger)

	engine := matcher.NewEngine(repo, zips, matcher.Config{
		RadiusKm:          cfg.RadiusKm,
		StreetScoreCutoff: cfg.StreetScoreCutoff,
	}, logger)

	breaker := circuit.New(circuit.Config{
		Name:              "report_api",
		OperationTimeout:  cfg.ReportTimeout,
		OpenFor:           30 * time.Second,
		MaxConsecFailures: 5,
		WindowSize:        20,
		FailureRate:       0.5,
	}, logger)

	reporter := notify.NewHTTPReporter(cfg.ReportAPIURL, cfg.ReportAPIKey, cfg.ReportTimeout, logger,
		notify.WithBreaker(breaker))

	pool := ingest.NewPool(engine, reporter, ingest.PoolConfig{
		WorkerCount: cfg.WorkerCount,
	}, logger)
	pool.Start()

	consumer, err := ingest.NewConsumer(ingest.ConsumerConfig{
		Brokers: cfg.KafkaBrokers,
		Topic:   cfg.KafkaTopic,
		Group:   cfg.KafkaGroup,
	}, pool, logger)
	if err != nil {
		logger.Fatal("Failed to create claim consumer", err)
	}

	consumeCtx, stopConsuming := context.WithCancel(context.Background())
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		if err := consumer.Run(consumeCtx); err != nil {
			logger.Error("Claim consumer stopped", err)
		}
	}()

	// Admin surface: health probes and metrics.
	healthMgr := health.NewManager(10*time.Second, logger)
	healthMgr.Register(health.NewDatabaseChecker(db.Conn(), "database"))
	healthMgr.Register(health.NewConsumerChecker("ingest", consumer.LastPoll, 2*time.Minute))
	healthMgr.Register(health.NewPoolChecker("claim_pool", func() map[string]any {
		s := pool.Stats()
		return map[string]any{
			"total":     s.TotalJobs,
			"completed": s.CompletedJobs,
			"failed":    s.FailedJobs,
			"matched":   s.Matched,
			"no_match":  s.NoMatch,
			"queue":     s.QueueSize,
			"workers":   s.WorkerCount,
		}
	}))

	router := mux.NewRouter()
	healthMgr.Routes(router)
	router.Handle("/metrics", metrics.Default.Handler()).Methods(http.MethodGet)

	adminSrv := &http.Server{
		Addr:    ":" + cfg.AdminPort,
		Handler: router,
	}
	go func() {
		logger.Info("Admin server listening", logging.String("port", cfg.AdminPort))
		if err := adminSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Admin server failed", err)
		}
	}()

	// Block until shutdown signal.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("Shutting down", logging.String("signal", sig.String()))

	// Stop pulling new claims, then drain in-flight work.
	stopConsuming()
	consumer.Close()
	select {
	case <-consumerDone:
	case <-time.After(10 * time.Second):
		logger.Warn("Consumer did not stop in time")
	}

	if err := pool.Stop(30 * time.Second); err != nil {
		logger.Warn("Claim pool shutdown incomplete", logging.String("reason", err.Error()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := adminSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Admin server shutdown failed", err)
	}

	logger.Info("Shutdown complete")
}
