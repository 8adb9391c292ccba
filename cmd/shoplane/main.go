package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/shoplane/shoplane/internal/config"
	dbRedis "github.com/shoplane/shoplane/internal/db/redis"
	"github.com/shoplane/shoplane/internal/domain"
	logpkg "github.com/shoplane/shoplane/internal/logger"
	"github.com/shoplane/shoplane/internal/metrics"
	"github.com/shoplane/shoplane/internal/query"
	catalogrepo "github.com/shoplane/shoplane/internal/repository/catalog"
	"github.com/shoplane/shoplane/internal/ranking"
	"github.com/shoplane/shoplane/internal/retrieval"
	chiTransport "github.com/shoplane/shoplane/internal/transport/chi"
	indexinguc "github.com/shoplane/shoplane/internal/usecase/indexing"
	searchuc "github.com/shoplane/shoplane/internal/usecase/search"
	"github.com/shoplane/shoplane/internal/vector"
	"github.com/shoplane/shoplane/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting shoplane API server",
		zap.String("build", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register search metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	// Catalog repository and its FT index
	catRepo := catalogrepo.New(store)
	if err := catRepo.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to ensure product index", zap.Error(err))
	}

	// In-memory vector index, optionally restored from the last snapshot
	vectorIdx := vector.New(vector.Config{
		MinDimensions: cfg.Vector.MinDimensions,
		MaxDimensions: cfg.Vector.MaxDimensions,
		SnapshotPath:  cfg.Vector.SnapshotPath,
	}, logger)
	if cfg.Vector.LoadOnStartup {
		// A missing snapshot starts empty; a corrupt one is non-fatal.
		if err := vectorIdx.LoadSnapshot(); err != nil && !errors.Is(err, domain.ErrSnapshotCorrupt) {
			logger.Warn("Vector snapshot load failed, starting empty", zap.Error(err))
		}
	}

	// Retrieval pipeline wiring
	analyzer := query.NewAnalyzer(logger)
	retrievalCfg := retrieval.DefaultConfig()
	retrievalCfg.VectorLimit = cfg.Search.VectorLimit
	retrievalCfg.VectorThreshold = cfg.Search.VectorThreshold
	retrievalCfg.VectorKeep = cfg.Search.VectorKeep
	retrievalCfg.LexicalLimit = cfg.Search.LexicalLimit
	retrievalCfg.StructuredLimit = cfg.Search.StructuredLimit
	retrievalCfg.FallbackLimit = cfg.Search.FallbackLimit
	retrievalCfg.LaneTimeout = time.Duration(cfg.Search.LaneTimeoutMs) * time.Millisecond
	orchestrator := retrieval.NewOrchestrator(
		retrievalCfg, vectorIdx, catRepo, catRepo, metrics.LaneObserver{}, logger,
	)
	engine := ranking.NewEngine(ranking.DefaultConfig(), logger)

	// Use case services
	searchSvc := searchuc.New(analyzer, orchestrator, engine, cfg.Search.MaxCandidates, logger)
	indexSvc := indexinguc.New(catRepo, vectorIdx, store, logger).
		WithBatching(cfg.Indexing.BatchSize, cfg.Indexing.Workers)

	// Create chi server
	server := chiTransport.NewServer(searchSvc, indexSvc, store, chiTransport.Config{
		DefaultLimit: cfg.Search.DefaultLimit,
		MaxLimit:     cfg.Search.MaxLimit,
		MaxBulkItems: cfg.Indexing.MaxBulkItems,
	}, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(cfg.Auth.APIKeys),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	if cfg.Vector.SaveOnShutdown {
		if err := vectorIdx.SaveSnapshot(); err != nil {
			logger.Error("Vector snapshot save failed", zap.Error(err))
		} else {
			logger.Info("Vector snapshot saved")
		}
	}

	logger.Info("Server stopped gracefully")
}
