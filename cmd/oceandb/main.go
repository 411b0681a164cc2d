package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/oceandb/internal/config"
	"github.com/kailas-cloud/oceandb/internal/db"
	dbElastic "github.com/kailas-cloud/oceandb/internal/db/elastic"
	dbMemory "github.com/kailas-cloud/oceandb/internal/db/memory"
	dbRedis "github.com/kailas-cloud/oceandb/internal/db/redis"
	"github.com/kailas-cloud/oceandb/internal/domain/search/registry"
	"github.com/kailas-cloud/oceandb/internal/domain/search/translate"
	logpkg "github.com/kailas-cloud/oceandb/internal/logger"
	"github.com/kailas-cloud/oceandb/internal/metrics"
	documentrepo "github.com/kailas-cloud/oceandb/internal/repository/document"
	"github.com/kailas-cloud/oceandb/internal/repository/sorting"
	chiTransport "github.com/kailas-cloud/oceandb/internal/transport/chi"
	documentuc "github.com/kailas-cloud/oceandb/internal/usecase/document"
	healthuc "github.com/kailas-cloud/oceandb/internal/usecase/health"
	"github.com/kailas-cloud/oceandb/internal/version"
)

func main() {
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

	logger.Info("Starting oceandb API server",
		zap.String("version", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("index", cfg.Database.Index),
	)

	store, err := newStore(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database", zap.String("store", store.Kind()))

	metrics.RegisterStoreMetrics()
	store = metrics.NewInstrumentedStore(store, logger)

	reg, err := registry.Lookup(cfg.Search.Registry)
	if err != nil {
		logger.Fatal("Invalid field registry", zap.Error(err))
	}

	docRepo := documentrepo.New(store, cfg.Database.Index)
	created, err := docRepo.Bootstrap(ctx, documentrepo.DefaultMapping(reg))
	if err != nil {
		logger.Fatal("Failed to bootstrap index", zap.Error(err))
	}
	logger.Info("Index ready", zap.String("index", cfg.Database.Index), zap.Bool("created", created))

	docSvc := documentuc.New(
		docRepo,
		translate.New(reg, logger),
		sorting.New(store, cfg.Database.Index, reg),
		logger,
	).
		WithPagination(cfg.Search.DefaultPageSize).
		WithChunkSize(cfg.Search.ListChunkSize).
		WithTextSortField(cfg.Search.TextSortField)

	healthSvc := healthuc.New(store, docRepo, store.Kind())

	server := chiTransport.NewServer(docSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(chiTransport.Recoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(chiTransport.RequestLogger(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

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

	logger.Info("Server stopped gracefully")
}

func newStore(cfg config.DatabaseConfig) (db.Store, error) {
	switch cfg.Driver {
	case config.DriverElasticsearch:
		return dbElastic.NewStore(dbElastic.Config{
			Addrs:          cfg.Addrs,
			Username:       cfg.Username,
			Password:       cfg.Password,
			SSL:            cfg.SSL,
			VerifyCerts:    cfg.VerifyCerts,
			CACertPath:     cfg.CACertPath,
			ClientCertPath: cfg.ClientCertPath,
			ClientKeyPath:  cfg.ClientKeyPath,
		})
	case config.DriverRedis:
		return dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,
			Prefix:   cfg.KeyPrefix,
		})
	case config.DriverMemory:
		return dbMemory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
