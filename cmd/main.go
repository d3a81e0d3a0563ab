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
	"gorm.io/gorm"

	"pos-service/internal/handler"
	"pos-service/internal/model"
	"pos-service/internal/repository"
	"pos-service/internal/repository/memrepo"
	"pos-service/internal/server"
	"pos-service/internal/service"
	"pos-service/pkg/cache"
	"pos-service/pkg/config"
	"pos-service/pkg/database"
	"pos-service/pkg/logger"
	"pos-service/pkg/notify"
	"pos-service/pkg/tenancy"
	"pos-service/pkg/tracing"
	"pos-service/prometheus"
)

func main() {
	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	if err := logger.InitLogger(appConfig); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting "+appConfig.ServiceName, appConfig.LogConfig()...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, log, appConfig)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn("Tracing shutdown failed", zap.Error(err))
		}
	}()

	// Cache
	var store cache.Store
	if appConfig.Redis.URL != "" {
		rs, err := cache.NewRedisStore(appConfig.Redis.URL)
		if err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err))
		}
		store = rs
		log.Info("Redis cache connected")
	} else {
		store = cache.NewMemoryStore()
	}
	defer store.Close()

	checks := map[string]handler.Check{
		"cache": store.Ping,
	}

	// Repositories
	var (
		db    *gorm.DB
		repos *repository.Set
	)
	switch appConfig.Store {
	case "postgres":
		db, err = database.InitDB(&appConfig.DB)
		if err != nil {
			log.Fatal("Failed to initialize database", zap.Error(err))
		}
		if err := database.MigrateShared(db, model.SharedModels()...); err != nil {
			log.Fatal("Failed to migrate shared tables", zap.Error(err))
		}
		log.Info("Database connection established")
	case "memory":
		log.Warn("Using in-memory store, data is lost on restart")
	}

	reg := tenancy.NewRegistry(db)
	model.RegisterTenantModels(reg)
	prometheus.RegisterHandleGauge(reg.Size)

	if db != nil {
		repos = repository.NewGormSet(db, reg)
		checks["db"] = func(ctx context.Context) error { return database.Ping(ctx, db) }
	} else {
		repos = memrepo.NewSet(memrepo.New())
		seed(ctx, repos, appConfig.Seed, log)
	}

	e := server.New(server.Deps{
		Config:   appConfig,
		Repos:    repos,
		Cache:    store,
		Notifier: notify.NewClient(appConfig.Notify, log),
		Logger:   log,
		Checks:   checks,
	})

	// Start server
	go func() {
		port := appConfig.Server.Port
		log.Info("Starting server", zap.String("port", port))
		if err := e.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
}

// seed provisions the configured demo tenant into the in-memory store
func seed(ctx context.Context, repos *repository.Set, cfg config.SeedConfig, log *zap.Logger) {
	if cfg.Schema == "" {
		return
	}
	p := service.NewProvisioner(repos, func(context.Context, string) error { return nil }, log)
	tenant, owner, err := p.Provision(ctx, service.ProvisionInput{
		Schema:        cfg.Schema,
		Name:          cfg.Schema,
		OwnerEmail:    cfg.OwnerEmail,
		OwnerPassword: cfg.OwnerPassword,
	})
	if err != nil {
		log.Fatal("Failed to seed tenant", zap.Error(err))
	}
	log.Info("Seeded tenant",
		zap.String("schema", tenant.Schema),
		zap.String("owner", owner.Email))
}
