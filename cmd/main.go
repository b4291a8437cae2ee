package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"strive/meetuphub/internal/config"
	"strive/meetuphub/internal/handler"
	"strive/meetuphub/internal/model"
	"strive/meetuphub/internal/repository"
	"strive/meetuphub/internal/service"
	jwtpkg "strive/meetuphub/pkg/jwt"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// 2. Initialize logger
	var logger *zap.Logger
	if cfg.Log.Format == "json" {
		logger, _ = zap.NewProduction()
	} else {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	// 3. Initialize the reservation store (Postgres or in-memory)
	var (
		store         repository.ReservationStore
		catalog       repository.CatalogRepository
		userDirectory repository.UserDirectory
	)
	switch cfg.Store.Backend {
	case "postgres":
		db, err := config.NewPostgresDB(cfg.Database.Postgres)
		if err != nil {
			logger.Fatal("failed to connect to postgres", zap.Error(err))
		}
		if cfg.Database.Postgres.AutoMigrate {
			if err := model.AutoMigrate(db); err != nil {
				logger.Fatal("failed to auto-migrate", zap.Error(err))
			}
			logger.Info("database migration completed")
		}
		store = repository.NewPGReservationStore(db)
		catalog = repository.NewPGCatalogRepository(db)
		userDirectory = repository.NewPGUserDirectory(db)
		logger.Info("using Postgres reservation store")
	case "memory":
		store = repository.NewMemoryReservationStore()
		catalog = repository.NewMemoryCatalogRepository()
		userDirectory = repository.NewMemoryUserDirectory()
		logger.Info("using in-memory reservation store")
	default:
		logger.Fatal("unknown store backend", zap.String("backend", cfg.Store.Backend))
	}

	// 4. Nickname cache (Redis or in-memory)
	var cache repository.StateStore
	switch cfg.Cache.Backend {
	case "redis":
		redisClient, err := config.NewRedisClient(cfg.Database.Redis)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		cache = repository.NewRedisStateStore(redisClient)
		logger.Info("using Redis nickname cache")
	case "memory":
		cache = repository.NewMemoryStateStore()
		logger.Info("using in-memory nickname cache")
	default:
		logger.Fatal("unknown cache backend", zap.String("backend", cfg.Cache.Backend))
	}
	userDirectory = repository.NewCachedUserDirectory(userDirectory, cache)

	// 5. Initialize JWT manager (tokens are issued by the identity service;
	// this service only validates them)
	jwtManager := jwtpkg.NewManager(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.AccessTokenTTL)

	// 6. Initialize services
	meetupService := service.NewMeetupService(store, catalog)
	participationService := service.NewParticipationService(store, userDirectory)

	// 7. Initialize handlers
	meetupHandler := handler.NewMeetupHandler(meetupService)
	participationHandler := handler.NewParticipationHandler(participationService)

	// 8. Setup router
	router := handler.SetupRouter(cfg, logger, jwtManager, meetupHandler, participationHandler)

	// 9. Start recruitment sweeper
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	if cfg.Sweep.Enabled {
		sweeper := service.NewRecruitmentSweeper(store, logger, cfg.Sweep.Interval)
		go sweeper.Run(sweepCtx)
		logger.Info("recruitment sweeper started", zap.Duration("interval", cfg.Sweep.Interval))
	}

	// 10. Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 11. Start server with graceful shutdown
	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// 12. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")
	stopSweep()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}
	logger.Info("server exited gracefully")
}
