package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"github.com/EgehanKilicarslan/tasktracker/internal/api"
	"github.com/EgehanKilicarslan/tasktracker/internal/authz"
	"github.com/EgehanKilicarslan/tasktracker/internal/config"
	"github.com/EgehanKilicarslan/tasktracker/internal/database"
	"github.com/EgehanKilicarslan/tasktracker/internal/database/repository"
	"github.com/EgehanKilicarslan/tasktracker/internal/database/service"
	internalgrpc "github.com/EgehanKilicarslan/tasktracker/internal/grpc"
	"github.com/EgehanKilicarslan/tasktracker/internal/handler"
	"github.com/EgehanKilicarslan/tasktracker/internal/logger"
	"github.com/EgehanKilicarslan/tasktracker/internal/middleware"
	"github.com/EgehanKilicarslan/tasktracker/internal/worker"
)

func main() {
	// 1. Config
	cfg := config.LoadConfig()

	// 2. Logger
	appLogger := logger.New(cfg)

	appLogger.Info("🚀 [Go] Starting Task Tracker...",
		"database", cfg.DatabaseDriver,
		"environment", cfg.AppEnv,
		"edit_policy", cfg.TaskEditPolicy,
	)

	// 3. Connect to Database
	db, err := database.ConnectDatabase(cfg, appLogger)
	if err != nil {
		appLogger.Error("❌ Failed to connect to database", "error", err)
		os.Exit(1)
	}

	sqlDB, err := db.DB()
	if err != nil {
		appLogger.Error("❌ Failed to get database handle", "error", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	// 4. Initialize Repositories
	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	sessionRepo := repository.NewSessionRepository(db)

	// 5. Initialize Services
	gate := authz.NewGate(authz.ParsePolicy(cfg.TaskEditPolicy))
	authService := service.NewAuthService(userRepo, sessionRepo, cfg, appLogger)
	taskService := service.NewTaskService(taskRepo, gate, cfg, appLogger)

	// 6. Initialize Rate Limiter
	rateLimiter, err := middleware.NewRateLimiter(cfg, appLogger)
	if err != nil {
		appLogger.Warn("⚠️ Failed to connect to Redis, using no-op rate limiter", "error", err)
		rateLimiter = middleware.NewNoOpRateLimiter(appLogger)
	}
	defer rateLimiter.Close()

	// 7. Initialize Handlers & Middleware
	authMiddleware := middleware.NewAuthMiddleware(authService, cfg.IsProduction(), appLogger)
	authHandler := handler.NewAuthHandler(authService, authMiddleware, rateLimiter, appLogger)
	taskHandler := handler.NewTaskHandler(taskService, appLogger)

	r := api.SetupRouter(taskHandler, authHandler, authMiddleware)

	// 8. Start gRPC health server
	healthServer := internalgrpc.NewHealthServer(sqlDB, appLogger)
	grpcServer := grpc.NewServer()
	healthServer.Register(grpcServer)

	grpcAddr := fmt.Sprintf(":%s", cfg.ApiGrpcPort)
	grpcListener, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		appLogger.Error("❌ Failed to listen for gRPC", "error", err)
		os.Exit(1)
	}

	go func() {
		appLogger.Info("🔌 [Go] gRPC health server running...", "port", cfg.ApiGrpcPort)
		if err := grpcServer.Serve(grpcListener); err != nil {
			appLogger.Error("❌ gRPC Server failed", "error", err)
		}
	}()

	// 9. Background jobs
	pool := worker.NewPool(appLogger)
	pool.Every("session-sweeper", time.Duration(cfg.SessionSweepInterval)*time.Second, 30*time.Second,
		func(ctx context.Context) {
			if _, err := authService.PurgeExpiredSessions(); err != nil {
				appLogger.Warn("⚠️ Session sweep failed", "error", err)
			}
		},
	)
	pool.Every("health-probe", 15*time.Second, 5*time.Second, healthServer.Probe)

	// 10. Start HTTP Server
	addr := fmt.Sprintf(":%s", cfg.ApiServicePort)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info("🌍 [Go] HTTP Server running on port...", "port", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("❌ HTTP Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// 11. Wait for shutdown signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	appLogger.Info("🛑 [Go] Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("❌ HTTP Server shutdown failed", "error", err)
	}

	healthServer.Shutdown()
	grpcServer.GracefulStop()
	pool.Shutdown(10 * time.Second)

	appLogger.Info("👋 [Go] Stopped")
}
