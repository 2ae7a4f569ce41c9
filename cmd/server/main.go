package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/EgehanKilicarslan/blog-api/internal/api"
	"github.com/EgehanKilicarslan/blog-api/internal/auth"
	"github.com/EgehanKilicarslan/blog-api/internal/config"
	"github.com/EgehanKilicarslan/blog-api/internal/database"
	"github.com/EgehanKilicarslan/blog-api/internal/database/repository"
	"github.com/EgehanKilicarslan/blog-api/internal/database/service"
	"github.com/EgehanKilicarslan/blog-api/internal/handler"
	"github.com/EgehanKilicarslan/blog-api/internal/logger"
	"github.com/EgehanKilicarslan/blog-api/internal/middleware"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Environment
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "💡 No .env file found, using process environment")
	}

	// 2. Config
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	// 3. Logger
	appLogger := logger.New(cfg)
	appLogger.Info("🚀 [Server] Starting blog API...",
		"environment", cfg.AppEnv,
		"port", cfg.Port,
	)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// 4. Connect to Database
	db, err := database.Connect(cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			appLogger.Error("❌ [Database] Failed to close connection", "error", err)
			return
		}
		appLogger.Info("🔌 [Database] Connection closed")
	}()

	// 5. Initialize Repositories
	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)

	// 6. Initialize Services
	tokenIssuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL())
	authService := service.NewAuthService(userRepo, tokenIssuer, cfg, appLogger)
	postService := service.NewPostService(postRepo, appLogger)

	// 7. Initialize Handlers & Middleware
	authHandler := handler.NewAuthHandler(authService, appLogger)
	postHandler := handler.NewPostHandler(postService, appLogger)
	authMiddleware := middleware.NewAuthMiddleware(authService, appLogger)

	// 8. Router
	r := api.SetupRouter(authHandler, postHandler, authMiddleware, cfg, appLogger)

	// 9. Serve until SIGINT/SIGTERM
	return serve(r, cfg, appLogger)
}

func serve(h http.Handler, cfg *config.Config, appLogger *slog.Logger) error {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		appLogger.Info("✅ [Server] HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	appLogger.Info("🛑 [Server] Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	appLogger.Info("👋 [Server] Server stopped")
	return nil
}
