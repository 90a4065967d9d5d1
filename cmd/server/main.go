package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/ajharbinger/churn-insight-api/internal/api"
	"github.com/ajharbinger/churn-insight-api/internal/database"
	"github.com/ajharbinger/churn-insight-api/internal/logger"
	"github.com/ajharbinger/churn-insight-api/internal/metrics"
	"github.com/ajharbinger/churn-insight-api/internal/middleware"
	"github.com/ajharbinger/churn-insight-api/pkg/config"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.New()
	appLog := logger.New(cfg.Environment)

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		appLog.Fatal("Failed to connect to database", err)
	}
	defer db.Close()

	if err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		appLog.Fatal("Failed to run migrations", err)
	}
	if version, dirty, err := database.MigrationVersion(cfg.DatabaseURL, cfg.MigrationsPath); err == nil {
		appLog.Info("Database schema ready", "version", version, "dirty", dirty)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.RequireAuth && cfg.JWTSecret == "" {
		appLog.Warn("REQUIRE_AUTH is set but JWT_SECRET is empty; write routes stay open")
	}

	m := metrics.New()

	r := gin.New()
	if err := r.SetTrustedProxies(cfg.GetTrustedProxies()); err != nil {
		appLog.Fatal("Invalid TRUSTED_PROXIES", err)
	}

	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggingMiddleware(appLog, m))
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.CORSMiddleware(cfg))
	r.Use(middleware.InputValidationMiddleware(cfg.MaxRequestSize))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.EnableRateLimit {
		limiter := middleware.NewIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, appLog)
		r.Use(limiter.RateLimit())
		go evictIdleClients(ctx, limiter, appLog)
	}

	api.SetupRoutes(r, db, cfg, appLog, m)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLog.Info("Server starting", "port", cfg.Port, "env", cfg.Environment, "auth", cfg.AuthEnabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatal("Failed to start server", err)
		}
	}()

	<-ctx.Done()
	appLog.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("Server forced to shut down", err)
	}
	appLog.Info("Server stopped")
}

func evictIdleClients(ctx context.Context, limiter *middleware.IPRateLimiter, appLog logger.Logger) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := limiter.Cleanup(10 * time.Minute); removed > 0 {
				appLog.Debug("Evicted idle rate limiters", "count", removed)
			}
		}
	}
}
