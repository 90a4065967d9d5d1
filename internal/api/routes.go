package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/churn-insight-api/internal/auth"
	"github.com/ajharbinger/churn-insight-api/internal/database"
	"github.com/ajharbinger/churn-insight-api/internal/logger"
	"github.com/ajharbinger/churn-insight-api/internal/metrics"
	"github.com/ajharbinger/churn-insight-api/internal/models"
	"github.com/ajharbinger/churn-insight-api/internal/services"
	"github.com/ajharbinger/churn-insight-api/pkg/config"
)

// SetupRoutes builds the services on top of db and registers every route
func SetupRoutes(r *gin.Engine, db *database.DB, cfg *config.Config, log logger.Logger, m *metrics.Metrics) {
	svcs := services.NewServices(db.DB, cfg, log, m)
	RegisterRoutes(r, svcs, db, cfg, m)
}

// RegisterRoutes wires handlers for the given services
func RegisterRoutes(r *gin.Engine, svcs *services.Services, health HealthChecker, cfg *config.Config, m *metrics.Metrics) {
	customerHandler := NewCustomerHandler(svcs.Customer)
	scoreHandler := NewScoreHandler(svcs.Customer)
	importHandler := NewImportHandler(svcs.Import)
	healthHandler := NewHealthHandler(health)

	r.GET("/health", healthHandler.Health)
	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	api := r.Group("/api")

	// Read-only routes are always public
	api.GET("/customer/suggestions", customerHandler.GetSuggestions)
	api.GET("/customer/:id", customerHandler.GetCustomer)
	api.GET("/customers/count", customerHandler.CountCustomers)
	api.POST("/score", scoreHandler.Score)

	// Writes require a token only when auth is enabled
	writes := api.Group("")
	if cfg.AuthEnabled() {
		writes.Use(auth.JWTMiddleware(auth.NewJWTService(cfg.JWTSecret)))
	}
	writes.POST("/customers", customerHandler.AddCustomer)
	writes.DELETE("/customer/:id", customerHandler.DeleteCustomer)
	writes.POST("/customers/import", importHandler.ImportCSV)

	if cfg.JWTSecret == "" {
		return
	}

	authHandler := NewAuthHandler(svcs.Auth)
	jwtService := auth.NewJWTService(cfg.JWTSecret)

	authRoutes := api.Group("/auth")
	authRoutes.POST("/login", authHandler.Login)
	authRoutes.POST("/refresh", authHandler.RefreshToken)
	// New operators are created by an admin; the first admin comes from cmd/create-user
	authRoutes.POST("/register",
		auth.JWTMiddleware(jwtService),
		auth.RequireRole(string(models.RoleAdmin)),
		authHandler.Register,
	)

	authRoutes.GET("/me", auth.JWTMiddleware(jwtService), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": c.MustGet(auth.UserIDKey),
			"email":   c.GetString(auth.UserEmailKey),
			"role":    c.GetString(auth.UserRoleKey),
		})
	})
}
