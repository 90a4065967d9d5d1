package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/ajharbinger/churn-insight-api/internal/database"
	"github.com/ajharbinger/churn-insight-api/internal/models"
	"github.com/ajharbinger/churn-insight-api/internal/repository"
	"github.com/ajharbinger/churn-insight-api/internal/services"
	"github.com/ajharbinger/churn-insight-api/pkg/config"
)

// Creates an operator account directly in the database. Used to bootstrap the first
// admin, since /api/auth/register itself requires an admin token.
func main() {
	email := flag.String("email", "", "operator email")
	role := flag.String("role", string(models.RoleAdmin), "admin or analyst")
	flag.Parse()

	password := os.Getenv("CREATE_USER_PASSWORD")
	if *email == "" || len(password) < 8 {
		log.Fatal("usage: CREATE_USER_PASSWORD=<at least 8 chars> create-user -email ops@example.com [-role admin|analyst]")
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.New()

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	svc := services.NewAuthService(repository.NewRepositories(db.DB), cfg)
	user, err := svc.Register(ctx, &models.RegisterRequest{Email: *email, Password: password, Role: *role})
	if err != nil {
		log.Fatalf("❌ Failed to create user: %v", err)
	}

	fmt.Printf("✅ Created %s user %s (%s)\n", user.Role, user.Email, user.ID)
}
