package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ajharbinger/churn-insight-api/internal/database"
	"github.com/ajharbinger/churn-insight-api/internal/importer"
	"github.com/ajharbinger/churn-insight-api/internal/logger"
	"github.com/ajharbinger/churn-insight-api/internal/repository"
	"github.com/ajharbinger/churn-insight-api/internal/services"
	"github.com/ajharbinger/churn-insight-api/pkg/config"
)

func main() {
	file := flag.String("file", "Customer churn dataset.csv", "path to the customer churn CSV")
	truncate := flag.Bool("truncate", false, "delete existing customers before importing")
	verbose := flag.Bool("verbose", false, "print every skipped row")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.New()
	appLog := logger.New(cfg.Environment)

	f, err := os.Open(*file)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", *file, err)
	}
	defer f.Close()

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc := services.NewImportService(repository.NewRepositories(db.DB), importer.NewParser(), cfg.ImportBatchSize, appLog, nil)

	fmt.Printf("Importing %s (truncate=%v)...\n", *file, *truncate)
	report, err := svc.Import(ctx, f, services.ImportOptions{Truncate: *truncate})
	if err != nil {
		log.Fatalf("❌ Import failed: %v", err)
	}

	fmt.Printf("✅ Import completed\n")
	fmt.Printf("   • Rows read: %d\n", report.Read)
	fmt.Printf("   • Imported: %d\n", report.Imported)
	fmt.Printf("   • Skipped: %d\n", report.Skipped)
	if *truncate {
		fmt.Printf("   • Replaced: %d\n", report.Deleted)
	}
	if *verbose {
		for _, row := range report.SkippedRows {
			fmt.Printf("     line %d: %s\n", row.Line, row.Reason)
		}
	}
}
