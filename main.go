// @title Lesson AI Service API
// @version 1.0
// @description AI question generation and curation service for lesson documents.

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"edu_ai_backend/internal/app"
	"edu_ai_backend/internal/config"
	"edu_ai_backend/pkg/configwatcher"
	"edu_ai_backend/pkg/logger"
	"flag"
	"log"
)

func main() {
	migrateOnly := flag.Bool("migrate-only", false, "run database migrations and exit")
	migrate := flag.Bool("migrate", false, "force database migrations on startup (even in release mode)")
	flag.Parse()

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	cfg.ForceMigrate = *migrate || *migrateOnly
	cfg.MigrateOnly = *migrateOnly

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	if *migrateOnly {
		log.Println("Database migration complete, exiting")
		return
	}

	// Pipeline thresholds and quotas reload when the config file changes.
	configwatcher.WatchConfig("configs/config.yaml", application.ReloadPipeline)

	application.Run()
}
