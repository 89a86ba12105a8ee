package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/yukikurage/case-billing-api/internal/config"
	"github.com/yukikurage/case-billing-api/internal/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load configuration
	cfg := config.Load()

	// Initialize logger with configuration
	if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	Execute(cfg)
}
