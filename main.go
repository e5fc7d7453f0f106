package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"conciliador/cmd"
	"conciliador/internal/config"
	"conciliador/internal/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Printf("Warning: Could not load configuration: %v", err)
		cfg = config.Default()
	}

	if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	log := logger.WithComponent("main")
	log.Info().Msg("Starting conciliador")

	cmd.Execute(cfg)

	log.Info().Msg("conciliador shutdown")
	os.Exit(0)
}
