package main

import (
	"context"
	"log"

	"github.com/tejaspavanb/DeepFake/internal/app"
	"github.com/tejaspavanb/DeepFake/internal/config"
	"github.com/tejaspavanb/DeepFake/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Close()

	application, err := app.NewApp(cfg, appLogger)
	if err != nil {
		appLogger.Error("Failed to initialize application: %v", err)
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := application.Run(context.Background()); err != nil {
		appLogger.Error("Server stopped: %v", err)
		log.Fatalf("Failed to start server: %v", err)
	}
}
