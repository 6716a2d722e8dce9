package main

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/Subrata270/studio-sub001/infrastructure/config"
	"github.com/Subrata270/studio-sub001/infrastructure/container"
	"github.com/Subrata270/studio-sub001/infrastructure/service/logger"
)

// scan runs one expiry scan and prints the report, for use from cron
func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	structuredLogger := logger.NewStructuredLogger(logger.LoggerConfig{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: "subscription-scan",
	})

	app, err := container.New(ctx, cfg, structuredLogger)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer app.Close()

	report, err := app.UseCases.Tracker.RunExpiryScan(ctx)
	if err != nil {
		structuredLogger.Error(ctx, "Expiry scan failed", err, nil)
		app.Close()
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		log.Printf("failed to write report: %v", err)
	}
	if len(report.Failures) > 0 {
		app.Close()
		os.Exit(2)
	}
}
