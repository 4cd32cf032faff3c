package main

import (
	"log/slog"
	"os"

	"github.com/lite-lake/homelab-ops/internal/infrastructure/logger"
	"github.com/lite-lake/homelab-ops/internal/interfaces/cli"
)

func main() {
	logLevel := slog.LevelInfo
	if os.Getenv("LABOPS_DEBUG") != "" {
		logLevel = slog.LevelDebug
	}

	logFormat := os.Getenv("LABOPS_LOG_FORMAT")

	logger.Init(&logger.Config{
		Level:     logLevel,
		Format:    logFormat,
		AddSource: os.Getenv("LABOPS_DEBUG") != "",
	})

	cli.Execute()
}
