package main

import (
	"github.com/joho/godotenv"

	"github.com/normsearch/normsearch-cli/internal/adapters/driving/cli"
	"github.com/normsearch/normsearch-cli/internal/logger"
)

func main() {
	// Load .env if present, for provider API keys.
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file loaded: %v", err)
	}

	cli.Execute()
}
