// Command oceanai ingests ARGO float profiles and answers questions about them.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/oceanai-cli/internal/adapters/driven/ai"
	"github.com/custodia-labs/oceanai-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/oceanai-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/oceanai-cli/internal/app"
	"github.com/custodia-labs/oceanai-cli/internal/core/services"
	"github.com/custodia-labs/oceanai-cli/internal/logger"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	defer func() { _ = logger.Sync() }()

	loadEnv(".env")

	home, err := homeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	loadEnv(filepath.Join(home, ".env"))

	configStore, err := file.NewConfigStore(home)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator(), home)

	cli.SetVersion(version)
	svc := &cli.Services{Settings: settingsService}

	settings, err := settingsService.Get()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading settings: %v\n", err)
		return 1
	}

	application, err := app.New(context.Background(), app.Config{
		Settings:  *settings,
		Scheduler: settingsService.GetSchedulerConfig(),
		PromptDir: app.PromptDir(home),
	})
	if err != nil {
		// Settings commands stay usable so the configuration can be fixed.
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	} else {
		defer func() {
			if err := application.Close(); err != nil {
				logger.Warn("closing resources", "error", err)
			}
		}()
		for _, w := range application.Warnings() {
			logger.Warn(w)
		}

		svc.Ingest = application.Ingest
		svc.Index = application.Index
		svc.Router = application.Router
		svc.Retrieval = application.Retrieval
		svc.Floats = application.Floats
		svc.Scheduler = application.Scheduler
		if application.Search != nil {
			svc.Search = application.Search
		}
		svc.SearchErr = application.SearchErr
	}

	cli.SetServices(svc)
	if err := cli.Execute(); err != nil {
		return 1
	}
	return 0
}

// homeDir returns OCEANAI_HOME or ~/.oceanai.
func homeDir() (string, error) {
	if home := os.Getenv("OCEANAI_HOME"); home != "" {
		return home, nil
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(userHome, ".oceanai"), nil
}

// loadEnv reads KEY=value pairs from path without overriding the environment.
func loadEnv(path string) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("reading env file", "path", path, "error", err)
	}
}
