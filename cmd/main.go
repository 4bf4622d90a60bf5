package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/Jakson-Almeida/shortsgrab/internal/platform"
	"github.com/Jakson-Almeida/shortsgrab/internal/repositories"
	"github.com/Jakson-Almeida/shortsgrab/internal/services"
	"github.com/Jakson-Almeida/shortsgrab/internal/session"
	"github.com/Jakson-Almeida/shortsgrab/internal/shared"
	"github.com/Jakson-Almeida/shortsgrab/internal/tasks"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	opts := RunnerOpts{
		Config:     config,
		ConfigPath: "config.toml",
		Logger:     logger,
	}

	catalog := services.NewYouTubeService(config.Credentials.YouTube.APIKey, config.Credentials.YouTube.BaseURL, nil)
	backend := services.NewBackendService(config.Backend.BaseURL, nil)
	opts.Catalog = catalog
	opts.Backend = backend

	if db, err := shared.NewDatabase(config.Database.Path); err == nil {
		shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
		if err := shared.RunMigrations(db); err != nil {
			logger.Warn("migrations failed, run 'shortsgrab setup'", "error", err)
		} else {
			credentials := repositories.NewCredentialRepository(db)
			history := repositories.NewHistoryRepository(db)
			searches := repositories.NewSearchRepository(db)

			opts.History = history
			opts.Searches = searches

			if mgr, err := session.NewManager(backend, credentials, logger); err == nil {
				opts.Session = mgr
			} else {
				logger.Warn("failed to restore session", "error", err)
			}

			if store, err := platform.NewFileStore(config.Downloads.Directory); err == nil {
				opts.Store = store
				engine := tasks.NewDownloadEngine(backend, sessionTokens{opts.Session}, store, history)
				engine.SetMarkedChecker(history.IsMarked)
				opts.Engine = engine
			} else {
				logger.Warn("failed to prepare download directory", "error", err)
			}
		}
	} else {
		logger.Warn("database unavailable, run 'shortsgrab setup'", "error", err)
	}

	runner := NewRunner(opts)

	app := &cli.Command{
		Name:     "shortsgrab",
		Usage:    "Search and download YouTube Shorts",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}

// sessionTokens adapts the session manager to [tasks.TokenSource], tolerating
// a nil manager when the database could not be opened.
type sessionTokens struct {
	mgr *session.Manager
}

func (s sessionTokens) Token() string {
	if s.mgr == nil {
		return ""
	}
	return s.mgr.Token()
}

// downloadTimeout returns the configured session bound.
func downloadTimeout(config *shared.Config) time.Duration {
	if config.Downloads.TimeoutMinutes <= 0 {
		return tasks.DefaultTimeout
	}
	return time.Duration(config.Downloads.TimeoutMinutes) * time.Minute
}

// fallbackDelay returns the configured degradation pause.
func fallbackDelay(config *shared.Config) time.Duration {
	if config.Downloads.FallbackDelaySeconds <= 0 {
		return tasks.DefaultFallbackDelay
	}
	return time.Duration(config.Downloads.FallbackDelaySeconds) * time.Second
}
