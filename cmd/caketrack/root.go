package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/caketrack/caketrack/internal/config"
	"github.com/caketrack/caketrack/internal/migrate"
	"github.com/caketrack/caketrack/internal/notify"
	"github.com/caketrack/caketrack/internal/storage"
	"github.com/caketrack/caketrack/internal/storage/flatfile"
	"github.com/caketrack/caketrack/internal/storage/sqlite"
)

var (
	flagConfig  string
	flagDataDir string
	flagEngine  string
)

var rootCmd = &cobra.Command{
	Use:   "caketrack",
	Short: "Local order book for a small cake shop",
	Long: `caketrack keeps a cake shop's catalog, clients, and orders on the
local device. No server, no account: data lives in the data directory
(default ~/.caketrack), preferring embedded SQLite and falling back to
plain JSON files when the engine is unavailable.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: config.yaml in the data dir)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default: ~/.caketrack)")
	rootCmd.PersistentFlags().StringVar(&flagEngine, "engine", "", "storage engine preference: auto, sqlite, or flat")
}

// app bundles the wired storage stack for one CLI invocation.
type app struct {
	cfg    *config.Config
	store  *storage.Facade
	flat   *flatfile.Store
	logger *log.Logger

	db *sqlite.DB // set if the probe opened the structured engine

	// migration holds the result of the post-open migration hook, for the
	// migrate command's report.
	migration *migrate.Result
}

// openApp loads configuration and wires the facade, flat fallback, change
// publisher, and migration hook. No storage I/O happens until the first
// store operation.
func openApp() (*app, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagDataDir != "" {
		cfg.DataDir = flagDataDir
	}
	if flagEngine != "" {
		cfg.Engine = flagEngine
	}

	var logOut io.Writer = os.Stderr
	if cfg.LogFile != "" {
		logOut = &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    5, // megabytes
			MaxBackups: 3,
		}
	}
	logger := log.New(logOut, "[caketrack] ", log.LstdFlags)

	a := &app{
		cfg:    cfg,
		flat:   flatfile.New(cfg.DataDir, logger),
		logger: logger,
	}

	var open storage.OpenFunc
	switch cfg.Engine {
	case config.EngineFlat:
		open = nil
	case config.EngineSQLite:
		// Structured engine explicitly required: fail now instead of
		// silently degrading.
		db, err := sqlite.Open(cfg.DatabasePath(), logger)
		if err != nil {
			return nil, fmt.Errorf("engine=sqlite but the engine is unavailable: %w", err)
		}
		a.db = db
		open = func(context.Context) (storage.Store, error) { return db, nil }
	default: // auto
		open = func(context.Context) (storage.Store, error) {
			db, err := sqlite.Open(cfg.DatabasePath(), logger)
			if err != nil {
				return nil, err
			}
			a.db = db
			return db, nil
		}
	}

	a.store = storage.NewFacade(storage.FacadeConfig{
		OpenStructured: open,
		Fallback:       a.flat,
		Notifier:       notify.NewDirPublisher(cfg.EventsDir(), logger),
		Logger:         logger,
		OnStructuredReady: func(ctx context.Context, structured storage.Store) {
			result, err := migrate.Run(ctx, migrate.Options{
				Structured: structured,
				Flat:       a.flat,
				SeedFile:   cfg.SeedFile,
				Logger:     logger,
			})
			if err != nil {
				logger.Printf("WARNING: migration run failed: %v", err)
			}
			a.migration = result
		},
	})

	return a, nil
}

// Close releases the structured engine handle, if the probe opened one.
func (a *app) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Printf("WARNING: failed to close database: %v", err)
		}
	}
}
