package main

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/joho/godotenv"
	"github.com/myrjola/whodunit/internal/ai"
	"github.com/myrjola/whodunit/internal/config"
	"github.com/myrjola/whodunit/internal/db"
	"github.com/myrjola/whodunit/internal/envstruct"
	"github.com/myrjola/whodunit/internal/errors"
	"github.com/myrjola/whodunit/internal/game"
	"github.com/myrjola/whodunit/internal/logging"
	"github.com/myrjola/whodunit/internal/memory"
	"github.com/myrjola/whodunit/internal/pprofserver"
)

type application struct {
	logger          *slog.Logger
	sessionManager  *scs.SessionManager
	registry        *game.Registry
	presets         map[string]config.Settings
	defaultSettings config.Settings
}

type webConfig struct {
	Addr        string `env:"WHODUNIT_ADDR" envDefault:"localhost:4000"`
	SQLiteURL   string `env:"WHODUNIT_SQLITE_URL" envDefault:"./whodunit.sqlite"`
	PprofPort   string `env:"WHODUNIT_PPROF_PORT" envDefault:""`
	PresetsPath string `env:"WHODUNIT_PRESETS" envDefault:""`
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var cfg webConfig
	if err := envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "parse web configuration")
	}
	var aiCfg ai.Config
	if err := envstruct.Populate(&aiCfg, lookupEnv); err != nil {
		return errors.Wrap(err, "parse ai configuration")
	}

	if cfg.PprofPort != "" {
		// Listens on localhost only so it is not open to the world.
		pprofserver.Launch(cfg.PprofPort, logger)
	}

	database, err := db.NewDB(cfg.SQLiteURL)
	if err != nil {
		return errors.Wrap(err, "open database")
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "connected to db")

	sessionManager := scs.New()
	sessionManager.Store = sqlite3store.NewWithCleanupInterval(database.ReadWrite.DB, 24*time.Hour)
	sessionManager.Lifetime = 12 * time.Hour

	client := ai.NewClient(aiCfg, logger)
	store := memory.NewStore(database, client, logger)

	presets := map[string]config.Settings{}
	if cfg.PresetsPath != "" {
		if presets, err = config.LoadPresets(cfg.PresetsPath); err != nil {
			return errors.Wrap(err, "load presets")
		}
	}

	app := application{
		logger:          logger,
		sessionManager:  sessionManager,
		registry:        game.NewRegistry(client, store, logger),
		presets:         presets,
		defaultSettings: config.DefaultSettings(),
	}

	return app.configureAndStartServer(ctx, cfg.Addr)
}

func main() {
	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	}))
	logger := slog.New(loggerHandler)

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Error(err.Error())
		os.Exit(1)
	}

	if err := run(context.Background(), logger, os.LookupEnv); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}
