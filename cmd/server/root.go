package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/hydration-engine/api"
	"github.com/warp/hydration-engine/config"
	"github.com/warp/hydration-engine/engine"
	"github.com/warp/hydration-engine/engine/store"
	"github.com/warp/hydration-engine/logger"
	"github.com/warp/hydration-engine/store/mongo"
	"github.com/warp/hydration-engine/store/sqlite"
)

var (
	configFile string
	envFile    string
)

var rootCmd = &cobra.Command{
	Use:           "hydration",
	Short:         "hydration tracks daily water goals and drink intake",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", config.DefaultConfigFile, "Path to TOML config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to .env file")
}

// app is everything a subcommand needs after setup.
type app struct {
	cfg    *config.Config
	loc    *time.Location
	log    *zap.Logger
	store  engine.MutableStore
	sink   api.ReportSink
	closer func(context.Context) error
}

func setup(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configFile, envFile)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, loc: loc, log: log, closer: func(context.Context) error { return nil }}

	switch cfg.Store.Driver {
	case config.DriverMemory:
		a.store = store.NewMemory()
	case config.DriverSQLite:
		s, err := sqlite.New(cfg.Store.SQLitePath, sqlite.WithLocation(loc))
		if err != nil {
			return nil, err
		}
		a.store = s
		a.closer = func(context.Context) error { return s.Close() }
	case config.DriverMongo:
		s, err := mongo.New(ctx, cfg.Store.MongoURI, cfg.Store.MongoDB, loc)
		if err != nil {
			return nil, err
		}
		a.store = s
		a.sink = s
		a.closer = s.Close
	}

	log.Debug("store opened", zap.String("driver", cfg.Store.Driver))
	return a, nil
}

func (a *app) close(ctx context.Context) {
	if err := a.closer(ctx); err != nil {
		a.log.Warn("failed to close store", zap.Error(err))
	}
	_ = a.log.Sync()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
