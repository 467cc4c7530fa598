// Package config loads server settings from an optional TOML file, an
// optional .env file and HYDRATION_* environment variables, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

const DefaultConfigFile = "hydration.toml"

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// Config represents the full application configuration surface.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Store   StoreConfig   `toml:"store"`
	Engine  EngineConfig  `toml:"engine"`
	Reports ReportsConfig `toml:"reports"`
	Log     LogConfig     `toml:"log"`
}

type ServerConfig struct {
	ListenAddr string `toml:"listen_addr"`
}

type StoreConfig struct {
	Driver     string `toml:"driver"`
	SQLitePath string `toml:"sqlite_path"`
	MongoURI   string `toml:"mongo_uri,omitempty"`
	MongoDB    string `toml:"mongo_db"`
}

// EngineConfig holds the defaults applied to queries that don't say otherwise.
type EngineConfig struct {
	DayOffset int    `toml:"day_offset"`
	Timezone  string `toml:"timezone"`
}

type ReportsConfig struct {
	Enabled bool   `toml:"enabled"`
	Cron    string `toml:"cron"`
}

type LogConfig struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

func Default() *Config {
	return &Config{
		Server:  ServerConfig{ListenAddr: ":8080"},
		Store:   StoreConfig{Driver: DriverSQLite, SQLitePath: "hydration.db", MongoDB: "hydration"},
		Engine:  EngineConfig{DayOffset: 0, Timezone: "Local"},
		Reports: ReportsConfig{Enabled: true, Cron: "5 0 * * *"},
		Log:     LogConfig{Level: "info"},
	}
}

// Load builds a Config. A missing config or env file is not an error.
func Load(configFile, envFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		b, err := os.ReadFile(configFile)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := toml.Unmarshal(b, cfg); err != nil {
				return nil, fmt.Errorf("decode config %s: %w", configFile, err)
			}
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Server.ListenAddr = getenvWithDefault("HYDRATION_LISTEN_ADDR", c.Server.ListenAddr)
	c.Store.Driver = getenvWithDefault("HYDRATION_STORE_DRIVER", c.Store.Driver)
	c.Store.SQLitePath = getenvWithDefault("HYDRATION_SQLITE_PATH", c.Store.SQLitePath)
	c.Store.MongoURI = getenvWithDefault("HYDRATION_MONGO_URI", c.Store.MongoURI)
	c.Store.MongoDB = getenvWithDefault("HYDRATION_MONGO_DB", c.Store.MongoDB)
	c.Engine.Timezone = getenvWithDefault("HYDRATION_TIMEZONE", c.Engine.Timezone)
	c.Reports.Cron = getenvWithDefault("HYDRATION_REPORT_CRON", c.Reports.Cron)
	c.Log.Level = getenvWithDefault("HYDRATION_LOG_LEVEL", c.Log.Level)

	if v := os.Getenv("HYDRATION_DAY_OFFSET"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HYDRATION_DAY_OFFSET must be an integer: %w", err)
		}
		c.Engine.DayOffset = n
	}
	if v := os.Getenv("HYDRATION_REPORTS_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("HYDRATION_REPORTS_ENABLED must be a boolean: %w", err)
		}
		c.Reports.Enabled = b
	}
	return nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.ListenAddr == "" {
		return errors.New("server.listen_addr must be provided")
	}

	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			return errors.New("store.sqlite_path must be provided for the sqlite driver")
		}
	case DriverMongo:
		if c.Store.MongoURI == "" {
			return errors.New("HYDRATION_MONGO_URI must be provided for the mongo driver")
		}
		if c.Store.MongoDB == "" {
			return errors.New("store.mongo_db must be provided for the mongo driver")
		}
	default:
		return fmt.Errorf("unknown store driver %q (expected memory, sqlite or mongo)", c.Store.Driver)
	}

	if c.Engine.DayOffset < 0 || c.Engine.DayOffset > 23 {
		return fmt.Errorf("engine.day_offset must be in [0, 24), got %d", c.Engine.DayOffset)
	}
	if _, err := c.Location(); err != nil {
		return err
	}

	if c.Reports.Enabled {
		if strings.TrimSpace(c.Reports.Cron) == "" {
			return errors.New("reports.cron must be provided when reports are enabled")
		}
		if _, err := cron.ParseStandard(c.Reports.Cron); err != nil {
			return fmt.Errorf("invalid reports.cron %q: %w", c.Reports.Cron, err)
		}
	}

	return nil
}

// Location resolves Engine.Timezone.
func (c *Config) Location() (*time.Location, error) {
	switch c.Engine.Timezone {
	case "", "Local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Engine.Timezone)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", c.Engine.Timezone, err)
	}
	return loc, nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
