// Package main implements the socialwave binary: it restores the stores from
// the latest snapshot image, serves the event and registry APIs, and drains
// the stores to a new image on SIGTERM or SIGINT.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/digitull/SocialWave-sub001/internal/app"
	"github.com/digitull/SocialWave-sub001/internal/config"
	"github.com/digitull/SocialWave-sub001/internal/logger"
	"github.com/joho/godotenv"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	var (
		configFile  string
		dataDir     string
		httpAddr    string
		storageType string
		logLevel    string
		showVersion bool
	)

	flag.StringVar(&configFile, "config", "", "Path to configuration file (YAML or JSON)")
	flag.StringVar(&dataDir, "data-dir", "", "Base directory for all data files")
	flag.StringVar(&httpAddr, "http-addr", "", "HTTP listen address")
	flag.StringVar(&storageType, "storage", "", "Snapshot storage type: local, s3, sqlite")
	flag.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flag.BoolVar(&showVersion, "version", false, "Show version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "SocialWave - event analytics and model registry service\n\n")
		fmt.Fprintf(os.Stderr, "Usage: socialwave [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables (also read from .env):\n")
		fmt.Fprintf(os.Stderr, "  SOCIALWAVE_DATA_DIR       Base directory for data files\n")
		fmt.Fprintf(os.Stderr, "  SOCIALWAVE_HTTP_ADDR      HTTP listen address\n")
		fmt.Fprintf(os.Stderr, "  SOCIALWAVE_STORAGE_TYPE   Snapshot storage type (local, s3, sqlite)\n")
		fmt.Fprintf(os.Stderr, "  SOCIALWAVE_S3_BUCKET      Bucket for s3 storage\n")
		fmt.Fprintf(os.Stderr, "  SOCIALWAVE_TREND_SCHEDULE Cron spec for trend detection\n")
		fmt.Fprintf(os.Stderr, "  SOCIALWAVE_LOG_LEVEL      Log level\n")
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("socialwave version %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	bootLog := logger.New(app.ServiceName, "info")

	// A missing .env file is normal outside development.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		bootLog.Warn().Err(err).Msg("failed to load .env file")
	}

	cfg, err := loadConfig(configFile, dataDir, httpAddr, storageType, logLevel)
	if err != nil {
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	application, err := app.New(cfg)
	if err != nil {
		bootLog.Fatal().Err(err).Msg("failed to create application")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := application.Start(ctx); err != nil {
		bootLog.Fatal().Err(err).Msg("failed to start application")
	}

	if err := application.WaitForShutdown(ctx); err != nil {
		bootLog.Error().Err(err).Msg("shutdown finished with errors")
		os.Exit(1)
	}
}

// loadConfig loads configuration from file, environment, and command line flags.
func loadConfig(configFile, dataDir, httpAddr, storageType, logLevel string) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if configFile != "" {
		cfg, err = config.LoadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		cfg = config.DefaultConfig()
	}

	config.LoadFromEnv(cfg)

	// Flags take precedence over the file and the environment.
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if httpAddr != "" {
		cfg.HTTP.Addr = httpAddr
	}
	if storageType != "" {
		cfg.Storage.Type = storageType
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	return cfg, nil
}
