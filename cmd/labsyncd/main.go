// ABOUTME: Entry point for the labsyncd lab-sync server
// ABOUTME: Serves the JSON API over the session, project, and gateway layers

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/colonylab/labsync/internal/api"
	"github.com/colonylab/labsync/internal/config"
	"github.com/colonylab/labsync/internal/metrics"
	"github.com/colonylab/labsync/internal/project"
	"github.com/colonylab/labsync/internal/remote"
	"github.com/colonylab/labsync/internal/session"
)

// version is stamped by the release build.
var version = "dev"

const banner = `
 _       _
| | __ _| |__  ___ _   _ _ __   ___
| |/ _' | '_ \/ __| | | | '_ \ / __|
| | (_| | |_) \__ \ |_| | | | | (__
|_|\__,_|_.__/|___/\__, |_| |_|\___|
                   |___/
`

// getConfigPath returns the path to the labsyncd config file.
// Priority: LABSYNC_CONFIG env var > XDG_CONFIG_HOME/labsync/labsyncd.yaml > ~/.config/labsync/labsyncd.yaml
func getConfigPath() string {
	if envPath := os.Getenv("LABSYNC_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "labsyncd.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "labsync", "labsyncd.yaml")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: labsyncd <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve    Start the sync server")
		fmt.Println("  init     Write a starter config file")
		fmt.Println("  seed     Create bootstrap users from the fixtures file")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "seed":
		err = runSeed(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:   %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("Database: %s\n", cfg.Database.Path)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:     %s\n", cfg.Server.HTTPAddr)
	fmt.Println()

	logger.Info("starting labsyncd",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
	)

	credentials := remote.NewCredentialKeeper([]byte(cfg.Auth.JWTSecret), cfg.Auth.CredentialPath).
		WithTTL(cfg.Auth.CredentialTTL)
	sqliteGateway, err := remote.NewSQLiteGateway(cfg.Database.Path, credentials)
	if err != nil {
		return fmt.Errorf("opening gateway: %w", err)
	}
	defer sqliteGateway.Close()

	var gateway remote.Gateway = sqliteGateway
	m := metrics.New()
	if cfg.Metrics.Enabled {
		gateway = metrics.InstrumentGateway(gateway, m)
	}

	store := project.NewStore(gateway, logger)
	manager := session.NewManager(gateway, store, logger)

	// One-shot startup check for a prior session
	if err := manager.Restore(ctx); err != nil {
		logger.Warn("session restore failed", "error", err)
	}

	mux := http.NewServeMux()
	api.New(manager, store, logger).Routes(mux)
	if cfg.Metrics.Enabled {
		mux.Handle("GET "+cfg.Metrics.Path, m.Handler())
	}

	server := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

const starterConfig = `server:
  http_addr: "127.0.0.1:8080"

database:
  path: "labsync.db"

auth:
  jwt_secret: "${LABSYNC_JWT_SECRET}"
  credential_path: "credential"
  credential_ttl: "168h"

fixtures:
  seed_file: "seed.toml"

logging:
  level: "info"
  format: "text"

metrics:
  enabled: false
  path: "/metrics"
`

func runInit() error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s", configPath)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(starterConfig), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	fmt.Printf("Wrote starter config to %s\n", configPath)
	return nil
}

func runSeed(ctx context.Context) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.Fixtures.SeedFile == "" {
		return fmt.Errorf("fixtures.seed_file is not configured")
	}

	seed, err := config.LoadSeedFile(cfg.Fixtures.SeedFile)
	if err != nil {
		return fmt.Errorf("loading seed file: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	credentials := remote.NewCredentialKeeper([]byte(cfg.Auth.JWTSecret), cfg.Auth.CredentialPath)
	gateway, err := remote.NewSQLiteGateway(cfg.Database.Path, credentials)
	if err != nil {
		return fmt.Errorf("opening gateway: %w", err)
	}
	defer gateway.Close()

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	for _, u := range seed.Users {
		err := gateway.Register(ctx, u.Username, u.Password)
		switch {
		case errors.Is(err, remote.ErrUserExists):
			yellow.Print("    ~ ")
			fmt.Printf("%s already exists, skipped\n", u.Username)
		case err != nil:
			return fmt.Errorf("seeding user %s: %w", u.Username, err)
		default:
			green.Print("    + ")
			fmt.Printf("created %s\n", u.Username)
		}
	}
	return nil
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
