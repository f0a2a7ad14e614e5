package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"go-dashboards/internal/cli"
	"go-dashboards/internal/client"
	"go-dashboards/internal/snapshot"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	server := os.Getenv("DASHVIEW_SERVER")
	if server == "" {
		server = "http://localhost:8080"
	}

	// Saved filters live in DASHVIEW_DB, default ~/.dashview/dashview.db
	dbPath := os.Getenv("DASHVIEW_DB")
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("finding home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".dashview", "dashview.db")
	}

	store, err := snapshot.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer store.Close()

	log := zap.NewNop()
	if os.Getenv("DASHVIEW_DEBUG") == "true" {
		if log, err = zap.NewDevelopment(); err != nil {
			return err
		}
		defer log.Sync()
	}

	api := client.New(server, os.Getenv("DASHVIEW_TOKEN"), 30*time.Second)

	app := &cli.App{
		Access:                api,
		Invitations:           api,
		Store:                 store,
		MaxConcurrentSections: envInt("DASHVIEW_MAX_CONCURRENT_SECTIONS", 4),
		Width:                 envInt("COLUMNS", 0),
		Out:                   os.Stdout,
		Logger:                log,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return cli.NewRootCmd(app).ExecuteContext(ctx)
}

func envInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}
