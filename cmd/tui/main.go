package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"todolist/internal/client"
	"todolist/internal/config"
	"todolist/internal/logging"
	"todolist/internal/prefs"
	"todolist/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to a YAML config file")
	filter := flag.String("filter", "all", "initial filter: all, active or completed")
	flag.Parse()

	cfg, err := config.LoadClient(*configPath)
	if err != nil {
		return err
	}
	f, err := client.ParseFilter(*filter)
	if err != nil {
		return err
	}

	// The terminal belongs to the UI, so logs go to a file or nowhere.
	var w io.Writer = io.Discard
	if cfg.Log.File != "" {
		file, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer file.Close()
		w = file
	}
	log := logging.New(w, logging.Options{Level: cfg.Log.Level, Format: "text", Service: "todolist-tui"})
	slog.SetDefault(log)

	prefsPath := cfg.Prefs.Path
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	log.Info("starting", "api", cfg.API.BaseURL, "prefs", prefsPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api := client.NewAPI(cfg.API.BaseURL, cfg.API.TimeoutDuration())
	return tui.Run(ctx, api, client.NewState(f), prefs.NewManager(prefsPath), log)
}
