package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v2"

	"bsid.es/despierta"
	"bsid.es/despierta/config"
	"bsid.es/despierta/jsonstore"
	"bsid.es/despierta/mem"
	"bsid.es/despierta/sqlite"
	"bsid.es/despierta/tui"
)

func main() {
	app := &cli.App{
		Name:  "despierta",
		Usage: "Local alarm clock.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "Path to a YAML config file."},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := setupLogger(cfg.Log.Level)

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closeStore()

	alarms, err := store.Load()
	var warning string
	if err != nil {
		if despierta.ErrorCode(err) != despierta.ErrCorrupt {
			return fmt.Errorf("load alarms: %w", err)
		}
		// Recoverable: start over with an empty list, but say so.
		logger.Warn("Alarm data is corrupt, starting empty.", "error", err)
		warning = "alarm data was corrupt, starting with an empty list"
		alarms = nil
	}

	list := despierta.NewList(alarms...)
	list.OnChange = store.Save

	clock := mem.NewClock(list)
	clock.Interval = cfg.Clock.Interval

	ctx := c.Context
	clock.Run(ctx)
	defer clock.Interrupt()

	if strings.EqualFold(cfg.Log.Level, "debug") {
		fl := mem.NewFiringLogger(clock)
		fl.Run(ctx)
		defer fl.Interrupt()
	}

	logger.Info("Starting UI.", "alarms", len(alarms), "store", cfg.Store.Backend, "dir", cfg.Store.Dir)

	p := tea.NewProgram(tui.New(list, clock, cfg.Clock.Snooze, warning), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

func openStore(cfg *config.Config) (despierta.Store, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Store.Backend {
	case "", "json":
		return jsonstore.New(filepath.Join(cfg.Store.Dir, "alarms.json")), noop, nil
	case "sqlite":
		if err := os.MkdirAll(cfg.Store.Dir, 0o755); err != nil {
			return nil, nil, err
		}
		s, err := sqlite.Open(filepath.Join(cfg.Store.Dir, "alarms.db"))
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}
	return nil, nil, despierta.Errorf(despierta.ErrInvalid, "unknown store backend %q", cfg.Store.Backend)
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
	return logger
}
