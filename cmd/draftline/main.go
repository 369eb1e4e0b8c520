// Command draftline anchors writing feedback to text and renders it as highlights.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/draftline/internal/adapters/driven/ai"
	"github.com/custodia-labs/draftline/internal/adapters/driven/config/file"
	"github.com/custodia-labs/draftline/internal/adapters/driven/events"
	"github.com/custodia-labs/draftline/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/draftline/internal/adapters/driven/watcher"
	"github.com/custodia-labs/draftline/internal/adapters/driving/cli"
	"github.com/custodia-labs/draftline/internal/core/services"
	"github.com/custodia-labs/draftline/internal/logger"
)

// Populated at build time via -ldflags.
var version = "dev"

// dirEnv overrides ~/.draftline, mostly for scripting and tests.
const dirEnv = "DRAFTLINE_DIR"

// errReported marks command errors cobra has already printed.
var errReported = errors.New("reported")

func main() {
	if err := run(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run() error {
	dir := os.Getenv(dirEnv)
	if dir == "" {
		d, err := file.DefaultDir()
		if err != nil {
			return err
		}
		dir = d
	}

	cfg, err := file.NewConfigStore(dir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	prompts, err := file.NewPromptStore(filepath.Join(dir, "prompts"), ai.DefaultPrompts())
	if err != nil {
		return fmt.Errorf("failed to load prompts: %w", err)
	}

	settingsSvc := services.NewSettingsService(cfg, ai.NewConfigValidator())
	settings, err := settingsSvc.Get()
	if err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}

	analysis := ai.Init(*settings, prompts)
	defer analysis.Close()
	for _, w := range analysis.Warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s (using heuristic explanations)\n", w)
	}

	store, err := sqlite.NewStore(filepath.Join(dir, "data"))
	if err != nil {
		return fmt.Errorf("failed to open state store: %w", err)
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := events.New(0)
	events.RegisterDebugLogger(bus, logger.Component("events"))
	bus.Start(ctx)
	defer bus.Stop()

	fileWatcher, err := watcher.New(0)
	if err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}
	defer fileWatcher.Close()

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Settings: settingsSvc,
		States:   store.StateStore(),
		Analysis: analysis.AnalysisService(),
		Events:   bus,
		Watcher:  fileWatcher,
	})

	if err := cli.Execute(); err != nil {
		return errReported
	}
	return nil
}
