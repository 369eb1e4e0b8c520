// Package cli provides the draftline command-line interface.
package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/draftline/internal/adapters/driven/document/memory"
	"github.com/custodia-labs/draftline/internal/core/domain"
	"github.com/custodia-labs/draftline/internal/core/ports/driven"
	"github.com/custodia-labs/draftline/internal/core/ports/driving"
	"github.com/custodia-labs/draftline/internal/core/services"
	"github.com/custodia-labs/draftline/internal/logger"
)

var (
	version = "dev"
	verbose bool
)

// Services holds everything the commands need. Any field may be nil;
// commands that require a missing service report it.
type Services struct {
	Settings driving.SettingsService
	States   driven.StateStore
	Analysis driven.AnalysisService
	Events   driven.EventPublisher
	Watcher  driven.DocumentWatcher
}

var (
	settingsService driving.SettingsService
	stateStore      driven.StateStore
	analysisService driven.AnalysisService
	eventPublisher  driven.EventPublisher
	documentWatcher driven.DocumentWatcher
)

var rootCmd = &cobra.Command{
	Use:   "draftline",
	Short: "Anchor and inspect highlights on a draft",
	Long: `draftline keeps AI feedback attached to the right words while you write.

It finds text in a document, expands selections to whole sentences,
re-finds tracked sentences after edits, and renders comment, flow and
connection highlights for the active mode.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug logs to stderr")
}

// SetVersion sets the version reported by `draftline version`.
func SetVersion(v string) {
	version = v
}

// SetServices injects the services used by the commands.
func SetServices(s Services) {
	settingsService = s.Settings
	stateStore = s.States
	analysisService = s.Analysis
	eventPublisher = s.Events
	documentWatcher = s.Watcher
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// openDocument loads path into an in-memory document.
func openDocument(path string) (*memory.Document, error) {
	doc, err := memory.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	return doc, nil
}

// newOverlay creates an overlay for doc using the configured analysis
// service and reanchor threshold.
func newOverlay(doc driven.Document) *services.OverlayManager {
	overlay := services.NewOverlayManager(doc, analysisService, eventPublisher)
	overlay.SetReanchorThreshold(reanchorThreshold())
	return overlay
}

// reanchorThreshold returns the configured threshold, or the default.
func reanchorThreshold() float64 {
	if settingsService == nil {
		return domain.DefaultReanchorThreshold
	}
	settings, err := settingsService.Get()
	if err != nil {
		logger.Warn("reading settings: %v", err)
		return domain.DefaultReanchorThreshold
	}
	return settings.Analysis.ReanchorThreshold
}

// stateKey is the key a document's overlay state is stored under.
func stateKey(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

// restoreState imports the stored overlay state for key into overlay.
// A missing state is not an error.
func restoreState(cmd *cobra.Command, overlay driving.OverlayService, key string) (bool, error) {
	if stateStore == nil {
		return false, nil
	}
	state, err := stateStore.Load(cmd.Context(), key)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load state: %w", err)
	}
	res, err := overlay.ImportState(state)
	if err != nil {
		return false, fmt.Errorf("failed to import state: %w", err)
	}
	printSkipped(cmd, res)
	return true, nil
}

func printSkipped(cmd *cobra.Command, res domain.BatchResult) {
	for _, s := range res.Skipped {
		cmd.PrintErrf("skipped %s: %s\n", s.ID, s.Reason)
	}
}
