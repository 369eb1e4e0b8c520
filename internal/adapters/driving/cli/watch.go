package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/draftline/internal/adapters/driven/document/memory"
	"github.com/custodia-labs/draftline/internal/core/ports/driving"
	"github.com/custodia-labs/draftline/internal/logger"
)

var watchCmd = &cobra.Command{
	Use:   "watch [file]",
	Short: "Keep highlights anchored while a document is edited",
	Long: `Watches the document and, on every save, re-anchors the stored
highlights and the tracked sentence to the new text, prints the result
and stores the updated state. Stops on Ctrl+C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if documentWatcher == nil {
		return errors.New("document watcher not configured")
	}
	path := args[0]
	key := stateKey(path)

	doc, err := openDocument(path)
	if err != nil {
		return err
	}
	overlay := newOverlay(doc)
	if _, err := restoreState(cmd, overlay, key); err != nil {
		return err
	}
	printFrame(cmd, doc, overlay)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	changes, err := documentWatcher.Watch(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to watch document: %w", err)
	}
	cmd.Printf("\nWatching %s (Ctrl+C to stop)\n", path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			if err := reanchor(ctx, cmd, path, key, doc, overlay); err != nil {
				// A half-written file is common mid-save; wait for the next change.
				logger.Warn("reload %s: %v", path, err)
				cmd.PrintErrf("reload failed: %v\n", err)
			}
		}
	}
}

// reanchor loads the new text, re-applies every highlight and stores the result.
func reanchor(
	ctx context.Context,
	cmd *cobra.Command,
	path, key string,
	doc *memory.Document,
	overlay driving.OverlayService,
) error {
	fresh, err := memory.Load(path)
	if err != nil {
		return err
	}

	state := overlay.ExportState()
	doc.SetText(fresh.Text())
	res, err := overlay.ImportState(state)
	if err != nil {
		return err
	}

	cmd.Println()
	printSkipped(cmd, res)
	printFrame(cmd, doc, overlay)

	if stateStore == nil {
		return nil
	}
	if err := stateStore.Save(ctx, key, overlay.ExportState()); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}
