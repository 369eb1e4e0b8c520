package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/draftline/internal/core/domain"
	"github.com/custodia-labs/draftline/internal/core/ports/driven"
	"github.com/custodia-labs/draftline/internal/core/ports/driving"
)

var (
	renderMode   string
	renderLegend bool
)

var renderCmd = &cobra.Command{
	Use:   "render [file]",
	Short: "Print a document with its stored highlights",
	Long: `Restores the stored overlay state for the document and prints it
with the highlights of the active mode. Use --mode to render another
mode without changing the stored state.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderMode, "mode", "m", "", "mode to render (comments, flow, flow-sentence)")
	renderCmd.Flags().BoolVar(&renderLegend, "legend", true, "list every highlight below the text")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	var mode domain.Mode
	if renderMode != "" {
		m, err := domain.ParseMode(renderMode)
		if err != nil {
			return err
		}
		mode = m
	}

	doc, err := openDocument(args[0])
	if err != nil {
		return err
	}

	overlay := newOverlay(doc)
	if _, err := restoreState(cmd, overlay, stateKey(args[0])); err != nil {
		return err
	}
	if mode != "" {
		if err := overlay.SwitchMode(mode); err != nil {
			return err
		}
	}

	printFrame(cmd, doc, overlay)
	return nil
}

// printFrame paints the document for the overlay's active mode.
func printFrame(cmd *cobra.Command, doc driven.Document, overlay driving.OverlayService) {
	frame := overlay.RenderFrame()
	p := newPainter(cmd.OutOrStdout())

	var tracked *domain.TextRange
	if frame.Mode == domain.ModeFlowSentence {
		if t, ok := overlay.Tracked(); ok {
			r := t.Range
			if live, ok := doc.MarkRange(domain.TrackedMarkID(t.ID)); ok {
				r = live
			}
			tracked = &r
		}
	}

	cmd.Printf("Mode: %s\n\n", frame.Mode.Description())
	cmd.Println(p.paint(doc.TextBetween(0, doc.TextLength()), frame, tracked))

	if !renderLegend {
		return
	}
	cmd.Println()
	if len(frame.Marks) == 0 {
		cmd.Println("No highlights in this mode.")
		return
	}
	cmd.Print(p.legend(doc, frame))
	if n := hiddenCount(overlay, frame.Mode); n > 0 {
		cmd.Printf("  (%d more in other modes)\n", n)
	}
}

// hiddenCount returns the number of annotations not rendered in mode.
func hiddenCount(overlay driving.OverlayService, mode domain.Mode) int {
	n := 0
	for _, c := range domain.Categories {
		if !mode.Renders(c) {
			n += len(overlay.Annotations(c))
		}
	}
	return n
}
