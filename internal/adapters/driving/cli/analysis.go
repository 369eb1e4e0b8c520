package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/draftline/internal/core/domain"
	"github.com/custodia-labs/draftline/internal/core/services"
)

var (
	explainStrength float64
	explainTopic    string
	analyzeSave     bool
)

var explainCmd = &cobra.Command{
	Use:   "explain [file] [sentence]",
	Short: "Explain why a sentence connects to the document",
	Long: `Asks the configured LLM why the sentence connects to the rest of
the document. Without an LLM a heuristic explanation based on the
connection strength is printed.`,
	Args: cobra.ExactArgs(2),
	RunE: runExplain,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file] [sentence]",
	Short: "Find the sentences connected to one sentence",
	Long: `Tracks the sentence, enters flow-sentence mode and requests its
connections from the configured LLM. Use --save to store the resulting
highlights for later render and watch commands.`,
	Args: cobra.ExactArgs(2),
	RunE: runAnalyze,
}

func init() {
	explainCmd.Flags().Float64Var(&explainStrength, "strength", 0.5, "connection strength in [0, 1]")
	explainCmd.Flags().StringVar(&explainTopic, "topic", "", "essay topic passed to the LLM")
	analyzeCmd.Flags().BoolVar(&analyzeSave, "save", false, "store the overlay state after analysis")

	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(analyzeCmd)
}

func runExplain(cmd *cobra.Command, args []string) error {
	doc, err := openDocument(args[0])
	if err != nil {
		return err
	}

	overlay := newOverlay(doc)
	overlay.SetDocumentContext(doc.Text())
	if explainTopic != "" {
		overlay.SetTopics("", explainTopic)
	}

	explanation, ok := overlay.HandleFlowHover(cmd.Context(), args[1], explainStrength)
	if !ok {
		return fmt.Errorf("%w: no explanation for an empty sentence", domain.ErrInvalidInput)
	}

	if analysisService == nil {
		cmd.Printf("(heuristic, %s connection)\n", domain.BucketFor(domain.ClampStrength(explainStrength)))
	}
	cmd.Println(explanation)
	return nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	doc, err := openDocument(args[0])
	if err != nil {
		return err
	}

	r, err := services.NewAnchorResolver().FindExact(doc, args[1])
	if err != nil {
		return fmt.Errorf("sentence not found: %w", err)
	}

	overlay := newOverlay(doc)
	overlay.SetDocumentContext(doc.Text())
	tracked, err := overlay.TrackSentence(r)
	if err != nil {
		return fmt.Errorf("failed to track sentence: %w", err)
	}
	cmd.Printf("Tracking: %s %s\n", tracked.Range, tracked.OriginalText)

	analysis, err := overlay.RedoAnalysis(cmd.Context())
	if err != nil {
		if errors.Is(err, domain.ErrLLMUnavailable) {
			return fmt.Errorf("%w\nRun 'draftline settings llm' to configure a provider", err)
		}
		return fmt.Errorf("analysis failed: %w", err)
	}

	printAnalysis(cmd, analysis)

	if analyzeSave {
		if stateStore == nil {
			return errors.New("state store not configured")
		}
		key := stateKey(args[0])
		if err := stateStore.Save(cmd.Context(), key, overlay.ExportState()); err != nil {
			return fmt.Errorf("failed to save state: %w", err)
		}
		cmd.Printf("Saved state for %s\n", key)
	}
	return nil
}

func printAnalysis(cmd *cobra.Command, a domain.SentenceAnalysis) {
	if a.Relocation.Strategy != "" && a.Relocation.Strategy != domain.RelocatedByMark {
		cmd.Printf("Re-found by %s (score %.2f)\n", a.Relocation.Strategy, a.Relocation.Score)
	}

	cmd.Println()
	if len(a.Connections) == 0 {
		cmd.Println("No connected sentences.")
	} else {
		cmd.Println("Connections:")
		for _, c := range a.Connections {
			cmd.Printf("  %.2f %-8s %s %s\n", c.Strength, domain.BucketFor(c.Strength), c.Range, c.CachedText)
			if c.Reason != "" {
				cmd.Printf("       %s\n", c.Reason)
			}
		}
	}

	cmd.Println()
	cmd.Printf("Paragraph cohesion: %.2f %s\n", a.ParagraphCohesion.Score, a.ParagraphCohesion.Analysis)
	cmd.Printf("Document cohesion:  %.2f %s\n", a.DocumentCohesion.Score, a.DocumentCohesion.Analysis)
}
