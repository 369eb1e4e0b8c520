package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/draftline/internal/core/domain"
	"github.com/custodia-labs/draftline/internal/core/services"
)

var (
	findAll   bool
	findNear  int
	threshold float64
)

var findCmd = &cobra.Command{
	Use:   "find [file] [text]",
	Short: "Locate text in a document",
	Long: `Prints the rune range of text in the document.

By default the first occurrence is reported. Use --all for every
occurrence, or --near to prefer the occurrence closest to an offset.`,
	Args: cobra.ExactArgs(2),
	RunE: runFind,
}

var expandCmd = &cobra.Command{
	Use:   "expand [file] [from] [to]",
	Short: "Expand a range to whole sentences",
	Args:  cobra.ExactArgs(3),
	RunE:  runExpand,
}

var sentencesCmd = &cobra.Command{
	Use:   "sentences [file]",
	Short: "List the sentences of a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runSentences,
}

var reanchorCmd = &cobra.Command{
	Use:   "reanchor [file] [sentence]",
	Short: "Re-find a sentence after the document changed",
	Long: `Looks for the closest match to a previously captured sentence.

Every sentence is scored by keyword overlap with the original and the
best one is accepted if it beats the threshold. Ties go to the earlier
sentence.`,
	Args: cobra.ExactArgs(2),
	RunE: runReanchor,
}

func init() {
	findCmd.Flags().BoolVar(&findAll, "all", false, "report every occurrence")
	findCmd.Flags().IntVar(&findNear, "near", -1, "prefer the occurrence nearest this offset")
	reanchorCmd.Flags().Float64Var(&threshold, "threshold", domain.DefaultReanchorThreshold, "keyword overlap a match must exceed, in [0, 1] (default from settings)")

	rootCmd.AddCommand(findCmd)
	rootCmd.AddCommand(expandCmd)
	rootCmd.AddCommand(sentencesCmd)
	rootCmd.AddCommand(reanchorCmd)
}

func runFind(cmd *cobra.Command, args []string) error {
	doc, err := openDocument(args[0])
	if err != nil {
		return err
	}
	resolver := services.NewAnchorResolver()

	var ranges []domain.TextRange
	switch {
	case findAll:
		ranges, err = resolver.FindAll(doc, args[1])
	case findNear >= 0:
		var r domain.TextRange
		r, err = resolver.FindNear(doc, args[1], findNear)
		ranges = []domain.TextRange{r}
	default:
		var r domain.TextRange
		r, err = resolver.FindExact(doc, args[1])
		ranges = []domain.TextRange{r}
	}
	if err != nil {
		return fmt.Errorf("find failed: %w", err)
	}

	for _, r := range ranges {
		cmd.Println(r.String())
	}
	return nil
}

func runExpand(cmd *cobra.Command, args []string) error {
	from, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("%w: from must be an integer", domain.ErrInvalidInput)
	}
	to, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("%w: to must be an integer", domain.ErrInvalidInput)
	}

	doc, err := openDocument(args[0])
	if err != nil {
		return err
	}

	r := services.NewSentenceExpander().Expand(doc, domain.NewTextRange(from, to, doc.Version()))
	cmd.Println(r.String())
	cmd.Println(doc.TextBetween(r.From, r.To))
	return nil
}

func runSentences(cmd *cobra.Command, args []string) error {
	doc, err := openDocument(args[0])
	if err != nil {
		return err
	}

	sentences := services.NewSentenceExpander().Sentences(doc)
	if len(sentences) == 0 {
		cmd.Println("No sentences found.")
		return nil
	}
	for _, s := range sentences {
		cmd.Printf("  %d.%d %s %s\n", s.Paragraph, s.Index, s.Range, s.Text)
	}
	return nil
}

func runReanchor(cmd *cobra.Command, args []string) error {
	doc, err := openDocument(args[0])
	if err != nil {
		return err
	}

	t := reanchorThreshold()
	if cmd.Flags().Changed("threshold") {
		if err := domain.ValidateReanchorThreshold(threshold); err != nil {
			return err
		}
		t = threshold
	}

	// Version 0 never matches a loaded document, so only text and
	// keywords are used to re-find the sentence.
	tracked := domain.TrackedSelection{
		ID:               "cli",
		OriginalText:     args[1],
		SemanticKeywords: services.ExtractKeywords(args[1]),
	}
	reloc := services.NewFuzzyReanchorer(t).Relocate(doc, tracked)

	cmd.Printf("Strategy: %s\n", reloc.Strategy)
	cmd.Printf("Score:    %.2f\n", reloc.Score)
	if reloc.IsFallback() {
		cmd.Printf("No match above %.2f; keeping the original text.\n", t)
		return nil
	}
	cmd.Printf("Range:    %s\n", reloc.Range)
	cmd.Printf("Text:     %s\n", reloc.Text)
	return nil
}
