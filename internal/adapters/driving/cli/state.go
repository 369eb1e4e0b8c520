package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/draftline/internal/core/domain"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

var stateFormat string

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Manage stored highlight state",
	Long: `Highlights are stored per document, keyed by the document's absolute path.

Use 'state save' to anchor a set of annotations to a document and store
them, and 'state load' to print what is stored.`,
}

var stateSaveCmd = &cobra.Command{
	Use:   "save [file] [annotations]",
	Short: "Anchor annotations to a document and store them",
	Long: `Reads annotations from a JSON or YAML file, anchors them to the
document and stores the result. Annotations whose text is not found are
kept unmarked and reported.`,
	Args: cobra.ExactArgs(2),
	RunE: runStateSave,
}

var stateLoadCmd = &cobra.Command{
	Use:   "load [file]",
	Short: "Print the stored state of a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runStateLoad,
}

var stateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents with stored state",
	Args:  cobra.NoArgs,
	RunE:  runStateList,
}

var stateDeleteCmd = &cobra.Command{
	Use:   "delete [file]",
	Short: "Delete the stored state of a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runStateDelete,
}

func init() {
	stateLoadCmd.Flags().StringVarP(&stateFormat, "format", "f", formatJSON, "output format (json, yaml)")

	stateCmd.AddCommand(stateSaveCmd)
	stateCmd.AddCommand(stateLoadCmd)
	stateCmd.AddCommand(stateListCmd)
	stateCmd.AddCommand(stateDeleteCmd)
	rootCmd.AddCommand(stateCmd)
}

func runStateSave(cmd *cobra.Command, args []string) error {
	if stateStore == nil {
		return errors.New("state store not configured")
	}

	input, err := readState(args[1])
	if err != nil {
		return err
	}

	doc, err := openDocument(args[0])
	if err != nil {
		return err
	}

	overlay := newOverlay(doc)
	res, err := overlay.ImportState(input)
	if err != nil {
		return fmt.Errorf("failed to anchor annotations: %w", err)
	}

	key := stateKey(args[0])
	if err := stateStore.Save(cmd.Context(), key, overlay.ExportState()); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}

	cmd.Printf("Anchored %d of %d annotations\n", res.Applied, res.Applied+len(res.Skipped))
	printSkipped(cmd, res)
	cmd.Printf("Saved state for %s\n", key)
	return nil
}

func runStateLoad(cmd *cobra.Command, args []string) error {
	if stateStore == nil {
		return errors.New("state store not configured")
	}

	state, err := stateStore.Load(cmd.Context(), stateKey(args[0]))
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("no state stored for %s", args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}

	out, err := encodeState(state, stateFormat)
	if err != nil {
		return err
	}
	cmd.Print(out)
	return nil
}

func runStateList(cmd *cobra.Command, _ []string) error {
	if stateStore == nil {
		return errors.New("state store not configured")
	}

	keys, err := stateStore.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list states: %w", err)
	}
	if len(keys) == 0 {
		cmd.Println("No stored state.")
		return nil
	}

	for _, key := range keys {
		state, err := stateStore.Load(cmd.Context(), key)
		if err != nil {
			cmd.Printf("  %s (unreadable: %v)\n", key, err)
			continue
		}
		cmd.Printf("  %s  %s  %d annotations\n", key, state.Mode, state.Count())
	}
	return nil
}

func runStateDelete(cmd *cobra.Command, args []string) error {
	if stateStore == nil {
		return errors.New("state store not configured")
	}

	key := stateKey(args[0])
	if err := stateStore.Delete(cmd.Context(), key); err != nil {
		return fmt.Errorf("failed to delete state: %w", err)
	}
	cmd.Printf("Deleted state for %s\n", key)
	return nil
}

// readState decodes an OverlayState from a JSON or YAML file, chosen by extension.
func readState(path string) (domain.OverlayState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.OverlayState{}, fmt.Errorf("failed to read annotations: %w", err)
	}

	var state domain.OverlayState
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &state)
	default:
		err = json.Unmarshal(data, &state)
	}
	if err != nil {
		return domain.OverlayState{}, fmt.Errorf("%w: parsing %s: %v", domain.ErrInvalidInput, filepath.Base(path), err)
	}
	return state, nil
}

// encodeState renders state in the given format.
func encodeState(state domain.OverlayState, format string) (string, error) {
	switch format {
	case formatJSON:
		data, err := json.MarshalIndent(state, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal state: %w", err)
		}
		return string(data) + "\n", nil
	case formatYAML:
		data, err := yaml.Marshal(state)
		if err != nil {
			return "", fmt.Errorf("failed to marshal state: %w", err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", domain.ErrInvalidInput, format)
	}
}
