// Package logger provides verbose logging for the draftline CLI and core.
// When verbose mode is enabled via the --verbose flag, debug messages
// are printed to stderr to help users follow anchoring and analysis.
//
// Output is written through zerolog. Component returns a structured
// logger for adapters that want fields instead of format strings.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// base is built once. Verbosity is checked when a line is written, so
// component loggers created before flags are parsed still follow SetVerbose.
var base = zerolog.New(zerolog.ConsoleWriter{
	Out:          gate{},
	NoColor:      true,
	PartsExclude: []string{zerolog.TimestampFieldName},
}).Level(zerolog.DebugLevel)

// gate forwards to the current output only in verbose mode.
type gate struct{}

func (gate) Write(p []byte) (int, error) {
	mu.RLock()
	defer mu.RUnlock()
	if !verbose {
		return len(p), nil
	}
	return output.Write(p)
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for verbose logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Component creates a logger tagged with a component identifier.
// Uses the "cmp" key for consistency with zerolog conventions.
func Component(name string) zerolog.Logger {
	return base.With().Str("cmp", name).Logger()
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	base.Debug().Msgf(format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	base.Info().Msg(fmt.Sprintf("=== %s ===", name))
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	base.Info().Msgf(format, args...)
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	base.Warn().Msgf(format, args...)
}
