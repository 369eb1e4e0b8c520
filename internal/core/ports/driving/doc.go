// Package driving defines interfaces that external actors (UI, CLI) use
// to interact with core services. These are the "driving" ports in hexagonal
// architecture terminology - they drive the application.
//
//   - OverlayService: mode switching, highlight batches, hover, redo analysis
//   - SettingsService: LLM provider and anchoring settings
//
// Implementations of these interfaces live in internal/core/services.
package driving
