// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - Document: The editor document that annotations are anchored to
//   - EventPublisher: Receives mode, highlight, focus, and analysis events
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - AnalysisService: AI explanations and sentence-flow analysis. Without it,
//     hover explanations use strength heuristics and redo analysis is disabled.
//   - LLMService: Backs the default AnalysisService adapter.
//   - StateStore: Persists exported overlay snapshots.
//   - DocumentWatcher: Reloads a document when its file changes.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
