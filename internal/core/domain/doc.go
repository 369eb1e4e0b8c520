// Package domain defines the core anchoring entities for draftline.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - TextRange: A version-stamped, half-open span of rune offsets
//   - Annotation: Comment, flow, connection, and reference highlights
//   - Mode: Which annotation collection is rendered
//   - TrackedSelection: A sentence that is re-found across edits
//   - OverlayState: A serialisable snapshot of every collection
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
