package domain

import "errors"

// Domain errors represent anchoring and overlay failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Anchoring Errors.

	// ErrAnchorNotFound indicates the anchored text is absent from the document.
	// Callers recover locally by skipping the single annotation.
	ErrAnchorNotFound = errors.New("anchor not found")

	// ErrStaleRange indicates a range produced against an older document version.
	ErrStaleRange = errors.New("stale range")

	// ErrNoTrackedSelection indicates an operation needs a tracked sentence but none is active.
	ErrNoTrackedSelection = errors.New("no tracked selection")

	// Analysis Errors.

	// ErrServiceFailure indicates the external analysis or explanation call failed.
	ErrServiceFailure = errors.New("analysis service failure")

	// ErrStaleResult indicates an analysis response arrived after the state it
	// was requested for had changed. The response is discarded.
	ErrStaleResult = errors.New("stale analysis result")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Hover explanations fall back to heuristics and redo analysis is disabled.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrRateLimited indicates the analysis rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)
