package mcp

import (
	"github.com/custodia-labs/draftline/internal/core/domain"
	"github.com/custodia-labs/draftline/internal/core/ports/driven"
)

// Ports aggregates the collaborators required by the MCP server.
type Ports struct {
	// States holds overlay snapshots keyed by absolute document path.
	States driven.StateStore

	// Analysis explains flow connections. Optional; explanations fall
	// back to heuristics without it.
	Analysis driven.AnalysisService

	// Events receives overlay events. Optional.
	Events driven.EventPublisher

	// Threshold is the keyword overlap a re-anchored sentence must exceed.
	// Nil or out of range means domain.DefaultReanchorThreshold.
	Threshold *float64
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.States == nil {
		return ErrMissingStateStore
	}
	return nil
}

func (p *Ports) threshold() float64 {
	if p.Threshold == nil || domain.ValidateReanchorThreshold(*p.Threshold) != nil {
		return domain.DefaultReanchorThreshold
	}
	return *p.Threshold
}
