// Package services implements the driving port interfaces.
// Services contain the core anchoring and overlay logic and orchestrate
// calls to driven ports (adapters).
//
// The resolver, expander and reanchorer are pure functions of the
// document version. OverlayManager and HoverCache are safe for
// concurrent use and never hold a lock across an analysis call.
package services
