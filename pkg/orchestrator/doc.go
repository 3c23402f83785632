// Package orchestrator wires the card pipeline end to end: document loading,
// schema validation, section normalization, model building, overlay and user
// decorators, theme resolution, and rendering.
package orchestrator
