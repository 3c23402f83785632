// Package overlay loads and applies presentation overlays that adjust a built
// card model without touching the source document: hiding sections, retitling
// them, bumping their order, or overriding palettes and spans per card type or
// card ID. Overlays live in YAML/JSON documents so deployments can reskin
// cards without recompiling, and the orchestrator applies them through a
// decorator callers opt into.
package overlay
