package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no card is stored under the requested ID.
var ErrNotFound = errors.New("store: card not found")

// SchemaVersionError reports that a stored envelope was written under a
// different schema version than this build understands. Load returns the
// decoded card alongside it, so callers can migrate or render the stale
// document instead of losing it.
type SchemaVersionError struct {
	ID    string
	Found string
	Want  string
}

func (e *SchemaVersionError) Error() string {
	return fmt.Sprintf("store: card %q has schema version %q, want %q", e.ID, e.Found, e.Want)
}
