// Package catalog exposes the section type registry as a small net/http
// component: a JSON handler that lists canonical section definitions with
// their aliases and supports substring search, plus routing helpers for
// mounting it under an existing mux.
//
// The default handler responds to GET and HEAD requests. An empty query
// returns the full catalog in priority order; a non-empty query filters on
// type, alias, and description, ranking type-prefix matches first.
package catalog
