// Package template defines the engine-agnostic contract card renderers use to
// execute templates. Concrete engines live in subpackages; renderers depend on
// the TemplateRenderer interface so the engine can be swapped without touching
// renderer code.
package template
