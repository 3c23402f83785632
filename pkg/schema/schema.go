// Package schema validates raw card documents against the canonical card
// schema before they are parsed into the typed model. Structural failures are
// errors; designations the section registry would resolve through its
// fallback are surfaced as warnings so authors can see them without the
// pipeline refusing the document.
package schema

import (
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

var (
	schemaOnce sync.Once
	cardSchema *openapi3.Schema
)

// MustSchema returns the compiled card document schema. The schema is built
// in code once; a construction failure is a programmer error and panics.
func MustSchema() *openapi3.Schema {
	schemaOnce.Do(func() {
		cardSchema = buildCardSchema()
	})
	return cardSchema
}

func buildCardSchema() *openapi3.Schema {
	field := openapi3.NewObjectSchema().
		WithProperty("label", openapi3.NewStringSchema().WithMinLength(1)).
		WithProperty("value", openapi3.NewStringSchema()).
		WithProperty("icon", openapi3.NewStringSchema()).
		WithProperty("color", openapi3.NewStringSchema()).
		WithProperty("trend", openapi3.NewStringSchema().WithEnum("up", "down", "flat")).
		WithProperty("emphasis", openapi3.NewBoolSchema())
	field.Required = []string{"label"}

	item := openapi3.NewObjectSchema().
		WithProperty("title", openapi3.NewStringSchema().WithMinLength(1)).
		WithProperty("description", openapi3.NewStringSchema()).
		WithProperty("value", openapi3.NewStringSchema()).
		WithProperty("icon", openapi3.NewStringSchema()).
		WithProperty("link", openapi3.NewStringSchema()).
		WithProperty("done", openapi3.NewBoolSchema())
	item.Required = []string{"title"}

	series := openapi3.NewObjectSchema().
		WithProperty("name", openapi3.NewStringSchema()).
		WithProperty("values", openapi3.NewArraySchema().WithItems(openapi3.NewFloat64Schema())).
		WithProperty("color", openapi3.NewStringSchema())
	series.Required = []string{"values"}

	chart := openapi3.NewObjectSchema().
		WithProperty("kind", openapi3.NewStringSchema().WithEnum("bar", "line", "pie", "donut", "area")).
		WithProperty("labels", openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema())).
		WithProperty("series", openapi3.NewArraySchema().WithItems(series).WithMinItems(1)).
		WithProperty("unit", openapi3.NewStringSchema())
	chart.Required = []string{"series"}

	table := openapi3.NewObjectSchema().
		WithProperty("columns", openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema())).
		WithProperty("rows", openapi3.NewArraySchema().WithItems(
			openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema()))).
		WithProperty("footer", openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema()))

	geoPoint := openapi3.NewObjectSchema().
		WithProperty("lat", openapi3.NewFloat64Schema().WithMin(-90).WithMax(90)).
		WithProperty("lng", openapi3.NewFloat64Schema().WithMin(-180).WithMax(180))
	geoPoint.Required = []string{"lat", "lng"}

	marker := openapi3.NewObjectSchema().
		WithProperty("label", openapi3.NewStringSchema()).
		WithProperty("lat", openapi3.NewFloat64Schema().WithMin(-90).WithMax(90)).
		WithProperty("lng", openapi3.NewFloat64Schema().WithMin(-180).WithMax(180)).
		WithProperty("color", openapi3.NewStringSchema())
	marker.Required = []string{"lat", "lng"}

	mapData := openapi3.NewObjectSchema().
		WithProperty("zoom", openapi3.NewIntegerSchema().WithMin(0).WithMax(22)).
		WithProperty("center", geoPoint).
		WithProperty("markers", openapi3.NewArraySchema().WithItems(marker))

	media := openapi3.NewObjectSchema().
		WithProperty("url", openapi3.NewStringSchema().WithMinLength(1)).
		WithProperty("caption", openapi3.NewStringSchema()).
		WithProperty("alt", openapi3.NewStringSchema())
	media.Required = []string{"url"}

	layout := openapi3.NewObjectSchema().
		WithProperty("span", openapi3.NewIntegerSchema().WithMin(0).WithMax(3)).
		WithProperty("priority", openapi3.NewIntegerSchema()).
		WithProperty("collapsed", openapi3.NewBoolSchema())

	stringMap := openapi3.NewObjectSchema().WithAdditionalProperties(openapi3.NewStringSchema())

	section := openapi3.NewObjectSchema().
		WithProperty("id", openapi3.NewStringSchema()).
		WithProperty("type", openapi3.NewStringSchema().WithMinLength(1)).
		WithProperty("title", openapi3.NewStringSchema()).
		WithProperty("fields", openapi3.NewArraySchema().WithItems(field)).
		WithProperty("items", openapi3.NewArraySchema().WithItems(item)).
		WithProperty("chart", chart).
		WithProperty("table", table).
		WithProperty("map", mapData).
		WithProperty("media", openapi3.NewArraySchema().WithItems(media)).
		WithProperty("text", openapi3.NewStringSchema()).
		WithProperty("layout", layout).
		WithProperty("metadata", stringMap)
	section.Required = []string{"type"}

	action := openapi3.NewObjectSchema().
		WithProperty("id", openapi3.NewStringSchema()).
		WithProperty("label", openapi3.NewStringSchema().WithMinLength(1)).
		WithProperty("href", openapi3.NewStringSchema()).
		WithProperty("icon", openapi3.NewStringSchema()).
		WithProperty("style", openapi3.NewStringSchema().WithEnum("primary", "secondary", "danger", "link")).
		WithProperty("confirm", openapi3.NewStringSchema())
	action.Required = []string{"label"}

	root := openapi3.NewObjectSchema().
		WithProperty("id", openapi3.NewStringSchema()).
		WithProperty("title", openapi3.NewStringSchema().WithMinLength(1)).
		WithProperty("subtitle", openapi3.NewStringSchema()).
		WithProperty("type", openapi3.NewStringSchema().WithEnum("standard", "dashboard", "report", "compact")).
		WithProperty("sections", openapi3.NewArraySchema().WithItems(section)).
		WithProperty("actions", openapi3.NewArraySchema().WithItems(action)).
		WithProperty("metadata", stringMap).
		WithProperty("schemaVersion", openapi3.NewStringSchema()).
		WithProperty("updatedAt", openapi3.NewStringSchema())
	root.Required = []string{"title", "sections"}
	return root
}
