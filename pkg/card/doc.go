// Package card defines the card document model: a titled card composed of
// typed sections carrying key-value fields, item lists, chart data, table
// rows, map markers, media, or prose. It also provides the Source/Document
// abstraction used by loaders and the client-side ID helper.
package card
