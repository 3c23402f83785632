package render

import (
	"fmt"
	"sort"
	"strings"
)

// MetaTag represents a <meta> entry emitted into the head of a rendered
// document. Use the helpers (GeneratorTag, CardTag, VariantTag) to add
// common tags without repeating boilerplate.
type MetaTag struct {
	Name    string
	Content string
}

// Meta returns a MetaTag for an arbitrary name/content pair.
func Meta(name string, content any) MetaTag {
	return MetaTag{
		Name:    strings.TrimSpace(name),
		Content: fmt.Sprint(content),
	}
}

// GeneratorTag identifies the producing toolchain.
func GeneratorTag() MetaTag {
	return Meta("generator", "cardgen")
}

// CardTag carries the source card's identifier so rendered documents can be
// traced back.
func CardTag(id string) MetaTag {
	return Meta("cardgen:card", id)
}

// VariantTag records which theme variant produced the document.
func VariantTag(variant string) MetaTag {
	return Meta("cardgen:variant", variant)
}

// MergeMetaTags returns a copy of base with the provided tags applied.
// Empty names are ignored; later tags win on name collisions while the
// first occurrence keeps its position.
func MergeMetaTags(base []MetaTag, tags ...MetaTag) []MetaTag {
	if len(base) == 0 && len(tags) == 0 {
		return nil
	}

	out := make([]MetaTag, 0, len(base)+len(tags))
	index := make(map[string]int, len(base)+len(tags))
	for _, tag := range append(append([]MetaTag(nil), base...), tags...) {
		name := strings.TrimSpace(tag.Name)
		if name == "" {
			continue
		}
		if at, exists := index[name]; exists {
			out[at].Content = tag.Content
			continue
		}
		index[name] = len(out)
		out = append(out, MetaTag{Name: name, Content: tag.Content})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// SortedMetaTags normalises and sorts tags by name for deterministic
// rendering. Empty names are dropped; later duplicates win.
func SortedMetaTags(tags []MetaTag) []MetaTag {
	if len(tags) == 0 {
		return nil
	}

	clean := make(map[string]string, len(tags))
	for _, tag := range tags {
		name := strings.TrimSpace(tag.Name)
		if name == "" {
			continue
		}
		clean[name] = tag.Content
	}
	if len(clean) == 0 {
		return nil
	}

	names := make([]string, 0, len(clean))
	for name := range clean {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make([]MetaTag, 0, len(names))
	for _, name := range names {
		result = append(result, MetaTag{Name: name, Content: clean[name]})
	}
	return result
}
