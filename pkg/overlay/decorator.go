package overlay

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-cardgen/pkg/model"
)

// Decorator applies a matching overlay to a built card model.
type Decorator struct {
	store *Store
}

// NewDecorator builds a Decorator backed by the provided store. When the
// store is nil or empty, the decorator becomes a no-op.
func NewDecorator(store *Store) *Decorator {
	return &Decorator{store: store}
}

// Decorate looks up the overlay for the model's card and applies it: hidden
// sections drop first, then retitles, ordering, per-section overrides, and
// finally card-level fields. Section references that match nothing are
// ignored.
func (d *Decorator) Decorate(m *model.CardModel) error {
	if d == nil || d.store == nil || d.store.Empty() || m == nil {
		return nil
	}

	o, ok := d.store.Lookup(m.Type, m.ID)
	if !ok {
		return nil
	}
	return Apply(o, m)
}

// Apply applies a single overlay to the model without consulting a store.
func Apply(o Overlay, m *model.CardModel) error {
	if m == nil {
		return nil
	}

	values := conditionValues(m)

	guard, err := CompileCondition(o.When)
	if err != nil {
		return fmt.Errorf("overlay: %s when: %w", o.Name, err)
	}
	if !guard.Eval(values) {
		return nil
	}

	if err := applyHidden(o, m, values); err != nil {
		return err
	}
	applyRetitle(o, m)
	applyOrder(o, m)
	if err := applySectionOverrides(o, m); err != nil {
		return err
	}
	applyCardFields(o, m)
	return nil
}

func applyHidden(o Overlay, m *model.CardModel, values map[string]string) error {
	hidden := make(map[string]struct{}, len(o.HideSections))
	for _, ref := range o.HideSections {
		if normalized := normalizeRef(ref); normalized != "" {
			hidden[normalized] = struct{}{}
		}
	}

	conditions := make(map[string]*Condition)
	for ref, section := range o.Sections {
		if strings.TrimSpace(section.HideWhen) == "" {
			continue
		}
		compiled, err := CompileCondition(section.HideWhen)
		if err != nil {
			return fmt.Errorf("overlay: %s section %q hideWhen: %w", o.Name, ref, err)
		}
		conditions[normalizeRef(ref)] = compiled
	}

	if len(hidden) == 0 && len(conditions) == 0 {
		return nil
	}

	kept := m.Sections[:0]
	for _, sec := range m.Sections {
		if matchesAny(sec, hidden) {
			continue
		}
		if cond := conditionFor(sec, conditions); cond != nil && cond.Eval(sectionValues(values, sec)) {
			continue
		}
		kept = append(kept, sec)
	}
	m.Sections = kept
	return nil
}

func applyRetitle(o Overlay, m *model.CardModel) {
	if len(o.Retitle) == 0 {
		return
	}
	titles := make(map[string]string, len(o.Retitle))
	for ref, title := range o.Retitle {
		if normalized := normalizeRef(ref); normalized != "" {
			titles[normalized] = title
		}
	}
	for i := range m.Sections {
		if title, ok := lookupRef(m.Sections[i], titles); ok && strings.TrimSpace(title) != "" {
			m.Sections[i].Title = title
		}
	}
}

func applyOrder(o Overlay, m *model.CardModel) {
	if len(o.Order) == 0 {
		return
	}
	ranks := make(map[string]int, len(o.Order))
	for idx, ref := range o.Order {
		normalized := normalizeRef(ref)
		if normalized == "" {
			continue
		}
		if _, exists := ranks[normalized]; !exists {
			ranks[normalized] = idx
		}
	}

	rankOf := func(sec model.SectionModel) (int, bool) {
		for _, key := range refKeys(sec) {
			if rank, ok := ranks[key]; ok {
				return rank, true
			}
		}
		return 0, false
	}

	sort.SliceStable(m.Sections, func(i, j int) bool {
		rankI, okI := rankOf(m.Sections[i])
		rankJ, okJ := rankOf(m.Sections[j])
		switch {
		case okI && okJ:
			return rankI < rankJ
		case okI:
			return true
		case okJ:
			return false
		default:
			return false
		}
	})
}

func applySectionOverrides(o Overlay, m *model.CardModel) error {
	if len(o.Sections) == 0 {
		return nil
	}
	overrides := make(map[string]SectionOverlay, len(o.Sections))
	for ref, section := range o.Sections {
		if normalized := normalizeRef(ref); normalized != "" {
			overrides[normalized] = section
		}
	}

	for i := range m.Sections {
		override, ok := lookupSectionOverride(m.Sections[i], overrides)
		if !ok {
			continue
		}
		if override.Palette != "" {
			m.Sections[i].Palette = override.Palette
		}
		if override.Span > 0 {
			span := override.Span
			if m.Columns > 0 && span > m.Columns {
				span = m.Columns
			}
			m.Sections[i].Span = span
		}
		if override.Collapsed != nil {
			m.Sections[i].Collapsed = *override.Collapsed
		}
	}
	return nil
}

func applyCardFields(o Overlay, m *model.CardModel) {
	if o.Palette != "" {
		m.Palette = o.Palette
	}
	if o.Columns > 0 {
		m.Columns = o.Columns
		for i := range m.Sections {
			if m.Sections[i].Span > m.Columns {
				m.Sections[i].Span = m.Columns
			}
		}
	}
	if len(o.Actions) > 0 {
		existing := make(map[string]struct{}, len(m.Actions))
		for _, action := range m.Actions {
			existing[action.ID] = struct{}{}
		}
		for _, action := range o.Actions {
			if action.ID != "" {
				if _, dup := existing[action.ID]; dup {
					continue
				}
				existing[action.ID] = struct{}{}
			}
			m.Actions = append(m.Actions, action)
		}
	}
}

// conditionValues exposes the model to overlay guards: card identity plus
// metadata entries under the "meta." prefix.
func conditionValues(m *model.CardModel) map[string]string {
	values := map[string]string{
		"id":       m.ID,
		"type":     m.Type,
		"palette":  m.Palette,
		"columns":  strconv.Itoa(m.Columns),
		"sections": strconv.Itoa(len(m.Sections)),
	}
	for key, value := range m.Meta {
		values["meta."+key] = value
	}
	return values
}

func sectionValues(base map[string]string, sec model.SectionModel) map[string]string {
	values := make(map[string]string, len(base)+4)
	for key, value := range base {
		values[key] = value
	}
	values["section.id"] = sec.ID
	values["section.component"] = sec.Component
	values["section.palette"] = sec.Palette
	values["section.span"] = strconv.Itoa(sec.Span)
	return values
}

func refKeys(sec model.SectionModel) []string {
	keys := make([]string, 0, 3)
	if key := normalizeRef(sec.Component); key != "" {
		keys = append(keys, key)
	}
	if key := normalizeRef(sec.Raw); key != "" {
		keys = append(keys, key)
	}
	if key := normalizeRef(sec.ID); key != "" {
		keys = append(keys, key)
	}
	return keys
}

func matchesAny(sec model.SectionModel, refs map[string]struct{}) bool {
	for _, key := range refKeys(sec) {
		if _, ok := refs[key]; ok {
			return true
		}
	}
	return false
}

func lookupRef(sec model.SectionModel, refs map[string]string) (string, bool) {
	for _, key := range refKeys(sec) {
		if value, ok := refs[key]; ok {
			return value, true
		}
	}
	return "", false
}

func lookupSectionOverride(sec model.SectionModel, refs map[string]SectionOverlay) (SectionOverlay, bool) {
	for _, key := range refKeys(sec) {
		if value, ok := refs[key]; ok {
			return value, true
		}
	}
	return SectionOverlay{}, false
}

func conditionFor(sec model.SectionModel, conditions map[string]*Condition) *Condition {
	for _, key := range refKeys(sec) {
		if cond, ok := conditions[key]; ok {
			return cond
		}
	}
	return nil
}
