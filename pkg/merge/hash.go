// Package merge folds streamed partial card updates into existing state.
// Equality is decided by content hashes so unchanged sections keep their
// identity: the merged card shares their backing data with the previous
// state, and a merge that changes nothing returns the previous state
// pointer untouched. Callers are expected to treat cards as immutable once
// they have been through Merge.
package merge

import (
	"encoding/binary"
	"encoding/json"
	"hash/fnv"

	"github.com/goliatone/go-cardgen/pkg/card"
)

// SectionHash returns a 64-bit content hash of the section. The JSON
// encoding is the canonical byte form: struct field order is fixed and
// encoding/json sorts map keys.
func SectionHash(s card.Section) uint64 {
	h := fnv.New64a()
	if err := json.NewEncoder(h).Encode(s); err != nil {
		// Sections are plain data, encoding cannot fail.
		panic("merge: encode section: " + err.Error())
	}
	return h.Sum64()
}

// CardHash hashes the card header and every section. Bookkeeping fields
// (SchemaVersion, UpdatedAt) are excluded so a re-stamped timestamp does not
// read as a content change.
func CardHash(c *card.Card) uint64 {
	if c == nil {
		return 0
	}

	header := struct {
		ID       string            `json:"id"`
		Title    string            `json:"title"`
		Subtitle string            `json:"subtitle"`
		Type     card.CardType     `json:"type"`
		Actions  []card.Action     `json:"actions"`
		Metadata map[string]string `json:"metadata"`
	}{
		ID:       c.ID,
		Title:    c.Title,
		Subtitle: c.Subtitle,
		Type:     c.Type,
		Actions:  c.Actions,
		Metadata: c.Metadata,
	}

	h := fnv.New64a()
	if err := json.NewEncoder(h).Encode(header); err != nil {
		panic("merge: encode header: " + err.Error())
	}

	var buf [8]byte
	for i := range c.Sections {
		binary.LittleEndian.PutUint64(buf[:], SectionHash(c.Sections[i]))
		h.Write(buf[:])
	}
	return h.Sum64()
}

// Changed reports whether the two cards differ in content.
func Changed(a, b *card.Card) bool {
	return CardHash(a) != CardHash(b)
}
