package overlay

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Store keeps loaded overlays in document order. It is safe for concurrent
// readers when treated as immutable after construction.
type Store struct {
	overlays []Overlay
	names    map[string]string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{names: make(map[string]string)}
}

// Add validates the overlay and appends it. Conditions are compiled here so
// malformed expressions surface at load time rather than per render.
func (s *Store) Add(o Overlay) error {
	if s.names == nil {
		s.names = make(map[string]string)
	}

	name := strings.TrimSpace(o.Name)
	if name == "" {
		return fmt.Errorf("overlay: overlay from %s has no name", sourceLabel(o.Source))
	}
	if previous, exists := s.names[name]; exists {
		return fmt.Errorf("overlay: duplicate overlay %q (%s and %s)", name, previous, sourceLabel(o.Source))
	}
	if o.Match.Empty() {
		return fmt.Errorf("overlay: overlay %q matches nothing; set match.cardType or match.cardId", name)
	}
	if o.Columns < 0 {
		return fmt.Errorf("overlay: overlay %q has negative columns %d", name, o.Columns)
	}
	if _, err := CompileCondition(o.When); err != nil {
		return fmt.Errorf("overlay: overlay %q when: %w", name, err)
	}
	for ref, section := range o.Sections {
		if strings.TrimSpace(ref) == "" {
			return fmt.Errorf("overlay: overlay %q has a section override with an empty key", name)
		}
		if section.Span < 0 || section.Span > 3 {
			return fmt.Errorf("overlay: overlay %q section %q span %d outside 0..3", name, ref, section.Span)
		}
		if _, err := CompileCondition(section.HideWhen); err != nil {
			return fmt.Errorf("overlay: overlay %q section %q hideWhen: %w", name, ref, err)
		}
	}

	o.Name = name
	s.names[name] = sourceLabel(o.Source)
	s.overlays = append(s.overlays, o)
	return nil
}

// Lookup returns the overlay for a card. An overlay matching the card's ID
// wins over one matching its type; within each tier the first loaded overlay
// wins.
func (s *Store) Lookup(cardType, cardID string) (Overlay, bool) {
	if s == nil {
		return Overlay{}, false
	}

	cardID = strings.TrimSpace(cardID)
	if cardID != "" {
		for _, o := range s.overlays {
			if strings.TrimSpace(o.Match.CardID) == cardID {
				return o, true
			}
		}
	}

	cardType = strings.TrimSpace(cardType)
	if cardType != "" {
		for _, o := range s.overlays {
			if o.Match.CardID != "" {
				continue
			}
			if strings.EqualFold(strings.TrimSpace(o.Match.CardType), cardType) {
				return o, true
			}
		}
	}

	return Overlay{}, false
}

// Empty reports whether the store holds any overlays.
func (s *Store) Empty() bool {
	return s == nil || len(s.overlays) == 0
}

// Overlays returns the loaded overlays in document order.
func (s *Store) Overlays() []Overlay {
	if s == nil || len(s.overlays) == 0 {
		return nil
	}
	out := make([]Overlay, len(s.overlays))
	copy(out, s.overlays)
	return out
}

// LoadFS walks dir inside the provided filesystem and parses every JSON/YAML
// overlay document it finds. An empty dir walks the whole filesystem; a nil
// filesystem yields an empty store.
func LoadFS(fsys fs.FS, dir string) (*Store, error) {
	store := NewStore()
	if fsys == nil {
		return store, nil
	}

	root := strings.TrimSpace(dir)
	if root == "" {
		root = "."
	} else {
		root = path.Clean(root)
	}

	err := fs.WalkDir(fsys, root, func(filePath string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			return nil
		}
		if !isOverlayFile(filePath) {
			return nil
		}

		data, err := fs.ReadFile(fsys, filePath)
		if err != nil {
			return fmt.Errorf("overlay: read %s: %w", filePath, err)
		}

		doc, err := parseDocument(data, filePath)
		if err != nil {
			return err
		}

		for idx, o := range doc.Overlays {
			o.Source = filePath
			if strings.TrimSpace(o.Name) == "" {
				o.Name = defaultName(filePath, idx, len(doc.Overlays))
			}
			if err := store.Add(o); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return store, nil
}

type documentFile struct {
	Overlays []Overlay `json:"overlays" yaml:"overlays"`
}

func parseDocument(data []byte, source string) (documentFile, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return documentFile{}, fmt.Errorf("overlay: file %s is empty", source)
	}

	var doc documentFile
	if err := json.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}
	if err := yaml.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}
	return documentFile{}, fmt.Errorf("overlay: parse %s: invalid JSON or YAML", source)
}

func isOverlayFile(filePath string) bool {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

func defaultName(filePath string, idx, total int) string {
	base := strings.TrimSuffix(path.Base(filePath), path.Ext(filePath))
	if total <= 1 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, idx+1)
}

func sourceLabel(source string) string {
	if strings.TrimSpace(source) == "" {
		return "runtime"
	}
	return source
}
