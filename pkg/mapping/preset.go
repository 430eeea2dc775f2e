package mapping

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"avlmap/pkg/schema"
)

// Preset is a saved set of entries that can be replayed onto a later upload
// with the same export layout.
type Preset struct {
	Name    string  `yaml:"name"`
	Entries []Entry `yaml:"entries"`
}

// Preset captures the session's current entries.
func (s *Session) Preset(name string) Preset {
	return Preset{Name: name, Entries: s.Entries()}
}

// ApplyPreset replays p through Set, so the session invariants still hold.
// Entries whose source column is missing from the table, or whose field is
// already claimed by another column, are skipped and returned. A preset
// naming a non-canonical field is rejected before anything changes.
func (s *Session) ApplyPreset(p Preset) (skipped []string, err error) {
	for _, e := range p.Entries {
		if !schema.IsCanonical(e.Field) {
			return nil, fmt.Errorf("preset %q: %q: %w", p.Name, e.Field, ErrUnknownField)
		}
	}

	for _, e := range p.Entries {
		err := s.Set(e.Source, e.Field)
		switch {
		case err == nil:
		case errors.Is(err, ErrUnknownSourceColumn), errors.Is(err, ErrDuplicateClaim):
			skipped = append(skipped, e.Source)
		default:
			return skipped, err
		}
	}
	return skipped, nil
}

// ReadPreset decodes a YAML preset.
func ReadPreset(r io.Reader) (Preset, error) {
	var p Preset
	if err := yaml.NewDecoder(r).Decode(&p); err != nil {
		return Preset{}, fmt.Errorf("failed to decode preset: %w", err)
	}
	return p, nil
}

// WritePreset encodes p as YAML.
func WritePreset(w io.Writer, p Preset) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("failed to encode preset: %w", err)
	}
	return enc.Close()
}
