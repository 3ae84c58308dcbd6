package player

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// SnapshotVersion is the current snapshot layout version.
const SnapshotVersion = 1

// Snapshot is the serializable form of a State.
type Snapshot struct {
	Version       int                     `yaml:"version" json:"version"`
	ContentDigest string                  `yaml:"content_digest,omitempty" json:"content_digest,omitempty"`
	SavedAt       time.Time               `yaml:"saved_at" json:"saved_at"`
	Location      string                  `yaml:"location" json:"location"`
	Vitals        Vitals                  `yaml:"vitals" json:"vitals"`
	Progression   Progression             `yaml:"progression" json:"progression"`
	Attributes    map[string]int          `yaml:"attributes" json:"attributes"`
	Karma         int                     `yaml:"karma" json:"karma"`
	Flags         map[string]any          `yaml:"flags,omitempty" json:"flags,omitempty"`
	Inventory     []string                `yaml:"inventory,omitempty" json:"inventory,omitempty"`
	Relationships map[string]Relationship `yaml:"relationships,omitempty" json:"relationships,omitempty"`
	Skills        []string                `yaml:"skills,omitempty" json:"skills,omitempty"`
	Consumed      []string                `yaml:"consumed,omitempty" json:"consumed,omitempty"`
}

// Export captures s as a snapshot tagged with the content digest it was
// played against.
func Export(s *State, contentDigest string, now time.Time) Snapshot {
	consumed := make([]string, 0, len(s.Consumed))
	for key, ok := range s.Consumed {
		if ok {
			consumed = append(consumed, key)
		}
	}
	sort.Strings(consumed)

	return Snapshot{
		Version:       SnapshotVersion,
		ContentDigest: contentDigest,
		SavedAt:       now.UTC(),
		Location:      s.Location,
		Vitals:        s.Vitals,
		Progression:   s.Progression,
		Attributes:    maps.Clone(s.Attributes),
		Karma:         s.Karma,
		Flags:         maps.Clone(s.Flags),
		Inventory:     slices.Clone(s.Inventory),
		Relationships: maps.Clone(s.Relationships),
		Skills:        slices.Clone(s.Skills),
		Consumed:      consumed,
	}
}

// Import rebuilds a State from a snapshot, rejecting snapshots that break
// the state invariants.
func Import(snap Snapshot) (*State, error) {
	if snap.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version: %d", snap.Version)
	}
	if snap.Location == "" {
		return nil, fmt.Errorf("snapshot has no location")
	}

	s := &State{
		Vitals:        snap.Vitals,
		Progression:   snap.Progression,
		Attributes:    maps.Clone(snap.Attributes),
		Karma:         snap.Karma,
		Flags:         maps.Clone(snap.Flags),
		Inventory:     slices.Clone(snap.Inventory),
		Relationships: maps.Clone(snap.Relationships),
		Skills:        slices.Clone(snap.Skills),
		Location:      snap.Location,
		Consumed:      make(map[string]bool, len(snap.Consumed)),
	}
	if s.Flags == nil {
		s.Flags = make(map[string]any)
	}
	if s.Inventory == nil {
		s.Inventory = []string{}
	}
	if s.Relationships == nil {
		s.Relationships = make(map[string]Relationship)
	}
	for _, key := range snap.Consumed {
		s.Consumed[key] = true
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("importing snapshot: %w", err)
	}
	return s, nil
}

// Encode serializes a snapshot as YAML.
func Encode(snap Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(snap); err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses a YAML snapshot. Unknown keys are rejected.
func Decode(data []byte) (Snapshot, error) {
	var snap Snapshot
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&snap); err != nil {
		return Snapshot{}, fmt.Errorf("decoding snapshot: %w", err)
	}
	return snap, nil
}
