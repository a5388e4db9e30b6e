// Package catalog holds the immutable room template catalog and the
// floor-tier selection logic that picks a template for each newly
// discovered room.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/jwebster45206/crawl-engine/pkg/effects"
	"github.com/jwebster45206/crawl-engine/pkg/rng"
)

// Tier is the catalog difficulty bucket driving room selection per floor.
type Tier string

const (
	TierEasy   Tier = "Easy"
	TierMedium Tier = "Medium"
	TierHard   Tier = "Hard"
	TierElite  Tier = "Elite"
	TierBoss   Tier = "Boss"
)

// Valid reports whether t is one of the five known tiers.
func (t Tier) Valid() bool {
	switch t {
	case TierEasy, TierMedium, TierHard, TierElite, TierBoss:
		return true
	}
	return false
}

// Mechanics is a room template's optional effect bundles, keyed by the
// transition that fires them.
type Mechanics struct {
	OnEnter *effects.Bundle `json:"on_enter,omitempty"`
	OnClear *effects.Bundle `json:"on_clear,omitempty"`
	OnFail  *effects.Bundle `json:"on_fail,omitempty"`
}

// RoomTemplate is one immutable catalog record.
type RoomTemplate struct {
	ID            int        `json:"id"`
	Name          string     `json:"name"`
	Difficulty    Tier       `json:"difficulty"`
	Threats       []string   `json:"threats"`
	History       string     `json:"history"`
	Flavor        string     `json:"flavor"`
	Discoverables []string   `json:"discoverables"`
	Tags          []string   `json:"tags,omitempty"`
	Mechanics     *Mechanics `json:"mechanics,omitempty"`
}

// HasTag reports whether the template carries the given tag.
func (rt *RoomTemplate) HasTag(tag string) bool {
	return slices.Contains(rt.Tags, tag)
}

// Catalog is the full set of loaded room templates.
type Catalog []RoomTemplate

// ErrEmptyCatalog indicates a pick was requested from an empty catalog.
var ErrEmptyCatalog = errors.New("catalog is empty")

// LoadError is the fatal, atomic load failure: the source was not
// list-shaped or a record lacked a required field. No partial catalog is
// ever exposed to callers.
type LoadError struct {
	Record int // index of the offending record, -1 for shape errors
	Reason string
}

func (e *LoadError) Error() string {
	if e.Record < 0 {
		return fmt.Sprintf("catalog load failed: %s", e.Reason)
	}
	return fmt.Sprintf("catalog load failed at record %d: %s", e.Record, e.Reason)
}

// requiredFields must be present on every record, even when their value is
// an empty list or string.
var requiredFields = []string{"id", "name", "difficulty", "threats", "history", "flavor", "discoverables"}

// Load parses a flat JSON list of room records. Any shape or field problem
// fails the whole load.
func Load(r io.Reader) (Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var raw []map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &LoadError{Record: -1, Reason: "source is not a list of records"}
	}

	out := make(Catalog, 0, len(raw))
	seen := make(map[int]bool, len(raw))
	for i, rec := range raw {
		for _, field := range requiredFields {
			if _, ok := rec[field]; !ok {
				return nil, &LoadError{Record: i, Reason: fmt.Sprintf("missing required field %q", field)}
			}
		}

		buf, err := json.Marshal(rec)
		if err != nil {
			return nil, &LoadError{Record: i, Reason: err.Error()}
		}
		var rt RoomTemplate
		if err := json.Unmarshal(buf, &rt); err != nil {
			return nil, &LoadError{Record: i, Reason: err.Error()}
		}

		if !rt.Difficulty.Valid() {
			return nil, &LoadError{Record: i, Reason: fmt.Sprintf("unknown difficulty %q", rt.Difficulty)}
		}
		if err := validateMechanics(rt.Mechanics); err != nil {
			return nil, &LoadError{Record: i, Reason: err.Error()}
		}
		if seen[rt.ID] {
			return nil, &LoadError{Record: i, Reason: fmt.Sprintf("duplicate id %d", rt.ID)}
		}
		seen[rt.ID] = true
		out = append(out, rt)
	}
	return out, nil
}

// validateMechanics rejects effect bundles carrying an unknown duration tag.
// An unknown tag would never match either expiry point and the effect would
// silently become permanent, so it fails the load instead.
func validateMechanics(m *Mechanics) error {
	if m == nil {
		return nil
	}
	hooks := []struct {
		name   string
		bundle *effects.Bundle
	}{
		{"on_enter", m.OnEnter},
		{"on_clear", m.OnClear},
		{"on_fail", m.OnFail},
	}
	for _, h := range hooks {
		if h.bundle == nil {
			continue
		}
		if d := h.bundle.Duration; d != "" && !d.Valid() {
			return fmt.Errorf("unknown duration %q in %s", d, h.name)
		}
	}
	return nil
}

// LoadFile loads a catalog from a JSON file on disk.
func LoadFile(path string) (Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog file: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only file
	return Load(f)
}

// ByID returns the template with the given id, or nil.
func (c Catalog) ByID(id int) *RoomTemplate {
	for i := range c {
		if c[i].ID == id {
			return &c[i]
		}
	}
	return nil
}

// TierForFloor maps a floor number to its difficulty band. Beyond floor 12
// every third floor is eligible for Boss-tier rooms.
func TierForFloor(floor int) Tier {
	switch {
	case floor <= 3:
		return TierEasy
	case floor <= 6:
		return TierMedium
	case floor <= 9:
		return TierHard
	case floor <= 12:
		return TierElite
	default:
		if (floor-12)%3 == 0 {
			return TierBoss
		}
		return TierElite
	}
}

// nonCombatTags mark templates eligible for the combat-reduction bias.
var nonCombatTags = []string{"lore", "puzzle", "event", "rest", "environment"}

// quiet reports whether the template is tagged non-combat and not tagged
// combat.
func quiet(rt *RoomTemplate) bool {
	if rt.HasTag("combat") {
		return false
	}
	for _, tag := range nonCombatTags {
		if rt.HasTag(tag) {
			return true
		}
	}
	return false
}

// PickForFloor selects a room template for the given floor. The candidate
// pool is the floor's tier (falling back to the whole catalog when the tier
// is unrepresented); with 20% probability the pool is narrowed to quiet
// rooms when any exist. The final pick is uniform via src, so the bias
// itself is deterministic under a seeded source.
func (c Catalog) PickForFloor(floor int, src rng.Source) (*RoomTemplate, error) {
	if len(c) == 0 {
		return nil, ErrEmptyCatalog
	}

	tier := TierForFloor(floor)
	pool := make([]*RoomTemplate, 0, len(c))
	for i := range c {
		if c[i].Difficulty == tier {
			pool = append(pool, &c[i])
		}
	}
	if len(pool) == 0 {
		for i := range c {
			pool = append(pool, &c[i])
		}
	}

	if src.Float64() < 0.2 {
		narrowed := make([]*RoomTemplate, 0, len(pool))
		for _, rt := range pool {
			if quiet(rt) {
				narrowed = append(narrowed, rt)
			}
		}
		if len(narrowed) > 0 {
			pool = narrowed
		}
	}

	return rng.Pick(src, pool)
}
