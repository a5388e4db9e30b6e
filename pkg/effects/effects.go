// Package effects tracks the transient gameplay modifiers granted by room
// mechanics: stat deltas with a lifetime tag, status flags, shield points,
// and disarm/escape tokens.
package effects

import "slices"

// Duration classifies how long a tracked delta lives. Expiry happens at
// exactly two transition points (end of combat, floor transition), never on
// a timer.
type Duration string

const (
	DurationCombat    Duration = "combat"
	DurationFloor     Duration = "floor"
	DurationPermanent Duration = "permanent"
)

// Valid reports whether d is one of the three known lifetime tags.
func (d Duration) Valid() bool {
	switch d {
	case DurationCombat, DurationFloor, DurationPermanent:
		return true
	}
	return false
}

// Keys of the numeric deltas tracked in the generic lifetime map.
const (
	KeyExtraRolls   = "extra_rolls"
	KeyCritBonus    = "crit_bonus"
	KeyDamageBonus  = "damage_bonus"
	KeyGoldMult     = "gold_mult"
	KeyShopDiscount = "shop_discount"
)

// Bundle is a templated set of effects attached to a room's enter/clear/fail
// hooks. All keys are optional; a bundle is applied atomically.
type Bundle struct {
	Cleanse      bool     `json:"cleanse,omitempty"`
	DisarmToken  int      `json:"disarm_token,omitempty"`
	EscapeToken  int      `json:"escape_token,omitempty"`
	Item         string   `json:"item,omitempty"`
	Status       string   `json:"status,omitempty"`
	Shield       int      `json:"shield,omitempty"`
	ExtraRolls   int      `json:"extra_rolls,omitempty"`
	CritBonus    float64  `json:"crit_bonus,omitempty"`
	DamageBonus  int      `json:"damage_bonus,omitempty"`
	GoldMult     float64  `json:"gold_mult,omitempty"`
	ShopDiscount float64  `json:"shop_discount,omitempty"`
	Duration     Duration `json:"duration,omitempty"` // defaults to combat
}

// Tracked is a numeric delta plus the lifetime tag of its most recent
// application.
type Tracked struct {
	Delta    float64  `json:"delta"`
	Duration Duration `json:"duration"`
}

// State is the live effects engine for a run. The zero value is usable
// after Normalize.
type State struct {
	Temp         map[string]Tracked `json:"temp,omitempty"`
	Statuses     []string           `json:"statuses,omitempty"`
	Shield       int                `json:"shield,omitempty"`
	DisarmTokens int                `json:"disarm_tokens,omitempty"`
	EscapeTokens int                `json:"escape_tokens,omitempty"`
}

// ApplyResult reports side effects the caller must route elsewhere. Items
// granted by a bundle land in the room's ground loot, never directly in the
// player's inventory.
type ApplyResult struct {
	Items []string
}

// Stats is the combined read-only view consumed by the rest of the game.
type Stats struct {
	ExtraRolls   int
	CritChance   float64
	DamageBonus  int
	GoldMult     float64 // scales both damage and gold payouts
	ShopDiscount float64
	Shield       int
	Statuses     []string
	HasDisarm    bool
	HasEscape    bool
}

// NewState returns an initialized effects engine.
func NewState() *State {
	s := &State{}
	s.Normalize()
	return s
}

// Normalize defaults any missing fields. Run once after loading legacy or
// partial state so downstream code never needs presence checks.
func (s *State) Normalize() {
	if s.Temp == nil {
		s.Temp = make(map[string]Tracked)
	}
	if s.Statuses == nil {
		s.Statuses = []string{}
	}
}

// Apply merges a bundle into the state atomically. Re-applying a key
// accumulates its delta additively but overwrites the lifetime tag with the
// most recent application's tag.
func (s *State) Apply(b *Bundle) ApplyResult {
	var res ApplyResult
	if b == nil {
		return res
	}
	s.Normalize()

	dur := b.Duration
	if dur == "" {
		dur = DurationCombat
	}

	if b.Cleanse {
		s.Statuses = s.Statuses[:0]
	}
	s.DisarmTokens += b.DisarmToken
	s.EscapeTokens += b.EscapeToken
	if b.Item != "" {
		res.Items = append(res.Items, b.Item)
	}
	if b.Status != "" && !slices.Contains(s.Statuses, b.Status) {
		s.Statuses = append(s.Statuses, b.Status)
	}
	s.Shield += b.Shield

	s.add(KeyExtraRolls, float64(b.ExtraRolls), dur)
	s.add(KeyCritBonus, b.CritBonus, dur)
	s.add(KeyDamageBonus, float64(b.DamageBonus), dur)
	s.add(KeyGoldMult, b.GoldMult, dur)
	s.add(KeyShopDiscount, b.ShopDiscount, dur)

	return res
}

func (s *State) add(key string, delta float64, dur Duration) {
	if delta == 0 {
		return
	}
	t := s.Temp[key]
	t.Delta += delta
	t.Duration = dur
	s.Temp[key] = t
}

// ExpireAfterCombat removes every tracked key whose current lifetime tag is
// combat.
func (s *State) ExpireAfterCombat() {
	s.expire(DurationCombat)
}

// ExpireFloorTransition removes every key tagged combat or floor, and
// additionally zeroes the shield counter and the shop discount regardless
// of tag.
func (s *State) ExpireFloorTransition() {
	s.expire(DurationCombat, DurationFloor)
	s.Shield = 0
	delete(s.Temp, KeyShopDiscount)
}

func (s *State) expire(durs ...Duration) {
	s.Normalize()
	for key, t := range s.Temp {
		if slices.Contains(durs, t.Duration) {
			delete(s.Temp, key)
		}
	}
}

// Effective derives the combined read-only stats view. Reading capability
// flags never consumes tokens; consumption is a separate explicit action.
func (s *State) Effective() Stats {
	s.Normalize()
	return Stats{
		ExtraRolls:   int(s.Temp[KeyExtraRolls].Delta),
		CritChance:   s.Temp[KeyCritBonus].Delta,
		DamageBonus:  int(s.Temp[KeyDamageBonus].Delta),
		GoldMult:     1.0 + s.Temp[KeyGoldMult].Delta,
		ShopDiscount: s.Temp[KeyShopDiscount].Delta,
		Shield:       s.Shield,
		Statuses:     slices.Clone(s.Statuses),
		HasDisarm:    s.DisarmTokens > 0,
		HasEscape:    s.EscapeTokens > 0,
	}
}

// ConsumeDisarm spends one disarm token. Returns false if none are held.
func (s *State) ConsumeDisarm() bool {
	if s.DisarmTokens <= 0 {
		return false
	}
	s.DisarmTokens--
	return true
}

// ConsumeEscape spends one escape token. Returns false if none are held.
func (s *State) ConsumeEscape() bool {
	if s.EscapeTokens <= 0 {
		return false
	}
	s.EscapeTokens--
	return true
}

// AbsorbDamage subtracts incoming damage from the shield first and returns
// the remainder that reaches the player.
func (s *State) AbsorbDamage(dmg int) int {
	if dmg <= 0 {
		return 0
	}
	if s.Shield >= dmg {
		s.Shield -= dmg
		return 0
	}
	dmg -= s.Shield
	s.Shield = 0
	return dmg
}
