// Package dungeon owns the live dungeon graph: room generation, the
// locked/unlocked gating state machine, floor transitions, and the handoff
// into combat.
package dungeon

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwebster45206/crawl-engine/pkg/catalog"
	"github.com/jwebster45206/crawl-engine/pkg/combat"
	"github.com/jwebster45206/crawl-engine/pkg/effects"
	"github.com/jwebster45206/crawl-engine/pkg/narrate"
	"github.com/jwebster45206/crawl-engine/pkg/rng"
)

const (
	// KeyItemName is the inventory item that unlocks a mini-boss room.
	KeyItemName = "dungeon key"

	// FragmentsForBoss is how many key fragments open the floor boss room.
	FragmentsForBoss = 3

	// MaxMiniBosses caps mini-boss spawns per floor.
	MaxMiniBosses = 3

	startingHP = 30
)

var (
	// ErrInCombat indicates navigation was attempted mid-encounter.
	ErrInCombat = errors.New("an encounter is in progress")

	// ErrNotInCombat indicates a combat action with no live encounter.
	ErrNotInCombat = errors.New("no encounter is in progress")

	// ErrDecisionPending indicates a key decision is outstanding.
	ErrDecisionPending = errors.New("an entry decision is pending")

	// ErrNoPending indicates ConfirmEntry with nothing to confirm.
	ErrNoPending = errors.New("no entry decision is pending")

	// ErrRunOver indicates the run has already ended in defeat.
	ErrRunOver = errors.New("the run is over")
)

// PendingEntry is the suspended half of the two-phase gating decision: the
// player stands before a locked door and must choose whether to spend the
// unlock resource.
type PendingEntry struct {
	Coord Coord     `json:"coord"`
	Dir   Direction `json:"dir"`
	Boss  bool      `json:"boss"` // true: 3 fragments; false: one key item
}

// Crawl is a full dungeon run: the current floor's room graph, gating
// state, player resources, and the live effects engine. Exported fields
// persist; the random source and narration sink are re-attached on load.
type Crawl struct {
	ID             uuid.UUID         `json:"id"`
	Floor          int               `json:"floor"`
	Pos            Coord             `json:"pos"`
	PrevPos        Coord             `json:"prev_pos"`
	Rooms          map[Coord]*Room   `json:"rooms"`
	Special        map[Coord]bool    `json:"special_rooms"`
	Unlocked       map[Coord]bool    `json:"unlocked_rooms"`
	MiniBosses     int               `json:"mini_bosses"`
	BossSpawned    bool              `json:"boss_spawned"`
	BossDefeated   bool              `json:"boss_defeated"`
	NextMiniBossAt int               `json:"next_mini_boss_at"`
	BossAt         int               `json:"boss_at"` // 0 when the floor spawns no boss
	RoomCount      int               `json:"room_count"`
	StairsPlaced   bool              `json:"stairs_placed"`
	PlayerHP       int               `json:"player_hp"`
	PlayerMaxHP    int               `json:"player_max_hp"`
	Fragments      int               `json:"key_fragments"`
	Gold           int               `json:"gold"`
	Inventory      []string          `json:"inventory"`
	Effects        *effects.State    `json:"effects"`
	Encounter      *combat.Encounter `json:"encounter,omitempty"`
	Pending        *PendingEntry     `json:"pending_entry,omitempty"`
	GameOver       bool              `json:"game_over,omitempty"`

	cat  catalog.Catalog
	src  rng.Source
	sink narrate.Sink
}

// New starts a run on floor 1 and generates the entrance room. The caller
// owns the random source; every decision the run makes draws from it.
func New(cat catalog.Catalog, src rng.Source, sink narrate.Sink) (*Crawl, error) {
	if len(cat) == 0 {
		return nil, catalog.ErrEmptyCatalog
	}
	c := &Crawl{
		ID:          uuid.New(),
		Floor:       1,
		PlayerHP:    startingHP,
		PlayerMaxHP: startingHP,
		Inventory:   []string{},
		Effects:     effects.NewState(),
		cat:         cat,
	}
	c.Attach(cat, src, sink)
	c.resetFloor()
	if _, err := c.generateRoom(Coord{}, nil); err != nil {
		return nil, err
	}
	c.sink(fmt.Sprintf("You descend into the dungeon. Floor %d.", c.Floor), narrate.TagSystem)
	c.enter(Coord{})
	return c, nil
}

// Attach wires the catalog, random source, and narration sink. Call after
// rehydrating a persisted run, before any other method.
func (c *Crawl) Attach(cat catalog.Catalog, src rng.Source, sink narrate.Sink) {
	c.cat = cat
	c.src = src
	if sink == nil {
		sink = narrate.Discard
	}
	c.sink = sink
	if c.Rooms == nil {
		c.Rooms = make(map[Coord]*Room)
	}
	if c.Special == nil {
		c.Special = make(map[Coord]bool)
	}
	if c.Unlocked == nil {
		c.Unlocked = make(map[Coord]bool)
	}
	if c.Inventory == nil {
		c.Inventory = []string{}
	}
	if c.Effects == nil {
		c.Effects = effects.NewState()
	}
	c.Effects.Normalize()
	if c.Encounter != nil {
		c.Encounter.Attach(src, sink)
	}
}

// Stats returns the current combined effects view.
func (c *Crawl) Stats() effects.Stats {
	return c.Effects.Effective()
}

// CurrentRoom returns the room at the player's position.
func (c *Crawl) CurrentRoom() *Room {
	return c.Rooms[c.Pos]
}

// InCombat reports whether an encounter is live.
func (c *Crawl) InCombat() bool {
	return c.Encounter != nil
}

// resetFloor clears all floor-scoped gating state and redraws the
// mini-boss and boss thresholds for the new floor.
func (c *Crawl) resetFloor() {
	c.Rooms = make(map[Coord]*Room)
	c.Special = make(map[Coord]bool)
	c.Unlocked = make(map[Coord]bool)
	c.MiniBosses = 0
	c.BossSpawned = false
	c.BossDefeated = false
	c.RoomCount = 0
	c.StairsPlaced = false
	c.Pos = Coord{}
	c.PrevPos = Coord{}
	c.NextMiniBossAt = c.src.IntInRange(6, 10)
	if c.Floor >= 5 {
		c.BossAt = c.src.IntInRange(20, 30)
	} else {
		c.BossAt = 0
	}
}

type specialKind int

const (
	specialNone specialKind = iota
	specialMiniBoss
	specialBoss
)

// generateRoom creates the room at coord on first discovery. from is the
// direction of travel that discovered it, nil for the floor entrance.
func (c *Crawl) generateRoom(coord Coord, from *Direction) (*Room, error) {
	c.RoomCount++

	// Special-room scheduling runs before room-type assignment. The
	// entrance is never special.
	kind := specialNone
	if c.RoomCount > 1 {
		if c.MiniBosses < MaxMiniBosses && c.RoomCount >= c.NextMiniBossAt {
			kind = specialMiniBoss
			c.MiniBosses++
			c.NextMiniBossAt = c.RoomCount + c.src.IntInRange(6, 10)
		} else if !c.BossSpawned && c.BossAt > 0 && c.RoomCount >= c.BossAt {
			kind = specialBoss
			c.BossSpawned = true
		}
	}

	rt, err := c.cat.PickForFloor(c.Floor, c.src)
	if err != nil {
		return nil, err
	}

	r := &Room{
		TemplateID:    rt.ID,
		Name:          rt.Name,
		Tier:          rt.Difficulty,
		Threats:       rt.Threats,
		History:       rt.History,
		Flavor:        rt.Flavor,
		Discoverables: rt.Discoverables,
		Tags:          rt.Tags,
		Mechanics:     rt.Mechanics,
		Coord:         coord,
		Seq:           c.RoomCount,
		Exits:         make(map[Direction]ExitState, len(Directions)),
	}

	// Each exit is independently blocked with 30% probability, except
	// sides facing an already-generated neighbor, which mirror it.
	for _, d := range Directions {
		if nb, ok := c.Rooms[coord.Step(d)]; ok {
			switch nb.Exits[d.Opposite()] {
			case ExitOpen:
				r.Exits[d] = ExitOpen
			case ExitClosed:
				// Passable from this side; passing will open it.
				r.Exits[d] = ExitOpen
			default:
				r.Exits[d] = ExitBlocked
			}
			continue
		}
		if c.src.Float64() < 0.30 {
			r.Exits[d] = ExitBlocked
		} else {
			r.Exits[d] = ExitOpen
		}
	}

	// The exit back toward the arrival room is always force-opened.
	var ret Direction
	if from != nil {
		ret = from.Opposite()
		r.Exits[ret] = ExitOpen
	}

	// Guarantee at least one onward path besides the return exit.
	onward := 0
	for _, d := range Directions {
		if (from == nil || d != ret) && r.Exits[d] == ExitOpen {
			onward++
		}
	}
	if onward == 0 {
		candidates := make([]Direction, 0, 3)
		for _, d := range Directions {
			if from == nil || d != ret {
				candidates = append(candidates, d)
			}
		}
		forced, err := rng.Pick(c.src, candidates)
		if err != nil {
			return nil, err
		}
		r.Exits[forced] = ExitOpen
		if nb, ok := c.Rooms[coord.Step(forced)]; ok && nb.Exits[forced.Opposite()] == ExitBlocked {
			nb.Exits[forced.Opposite()] = ExitClosed
		}
	}

	// Catalog Boss/Elite templates landing below their band are promoted
	// to special status independent of the counters.
	if kind == specialNone && c.RoomCount > 1 {
		tier := catalog.TierForFloor(c.Floor)
		if rt.Difficulty == catalog.TierBoss && tier != catalog.TierBoss {
			kind = specialBoss
		} else if rt.Difficulty == catalog.TierElite && tier != catalog.TierElite && tier != catalog.TierBoss {
			kind = specialMiniBoss
		}
	}

	switch kind {
	case specialMiniBoss:
		r.IsMiniBoss = true
		r.HasCombat = true
		c.Special[coord] = true
	case specialBoss:
		r.IsBoss = true
		r.HasCombat = true
		c.Special[coord] = true
	default:
		if len(rt.Threats) > 0 || rt.HasTag("combat") {
			r.HasCombat = c.src.Float64() < 0.40
		}
	}

	// Stairs: 10% per first-visit room after 3+ explored, one per floor.
	if !c.StairsPlaced && c.RoomCount > 3 && c.src.Float64() < 0.10 {
		r.HasStairs = true
		c.StairsPlaced = true
	}

	c.Rooms[coord] = r
	return r, nil
}

// treasure is the generic container contents table.
var treasure = []string{
	"healing draught",
	"silver ring",
	"coin pouch",
	"faded map scrap",
	"ward talisman",
}

// rollLoot rolls the room's ground loot, once per room on first visit.
// Gold amounts are scaled by the current gold multiplier.
func (c *Crawl) rollLoot(r *Room) {
	stats := c.Effects.Effective()

	if len(r.Discoverables) > 0 && c.src.Float64() < 0.5 {
		r.Loot.HasContainer = true
		r.Loot.Container, _ = rng.Pick(c.src, r.Discoverables)
		r.Loot.ContainerLocked = c.src.Float64() < 0.3
		n := c.src.IntInRange(1, 2)
		for i := 0; i < n; i++ {
			item, _ := rng.Pick(c.src, treasure)
			r.Loot.ContainerItems = append(r.Loot.ContainerItems, item)
		}
		if c.src.Float64() < 0.15 {
			r.Loot.ContainerItems = append(r.Loot.ContainerItems, KeyItemName)
		}
	}

	if c.src.Float64() < 0.35 {
		base := c.src.IntInRange(3, 10+5*c.Floor)
		r.Loot.Gold = int(float64(base) * stats.GoldMult)
	}
}
