package dungeon

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jwebster45206/crawl-engine/pkg/catalog"
)

// Direction is one of the four cardinal exits of a room.
type Direction string

const (
	North Direction = "north"
	East  Direction = "east"
	South Direction = "south"
	West  Direction = "west"
)

// Directions lists the cardinals in a fixed order. Generation iterates in
// this order so seeded runs are reproducible.
var Directions = []Direction{North, East, South, West}

// Valid reports whether d is a known cardinal.
func (d Direction) Valid() bool {
	switch d {
	case North, East, South, West:
		return true
	}
	return false
}

// Opposite returns the reverse direction.
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	}
	return d
}

func (d Direction) offset() (dx, dy int) {
	switch d {
	case North:
		return 0, 1
	case South:
		return 0, -1
	case East:
		return 1, 0
	case West:
		return -1, 0
	}
	return 0, 0
}

// Coord is an integer grid coordinate. Rooms are looked up by coordinate,
// never by pointer, so the room graph has no reference cycles.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Step returns the neighboring coordinate in the given direction.
func (c Coord) Step(d Direction) Coord {
	dx, dy := d.offset()
	return Coord{X: c.X + dx, Y: c.Y + dy}
}

// MarshalText lets Coord serve as a JSON map key.
func (c Coord) MarshalText() ([]byte, error) {
	return []byte(fmt.Sprintf("%d,%d", c.X, c.Y)), nil
}

// UnmarshalText parses the "x,y" map-key form.
func (c *Coord) UnmarshalText(b []byte) error {
	parts := strings.SplitN(string(b), ",", 2)
	if len(parts) != 2 {
		return fmt.Errorf("invalid coordinate %q", string(b))
	}
	x, err := strconv.Atoi(parts[0])
	if err != nil {
		return fmt.Errorf("invalid coordinate %q: %w", string(b), err)
	}
	y, err := strconv.Atoi(parts[1])
	if err != nil {
		return fmt.Errorf("invalid coordinate %q: %w", string(b), err)
	}
	c.X, c.Y = x, y
	return nil
}

// ExitState describes one side of a doorway. A closed exit cannot be
// opened from this side but is passable when approached from the other
// side; a blocked exit is permanently impassable.
type ExitState string

const (
	ExitOpen    ExitState = "open"
	ExitClosed  ExitState = "closed"
	ExitBlocked ExitState = "blocked"
)

// Loot is the ground-loot state of a room, rolled once on first visit.
type Loot struct {
	HasContainer    bool     `json:"has_container,omitempty"`
	Container       string   `json:"container,omitempty"`
	ContainerLocked bool     `json:"container_locked,omitempty"`
	ContainerItems  []string `json:"container_items,omitempty"`
	Searched        bool     `json:"searched,omitempty"`
	Items           []string `json:"items,omitempty"` // loose items on the floor
	Gold            int      `json:"gold,omitempty"`
}

// Room is one mutable dungeon room instance. It is created when first
// discovered, mutated through the floor's lifetime, and discarded wholesale
// when the floor resets.
type Room struct {
	TemplateID    int                     `json:"template_id"`
	Name          string                  `json:"name"`
	Tier          catalog.Tier            `json:"tier"`
	Threats       []string                `json:"threats,omitempty"`
	History       string                  `json:"history,omitempty"`
	Flavor        string                  `json:"flavor,omitempty"`
	Discoverables []string                `json:"discoverables,omitempty"`
	Tags          []string                `json:"tags,omitempty"`
	Mechanics     *catalog.Mechanics      `json:"mechanics,omitempty"`
	Coord         Coord                   `json:"coord"`
	Seq           int                     `json:"seq"` // generation order on its floor
	Visited       bool                    `json:"visited"`
	Cleared       bool                    `json:"cleared,omitempty"`
	Exits         map[Direction]ExitState `json:"exits"`
	HasCombat     bool                    `json:"has_combat"` // frozen at creation, never re-rolled
	Defeated      bool                    `json:"defeated,omitempty"`
	IsMiniBoss    bool                    `json:"is_mini_boss,omitempty"`
	IsBoss        bool                    `json:"is_boss,omitempty"`
	HasStairs     bool                    `json:"has_stairs,omitempty"`
	Loot          Loot                    `json:"loot"`
}

// OpenExits returns the directions passable from inside this room.
func (r *Room) OpenExits() []Direction {
	out := make([]Direction, 0, len(Directions))
	for _, d := range Directions {
		if r.Exits[d] == ExitOpen {
			out = append(out, d)
		}
	}
	return out
}
