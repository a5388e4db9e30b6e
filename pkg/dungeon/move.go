package dungeon

import (
	"fmt"
	"slices"

	"github.com/jwebster45206/crawl-engine/pkg/catalog"
	"github.com/jwebster45206/crawl-engine/pkg/combat"
	"github.com/jwebster45206/crawl-engine/pkg/narrate"
	"github.com/jwebster45206/crawl-engine/pkg/rng"
)

// Outcome classifies the result of a navigation request. Gating refusals
// are outcomes, not errors: they leave all state unchanged.
type Outcome string

const (
	OutcomeMoved     Outcome = "moved"
	OutcomeBlocked   Outcome = "blocked"
	OutcomePending   Outcome = "pending_decision"
	OutcomeCombat    Outcome = "combat"
	OutcomeDescended Outcome = "descended"
	OutcomeSearched  Outcome = "searched"
)

// MoveResult reports what a navigation request did.
type MoveResult struct {
	Outcome Outcome `json:"outcome"`
	Reason  string  `json:"reason,omitempty"`
}

func blocked(reason string) MoveResult {
	return MoveResult{Outcome: OutcomeBlocked, Reason: reason}
}

func (c *Crawl) checkIdle() error {
	if c.GameOver {
		return ErrRunOver
	}
	if c.Encounter != nil {
		return ErrInCombat
	}
	if c.Pending != nil {
		return ErrDecisionPending
	}
	return nil
}

// RequestMove attempts to move one room in the given direction. If the
// target is a locked special room and the player holds the unlock
// resource, the move suspends into a pending decision; ConfirmEntry
// completes or cancels it.
func (c *Crawl) RequestMove(dir Direction) (MoveResult, error) {
	if err := c.checkIdle(); err != nil {
		return MoveResult{}, err
	}
	if !dir.Valid() {
		return MoveResult{}, fmt.Errorf("unknown direction %q", dir)
	}

	cur := c.CurrentRoom()
	switch cur.Exits[dir] {
	case ExitClosed:
		msg := fmt.Sprintf("The way %s is sealed from this side.", dir)
		c.sink(msg, narrate.TagSystem)
		return blocked(msg), nil
	case ExitBlocked:
		msg := fmt.Sprintf("The way %s is collapsed.", dir)
		c.sink(msg, narrate.TagSystem)
		return blocked(msg), nil
	}

	target := c.Pos.Step(dir)
	if _, ok := c.Rooms[target]; !ok {
		if _, err := c.generateRoom(target, &dir); err != nil {
			return MoveResult{}, err
		}
	}

	// Gating: once a coordinate is unlocked it never re-locks and never
	// re-prompts.
	if c.Special[target] && !c.Unlocked[target] {
		r := c.Rooms[target]
		if r.IsBoss {
			if c.Fragments < FragmentsForBoss {
				msg := fmt.Sprintf("A great door bars the way. It wants %d key fragments; you hold %d.", FragmentsForBoss, c.Fragments)
				c.sink(msg, narrate.TagSystem)
				return blocked(msg), nil
			}
			c.Pending = &PendingEntry{Coord: target, Dir: dir, Boss: true}
			msg := fmt.Sprintf("A great door bars the way. Fuse your %d key fragments to open it?", FragmentsForBoss)
			c.sink(msg, narrate.TagSystem)
			return MoveResult{Outcome: OutcomePending, Reason: msg}, nil
		}
		if !c.hasKeyItem() {
			msg := "The door is locked. You need a dungeon key."
			c.sink(msg, narrate.TagSystem)
			return blocked(msg), nil
		}
		c.Pending = &PendingEntry{Coord: target, Dir: dir}
		msg := "The door is locked. Use a dungeon key to open it?"
		c.sink(msg, narrate.TagSystem)
		return MoveResult{Outcome: OutcomePending, Reason: msg}, nil
	}

	// Passing through force-opens the far side.
	c.Rooms[target].Exits[dir.Opposite()] = ExitOpen

	return c.enter(target), nil
}

// ConfirmEntry resumes a pending key decision. Declining mutates nothing;
// accepting consumes the unlock resource and permanently unlocks the
// coordinate.
func (c *Crawl) ConfirmEntry(accept bool) (MoveResult, error) {
	if c.GameOver {
		return MoveResult{}, ErrRunOver
	}
	if c.Pending == nil {
		return MoveResult{}, ErrNoPending
	}

	p := c.Pending
	c.Pending = nil

	if !accept {
		msg := "You step back from the sealed door."
		c.sink(msg, narrate.TagSystem)
		return blocked(msg), nil
	}

	if p.Boss {
		c.Fragments = 0
		c.sink("The fragments fuse into a key. The great door grinds open.", narrate.TagSuccess)
	} else {
		c.removeKeyItem()
		c.sink("The key turns. The door swings open.", narrate.TagSuccess)
	}
	c.Unlocked[p.Coord] = true

	c.Rooms[p.Coord].Exits[p.Dir.Opposite()] = ExitOpen
	return c.enter(p.Coord), nil
}

// enter completes a transition into the room at coord: marks it visited,
// fires first-visit effects and loot, and hands off to combat when the
// room demands an encounter.
func (c *Crawl) enter(coord Coord) MoveResult {
	c.PrevPos = c.Pos
	c.Pos = coord
	r := c.Rooms[coord]

	first := !r.Visited
	r.Visited = true

	c.sink(r.Name, narrate.TagSystem)
	if r.Flavor != "" {
		c.sink(r.Flavor, narrate.TagSystem)
	}

	if first {
		if r.Mechanics != nil && r.Mechanics.OnEnter != nil {
			res := c.Effects.Apply(r.Mechanics.OnEnter)
			for _, item := range res.Items {
				r.Loot.Items = append(r.Loot.Items, item)
				c.sink(fmt.Sprintf("Something glints on the floor: %s.", item), narrate.TagLoot)
			}
		}
		c.rollLoot(r)
	}

	if r.HasStairs {
		c.sink("A stairwell descends into darkness here.", narrate.TagSystem)
	}

	starter := c.Floor == 1 && r.Seq <= 3
	if r.HasCombat && !r.Defeated && !starter {
		c.startCombat(r)
		return MoveResult{Outcome: OutcomeCombat}
	}

	return MoveResult{Outcome: OutcomeMoved}
}

func (c *Crawl) startCombat(r *Room) {
	name := "lurking shadow"
	if len(r.Threats) > 0 {
		picked, err := rng.Pick(c.src, r.Threats)
		if err == nil {
			name = picked
		}
	}

	hp := 8 + 4*c.Floor
	switch r.Tier {
	case catalog.TierMedium:
		hp += 2
	case catalog.TierHard:
		hp += 5
	case catalog.TierElite:
		hp += 9
	case catalog.TierBoss:
		hp += 14
	}
	diceCount := 2
	if r.IsMiniBoss {
		hp *= 2
		diceCount = 3
	}
	if r.IsBoss {
		hp *= 3
		diceCount = 4
	}

	enemy := combat.Enemy{Name: name, HP: hp, MaxHP: hp, Dice: diceCount}
	c.Encounter = combat.New(enemy, c.Floor, c.Stats(), c.src, c.sink)
	c.sink(fmt.Sprintf("A %s bars your way!", narrate.Title(name)), narrate.TagEnemy)
}

// RollDice re-rolls the unlocked combat dice.
func (c *Crawl) RollDice() error {
	if c.Encounter == nil {
		return ErrNotInCombat
	}
	return c.Encounter.Roll()
}

// LockDie freezes one combat die for the rest of the cycle.
func (c *Crawl) LockDie(i int) error {
	if c.Encounter == nil {
		return ErrNotInCombat
	}
	return c.Encounter.Lock(i)
}

// UnlockDie releases a locked combat die.
func (c *Crawl) UnlockDie(i int) error {
	if c.Encounter == nil {
		return ErrNotInCombat
	}
	return c.Encounter.Unlock(i)
}

// Attack resolves the player's attack. Victory fires the room's clear
// hook; a surviving enemy retaliates, with the shield absorbing damage
// first. Defeat ends the run.
func (c *Crawl) Attack() (combat.AttackResult, error) {
	if c.Encounter == nil {
		return combat.AttackResult{}, ErrNotInCombat
	}

	res, err := c.Encounter.Attack(c.Stats())
	if err != nil {
		return res, err
	}

	if res.EnemyDefeated {
		c.combatWon()
		return res, nil
	}

	if res.Retaliation > 0 {
		dmg := c.Effects.AbsorbDamage(res.Retaliation)
		if dmg < res.Retaliation {
			c.sink(fmt.Sprintf("Your shield absorbs %d damage.", res.Retaliation-dmg), narrate.TagSystem)
		}
		c.PlayerHP -= dmg
		if c.PlayerHP <= 0 {
			c.PlayerHP = 0
			c.defeat()
		}
	}
	return res, nil
}

// Flee spends an escape token to break off combat and fall back to the
// previous room. The room stays uncleared.
func (c *Crawl) Flee() (MoveResult, error) {
	if c.Encounter == nil {
		return MoveResult{}, ErrNotInCombat
	}
	if !c.Effects.ConsumeEscape() {
		msg := "You have no means of escape."
		c.sink(msg, narrate.TagSystem)
		return blocked(msg), nil
	}

	c.Encounter = nil
	c.Effects.ExpireAfterCombat()
	c.Pos = c.PrevPos
	c.sink("You slip away from the fight.", narrate.TagSystem)
	return MoveResult{Outcome: OutcomeMoved, Reason: "fled"}, nil
}

func (c *Crawl) combatWon() {
	r := c.CurrentRoom()
	r.Defeated = true
	r.Cleared = true

	if r.IsMiniBoss {
		c.Fragments++
		c.sink(fmt.Sprintf("You pry a key fragment from the fallen foe. (%d/%d)", c.Fragments, FragmentsForBoss), narrate.TagLoot)
	}
	if r.IsBoss {
		c.BossDefeated = true
		c.sink("The floor shudders. Its master is dead.", narrate.TagSuccess)
	}

	if r.Mechanics != nil && r.Mechanics.OnClear != nil {
		res := c.Effects.Apply(r.Mechanics.OnClear)
		for _, item := range res.Items {
			r.Loot.Items = append(r.Loot.Items, item)
			c.sink(fmt.Sprintf("Something glints on the floor: %s.", item), narrate.TagLoot)
		}
	}

	c.Encounter = nil
	c.Effects.ExpireAfterCombat()
}

func (c *Crawl) defeat() {
	r := c.CurrentRoom()
	if r.Mechanics != nil && r.Mechanics.OnFail != nil {
		c.Effects.Apply(r.Mechanics.OnFail)
	}
	c.Encounter = nil
	c.GameOver = true
	c.sink("You fall. The dungeon keeps its dead.", narrate.TagSystem)
}

// Descend moves to the next floor. It requires stairs in the current room
// and, when the floor has spawned a boss, that the boss is dead. Refusals
// change no state.
func (c *Crawl) Descend() (MoveResult, error) {
	if err := c.checkIdle(); err != nil {
		return MoveResult{}, err
	}

	cur := c.CurrentRoom()
	if !cur.HasStairs {
		msg := "There are no stairs here."
		c.sink(msg, narrate.TagSystem)
		return blocked(msg), nil
	}
	if c.BossSpawned && !c.BossDefeated {
		msg := "The stairs are warded while the floor's master lives."
		c.sink(msg, narrate.TagSystem)
		return blocked(msg), nil
	}

	c.Floor++
	c.resetFloor()
	c.Effects.ExpireFloorTransition()
	if _, err := c.generateRoom(Coord{}, nil); err != nil {
		return MoveResult{}, err
	}
	c.sink(fmt.Sprintf("You descend. Floor %d.", c.Floor), narrate.TagSystem)

	res := c.enter(Coord{})
	if res.Outcome == OutcomeMoved {
		res.Outcome = OutcomeDescended
	}
	return res, nil
}

// Search collects the current room's ground loot: loose items and gold
// always; the container's contents unless it is locked and no disarm token
// is held.
func (c *Crawl) Search() (MoveResult, error) {
	if err := c.checkIdle(); err != nil {
		return MoveResult{}, err
	}

	r := c.CurrentRoom()
	found := false

	for _, item := range r.Loot.Items {
		c.Inventory = append(c.Inventory, item)
		c.sink(fmt.Sprintf("You pick up the %s.", item), narrate.TagLoot)
		found = true
	}
	r.Loot.Items = nil

	if r.Loot.Gold > 0 {
		c.Gold += r.Loot.Gold
		c.sink(fmt.Sprintf("You gather %d gold.", r.Loot.Gold), narrate.TagLoot)
		r.Loot.Gold = 0
		found = true
	}

	if r.Loot.HasContainer && !r.Loot.Searched {
		if r.Loot.ContainerLocked {
			if !c.Effects.ConsumeDisarm() {
				msg := fmt.Sprintf("The %s is locked tight. A disarm kit could open it.", r.Loot.Container)
				c.sink(msg, narrate.TagSystem)
				if found {
					return MoveResult{Outcome: OutcomeSearched, Reason: msg}, nil
				}
				return blocked(msg), nil
			}
			r.Loot.ContainerLocked = false
			c.sink(fmt.Sprintf("You spring the lock on the %s.", r.Loot.Container), narrate.TagSuccess)
		}
		r.Loot.Searched = true
		for _, item := range r.Loot.ContainerItems {
			c.Inventory = append(c.Inventory, item)
			c.sink(fmt.Sprintf("Inside the %s: %s.", r.Loot.Container, item), narrate.TagLoot)
			found = true
		}
		r.Loot.ContainerItems = nil
	}

	if !found {
		msg := "You find nothing of value."
		c.sink(msg, narrate.TagSystem)
		return MoveResult{Outcome: OutcomeSearched, Reason: msg}, nil
	}
	return MoveResult{Outcome: OutcomeSearched}, nil
}

func (c *Crawl) hasKeyItem() bool {
	return slices.Contains(c.Inventory, KeyItemName)
}

func (c *Crawl) removeKeyItem() {
	if i := slices.Index(c.Inventory, KeyItemName); i >= 0 {
		c.Inventory = slices.Delete(c.Inventory, i, i+1)
	}
}
