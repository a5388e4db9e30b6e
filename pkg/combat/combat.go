// Package combat resolves turn-based dice encounters. The resolver owns
// the per-turn roll/lock/attack cycle; the surrounding navigation layer
// owns player HP and the victory/defeat hooks.
package combat

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jwebster45206/crawl-engine/pkg/dice"
	"github.com/jwebster45206/crawl-engine/pkg/effects"
	"github.com/jwebster45206/crawl-engine/pkg/narrate"
	"github.com/jwebster45206/crawl-engine/pkg/rng"
)

const (
	// BaseRolls is the roll budget per attack cycle, before reroll bonuses.
	BaseRolls = 3

	// PlayerDice is the number of dice the player rolls.
	PlayerDice = 3
)

// Phase is the resolver's turn state.
type Phase string

const (
	PhaseRolling  Phase = "rolling"         // rolls remain; unlocked dice may be re-rolled
	PhaseReady    Phase = "ready_to_attack" // budget exhausted
	PhaseResolved Phase = "resolved"        // enemy dead
)

var (
	// ErrResolved indicates an action on a finished encounter.
	ErrResolved = errors.New("encounter is already resolved")

	// ErrNoRollsLeft indicates the roll budget for this cycle is spent.
	ErrNoRollsLeft = errors.New("no rolls remaining this turn")

	// ErrNoDice indicates an attack before any die has been rolled.
	ErrNoDice = errors.New("cannot attack before rolling")
)

// Enemy is the opposing combatant.
type Enemy struct {
	Name  string `json:"name"`
	HP    int    `json:"hp"`
	MaxHP int    `json:"max_hp"`
	Dice  int    `json:"dice"`
}

// TakeDamage reduces the enemy's HP, never below zero.
func (e *Enemy) TakeDamage(n int) {
	if n <= 0 {
		return
	}
	e.HP -= n
	if e.HP < 0 {
		e.HP = 0
	}
}

// IsDefeated reports whether the enemy's HP has reached zero.
func (e *Enemy) IsDefeated() bool {
	return e.HP <= 0
}

// Encounter is one live combat. Exported fields persist with the run; the
// random source and narration sink are re-attached on load.
type Encounter struct {
	Enemy      Enemy  `json:"enemy"`
	Dice       []int  `json:"dice"`
	Locks      []bool `json:"locks"`
	RollsLeft  int    `json:"rolls_left"`
	RollBudget int    `json:"roll_budget"`
	LastCrit   bool   `json:"last_crit,omitempty"`
	Floor      int    `json:"floor"`

	src  rng.Source
	sink narrate.Sink
}

// AttackResult reports one attack and, when the enemy survives, its
// retaliation. The caller applies Retaliation to player HP.
type AttackResult struct {
	Damage        int   `json:"damage"`
	Crit          bool  `json:"crit"`
	EnemyDefeated bool  `json:"enemy_defeated"`
	EnemyDice     []int `json:"enemy_dice,omitempty"`
	Retaliation   int   `json:"retaliation,omitempty"`
}

// New starts an encounter. The extra-rolls bonus from the current effects
// view widens the roll budget for every cycle of this combat.
func New(enemy Enemy, floor int, stats effects.Stats, src rng.Source, sink narrate.Sink) *Encounter {
	budget := BaseRolls + stats.ExtraRolls
	if budget < 1 {
		budget = 1
	}
	e := &Encounter{
		Enemy:      enemy,
		Dice:       make([]int, PlayerDice),
		Locks:      make([]bool, PlayerDice),
		RollsLeft:  budget,
		RollBudget: budget,
		Floor:      floor,
	}
	e.Attach(src, sink)
	return e
}

// Attach wires the random source and narration sink, used both at creation
// and when rehydrating a persisted encounter.
func (e *Encounter) Attach(src rng.Source, sink narrate.Sink) {
	e.src = src
	if sink == nil {
		sink = narrate.Discard
	}
	e.sink = sink
}

// Phase reports the current turn state.
func (e *Encounter) Phase() Phase {
	if e.Enemy.IsDefeated() {
		return PhaseResolved
	}
	if e.RollsLeft > 0 {
		return PhaseRolling
	}
	return PhaseReady
}

// Roll re-rolls every unlocked die, consuming one roll from the budget.
func (e *Encounter) Roll() error {
	if e.Enemy.IsDefeated() {
		return ErrResolved
	}
	if e.RollsLeft <= 0 {
		return ErrNoRollsLeft
	}
	for i := range e.Dice {
		if !e.Locks[i] {
			e.Dice[i] = e.src.IntInRange(1, dice.Faces)
		}
	}
	e.RollsLeft--
	e.sink(fmt.Sprintf("You roll %s.", formatDice(e.Dice)), narrate.TagPlayer)
	return nil
}

// Lock freezes a die's value across subsequent rolls within the cycle.
func (e *Encounter) Lock(i int) error {
	if err := e.checkDie(i); err != nil {
		return err
	}
	if e.Dice[i] == 0 {
		return fmt.Errorf("die %d has not been rolled", i)
	}
	e.Locks[i] = true
	return nil
}

// Unlock releases a previously locked die.
func (e *Encounter) Unlock(i int) error {
	if err := e.checkDie(i); err != nil {
		return err
	}
	e.Locks[i] = false
	return nil
}

func (e *Encounter) checkDie(i int) error {
	if e.Enemy.IsDefeated() {
		return ErrResolved
	}
	if i < 0 || i >= len(e.Dice) {
		return fmt.Errorf("die index %d out of range", i)
	}
	return nil
}

// CanAttack reports whether an attack is legal: every die must hold a
// value. Attacking mid-budget is allowed.
func (e *Encounter) CanAttack() bool {
	if e.Enemy.IsDefeated() {
		return false
	}
	for _, d := range e.Dice {
		if d == 0 {
			return false
		}
	}
	return true
}

// Attack resolves the player's attack against the enemy. If the enemy
// survives it retaliates and the turn resets: all dice unlocked, the full
// roll budget restored.
func (e *Encounter) Attack(stats effects.Stats) (AttackResult, error) {
	var res AttackResult
	if e.Enemy.IsDefeated() {
		return res, ErrResolved
	}
	if !e.CanAttack() {
		return res, ErrNoDice
	}

	crit := e.src.Float64() < stats.CritChance
	dmg, err := dice.AttackDamage(e.Dice, stats.DamageBonus, crit, stats.GoldMult)
	if err != nil {
		return res, err
	}

	e.LastCrit = crit
	e.Enemy.TakeDamage(dmg)
	res.Damage = dmg
	res.Crit = crit

	if crit {
		e.sink(fmt.Sprintf("Critical hit! You strike the %s for %d damage.", e.Enemy.Name, dmg), narrate.TagCrit)
	} else {
		e.sink(fmt.Sprintf("You strike the %s for %d damage.", e.Enemy.Name, dmg), narrate.TagPlayer)
	}

	if e.Enemy.IsDefeated() {
		res.EnemyDefeated = true
		e.sink(fmt.Sprintf("The %s is defeated.", e.Enemy.Name), narrate.TagSuccess)
		return res, nil
	}

	enemyDice := make([]int, e.Enemy.Dice)
	for i := range enemyDice {
		enemyDice[i] = e.src.IntInRange(1, dice.Faces)
	}
	res.EnemyDice = enemyDice
	res.Retaliation = dice.RetaliationDamage(enemyDice, e.Floor)
	e.sink(fmt.Sprintf("The %s retaliates for %d damage.", e.Enemy.Name, res.Retaliation), narrate.TagEnemy)

	// Turn reset.
	for i := range e.Locks {
		e.Locks[i] = false
	}
	e.RollsLeft = e.RollBudget

	return res, nil
}

func formatDice(dice []int) string {
	parts := make([]string, len(dice))
	for i, d := range dice {
		parts[i] = fmt.Sprintf("%d", d)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
