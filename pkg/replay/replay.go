// Package replay runs scripted scenarios against a seeded engine and emits
// a structured record that independent implementations diff mechanically.
// Field names, nesting, and numeric types are part of the contract.
package replay

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwebster45206/crawl-engine/pkg/catalog"
	"github.com/jwebster45206/crawl-engine/pkg/dungeon"
	"github.com/jwebster45206/crawl-engine/pkg/narrate"
	"github.com/jwebster45206/crawl-engine/pkg/rng"
)

// Record is the cross-implementation parity artifact for one scenario run.
type Record struct {
	ScenarioID   string          `json:"scenario_id"`
	Seed         uint64          `json:"seed"`
	InitialState json.RawMessage `json:"initial_state"`
	Actions      []string        `json:"actions"`
	FinalState   json.RawMessage `json:"final_state"`
	Log          []string        `json:"log"`
}

// script drives a run; every engine call it makes is recorded through act.
type script func(c *dungeon.Crawl, act func(string)) error

var scenarios = map[string]script{
	"north-by-three": northByThree,
	"stair-hunt":     stairHunt,
}

// ScenarioIDs lists the registered scenario identifiers.
func ScenarioIDs() []string {
	out := make([]string, 0, len(scenarios))
	for id := range scenarios {
		out = append(out, id)
	}
	return out
}

// Run executes the scenario against a fresh engine seeded with seed.
func Run(scenarioID string, seed uint64, cat catalog.Catalog) (*Record, error) {
	sc, ok := scenarios[scenarioID]
	if !ok {
		return nil, fmt.Errorf("unknown scenario %q", scenarioID)
	}

	src := rng.NewSeeded(seed)
	rec := &narrate.Recorder{}
	c, err := dungeon.New(cat, src, rec.Sink)
	if err != nil {
		return nil, fmt.Errorf("start run: %w", err)
	}
	// The run ID is the one nondeterministic field; pin it so two
	// implementations produce byte-identical records.
	c.ID = uuid.Nil

	initial, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}

	actions := []string{}
	act := func(name string) { actions = append(actions, name) }

	if err := sc(c, act); err != nil {
		return nil, fmt.Errorf("scenario %q: %w", scenarioID, err)
	}

	final, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}

	return &Record{
		ScenarioID:   scenarioID,
		Seed:         seed,
		InitialState: initial,
		Actions:      actions,
		FinalState:   final,
		Log:          rec.Messages(),
	}, nil
}

// fightOut resolves a live encounter: one roll, then attack, repeating
// until the enemy or the player falls.
func fightOut(c *dungeon.Crawl, act func(string)) error {
	for c.InCombat() && !c.GameOver {
		if err := c.RollDice(); err == nil {
			act("roll")
		}
		if _, err := c.Attack(); err != nil {
			return err
		}
		act("attack")
	}
	return nil
}

// northByThree is the canonical smoke scenario: three steps north from the
// entrance, resolving whatever stands in the way, then a search.
func northByThree(c *dungeon.Crawl, act func(string)) error {
	for i := 0; i < 3 && !c.GameOver; i++ {
		res, err := c.RequestMove(dungeon.North)
		if err != nil {
			return err
		}
		act("move north")
		if res.Outcome == dungeon.OutcomeCombat {
			if err := fightOut(c, act); err != nil {
				return err
			}
		}
	}
	if c.GameOver {
		return nil
	}
	if _, err := c.Search(); err != nil {
		return err
	}
	act("search")
	return nil
}

// stairHunt walks the floor taking the first open exit each step until the
// stairs appear, then descends.
func stairHunt(c *dungeon.Crawl, act func(string)) error {
	for step := 0; step < 150 && !c.GameOver; step++ {
		if c.CurrentRoom().HasStairs {
			res, err := c.Descend()
			if err != nil {
				return err
			}
			act("descend")
			if res.Outcome == dungeon.OutcomeCombat {
				if err := fightOut(c, act); err != nil {
					return err
				}
			}
			return nil
		}

		open := c.CurrentRoom().OpenExits()
		dir := open[step%len(open)]
		res, err := c.RequestMove(dir)
		if err != nil {
			return err
		}
		act("move " + string(dir))
		if res.Outcome == dungeon.OutcomeCombat {
			if err := fightOut(c, act); err != nil {
				return err
			}
		}
		if res.Outcome == dungeon.OutcomePending {
			// Scenarios never spend keys; step back.
			if _, err := c.ConfirmEntry(false); err != nil {
				return err
			}
			act("confirm no")
		}
	}
	return nil
}
