// Package dice implements the combo scoring formula for attack rolls. The
// scoring is pure and independent of any random source; it is cross-checked
// value-for-value against an independent reference runner.
package dice

import (
	"errors"
	"fmt"
	"sort"
)

const (
	// MinDice and MaxDice bound a legal roll.
	MinDice = 1
	MaxDice = 8

	// Faces is the number of faces per die.
	Faces = 6
)

// ErrDiceCount indicates a roll outside the 1-8 dice bound.
var ErrDiceCount = errors.New("dice count must be between 1 and 8")

// ErrFaceValue indicates a die showing a value outside 1-6.
var ErrFaceValue = errors.New("die face must be between 1 and 6")

// ComboBonus computes the scoring add-on for an ordered sequence of face
// values:
//
//   - full house (exactly a triple plus a pair): flat +50
//   - flush (all dice the same face, at least 5 dice): face x 15, and the
//     per-face set scoring below is suppressed for the roll
//   - per-face sets: pair face x 2, triple face x 5, quad face x 10,
//     five-or-more face x 20
//   - straights, mutually exclusive in priority order: all six faces +40,
//     any 4-run +25, any 3-run +15
//
// When both a reference and the live formula disagreed on flushes, the live
// behavior won: a flush suppresses the set loop entirely.
func ComboBonus(dice []int) (int, error) {
	if len(dice) < MinDice || len(dice) > MaxDice {
		return 0, fmt.Errorf("%w: got %d", ErrDiceCount, len(dice))
	}

	var counts [Faces + 1]int
	for _, d := range dice {
		if d < 1 || d > Faces {
			return 0, fmt.Errorf("%w: got %d", ErrFaceValue, d)
		}
		counts[d]++
	}

	bonus := 0

	// Full house: the two highest occurrence counts are exactly 3 and 2.
	occ := make([]int, 0, Faces)
	for face := 1; face <= Faces; face++ {
		if counts[face] > 0 {
			occ = append(occ, counts[face])
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(occ)))
	if len(occ) >= 2 && occ[0] == 3 && occ[1] == 2 {
		bonus += 50
	}

	// Flush: every die shows the same face and there are at least 5 dice.
	flush := false
	if len(dice) >= 5 {
		for face := 1; face <= Faces; face++ {
			if counts[face] == len(dice) {
				bonus += face * 15
				flush = true
				break
			}
		}
	}

	if !flush {
		for face := 1; face <= Faces; face++ {
			switch n := counts[face]; {
			case n == 2:
				bonus += face * 2
			case n == 3:
				bonus += face * 5
			case n == 4:
				bonus += face * 10
			case n >= 5:
				bonus += face * 20
			}
		}
	}

	// Straights, independent of the scoring above.
	run, best := 0, 0
	for face := 1; face <= Faces; face++ {
		if counts[face] > 0 {
			run++
		} else {
			run = 0
		}
		if run > best {
			best = run
		}
	}
	switch {
	case best == Faces:
		bonus += 40
	case best >= 4:
		bonus += 25
	case best >= 3:
		bonus += 15
	}

	return bonus, nil
}

// Sum returns the total of all face values.
func Sum(dice []int) int {
	total := 0
	for _, d := range dice {
		total += d
	}
	return total
}

// AttackDamage computes a player attack: base sum plus combo bonus plus the
// flat damage bonus, doubled on a critical hit, scaled by the current
// multiplier and truncated to an integer.
func AttackDamage(dice []int, flatBonus int, crit bool, multiplier float64) (int, error) {
	bonus, err := ComboBonus(dice)
	if err != nil {
		return 0, err
	}
	total := Sum(dice) + bonus + flatBonus
	if crit {
		total *= 2
	}
	return int(float64(total) * multiplier), nil
}

// RetaliationDamage computes enemy damage: the enemy's dice sum plus the
// floor number. Enemies never score combos.
func RetaliationDamage(enemyDice []int, floor int) int {
	return Sum(enemyDice) + floor
}
