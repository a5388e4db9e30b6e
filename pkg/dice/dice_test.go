package dice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComboBonus(t *testing.T) {
	tests := []struct {
		name     string
		dice     []int
		expected int
	}{
		{
			// Full house +50, pair of 5s +10, triple of 2s +10. The set
			// loop is not suppressed because this is not a flush.
			name:     "full house with sets",
			dice:     []int{5, 5, 2, 2, 2},
			expected: 70,
		},
		{
			// Flush pays face x 15 and suppresses the set loop entirely.
			name:     "flush of fours",
			dice:     []int{4, 4, 4, 4, 4},
			expected: 60,
		},
		{
			name:     "flush of sixes with six dice",
			dice:     []int{6, 6, 6, 6, 6, 6},
			expected: 90,
		},
		{
			// All singles, full run of all six faces.
			name:     "full straight",
			dice:     []int{1, 2, 3, 4, 5, 6},
			expected: 40,
		},
		{
			name:     "four-run straight",
			dice:     []int{2, 3, 4, 5},
			expected: 25,
		},
		{
			// 4,5,6 is a three-run: +15 and nothing else.
			name:     "mini straight",
			dice:     []int{4, 6, 5},
			expected: 15,
		},
		{
			name:     "single die",
			dice:     []int{6},
			expected: 0,
		},
		{
			name:     "lone pair",
			dice:     []int{3, 3},
			expected: 6,
		},
		{
			name:     "triple of sixes",
			dice:     []int{6, 6, 6},
			expected: 30,
		},
		{
			// Quad of 4s (+40) with no straight.
			name:     "quad",
			dice:     []int{4, 4, 4, 4},
			expected: 40,
		},
		{
			// Four of a kind on fewer than 5 dice is not a flush even
			// though every die matches.
			name:     "uniform four dice is not a flush",
			dice:     []int{2, 2, 2, 2},
			expected: 20,
		},
		{
			// Pair of 1s (+2) plus the 1,2,3 run (+15).
			name:     "pair plus straight",
			dice:     []int{1, 1, 2, 3},
			expected: 17,
		},
		{
			// Triple 2s (+10), pair 5s (+10), full house (+50).
			name:     "full house alternate order",
			dice:     []int{2, 5, 2, 5, 2},
			expected: 70,
		},
		{
			// Five-of-a-kind among 6 dice is not a flush (not every die
			// matches): face x 20 for the quint plus nothing else.
			name:     "quint with off die",
			dice:     []int{3, 3, 3, 3, 3, 6},
			expected: 60,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bonus, err := ComboBonus(tt.dice)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, bonus)
		})
	}
}

func TestComboBonus_InvalidInput(t *testing.T) {
	_, err := ComboBonus([]int{})
	assert.ErrorIs(t, err, ErrDiceCount)

	_, err = ComboBonus([]int{6, 6, 6, 6, 6, 6, 6, 6, 6})
	assert.ErrorIs(t, err, ErrDiceCount)

	_, err = ComboBonus([]int{1, 7})
	assert.ErrorIs(t, err, ErrFaceValue)

	_, err = ComboBonus([]int{0, 3})
	assert.ErrorIs(t, err, ErrFaceValue)
}

func TestAttackDamage(t *testing.T) {
	// Base 16 + bonus 70 = 86 pre-multiplier.
	dmg, err := AttackDamage([]int{5, 5, 2, 2, 2}, 0, false, 1.0)
	require.NoError(t, err)
	assert.Equal(t, 86, dmg)

	// Crit doubles before the multiplier.
	dmg, err = AttackDamage([]int{5, 5, 2, 2, 2}, 0, true, 1.0)
	require.NoError(t, err)
	assert.Equal(t, 172, dmg)

	// Flat bonus added pre-crit; multiplier truncates.
	dmg, err = AttackDamage([]int{4, 6, 5}, 3, false, 1.5)
	require.NoError(t, err)
	// (15 + 15 + 3) * 1.5 = 49.5 -> 49
	assert.Equal(t, 49, dmg)

	_, err = AttackDamage([]int{}, 0, false, 1.0)
	assert.Error(t, err)
}

func TestRetaliationDamage(t *testing.T) {
	assert.Equal(t, 12, RetaliationDamage([]int{4, 5}, 3))
	// No combo scoring applies to enemies, even on a flush.
	assert.Equal(t, 31, RetaliationDamage([]int{6, 6, 6, 6, 6}, 1))
}
