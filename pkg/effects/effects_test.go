package effects

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_AccumulatesDeltas(t *testing.T) {
	s := NewState()

	s.Apply(&Bundle{CritBonus: 0.1})
	s.Apply(&Bundle{CritBonus: 0.05})

	assert.InDelta(t, 0.15, s.Effective().CritChance, 1e-9)
}

func TestApply_DurationOverwritesNotMax(t *testing.T) {
	s := NewState()

	s.Apply(&Bundle{DamageBonus: 2, Duration: DurationPermanent})
	s.Apply(&Bundle{DamageBonus: 3, Duration: DurationCombat})

	// The most recent application's tag wins, so the whole accumulated
	// delta now dies with combat.
	assert.Equal(t, 5, s.Effective().DamageBonus)
	s.ExpireAfterCombat()
	assert.Equal(t, 0, s.Effective().DamageBonus)
}

func TestApply_DefaultDurationIsCombat(t *testing.T) {
	s := NewState()
	s.Apply(&Bundle{CritBonus: 0.1})

	s.ExpireAfterCombat()
	assert.Zero(t, s.Effective().CritChance)
}

func TestExpire_PermanentSurvivesEverything(t *testing.T) {
	s := NewState()
	s.Apply(&Bundle{DamageBonus: 4, Duration: DurationPermanent})

	s.ExpireAfterCombat()
	assert.Equal(t, 4, s.Effective().DamageBonus)

	s.ExpireFloorTransition()
	assert.Equal(t, 4, s.Effective().DamageBonus)
}

func TestExpire_FloorTransition(t *testing.T) {
	s := NewState()
	s.Apply(&Bundle{CritBonus: 0.2, Duration: DurationFloor})
	s.Apply(&Bundle{ExtraRolls: 1, Duration: DurationCombat})
	s.Apply(&Bundle{Shield: 5, Duration: DurationPermanent})
	s.Apply(&Bundle{ShopDiscount: 0.25, Duration: DurationPermanent})

	s.ExpireFloorTransition()

	st := s.Effective()
	assert.Zero(t, st.CritChance)
	assert.Zero(t, st.ExtraRolls)
	// Shield and shop discount are zeroed at floor transition regardless
	// of their lifetime tag.
	assert.Zero(t, st.Shield)
	assert.Zero(t, st.ShopDiscount)
}

func TestApply_StatusIdempotent(t *testing.T) {
	s := NewState()
	s.Apply(&Bundle{Status: "blessed"})
	s.Apply(&Bundle{Status: "blessed"})
	s.Apply(&Bundle{Status: "poisoned"})

	assert.Equal(t, []string{"blessed", "poisoned"}, s.Effective().Statuses)
}

func TestApply_CleanseClearsStatuses(t *testing.T) {
	s := NewState()
	s.Apply(&Bundle{Status: "poisoned"})
	s.Apply(&Bundle{Status: "cursed"})

	s.Apply(&Bundle{Cleanse: true})
	assert.Empty(t, s.Effective().Statuses)
}

func TestApply_ItemRoutedToCaller(t *testing.T) {
	s := NewState()
	res := s.Apply(&Bundle{Item: "rusted key"})

	assert.Equal(t, []string{"rusted key"}, res.Items)
}

func TestTokens(t *testing.T) {
	s := NewState()
	s.Apply(&Bundle{DisarmToken: 1, EscapeToken: 2})

	st := s.Effective()
	assert.True(t, st.HasDisarm)
	assert.True(t, st.HasEscape)

	// Reading the view does not consume.
	st = s.Effective()
	assert.True(t, st.HasDisarm)

	assert.True(t, s.ConsumeDisarm())
	assert.False(t, s.ConsumeDisarm())
	assert.False(t, s.Effective().HasDisarm)

	assert.True(t, s.ConsumeEscape())
	assert.True(t, s.ConsumeEscape())
	assert.False(t, s.ConsumeEscape())
}

func TestAbsorbDamage(t *testing.T) {
	s := NewState()
	s.Apply(&Bundle{Shield: 5})

	assert.Equal(t, 0, s.AbsorbDamage(3))
	assert.Equal(t, 2, s.Effective().Shield)
	assert.Equal(t, 4, s.AbsorbDamage(6))
	assert.Equal(t, 0, s.Effective().Shield)
	assert.Equal(t, 7, s.AbsorbDamage(7))
}

func TestEffective_GoldMultBaseline(t *testing.T) {
	s := NewState()
	assert.InDelta(t, 1.0, s.Effective().GoldMult, 1e-9)

	s.Apply(&Bundle{GoldMult: 0.5, Duration: DurationFloor})
	assert.InDelta(t, 1.5, s.Effective().GoldMult, 1e-9)
}

func TestNormalize_LegacyState(t *testing.T) {
	// Simulates loading legacy persisted state with missing fields.
	var s State
	require.NoError(t, json.Unmarshal([]byte(`{"shield": 2}`), &s))

	s.Normalize()
	s.Apply(&Bundle{CritBonus: 0.1})

	st := s.Effective()
	assert.Equal(t, 2, st.Shield)
	assert.InDelta(t, 0.1, st.CritChance, 1e-9)
	assert.NotNil(t, st.Statuses)
}

func TestBundle_JSONDefaults(t *testing.T) {
	var b Bundle
	require.NoError(t, json.Unmarshal([]byte(`{"crit_bonus": 0.1}`), &b))
	assert.Empty(t, b.Duration)

	s := NewState()
	s.Apply(&b)
	s.ExpireAfterCombat()
	assert.Zero(t, s.Effective().CritChance)
}
