package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/crawl-engine/pkg/rng"
)

const validCatalog = `[
	{
		"id": 1,
		"name": "Mossy Antechamber",
		"difficulty": "Easy",
		"threats": ["cave rat"],
		"history": "An old entry hall.",
		"flavor": "Water drips from the ceiling.",
		"discoverables": ["wooden chest"],
		"tags": ["combat"]
	},
	{
		"id": 2,
		"name": "Scribe Alcove",
		"difficulty": "Easy",
		"threats": [],
		"history": "Monks copied ledgers here.",
		"flavor": "Dust motes hang in pale light.",
		"discoverables": ["lectern"],
		"tags": ["lore", "rest"]
	},
	{
		"id": 3,
		"name": "Gilded Vault",
		"difficulty": "Elite",
		"threats": ["vault warden"],
		"history": "Sealed since the collapse.",
		"flavor": "Gold leaf peels from the walls.",
		"discoverables": ["strongbox"],
		"mechanics": {"on_clear": {"gold_mult": 0.5, "duration": "floor"}}
	}
]`

func TestLoad_Valid(t *testing.T) {
	c, err := Load(strings.NewReader(validCatalog))
	require.NoError(t, err)
	require.Len(t, c, 3)

	assert.Equal(t, "Mossy Antechamber", c[0].Name)
	assert.Equal(t, TierElite, c[2].Difficulty)
	require.NotNil(t, c[2].Mechanics)
	require.NotNil(t, c[2].Mechanics.OnClear)
	assert.InDelta(t, 0.5, c[2].Mechanics.OnClear.GoldMult, 1e-9)
	assert.True(t, c[1].HasTag("lore"))
	assert.Nil(t, c.ByID(99))
	assert.Equal(t, "Gilded Vault", c.ByID(3).Name)
}

func TestLoad_NotAList(t *testing.T) {
	_, err := Load(strings.NewReader(`{"id": 1}`))
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, -1, le.Record)
}

func TestLoad_MissingRequiredField(t *testing.T) {
	// Record 1 lacks "flavor"; the whole load must fail.
	src := `[
		{"id": 1, "name": "a", "difficulty": "Easy", "threats": [], "history": "h", "flavor": "f", "discoverables": []},
		{"id": 2, "name": "b", "difficulty": "Easy", "threats": [], "history": "h", "discoverables": []}
	]`
	c, err := Load(strings.NewReader(src))
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, 1, le.Record)
	assert.Contains(t, le.Error(), "flavor")
	assert.Nil(t, c, "no partial catalog may be exposed")
}

func TestLoad_EmptyListsSatisfyRequiredFields(t *testing.T) {
	src := `[{"id": 1, "name": "a", "difficulty": "Easy", "threats": [], "history": "", "flavor": "", "discoverables": []}]`
	c, err := Load(strings.NewReader(src))
	require.NoError(t, err)
	assert.Len(t, c, 1)
}

func TestLoad_BadDifficulty(t *testing.T) {
	src := `[{"id": 1, "name": "a", "difficulty": "Legendary", "threats": [], "history": "h", "flavor": "f", "discoverables": []}]`
	_, err := Load(strings.NewReader(src))
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Contains(t, le.Error(), "Legendary")
}

func TestLoad_BadMechanicsDuration(t *testing.T) {
	// An unrecognized lifetime tag would skip both expiry points and act as
	// an accidental permanent effect, so the load must reject it.
	src := `[{
		"id": 1, "name": "a", "difficulty": "Easy", "threats": [], "history": "h", "flavor": "f", "discoverables": [],
		"mechanics": {"on_clear": {"crit_bonus": 0.1, "duration": "weekly"}}
	}]`
	c, err := Load(strings.NewReader(src))
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, 0, le.Record)
	assert.Contains(t, le.Error(), "weekly")
	assert.Contains(t, le.Error(), "on_clear")
	assert.Nil(t, c)
}

func TestLoad_EmptyDurationDefaultsAllowed(t *testing.T) {
	// A bundle with no duration tag defaults to combat at apply time; the
	// loader must not reject it.
	src := `[{
		"id": 1, "name": "a", "difficulty": "Easy", "threats": [], "history": "h", "flavor": "f", "discoverables": [],
		"mechanics": {"on_enter": {"shield": 4}, "on_fail": {"status": "poisoned", "duration": "floor"}}
	}]`
	c, err := Load(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, c, 1)
}

func TestLoad_DuplicateID(t *testing.T) {
	src := `[
		{"id": 1, "name": "a", "difficulty": "Easy", "threats": [], "history": "h", "flavor": "f", "discoverables": []},
		{"id": 1, "name": "b", "difficulty": "Easy", "threats": [], "history": "h", "flavor": "f", "discoverables": []}
	]`
	_, err := Load(strings.NewReader(src))
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, 1, le.Record)
}

func TestTierForFloor(t *testing.T) {
	tests := []struct {
		floor    int
		expected Tier
	}{
		{1, TierEasy},
		{3, TierEasy},
		{4, TierMedium},
		{6, TierMedium},
		{7, TierHard},
		{9, TierHard},
		{10, TierElite},
		{12, TierElite},
		{13, TierElite},
		{14, TierElite},
		{15, TierBoss},
		{16, TierElite},
		{18, TierBoss},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, TierForFloor(tt.floor), "floor %d", tt.floor)
	}
}

// stubSource returns queued values, so the 20% bias branch can be forced.
type stubSource struct {
	ints   []int
	floats []float64
}

func (s *stubSource) IntInRange(lo, hi int) int {
	if len(s.ints) == 0 {
		return lo
	}
	v := s.ints[0]
	s.ints = s.ints[1:]
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	return v
}

func (s *stubSource) Float64() float64 {
	if len(s.floats) == 0 {
		return 0.99
	}
	v := s.floats[0]
	s.floats = s.floats[1:]
	return v
}

func (s *stubSource) Shuffle(n int, swap func(i, j int)) {}

func TestPickForFloor_TierFilter(t *testing.T) {
	c, err := Load(strings.NewReader(validCatalog))
	require.NoError(t, err)

	// Bias draw misses (0.99), pick index 0 of the Easy pool.
	src := &stubSource{floats: []float64{0.99}, ints: []int{0}}
	rt, err := c.PickForFloor(1, src)
	require.NoError(t, err)
	assert.Equal(t, TierEasy, rt.Difficulty)
}

func TestPickForFloor_FallbackToWholeCatalog(t *testing.T) {
	c, err := Load(strings.NewReader(validCatalog))
	require.NoError(t, err)

	// No Medium rooms exist; floor 5 must fall back to the entire catalog,
	// never an empty pool.
	src := &stubSource{floats: []float64{0.99}, ints: []int{2}}
	rt, err := c.PickForFloor(5, src)
	require.NoError(t, err)
	assert.Equal(t, "Gilded Vault", rt.Name)
}

func TestPickForFloor_QuietBias(t *testing.T) {
	c, err := Load(strings.NewReader(validCatalog))
	require.NoError(t, err)

	// Bias draw hits (0.1 < 0.2): pool narrows to the lore/rest room.
	src := &stubSource{floats: []float64{0.1}, ints: []int{0}}
	rt, err := c.PickForFloor(1, src)
	require.NoError(t, err)
	assert.Equal(t, "Scribe Alcove", rt.Name)
}

func TestPickForFloor_QuietBiasKeepsPoolWhenEmpty(t *testing.T) {
	src := `[{"id": 1, "name": "a", "difficulty": "Easy", "threats": [], "history": "h", "flavor": "f", "discoverables": [], "tags": ["combat"]}]`
	c, err := Load(strings.NewReader(src))
	require.NoError(t, err)

	stub := &stubSource{floats: []float64{0.1}, ints: []int{0}}
	rt, err := c.PickForFloor(1, stub)
	require.NoError(t, err)
	assert.Equal(t, "a", rt.Name)
}

func TestPickForFloor_EmptyCatalog(t *testing.T) {
	var c Catalog
	_, err := c.PickForFloor(1, rng.NewSeeded(1))
	assert.ErrorIs(t, err, ErrEmptyCatalog)
}

func TestPickForFloor_Deterministic(t *testing.T) {
	c, err := Load(strings.NewReader(validCatalog))
	require.NoError(t, err)

	a := rng.NewSeeded(42)
	b := rng.NewSeeded(42)
	for i := 0; i < 50; i++ {
		ra, err := c.PickForFloor(1+i%15, a)
		require.NoError(t, err)
		rb, err := c.PickForFloor(1+i%15, b)
		require.NoError(t, err)
		assert.Equal(t, ra.ID, rb.ID)
	}
}
