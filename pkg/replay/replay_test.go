package replay

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/crawl-engine/pkg/catalog"
)

const testCatalog = `[
	{"id": 1, "name": "Dim Passage", "difficulty": "Easy", "threats": [], "history": "h", "flavor": "Cold air moves through.", "discoverables": ["crate"]},
	{"id": 2, "name": "Rat Warren", "difficulty": "Easy", "threats": ["cave rat"], "history": "h", "flavor": "Droppings everywhere.", "discoverables": [], "tags": ["combat"]},
	{"id": 3, "name": "Quiet Well", "difficulty": "Easy", "threats": [], "history": "h", "flavor": "Still water reflects nothing.", "discoverables": ["bucket"], "tags": ["rest"]}
]`

func mustCatalog(t *testing.T) catalog.Catalog {
	t.Helper()
	c, err := catalog.Load(strings.NewReader(testCatalog))
	require.NoError(t, err)
	return c
}

func TestRun_UnknownScenario(t *testing.T) {
	_, err := Run("no-such-scenario", 1, mustCatalog(t))
	assert.ErrorContains(t, err, "unknown scenario")
}

func TestRun_RecordShape(t *testing.T) {
	rec, err := Run("north-by-three", 42, mustCatalog(t))
	require.NoError(t, err)

	assert.Equal(t, "north-by-three", rec.ScenarioID)
	assert.Equal(t, uint64(42), rec.Seed)
	assert.NotEmpty(t, rec.Actions)
	assert.NotEmpty(t, rec.Log)

	var initial, final map[string]any
	require.NoError(t, json.Unmarshal(rec.InitialState, &initial))
	require.NoError(t, json.Unmarshal(rec.FinalState, &final))
	assert.Equal(t, float64(1), initial["floor"])
}

func TestRun_SameSeedSameRecord(t *testing.T) {
	a, err := Run("north-by-three", 42, mustCatalog(t))
	require.NoError(t, err)
	b, err := Run("north-by-three", 42, mustCatalog(t))
	require.NoError(t, err)

	ja, err := json.Marshal(a)
	require.NoError(t, err)
	jb, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Equal(t, string(ja), string(jb), "same scenario and seed must replay byte for byte")
}

func TestRun_DifferentSeedsDiverge(t *testing.T) {
	a, err := Run("stair-hunt", 1, mustCatalog(t))
	require.NoError(t, err)
	b, err := Run("stair-hunt", 2, mustCatalog(t))
	require.NoError(t, err)

	ja, _ := json.Marshal(a)
	jb, _ := json.Marshal(b)
	assert.NotEqual(t, string(ja), string(jb))
}

func TestScenarioIDs(t *testing.T) {
	ids := ScenarioIDs()
	assert.Contains(t, ids, "north-by-three")
	assert.Contains(t, ids, "stair-hunt")
}
