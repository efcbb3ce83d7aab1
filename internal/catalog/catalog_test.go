package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"candyworks/internal/tycoon"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltin_CandyFactory(t *testing.T) {
	l, err := Builtin(Default)
	require.NoError(t, err)

	assert.Equal(t, "candy_factory", l.Name)
	require.Len(t, l.Droppers, 1)
	assert.Equal(t, 2*time.Second, l.Droppers[0].SpawnRate)
	assert.Equal(t, tycoon.Vec2{X: -8}, l.Droppers[0].Position)

	require.Len(t, l.Upgraders, 6)
	assert.Equal(t, "caramel_coater", l.Upgraders[0].ID)
	assert.Equal(t, "caramel", l.Upgraders[0].Transforms["sugar"])
	assert.Equal(t, 100.0, l.Upgraders[5].Multiplier)
	assert.True(t, l.Upgraders[2].Accepts("anything"))

	require.Len(t, l.Conveyors, 1)
	assert.Len(t, l.Conveyors[0].Waypoints, 7)
	assert.Len(t, l.Sellers, 4)

	require.Len(t, l.Fusers, 1)
	r, ok := l.Fusers[0].Match("chocolate", "caramel")
	require.True(t, ok)
	assert.Equal(t, "truffle", r.Output)

	require.Len(t, l.Offers, 14)
	assert.Equal(t, "first_dropper", l.Offers[0].ID)
	assert.Zero(t, l.Offers[0].Cost)
	assert.Equal(t, tycoon.KindRebirth, l.Offers[13].Kind)
	assert.Equal(t, int64(1_000_000), l.Offers[13].Cost)
	for i := 1; i < len(l.Offers); i++ {
		assert.Greater(t, l.Offers[i].Cost, l.Offers[i-1].Cost, l.Offers[i].ID)
	}
}

func TestBuiltin_AllNamesLoad(t *testing.T) {
	names := Names()
	assert.Equal(t, []string{"candy_factory", "legacy_floors"}, names)
	for _, name := range names {
		l, err := Builtin(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, l.Name)
	}

	_, err := Builtin("chocolate_river")
	assert.Error(t, err)
}

func TestBuiltin_LegacyFloorsRunsOnEngine(t *testing.T) {
	l, err := Builtin("legacy_floors")
	require.NoError(t, err)

	e := tycoon.NewEngine(tycoon.DefaultTuning(), tycoon.NewFakeClock(time.Now()))
	st := e.NewState(l)
	assert.True(t, st.IsUnlocked(tycoon.KindDropper, "sugar_machine"))
	next, ok := st.NextOffer()
	require.True(t, ok)
	assert.Equal(t, "belt", next.ID)
}

const tinyCatalog = `
name: tiny
droppers:
  - { id: d, position: { x: 0, z: 0 }, spawn_rate_ms: 500, candy_type: sugar, candy_value: 1 }
sellers:
  - { id: s, position: { x: 2, z: 0 }, sell_multiplier: 1 }
offers:
  - { id: o1, name: Dropper, cost: 0, kind: dropper, target: d }
  - { id: o2, name: Seller, cost: 10, kind: seller, target: s }
`

func TestLoad_FromFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "tiny.yml")
	require.NoError(t, os.WriteFile(p, []byte(tinyCatalog), 0o644))

	l, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "tiny", l.Name)
	assert.Equal(t, 500*time.Millisecond, l.Droppers[0].SpawnRate)

	same, err := Resolve("ignored", p)
	require.NoError(t, err)
	assert.Equal(t, l, same)

	def, err := Resolve("", "")
	require.NoError(t, err)
	assert.Equal(t, Default, def.Name)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParse_RejectsBrokenCatalogs(t *testing.T) {
	cases := map[string]string{
		"bad yaml": "name: [",
		"no name": `
offers:
  - { id: o1, name: X, cost: 0, kind: rebirth, target: rebirth }
`,
		"no offers": "name: empty\n",
		"unknown kind": `
name: x
offers:
  - { id: o1, name: X, cost: 0, kind: teleporter, target: t }
`,
		"offer targets missing station": `
name: x
offers:
  - { id: o1, name: X, cost: 0, kind: dropper, target: ghost }
`,
		"station without offer": `
name: x
sellers:
  - { id: s, position: { x: 0, z: 0 }, sell_multiplier: 1 }
offers:
  - { id: o1, name: X, cost: 0, kind: rebirth, target: rebirth }
`,
		"station sold twice": `
name: x
sellers:
  - { id: s, position: { x: 0, z: 0 }, sell_multiplier: 1 }
offers:
  - { id: o1, name: X, cost: 0, kind: seller, target: s }
  - { id: o2, name: Y, cost: 5, kind: seller, target: s }
`,
		"duplicate offer": `
name: x
offers:
  - { id: o1, name: X, cost: 0, kind: rebirth, target: rebirth }
  - { id: o1, name: Y, cost: 5, kind: rebirth, target: rebirth }
`,
		"upgrader below one": `
name: x
upgraders:
  - { id: u, position: { x: 0, z: 0 }, multiplier: 0.5, upgrades: [all] }
offers:
  - { id: o1, name: X, cost: 0, kind: upgrader, target: u }
`,
		"dropper without rate": `
name: x
droppers:
  - { id: d, position: { x: 0, z: 0 }, candy_type: sugar, candy_value: 1 }
offers:
  - { id: o1, name: X, cost: 0, kind: dropper, target: d }
`,
		"empty conveyor": `
name: x
conveyors:
  - { id: c }
offers:
  - { id: o1, name: X, cost: 0, kind: conveyor, target: c }
`,
		"three input recipe": `
name: x
fusers:
  - id: f
    position: { x: 0, z: 0 }
    recipes:
      - { inputs: [a, b, c], output: d, value_multiplier: 2 }
offers:
  - { id: o1, name: X, cost: 0, kind: fuser, target: f }
`,
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			require.Error(t, err)
			if name != "bad yaml" {
				assert.ErrorIs(t, err, ErrInvalid)
			}
		})
	}
}
