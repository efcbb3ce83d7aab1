package tycoon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebirth_RefusedBelowCost(t *testing.T) {
	e, _, rec := newTestEngine()
	st := e.NewState(lineLayout())
	st.Money = 999_999
	before := st.Clone()

	assert.False(t, st.CanRebirth())
	assert.False(t, e.Rebirth(st))
	assert.Equal(t, before, st)
	assert.Equal(t, 0, rec.count(EventRebirth))
}

func TestRebirth_ResetsProgressAndRaisesMultiplier(t *testing.T) {
	e, clk, rec := newTestEngine()
	st := e.NewState(lineLayout())
	st.Money = 2_000_000
	for _, id := range []string{"first_conveyor", "caramel_upgrade", "first_seller"} {
		require.True(t, e.Purchase(st, id))
	}
	runFrames(e, clk, st, 30, nil)
	require.NotEmpty(t, st.Candies)

	st.Money = 1_000_000
	require.True(t, e.Rebirth(st))

	assert.Equal(t, 1, st.Rebirths)
	assert.Equal(t, 1, st.Stats.Rebirths)
	assert.InDelta(t, 1.5, st.RebirthMultiplier, 1e-9)
	assert.Equal(t, int64(10_000_000), st.RebirthCost)
	assert.Equal(t, int64(100), st.Money)
	assert.Empty(t, st.Candies)
	assert.Zero(t, st.MoneyPerSecond)

	assert.Equal(t, []string{"basic_dropper"}, unlockedStations(st))
	assert.True(t, st.Offers[0].Purchased)
	assert.True(t, st.Offers[1].Unlocked)
	for _, o := range st.Offers[1:] {
		assert.False(t, o.Purchased, o.ID)
	}
	for _, o := range st.Offers[2:] {
		assert.False(t, o.Unlocked, o.ID)
	}
	assert.Equal(t, 1, rec.count(EventRebirth))
}

func TestRebirth_CostGrowsGeometrically(t *testing.T) {
	e, _, _ := newTestEngine()
	st := e.NewState(lineLayout())

	st.Money = 1_000_000
	require.True(t, e.Rebirth(st))
	st.Money = 9_999_999
	assert.False(t, e.Rebirth(st))
	st.Money = 10_000_000
	require.True(t, e.Rebirth(st))

	assert.Equal(t, 2, st.Rebirths)
	assert.InDelta(t, 2.0, st.RebirthMultiplier, 1e-9)
	assert.Equal(t, int64(100_000_000), st.RebirthCost)
}

func TestRebirth_MultiplierScalesSales(t *testing.T) {
	e, _, _ := newTestEngine()
	st := e.NewState(lineLayout())
	st.Money = 1_000_000
	require.True(t, e.Rebirth(st))
	require.True(t, st.setUnlocked(KindSeller, "candy_stand", true))

	c := NewCandy(Vec2{X: 6}, "sugar", 3)
	assert.False(t, e.CheckInteractions(st, &c))
	// floor(3 * 1.0 * 1.5)
	assert.Equal(t, int64(104), st.Money)
}
