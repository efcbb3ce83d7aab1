package tycoon

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTick_SpawnAndSellWithoutConveyor(t *testing.T) {
	e, clk, rec := newTestEngine()
	st := e.NewState(Layout{
		Name: "stand",
		Droppers: []Dropper{
			{ID: "d", SpawnRate: 2000 * time.Millisecond, CandyType: "sugar", CandyValue: 1},
		},
		Sellers: []Seller{{ID: "s", Position: Vec2{X: 3}, SellMultiplier: 1}},
		Offers: []Offer{
			{ID: "o1", Name: "Dropper", Kind: KindDropper, Target: "d"},
			{ID: "o2", Name: "Stand", Kind: KindSeller, Target: "s"},
		},
	})
	require.True(t, e.Purchase(st, "o2"))
	require.Equal(t, int64(100), st.Money)

	e.Tick(st, clk.Now(), 0)
	require.Len(t, st.Candies, 1)
	assert.Equal(t, Vec2{X: 3}, st.Candies[0].Target)

	runFrames(e, clk, st, 600, func() bool { return st.Stats.CandiesSold == 1 })

	assert.Equal(t, 1, st.Stats.CandiesSold)
	assert.Equal(t, int64(101), st.Money)
	assert.Empty(t, st.Candies)
	assert.Equal(t, 1, st.Stats.CandiesCreated)
	assert.Equal(t, 1, rec.count(EventSale))
}

func TestTick_FullLineUpgradesInPathOrder(t *testing.T) {
	e, clk, rec := newTestEngine()
	st := e.NewState(lineLayout())
	require.True(t, st.setUnlocked(KindConveyor, "basic_conveyor", true))
	for _, id := range []string{"caramel_coater", "chocolate_dipper", "sprinkle_adder"} {
		require.True(t, st.setUnlocked(KindUpgrader, id, true))
	}
	require.True(t, st.setUnlocked(KindSeller, "candy_stand", true))
	require.True(t, st.setUnlocked(KindSeller, "candy_shop", true))
	start := st.Money

	e.Tick(st, clk.Now(), 0)
	require.Len(t, st.Candies, 1)
	first := st.Candies[0].ID
	assert.Equal(t, 0, st.Candies[0].PathIndex)
	assert.Equal(t, Vec2{X: -7}, st.Candies[0].Target)

	lastIndex := 0
	runFrames(e, clk, st, 1000, func() bool {
		for _, c := range st.Candies {
			if c.ID == first {
				assert.GreaterOrEqual(t, c.PathIndex, lastIndex)
				lastIndex = c.PathIndex
			}
		}
		return st.Stats.CandiesSold == 1
	})

	require.Equal(t, 1, st.Stats.CandiesSold)
	// sugar x2 (caramel) x3 (chocolate) x5, sold at the stand nearest the belt end
	assert.Equal(t, start+30, st.Money)

	var sale Event
	upgrades := 0
	for _, ev := range rec.events {
		if ev.CandyID != first {
			continue
		}
		switch ev.Type {
		case EventUpgrade:
			upgrades++
		case EventSale:
			sale = ev
		}
	}
	assert.Equal(t, 3, upgrades)
	assert.Equal(t, "candy_stand", sale.StationID)
	assert.Equal(t, first, sale.CandyID)
}

func TestTick_RespectsCandyCap(t *testing.T) {
	e, clk, _ := newTestEngine()
	l := Layout{Name: "flood"}
	for _, id := range []string{"a", "b", "c", "d"} {
		l.Droppers = append(l.Droppers, Dropper{ID: id, SpawnRate: 100 * time.Millisecond, CandyType: "sugar", CandyValue: 1})
		l.Offers = append(l.Offers, Offer{ID: "buy_" + id, Kind: KindDropper, Target: id})
	}
	st := e.NewState(l)
	for _, id := range []string{"buy_b", "buy_c", "buy_d"} {
		require.True(t, e.Purchase(st, id))
	}

	runFrames(e, clk, st, 600, func() bool {
		assert.LessOrEqual(t, len(st.Candies), e.Tuning.MaxActiveCandies)
		return false
	})
	assert.Len(t, st.Candies, e.Tuning.MaxActiveCandies)
	assert.Equal(t, e.Tuning.MaxActiveCandies, st.Stats.CandiesCreated)
}

func TestUpdateDroppers_WaitsForSpawnRate(t *testing.T) {
	e, _, _ := newTestEngine()
	st := e.NewState(lineLayout())

	e.UpdateDroppers(st, t0)
	require.Len(t, st.Candies, 1)
	assert.Equal(t, offPath, st.Candies[0].PathIndex)

	e.UpdateDroppers(st, t0.Add(2*time.Second))
	assert.Len(t, st.Candies, 1)

	e.UpdateDroppers(st, t0.Add(2*time.Second+time.Millisecond))
	assert.Len(t, st.Candies, 2)
}

func TestUpdateCandyPath_JoinsBeltAtNearestWaypoint(t *testing.T) {
	e, _, _ := newTestEngine()
	st := e.NewState(lineLayout())

	c := NewCandy(Vec2{X: 0.8}, "sugar", 1)
	e.UpdateCandyPath(st, &c)
	assert.Equal(t, offPath, c.PathIndex)
	assert.Equal(t, Vec2{X: 0.8}, c.Target)

	require.True(t, st.setUnlocked(KindConveyor, "basic_conveyor", true))
	e.UpdateCandyPath(st, &c)
	assert.Equal(t, 4, c.PathIndex)
	assert.Equal(t, Vec2{X: 1}, c.Target)

	c.Position = Vec2{X: 0.9}
	e.UpdateCandyPath(st, &c)
	assert.Equal(t, 5, c.PathIndex)
	assert.Equal(t, Vec2{X: 3}, c.Target)
}

func TestUpdateCandyPath_LeavesBeltForNearestSeller(t *testing.T) {
	e, _, _ := newTestEngine()
	st := e.NewState(lineLayout())
	require.True(t, st.setUnlocked(KindConveyor, "basic_conveyor", true))
	require.True(t, st.setUnlocked(KindSeller, "candy_shop", true))
	require.True(t, st.setUnlocked(KindSeller, "candy_stand", true))

	c := NewCandy(Vec2{X: 5}, "sugar", 1)
	c.PathIndex = 6
	c.Target = Vec2{X: 5}
	e.UpdateCandyPath(st, &c)

	assert.Equal(t, 7, c.PathIndex)
	assert.Equal(t, Vec2{X: 6}, c.Target)
}

func TestTick_DiscardsStrays(t *testing.T) {
	e, clk, rec := newTestEngine()
	st := e.NewState(lineLayout())
	stray := NewCandy(Vec2{X: 25}, "sugar", 1)
	st.Candies = append(st.Candies, stray)

	e.Tick(st, clk.Now(), time.Second/60)

	for _, c := range st.Candies {
		assert.NotEqual(t, stray.ID, c.ID)
	}
	assert.Equal(t, 1, st.Stats.CandiesDiscarded)
	assert.Equal(t, 1, rec.count(EventDiscard))
}

func TestTick_RefreshesIncomeEstimateAndPlayTime(t *testing.T) {
	e, clk, _ := newTestEngine()
	st := e.NewState(Layout{Name: "empty"})
	st.Candies = []Candy{NewCandy(Vec2{}, "a", 10), NewCandy(Vec2{}, "b", 25)}

	e.Tick(st, clk.Now(), 500*time.Millisecond)

	assert.Equal(t, int64(3), st.MoneyPerSecond)
	assert.Equal(t, 500*time.Millisecond, st.Stats.PlayTime)
}
