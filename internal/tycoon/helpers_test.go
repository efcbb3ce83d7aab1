package tycoon

import (
	"time"
)

var t0 = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

// lineLayout is a straight production line along the X axis, modelled on the
// default candy factory.
func lineLayout() Layout {
	return Layout{
		Name: "line",
		Droppers: []Dropper{
			{ID: "basic_dropper", Position: Vec2{X: -8}, SpawnRate: 2 * time.Second, CandyType: "sugar", CandyValue: 1},
		},
		Upgraders: []Upgrader{
			{ID: "caramel_coater", Position: Vec2{X: -6}, Multiplier: 2, Upgrades: []string{"sugar"}, Transforms: map[string]string{"sugar": "caramel"}},
			{ID: "chocolate_dipper", Position: Vec2{X: -4}, Multiplier: 3, Upgrades: []string{"sugar", "caramel"}, Transforms: map[string]string{"sugar": "chocolate", "caramel": "chocolate"}},
			{ID: "sprinkle_adder", Position: Vec2{X: -2}, Multiplier: 5, Upgrades: []string{AllTypes}},
		},
		Conveyors: []Conveyor{
			{ID: "basic_conveyor", Waypoints: []Vec2{{X: -7}, {X: -5}, {X: -3}, {X: -1}, {X: 1}, {X: 3}, {X: 5}}},
		},
		Sellers: []Seller{
			{ID: "candy_stand", Position: Vec2{X: 6}, SellMultiplier: 1},
			{ID: "candy_shop", Position: Vec2{X: 6, Z: 2}, SellMultiplier: 2},
		},
		Fusers: []Fuser{
			{ID: "candy_mixer", Position: Vec2{Z: -3}, Recipes: []Recipe{
				{Inputs: [2]string{"sugar", "sugar"}, Output: "hard_candy", ValueMultiplier: 3},
				{Inputs: [2]string{"caramel", "chocolate"}, Output: "truffle", ValueMultiplier: 8},
			}},
		},
		Offers: []Offer{
			{ID: "first_dropper", Name: "Sugar Dropper", Cost: 0, Kind: KindDropper, Target: "basic_dropper"},
			{ID: "first_conveyor", Name: "Conveyor Belt", Cost: 25, Kind: KindConveyor, Target: "basic_conveyor"},
			{ID: "caramel_upgrade", Name: "Caramel Coating", Cost: 50, Kind: KindUpgrader, Target: "caramel_coater"},
			{ID: "first_seller", Name: "Candy Stand", Cost: 100, Kind: KindSeller, Target: "candy_stand"},
			{ID: "chocolate_upgrade", Name: "Chocolate Dipper", Cost: 200, Kind: KindUpgrader, Target: "chocolate_dipper"},
			{ID: "sprinkle_upgrade", Name: "Sprinkle Station", Cost: 1000, Kind: KindUpgrader, Target: "sprinkle_adder"},
			{ID: "candy_shop_seller", Name: "Candy Shop", Cost: 2500, Kind: KindSeller, Target: "candy_shop"},
			{ID: "candy_mixer_unlock", Name: "Fusion Lab", Cost: 10000, Kind: KindFuser, Target: "candy_mixer"},
			{ID: "first_rebirth", Name: "Rebirth Portal", Cost: 1_000_000, Kind: KindRebirth, Target: "rebirth"},
		},
	}
}

type recorder struct {
	events []Event
}

func (r *recorder) notify(ev Event) { r.events = append(r.events, ev) }

func (r *recorder) count(t EventType) int {
	n := 0
	for _, ev := range r.events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

func newTestEngine() (Engine, *FakeClock, *recorder) {
	clk := NewFakeClock(t0)
	rec := &recorder{}
	e := NewEngine(DefaultTuning(), clk)
	e.Notify = rec.notify
	return e, clk, rec
}

// runFrames ticks the factory at 60 Hz until done reports true or the frame budget runs out.
func runFrames(e Engine, clk *FakeClock, st *State, frames int, done func() bool) int {
	const frame = time.Second / 60
	for i := 0; i < frames; i++ {
		e.Tick(st, clk.Now(), frame)
		clk.Advance(frame)
		if done != nil && done() {
			return i + 1
		}
	}
	return frames
}

func unlockedStations(st *State) []string {
	var out []string
	for _, d := range st.Droppers {
		if d.Unlocked {
			out = append(out, d.ID)
		}
	}
	for _, u := range st.Upgraders {
		if u.Unlocked {
			out = append(out, u.ID)
		}
	}
	for _, c := range st.Conveyors {
		if c.Unlocked {
			out = append(out, c.ID)
		}
	}
	for _, s := range st.Sellers {
		if s.Unlocked {
			out = append(out, s.ID)
		}
	}
	for _, f := range st.Fusers {
		if f.Unlocked {
			out = append(out, f.ID)
		}
	}
	return out
}
