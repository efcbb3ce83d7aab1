package tycoon

import (
	"fmt"
	"math"
	"time"
)

// Tick advances the factory by dt. Spawning runs first, then each candy
// moves, interacts and is retargeted, then strays are discarded. Later
// stages see the results of earlier ones.
func (e Engine) Tick(st *State, now time.Time, dt time.Duration) {
	e.UpdateDroppers(st, now)

	secs := dt.Seconds()
	kept := st.Candies[:0]
	for i := range st.Candies {
		c := st.Candies[i]
		e.Advance(&c, secs)
		if !e.CheckInteractions(st, &c) {
			continue
		}
		e.UpdateCandyPath(st, &c)
		if c.Position.Len() > e.Tuning.DiscardRadius {
			st.Stats.CandiesDiscarded++
			e.emit(Event{Type: EventDiscard, At: now, Message: "candy lost", CandyID: c.ID})
			continue
		}
		kept = append(kept, c)
	}
	for i := len(kept); i < len(st.Candies); i++ {
		st.Candies[i] = Candy{}
	}
	st.Candies = kept

	st.MoneyPerSecond = e.EstimateIncome(st)
	st.Stats.PlayTime += dt
}

// Advance moves one candy along at the configured speed.
func (e Engine) Advance(c *Candy, dt float64) {
	c.Advance(e.Tuning.CandySpeed, dt, e.Tuning.ArriveEpsilon)
}

// UpdateDroppers spawns a candy from every unlocked dropper whose timer has
// elapsed. Once the live set is at the cap further spawns are dropped, not queued.
func (e Engine) UpdateDroppers(st *State, now time.Time) {
	for i := range st.Droppers {
		d := &st.Droppers[i]
		if !d.Unlocked {
			continue
		}
		if len(st.Candies) >= e.Tuning.MaxActiveCandies {
			return
		}
		if now.Sub(d.LastSpawn) <= d.SpawnRate {
			continue
		}

		c := NewCandy(d.Position, d.CandyType, d.CandyValue)
		if conv := st.activeConveyor(); conv != nil {
			c.Target = conv.Waypoints[0]
			c.PathIndex = 0
		} else if s := st.firstSeller(); s != nil {
			c.Target = s.Position
		}
		st.Candies = append(st.Candies, c)
		st.Stats.CandiesCreated++
		d.LastSpawn = now
	}
}

// CheckInteractions applies upgraders, fusers and sellers within reach of c.
// It returns false when the candy left the live set (sold or held by a
// fuser); the caller drops it.
func (e Engine) CheckInteractions(st *State, c *Candy) bool {
	e.applyUpgrade(st, c)
	if !e.applyFusers(st, c) {
		return false
	}
	return !e.trySell(st, c)
}

// applyUpgrade applies the first qualifying upgrader in catalog order. List
// order is the tie-break, not distance.
func (e Engine) applyUpgrade(st *State, c *Candy) {
	for i := range st.Upgraders {
		u := &st.Upgraders[i]
		if !u.Unlocked || c.HasProcessed(u.ID) || !u.Accepts(c.Type) {
			continue
		}
		if c.Position.Dist(u.Position) >= e.Tuning.UpgradeRadius {
			continue
		}
		c.Value *= u.Multiplier
		c.markProcessed(u.ID)
		if to, ok := u.Transforms[c.Type]; ok {
			c.Type = to
		}
		st.Stats.CandiesUpgraded++
		e.emit(Event{
			Type:      EventUpgrade,
			Message:   fmt.Sprintf("%s x%g", u.ID, u.Multiplier),
			StationID: u.ID,
			CandyID:   c.ID,
		})
		return
	}
}

func (e Engine) applyFusers(st *State, c *Candy) bool {
	for i := range st.Fusers {
		f := &st.Fusers[i]
		if !f.Unlocked || c.HasProcessed(f.ID) {
			continue
		}
		if c.Position.Dist(f.Position) >= e.Tuning.FuseRadius {
			continue
		}

		if f.Pending == nil {
			c.markProcessed(f.ID)
			if !f.Consumes(c.Type) {
				continue
			}
			held := c.clone()
			f.Pending = &held
			return false
		}

		r, ok := f.Match(f.Pending.Type, c.Type)
		c.markProcessed(f.ID)
		if !ok {
			continue
		}
		for id := range f.Pending.Processed {
			c.markProcessed(id)
		}
		c.Value = (c.Value + f.Pending.Value) * r.ValueMultiplier
		c.Type = r.Output
		f.Pending = nil
		st.Stats.CandiesFused++
		e.emit(Event{
			Type:      EventFuse,
			Message:   "fused " + r.Output,
			StationID: f.ID,
			CandyID:   c.ID,
		})
	}
	return true
}

func (e Engine) trySell(st *State, c *Candy) bool {
	for i := range st.Sellers {
		s := &st.Sellers[i]
		if !s.Unlocked || c.Position.Dist(s.Position) >= e.Tuning.SellRadius {
			continue
		}
		sale := int64(math.Floor(c.Value * s.SellMultiplier * st.RebirthMultiplier))
		st.Money += sale
		st.Stats.CandiesSold++
		st.Stats.TotalMoneyEarned += sale
		e.emit(Event{
			Type:      EventSale,
			Message:   fmt.Sprintf("+$%d", sale),
			Amount:    sale,
			StationID: s.ID,
			CandyID:   c.ID,
		})
		return true
	}
	return false
}

// UpdateCandyPath picks the next target for c. Without a conveyor candies
// head straight for the first seller. On a conveyor they follow waypoints in
// path order and leave the last one for the nearest seller.
func (e Engine) UpdateCandyPath(st *State, c *Candy) {
	conv := st.activeConveyor()
	if conv == nil {
		c.PathIndex = offPath
		if s := st.firstSeller(); s != nil {
			c.Target = s.Position
		}
		return
	}

	wp := conv.Waypoints
	if c.PathIndex == offPath {
		c.PathIndex = nearestWaypoint(wp, c.Position)
		c.Target = wp[c.PathIndex]
		return
	}
	if c.Position.Dist(c.Target) >= e.Tuning.WaypointRadius {
		return
	}
	if next := c.PathIndex + 1; next < len(wp) {
		c.PathIndex = next
		c.Target = wp[next]
		return
	}
	c.PathIndex = len(wp)
	if s := st.nearestSeller(c.Position); s != nil {
		c.Target = s.Position
	}
}

func nearestWaypoint(wp []Vec2, p Vec2) int {
	best := 0
	bestDist := math.Inf(1)
	for i, w := range wp {
		if d := p.Dist(w); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
