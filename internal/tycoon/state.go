package tycoon

import (
	"math"
	"time"
)

// State is the whole economy of one factory. It is owned by a single
// controller and only mutated through Engine methods.
type State struct {
	Layout string `json:"layout"`
	Money  int64  `json:"money"`

	Droppers  []Dropper  `json:"droppers"`
	Upgraders []Upgrader `json:"upgraders"`
	Conveyors []Conveyor `json:"conveyors"`
	Sellers   []Seller   `json:"sellers"`
	Fusers    []Fuser    `json:"fusers"`
	Offers    []Offer    `json:"offers"`

	Rebirths          int     `json:"rebirths"`
	RebirthMultiplier float64 `json:"rebirth_multiplier"`
	RebirthCost       int64   `json:"rebirth_cost"`

	Candies        []Candy   `json:"candies"`
	MoneyPerSecond int64     `json:"money_per_second"`
	LastCollect    time.Time `json:"last_collect"`

	Stats Stats `json:"stats"`
}

type Stats struct {
	TotalMoneyEarned int64         `json:"total_money_earned"`
	CandiesCreated   int           `json:"candies_created"`
	CandiesSold      int           `json:"candies_sold"`
	CandiesUpgraded  int           `json:"candies_upgraded"`
	CandiesFused     int           `json:"candies_fused"`
	CandiesDiscarded int           `json:"candies_discarded"`
	Rebirths         int           `json:"rebirths"`
	PlayTime         time.Duration `json:"play_time"`
}

func newState(l Layout, t Tuning) *State {
	st := &State{
		Layout:            l.Name,
		Money:             t.StartMoney,
		Droppers:          append([]Dropper(nil), l.Droppers...),
		Upgraders:         make([]Upgrader, len(l.Upgraders)),
		Conveyors:         make([]Conveyor, len(l.Conveyors)),
		Sellers:           append([]Seller(nil), l.Sellers...),
		Fusers:            make([]Fuser, len(l.Fusers)),
		Offers:            append([]Offer(nil), l.Offers...),
		RebirthMultiplier: 1,
		RebirthCost:       t.RebirthBaseCost,
		Candies:           []Candy{},
		Stats:             Stats{TotalMoneyEarned: t.StartMoney},
	}
	for i, u := range l.Upgraders {
		st.Upgraders[i] = cloneUpgrader(u)
	}
	for i, c := range l.Conveyors {
		st.Conveyors[i] = cloneConveyor(c)
	}
	for i, f := range l.Fusers {
		st.Fusers[i] = cloneFuser(f)
	}
	st.lockAll()
	st.resetOffers()
	return st
}

// Clone returns a deep copy that shares nothing with s.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := *s
	out.Droppers = append([]Dropper(nil), s.Droppers...)
	out.Sellers = append([]Seller(nil), s.Sellers...)
	out.Offers = append([]Offer(nil), s.Offers...)
	out.Upgraders = make([]Upgrader, len(s.Upgraders))
	for i, u := range s.Upgraders {
		out.Upgraders[i] = cloneUpgrader(u)
	}
	out.Conveyors = make([]Conveyor, len(s.Conveyors))
	for i, c := range s.Conveyors {
		out.Conveyors[i] = cloneConveyor(c)
	}
	out.Fusers = make([]Fuser, len(s.Fusers))
	for i, f := range s.Fusers {
		out.Fusers[i] = cloneFuser(f)
	}
	out.Candies = make([]Candy, len(s.Candies))
	for i, c := range s.Candies {
		out.Candies[i] = c.clone()
	}
	return &out
}

func cloneUpgrader(u Upgrader) Upgrader {
	u.Upgrades = append([]string(nil), u.Upgrades...)
	if u.Transforms != nil {
		m := make(map[string]string, len(u.Transforms))
		for k, v := range u.Transforms {
			m[k] = v
		}
		u.Transforms = m
	}
	return u
}

func cloneConveyor(c Conveyor) Conveyor {
	c.Waypoints = append([]Vec2(nil), c.Waypoints...)
	return c
}

func cloneFuser(f Fuser) Fuser {
	f.Recipes = append([]Recipe(nil), f.Recipes...)
	if f.Pending != nil {
		p := f.Pending.clone()
		f.Pending = &p
	}
	return f
}

// Offer returns the offer with the given id.
func (s *State) Offer(id string) (Offer, bool) {
	for _, o := range s.Offers {
		if o.ID == id {
			return o, true
		}
	}
	return Offer{}, false
}

func (s *State) offerIndex(id string) int {
	for i := range s.Offers {
		if s.Offers[i].ID == id {
			return i
		}
	}
	return -1
}

// IsUnlocked reports the unlocked flag of a station.
func (s *State) IsUnlocked(kind StationKind, id string) bool {
	switch kind {
	case KindDropper:
		for _, d := range s.Droppers {
			if d.ID == id {
				return d.Unlocked
			}
		}
	case KindUpgrader:
		for _, u := range s.Upgraders {
			if u.ID == id {
				return u.Unlocked
			}
		}
	case KindConveyor:
		for _, c := range s.Conveyors {
			if c.ID == id {
				return c.Unlocked
			}
		}
	case KindSeller:
		for _, sl := range s.Sellers {
			if sl.ID == id {
				return sl.Unlocked
			}
		}
	case KindFuser:
		for _, f := range s.Fusers {
			if f.ID == id {
				return f.Unlocked
			}
		}
	case KindRebirth:
	}
	return false
}

// setUnlocked flips a station flag. It reports false when no station of
// that kind has the id. A rebirth target always exists.
func (s *State) setUnlocked(kind StationKind, id string, unlocked bool) bool {
	switch kind {
	case KindDropper:
		for i := range s.Droppers {
			if s.Droppers[i].ID == id {
				s.Droppers[i].Unlocked = unlocked
				return true
			}
		}
	case KindUpgrader:
		for i := range s.Upgraders {
			if s.Upgraders[i].ID == id {
				s.Upgraders[i].Unlocked = unlocked
				return true
			}
		}
	case KindConveyor:
		for i := range s.Conveyors {
			if s.Conveyors[i].ID == id {
				s.Conveyors[i].Unlocked = unlocked
				return true
			}
		}
	case KindSeller:
		for i := range s.Sellers {
			if s.Sellers[i].ID == id {
				s.Sellers[i].Unlocked = unlocked
				return true
			}
		}
	case KindFuser:
		for i := range s.Fusers {
			if s.Fusers[i].ID == id {
				s.Fusers[i].Unlocked = unlocked
				return true
			}
		}
	case KindRebirth:
		return true
	}
	return false
}

func (s *State) hasStation(kind StationKind, id string) bool {
	switch kind {
	case KindDropper:
		for _, d := range s.Droppers {
			if d.ID == id {
				return true
			}
		}
	case KindUpgrader:
		for _, u := range s.Upgraders {
			if u.ID == id {
				return true
			}
		}
	case KindConveyor:
		for _, c := range s.Conveyors {
			if c.ID == id {
				return true
			}
		}
	case KindSeller:
		for _, sl := range s.Sellers {
			if sl.ID == id {
				return true
			}
		}
	case KindFuser:
		for _, f := range s.Fusers {
			if f.ID == id {
				return true
			}
		}
	case KindRebirth:
		return true
	}
	return false
}

func (s *State) lockAll() {
	for i := range s.Droppers {
		s.Droppers[i].Unlocked = false
		s.Droppers[i].LastSpawn = time.Time{}
	}
	for i := range s.Upgraders {
		s.Upgraders[i].Unlocked = false
	}
	for i := range s.Conveyors {
		s.Conveyors[i].Unlocked = false
	}
	for i := range s.Sellers {
		s.Sellers[i].Unlocked = false
	}
	for i := range s.Fusers {
		s.Fusers[i].Unlocked = false
		s.Fusers[i].Pending = nil
	}
}

// activeConveyor is the first unlocked conveyor. Parallel belts are not
// disambiguated.
func (s *State) activeConveyor() *Conveyor {
	for i := range s.Conveyors {
		if s.Conveyors[i].Unlocked && len(s.Conveyors[i].Waypoints) > 0 {
			return &s.Conveyors[i]
		}
	}
	return nil
}

func (s *State) firstSeller() *Seller {
	for i := range s.Sellers {
		if s.Sellers[i].Unlocked {
			return &s.Sellers[i]
		}
	}
	return nil
}

func (s *State) nearestSeller(p Vec2) *Seller {
	var best *Seller
	bestDist := math.Inf(1)
	for i := range s.Sellers {
		if !s.Sellers[i].Unlocked {
			continue
		}
		if d := p.Dist(s.Sellers[i].Position); d < bestDist {
			best, bestDist = &s.Sellers[i], d
		}
	}
	return best
}

// CandyValue sums the value of every candy in flight.
func (s *State) CandyValue() float64 {
	total := 0.0
	for _, c := range s.Candies {
		total += c.Value
	}
	return total
}
