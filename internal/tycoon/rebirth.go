package tycoon

import "fmt"

// CanRebirth reports whether the state can afford the next rebirth.
func (s *State) CanRebirth() bool {
	return s.Money >= s.RebirthCost
}

// Rebirth trades all progress for a permanent sale multiplier. Money, offers,
// stations and candies reset; the multiplier and rebirth count survive and
// the next rebirth costs RebirthCostGrowth times more.
func (e Engine) Rebirth(st *State) bool {
	if !st.CanRebirth() {
		return false
	}

	st.Rebirths++
	st.Stats.Rebirths++
	st.RebirthMultiplier = 1 + float64(st.Rebirths)*e.Tuning.RebirthStep
	st.Money = e.Tuning.RestartMoney
	st.resetOffers()
	st.lockAll()
	st.Candies = []Candy{}
	st.MoneyPerSecond = 0
	st.RebirthCost *= e.Tuning.RebirthCostGrowth

	e.emit(Event{
		Type:    EventRebirth,
		Message: fmt.Sprintf("REBIRTH! %gx Multiplier!", st.RebirthMultiplier),
		Amount:  int64(st.Rebirths),
	})
	e.claimStarter(st)
	return true
}
