package tycoon

import (
	"fmt"
	"math"
	"time"
)

// EstimateIncome is the rough money-per-second figure shown to players: a
// fixed fraction of the value currently on the line.
func (e Engine) EstimateIncome(st *State) int64 {
	return int64(math.Floor(st.CandyValue() * e.Tuning.IncomeEstimateFactor))
}

// Collect pays out a few seconds of estimated income plus a bonus per live
// candy, never less than CollectMinimum. It is refused during the cooldown.
func (e Engine) Collect(st *State, now time.Time) (int64, bool) {
	if !st.LastCollect.IsZero() && now.Sub(st.LastCollect) < e.Tuning.CollectCooldown {
		return 0, false
	}
	amount := int64(math.Floor(float64(st.MoneyPerSecond) * e.Tuning.CollectSeconds))
	amount += e.Tuning.CollectPerCandy * int64(len(st.Candies))
	if amount < e.Tuning.CollectMinimum {
		amount = e.Tuning.CollectMinimum
	}
	st.Money += amount
	st.Stats.TotalMoneyEarned += amount
	st.LastCollect = now

	e.emit(Event{Type: EventCollect, At: now, Message: fmt.Sprintf("+$%d collected!", amount), Amount: amount})
	return amount, true
}

// PassiveIncome credits one second of base income, scaled by the rebirth multiplier.
func (e Engine) PassiveIncome(st *State) int64 {
	amount := int64(math.Floor(e.Tuning.PassiveIncomePerSecond * st.RebirthMultiplier))
	if amount <= 0 {
		return 0
	}
	st.Money += amount
	st.Stats.TotalMoneyEarned += amount
	e.emit(Event{Type: EventIncome, Message: fmt.Sprintf("+$%d", amount), Amount: amount})
	return amount
}
