package tycoon

import "time"

// Tuning holds the numeric rules of the simulation. Distances are floor units.
type Tuning struct {
	StartMoney   int64 `json:"start_money"`
	RestartMoney int64 `json:"restart_money"`

	MaxActiveCandies int     `json:"max_active_candies"`
	CandySpeed       float64 `json:"candy_speed"` // units per second

	ArriveEpsilon  float64 `json:"arrive_epsilon"`
	WaypointRadius float64 `json:"waypoint_radius"`
	UpgradeRadius  float64 `json:"upgrade_radius"`
	SellRadius     float64 `json:"sell_radius"`
	FuseRadius     float64 `json:"fuse_radius"`
	DiscardRadius  float64 `json:"discard_radius"`

	RebirthBaseCost   int64   `json:"rebirth_base_cost"`
	RebirthCostGrowth int64   `json:"rebirth_cost_growth"`
	RebirthStep       float64 `json:"rebirth_step"`

	IncomeEstimateFactor   float64       `json:"income_estimate_factor"`
	CollectSeconds         float64       `json:"collect_seconds"`
	CollectPerCandy        int64         `json:"collect_per_candy"`
	CollectMinimum         int64         `json:"collect_minimum"`
	CollectCooldown        time.Duration `json:"collect_cooldown"`
	PassiveIncomePerSecond float64       `json:"passive_income_per_second"`
}

func DefaultTuning() Tuning {
	return Tuning{
		StartMoney:             100,
		RestartMoney:           100,
		MaxActiveCandies:       15,
		CandySpeed:             3.0,
		ArriveEpsilon:          0.1,
		WaypointRadius:         0.3,
		UpgradeRadius:          1.0,
		SellRadius:             0.5,
		FuseRadius:             1.0,
		DiscardRadius:          20,
		RebirthBaseCost:        1_000_000,
		RebirthCostGrowth:      10,
		RebirthStep:            0.5,
		IncomeEstimateFactor:   0.1,
		CollectSeconds:         5,
		CollectPerCandy:        10,
		CollectMinimum:         50,
		CollectCooldown:        5 * time.Second,
		PassiveIncomePerSecond: 1,
	}
}
