package config

// Balance holds economy balance configuration
type Balance struct {
	// Money
	StartMoney   int64 `yaml:"start_money" json:"start_money"`
	RestartMoney int64 `yaml:"restart_money" json:"restart_money"`

	// Production
	MaxActiveCandies int `yaml:"max_active_candies" json:"max_active_candies"`

	// Rebirth
	RebirthBaseCost   int64   `yaml:"rebirth_base_cost" json:"rebirth_base_cost"`
	RebirthCostGrowth int64   `yaml:"rebirth_cost_growth" json:"rebirth_cost_growth"`
	RebirthStep       float64 `yaml:"rebirth_step" json:"rebirth_step"`

	// Income
	PassiveIncomePerSecond float64 `yaml:"passive_income_per_second" json:"passive_income_per_second"`
	CollectMinimum         int64   `yaml:"collect_minimum" json:"collect_minimum"`
	CollectPerCandy        int64   `yaml:"collect_per_candy" json:"collect_per_candy"`
	CollectCooldownSeconds int     `yaml:"collect_cooldown_seconds" json:"collect_cooldown_seconds"`
}

// Default returns the default balance configuration
func Default() Balance {
	return Balance{
		StartMoney:             100,
		RestartMoney:           100,
		MaxActiveCandies:       15,
		RebirthBaseCost:        1_000_000,
		RebirthCostGrowth:      10,
		RebirthStep:            0.5,
		PassiveIncomePerSecond: 1,
		CollectMinimum:         50,
		CollectPerCandy:        10,
		CollectCooldownSeconds: 5,
	}
}

// Casual returns a gentler economy
func Casual() Balance {
	cfg := Default()
	cfg.StartMoney = 250
	cfg.RestartMoney = 250
	cfg.MaxActiveCandies = 25
	cfg.RebirthBaseCost = 500_000
	cfg.PassiveIncomePerSecond = 5
	cfg.CollectCooldownSeconds = 2
	return cfg
}

// Hard returns a stingier economy for experienced players
func Hard() Balance {
	cfg := Default()
	cfg.StartMoney = 50
	cfg.RestartMoney = 50
	cfg.MaxActiveCandies = 10
	cfg.RebirthCostGrowth = 20
	cfg.RebirthStep = 0.25
	cfg.PassiveIncomePerSecond = 0
	cfg.CollectCooldownSeconds = 10
	return cfg
}

// Preset maps a difficulty name to its balance. Unknown names report false.
func Preset(name string) (Balance, bool) {
	switch name {
	case "", "default", "normal":
		return Default(), true
	case "casual":
		return Casual(), true
	case "hard":
		return Hard(), true
	}
	return Balance{}, false
}

// ApplyDefaults fills zero fields from Default. Fields where zero is a
// meaningful setting (passive income) are left alone.
func (b *Balance) ApplyDefaults() {
	d := Default()
	if b.StartMoney == 0 {
		b.StartMoney = d.StartMoney
	}
	if b.RestartMoney == 0 {
		b.RestartMoney = d.RestartMoney
	}
	if b.MaxActiveCandies == 0 {
		b.MaxActiveCandies = d.MaxActiveCandies
	}
	if b.RebirthBaseCost == 0 {
		b.RebirthBaseCost = d.RebirthBaseCost
	}
	if b.RebirthCostGrowth == 0 {
		b.RebirthCostGrowth = d.RebirthCostGrowth
	}
	if b.RebirthStep == 0 {
		b.RebirthStep = d.RebirthStep
	}
	if b.CollectMinimum == 0 {
		b.CollectMinimum = d.CollectMinimum
	}
	if b.CollectPerCandy == 0 {
		b.CollectPerCandy = d.CollectPerCandy
	}
	if b.CollectCooldownSeconds == 0 {
		b.CollectCooldownSeconds = d.CollectCooldownSeconds
	}
}
