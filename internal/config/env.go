package config

import (
	"os"
	"strconv"
	"strings"
)

const envPrefix = "CANDYWORKS_"

// FromEnv loads balance configuration from environment variables
// Falls back to defaults if variables are not set
func FromEnv() Balance {
	cfg := Default()

	// Support preset modes
	if mode := strings.ToLower(strings.TrimSpace(os.Getenv("DIFFICULTY"))); mode != "" {
		if preset, ok := Preset(mode); ok {
			cfg = preset
		}
	}

	if val := getEnvInt("START_MONEY"); val > 0 {
		cfg.StartMoney = int64(val)
	}
	if val := getEnvInt("RESTART_MONEY"); val > 0 {
		cfg.RestartMoney = int64(val)
	}
	if val := getEnvInt("MAX_ACTIVE_CANDIES"); val > 0 {
		cfg.MaxActiveCandies = val
	}
	if val := getEnvInt("REBIRTH_BASE_COST"); val > 0 {
		cfg.RebirthBaseCost = int64(val)
	}
	if val := getEnvInt("REBIRTH_COST_GROWTH"); val > 0 {
		cfg.RebirthCostGrowth = int64(val)
	}
	if val := getEnvFloat("REBIRTH_STEP"); val > 0 {
		cfg.RebirthStep = val
	}
	if val := getEnvFloat("PASSIVE_INCOME"); val >= 0 {
		cfg.PassiveIncomePerSecond = val
	}
	if val := getEnvInt("COLLECT_COOLDOWN_SECONDS"); val > 0 {
		cfg.CollectCooldownSeconds = val
	}

	return cfg
}

// ApplyEnv overlays FromEnv and the server settings from the environment
// onto c. Balance is replaced only when some balance variable is set.
func (c *Config) ApplyEnv() {
	if hasBalanceEnv() {
		c.Balance = FromEnv()
	}
	if v := os.Getenv(envPrefix + "ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(envPrefix + "DATA_DIR"); v != "" {
		c.Server.DataDir = v
	}
	if v := os.Getenv(envPrefix + "CATALOG"); v != "" {
		c.Catalog.Name = v
	}
	if v := os.Getenv(envPrefix + "CATALOG_PATH"); v != "" {
		c.Catalog.Path = v
	}
	if val := getEnvInt("TICK_MS"); val > 0 {
		c.Simulation.TickMS = val
	}
	if val := getEnvInt("AUTOSAVE_SECONDS"); val > 0 {
		c.Simulation.AutosaveSeconds = val
	}
}

func hasBalanceEnv() bool {
	if os.Getenv("DIFFICULTY") != "" {
		return true
	}
	for _, key := range []string{
		"START_MONEY", "RESTART_MONEY", "MAX_ACTIVE_CANDIES", "REBIRTH_BASE_COST",
		"REBIRTH_COST_GROWTH", "REBIRTH_STEP", "PASSIVE_INCOME", "COLLECT_COOLDOWN_SECONDS",
	} {
		if os.Getenv(envPrefix+key) != "" {
			return true
		}
	}
	return false
}

func getEnvInt(key string) int {
	val := os.Getenv(envPrefix + key)
	if val == "" {
		return 0
	}
	num, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return num
}

// getEnvFloat returns -1 when the variable is unset or malformed.
func getEnvFloat(key string) float64 {
	val := os.Getenv(envPrefix + key)
	if val == "" {
		return -1
	}
	num, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return -1
	}
	return num
}
