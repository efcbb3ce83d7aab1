package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"candyworks/internal/tycoon"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Version    string           `yaml:"version" json:"version"`
	Server     ServerConfig     `yaml:"server" json:"server"`
	Catalog    CatalogConfig    `yaml:"catalog" json:"catalog"`
	Simulation SimulationConfig `yaml:"simulation" json:"simulation"`
	Physics    PhysicsConfig    `yaml:"physics" json:"physics"`
	Balance    Balance          `yaml:"balance" json:"balance"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit" json:"rate_limit"`
}

type ServerConfig struct {
	Addr      string `yaml:"addr" json:"addr"`
	DataDir   string `yaml:"data_dir" json:"data_dir"`
	StaticDir string `yaml:"static_dir" json:"static_dir"`
}

type CatalogConfig struct {
	Name string `yaml:"name" json:"name"`
	Path string `yaml:"path" json:"path"`
}

type SimulationConfig struct {
	SessionID        string `yaml:"session_id" json:"session_id"`
	TickMS           int    `yaml:"tick_ms" json:"tick_ms"`
	MaxFrameMS       int    `yaml:"max_frame_ms" json:"max_frame_ms"`
	IncomeIntervalMS int    `yaml:"income_interval_ms" json:"income_interval_ms"`
	AutosaveSeconds  int    `yaml:"autosave_seconds" json:"autosave_seconds"`
	EventBuffer      int    `yaml:"event_buffer" json:"event_buffer"`
}

type PhysicsConfig struct {
	CandySpeed     float64 `yaml:"candy_speed" json:"candy_speed"`
	ArriveEpsilon  float64 `yaml:"arrive_epsilon" json:"arrive_epsilon"`
	WaypointRadius float64 `yaml:"waypoint_radius" json:"waypoint_radius"`
	UpgradeRadius  float64 `yaml:"upgrade_radius" json:"upgrade_radius"`
	SellRadius     float64 `yaml:"sell_radius" json:"sell_radius"`
	FuseRadius     float64 `yaml:"fuse_radius" json:"fuse_radius"`
	DiscardRadius  float64 `yaml:"discard_radius" json:"discard_radius"`
}

type RateLimitConfig struct {
	PerSecond float64 `yaml:"per_second" json:"per_second"`
	Burst     int     `yaml:"burst" json:"burst"`
}

func (s *ServerConfig) ApplyDefaults() {
	if s.Addr == "" {
		s.Addr = ":42069"
	}
	if s.DataDir == "" {
		s.DataDir = "data"
	}
	if s.StaticDir == "" {
		s.StaticDir = "static"
	}
}

func (s *SimulationConfig) ApplyDefaults() {
	if s.SessionID == "" {
		s.SessionID = "default"
	}
	if s.TickMS == 0 {
		s.TickMS = 16
	}
	if s.MaxFrameMS == 0 {
		s.MaxFrameMS = 100
	}
	if s.IncomeIntervalMS == 0 {
		s.IncomeIntervalMS = 1000
	}
	if s.AutosaveSeconds == 0 {
		s.AutosaveSeconds = 30
	}
	if s.EventBuffer == 0 {
		s.EventBuffer = 64
	}
}

func (p *PhysicsConfig) ApplyDefaults() {
	d := tycoon.DefaultTuning()
	if p.CandySpeed == 0 {
		p.CandySpeed = d.CandySpeed
	}
	if p.ArriveEpsilon == 0 {
		p.ArriveEpsilon = d.ArriveEpsilon
	}
	if p.WaypointRadius == 0 {
		p.WaypointRadius = d.WaypointRadius
	}
	if p.UpgradeRadius == 0 {
		p.UpgradeRadius = d.UpgradeRadius
	}
	if p.SellRadius == 0 {
		p.SellRadius = d.SellRadius
	}
	if p.FuseRadius == 0 {
		p.FuseRadius = d.FuseRadius
	}
	if p.DiscardRadius == 0 {
		p.DiscardRadius = d.DiscardRadius
	}
}

func (r *RateLimitConfig) ApplyDefaults() {
	if r.PerSecond == 0 {
		r.PerSecond = 20
	}
	if r.Burst == 0 {
		r.Burst = 40
	}
}

func (c *Config) ApplyDefaults() {
	c.Server.ApplyDefaults()
	if c.Catalog.Name == "" {
		c.Catalog.Name = "candy_factory"
	}
	c.Simulation.ApplyDefaults()
	c.Physics.ApplyDefaults()
	c.Balance.ApplyDefaults()
	c.RateLimit.ApplyDefaults()
}

// Defaults is the configuration used when no file is present.
func Defaults() *Config {
	c := &Config{Version: "1", Balance: Default()}
	c.ApplyDefaults()
	return c
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r := Config{Balance: Default()}
	if err := yaml.Unmarshal(b, &r); err != nil {
		return nil, err
	}
	r.ApplyDefaults()
	return &r, nil
}

// LoadOrDefault is Load, except that a missing file yields Defaults.
func LoadOrDefault(path string) (*Config, error) {
	c, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Defaults(), nil
	}
	return c, err
}

// Tuning flattens physics and balance into engine rules.
func (c *Config) Tuning() tycoon.Tuning {
	t := tycoon.DefaultTuning()

	t.CandySpeed = c.Physics.CandySpeed
	t.ArriveEpsilon = c.Physics.ArriveEpsilon
	t.WaypointRadius = c.Physics.WaypointRadius
	t.UpgradeRadius = c.Physics.UpgradeRadius
	t.SellRadius = c.Physics.SellRadius
	t.FuseRadius = c.Physics.FuseRadius
	t.DiscardRadius = c.Physics.DiscardRadius

	b := c.Balance
	t.StartMoney = b.StartMoney
	t.RestartMoney = b.RestartMoney
	t.MaxActiveCandies = b.MaxActiveCandies
	t.RebirthBaseCost = b.RebirthBaseCost
	t.RebirthCostGrowth = b.RebirthCostGrowth
	t.RebirthStep = b.RebirthStep
	t.PassiveIncomePerSecond = b.PassiveIncomePerSecond
	t.CollectMinimum = b.CollectMinimum
	t.CollectPerCandy = b.CollectPerCandy
	t.CollectCooldown = time.Duration(b.CollectCooldownSeconds) * time.Second
	return t
}

func (s SimulationConfig) TickInterval() time.Duration {
	return time.Duration(s.TickMS) * time.Millisecond
}

func (s SimulationConfig) MaxFrame() time.Duration {
	return time.Duration(s.MaxFrameMS) * time.Millisecond
}

func (s SimulationConfig) IncomeInterval() time.Duration {
	return time.Duration(s.IncomeIntervalMS) * time.Millisecond
}

func (s SimulationConfig) AutosaveInterval() time.Duration {
	return time.Duration(s.AutosaveSeconds) * time.Second
}
