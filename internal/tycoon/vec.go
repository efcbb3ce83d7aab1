package tycoon

import "math"

// Vec2 is a point on the factory floor. Height is irrelevant to the economy.
type Vec2 struct {
	X float64 `json:"x" yaml:"x"`
	Z float64 `json:"z" yaml:"z"`
}

func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{X: v.X - o.X, Z: v.Z - o.Z} }

func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Z) }

func (v Vec2) Dist(o Vec2) float64 { return v.Sub(o).Len() }
