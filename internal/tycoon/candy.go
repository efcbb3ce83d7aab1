package tycoon

import "github.com/google/uuid"

// PathIndex values outside the waypoint range.
const (
	// offPath marks a candy that has not joined a conveyor yet.
	offPath = -1
)

// Candy is one unit of product in flight.
type Candy struct {
	ID        string          `json:"id"`
	Position  Vec2            `json:"position"`
	Target    Vec2            `json:"target"`
	Type      string          `json:"type"`
	Value     float64         `json:"value"`
	Processed map[string]bool `json:"processed,omitempty"`
	// PathIndex is the waypoint the candy is heading to. It equals the
	// waypoint count once the candy has left the belt for a seller.
	PathIndex int `json:"path_index"`
}

// NewCandy places a fresh candy at pos with no target of its own.
func NewCandy(pos Vec2, candyType string, value float64) Candy {
	return Candy{
		ID:        uuid.NewString(),
		Position:  pos,
		Target:    pos,
		Type:      candyType,
		Value:     value,
		PathIndex: offPath,
	}
}

// HasProcessed reports whether station id has already been applied.
func (c *Candy) HasProcessed(id string) bool {
	return c.Processed[id]
}

func (c *Candy) markProcessed(id string) {
	if c.Processed == nil {
		c.Processed = map[string]bool{}
	}
	c.Processed[id] = true
}

// Advance moves the candy toward its target by speed*dt, never past it.
// Within epsilon of the target the candy stays put; picking the next target
// is the caller's job.
func (c *Candy) Advance(speed, dt, epsilon float64) {
	d := c.Target.Sub(c.Position)
	dist := d.Len()
	if dist <= epsilon {
		return
	}
	step := speed * dt
	if step > dist {
		step = dist
	}
	c.Position.X += d.X / dist * step
	c.Position.Z += d.Z / dist * step
}

func (c Candy) clone() Candy {
	out := c
	if c.Processed != nil {
		out.Processed = make(map[string]bool, len(c.Processed))
		for k, v := range c.Processed {
			out.Processed[k] = v
		}
	}
	return out
}
