// Package catalog reads factory layouts (stations plus offer chain) from YAML.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"time"

	"candyworks/internal/tycoon"

	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid catalog")

type File struct {
	Name      string        `yaml:"name"`
	Droppers  []DropperSpec `yaml:"droppers"`
	Upgraders []UpgradeSpec `yaml:"upgraders"`
	Conveyors []BeltSpec    `yaml:"conveyors"`
	Sellers   []SellerSpec  `yaml:"sellers"`
	Fusers    []FuserSpec   `yaml:"fusers"`
	Offers    []OfferSpec   `yaml:"offers"`
}

type DropperSpec struct {
	ID          string      `yaml:"id"`
	Position    tycoon.Vec2 `yaml:"position"`
	SpawnRateMS int         `yaml:"spawn_rate_ms"`
	CandyType   string      `yaml:"candy_type"`
	CandyValue  float64     `yaml:"candy_value"`
}

type UpgradeSpec struct {
	ID         string            `yaml:"id"`
	Position   tycoon.Vec2       `yaml:"position"`
	Multiplier float64           `yaml:"multiplier"`
	Upgrades   []string          `yaml:"upgrades"`
	Transforms map[string]string `yaml:"transforms"`
}

type BeltSpec struct {
	ID        string        `yaml:"id"`
	Waypoints []tycoon.Vec2 `yaml:"waypoints"`
}

type SellerSpec struct {
	ID             string      `yaml:"id"`
	Position       tycoon.Vec2 `yaml:"position"`
	SellMultiplier float64     `yaml:"sell_multiplier"`
}

type FuserSpec struct {
	ID       string       `yaml:"id"`
	Position tycoon.Vec2  `yaml:"position"`
	Recipes  []RecipeSpec `yaml:"recipes"`
}

type RecipeSpec struct {
	Inputs          []string `yaml:"inputs"`
	Output          string   `yaml:"output"`
	ValueMultiplier float64  `yaml:"value_multiplier"`
}

type OfferSpec struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Cost   int64  `yaml:"cost"`
	Kind   string `yaml:"kind"`
	Target string `yaml:"target"`
}

// Load reads and validates a catalog file.
func Load(path string) (tycoon.Layout, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return tycoon.Layout{}, err
	}
	l, err := Parse(b)
	if err != nil {
		return tycoon.Layout{}, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}

// Parse decodes YAML into a validated layout.
func Parse(b []byte) (tycoon.Layout, error) {
	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return tycoon.Layout{}, fmt.Errorf("decode catalog: %w", err)
	}
	l, err := f.Layout()
	if err != nil {
		return tycoon.Layout{}, err
	}
	if err := Validate(l); err != nil {
		return tycoon.Layout{}, err
	}
	return l, nil
}

// Layout converts the file form into engine types. It does not validate.
func (f File) Layout() (tycoon.Layout, error) {
	l := tycoon.Layout{Name: f.Name}

	for _, d := range f.Droppers {
		l.Droppers = append(l.Droppers, tycoon.Dropper{
			ID:         d.ID,
			Position:   d.Position,
			SpawnRate:  time.Duration(d.SpawnRateMS) * time.Millisecond,
			CandyType:  d.CandyType,
			CandyValue: d.CandyValue,
		})
	}
	for _, u := range f.Upgraders {
		l.Upgraders = append(l.Upgraders, tycoon.Upgrader{
			ID:         u.ID,
			Position:   u.Position,
			Multiplier: u.Multiplier,
			Upgrades:   u.Upgrades,
			Transforms: u.Transforms,
		})
	}
	for _, c := range f.Conveyors {
		l.Conveyors = append(l.Conveyors, tycoon.Conveyor{ID: c.ID, Waypoints: c.Waypoints})
	}
	for _, s := range f.Sellers {
		l.Sellers = append(l.Sellers, tycoon.Seller{ID: s.ID, Position: s.Position, SellMultiplier: s.SellMultiplier})
	}
	for _, fu := range f.Fusers {
		out := tycoon.Fuser{ID: fu.ID, Position: fu.Position}
		for i, r := range fu.Recipes {
			if len(r.Inputs) != 2 {
				return tycoon.Layout{}, fmt.Errorf("%w: fuser %q recipe %d needs exactly two inputs, got %d", ErrInvalid, fu.ID, i, len(r.Inputs))
			}
			out.Recipes = append(out.Recipes, tycoon.Recipe{
				Inputs:          [2]string{r.Inputs[0], r.Inputs[1]},
				Output:          r.Output,
				ValueMultiplier: r.ValueMultiplier,
			})
		}
		l.Fusers = append(l.Fusers, out)
	}
	for _, o := range f.Offers {
		kind, err := tycoon.ParseKind(o.Kind)
		if err != nil {
			return tycoon.Layout{}, fmt.Errorf("%w: offer %q: %v", ErrInvalid, o.ID, err)
		}
		l.Offers = append(l.Offers, tycoon.Offer{ID: o.ID, Name: o.Name, Cost: o.Cost, Kind: kind, Target: o.Target})
	}
	return l, nil
}

// Validate checks the structural rules a layout must satisfy before the
// engine can run it: unique ids, sane numbers, and an offer chain in which
// every station is sold exactly once.
func Validate(l tycoon.Layout) error {
	if l.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalid)
	}
	if len(l.Offers) == 0 {
		return fmt.Errorf("%w: no offers", ErrInvalid)
	}

	stations := map[tycoon.StationKind]map[string]bool{}
	add := func(kind tycoon.StationKind, id string) error {
		if id == "" {
			return fmt.Errorf("%w: %s with empty id", ErrInvalid, kind)
		}
		if stations[kind] == nil {
			stations[kind] = map[string]bool{}
		}
		if stations[kind][id] {
			return fmt.Errorf("%w: duplicate %s %q", ErrInvalid, kind, id)
		}
		stations[kind][id] = true
		return nil
	}

	for _, d := range l.Droppers {
		if err := add(tycoon.KindDropper, d.ID); err != nil {
			return err
		}
		if d.SpawnRate <= 0 {
			return fmt.Errorf("%w: dropper %q spawn rate must be positive", ErrInvalid, d.ID)
		}
		if d.CandyType == "" || d.CandyValue <= 0 {
			return fmt.Errorf("%w: dropper %q needs a candy type and a positive value", ErrInvalid, d.ID)
		}
	}
	for _, u := range l.Upgraders {
		if err := add(tycoon.KindUpgrader, u.ID); err != nil {
			return err
		}
		if u.Multiplier < 1 {
			return fmt.Errorf("%w: upgrader %q multiplier %g below 1", ErrInvalid, u.ID, u.Multiplier)
		}
		if len(u.Upgrades) == 0 {
			return fmt.Errorf("%w: upgrader %q accepts no candy types", ErrInvalid, u.ID)
		}
	}
	for _, c := range l.Conveyors {
		if err := add(tycoon.KindConveyor, c.ID); err != nil {
			return err
		}
		if len(c.Waypoints) == 0 {
			return fmt.Errorf("%w: conveyor %q has no waypoints", ErrInvalid, c.ID)
		}
	}
	for _, s := range l.Sellers {
		if err := add(tycoon.KindSeller, s.ID); err != nil {
			return err
		}
		if s.SellMultiplier <= 0 {
			return fmt.Errorf("%w: seller %q multiplier must be positive", ErrInvalid, s.ID)
		}
	}
	for _, f := range l.Fusers {
		if err := add(tycoon.KindFuser, f.ID); err != nil {
			return err
		}
		if len(f.Recipes) == 0 {
			return fmt.Errorf("%w: fuser %q has no recipes", ErrInvalid, f.ID)
		}
		for _, r := range f.Recipes {
			if r.Inputs[0] == "" || r.Inputs[1] == "" || r.Output == "" {
				return fmt.Errorf("%w: fuser %q has an incomplete recipe", ErrInvalid, f.ID)
			}
			if r.ValueMultiplier < 1 {
				return fmt.Errorf("%w: fuser %q recipe %s multiplier %g below 1", ErrInvalid, f.ID, r.Output, r.ValueMultiplier)
			}
		}
	}

	offerIDs := map[string]bool{}
	sold := map[tycoon.StationKind]map[string]bool{}
	for _, o := range l.Offers {
		if o.ID == "" {
			return fmt.Errorf("%w: offer with empty id", ErrInvalid)
		}
		if offerIDs[o.ID] {
			return fmt.Errorf("%w: duplicate offer %q", ErrInvalid, o.ID)
		}
		offerIDs[o.ID] = true
		if o.Cost < 0 {
			return fmt.Errorf("%w: offer %q has negative cost", ErrInvalid, o.ID)
		}
		if o.Kind == tycoon.KindRebirth {
			continue
		}
		if !stations[o.Kind][o.Target] {
			return fmt.Errorf("%w: offer %q targets unknown %s %q", ErrInvalid, o.ID, o.Kind, o.Target)
		}
		if sold[o.Kind] == nil {
			sold[o.Kind] = map[string]bool{}
		}
		if sold[o.Kind][o.Target] {
			return fmt.Errorf("%w: %s %q is sold by more than one offer", ErrInvalid, o.Kind, o.Target)
		}
		sold[o.Kind][o.Target] = true
	}
	for kind, ids := range stations {
		for id := range ids {
			if !sold[kind][id] {
				return fmt.Errorf("%w: %s %q has no offer", ErrInvalid, kind, id)
			}
		}
	}
	return nil
}
