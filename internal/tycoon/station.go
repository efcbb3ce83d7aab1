package tycoon

import "time"

// AllTypes is the upgrader sentinel that accepts every candy type.
const AllTypes = "all"

// Dropper periodically spawns candies at its position.
type Dropper struct {
	ID         string        `json:"id"`
	Unlocked   bool          `json:"unlocked"`
	Position   Vec2          `json:"position"`
	SpawnRate  time.Duration `json:"spawn_rate"`
	CandyType  string        `json:"candy_type"`
	CandyValue float64       `json:"candy_value"`
	LastSpawn  time.Time     `json:"last_spawn"`
}

// Upgrader multiplies the value of candies passing within reach and may
// change their type through Transforms.
type Upgrader struct {
	ID         string            `json:"id"`
	Unlocked   bool              `json:"unlocked"`
	Position   Vec2              `json:"position"`
	Multiplier float64           `json:"multiplier"`
	Upgrades   []string          `json:"upgrades"`
	Transforms map[string]string `json:"transforms,omitempty"`
}

// Accepts reports whether the upgrader works on candyType.
func (u Upgrader) Accepts(candyType string) bool {
	for _, t := range u.Upgrades {
		if t == AllTypes || t == candyType {
			return true
		}
	}
	return false
}

// Conveyor is an ordered path of waypoints from the droppers toward the sellers.
type Conveyor struct {
	ID        string `json:"id"`
	Unlocked  bool   `json:"unlocked"`
	Waypoints []Vec2 `json:"waypoints"`
}

// Seller turns candies into money.
type Seller struct {
	ID             string  `json:"id"`
	Unlocked       bool    `json:"unlocked"`
	Position       Vec2    `json:"position"`
	SellMultiplier float64 `json:"sell_multiplier"`
}

// Recipe fuses two candy types into one. Input order does not matter.
type Recipe struct {
	Inputs          [2]string `json:"inputs"`
	Output          string    `json:"output"`
	ValueMultiplier float64   `json:"value_multiplier"`
}

func (r Recipe) matches(a, b string) bool {
	return (r.Inputs[0] == a && r.Inputs[1] == b) || (r.Inputs[0] == b && r.Inputs[1] == a)
}

// Fuser holds at most one pending candy and waits for a partner matching one of its recipes.
type Fuser struct {
	ID       string   `json:"id"`
	Unlocked bool     `json:"unlocked"`
	Position Vec2     `json:"position"`
	Recipes  []Recipe `json:"recipes"`
	Pending  *Candy   `json:"pending,omitempty"`
}

// Match returns the first recipe combining a and b.
func (f Fuser) Match(a, b string) (Recipe, bool) {
	for _, r := range f.Recipes {
		if r.matches(a, b) {
			return r, true
		}
	}
	return Recipe{}, false
}

// Consumes reports whether candyType is an input to any recipe.
func (f Fuser) Consumes(candyType string) bool {
	for _, r := range f.Recipes {
		if r.Inputs[0] == candyType || r.Inputs[1] == candyType {
			return true
		}
	}
	return false
}

// Offer is one entry of the linear purchase chain.
type Offer struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Cost      int64       `json:"cost"`
	Kind      StationKind `json:"kind"`
	Target    string      `json:"target"`
	Unlocked  bool        `json:"unlocked"`
	Purchased bool        `json:"purchased"`
}

// Layout is a station catalog plus its offer chain. Factory variants differ
// only in their Layout.
type Layout struct {
	Name      string     `json:"name"`
	Droppers  []Dropper  `json:"droppers"`
	Upgraders []Upgrader `json:"upgraders"`
	Conveyors []Conveyor `json:"conveyors"`
	Sellers   []Seller   `json:"sellers"`
	Fusers    []Fuser    `json:"fusers"`
	Offers    []Offer    `json:"offers"`
}
