package tycoon

import "fmt"

// StationKind is the closed set of things an offer can unlock.
type StationKind int

const (
	KindDropper StationKind = iota + 1
	KindUpgrader
	KindConveyor
	KindSeller
	KindFuser
	// KindRebirth is only valid on offers; no station carries it.
	KindRebirth
)

var kindNames = map[StationKind]string{
	KindDropper:  "dropper",
	KindUpgrader: "upgrader",
	KindConveyor: "conveyor",
	KindSeller:   "seller",
	KindFuser:    "fuser",
	KindRebirth:  "rebirth",
}

func (k StationKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("StationKind(%d)", int(k))
}

// ParseKind maps a catalog string onto a StationKind.
func ParseKind(s string) (StationKind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown station kind %q", s)
}

func (k StationKind) MarshalText() ([]byte, error) {
	name, ok := kindNames[k]
	if !ok {
		return nil, fmt.Errorf("unknown station kind %d", int(k))
	}
	return []byte(name), nil
}

func (k *StationKind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
