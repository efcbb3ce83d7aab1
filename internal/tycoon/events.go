package tycoon

import "time"

type EventType string

const (
	EventSale     EventType = "sale"
	EventUpgrade  EventType = "upgrade"
	EventFuse     EventType = "fuse"
	EventPurchase EventType = "purchase"
	EventRebirth  EventType = "rebirth"
	EventCollect  EventType = "collect"
	EventIncome   EventType = "income"
	EventDiscard  EventType = "discard"
)

// Event is a fire-and-forget notification for whatever UI is attached.
type Event struct {
	Type      EventType `json:"type"`
	At        time.Time `json:"at"`
	Message   string    `json:"message"`
	Amount    int64     `json:"amount,omitempty"`
	StationID string    `json:"station_id,omitempty"`
	CandyID   string    `json:"candy_id,omitempty"`
}
