package telemetry

import (
	"time"

	"candyworks/internal/tycoon"
)

type EventType string

const (
	EventCandySold       EventType = "candy_sold"
	EventCandyUpgraded   EventType = "candy_upgraded"
	EventCandyFused      EventType = "candy_fused"
	EventCandyDiscarded  EventType = "candy_discarded"
	EventOfferPurchased  EventType = "offer_purchased"
	EventRebirth         EventType = "rebirth"
	EventIncomeCollected EventType = "income_collected"
	EventPassiveIncome   EventType = "passive_income"
	EventSessionSaved    EventType = "session_saved"
	EventSessionRestored EventType = "session_restored"
)

type Event struct {
	ID        int       `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Metadata  string    `json:"metadata"`
}

type EventMetadata map[string]interface{}

var fromEngine = map[tycoon.EventType]EventType{
	tycoon.EventSale:     EventCandySold,
	tycoon.EventUpgrade:  EventCandyUpgraded,
	tycoon.EventFuse:     EventCandyFused,
	tycoon.EventDiscard:  EventCandyDiscarded,
	tycoon.EventPurchase: EventOfferPurchased,
	tycoon.EventRebirth:  EventRebirth,
	tycoon.EventCollect:  EventIncomeCollected,
	tycoon.EventIncome:   EventPassiveIncome,
}

// FromEngine translates an engine notification into a telemetry record.
func FromEngine(ev tycoon.Event) (EventType, EventMetadata, bool) {
	t, ok := fromEngine[ev.Type]
	if !ok {
		return "", nil, false
	}
	md := EventMetadata{"amount": ev.Amount}
	if ev.StationID != "" {
		md["station_id"] = ev.StationID
	}
	return t, md, true
}
