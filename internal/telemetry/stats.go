package telemetry

import (
	"encoding/json"
	"time"
)

type Stats struct {
	Period            string            `json:"period"`
	EventCounts       map[EventType]int `json:"event_counts"`
	Sales             int               `json:"sales"`
	Revenue           int64             `json:"revenue"`
	RevenuePerMinute  float64           `json:"revenue_per_minute"`
	Collected         int64             `json:"collected"`
	PassiveIncome     int64             `json:"passive_income"`
	Purchases         int               `json:"purchases"`
	PurchaseSpend     int64             `json:"purchase_spend"`
	Upgrades          int               `json:"upgrades"`
	Fusions           int               `json:"fusions"`
	Discards          int               `json:"discards"`
	Rebirths          int               `json:"rebirths"`
	SalesBySeller     map[string]int64  `json:"sales_by_seller"`
	UpgradesByStation map[string]int    `json:"upgrades_by_station"`
}

// CalculateStats computes economy stats from events
func CalculateStats(events []Event, since time.Time) (Stats, error) {
	stats := Stats{
		Period:            since.UTC().Format(time.RFC3339),
		EventCounts:       make(map[EventType]int),
		SalesBySeller:     make(map[string]int64),
		UpgradesByStation: make(map[string]int),
	}

	var first, last time.Time
	for _, event := range events {
		stats.EventCounts[event.Type]++

		var metadata EventMetadata
		if err := json.Unmarshal([]byte(event.Metadata), &metadata); err != nil {
			continue
		}
		amount := metadataInt(metadata, "amount")
		station, _ := metadata["station_id"].(string)

		switch event.Type {
		case EventCandySold:
			stats.Sales++
			stats.Revenue += amount
			if station != "" {
				stats.SalesBySeller[station] += amount
			}
			if first.IsZero() || event.Timestamp.Before(first) {
				first = event.Timestamp
			}
			if event.Timestamp.After(last) {
				last = event.Timestamp
			}
		case EventCandyUpgraded:
			stats.Upgrades++
			if station != "" {
				stats.UpgradesByStation[station]++
			}
		case EventCandyFused:
			stats.Fusions++
		case EventCandyDiscarded:
			stats.Discards++
		case EventOfferPurchased:
			stats.Purchases++
			stats.PurchaseSpend += amount
		case EventRebirth:
			stats.Rebirths++
		case EventIncomeCollected:
			stats.Collected += amount
		case EventPassiveIncome:
			stats.PassiveIncome += amount
		}
	}

	if span := last.Sub(first); span >= time.Second {
		stats.RevenuePerMinute = float64(stats.Revenue) / span.Minutes()
	}

	return stats, nil
}

// json numbers decode as float64
func metadataInt(md EventMetadata, key string) int64 {
	switch v := md[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}
