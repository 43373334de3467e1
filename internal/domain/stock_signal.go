package domain

import "time"

// StockLabel buckets available stock for display.
type StockLabel string

// StockLabel values.
const (
	StockLabelEmpty    StockLabel = "SENSE STOCK"
	StockLabelCritical StockLabel = "CRÍTIC"
	StockLabelLow      StockLabel = "MIG STOCK"
	StockLabelOK       StockLabel = "STOCK OK"
	StockLabelNoData   StockLabel = "NO DATA"
)

// Stock bucket boundaries in units.
const (
	CriticalStockUnits = 50.0
	HealthyStockUnits  = 200.0
)

// salesWindow is the lookback used for the sales rate behind days of cover.
const salesWindow = 30 * 24 * time.Hour

// StockSignal is a derived availability rollup for one project.
type StockSignal struct {
	Rows           int        `json:"rows"`
	UnitsAvailable *float64   `json:"units_available"`
	SoldLast30Days *float64   `json:"sold_last_30_days"`
	DaysCover      *float64   `json:"days_cover"`
	Label          StockLabel `json:"label"`
	Tone           Tone       `json:"tone"`
}

// ComputeProjectStockSignal sums stock rows (OUT movements subtract) and derives
// days of cover from sales in the 30 days before now.
func ComputeProjectStockSignal(entries []StockEntry, now time.Time) StockSignal {
	if len(entries) == 0 {
		return StockSignal{Label: StockLabelNoData, Tone: ToneNeutral}
	}
	var (
		units float64
		sold  float64
	)
	windowStart := now.UTC().Add(-salesWindow)
	for _, entry := range entries {
		units += entry.SignedUnits()
		if entry.Direction == StockDirectionOut && entry.Reason == StockReasonSale && !entry.OccurredAt.Before(windowStart) {
			sold += entry.Units
		}
	}
	signal := StockSignal{
		Rows:           len(entries),
		UnitsAvailable: &units,
	}
	if sold > 0 {
		soldCopy := sold
		signal.SoldLast30Days = &soldCopy
		cover := round2(units / (sold / 30))
		signal.DaysCover = &cover
	}
	switch {
	case units <= 0:
		signal.Label, signal.Tone = StockLabelEmpty, ToneDanger
	case units < CriticalStockUnits:
		signal.Label, signal.Tone = StockLabelCritical, ToneDanger
	case units < HealthyStockUnits:
		signal.Label, signal.Tone = StockLabelLow, ToneWarning
	default:
		signal.Label, signal.Tone = StockLabelOK, ToneSuccess
	}
	return signal
}
