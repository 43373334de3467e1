package domain

import "fmt"

// GateID names the commercial gate that applies to a phase.
type GateID string

// GateID values.
const (
	GateNone       GateID = "NONE"
	GateProduction GateID = "PRODUCTION"
	GateListing    GateID = "LISTING"
	GateLive       GateID = "LIVE"
)

// GateStatus is the advisory verdict of a commercial gate.
type GateStatus string

// GateStatus values.
const (
	GateStatusOK      GateStatus = "ok"
	GateStatusWarning GateStatus = "warning"
	GateStatusBlocked GateStatus = "blocked"
)

// CommercialThresholds configures the commercial gate boundaries.
type CommercialThresholds struct {
	MinROIPercent      float64
	CriticalStockUnits float64
	HealthyStockUnits  float64
	MinDaysCover       float64
}

// DefaultCommercialThresholds returns the standard gate boundaries.
func DefaultCommercialThresholds() CommercialThresholds {
	return CommercialThresholds{
		MinROIPercent:      ProfitROIPercent,
		CriticalStockUnits: CriticalStockUnits,
		HealthyStockUnits:  HealthyStockUnits,
		MinDaysCover:       14,
	}
}

// CommercialGateInput holds the precomputed snapshots a gate is judged on.
type CommercialGateInput struct {
	Phase      Phase
	Business   BusinessSnapshot
	Stock      StockSignal
	Thresholds *CommercialThresholds
}

// CommercialGate is the advisory badge state for a project's current phase.
type CommercialGate struct {
	GateID  GateID     `json:"gate_id"`
	Status  GateStatus `json:"status"`
	Label   string     `json:"label"`
	Tone    Tone       `json:"tone"`
	Reasons []string   `json:"reasons"`
}

// GateIDForPhase maps a phase to its commercial gate.
func GateIDForPhase(phase Phase) GateID {
	switch {
	case phase >= PhaseLive:
		return GateLive
	case phase == PhaseListing:
		return GateListing
	case phase == PhaseProduction:
		return GateProduction
	default:
		return GateNone
	}
}

// ComputeCommercialGate evaluates the gate for in.Phase against the snapshots.
func ComputeCommercialGate(in CommercialGateInput) CommercialGate {
	thresholds := DefaultCommercialThresholds()
	if in.Thresholds != nil {
		thresholds = *in.Thresholds
	}

	gateID := GateIDForPhase(in.Phase)
	var blocked, warnings []string
	switch gateID {
	case GateProduction:
		blocked, warnings = productionGate(in.Business, thresholds)
	case GateListing:
		blocked, warnings = listingGate(in.Stock, thresholds)
	case GateLive:
		blocked, warnings = liveGate(in.Business, in.Stock, thresholds)
	default:
		return CommercialGate{
			GateID:  GateNone,
			Status:  GateStatusOK,
			Label:   "NO GATE",
			Tone:    ToneNeutral,
			Reasons: []string{},
		}
	}

	gate := CommercialGate{GateID: gateID}
	switch {
	case len(blocked) > 0:
		gate.Status, gate.Tone, gate.Reasons = GateStatusBlocked, ToneDanger, blocked
	case len(warnings) > 0:
		gate.Status, gate.Tone, gate.Reasons = GateStatusWarning, ToneWarning, warnings
	default:
		gate.Status, gate.Tone, gate.Reasons = GateStatusOK, ToneSuccess, []string{}
	}
	gate.Label = fmt.Sprintf("%s %s", gateID, labelForStatus(gate.Status))
	return gate
}

// productionGate requires a costed investment and a viable ROI.
func productionGate(b BusinessSnapshot, t CommercialThresholds) (blocked, warnings []string) {
	if b.InvestedTotal <= 0 {
		blocked = append(blocked, "no investment recorded")
	}
	if b.POCount == 0 {
		blocked = append(blocked, "no purchase order")
	}
	if b.UnitCost == nil {
		blocked = append(blocked, "unit cost unavailable")
	}
	if b.SellingPrice == nil || *b.SellingPrice <= 0 {
		blocked = append(blocked, "selling price missing")
	}
	if roi := b.roi(); roi != nil && *roi < t.MinROIPercent {
		blocked = append(blocked, fmt.Sprintf("ROI below %s%%", trimFloat(t.MinROIPercent)))
	}
	if len(blocked) == 0 && b.ROIPercent == nil {
		warnings = append(warnings, "ROI unknown until first sales")
	}
	return blocked, warnings
}

// listingGate requires enough stock to launch.
func listingGate(s StockSignal, t CommercialThresholds) (blocked, warnings []string) {
	if s.UnitsAvailable == nil {
		return nil, []string{"no stock data"}
	}
	units := *s.UnitsAvailable
	switch {
	case units <= 0:
		blocked = append(blocked, "no stock available")
	case units < t.CriticalStockUnits:
		blocked = append(blocked, fmt.Sprintf("stock below %s units", trimFloat(t.CriticalStockUnits)))
	case units < t.HealthyStockUnits:
		warnings = append(warnings, fmt.Sprintf("stock below %s units", trimFloat(t.HealthyStockUnits)))
	}
	if s.DaysCover != nil && *s.DaysCover < t.MinDaysCover {
		warnings = append(warnings, fmt.Sprintf("days of cover below %s", trimFloat(t.MinDaysCover)))
	}
	return blocked, warnings
}

// liveGate keeps a selling product stocked and profitable.
func liveGate(b BusinessSnapshot, s StockSignal, t CommercialThresholds) (blocked, warnings []string) {
	if s.UnitsAvailable != nil && *s.UnitsAvailable <= 0 {
		blocked = append(blocked, "no stock available")
	}
	if roi := b.roi(); roi != nil && *roi < 0 {
		blocked = append(blocked, "negative ROI")
	}
	if s.DaysCover != nil && *s.DaysCover < t.MinDaysCover {
		warnings = append(warnings, fmt.Sprintf("stock risk: days of cover below %s", trimFloat(t.MinDaysCover)))
	}
	if b.IncomesTotal <= 0 {
		warnings = append(warnings, "no income recorded yet")
	}
	return blocked, warnings
}

// labelForStatus returns the uppercase display word of a status.
func labelForStatus(status GateStatus) string {
	switch status {
	case GateStatusBlocked:
		return "BLOCKED"
	case GateStatusWarning:
		return "WARNING"
	default:
		return "OK"
	}
}

// trimFloat formats a threshold without trailing zeros.
func trimFloat(v float64) string {
	return fmt.Sprintf("%g", v)
}
