package domain

import "math"

// Tone is the display intent of a badge.
type Tone string

// Tone values.
const (
	ToneSuccess Tone = "success"
	ToneWarning Tone = "warning"
	ToneDanger  Tone = "danger"
	ToneNeutral Tone = "neutral"
)

// BusinessBadge summarizes a project's return on investment.
type BusinessBadge string

// BusinessBadge values.
const (
	BadgeProfit       BusinessBadge = "PROFIT"
	BadgeJust         BusinessBadge = "JUST"
	BadgePerill       BusinessBadge = "PERILL"
	BadgeNotValidated BusinessBadge = "NO VALIDAT"
)

// ProfitROIPercent is the ROI at or above which a project earns the PROFIT badge.
const ProfitROIPercent = 25.0

// BusinessInput holds the rows a business snapshot is derived from.
type BusinessInput struct {
	PurchaseOrders []PurchaseOrder
	Expenses       []Expense
	Incomes        []Income
	SellingPrice   *float64
}

// BusinessSnapshot is a derived investment and return rollup for one project.
type BusinessSnapshot struct {
	POCount       int           `json:"po_count"`
	POTotal       float64       `json:"po_total"`
	ExpensesTotal float64       `json:"expenses_total"`
	InvestedTotal float64       `json:"invested_total"`
	UnitsBought   float64       `json:"units_bought"`
	UnitCost      *float64      `json:"unit_cost"`
	IncomesTotal  float64       `json:"incomes_total"`
	ROIPercent    *float64      `json:"roi_percent"`
	SellingPrice  *float64      `json:"selling_price"`
	Badge         BusinessBadge `json:"badge"`
	Tone          Tone          `json:"tone"`

	// rawROI is the unrounded ROI that badges and gates compare against.
	rawROI *float64
}

// roi returns the unrounded ROI when the snapshot was computed, else the
// displayed value.
func (b BusinessSnapshot) roi() *float64 {
	if b.rawROI != nil {
		return b.rawROI
	}
	return b.ROIPercent
}

// ComputeProjectBusinessSnapshot sums purchase orders, expenses and incomes into
// invested totals, unit cost and ROI. ROI is nil until there is both an
// investment and some income.
func ComputeProjectBusinessSnapshot(in BusinessInput) BusinessSnapshot {
	var snap BusinessSnapshot
	for _, po := range in.PurchaseOrders {
		snap.POCount++
		snap.POTotal += po.Total
		snap.UnitsBought += po.UnitCount()
	}
	for _, expense := range in.Expenses {
		snap.ExpensesTotal += expense.Amount
	}
	for _, income := range in.Incomes {
		snap.IncomesTotal += income.Amount
	}
	snap.InvestedTotal = snap.POTotal + snap.ExpensesTotal
	if snap.UnitsBought > 0 {
		unitCost := round2(snap.InvestedTotal / snap.UnitsBought)
		snap.UnitCost = &unitCost
	}
	if snap.InvestedTotal > 0 && snap.IncomesTotal > 0 {
		raw := (snap.IncomesTotal - snap.InvestedTotal) / snap.InvestedTotal * 100
		shown := round2(raw)
		snap.rawROI = &raw
		snap.ROIPercent = &shown
	}
	if in.SellingPrice != nil {
		price := *in.SellingPrice
		snap.SellingPrice = &price
	}
	snap.Badge, snap.Tone = businessBadge(snap.rawROI)
	return snap
}

// businessBadge buckets ROI into a badge and tone.
func businessBadge(roi *float64) (BusinessBadge, Tone) {
	switch {
	case roi == nil:
		return BadgeNotValidated, ToneNeutral
	case *roi >= ProfitROIPercent:
		return BadgeProfit, ToneSuccess
	case *roi >= 0:
		return BadgeJust, ToneWarning
	default:
		return BadgePerill, ToneDanger
	}
}

// round2 rounds to two decimals. Negative zero collapses to zero.
func round2(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		return 0
	}
	return r
}
