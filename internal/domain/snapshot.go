package domain

import "strings"

// Cache keys for locally cached calculator snapshots.
const (
	competitorSnapshotKeyPrefix = "competitive_asin_meta_"
	viabilitySnapshotKeyPrefix  = "viability_"
)

// CompetitorSnapshotKey returns the cache key of a project's competitor snapshot.
func CompetitorSnapshotKey(projectID string) string {
	return competitorSnapshotKeyPrefix + strings.TrimSpace(projectID)
}

// ViabilitySnapshotKey returns the cache key of a project's viability snapshot.
func ViabilitySnapshotKey(projectID string) string {
	return viabilitySnapshotKeyPrefix + strings.TrimSpace(projectID)
}

// CompetitorSnapshot is research data captured about the main competitor listing.
type CompetitorSnapshot struct {
	ASIN     string  `json:"asin,omitempty"`
	Price    float64 `json:"price,omitempty"`
	Category string  `json:"category,omitempty"`
	SizeTier string  `json:"size_tier,omitempty"`
	WeightKg float64 `json:"weight_kg,omitempty"`
	Brand    string  `json:"brand,omitempty"`
}

// HasAnyField reports whether at least one research field is populated.
func (c CompetitorSnapshot) HasAnyField() bool {
	return strings.TrimSpace(c.ASIN) != "" ||
		c.Price > 0 ||
		strings.TrimSpace(c.Category) != "" ||
		strings.TrimSpace(c.SizeTier) != "" ||
		c.WeightKg > 0 ||
		strings.TrimSpace(c.Brand) != ""
}

// Complete reports whether the snapshot carries every field viability needs.
func (c CompetitorSnapshot) Complete() bool {
	return c.Price > 0 &&
		c.WeightKg > 0 &&
		strings.TrimSpace(c.Category) != "" &&
		strings.TrimSpace(c.SizeTier) != "" &&
		strings.TrimSpace(c.Brand) != ""
}

// ViabilitySnapshot is the locally saved output of the viability calculator.
type ViabilitySnapshot struct {
	SellingPrice    float64  `json:"selling_price"`
	COGS            float64  `json:"cogs"`
	ShippingPerUnit float64  `json:"shipping_per_unit,omitempty"`
	ReferralFee     float64  `json:"referral_fee,omitempty"`
	FBAFee          float64  `json:"fba_fee,omitempty"`
	PPCPerUnit      float64  `json:"ppc_per_unit,omitempty"`
	OtherCosts      float64  `json:"other_costs,omitempty"`
	Margin          *float64 `json:"margin,omitempty"`
}

// Profitability converts the snapshot into a profitability record for projectID.
func (v ViabilitySnapshot) Profitability(projectID string) Profitability {
	return Profitability{
		ProjectID:       projectID,
		SellingPrice:    v.SellingPrice,
		COGS:            v.COGS,
		ShippingPerUnit: v.ShippingPerUnit,
		ReferralFee:     v.ReferralFee,
		FBAFee:          v.FBAFee,
		PPCPerUnit:      v.PPCPerUnit,
		OtherCosts:      v.OtherCosts,
	}
}

// WithComputedMargin returns a copy with Margin filled from the cost fields.
func (v ViabilitySnapshot) WithComputedMargin() ViabilitySnapshot {
	v.Margin = v.Profitability("").MarginPercent()
	return v
}
