package domain

import (
	"strings"
	"time"
)

// Profitability is the per-unit economics record for a project.
type Profitability struct {
	ProjectID       string
	SellingPrice    float64
	COGS            float64
	ShippingPerUnit float64
	ReferralFee     float64
	FBAFee          float64
	PPCPerUnit      float64
	OtherCosts      float64
	UpdatedAt       time.Time
}

// NewProfitability validates and constructs a profitability record.
func NewProfitability(in Profitability, now time.Time) (Profitability, error) {
	in.ProjectID = strings.TrimSpace(in.ProjectID)
	if in.ProjectID == "" {
		return Profitability{}, ErrInvalidID
	}
	for _, v := range []float64{in.SellingPrice, in.COGS, in.ShippingPerUnit, in.ReferralFee, in.FBAFee, in.PPCPerUnit, in.OtherCosts} {
		if v < 0 {
			return Profitability{}, ErrInvalidAmount
		}
	}
	in.UpdatedAt = now.UTC()
	return in, nil
}

// TotalCostPerUnit sums every per-unit cost.
func (p Profitability) TotalCostPerUnit() float64 {
	return p.COGS + p.ShippingPerUnit + p.ReferralFee + p.FBAFee + p.PPCPerUnit + p.OtherCosts
}

// NetProfitPerUnit is selling price minus every per-unit cost.
func (p Profitability) NetProfitPerUnit() float64 {
	return p.SellingPrice - p.TotalCostPerUnit()
}

// MarginPercent returns net profit as a percentage of selling price, or nil without a price.
func (p Profitability) MarginPercent() *float64 {
	if p.SellingPrice <= 0 {
		return nil
	}
	m := round2(p.NetProfitPerUnit() / p.SellingPrice * 100)
	return &m
}
