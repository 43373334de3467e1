package domain

import (
	"strings"
	"time"
)

// PriceBreak is one quantity tier of a supplier quote.
type PriceBreak struct {
	MinQty    int     `json:"min_qty"`
	UnitPrice float64 `json:"unit_price"`
}

// SupplierQuote is a supplier's formal price offer for a project.
type SupplierQuote struct {
	ID           string
	ProjectID    string
	SupplierName string
	Currency     string
	Incoterm     string
	MOQ          *int
	LeadTimeDays *int
	ValidUntil   *time.Time
	Notes        string
	PriceBreaks  []PriceBreak
	CreatedAt    time.Time
}

// SupplierQuoteInput holds input values for NewSupplierQuote.
type SupplierQuoteInput struct {
	ID           string
	ProjectID    string
	SupplierName string
	Currency     string
	Incoterm     string
	MOQ          *int
	LeadTimeDays *int
	ValidUntil   *time.Time
	Notes        string
	PriceBreaks  []PriceBreak
}

// NewSupplierQuote validates and constructs a quote.
func NewSupplierQuote(in SupplierQuoteInput, now time.Time) (SupplierQuote, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.ProjectID = strings.TrimSpace(in.ProjectID)
	if in.ID == "" || in.ProjectID == "" {
		return SupplierQuote{}, ErrInvalidID
	}
	in.SupplierName = strings.TrimSpace(in.SupplierName)
	if in.SupplierName == "" {
		return SupplierQuote{}, ErrInvalidName
	}
	currency, err := normalizeCurrency(in.Currency)
	if err != nil {
		return SupplierQuote{}, err
	}
	breaks := make([]PriceBreak, 0, len(in.PriceBreaks))
	for _, pb := range in.PriceBreaks {
		if pb.MinQty < 0 {
			return SupplierQuote{}, ErrInvalidQuantity
		}
		if pb.UnitPrice < 0 {
			return SupplierQuote{}, ErrInvalidAmount
		}
		breaks = append(breaks, pb)
	}
	return SupplierQuote{
		ID:           in.ID,
		ProjectID:    in.ProjectID,
		SupplierName: in.SupplierName,
		Currency:     currency,
		Incoterm:     strings.ToUpper(strings.TrimSpace(in.Incoterm)),
		MOQ:          in.MOQ,
		LeadTimeDays: in.LeadTimeDays,
		ValidUntil:   in.ValidUntil,
		Notes:        strings.TrimSpace(in.Notes),
		PriceBreaks:  breaks,
		CreatedAt:    now.UTC(),
	}, nil
}

// SupplierPriceEstimate is an informal price signal gathered during research.
type SupplierPriceEstimate struct {
	ID        string
	ProjectID string
	Source    string
	UnitPrice float64
	Currency  string
	MOQ       *int
	CreatedAt time.Time
}

// NewSupplierPriceEstimate validates and constructs an estimate.
func NewSupplierPriceEstimate(id, projectID, source string, unitPrice float64, currency string, moq *int, now time.Time) (SupplierPriceEstimate, error) {
	id = strings.TrimSpace(id)
	projectID = strings.TrimSpace(projectID)
	if id == "" || projectID == "" {
		return SupplierPriceEstimate{}, ErrInvalidID
	}
	if unitPrice < 0 {
		return SupplierPriceEstimate{}, ErrInvalidAmount
	}
	currency, err := normalizeCurrency(currency)
	if err != nil {
		return SupplierPriceEstimate{}, err
	}
	return SupplierPriceEstimate{
		ID:        id,
		ProjectID: projectID,
		Source:    strings.TrimSpace(source),
		UnitPrice: unitPrice,
		Currency:  currency,
		MOQ:       moq,
		CreatedAt: now.UTC(),
	}, nil
}

// normalizeCurrency upper-cases a three-letter currency code.
func normalizeCurrency(raw string) (string, error) {
	currency := strings.ToUpper(strings.TrimSpace(raw))
	if len(currency) != 3 {
		return "", ErrInvalidCurrency
	}
	for _, r := range currency {
		if r < 'A' || r > 'Z' {
			return "", ErrInvalidCurrency
		}
	}
	return currency, nil
}
