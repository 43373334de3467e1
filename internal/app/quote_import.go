package app

import (
	"context"

	"github.com/evanschultz/fbagate/internal/domain"
	"github.com/evanschultz/fbagate/internal/quotetext"
)

// ParseSupplierQuote parses supplier quote text without storing anything.
func (s *Service) ParseSupplierQuote(text string) quotetext.Result {
	return quotetext.Parse(text)
}

// ImportSupplierQuote parses quote text and stores it on the project. unit_price
// and moq become the first price break.
func (s *Service) ImportSupplierQuote(ctx context.Context, projectID, text string) (domain.SupplierQuote, error) {
	parsed, err := quotetext.ParseQuote(text)
	if err != nil {
		return domain.SupplierQuote{}, err
	}
	in := domain.SupplierQuoteInput{
		ProjectID:    projectID,
		SupplierName: parsed.SupplierName,
		Currency:     parsed.Currency,
		MOQ:          parsed.MOQ,
		LeadTimeDays: parsed.LeadTimeDays,
		ValidUntil:   parsed.ValidUntil,
	}
	if parsed.Incoterm != nil {
		in.Incoterm = *parsed.Incoterm
	}
	if parsed.Notes != nil {
		in.Notes = *parsed.Notes
	}
	if parsed.UnitPrice != nil {
		minQty := 1
		if parsed.MOQ != nil && *parsed.MOQ > 0 {
			minQty = *parsed.MOQ
		}
		in.PriceBreaks = []domain.PriceBreak{{MinQty: minQty, UnitPrice: *parsed.UnitPrice}}
	}
	return s.CreateSupplierQuote(ctx, in)
}
