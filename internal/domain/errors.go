package domain

import "errors"

var (
	ErrInvalidID           = errors.New("invalid id")
	ErrInvalidName         = errors.New("invalid name")
	ErrInvalidTitle        = errors.New("invalid title")
	ErrInvalidPhase        = errors.New("invalid phase")
	ErrInvalidDecision     = errors.New("invalid decision")
	ErrInvalidCategory     = errors.New("invalid category")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrInvalidCurrency     = errors.New("invalid currency")
	ErrInvalidGTINType     = errors.New("invalid gtin type")
	ErrInvalidDirection    = errors.New("invalid stock direction")
	ErrProjectNotDiscarded = errors.New("project is not discarded")
)
