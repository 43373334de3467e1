package domain

import (
	"strings"
	"time"
)

// StockDirection marks a stock row as a signed movement.
type StockDirection string

// StockDirection values. An empty direction means an absolute stock count row.
const (
	StockDirectionNone StockDirection = ""
	StockDirectionIn   StockDirection = "IN"
	StockDirectionOut  StockDirection = "OUT"
)

// StockReasonSale tags OUT movements that count as sales for days-of-cover.
const StockReasonSale = "sale"

// StockEntry is either a stock count row or a signed stock movement.
type StockEntry struct {
	ID         string
	ProjectID  string
	Location   string
	Units      float64
	Direction  StockDirection
	Reason     string
	OccurredAt time.Time
}

// NewStockEntry validates and constructs a stock row.
func NewStockEntry(id, projectID, location string, units float64, direction StockDirection, reason string, occurredAt time.Time) (StockEntry, error) {
	id = strings.TrimSpace(id)
	projectID = strings.TrimSpace(projectID)
	if id == "" || projectID == "" {
		return StockEntry{}, ErrInvalidID
	}
	if units < 0 {
		return StockEntry{}, ErrInvalidQuantity
	}
	direction = StockDirection(strings.ToUpper(strings.TrimSpace(string(direction))))
	switch direction {
	case StockDirectionNone, StockDirectionIn, StockDirectionOut:
	default:
		return StockEntry{}, ErrInvalidDirection
	}
	return StockEntry{
		ID:         id,
		ProjectID:  projectID,
		Location:   strings.TrimSpace(location),
		Units:      units,
		Direction:  direction,
		Reason:     strings.ToLower(strings.TrimSpace(reason)),
		OccurredAt: occurredAt.UTC(),
	}, nil
}

// SignedUnits returns the contribution of this row to available stock.
func (s StockEntry) SignedUnits() float64 {
	if strings.EqualFold(string(s.Direction), string(StockDirectionOut)) {
		return -s.Units
	}
	return s.Units
}
