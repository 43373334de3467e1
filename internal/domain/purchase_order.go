package domain

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

// POStatus represents a purchase-order lifecycle state.
type POStatus string

// POStatus values.
const (
	POStatusDraft     POStatus = "draft"
	POStatusSent      POStatus = "sent"
	POStatusConfirmed POStatus = "confirmed"
	POStatusShipped   POStatus = "shipped"
	POStatusReceived  POStatus = "received"
	POStatusCancelled POStatus = "cancelled"
)

var validPOStatuses = []POStatus{
	POStatusDraft,
	POStatusSent,
	POStatusConfirmed,
	POStatusShipped,
	POStatusReceived,
	POStatusCancelled,
}

// POItem is one line item of a purchase order.
type POItem struct {
	SKU      string  `json:"sku,omitempty"`
	Quantity float64 `json:"quantity"`
}

// UnmarshalJSON accepts the qty, unitats and quantity aliases for the item
// quantity. The first non-zero alias wins.
func (i *POItem) UnmarshalJSON(data []byte) error {
	var raw struct {
		SKU      string   `json:"sku"`
		Quantity *float64 `json:"quantity"`
		Qty      *float64 `json:"qty"`
		Unitats  *float64 `json:"unitats"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode po item: %w", err)
	}
	i.SKU = strings.TrimSpace(raw.SKU)
	i.Quantity = 0
	for _, candidate := range []*float64{raw.Qty, raw.Unitats, raw.Quantity} {
		if candidate != nil && *candidate != 0 {
			i.Quantity = *candidate
			break
		}
	}
	return nil
}

// PurchaseOrder is a committed inventory order to a supplier.
type PurchaseOrder struct {
	ID        string
	ProjectID string
	Number    string
	Status    POStatus
	Total     float64
	Currency  string
	Items     []POItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PurchaseOrderInput holds input values for NewPurchaseOrder.
type PurchaseOrderInput struct {
	ID        string
	ProjectID string
	Number    string
	Status    POStatus
	Total     float64
	Currency  string
	Items     []POItem
}

// NewPurchaseOrder validates and constructs a purchase order, defaulting to draft.
func NewPurchaseOrder(in PurchaseOrderInput, now time.Time) (PurchaseOrder, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.ProjectID = strings.TrimSpace(in.ProjectID)
	if in.ID == "" || in.ProjectID == "" {
		return PurchaseOrder{}, ErrInvalidID
	}
	status, err := NormalizePOStatus(in.Status)
	if err != nil {
		return PurchaseOrder{}, err
	}
	if in.Total < 0 {
		return PurchaseOrder{}, ErrInvalidAmount
	}
	currency, err := normalizeCurrency(in.Currency)
	if err != nil {
		return PurchaseOrder{}, err
	}
	for _, item := range in.Items {
		if item.Quantity < 0 {
			return PurchaseOrder{}, ErrInvalidQuantity
		}
	}
	return PurchaseOrder{
		ID:        in.ID,
		ProjectID: in.ProjectID,
		Number:    strings.TrimSpace(in.Number),
		Status:    status,
		Total:     in.Total,
		Currency:  currency,
		Items:     append([]POItem(nil), in.Items...),
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}, nil
}

// NormalizePOStatus canonicalizes a status value, defaulting to draft.
func NormalizePOStatus(status POStatus) (POStatus, error) {
	status = POStatus(strings.ToLower(strings.TrimSpace(string(status))))
	if status == "" {
		return POStatusDraft, nil
	}
	if !slices.Contains(validPOStatuses, status) {
		return "", ErrInvalidStatus
	}
	return status, nil
}

// SetStatus moves the order to another status.
func (po *PurchaseOrder) SetStatus(status POStatus, now time.Time) error {
	status, err := NormalizePOStatus(status)
	if err != nil {
		return err
	}
	po.Status = status
	po.UpdatedAt = now.UTC()
	return nil
}

// UnitCount sums item quantities.
func (po PurchaseOrder) UnitCount() float64 {
	var total float64
	for _, item := range po.Items {
		total += item.Quantity
	}
	return total
}
