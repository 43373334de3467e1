package domain

import (
	"strings"
	"time"
)

// GTINType classifies how a product is identified in the catalog.
type GTINType string

// GTINType values.
const (
	GTINTypeEAN    GTINType = "EAN"
	GTINTypeUPC    GTINType = "UPC"
	GTINTypeExempt GTINType = "GTIN_EXEMPT"
)

// ProductIdentifiers holds the catalog identifiers required before listing.
type ProductIdentifiers struct {
	ProjectID       string
	GTINType        GTINType
	GTINCode        string
	ExemptionReason string
	ASIN            string
	FNSKU           string
	UpdatedAt       time.Time
}

// NewProductIdentifiers normalizes identifier input. Validity is checked by GTINValid
// so that incomplete identifiers can still be saved while work is in progress.
func NewProductIdentifiers(projectID string, gtinType GTINType, code, exemptionReason, asin, fnsku string, now time.Time) (ProductIdentifiers, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return ProductIdentifiers{}, ErrInvalidID
	}
	gtinType = GTINType(strings.ToUpper(strings.TrimSpace(string(gtinType))))
	switch gtinType {
	case "", GTINTypeEAN, GTINTypeUPC, GTINTypeExempt:
	default:
		return ProductIdentifiers{}, ErrInvalidGTINType
	}
	return ProductIdentifiers{
		ProjectID:       projectID,
		GTINType:        gtinType,
		GTINCode:        strings.TrimSpace(code),
		ExemptionReason: strings.TrimSpace(exemptionReason),
		ASIN:            strings.ToUpper(strings.TrimSpace(asin)),
		FNSKU:           strings.ToUpper(strings.TrimSpace(fnsku)),
		UpdatedAt:       now.UTC(),
	}, nil
}

// GTINValid reports whether the identifiers satisfy the listing requirement:
// EAN/UPC with a code, or GTIN_EXEMPT with an exemption reason.
func (p ProductIdentifiers) GTINValid() bool {
	switch GTINType(strings.ToUpper(strings.TrimSpace(string(p.GTINType)))) {
	case GTINTypeEAN, GTINTypeUPC:
		return strings.TrimSpace(p.GTINCode) != ""
	case GTINTypeExempt:
		return strings.TrimSpace(p.ExemptionReason) != ""
	default:
		return false
	}
}
