package domain

// RequirementKind identifies one named condition inside a phase transition rule set.
type RequirementKind string

// RequirementKind values, one per predicate.
const (
	RequirementCompetitorIdentifier  RequirementKind = "competitor_identifier"
	RequirementResearchDecision      RequirementKind = "research_decision"
	RequirementResearchEvidence      RequirementKind = "research_evidence"
	RequirementCompetitorSnapshot    RequirementKind = "competitor_snapshot_complete"
	RequirementProfitability         RequirementKind = "profitability_positive"
	RequirementSupplierQuote         RequirementKind = "supplier_quote"
	RequirementQuotePriceBreak       RequirementKind = "quote_price_break"
	RequirementSampleDocument        RequirementKind = "sample_document"
	RequirementSampleApproval        RequirementKind = "sample_approval_task"
	RequirementPurchaseOrder         RequirementKind = "purchase_order"
	RequirementPurchaseOrderDocument RequirementKind = "po_document"
	RequirementValidGTIN             RequirementKind = "valid_gtin"
	RequirementListingDocument       RequirementKind = "listing_document"
)

// requirementLabels stores the single user-facing label of each requirement.
var requirementLabels = map[RequirementKind]string{
	RequirementCompetitorIdentifier:  "competitor ASIN defined",
	RequirementResearchDecision:      "decision GO or RISKY",
	RequirementResearchEvidence:      "analysis document, supplier price estimate or competitor snapshot",
	RequirementCompetitorSnapshot:    "competitor snapshot complete (price, weight, category, size tier, brand)",
	RequirementProfitability:         "profitability with positive net profit per unit",
	RequirementSupplierQuote:         "at least one supplier quote",
	RequirementQuotePriceBreak:       "supplier quote price break with unit price > 0",
	RequirementSampleDocument:        "sample document",
	RequirementSampleApproval:        "completed sample approval task",
	RequirementPurchaseOrder:         "purchase order beyond draft",
	RequirementPurchaseOrderDocument: "po document",
	RequirementValidGTIN:             "valid GTIN or GTIN exemption",
	RequirementListingDocument:       "listing document",
}

// Label returns the display label of the requirement.
func (k RequirementKind) Label() string {
	if label, ok := requirementLabels[k]; ok {
		return label
	}
	return string(k)
}

// Structural labels returned before (or instead of) any requirement evaluation.
const (
	LabelInvalidPhase     = "invalid phase"
	LabelCannotSkipPhases = "cannot skip phases"
	LabelProjectDiscarded = "project discarded"
	LabelValidationFailed = "phase validation failed"
)

// Outcome is the three-state result of one requirement check.
type Outcome string

// Outcome values. EvidenceUnavailable counts as unmet when results are aggregated.
const (
	OutcomeSatisfied           Outcome = "satisfied"
	OutcomeUnsatisfied         Outcome = "unsatisfied"
	OutcomeEvidenceUnavailable Outcome = "evidence_unavailable"
)

// OutcomeOf converts a predicate verdict into an outcome.
func OutcomeOf(ok bool) Outcome {
	if ok {
		return OutcomeSatisfied
	}
	return OutcomeUnsatisfied
}

// Met reports whether the outcome satisfies its requirement.
func (o Outcome) Met() bool {
	return o == OutcomeSatisfied
}

// RequirementResult is the evaluated state of one requirement.
type RequirementResult struct {
	Kind    RequirementKind `json:"kind"`
	Label   string          `json:"label"`
	Outcome Outcome         `json:"outcome"`
	Detail  string          `json:"detail,omitempty"`
}
