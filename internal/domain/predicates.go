package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultApprovalTokens lists the words that mark a sample task as approved.
var DefaultApprovalTokens = []string{"approved", "ok", "aprovat", "validat"}

// sampleToken must appear in a sample approval task title.
const sampleToken = "sample"

// HasCompetitorIdentifier reports whether a competitor ASIN is recorded on the
// project or on its product identifiers.
func HasCompetitorIdentifier(project Project, identifiers *ProductIdentifiers) bool {
	if strings.TrimSpace(project.ASIN) != "" {
		return true
	}
	return identifiers != nil && strings.TrimSpace(identifiers.ASIN) != ""
}

// DecisionAllowsResearchExit reports whether research may conclude with this decision.
func DecisionAllowsResearchExit(decision Decision) bool {
	return decision == DecisionGo || decision == DecisionRisky
}

// HasDocumentInCategory reports whether any document has the category.
func HasDocumentInCategory(docs []Document, category DocumentCategory) bool {
	category = NormalizeDocumentCategory(category)
	for _, doc := range docs {
		if NormalizeDocumentCategory(doc.Category) == category {
			return true
		}
	}
	return false
}

// HasPriceEstimate reports whether any supplier price estimate exists.
func HasPriceEstimate(estimates []SupplierPriceEstimate) bool {
	return len(estimates) > 0
}

// ProfitabilityPositive reports whether a record has a selling price, a COGS and
// a positive net profit per unit.
func ProfitabilityPositive(p *Profitability) bool {
	if p == nil {
		return false
	}
	return p.SellingPrice > 0 && p.COGS > 0 && p.NetProfitPerUnit() > 0
}

// HasQuote reports whether at least one supplier quote exists.
func HasQuote(quotes []SupplierQuote) bool {
	return len(quotes) > 0
}

// HasPositivePriceBreak reports whether any quote has a price break with unit price > 0.
func HasPositivePriceBreak(quotes []SupplierQuote) bool {
	for _, quote := range quotes {
		for _, pb := range quote.PriceBreaks {
			if pb.UnitPrice > 0 {
				return true
			}
		}
	}
	return false
}

// HasApprovedSampleTask reports whether a done task title contains "sample" and
// one approval token. Both are substring matches that ignore case and accents,
// so "Sample reapproved" and "sampleOK" qualify.
func HasApprovedSampleTask(tasks []Task, tokens []string) bool {
	if len(tokens) == 0 {
		tokens = DefaultApprovalTokens
	}
	folded := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if f := foldText(token); f != "" {
			folded = append(folded, f)
		}
	}
	for _, task := range tasks {
		if task.Status != TaskStatusDone {
			continue
		}
		title := foldText(task.Title)
		if !strings.Contains(title, sampleToken) {
			continue
		}
		for _, token := range folded {
			if strings.Contains(title, token) {
				return true
			}
		}
	}
	return false
}

// HasPurchaseOrder reports whether any purchase order exists.
func HasPurchaseOrder(pos []PurchaseOrder) bool {
	return len(pos) > 0
}

// HasNonDraftPurchaseOrder reports whether at least one purchase order has a
// status other than draft. Unknown statuses count as not draft; a blank status
// reads as draft.
func HasNonDraftPurchaseOrder(pos []PurchaseOrder) bool {
	for _, po := range pos {
		status := POStatus(strings.ToLower(strings.TrimSpace(string(po.Status))))
		if status != "" && status != POStatusDraft {
			return true
		}
	}
	return false
}

// foldText lowercases s and strips combining marks so "Validàt" matches "validat".
func foldText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}
