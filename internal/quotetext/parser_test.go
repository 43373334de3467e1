package quotetext

import (
	"errors"
	"testing"
	"time"
)

func TestParseMissingHeader(t *testing.T) {
	res := Parse("supplier_name: Ningbo Bamboo\ncurrency: USD\n")
	if res.OK || res.Error != CodeMissingHeader {
		t.Fatalf("expected MISSING_HEADER, got %#v", res)
	}
	if res := Parse("   \n\n"); res.Error != CodeMissingHeader {
		t.Fatalf("expected MISSING_HEADER for blank input, got %#v", res)
	}
}

func TestParseMinimalQuote(t *testing.T) {
	res := Parse("\n# SUPPLIER_QUOTE\nsupplier_name: Ningbo Bamboo Co\ncurrency: usd\n")
	if !res.OK || res.Data == nil {
		t.Fatalf("expected ok result, got %#v", res)
	}
	q := res.Data
	if q.SupplierName != "Ningbo Bamboo Co" || q.Currency != "USD" {
		t.Fatalf("unexpected required fields %#v", q)
	}
	if q.SupplierContact != nil || q.Incoterm != nil || q.PaymentTerms != nil || q.Notes != nil ||
		q.MOQ != nil || q.LeadTimeDays != nil || q.UnitPrice != nil || q.ShippingCost != nil ||
		q.ToolingCost != nil || q.SampleAvailable != nil || q.ValidUntil != nil {
		t.Fatalf("expected nil optional fields, got %#v", q)
	}
}

func TestParseFullQuote(t *testing.T) {
	text := `# SUPPLIER_QUOTE
# pasted from email
supplier_name: "Ningbo Bamboo Co"
supplier_contact: lily@example.com
currency: USD
incoterm: fob
payment_terms: 30% deposit, 70% before shipping
moq: 500
lead_time_days: 35
unit_price: 2,35
shipping_cost: 410.5
tooling_cost: null
sample_available: yes
valid_until: 2026-06-30
notes: laser logo included
color: natural
`
	q, err := ParseQuote(text)
	if err != nil {
		t.Fatalf("ParseQuote() error = %v", err)
	}
	if q.SupplierName != "Ningbo Bamboo Co" {
		t.Fatalf("expected unquoted supplier name, got %q", q.SupplierName)
	}
	if q.Incoterm == nil || *q.Incoterm != "FOB" {
		t.Fatalf("unexpected incoterm %v", q.Incoterm)
	}
	if q.PaymentTerms == nil || *q.PaymentTerms != "30% deposit, 70% before shipping" {
		t.Fatalf("unexpected payment terms %v", q.PaymentTerms)
	}
	if q.MOQ == nil || *q.MOQ != 500 || q.LeadTimeDays == nil || *q.LeadTimeDays != 35 {
		t.Fatalf("unexpected ints %v %v", q.MOQ, q.LeadTimeDays)
	}
	if q.UnitPrice == nil || *q.UnitPrice != 2.35 {
		t.Fatalf("expected decimal comma price 2.35, got %v", q.UnitPrice)
	}
	if q.ShippingCost == nil || *q.ShippingCost != 410.5 {
		t.Fatalf("unexpected shipping cost %v", q.ShippingCost)
	}
	if q.ToolingCost != nil {
		t.Fatalf("expected null tooling cost, got %v", *q.ToolingCost)
	}
	if q.SampleAvailable == nil || !*q.SampleAvailable {
		t.Fatalf("expected sample available, got %v", q.SampleAvailable)
	}
	want := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	if q.ValidUntil == nil || !q.ValidUntil.Equal(want) {
		t.Fatalf("unexpected valid_until %v", q.ValidUntil)
	}
}

func TestParseRequiredFields(t *testing.T) {
	cases := []struct {
		name string
		text string
		code string
	}{
		{name: "missing supplier", text: "# SUPPLIER_QUOTE\ncurrency: EUR\n", code: CodeMissingSupplierName},
		{name: "null supplier", text: "# SUPPLIER_QUOTE\nsupplier_name: null\ncurrency: EUR\n", code: CodeMissingSupplierName},
		{name: "missing currency", text: "# SUPPLIER_QUOTE\nsupplier_name: Acme\n", code: CodeMissingCurrency},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if res := Parse(tc.text); res.OK || res.Error != tc.code {
				t.Fatalf("expected %s, got %#v", tc.code, res)
			}
		})
	}
}

func TestParseInvalidValues(t *testing.T) {
	base := "# SUPPLIER_QUOTE\nsupplier_name: Acme\ncurrency: EUR\n"
	cases := []struct {
		line string
		code string
	}{
		{line: "moq: lots", code: "INVALID_VALUE:moq"},
		{line: "lead_time_days: -3", code: "INVALID_VALUE:lead_time_days"},
		{line: "unit_price: two", code: "INVALID_VALUE:unit_price"},
		{line: "sample_available: maybe", code: "INVALID_VALUE:sample_available"},
		{line: "valid_until: 30/06/2026", code: "INVALID_VALUE:valid_until"},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			res := Parse(base + tc.line + "\n")
			if res.OK || res.Error != tc.code {
				t.Fatalf("expected %s, got %#v", tc.code, res)
			}
		})
	}
}

func TestParseQuoteErrorsWrapSentinels(t *testing.T) {
	_, err := ParseQuote("# SUPPLIER_QUOTE\nsupplier_name: Acme\ncurrency: EUR\nmoq: x\n")
	if !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
	var perr *ParseError
	if !errors.As(err, &perr) || perr.Key != "moq" {
		t.Fatalf("expected ParseError for moq, got %#v", err)
	}
}
