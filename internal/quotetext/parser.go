// Package quotetext parses the "# SUPPLIER_QUOTE" plain-text format suppliers
// paste into a project.
package quotetext

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Header must be the first non-blank line of a quote.
const Header = "# SUPPLIER_QUOTE"

// Error codes reported in Result.Error.
const (
	CodeMissingHeader       = "MISSING_HEADER"
	CodeMissingSupplierName = "MISSING_SUPPLIER_NAME"
	CodeMissingCurrency     = "MISSING_CURRENCY"
	CodeInvalidValue        = "INVALID_VALUE"
)

// Sentinel errors wrapped by ParseError, one per error code. Match them with
// errors.Is on the ParseQuote error.
var (
	ErrMissingHeader       = errors.New("missing supplier quote header")
	ErrMissingSupplierName = errors.New("missing supplier_name")
	ErrMissingCurrency     = errors.New("missing currency")
	ErrInvalidValue        = errors.New("invalid value")
)

type fieldType int

const (
	fieldString fieldType = iota
	fieldInt
	fieldFloat
	fieldBool
	fieldDate
)

// knownFields maps each accepted key to its value type. Other keys are ignored.
var knownFields = map[string]fieldType{
	"supplier_name":    fieldString,
	"supplier_contact": fieldString,
	"currency":         fieldString,
	"incoterm":         fieldString,
	"payment_terms":    fieldString,
	"notes":            fieldString,
	"moq":              fieldInt,
	"lead_time_days":   fieldInt,
	"unit_price":       fieldFloat,
	"shipping_cost":    fieldFloat,
	"tooling_cost":     fieldFloat,
	"sample_available": fieldBool,
	"valid_until":      fieldDate,
}

// Quote is the typed content of a parsed supplier quote. Optional fields are
// nil when absent or written as null.
type Quote struct {
	SupplierName    string     `json:"supplier_name"`
	SupplierContact *string    `json:"supplier_contact"`
	Currency        string     `json:"currency"`
	Incoterm        *string    `json:"incoterm"`
	PaymentTerms    *string    `json:"payment_terms"`
	Notes           *string    `json:"notes"`
	MOQ             *int       `json:"moq"`
	LeadTimeDays    *int       `json:"lead_time_days"`
	UnitPrice       *float64   `json:"unit_price"`
	ShippingCost    *float64   `json:"shipping_cost"`
	ToolingCost     *float64   `json:"tooling_cost"`
	SampleAvailable *bool      `json:"sample_available"`
	ValidUntil      *time.Time `json:"valid_until"`
}

// Result is the transport shape of a parse attempt.
type Result struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Data  *Quote `json:"data,omitempty"`
}

// ParseError carries the machine code of a failed parse.
type ParseError struct {
	Code string
	Key  string
	Err  error
}

// Error implements error.
func (e *ParseError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s: %s", e.Err, e.Key)
	}
	return e.Err.Error()
}

// Unwrap returns the sentinel error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// ResultCode returns the wire code, e.g. "INVALID_VALUE:moq".
func (e *ParseError) ResultCode() string {
	if e.Key != "" {
		return e.Code + ":" + e.Key
	}
	return e.Code
}

// Parse parses text and reports the outcome as a Result.
func Parse(text string) Result {
	quote, err := ParseQuote(text)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			return Result{Error: perr.ResultCode()}
		}
		return Result{Error: err.Error()}
	}
	return Result{OK: true, Data: &quote}
}

// ParseQuote parses text into a Quote.
func ParseQuote(text string) (Quote, error) {
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	sawHeader := false
	values := map[string]string{}
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !sawHeader {
			if !strings.EqualFold(line, Header) {
				return Quote{}, &ParseError{Code: CodeMissingHeader, Err: ErrMissingHeader}
			}
			sawHeader = true
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if _, known := knownFields[key]; !known {
			continue
		}
		values[key] = unquote(strings.TrimSpace(value))
	}
	if err := scanner.Err(); err != nil {
		return Quote{}, fmt.Errorf("scan supplier quote: %w", err)
	}
	if !sawHeader {
		return Quote{}, &ParseError{Code: CodeMissingHeader, Err: ErrMissingHeader}
	}

	var (
		quote Quote
		err   error
	)
	str := func(key string) *string {
		raw, ok := present(values, key)
		if !ok {
			return nil
		}
		return &raw
	}
	if name := str("supplier_name"); name != nil {
		quote.SupplierName = *name
	}
	if currency := str("currency"); currency != nil {
		quote.Currency = strings.ToUpper(*currency)
	}
	quote.SupplierContact = str("supplier_contact")
	quote.Incoterm = str("incoterm")
	if quote.Incoterm != nil {
		upper := strings.ToUpper(*quote.Incoterm)
		quote.Incoterm = &upper
	}
	quote.PaymentTerms = str("payment_terms")
	quote.Notes = str("notes")

	if quote.MOQ, err = parseInt(values, "moq"); err != nil {
		return Quote{}, err
	}
	if quote.LeadTimeDays, err = parseInt(values, "lead_time_days"); err != nil {
		return Quote{}, err
	}
	if quote.UnitPrice, err = parseFloat(values, "unit_price"); err != nil {
		return Quote{}, err
	}
	if quote.ShippingCost, err = parseFloat(values, "shipping_cost"); err != nil {
		return Quote{}, err
	}
	if quote.ToolingCost, err = parseFloat(values, "tooling_cost"); err != nil {
		return Quote{}, err
	}
	if quote.SampleAvailable, err = parseBool(values, "sample_available"); err != nil {
		return Quote{}, err
	}
	if quote.ValidUntil, err = parseDate(values, "valid_until"); err != nil {
		return Quote{}, err
	}

	if quote.SupplierName == "" {
		return Quote{}, &ParseError{Code: CodeMissingSupplierName, Err: ErrMissingSupplierName}
	}
	if quote.Currency == "" {
		return Quote{}, &ParseError{Code: CodeMissingCurrency, Err: ErrMissingCurrency}
	}
	return quote, nil
}

// present returns a value unless it is absent, empty, or the null literal.
func present(values map[string]string, key string) (string, bool) {
	raw, ok := values[key]
	if !ok || raw == "" || strings.EqualFold(raw, "null") {
		return "", false
	}
	return raw, true
}

func invalid(key string) error {
	return &ParseError{Code: CodeInvalidValue, Key: key, Err: ErrInvalidValue}
}

func parseInt(values map[string]string, key string) (*int, error) {
	raw, ok := present(values, key)
	if !ok {
		return nil, nil
	}
	n, err := strconv.Atoi(strings.ReplaceAll(raw, "_", ""))
	if err != nil || n < 0 {
		return nil, invalid(key)
	}
	return &n, nil
}

func parseFloat(values map[string]string, key string) (*float64, error) {
	raw, ok := present(values, key)
	if !ok {
		return nil, nil
	}
	// Decimal commas are common in supplier spreadsheets.
	if !strings.Contains(raw, ".") {
		raw = strings.Replace(raw, ",", ".", 1)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 {
		return nil, invalid(key)
	}
	return &f, nil
}

func parseBool(values map[string]string, key string) (*bool, error) {
	raw, ok := present(values, key)
	if !ok {
		return nil, nil
	}
	var b bool
	switch strings.ToLower(raw) {
	case "true", "yes", "y", "1", "si", "sí":
		b = true
	case "false", "no", "n", "0":
		b = false
	default:
		return nil, invalid(key)
	}
	return &b, nil
}

func parseDate(values map[string]string, key string) (*time.Time, error) {
	raw, ok := present(values, key)
	if !ok {
		return nil, nil
	}
	ts, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, invalid(key)
	}
	return &ts, nil
}

// unquote strips one pair of matching surrounding quotes.
func unquote(v string) string {
	if len(v) >= 2 {
		first, last := v[0], v[len(v)-1]
		if (first == '"' || first == '\'') && first == last {
			return strings.TrimSpace(v[1 : len(v)-1])
		}
	}
	return v
}
