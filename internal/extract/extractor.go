// Package extract parses invoice identities out of opaque text: QR symbol
// payloads on the primary path and whole-document text on the fallback
// path. Everything here is pure; absence is reported as zero values, never
// as an error.
package extract

import (
	"regexp"

	"github.com/shopspring/decimal"

	"github.com/invoice-scanner/internal/invoice"
)

// numberPattern matches the first 20-digit or 8-digit token bounded by
// non-digits. The two lengths are mutually exclusive alternatives; the
// leftmost match wins.
var numberPattern = regexp.MustCompile(`\b(\d{20}|\d{8})\b`)

// amountPatterns are tried in strict priority order; the first pattern
// that matches anywhere in the payload wins and the rest are skipped.
// The order encodes empirically observed payload conventions, not a
// published grammar.
var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d+\.\d+),`),          // bare decimal before a comma
	regexp.MustCompile(`金额[:：]?\s*(\d+\.\d+)`), // labeled, optional colon
	regexp.MustCompile(`¥\s*(\d+\.\d+)`),       // currency glyph
	regexp.MustCompile(`[^\d](\d+\.\d+)[^\d]`), // generic non-digit bounded
}

// labeledAmount matches currency-marked amounts in whole-document text.
var labeledAmount = regexp.MustCompile(`¥\s*(\d+\.\d+)`)

// Extract parses a symbol payload into an invoice identity. Total: inputs
// with no recognizable fields yield an empty identity.
func Extract(raw string) invoice.Identity {
	id := invoice.Identity{Number: numberPattern.FindString(raw)}

	for _, p := range amountPatterns {
		m := p.FindStringSubmatch(raw)
		if m == nil {
			continue
		}
		if d, ok := parseAmount(m[1]); ok {
			id.Amount = &d
		}
		break
	}
	return id
}

// NumberFromText scans whole-document text for an invoice number. Tokens
// immediately preceded by a hyphen are rejected; those are serial or date
// fragments ("NO-12345678"), not invoice numbers.
func NumberFromText(text string) string {
	for _, loc := range numberPattern.FindAllStringIndex(text, -1) {
		if loc[0] > 0 && text[loc[0]-1] == '-' {
			continue
		}
		return text[loc[0]:loc[1]]
	}
	return ""
}

// MaxLabeledAmount returns the largest currency-marked amount in the text,
// or nil when none parse. Invoice text usually lists subtotals alongside a
// final total; the total is assumed to be the largest figure. That is a
// heuristic and a known source of misclassification.
func MaxLabeledAmount(text string) *decimal.Decimal {
	var max *decimal.Decimal
	for _, m := range labeledAmount.FindAllStringSubmatch(text, -1) {
		d, ok := parseAmount(m[1])
		if !ok {
			continue
		}
		if max == nil || d.GreaterThan(*max) {
			max = &d
		}
	}
	return max
}

// parseAmount normalizes a matched decimal literal to two fractional
// digits, rounding half away from zero. Negative values never match the
// patterns, so the result is always non-negative.
func parseAmount(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d.Round(2), true
}
