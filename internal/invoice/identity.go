// Package invoice defines the canonical identity extracted from a scanned
// invoice document and the filename grammar used to encode it.
package invoice

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

const (
	// LongFormDigits is the length of the full invoice number convention.
	LongFormDigits = 20
	// ShortFormDigits is the length of the abbreviated convention, which
	// typically omits the amount in the symbol payload.
	ShortFormDigits = 8
)

// Identity is the canonical identity of one invoice document: a number in
// one of the two recognized lengths and, when known, a non-negative amount
// with exactly two fractional digits. Immutable once produced.
type Identity struct {
	Number string
	Amount *decimal.Decimal
}

// HasNumber reports whether a usable invoice number was found.
func (id Identity) HasNumber() bool {
	return id.Number != ""
}

// HasAmount reports whether an amount was found.
func (id Identity) HasAmount() bool {
	return id.Amount != nil
}

// ShortForm reports whether the number uses the 8-digit convention.
func (id Identity) ShortForm() bool {
	return len(id.Number) == ShortFormDigits
}

// WithAmount returns a copy of the identity carrying the given amount.
func (id Identity) WithAmount(amount decimal.Decimal) Identity {
	return Identity{Number: id.Number, Amount: &amount}
}

// FormatAmount renders an amount with exactly two fractional digits, the
// only form that ever appears in filenames and API responses.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// embeddedAmount matches the bracketed amount prefix of a canonical
// filename, e.g. "[¥15.50]12345678.pdf".
var embeddedAmount = regexp.MustCompile(`\[¥([0-9.]+)\]`)

// AmountFromFilename extracts the amount embedded in a canonical filename.
// Files that were never renamed (or carry no amount) yield nil.
func AmountFromFilename(name string) *decimal.Decimal {
	m := embeddedAmount.FindStringSubmatch(name)
	if m == nil {
		return nil
	}
	d, err := decimal.NewFromString(m[1])
	if err != nil {
		return nil
	}
	return &d
}

// FileName renders the canonical filename for an identity. With an amount
// and withAmount enabled: "[¥{amount}]{number}{ext}"; otherwise the number
// alone. ext must include the leading dot.
func FileName(id Identity, ext string, withAmount bool) string {
	if withAmount && id.HasAmount() {
		return fmt.Sprintf("[¥%s]%s%s", FormatAmount(*id.Amount), id.Number, ext)
	}
	return id.Number + ext
}
