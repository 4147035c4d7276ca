// Package normalizer coerces loosely typed statement cells into dates and signed amounts.
// Malformed cells degrade to "absent" instead of failing the row; the Status on each result
// records which way a value was obtained so callers can tell a blank cell from garbage.
package normalizer

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Status tags how a cell was resolved.
type Status int

const (
	StatusParsed   Status = iota // cell held a usable value
	StatusBlank                  // cell was empty, missing or NaN-like
	StatusUnparsed               // cell had text that matched no known format
)

func (s Status) String() string {
	switch s {
	case StatusParsed:
		return "parsed"
	case StatusBlank:
		return "blank"
	case StatusUnparsed:
		return "unparsed"
	default:
		return "unknown"
	}
}

// AmountResult is the tagged outcome of ParseAmount. Value is zero unless Status is StatusParsed.
type AmountResult struct {
	Value  decimal.Decimal
	Status Status
}

var amountReplacer = strings.NewReplacer("$", "", ",", "", " ", "")

// plainAmount is the only numeric shape accepted. Exponents are rejected so a short cell
// cannot expand into an arbitrarily long number.
var plainAmount = regexp.MustCompile(`^[-+]?(\d+(\.\d*)?|\.\d+)$`)

// maxAmountLen bounds the cleaned cell length.
const maxAmountLen = 32

// ParseAmount converts a currency formatted cell such as "$1,234.56" or "(45.00)" into a
// signed decimal. Parentheses denote a negative amount (accounting notation).
func ParseAmount(raw string) AmountResult {
	s := strings.TrimSpace(raw)
	if IsBlank(s) {
		return AmountResult{Value: decimal.Zero, Status: StatusBlank}
	}

	s = amountReplacer.Replace(s)
	if len(s) >= 2 && strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = "-" + s[1:len(s)-1]
	}

	if len(s) > maxAmountLen || !plainAmount.MatchString(s) {
		return AmountResult{Value: decimal.Zero, Status: StatusUnparsed}
	}

	val, err := decimal.NewFromString(strings.TrimPrefix(s, "+"))
	if err != nil {
		return AmountResult{Value: decimal.Zero, Status: StatusUnparsed}
	}

	return AmountResult{Value: val, Status: StatusParsed}
}

// CleanAmount is ParseAmount collapsed to its value: blank and malformed cells yield zero.
func CleanAmount(raw string) decimal.Decimal {
	return ParseAmount(raw).Value
}

// IsBlank reports whether a trimmed cell carries no value. Extractors that go through
// dataframes render missing cells as "nan" or "None".
func IsBlank(s string) bool {
	return s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "none")
}
