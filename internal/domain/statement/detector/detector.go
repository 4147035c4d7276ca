// Package detector infers statement metadata (issuing bank and statement month) from the
// unstructured text of a whole statement.
package detector

import (
	"regexp"
	"strings"
	"time"

	"github.com/FACorreiaa/statement-normalizer/internal/domain/statement"
)

// UnknownBank is reported when no bank rule matches.
const UnknownBank = "Unknown Bank"

// BankRule maps a set of keywords to a canonical bank name. A rule matches when any of its
// keywords occurs in the upper-cased text.
type BankRule struct {
	Keywords []string
	Name     string
}

func (r BankRule) matches(upper string) bool {
	for _, kw := range r.Keywords {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	return false
}

// bankRules is a priority list: the first matching rule wins, so the TD variants are
// checked before the shorter acronyms further down.
var bankRules = []BankRule{
	{Keywords: []string{"TD CANADA", "TD BANK", "TD CHEQUING", "TD UNLIMITED", "TD ACCOUNT"}, Name: "TD Canada Trust"},
	{Keywords: []string{"RBC", "ROYAL BANK"}, Name: "RBC Royal Bank"},
	{Keywords: []string{"SCOTIABANK"}, Name: "Scotiabank"},
	{Keywords: []string{"BMO", "BANK OF MONTREAL"}, Name: "BMO"},
	{Keywords: []string{"CIBC"}, Name: "CIBC"},
}

// BankRules returns a copy of the bank rules in evaluation order.
func BankRules() []BankRule {
	rules := make([]BankRule, len(bankRules))
	copy(rules, bankRules)
	return rules
}

// periodPattern captures a statement period; group 2 is the period end date.
type periodPattern struct {
	name string
	re   *regexp.Regexp
}

// periodPatterns run against the lower-cased text, in order.
var periodPatterns = []periodPattern{
	{"statement period", regexp.MustCompile(`statement period[:\s]+([a-z]+\s+\d{1,2},?\s+\d{4})\s+to\s+([a-z]+\s+\d{1,2},?\s+\d{4})`)},
	{"numeric range", regexp.MustCompile(`(\d{1,2}/\d{1,2}/\d{4})\s*-\s*(\d{1,2}/\d{1,2}/\d{4})`)},
	{"for the period", regexp.MustCompile(`for the period[:\s]+([a-z]+\s+\d{1,2},?\s+\d{4})\s+to\s+([a-z]+\s+\d{1,2},?\s+\d{4})`)},
}

// periodEndLayouts are tried in order on the captured end date.
var periodEndLayouts = []string{
	"Jan 2, 2006",
	"January 2, 2006",
	"1/2/2006",
}

const monthLayout = "2006-01"

// Detector holds the clock used when the statement month cannot be read from the text.
type Detector struct {
	now func() time.Time
}

// Option configures a Detector.
type Option func(*Detector)

// WithClock overrides the clock used for the current-month fallback.
func WithClock(now func() time.Time) Option {
	return func(d *Detector) {
		if now != nil {
			d.now = now
		}
	}
}

// New creates a Detector.
func New(opts ...Option) *Detector {
	d := &Detector{now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DetectBank returns the canonical name of the first bank rule matching the text.
func (d *Detector) DetectBank(fullText string) string {
	upper := strings.ToUpper(fullText)
	for _, rule := range bankRules {
		if rule.matches(upper) {
			return rule.Name
		}
	}
	return UnknownBank
}

// DetectStatementMonth returns the month of the statement period end date as YYYY-MM.
// The second return value is false when the text yielded nothing and the month is the
// current month instead.
func (d *Detector) DetectStatementMonth(fullText string) (string, bool) {
	lower := strings.ToLower(fullText)
	for _, p := range periodPatterns {
		m := p.re.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		if end, ok := parsePeriodEnd(m[2]); ok {
			return end.Format(monthLayout), true
		}
	}
	return d.now().Format(monthLayout), false
}

// Detect computes the metadata shared by every table of the document.
func (d *Detector) Detect(fullText string) statement.StatementMetadata {
	month, _ := d.DetectStatementMonth(fullText)
	return statement.StatementMetadata{
		BankName:       d.DetectBank(fullText),
		StatementMonth: month,
	}
}

func parsePeriodEnd(raw string) (time.Time, bool) {
	s := strings.Join(strings.Fields(raw), " ")
	for _, layout := range periodEndLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
