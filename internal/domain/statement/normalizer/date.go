package normalizer

import (
	"regexp"
	"strings"
	"time"
)

// CanonicalDateLayout is the YYYY-MM-DD form every normalized date is rendered in.
const CanonicalDateLayout = "2006-01-02"

// dateLayouts are tried in order and the first match wins. "1/2/2006" must precede
// "1/2/06" so a four digit year is never read as a two digit one.
var dateLayouts = []string{
	"1/2/2006", // MM/DD/YYYY
	"1/2/06",   // MM/DD/YY, 69-99 map to the 1900s
	"2006-1-2", // YYYY-MM-DD
}

// monthDayLayout parses the yearless "NOV05" form once the statement year is attached.
const monthDayLayout = "Jan 2 2006"

var monthDayPattern = regexp.MustCompile(`^([A-Z]{3})(\d{1,2})$`)

// DateResult is the tagged outcome of ParseDate.
type DateResult struct {
	Date   time.Time
	Layout string // layout that matched, empty unless parsed
	Status Status
}

// ParseDate resolves a date cell. statementYear is only consulted for the yearless MMMDD
// form (e.g. "NOV05"); pass "" when the year is unknown.
func ParseDate(raw, statementYear string) DateResult {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if IsBlank(s) {
		return DateResult{Status: StatusBlank}
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateResult{Date: t, Layout: layout, Status: StatusParsed}
		}
	}

	if statementYear != "" {
		if m := monthDayPattern.FindStringSubmatch(s); m != nil {
			value := m[1] + " " + m[2] + " " + strings.TrimSpace(statementYear)
			if t, err := time.Parse(monthDayLayout, value); err == nil {
				return DateResult{Date: t, Layout: monthDayLayout, Status: StatusParsed}
			}
		}
	}

	return DateResult{Status: StatusUnparsed}
}

// NormalizeDate returns the cell as YYYY-MM-DD, or false when it cannot be read as a date.
func NormalizeDate(raw, statementYear string) (string, bool) {
	res := ParseDate(raw, statementYear)
	if res.Status != StatusParsed {
		return "", false
	}
	return res.Date.Format(CanonicalDateLayout), true
}
