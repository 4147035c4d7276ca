// Package sniffer recognizes the shape of extracted statement tables: which delimiter a
// text table uses, whether a row is a header, which column plays which role, and a
// fingerprint of the column schema for diagnostics.
package sniffer

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"strings"
	"unicode"
)

// Statement table header keywords
var headerKeywords = []string{
	"date", "description", "transaction", "withdrawal", "deposit",
	"debit", "credit", "balance", "amount", "particulars",
}

// minHeaderKeywords is how many cells must look like column titles for a row to be a header.
const minHeaderKeywords = 2

// minFields is the narrowest delimited line accepted as a table row.
const minFields = 3

var delimiters = []rune{';', '\t', ',', '|'}

var (
	ErrEmptyLine        = errors.New("line is empty")
	ErrInvalidDelimiter = errors.New("could not detect valid delimiter")
)

// DetectDelimiter returns the first delimiter that splits line into at least three fields.
func DetectDelimiter(line string) (rune, error) {
	if strings.TrimSpace(line) == "" {
		return 0, ErrEmptyLine
	}
	for _, d := range delimiters {
		if strings.Count(line, string(d)) >= minFields-1 {
			return d, nil
		}
	}
	return 0, ErrInvalidDelimiter
}

// SplitRecord splits one delimited line into trimmed cells.
func SplitRecord(line string, delimiter rune) ([]string, error) {
	reader := csv.NewReader(strings.NewReader(line))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = delimiter != '\t' // would swallow empty tab-separated cells
	reader.FieldsPerRecord = -1

	record, err := reader.Read()
	if err != nil {
		return nil, err
	}
	for i, cell := range record {
		record[i] = strings.TrimSpace(cell)
	}
	return record, nil
}

// LooksLikeHeader reports whether the cells read like column titles rather than data.
func LooksLikeHeader(cells []string) bool {
	hits := 0
	for _, cell := range cells {
		c := strings.ToLower(cell)
		for _, kw := range headerKeywords {
			if strings.Contains(c, kw) {
				hits++
				break
			}
		}
	}
	return hits >= minHeaderKeywords
}

// Fingerprint creates a stable hash of a column schema, insensitive to case and punctuation.
func Fingerprint(labels []string) string {
	var normalized []string
	for _, h := range labels {
		clean := strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return unicode.ToLower(r)
			}
			return -1
		}, h)
		if clean != "" {
			normalized = append(normalized, clean)
		}
	}

	joined := strings.Join(normalized, "|")
	hash := sha256.Sum256([]byte(joined))
	return hex.EncodeToString(hash[:])
}
