// Package statement holds the types shared by the bank statement normalization pipeline:
// raw extracted tables on the way in and normalized transactions on the way out.
package statement

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// UnknownTransaction is the description used when the description cell is unrecoverable.
const UnknownTransaction = "Unknown Transaction"

// RawRow maps a column label to the cell text of one extracted row.
// A missing key and an empty value are both treated as a blank cell.
type RawRow map[string]string

// Cell returns the text stored under label, or "" when the row has no such column.
func (r RawRow) Cell(label string) string {
	if r == nil {
		return ""
	}
	return r[label]
}

// Table is one extracted table. Columns is the ordered label schema shared by all its rows.
type Table struct {
	Columns []string
	Rows    []RawRow
}

// NewTable builds a Table from a grid of cells. When columns is empty the labels are
// positional ("0", "1", ...) and sized to the widest row.
func NewTable(columns []string, grid [][]string) Table {
	if len(columns) == 0 {
		width := 0
		for _, cells := range grid {
			if len(cells) > width {
				width = len(cells)
			}
		}
		columns = PositionalLabels(width)
	}

	rows := make([]RawRow, 0, len(grid))
	for _, cells := range grid {
		row := make(RawRow, len(cells))
		for i, cell := range cells {
			if i >= len(columns) {
				break
			}
			row[columns[i]] = cell
		}
		rows = append(rows, row)
	}

	return Table{Columns: columns, Rows: rows}
}

// PositionalLabels returns the labels an extractor assigns when a table has no header.
func PositionalLabels(n int) []string {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = strconv.Itoa(i)
	}
	return labels
}

// Document is everything the extraction step produced for one statement.
type Document struct {
	Text   string  // concatenated page text, in page order
	Tables []Table // extracted tables, in document order
	Method string  // extraction method that produced the tables
}

// Transaction is a normalized statement entry. Amount is negative for debits and never zero.
type Transaction struct {
	Date        string // YYYY-MM-DD
	Description string
	Amount      decimal.Decimal
	IsIncome    bool
}

type transactionWire struct {
	Date        string      `json:"date"`
	Description string      `json:"description"`
	Amount      json.Number `json:"amount"`
	IsIncome    bool        `json:"isIncome"`
}

// MarshalJSON emits the amount as a JSON number rather than decimal's quoted string.
func (t Transaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(transactionWire{
		Date:        t.Date,
		Description: t.Description,
		Amount:      json.Number(t.Amount.String()),
		IsIncome:    t.IsIncome,
	})
}

// MarshalYAML mirrors the JSON field names. The amount is written as a plain YAML number
// carrying every decimal digit.
func (t Transaction) MarshalYAML() (interface{}, error) {
	amount := t.Amount.String()
	tag := "!!int"
	if strings.Contains(amount, ".") {
		tag = "!!float"
	}
	return struct {
		Date        string     `yaml:"date"`
		Description string     `yaml:"description"`
		Amount      *yaml.Node `yaml:"amount"`
		IsIncome    bool       `yaml:"isIncome"`
	}{
		Date:        t.Date,
		Description: t.Description,
		Amount:      &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: amount},
		IsIncome:    t.IsIncome,
	}, nil
}

// StatementMetadata is detected once per document and shared read-only by every table parse.
type StatementMetadata struct {
	BankName       string
	StatementMonth string // YYYY-MM
}

// StatementYear is the year part of StatementMonth, or "" if the month is malformed.
func (m StatementMetadata) StatementYear() string {
	if len(m.StatementMonth) < 4 {
		return ""
	}
	return m.StatementMonth[:4]
}

// ParsingRules carries diagnostics about how the tables were obtained.
type ParsingRules struct {
	Method      string `json:"method" yaml:"method"`
	TablesFound int    `json:"tablesFound" yaml:"tablesFound"`
}

// ParseResult is the payload handed back to callers for one statement.
type ParseResult struct {
	BankName       string        `json:"bankName" yaml:"bankName"`
	StatementMonth string        `json:"statementMonth" yaml:"statementMonth"`
	Transactions   []Transaction `json:"transactions" yaml:"transactions"`
	ParsingRules   ParsingRules  `json:"parsingRules" yaml:"parsingRules"`
}
