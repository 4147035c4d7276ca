package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/FACorreiaa/statement-normalizer/internal/domain/statement"
)

// ErrInvalidLattice means the source is not a lattice table document.
var ErrInvalidLattice = errors.New("invalid lattice document")

type latticeTable struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

type latticeDocument struct {
	Text   string         `json:"text"`
	Pages  []string       `json:"pages"`
	Tables []latticeTable `json:"tables"`
}

// Lattice reads tables that were segmented along ruled cell borders and exported as JSON:
//
//	{"text": "...", "pages": ["..."], "tables": [{"columns": ["Date", ...], "rows": [["11/05/2024", ...]]}]}
//
// "columns" is optional; without it the labels are positional. "pages" is used as the
// document text when "text" is empty.
type Lattice struct{}

// NewLattice creates a lattice extractor.
func NewLattice() *Lattice { return &Lattice{} }

// Method implements Extractor.
func (l *Lattice) Method() string { return MethodLattice }

// Extract implements Extractor.
func (l *Lattice) Extract(ctx context.Context, src Source) (*statement.Document, error) {
	data := bytes.TrimSpace(src.Data)
	if len(data) == 0 {
		return nil, ErrEmptySource
	}

	var raw latticeDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLattice, err)
	}

	text := raw.Text
	if text == "" {
		text = strings.Join(raw.Pages, "")
	}

	tables := make([]statement.Table, 0, len(raw.Tables))
	for _, t := range raw.Tables {
		tables = append(tables, statement.NewTable(t.Columns, t.Rows))
	}

	return &statement.Document{Text: text, Tables: tables, Method: l.Method()}, nil
}
