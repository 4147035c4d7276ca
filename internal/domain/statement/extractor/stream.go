package extractor

import (
	"bytes"
	"context"
	"strings"

	"github.com/FACorreiaa/statement-normalizer/internal/domain/statement"
	"github.com/FACorreiaa/statement-normalizer/internal/domain/statement/sniffer"
)

// minRunLines is the shortest run of delimited lines treated as a table.
const minRunLines = 2

// Stream reads statements laid out as plain text where tables have no ruled borders and
// survive only as delimited lines. The whole input is the document text; every run of
// consecutive lines sharing a delimiter and a field count is one table.
type Stream struct{}

// NewStream creates a stream extractor.
func NewStream() *Stream { return &Stream{} }

// Method implements Extractor.
func (s *Stream) Method() string { return MethodStream }

// Extract implements Extractor.
func (s *Stream) Extract(ctx context.Context, src Source) (*statement.Document, error) {
	if len(bytes.TrimSpace(src.Data)) == 0 {
		return nil, ErrEmptySource
	}

	text := strings.ReplaceAll(string(src.Data), "\r\n", "\n")

	var (
		tables []statement.Table
		run    [][]string
		delim  rune
		width  int
	)

	flush := func() {
		if len(run) >= minRunLines {
			tables = append(tables, buildTable(run))
		}
		run = nil
	}

	for _, line := range strings.Split(text, "\n") {
		d, err := sniffer.DetectDelimiter(line)
		if err != nil {
			flush()
			continue
		}
		cells, err := sniffer.SplitRecord(line, d)
		if err != nil || len(cells) < 3 {
			flush()
			continue
		}
		// A header line always opens a new table, even when the line before has the same shape.
		if len(run) > 0 && (d != delim || len(cells) != width || sniffer.LooksLikeHeader(cells)) {
			flush()
		}
		if len(run) == 0 {
			delim, width = d, len(cells)
		}
		run = append(run, cells)
	}
	flush()

	return &statement.Document{Text: text, Tables: tables, Method: s.Method()}, nil
}

func buildTable(run [][]string) statement.Table {
	if sniffer.LooksLikeHeader(run[0]) {
		return statement.NewTable(run[0], run[1:])
	}
	return statement.NewTable(nil, run)
}
