// Package parser turns the rows of one extracted table into normalized transactions,
// dropping headers, balance/total lines and rows without a usable date or amount.
package parser

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/statement-normalizer/internal/domain/statement"
	"github.com/FACorreiaa/statement-normalizer/internal/domain/statement/normalizer"
	"github.com/FACorreiaa/statement-normalizer/internal/domain/statement/sniffer"
)

// SkipReason says why a row produced no transaction.
type SkipReason int

const (
	SkipNone          SkipReason = iota
	SkipBlankDate                // date cell empty
	SkipHeader                   // header text leaked into the data rows
	SkipSummary                  // balance or total line
	SkipInvalidDate              // date cell in no known format
	SkipNoAmount                 // neither withdrawal nor deposit is positive
	SkipUnmappedTable            // table had no date/description columns
)

func (r SkipReason) String() string {
	switch r {
	case SkipNone:
		return "none"
	case SkipBlankDate:
		return "blank_date"
	case SkipHeader:
		return "header"
	case SkipSummary:
		return "summary"
	case SkipInvalidDate:
		return "invalid_date"
	case SkipNoAmount:
		return "no_amount"
	case SkipUnmappedTable:
		return "unmapped_table"
	default:
		return "unknown"
	}
}

var headerDateValues = []string{"date", "transaction date"}

var summaryMarkers = []string{"balance", "total"}

// ParseRow converts one row using a resolved column map. It returns nil and the reason
// when the row is not a transaction. The returned amount is never zero.
func ParseRow(row statement.RawRow, roles sniffer.ColumnRoleMap, statementYear string) (*statement.Transaction, SkipReason) {
	dateCol, _ := roles.Column(sniffer.RoleDate)
	descCol, _ := roles.Column(sniffer.RoleDescription)

	dateVal := strings.TrimSpace(row.Cell(dateCol))
	descVal := strings.TrimSpace(row.Cell(descCol))

	if normalizer.IsBlank(dateVal) {
		return nil, SkipBlankDate
	}
	if isHeaderDate(dateVal) {
		return nil, SkipHeader
	}
	if isSummary(descVal) {
		return nil, SkipSummary
	}

	date, ok := normalizer.NormalizeDate(dateVal, statementYear)
	if !ok {
		return nil, SkipInvalidDate
	}

	withdrawal := amountCell(row, roles, sniffer.RoleWithdrawal)
	deposit := amountCell(row, roles, sniffer.RoleDeposit)

	// Withdrawal wins when both columns carry an amount.
	var amount decimal.Decimal
	var isIncome bool
	switch {
	case withdrawal.IsPositive():
		amount = withdrawal.Abs().Neg()
	case deposit.IsPositive():
		amount = deposit.Abs()
		isIncome = true
	default:
		return nil, SkipNoAmount
	}

	description := descVal
	if normalizer.IsBlank(description) {
		description = statement.UnknownTransaction
	}

	return &statement.Transaction{
		Date:        date,
		Description: description,
		Amount:      amount,
		IsIncome:    isIncome,
	}, SkipNone
}

func amountCell(row statement.RawRow, roles sniffer.ColumnRoleMap, role sniffer.Role) decimal.Decimal {
	col, ok := roles.Column(role)
	if !ok {
		return decimal.Zero
	}
	return normalizer.CleanAmount(row.Cell(col))
}

func isHeaderDate(v string) bool {
	for _, h := range headerDateValues {
		if strings.EqualFold(v, h) {
			return true
		}
	}
	return false
}

func isSummary(desc string) bool {
	lower := strings.ToLower(desc)
	for _, marker := range summaryMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// TableResult is the outcome of parsing one table.
type TableResult struct {
	Transactions []statement.Transaction
	Rows         int
	Skipped      map[SkipReason]int
	Mapping      sniffer.MappingKind // empty when the table could not be mapped
	Fingerprint  string
}

// Parser parses whole tables and reports what it dropped.
type Parser struct {
	logger *slog.Logger
}

// New creates a Parser. A nil logger discards output.
func New(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Parser{logger: logger}
}

// ParseTable maps the table's columns once and parses every row against that mapping.
// Rows are returned in their original order.
func (p *Parser) ParseTable(ctx context.Context, table statement.Table, meta statement.StatementMetadata) TableResult {
	result := TableResult{
		Transactions: make([]statement.Transaction, 0, len(table.Rows)),
		Rows:         len(table.Rows),
		Skipped:      make(map[SkipReason]int),
		Fingerprint:  sniffer.Fingerprint(table.Columns),
	}

	roles, err := sniffer.MapColumns(table.Columns)
	if err != nil {
		p.logger.WarnContext(ctx, "skipping table", "error", err, "columns", table.Columns, "rows", len(table.Rows))
		if len(table.Rows) > 0 {
			result.Skipped[SkipUnmappedTable] = len(table.Rows)
		}
		return result
	}
	result.Mapping = roles.Kind()

	if roles.Kind() == sniffer.MappingPositional {
		p.logger.WarnContext(ctx, "using positional column layout", "columns", table.Columns)
	}

	year := meta.StatementYear()
	for i, row := range table.Rows {
		tx, reason := ParseRow(row, roles, year)
		if tx == nil {
			result.Skipped[reason]++
			p.logger.DebugContext(ctx, "row skipped", "row", i, "reason", reason.String())
			continue
		}
		result.Transactions = append(result.Transactions, *tx)
	}

	return result
}
