package extractor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/statement-normalizer/internal/domain/statement"
)

const latticeJSON = `{
  "text": "TD CHEQUING\nStatement Period: Oct 31, 2024 to Nov 28, 2024",
  "tables": [
    {"rows": [
      ["PURCHASE", "45.00", "", "NOV05", "1000.00"],
      ["PAYROLL", "", "2000.00", "NOV10", "3000.00"],
      ["BALANCE FORWARD", "", "", "", "3000.00"]
    ]},
    {"columns": ["Date", "Description", "Withdrawals", "Deposits"], "rows": [["11/12/2024", "GROCERY", "12.00", ""]]}
  ]
}`

const streamText = `TD CHEQUING ACCOUNT
Statement Period: Oct 31, 2024 to Nov 28, 2024

PURCHASE,45.00,,NOV05,1000.00
PAYROLL,,2000.00,NOV10,3000.00
BALANCE FORWARD,,,,3000.00

Page 2
Date;Description;Withdrawals;Deposits
11/12/2024;GROCERY;12.00;
11/13/2024;REFUND;;5.00
`

func TestLattice_Extract(t *testing.T) {
	doc, err := NewLattice().Extract(context.Background(), Source{Name: "stmt.json", Data: []byte(latticeJSON)})
	require.NoError(t, err)

	assert.Equal(t, MethodLattice, doc.Method)
	assert.Contains(t, doc.Text, "TD CHEQUING")
	require.Len(t, doc.Tables, 2)

	assert.Equal(t, []string{"0", "1", "2", "3", "4"}, doc.Tables[0].Columns)
	require.Len(t, doc.Tables[0].Rows, 3)
	assert.Equal(t, "NOV05", doc.Tables[0].Rows[0].Cell("3"))

	assert.Equal(t, []string{"Date", "Description", "Withdrawals", "Deposits"}, doc.Tables[1].Columns)
	assert.Equal(t, "GROCERY", doc.Tables[1].Rows[0].Cell("Description"))
}

func TestLattice_PagesAsText(t *testing.T) {
	doc, err := NewLattice().Extract(context.Background(), Source{Data: []byte(`{"pages": ["RBC ", "page two"], "tables": []}`)})
	require.NoError(t, err)
	assert.Equal(t, "RBC page two", doc.Text)
	assert.Empty(t, doc.Tables)
}

func TestLattice_Errors(t *testing.T) {
	_, err := NewLattice().Extract(context.Background(), Source{Data: []byte("  ")})
	assert.ErrorIs(t, err, ErrEmptySource)

	_, err = NewLattice().Extract(context.Background(), Source{Data: []byte(streamText)})
	assert.ErrorIs(t, err, ErrInvalidLattice)
}

func TestStream_Extract(t *testing.T) {
	doc, err := NewStream().Extract(context.Background(), Source{Name: "stmt.txt", Data: []byte(streamText)})
	require.NoError(t, err)

	assert.Equal(t, MethodStream, doc.Method)
	assert.Contains(t, doc.Text, "Statement Period: Oct 31, 2024 to Nov 28, 2024")
	require.Len(t, doc.Tables, 2)

	first := doc.Tables[0]
	assert.Equal(t, statement.PositionalLabels(5), first.Columns)
	require.Len(t, first.Rows, 3)
	assert.Equal(t, "PURCHASE", first.Rows[0].Cell("0"))
	assert.Equal(t, "", first.Rows[0].Cell("2"))
	assert.Equal(t, "BALANCE FORWARD", first.Rows[2].Cell("0"))

	second := doc.Tables[1]
	assert.Equal(t, []string{"Date", "Description", "Withdrawals", "Deposits"}, second.Columns)
	require.Len(t, second.Rows, 2)
	assert.Equal(t, "5.00", second.Rows[1].Cell("Deposits"))
}

func TestStream_SplitsRunsOnShapeChange(t *testing.T) {
	data := "a,b,c\nd,e,f\ng;h;i;j\nk;l;m;n\n"
	doc, err := NewStream().Extract(context.Background(), Source{Data: []byte(data)})
	require.NoError(t, err)
	require.Len(t, doc.Tables, 2)
	assert.Len(t, doc.Tables[0].Columns, 3)
	assert.Len(t, doc.Tables[1].Columns, 4)
}

func TestStream_HeaderAfterSameShapeProse(t *testing.T) {
	data := "Statement Period: Oct 31, 2024 to Nov 28, 2024\n" +
		"Date,Description,Debit\n" +
		"11/05/2024,COFFEE,4.50\n" +
		"11/06/2024,BOOKS,20.00\n"

	doc, err := NewStream().Extract(context.Background(), Source{Data: []byte(data)})
	require.NoError(t, err)
	require.Len(t, doc.Tables, 1)

	table := doc.Tables[0]
	assert.Equal(t, []string{"Date", "Description", "Debit"}, table.Columns)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "COFFEE", table.Rows[0].Cell("Description"))
}

func TestStream_RepeatedHeaderStartsNewTable(t *testing.T) {
	data := "Date;Description;Withdrawals;Deposits\n" +
		"11/05/2024;COFFEE;4.50;\n" +
		"Date;Description;Withdrawals;Deposits\n" +
		"11/20/2024;REFUND;;3.00\n"

	doc, err := NewStream().Extract(context.Background(), Source{Data: []byte(data)})
	require.NoError(t, err)
	assert.Len(t, doc.Tables, 2)
}

func TestStream_IgnoresSingleLines(t *testing.T) {
	doc, err := NewStream().Extract(context.Background(), Source{Data: []byte("just text\none,two,three\nmore text\n")})
	require.NoError(t, err)
	assert.Empty(t, doc.Tables)
}

func TestLookup(t *testing.T) {
	ex, err := Lookup("Lattice")
	require.NoError(t, err)
	assert.Equal(t, MethodLattice, ex.Method())

	ex, err = Lookup(" stream ")
	require.NoError(t, err)
	assert.Equal(t, MethodStream, ex.Method())

	_, err = Lookup("ocr")
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

type stubExtractor struct {
	method string
	doc    *statement.Document
	err    error
	calls  int
}

func (s *stubExtractor) Method() string { return s.method }

func (s *stubExtractor) Extract(ctx context.Context, src Source) (*statement.Document, error) {
	s.calls++
	return s.doc, s.err
}

func TestFallback_UsesFirstSuccess(t *testing.T) {
	first := &stubExtractor{method: "a", err: errors.New("no borders")}
	second := &stubExtractor{method: "b", doc: &statement.Document{Method: "b"}}
	third := &stubExtractor{method: "c", doc: &statement.Document{Method: "c"}}

	f := NewFallback(nil, first, second, third)
	assert.Equal(t, "a,b,c", f.Method())

	doc, err := f.Extract(context.Background(), Source{})
	require.NoError(t, err)
	assert.Equal(t, "b", doc.Method)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
	assert.Zero(t, third.calls)
}

func TestFallback_AllFail(t *testing.T) {
	errA := errors.New("a broke")
	errB := errors.New("b broke")
	f := NewFallback(nil, &stubExtractor{method: "a", err: errA}, &stubExtractor{method: "b", err: errB})

	_, err := f.Extract(context.Background(), Source{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAllExtractorsFailed)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
}

func TestFallback_NoExtractors(t *testing.T) {
	_, err := NewFallback(nil).Extract(context.Background(), Source{})
	assert.ErrorIs(t, err, ErrNoExtractors)
}

func TestFallback_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stub := &stubExtractor{method: "a", doc: &statement.Document{}}
	_, err := NewFallback(nil, stub).Extract(ctx, Source{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, stub.calls)
}

func TestFallback_LatticeThenStream(t *testing.T) {
	f := NewFallback(nil, NewLattice(), NewStream())

	doc, err := f.Extract(context.Background(), Source{Data: []byte(streamText)})
	require.NoError(t, err)
	assert.Equal(t, MethodStream, doc.Method)

	doc, err = f.Extract(context.Background(), Source{Data: []byte(latticeJSON)})
	require.NoError(t, err)
	assert.Equal(t, MethodLattice, doc.Method)
}
