package aggregator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/statement-normalizer/internal/domain/statement"
)

func tx(date, desc, amount string) statement.Transaction {
	a := decimal.RequireFromString(amount)
	return statement.Transaction{Date: date, Description: desc, Amount: a, IsIncome: a.IsPositive()}
}

func descriptions(txs []statement.Transaction) []string {
	out := make([]string, len(txs))
	for i, t := range txs {
		out[i] = t.Description
	}
	return out
}

func TestAggregate_PreservesOrder(t *testing.T) {
	res := Aggregate([][]statement.Transaction{
		{tx("2024-11-01", "A", "-1"), tx("2024-11-02", "B", "-2")},
		{tx("2024-11-03", "C", "3")},
	})

	assert.Equal(t, []string{"A", "B", "C"}, descriptions(res.Transactions))
	assert.Zero(t, res.Duplicates)
}

func TestAggregate_DedupKeepsFirstOccurrence(t *testing.T) {
	res := Aggregate([][]statement.Transaction{
		{tx("2024-11-01", "A", "-1"), tx("2024-11-05", "DUP", "-45.00"), tx("2024-11-06", "B", "-2")},
		{tx("2024-11-05", "DUP", "-45.0"), tx("2024-11-07", "C", "3")},
	})

	require.Len(t, res.Transactions, 4)
	assert.Equal(t, []string{"A", "DUP", "B", "C"}, descriptions(res.Transactions))
	assert.Equal(t, 1, res.Duplicates)
}

func TestAggregate_DuplicatesWithinOneTable(t *testing.T) {
	res := Aggregate([][]statement.Transaction{
		{tx("2024-11-05", "COFFEE", "-4.50"), tx("2024-11-05", "COFFEE", "-4.50")},
	})
	assert.Len(t, res.Transactions, 1)
	assert.Equal(t, 1, res.Duplicates)
}

func TestAggregate_KeyFieldsMustAllMatch(t *testing.T) {
	res := Aggregate([][]statement.Transaction{
		{tx("2024-11-05", "COFFEE", "-4.50")},
		{tx("2024-11-06", "COFFEE", "-4.50")},
		{tx("2024-11-05", "coffee", "-4.50")},
		{tx("2024-11-05", "COFFEE", "4.50")},
	})
	assert.Len(t, res.Transactions, 4)
	assert.Zero(t, res.Duplicates)
}

func TestAggregate_Empty(t *testing.T) {
	res := Aggregate(nil)
	assert.NotNil(t, res.Transactions)
	assert.Empty(t, res.Transactions)

	res = Aggregate([][]statement.Transaction{{}, nil})
	assert.Empty(t, res.Transactions)
}
