// Package aggregator merges the transactions of every table of a statement and removes
// entries that appear more than once.
package aggregator

import (
	"github.com/FACorreiaa/statement-normalizer/internal/domain/statement"
)

// key identifies a logical entry. Amounts are keyed by their canonical decimal string so
// 45.0 and 45.00 collide.
type key struct {
	date        string
	description string
	amount      string
}

func keyOf(tx statement.Transaction) key {
	return key{date: tx.Date, description: tx.Description, amount: tx.Amount.String()}
}

// Result is the merged transaction list plus how many duplicates were dropped.
type Result struct {
	Transactions []statement.Transaction
	Duplicates   int
}

// Aggregate concatenates the per-table results in table order and keeps the first
// occurrence of each (date, description, amount).
func Aggregate(perTable [][]statement.Transaction) Result {
	total := 0
	for _, txs := range perTable {
		total += len(txs)
	}

	seen := make(map[key]struct{}, total)
	out := make([]statement.Transaction, 0, total)
	dups := 0

	for _, txs := range perTable {
		for _, tx := range txs {
			k := keyOf(tx)
			if _, ok := seen[k]; ok {
				dups++
				continue
			}
			seen[k] = struct{}{}
			out = append(out, tx)
		}
	}

	return Result{Transactions: out, Duplicates: dups}
}
