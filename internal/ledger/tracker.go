package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"DealerRing/internal/state"
)

// BalanceTracker maintains a mirror of every holder's cash, updated
// from journals only. The engine cross-checks the mirror against the
// directly-mutated agent cash after each operation; divergence means a
// transfer was applied on one side and not the other.
type BalanceTracker struct {
	balances map[state.OwnerRef]decimal.Decimal
	journals []Journal
}

func NewBalanceTracker() *BalanceTracker {
	return &BalanceTracker{
		balances: make(map[state.OwnerRef]decimal.Decimal),
	}
}

// SetBalance seeds a holder's opening balance at setup.
func (bt *BalanceTracker) SetBalance(ref state.OwnerRef, amount decimal.Decimal) {
	bt.balances[ref] = amount
}

// ApplyJournal applies a single transfer to the mirror.
func (bt *BalanceTracker) ApplyJournal(j Journal) {
	bt.balances[j.Debit] = bt.balances[j.Debit].Add(j.Amount)
	bt.balances[j.Credit] = bt.balances[j.Credit].Sub(j.Amount)
	bt.journals = append(bt.journals, j)
}

// ApplyBatch validates and applies all journals in a batch.
func (bt *BalanceTracker) ApplyBatch(batch *Batch) error {
	if err := batch.Validate(); err != nil {
		return fmt.Errorf("invalid batch: %w", err)
	}
	for _, j := range batch.Journals {
		bt.ApplyJournal(j)
	}
	return nil
}

// GetBalance returns the mirrored balance for a holder.
func (bt *BalanceTracker) GetBalance(ref state.OwnerRef) decimal.Decimal {
	return bt.balances[ref]
}

// Total sums every mirrored balance. Transfers are zero-sum, so this
// equals the seeded total for the life of the run.
func (bt *BalanceTracker) Total() decimal.Decimal {
	total := decimal.Zero
	for _, v := range bt.balances {
		total = total.Add(v)
	}
	return total
}

// Journals returns every applied journal in application order.
func (bt *BalanceTracker) Journals() []Journal {
	return bt.journals
}
