package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"DealerRing/internal/state"
)

// InvariantValidator checks the cash ledger against the live world.
type InvariantValidator struct {
	tracker *BalanceTracker
}

func NewInvariantValidator(tracker *BalanceTracker) *InvariantValidator {
	return &InvariantValidator{tracker: tracker}
}

// ValidateHolders verifies that the mirrored balance of each touched
// holder equals its actual cash, exactly.
func (v *InvariantValidator) ValidateHolders(w *state.World, refs []state.OwnerRef) error {
	for _, ref := range refs {
		mirror := v.tracker.GetBalance(ref)
		actual := w.CashOf(ref)
		if !mirror.Equal(actual) {
			return fmt.Errorf("holder %s cash diverged: ledger=%s world=%s",
				ref, mirror, actual)
		}
	}
	return nil
}

// ValidateConservation verifies the world's total cash still equals
// the opening total. Every operation is a zero-sum transfer, so any
// drift is a conservation-law bug.
func (v *InvariantValidator) ValidateConservation(w *state.World, opening decimal.Decimal) error {
	total := w.TotalCash()
	if !total.Equal(opening) {
		return fmt.Errorf("total cash diverged: opening=%s now=%s", opening, total)
	}
	if mirror := v.tracker.Total(); !mirror.Equal(opening) {
		return fmt.Errorf("ledger total diverged: opening=%s mirror=%s", opening, mirror)
	}
	return nil
}
