package ledger

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"DealerRing/internal/state"
)

// JournalType represents the purpose of a journal entry
type JournalType int32

const (
	JournalTypeInteriorTrade JournalType = iota
	JournalTypePassThrough
	JournalTypeInternalSale
	JournalTypeSettlementPayout
)

func (jt JournalType) String() string {
	switch jt {
	case JournalTypeInteriorTrade:
		return "InteriorTrade"
	case JournalTypePassThrough:
		return "PassThrough"
	case JournalTypeInternalSale:
		return "InternalSale"
	case JournalTypeSettlementPayout:
		return "SettlementPayout"
	default:
		return "Unknown"
	}
}

// Journal is a single double-entry cash movement. The debit holder's
// cash increases, the credit holder's decreases, by the same positive
// amount, so every entry is a balanced transfer by construction.
type Journal struct {
	JournalID uuid.UUID
	BatchID   uuid.UUID
	Debit     state.OwnerRef
	Credit    state.OwnerRef
	Amount    decimal.Decimal
	Type      JournalType
	Day       int
}

// Batch groups the journals of one atomic operation (one arrival, one
// internal sale, one issuer settlement).
type Batch struct {
	BatchID  uuid.UUID
	Day      int
	Journals []Journal
}

// NewBatch creates an empty batch for the given day.
func NewBatch(day int) *Batch {
	return &Batch{BatchID: uuid.New(), Day: day}
}

// Add appends a transfer to the batch. Zero-amount transfers (e.g. a
// payout under total default, or a pass-through at a clipped zero bid)
// move no cash and are dropped.
func (b *Batch) Add(debit, credit state.OwnerRef, amount decimal.Decimal, jt JournalType) {
	if amount.IsZero() {
		return
	}
	b.Journals = append(b.Journals, Journal{
		JournalID: uuid.New(),
		BatchID:   b.BatchID,
		Debit:     debit,
		Credit:    credit,
		Amount:    amount,
		Type:      jt,
		Day:       b.Day,
	})
}

// Validate ensures the batch is well-formed.
func (b *Batch) Validate() error {
	for _, j := range b.Journals {
		if !j.Amount.IsPositive() {
			return fmt.Errorf("journal %s has non-positive amount: %s", j.JournalID, j.Amount)
		}
		if j.BatchID != b.BatchID {
			return fmt.Errorf("journal %s has mismatched batch_id", j.JournalID)
		}
		if j.Debit == j.Credit {
			return fmt.Errorf("journal %s has same debit and credit holder", j.JournalID)
		}
	}
	return nil
}
