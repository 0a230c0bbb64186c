package state

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// TicketID identifies a ticket in the arena for its whole lifetime.
type TicketID int64

// OwnerKind discriminates the three holder classes. Settlement and
// rebucketing switch exhaustively on this tag.
type OwnerKind int32

const (
	OwnerUnknown OwnerKind = iota
	OwnerDealer
	OwnerVBT
	OwnerTrader
)

func (k OwnerKind) String() string {
	switch k {
	case OwnerDealer:
		return "Dealer"
	case OwnerVBT:
		return "VBT"
	case OwnerTrader:
		return "Trader"
	default:
		return "Unknown"
	}
}

// OwnerRef names a concrete holder: a dealer or VBT is identified by
// its bucket, a trader by its trader id.
type OwnerRef struct {
	Kind OwnerKind
	ID   string
}

func (r OwnerRef) String() string {
	return fmt.Sprintf("%s/%s", r.Kind, r.ID)
}

// Ticket is a unit-size zero-coupon claim. Identity and Serial are
// immutable; Owner, RemainingTau, and BucketID mutate over its life.
// BucketID must always equal the classifier's output for RemainingTau.
type Ticket struct {
	ID           TicketID
	IssuerID     string
	Owner        OwnerRef
	Face         decimal.Decimal
	MaturityDay  int
	RemainingTau int
	BucketID     string

	// Serial is the mint ordinal, used as the deterministic tie-break
	// whenever one ticket must be chosen out of several.
	Serial int64
}
