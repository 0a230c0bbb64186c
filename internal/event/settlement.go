package event

import (
	"github.com/shopspring/decimal"

	"DealerRing/internal/state"
)

// IssuerSettled summarizes one issuer's maturity-day settlement: the
// total due, the recovery rate applied uniformly to every holder, and
// the exact cash outflow. Defaulted is true when Recovery < 1.
type IssuerSettled struct {
	IssuerID    string
	TicketCount int
	Due         decimal.Decimal
	Recovery    decimal.Decimal
	Paid        decimal.Decimal
	Defaulted   bool
}

func (i *IssuerSettled) EventType() EventType { return EventTypeIssuerSettled }
func (i *IssuerSettled) BucketID() *string    { return nil }

// HolderPaid records one holder's payout from an issuer settlement.
// Amount is Tickets · S · R regardless of holder type.
type HolderPaid struct {
	IssuerID string
	Holder   state.OwnerRef
	Tickets  int
	Amount   decimal.Decimal
}

func (h *HolderPaid) EventType() EventType { return EventTypeHolderPaid }
func (h *HolderPaid) BucketID() *string    { return nil }

// AnchorAdjusted records a bucket's VBT anchor update after default
// losses.
type AnchorAdjusted struct {
	Bucket     string
	LossRate   decimal.Decimal
	OldMid     decimal.Decimal
	NewMid     decimal.Decimal
	OldOutside decimal.Decimal
	NewOutside decimal.Decimal
	NewAsk     decimal.Decimal
	NewBid     decimal.Decimal
}

func (a *AnchorAdjusted) EventType() EventType { return EventTypeAnchorAdjusted }
func (a *AnchorAdjusted) BucketID() *string    { b := a.Bucket; return &b }
