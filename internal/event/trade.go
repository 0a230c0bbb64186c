package event

import (
	"github.com/shopspring/decimal"

	"DealerRing/internal/state"
)

// Side is the customer's side of a trade.
type Side int32

const (
	SideUnknown Side = iota
	SideBuy
	SideSell
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "Buy"
	case SideSell:
		return "Sell"
	default:
		return "Unknown"
	}
}

// TradeExecuted records one executed customer order. PassThrough marks
// execution against the VBT outside quote instead of the dealer
// interior.
type TradeExecuted struct {
	Bucket      string
	Side        Side
	Price       decimal.Decimal
	TicketID    state.TicketID
	TraderID    string
	PassThrough bool
}

func (t *TradeExecuted) EventType() EventType { return EventTypeTradeExecuted }
func (t *TradeExecuted) BucketID() *string    { b := t.Bucket; return &b }

// QuoteSnapshot records the dealer's derived quote block after a
// kernel recompute. Emitted once per bucket per precompute and after
// every executed trade, it carries every field needed to recheck the
// quote invariants externally.
type QuoteSnapshot struct {
	Bucket    string
	Bid       decimal.Decimal
	Ask       decimal.Decimal
	VBTBid    decimal.Decimal
	VBTAsk    decimal.Decimal
	Cash      decimal.Decimal
	Equity    decimal.Decimal
	Inventory int
	Capacity  decimal.Decimal
	PinnedAsk bool
	PinnedBid bool
	Guard     bool
}

func (q *QuoteSnapshot) EventType() EventType { return EventTypeQuoteSnapshot }
func (q *QuoteSnapshot) BucketID() *string    { b := q.Bucket; return &b }
