package state

import "github.com/shopspring/decimal"

// Dealer is the market maker for one bucket. Cash and Inventory are
// the mutable trading state; every field in Quote is derived by the
// pricing kernel and must be recomputed after any mutation of cash,
// inventory, or the bucket's VBT anchors.
type Dealer struct {
	BucketID  string
	Cash      decimal.Decimal
	Inventory []TicketID

	Quote DealerQuote
}

// DealerQuote holds the kernel-derived read-only fields. Invariants:
// Equity == Cash + Mid·Position at all times; Bid <= Ask; outside
// quotes bound the interior strictly except at the pinned rungs.
type DealerQuote struct {
	Equity   decimal.Decimal // V = C + M·x
	Capacity decimal.Decimal // X* = floor(V/M); 0 under Guard
	Lambda   decimal.Decimal // layoff probability S/(X*+S)
	Inside   decimal.Decimal // inside spread I = lambda·O
	Midline  decimal.Decimal
	Ask      decimal.Decimal
	Bid      decimal.Decimal

	// At a pinned rung the interior value is counterfactual: execution
	// at that boundary pass-through-routes to the VBT outside quote.
	PinnedAsk bool
	PinnedBid bool

	// Guard marks the degenerate regime (mid at or below the floor):
	// capacity zero, both quotes pinned to the outside.
	Guard bool
}

func NewDealer(bucketID string, cash decimal.Decimal) *Dealer {
	return &Dealer{BucketID: bucketID, Cash: cash}
}

// Position returns the dealer's inventory position x in size units
// (ticket count × standard size).
func (d *Dealer) Position(size decimal.Decimal) decimal.Decimal {
	return size.Mul(decimal.NewFromInt(int64(len(d.Inventory))))
}

// AddTicket appends a ticket id to the inventory.
func (d *Dealer) AddTicket(id TicketID) {
	d.Inventory = append(d.Inventory, id)
}

// RemoveTicket removes a ticket id, reporting whether it was held.
func (d *Dealer) RemoveTicket(id TicketID) bool {
	var ok bool
	d.Inventory, ok = removeTicketID(d.Inventory, id)
	return ok
}

func removeTicketID(ids []TicketID, id TicketID) ([]TicketID, bool) {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...), true
		}
	}
	return ids, false
}
