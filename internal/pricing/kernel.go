// Package pricing implements the dealer quote kernel: a pure function
// from (inventory, cash, VBT anchors) to the dealer's derived quote
// block. It performs no I/O and no logging so it can be tested in
// isolation and recomputed cheaply after every mutation.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"DealerRing/internal/state"
)

var two = decimal.NewFromInt(2)

// Params are the kernel inputs that do not live on the dealer or VBT.
type Params struct {
	// Size is the standard ticket size S.
	Size decimal.Decimal
	// MMin is the guard threshold: a bucket whose mid anchor is at or
	// below this floor collapses to pass-through-only.
	MMin decimal.Decimal
	// ClipNonNegB clips the outside bid at zero.
	ClipNonNegB bool
}

// Recompute derives the dealer's quote block from current cash,
// inventory, and the bucket's VBT anchors, then asserts the quote
// invariants. It must be called after every mutation of dealer cash,
// dealer inventory, or VBT anchors: stale quotes break the
// read-after-write model.
func Recompute(d *state.Dealer, v *state.VBT, p Params) {
	x := d.Position(p.Size)
	m := v.Mid
	o := v.Outside
	outsideAsk := v.Ask()
	outsideBid := v.Bid(p.ClipNonNegB)

	q := state.DealerQuote{
		Equity: d.Cash.Add(m.Mul(x)),
	}

	if m.LessThanOrEqual(p.MMin) {
		// Guard regime: zero capacity, both quotes pinned to the
		// outside. Everything else stays untouched.
		q.Guard = true
		q.Capacity = decimal.Zero
		q.Ask = outsideAsk
		q.Bid = outsideBid
		q.Midline = decimal.Zero
		q.Lambda = decimal.Zero
		q.Inside = decimal.Zero
		q.PinnedAsk = true
		q.PinnedBid = true
		d.Quote = q
		return
	}

	q.Capacity = q.Equity.Div(m).Floor()
	q.Lambda = p.Size.Div(q.Capacity.Add(p.Size))
	q.Inside = q.Lambda.Mul(o)

	// midline(x) = M − [O / (X* + 2S)] · (x − X*/2)
	slope := o.Div(q.Capacity.Add(two.Mul(p.Size)))
	q.Midline = m.Sub(slope.Mul(x.Sub(q.Capacity.Div(two))))

	halfInside := q.Inside.Div(two)
	q.Ask = q.Midline.Add(halfInside)
	q.Bid = q.Midline.Sub(halfInside)

	q.PinnedAsk = x.IsZero()
	q.PinnedBid = x.Equal(q.Capacity)

	assertQuote(d, q, x, outsideBid, outsideAsk)
	d.Quote = q
}

// assertQuote fails loudly on quote-ordering violations. Silent
// correction would mask a conservation-law bug upstream.
func assertQuote(d *state.Dealer, q state.DealerQuote, x, outsideBid, outsideAsk decimal.Decimal) {
	if q.Ask.LessThan(q.Bid) {
		panic(fmt.Sprintf("FATAL: bucket %s bid %s > ask %s at x=%s",
			d.BucketID, q.Bid, q.Ask, x))
	}
	// The strict outside bounds hold only strictly inside the rung
	// ladder; at the pins the interior value is counterfactual.
	if x.IsPositive() && x.LessThan(q.Capacity) {
		if !outsideBid.LessThan(q.Bid) {
			panic(fmt.Sprintf("FATAL: bucket %s interior bid %s breaches outside bid %s at x=%s",
				d.BucketID, q.Bid, outsideBid, x))
		}
		if !q.Ask.LessThan(outsideAsk) {
			panic(fmt.Sprintf("FATAL: bucket %s interior ask %s breaches outside ask %s at x=%s",
				d.BucketID, q.Ask, outsideAsk, x))
		}
	}
}

// InteriorBuyFeasible reports whether a customer buy can execute
// against dealer inventory: the dealer must hold at least one ticket
// and not be in Guard.
func InteriorBuyFeasible(d *state.Dealer, p Params) bool {
	if d.Quote.Guard {
		return false
	}
	return d.Position(p.Size).GreaterThanOrEqual(p.Size)
}

// InteriorSellFeasible reports whether a customer sell can execute
// against the dealer: room below capacity and cash to pay the bid.
func InteriorSellFeasible(d *state.Dealer, p Params) bool {
	if d.Quote.Guard {
		return false
	}
	x := d.Position(p.Size)
	if x.Add(p.Size).GreaterThan(d.Quote.Capacity) {
		return false
	}
	return d.Cash.GreaterThanOrEqual(d.Quote.Bid)
}
