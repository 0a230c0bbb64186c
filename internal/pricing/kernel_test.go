package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DealerRing/internal/state"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testParams() Params {
	return Params{Size: dec("1"), MMin: dec("0.1"), ClipNonNegB: true}
}

// newRing builds a dealer with n unit tickets and a VBT with the given
// anchors. Ticket ids are arbitrary: the kernel only counts them.
func newRing(cash string, n int, mid, outside string) (*state.Dealer, *state.VBT) {
	d := state.NewDealer("short", dec(cash))
	for i := 0; i < n; i++ {
		d.AddTicket(state.TicketID(i + 1))
	}
	v := state.NewVBT("short", dec("100"), dec(mid), dec(outside))
	return d, v
}

func TestRecomputeMidInventory(t *testing.T) {
	d, v := newRing("2", 2, "1", "0.3")
	Recompute(d, v, testParams())

	q := d.Quote
	assert.True(t, q.Equity.Equal(dec("4")), "equity V = C + M·x, got %s", q.Equity)
	assert.True(t, q.Capacity.Equal(dec("4")), "capacity X* = floor(V/M), got %s", q.Capacity)
	assert.True(t, q.Lambda.Equal(dec("0.2")), "lambda, got %s", q.Lambda)
	assert.True(t, q.Inside.Equal(dec("0.06")), "inside spread, got %s", q.Inside)
	assert.True(t, q.Midline.Equal(dec("1")), "midline at x = X*/2, got %s", q.Midline)
	assert.True(t, q.Ask.Equal(dec("1.03")), "ask, got %s", q.Ask)
	assert.True(t, q.Bid.Equal(dec("0.97")), "bid, got %s", q.Bid)
	assert.False(t, q.PinnedAsk)
	assert.False(t, q.PinnedBid)
	assert.False(t, q.Guard)
}

// Walking the rung ladder: each buy raises the next ask because the
// dealer's position shrinks and its cash grows.
func TestRecomputeAskLadder(t *testing.T) {
	p := testParams()
	d, v := newRing("2", 2, "1", "0.3")

	Recompute(d, v, p)
	require.True(t, d.Quote.Ask.Equal(dec("1.03")))

	// Customer lifts the ask: dealer loses a ticket, gains the price.
	d.Cash = d.Cash.Add(d.Quote.Ask)
	d.RemoveTicket(1)
	Recompute(d, v, p)
	assert.True(t, d.Quote.Ask.Equal(dec("1.08")), "second rung ask, got %s", d.Quote.Ask)
	assert.True(t, d.Quote.Bid.Equal(dec("1.02")), "second rung bid, got %s", d.Quote.Bid)

	// Second lift empties the book: ask pinned at x=0.
	d.Cash = d.Cash.Add(d.Quote.Ask)
	d.RemoveTicket(2)
	Recompute(d, v, p)
	assert.True(t, d.Quote.PinnedAsk, "ask must be pinned at x=0")
	assert.False(t, InteriorBuyFeasible(d, p), "no inventory means pass-through")
}

func TestRecomputePinnedBidAtCapacity(t *testing.T) {
	// x = 4 = X*: V = 0 + 4 = 4, capacity 4.
	d, v := newRing("0", 4, "1", "0.3")
	Recompute(d, v, testParams())

	assert.True(t, d.Quote.PinnedBid, "bid must be pinned at x=X*")
	assert.False(t, d.Quote.PinnedAsk)
	assert.False(t, InteriorSellFeasible(d, testParams()), "no room above capacity")
}

func TestRecomputeGuardRegime(t *testing.T) {
	d, v := newRing("2", 2, "0.1", "0.3")
	Recompute(d, v, testParams())

	q := d.Quote
	assert.True(t, q.Guard)
	assert.True(t, q.Capacity.IsZero())
	assert.True(t, q.PinnedAsk)
	assert.True(t, q.PinnedBid)
	assert.True(t, q.Ask.Equal(v.Ask()), "guard ask pins to outside")
	assert.True(t, q.Bid.Equal(v.Bid(true)), "guard bid pins to outside")
	assert.False(t, InteriorBuyFeasible(d, testParams()))
	assert.False(t, InteriorSellFeasible(d, testParams()))
}

func TestRecomputeOutsideBoundsInterior(t *testing.T) {
	p := testParams()
	for n := 1; n <= 3; n++ {
		d, v := newRing("2", n, "1", "0.3")
		Recompute(d, v, p)
		q := d.Quote
		if !q.PinnedAsk && !q.PinnedBid {
			assert.True(t, q.Ask.LessThan(v.Ask()), "interior ask %s must stay inside outside ask %s", q.Ask, v.Ask())
			assert.True(t, q.Bid.GreaterThan(v.Bid(true)), "interior bid %s must stay above outside bid %s", q.Bid, v.Bid(true))
		}
		assert.True(t, q.Bid.LessThanOrEqual(q.Ask))
	}
}

func TestInteriorSellFeasibleNeedsRoomAndCash(t *testing.T) {
	p := testParams()
	// x=1, V=0.5+1=1.5, X*=1: no room (x+S=2 > 1).
	d, v := newRing("0.5", 1, "1", "0.3")
	Recompute(d, v, p)
	assert.False(t, InteriorSellFeasible(d, p), "no room below capacity")

	// Room is fine (x=0, X*=2) but a very wide outside spread lifts the
	// bid above the dealer's cash.
	d2, v2 := newRing("2", 0, "1", "13")
	Recompute(d2, v2, p)
	require.True(t, d2.Quote.Capacity.Equal(dec("2")))
	require.True(t, d2.Quote.Bid.GreaterThan(d2.Cash))
	assert.False(t, InteriorSellFeasible(d2, p), "dealer cannot pay its bid")
}

func TestVBTBidClip(t *testing.T) {
	v := state.NewVBT("short", dec("100"), dec("0.1"), dec("0.5"))
	assert.True(t, v.Bid(true).IsZero(), "clipped bid")
	assert.True(t, v.Bid(false).Equal(dec("-0.15")), "unclipped bid")
	assert.True(t, v.Ask().Equal(dec("0.35")))
}
