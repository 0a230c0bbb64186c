package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DealerRing/internal/event"
)

func issuerSettledEvents(f *fixture) []*event.IssuerSettled {
	out := make([]*event.IssuerSettled, 0)
	for _, env := range f.log.Entries() {
		if e, ok := env.Payload.(*event.IssuerSettled); ok {
			out = append(out, e)
		}
	}
	return out
}

func TestSettlementFullRecovery(t *testing.T) {
	f := newFixture()
	f.world.Day = 5
	f.addTrader("iss", "10", "0")
	holder := f.addTrader("t1", "0", "0")
	f.mint("iss", traderRef("t1"), 5)
	f.mint("iss", traderRef("t1"), 5)
	f.seed()

	losses := f.settler().RunDay()

	assert.True(t, holder.Cash.Equal(dec("2")), "face per ticket at R=1")
	assert.True(t, f.world.Traders["iss"].Cash.Equal(dec("8")))
	assert.Equal(t, 0, f.world.Book.Len(), "matured tickets are extinguished")
	assert.Empty(t, f.world.Traders["iss"].Issued)
	assert.Empty(t, losses, "no defaults, no losses")

	evts := issuerSettledEvents(f)
	require.Len(t, evts, 1)
	assert.False(t, evts[0].Defaulted)
	assert.True(t, evts[0].Recovery.Equal(dec("1")))
	assert.True(t, evts[0].Paid.Equal(dec("2")))
}

// Proportional default across holder classes: 8 maturing tickets, cash
// 3, so R = 0.375 and every holder gets 0.375 per ticket with no
// priority ordering.
func TestSettlementPartialRecoveryTypeSymmetric(t *testing.T) {
	f := newFixture()
	f.world.Day = 5
	f.addTrader("iss", "3", "0")
	f.addTrader("t1", "0", "0")
	for i := 0; i < 3; i++ {
		f.mint("iss", dealerRef("short"), 5)
	}
	for i := 0; i < 2; i++ {
		f.mint("iss", vbtRef("short"), 5)
	}
	for i := 0; i < 3; i++ {
		f.mint("iss", traderRef("t1"), 5)
	}
	f.seed()

	losses := f.settler().RunDay()

	assert.True(t, f.world.Dealer("short").Cash.Equal(dec("3.125")), "2 + 3·0.375")
	assert.True(t, f.world.VBT("short").Cash.Equal(dec("100.75")), "100 + 2·0.375")
	assert.True(t, f.world.Traders["t1"].Cash.Equal(dec("1.125")))
	assert.True(t, f.world.Traders["iss"].Cash.IsZero(), "issuer drained exactly")
	assert.Equal(t, 0, f.world.Book.Len())

	require.Contains(t, losses, "short")
	assert.Equal(t, 8, losses["short"].Tickets)
	assert.True(t, losses["short"].LossSum.Equal(dec("5")), "8 · (1 − 0.375)")

	evts := issuerSettledEvents(f)
	require.Len(t, evts, 1)
	assert.True(t, evts[0].Defaulted)
	assert.True(t, evts[0].Recovery.Equal(dec("0.375")))
	assert.True(t, evts[0].Due.Equal(dec("8")))
	assert.True(t, evts[0].Paid.Equal(dec("3")))
}

func TestSettlementZeroRecovery(t *testing.T) {
	f := newFixture()
	f.world.Day = 2
	f.addTrader("iss", "-1", "0") // already insolvent
	holder := f.addTrader("t1", "0", "0")
	f.mint("iss", traderRef("t1"), 2)
	f.seed()

	losses := f.settler().RunDay()

	assert.True(t, holder.Cash.IsZero())
	assert.True(t, f.world.Traders["iss"].Cash.Equal(dec("-1")), "nothing to recover, nothing moves")
	assert.Equal(t, 0, f.world.Book.Len())
	assert.True(t, losses["short"].LossSum.Equal(dec("1")))
}

func TestSettlementSelfHeldTicketNetsOut(t *testing.T) {
	f := newFixture()
	f.world.Day = 3
	f.addTrader("iss", "1", "0")
	other := f.addTrader("t1", "0", "0")
	f.mint("iss", traderRef("iss"), 3)
	f.mint("iss", traderRef("t1"), 3)
	f.seed()

	f.settler().RunDay()

	// Due 2, cash 1: R = 0.5. The self-held ticket pays the issuer 0.5
	// of its own cash; only the external payout leaves.
	assert.True(t, other.Cash.Equal(dec("0.5")))
	assert.True(t, f.world.Traders["iss"].Cash.Equal(dec("0.5")))
}

// A non-terminating quotient must truncate so the issuer is never
// debited below zero.
func TestSettlementTruncatedRecoveryNeverOverdraws(t *testing.T) {
	f := newFixture()
	f.world.Day = 2
	f.addTrader("iss", "1", "0")
	f.addTrader("t1", "0", "0")
	for i := 0; i < 3; i++ {
		f.mint("iss", traderRef("t1"), 2)
	}
	f.seed()

	f.settler().RunDay()

	iss := f.world.Traders["iss"]
	assert.False(t, iss.Cash.IsNegative(), "payouts must not exceed issuer cash, got %s", iss.Cash)
	total := iss.Cash.Add(f.world.Traders["t1"].Cash)
	assert.True(t, total.Equal(dec("1")), "settlement is a pure transfer, got %s", total)
}

func TestSettlementMultipleIssuersSameDay(t *testing.T) {
	f := newFixture()
	f.world.Day = 4
	f.addTrader("issA", "10", "0")
	f.addTrader("issB", "0", "0")
	holder := f.addTrader("t1", "0", "0")
	f.mint("issA", traderRef("t1"), 4)
	f.mint("issB", traderRef("t1"), 4)
	f.seed()

	losses := f.settler().RunDay()

	// issA pays in full, issB defaults totally: only issB contributes
	// to the loss aggregate.
	assert.True(t, holder.Cash.Equal(dec("1")))
	require.Contains(t, losses, "short")
	assert.Equal(t, 1, losses["short"].Tickets)
	assert.True(t, losses["short"].LossSum.Equal(dec("1")))
	assert.Len(t, issuerSettledEvents(f), 2)
}
