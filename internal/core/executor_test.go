package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteBuyWalksTheRungLadder(t *testing.T) {
	f := newFixture()
	f.addTrader("iss", "0", "0")
	buyer := f.addTrader("b1", "10", "0")
	f.mint("iss", dealerRef("short"), 3)
	f.mint("iss", dealerRef("short"), 3)
	f.seed()
	exec := f.executor()

	price, passThrough, ok := exec.ExecuteBuy("short", "b1")
	require.True(t, ok)
	assert.False(t, passThrough)
	assert.True(t, price.Equal(dec("1.03")), "first rung, got %s", price)
	assert.True(t, f.world.Dealer("short").Cash.Equal(dec("3.03")))
	assert.True(t, buyer.Cash.Equal(dec("8.97")))
	assert.Len(t, buyer.Inventory, 1)

	price, passThrough, ok = exec.ExecuteBuy("short", "b1")
	require.True(t, ok)
	assert.False(t, passThrough)
	assert.True(t, price.Equal(dec("1.08")), "second rung, got %s", price)
	assert.Empty(t, f.world.Dealer("short").Inventory)
}

func TestExecuteBuyPassThroughAtEmptyDealer(t *testing.T) {
	f := newFixture()
	f.addTrader("iss", "0", "0")
	buyer := f.addTrader("b1", "10", "0")
	f.mint("iss", vbtRef("short"), 3)
	f.seed()
	exec := f.executor()

	price, passThrough, ok := exec.ExecuteBuy("short", "b1")
	require.True(t, ok)
	assert.True(t, passThrough)
	assert.True(t, price.Equal(dec("1.15")), "outside ask A = M + O/2, got %s", price)
	assert.True(t, f.world.VBT("short").Cash.Equal(dec("101.15")))
	assert.True(t, buyer.Cash.Equal(dec("8.85")))
	assert.Len(t, buyer.Inventory, 1)
	// Dealer never touched.
	assert.True(t, f.world.Dealer("short").Cash.Equal(dec("2")))
}

func TestExecuteBuyFailsAtomically(t *testing.T) {
	f := newFixture()
	f.addTrader("iss", "0", "0")
	buyer := f.addTrader("b1", "1", "0") // cannot afford the 1.03 ask
	f.mint("iss", dealerRef("short"), 3)
	f.mint("iss", dealerRef("short"), 3)
	f.seed()
	exec := f.executor()

	before := f.log.Len()
	_, _, ok := exec.ExecuteBuy("short", "b1")
	assert.False(t, ok)
	assert.True(t, buyer.Cash.Equal(dec("1")), "failed arrival must leave no trace")
	assert.Empty(t, buyer.Inventory)
	assert.Len(t, f.world.Dealer("short").Inventory, 2)
	assert.Equal(t, before, f.log.Len(), "no events for a failed arrival")
}

func TestExecuteBuyFailsOnEmptyBackstopBook(t *testing.T) {
	f := newFixture()
	f.addTrader("b1", "10", "0")
	f.seed()
	exec := f.executor()

	// No dealer inventory, no VBT inventory: nothing to deliver.
	_, _, ok := exec.ExecuteBuy("short", "b1")
	assert.False(t, ok)
	assert.True(t, f.world.Traders["b1"].Cash.Equal(dec("10")))
}

func TestExecuteSellInterior(t *testing.T) {
	f := newFixture()
	f.addTrader("iss", "0", "0")
	seller := f.addTrader("s1", "0", "1")
	f.mint("iss", dealerRef("short"), 3)
	f.mint("iss", dealerRef("short"), 3)
	tk := f.mint("iss", traderRef("s1"), 3)
	f.seed()
	exec := f.executor()

	// x=2, V=4, X*=4: room (x+S=3 <= 4) and cash for the bid.
	price, passThrough := exec.ExecuteSell("short", "s1", tk.ID)
	assert.False(t, passThrough)
	assert.True(t, price.Equal(dec("0.97")), "interior bid, got %s", price)
	assert.True(t, seller.Cash.Equal(price))
	assert.Empty(t, seller.Inventory)
	assert.Len(t, f.world.Dealer("short").Inventory, 3)
	assert.True(t, f.world.Dealer("short").Cash.Equal(dec("2").Sub(price)))
}

func TestExecuteSellPassThroughNeverFails(t *testing.T) {
	f := newFixture()
	f.addTrader("iss", "0", "0")
	seller := f.addTrader("s1", "0", "1")
	tk := f.mint("iss", traderRef("s1"), 3)
	// Dealer with zero equity: X*=0, no room to buy.
	f.world.Dealer("short").Cash = dec("0")
	// Backstop cash does not matter; it is never checked.
	f.world.VBT("short").Cash = dec("0.1")
	f.seed()
	exec := f.executor()

	price, passThrough := exec.ExecuteSell("short", "s1", tk.ID)
	assert.True(t, passThrough)
	assert.True(t, price.Equal(dec("0.85")), "outside bid B = M - O/2, got %s", price)
	assert.True(t, seller.Cash.Equal(dec("0.85")))
	assert.True(t, f.world.VBT("short").Cash.Equal(dec("-0.75")), "backstop may run negative")
	assert.Equal(t, vbtRef("short"), f.world.Book.MustGet(tk.ID).Owner)
}

func TestExecuteSellPanicsOnForeignTicket(t *testing.T) {
	f := newFixture()
	f.addTrader("iss", "0", "0")
	f.addTrader("s1", "0", "1")
	f.addTrader("s2", "0", "1")
	tk := f.mint("iss", traderRef("s2"), 3)
	f.seed()
	exec := f.executor()

	assert.Panics(t, func() {
		exec.ExecuteSell("short", "s1", tk.ID)
	})
}
