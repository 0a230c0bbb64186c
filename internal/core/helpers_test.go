package core

import (
	"fmt"

	"github.com/shopspring/decimal"

	"DealerRing/internal/event"
	"DealerRing/internal/ledger"
	"DealerRing/internal/pricing"
	"DealerRing/internal/state"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// fixture is one fully-wired world for engine tests: the default
// bucket partition, a dealer with cash 2 and a VBT with cash 100 per
// bucket, anchors M=1 O=0.3 everywhere.
type fixture struct {
	world   *state.World
	params  pricing.Params
	log     *event.Log
	tracker *ledger.BalanceTracker
}

func newFixture() *fixture {
	w := state.NewWorld(state.NewBucketSet(state.DefaultBuckets()))
	for _, b := range w.Buckets.Names() {
		w.Dealers[b] = state.NewDealer(b, dec("2"))
		w.VBTs[b] = state.NewVBT(b, dec("100"), dec("1"), dec("0.3"))
	}
	return &fixture{
		world:   w,
		params:  pricing.Params{Size: dec("1"), MMin: dec("0.1"), ClipNonNegB: true},
		log:     event.NewLog(),
		tracker: ledger.NewBalanceTracker(),
	}
}

func (f *fixture) addTrader(id, cash, shortfall string) *state.Trader {
	t := state.NewTrader(id, dec(cash))
	t.Shortfall = dec(shortfall)
	f.world.Traders[id] = t
	return t
}

// mint creates a ticket, places it with the holder, and records it on
// the issuer's issued list. The bucket comes from the classifier.
func (f *fixture) mint(issuerID string, owner state.OwnerRef, maturityDay int) *state.Ticket {
	tau := maturityDay - f.world.Day
	bucket := f.world.Buckets.Classify(tau)
	t := f.world.Book.Mint(issuerID, owner, f.params.Size, maturityDay, f.world.Day, bucket)
	switch owner.Kind {
	case state.OwnerDealer:
		f.world.Dealer(owner.ID).AddTicket(t.ID)
	case state.OwnerVBT:
		f.world.VBT(owner.ID).AddTicket(t.ID)
	case state.OwnerTrader:
		f.world.Traders[owner.ID].AddTicket(t.ID)
	default:
		panic(fmt.Sprintf("unhandled owner kind %v", owner.Kind))
	}
	issuer := f.world.Traders[issuerID]
	if issuer != nil {
		issuer.Issued = append(issuer.Issued, t.ID)
	}
	return t
}

// seed mirrors every holder's opening cash into the tracker and
// recomputes all quotes. Call after populating the world, before the
// first operation.
func (f *fixture) seed() {
	for _, b := range f.world.Buckets.Names() {
		f.tracker.SetBalance(state.OwnerRef{Kind: state.OwnerDealer, ID: b}, f.world.Dealer(b).Cash)
		f.tracker.SetBalance(state.OwnerRef{Kind: state.OwnerVBT, ID: b}, f.world.VBT(b).Cash)
		pricing.Recompute(f.world.Dealer(b), f.world.VBT(b), f.params)
	}
	for _, id := range f.world.TraderIDs() {
		f.tracker.SetBalance(state.OwnerRef{Kind: state.OwnerTrader, ID: id}, f.world.Traders[id].Cash)
	}
}

func (f *fixture) executor() *Executor {
	return NewExecutor(f.world, f.params, f.log, f.tracker, nil)
}

func (f *fixture) settler() *Settler {
	return NewSettler(f.world, f.params.Size, f.log, f.tracker, nil)
}

// tradeEvents filters the log down to executed trades.
func (f *fixture) tradeEvents() []*event.TradeExecuted {
	out := make([]*event.TradeExecuted, 0)
	for _, env := range f.log.Entries() {
		if trade, ok := env.Payload.(*event.TradeExecuted); ok {
			out = append(out, trade)
		}
	}
	return out
}

func dealerRef(bucket string) state.OwnerRef {
	return state.OwnerRef{Kind: state.OwnerDealer, ID: bucket}
}

func vbtRef(bucket string) state.OwnerRef {
	return state.OwnerRef{Kind: state.OwnerVBT, ID: bucket}
}

func traderRef(id string) state.OwnerRef {
	return state.OwnerRef{Kind: state.OwnerTrader, ID: id}
}
