package core

import (
	"fmt"

	"github.com/shopspring/decimal"

	"DealerRing/internal/event"
	"DealerRing/internal/ledger"
	"DealerRing/internal/observability"
	"DealerRing/internal/pricing"
	"DealerRing/internal/state"
)

// Executor executes one customer order against a bucket's dealer+VBT
// pair. Feasibility is decided first, then every mutation of the
// operation is applied together: an arrival either fully completes or
// leaves no trace (infeasibility is an outcome, not an error).
type Executor struct {
	world     *state.World
	params    pricing.Params
	sink      event.Sink
	tracker   *ledger.BalanceTracker
	validator *ledger.InvariantValidator
	metrics   *observability.Metrics
}

func NewExecutor(
	world *state.World,
	params pricing.Params,
	sink event.Sink,
	tracker *ledger.BalanceTracker,
	metrics *observability.Metrics,
) *Executor {
	return &Executor{
		world:     world,
		params:    params,
		sink:      sink,
		tracker:   tracker,
		validator: ledger.NewInvariantValidator(tracker),
		metrics:   metrics,
	}
}

// ExecuteBuy attempts a customer buy in the bucket. The dealer sells
// interior when it has inventory and is not guarded; otherwise the
// order passes through to the VBT at the outside ask. Returns
// ok=false (no mutation at all) when the buyer cannot afford the
// applicable price or the pass-through book is empty.
func (e *Executor) ExecuteBuy(bucketID, traderID string) (price decimal.Decimal, passThrough, ok bool) {
	d := e.world.Dealer(bucketID)
	v := e.world.VBT(bucketID)
	buyer := e.world.Traders[traderID]
	if buyer == nil {
		panic(fmt.Sprintf("FATAL: unknown trader %q", traderID))
	}

	interior := pricing.InteriorBuyFeasible(d, e.params)

	if interior {
		price = d.Quote.Ask
	} else {
		price = v.Ask()
	}
	if buyer.Cash.LessThan(price) {
		return decimal.Zero, false, false
	}

	buyerRef := state.OwnerRef{Kind: state.OwnerTrader, ID: traderID}
	batch := ledger.NewBatch(e.world.Day)

	var ticket *state.Ticket
	if interior {
		ticket = lowestTicket(e.world.Book, d.Inventory)
		e.world.Transfer(ticket.ID, buyerRef)
		d.Cash = d.Cash.Add(price)
		buyer.Cash = buyer.Cash.Sub(price)
		batch.Add(state.OwnerRef{Kind: state.OwnerDealer, ID: bucketID}, buyerRef, price, ledger.JournalTypeInteriorTrade)
	} else {
		// Pass-through: the VBT delivers. An empty backstop book means
		// the arrival produces no trade.
		if len(v.Inventory) == 0 {
			return decimal.Zero, false, false
		}
		ticket = lowestTicket(e.world.Book, v.Inventory)
		e.world.Transfer(ticket.ID, buyerRef)
		v.Cash = v.Cash.Add(price)
		buyer.Cash = buyer.Cash.Sub(price)
		batch.Add(state.OwnerRef{Kind: state.OwnerVBT, ID: bucketID}, buyerRef, price, ledger.JournalTypePassThrough)
	}

	e.finish(batch, d, v, &event.TradeExecuted{
		Bucket:      bucketID,
		Side:        event.SideBuy,
		Price:       price,
		TicketID:    ticket.ID,
		TraderID:    traderID,
		PassThrough: !interior,
	}, buyerRef)

	return price, !interior, true
}

// ExecuteSell executes a customer sell of the given ticket. The dealer
// buys interior when it has room below capacity and cash for the bid;
// otherwise the ticket passes through to the VBT at the outside bid.
// A sell always executes; the backstop is never cash-checked.
func (e *Executor) ExecuteSell(bucketID, traderID string, ticketID state.TicketID) (price decimal.Decimal, passThrough bool) {
	d := e.world.Dealer(bucketID)
	v := e.world.VBT(bucketID)
	seller := e.world.Traders[traderID]
	if seller == nil {
		panic(fmt.Sprintf("FATAL: unknown trader %q", traderID))
	}
	t := e.world.Book.MustGet(ticketID)
	if t.Owner.Kind != state.OwnerTrader || t.Owner.ID != traderID {
		panic(fmt.Sprintf("FATAL: ticket %d not owned by seller %q", ticketID, traderID))
	}
	if t.BucketID != bucketID {
		panic(fmt.Sprintf("FATAL: ticket %d is in bucket %q, not %q", ticketID, t.BucketID, bucketID))
	}

	interior := pricing.InteriorSellFeasible(d, e.params)
	sellerRef := state.OwnerRef{Kind: state.OwnerTrader, ID: traderID}
	batch := ledger.NewBatch(e.world.Day)

	if interior {
		price = d.Quote.Bid
		e.world.Transfer(ticketID, state.OwnerRef{Kind: state.OwnerDealer, ID: bucketID})
		d.Cash = d.Cash.Sub(price)
		seller.Cash = seller.Cash.Add(price)
		batch.Add(sellerRef, state.OwnerRef{Kind: state.OwnerDealer, ID: bucketID}, price, ledger.JournalTypeInteriorTrade)
	} else {
		price = v.Bid(e.params.ClipNonNegB)
		e.world.Transfer(ticketID, state.OwnerRef{Kind: state.OwnerVBT, ID: bucketID})
		v.Cash = v.Cash.Sub(price)
		seller.Cash = seller.Cash.Add(price)
		batch.Add(sellerRef, state.OwnerRef{Kind: state.OwnerVBT, ID: bucketID}, price, ledger.JournalTypePassThrough)
	}

	e.finish(batch, d, v, &event.TradeExecuted{
		Bucket:      bucketID,
		Side:        event.SideSell,
		Price:       price,
		TicketID:    ticketID,
		TraderID:    traderID,
		PassThrough: !interior,
	}, sellerRef)

	return price, !interior
}

// finish applies the operation's journal batch, recomputes the kernel
// so the next arrival never sees a stale quote, emits the trade and
// quote events, and cross-checks the touched holders against the
// ledger mirror.
func (e *Executor) finish(batch *ledger.Batch, d *state.Dealer, v *state.VBT, trade *event.TradeExecuted, customer state.OwnerRef) {
	if err := e.tracker.ApplyBatch(batch); err != nil {
		panic(fmt.Sprintf("FATAL: unbalanced trade batch: %v", err))
	}

	pricing.Recompute(d, v, e.params)

	e.sink.Append(e.world.Day, trade)
	e.sink.Append(e.world.Day, snapshotQuote(d, v, e.params))

	touched := []state.OwnerRef{
		{Kind: state.OwnerDealer, ID: d.BucketID},
		{Kind: state.OwnerVBT, ID: v.BucketID},
		customer,
	}
	if err := e.validator.ValidateHolders(e.world, touched); err != nil {
		panic(fmt.Sprintf("FATAL: invariant violated: %v", err))
	}

	if e.metrics != nil {
		mode := "interior"
		if trade.PassThrough {
			mode = "passthrough"
		}
		e.metrics.TradesExecuted.WithLabelValues(trade.Bucket, trade.Side.String(), mode).Inc()
	}
}

// lowestTicket picks the lowest-serial ticket from an inventory, the
// deterministic choice whenever any held ticket would do.
func lowestTicket(book *state.TicketBook, ids []state.TicketID) *state.Ticket {
	if len(ids) == 0 {
		panic("FATAL: lowestTicket on empty inventory")
	}
	best := ids[0]
	for _, id := range ids[1:] {
		if id < best {
			best = id
		}
	}
	return book.MustGet(best)
}

// snapshotQuote captures the dealer's quote block as an event payload.
func snapshotQuote(d *state.Dealer, v *state.VBT, p pricing.Params) *event.QuoteSnapshot {
	return &event.QuoteSnapshot{
		Bucket:    d.BucketID,
		Bid:       d.Quote.Bid,
		Ask:       d.Quote.Ask,
		VBTBid:    v.Bid(p.ClipNonNegB),
		VBTAsk:    v.Ask(),
		Cash:      d.Cash,
		Equity:    d.Quote.Equity,
		Inventory: len(d.Inventory),
		Capacity:  d.Quote.Capacity,
		PinnedAsk: d.Quote.PinnedAsk,
		PinnedBid: d.Quote.PinnedBid,
		Guard:     d.Quote.Guard,
	}
}
