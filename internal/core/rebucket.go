package core

import (
	"fmt"

	"DealerRing/internal/event"
	"DealerRing/internal/ledger"
	"DealerRing/internal/observability"
	"DealerRing/internal/state"
)

// Rebucketer advances ticket maturities at the start of each day and
// migrates boundary-crossing tickets between buckets. Trader-held
// tickets are relabeled only; dealer- and VBT-held tickets are sold
// internally to the receiving bucket's same-role holder at the
// receiving bucket's mid anchor.
type Rebucketer struct {
	world     *state.World
	sink      event.Sink
	tracker   *ledger.BalanceTracker
	validator *ledger.InvariantValidator
	metrics   *observability.Metrics
}

func NewRebucketer(world *state.World, sink event.Sink, tracker *ledger.BalanceTracker, metrics *observability.Metrics) *Rebucketer {
	return &Rebucketer{
		world:     world,
		sink:      sink,
		tracker:   tracker,
		validator: ledger.NewInvariantValidator(tracker),
		metrics:   metrics,
	}
}

// RunDay decrements every ticket's remaining tau and reclassifies.
// Runs before order flow; tickets are visited in serial order.
func (r *Rebucketer) RunDay() {
	for _, t := range r.world.Book.All() {
		t.RemainingTau--
		newBucket := r.world.Buckets.Classify(t.RemainingTau)
		if newBucket == t.BucketID {
			continue
		}
		r.migrate(t, newBucket)
	}
}

func (r *Rebucketer) migrate(t *state.Ticket, newBucket string) {
	from := t.BucketID
	t.BucketID = newBucket

	evt := &event.Rebucketed{
		TicketID:   t.ID,
		FromBucket: from,
		ToBucket:   newBucket,
		Holder:     t.Owner.Kind,
	}

	switch t.Owner.Kind {
	case state.OwnerTrader:
		// Relabel only: no cash movement, no ownership change. Not a
		// trade, but still logged as a rebucket event.

	case state.OwnerDealer:
		price := r.world.VBT(newBucket).Mid
		sender := r.world.Dealer(from)
		receiver := r.world.Dealer(newBucket)
		senderRef := state.OwnerRef{Kind: state.OwnerDealer, ID: from}
		receiverRef := state.OwnerRef{Kind: state.OwnerDealer, ID: newBucket}

		r.world.Transfer(t.ID, receiverRef)
		sender.Cash = sender.Cash.Add(price)
		receiver.Cash = receiver.Cash.Sub(price)

		batch := ledger.NewBatch(r.world.Day)
		batch.Add(senderRef, receiverRef, price, ledger.JournalTypeInternalSale)
		r.apply(batch, senderRef, receiverRef)

		evt.Price = &price
		evt.InternalSale = true

	case state.OwnerVBT:
		price := r.world.VBT(newBucket).Mid
		sender := r.world.VBT(from)
		receiver := r.world.VBT(newBucket)
		senderRef := state.OwnerRef{Kind: state.OwnerVBT, ID: from}
		receiverRef := state.OwnerRef{Kind: state.OwnerVBT, ID: newBucket}

		r.world.Transfer(t.ID, receiverRef)
		sender.Cash = sender.Cash.Add(price)
		receiver.Cash = receiver.Cash.Sub(price)

		batch := ledger.NewBatch(r.world.Day)
		batch.Add(senderRef, receiverRef, price, ledger.JournalTypeInternalSale)
		r.apply(batch, senderRef, receiverRef)

		evt.Price = &price
		evt.InternalSale = true

	default:
		panic(fmt.Sprintf("FATAL: unhandled owner kind %v in rebucket", t.Owner.Kind))
	}

	r.sink.Append(r.world.Day, evt)

	if r.metrics != nil {
		mode := "relabel"
		if evt.InternalSale {
			mode = "sale"
		}
		r.metrics.Rebuckets.WithLabelValues(t.Owner.Kind.String(), mode).Inc()
	}
}

func (r *Rebucketer) apply(batch *ledger.Batch, refs ...state.OwnerRef) {
	if err := r.tracker.ApplyBatch(batch); err != nil {
		panic(fmt.Sprintf("FATAL: unbalanced rebucket batch: %v", err))
	}
	if err := r.validator.ValidateHolders(r.world, refs); err != nil {
		panic(fmt.Sprintf("FATAL: invariant violated: %v", err))
	}
}
