// Package bridge turns a validated scenario into a live world: it
// ticketizes the outstanding obligations of the upstream credit ledger
// into standard-size tickets and places them with their declared
// holders. The bridge is the only writer of initial state; after
// BuildWorld returns, all mutation belongs to the engine.
package bridge

import (
	"fmt"

	"github.com/shopspring/decimal"

	"DealerRing/internal/config"
	"DealerRing/internal/state"
)

// BuildWorld constructs the initial world from a scenario. Obligations
// are ticketized in declaration order so serials are reproducible.
func BuildWorld(s *config.Scenario) (*state.World, error) {
	buckets := state.NewBucketSet(s.Ring.Buckets)
	w := state.NewWorld(buckets)

	for _, d := range s.Dealers {
		w.Dealers[d.Bucket] = state.NewDealer(d.Bucket, d.Cash.Decimal)
	}
	for _, v := range s.VBTs {
		anchor, err := anchorFor(s.Ring.Anchors, v.Bucket)
		if err != nil {
			return nil, err
		}
		w.VBTs[v.Bucket] = state.NewVBT(v.Bucket, v.Cash.Decimal, anchor.Mid.Decimal, anchor.Outside.Decimal)
	}
	for _, t := range s.Traders {
		tr := state.NewTrader(t.ID, t.Cash.Decimal)
		tr.Shortfall = t.Shortfall.Decimal
		w.Traders[t.ID] = tr
	}

	for i, o := range s.Obligations {
		if err := ticketize(w, s.Ring.TicketSize.Decimal, i, o); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// ticketize mints Count unit tickets for one obligation and places
// them with the holder. A dealer or VBT holder must sit in the bucket
// the ticket's maturity classifies into; a mismatch is a scenario bug,
// not something the simulation can repair.
func ticketize(w *state.World, size decimal.Decimal, idx int, o config.ObligationSeed) error {
	tau := o.MaturityDay - w.Day
	bucket := w.Buckets.Classify(tau)

	holder, err := holderRef(o)
	if err != nil {
		return fmt.Errorf("obligation %d: %w", idx, err)
	}
	if holder.Kind != state.OwnerTrader && holder.ID != bucket {
		return fmt.Errorf("obligation %d: %s holder %q cannot hold a %q-bucket ticket (maturity day %d)",
			idx, holder.Kind, holder.ID, bucket, o.MaturityDay)
	}

	issuer := w.Traders[o.Issuer]
	for n := 0; n < o.Count; n++ {
		t := w.Book.Mint(o.Issuer, holder, size, o.MaturityDay, w.Day, bucket)
		switch holder.Kind {
		case state.OwnerDealer:
			w.Dealer(holder.ID).AddTicket(t.ID)
		case state.OwnerVBT:
			w.VBT(holder.ID).AddTicket(t.ID)
		case state.OwnerTrader:
			w.Traders[holder.ID].AddTicket(t.ID)
		}
		issuer.Issued = append(issuer.Issued, t.ID)
	}
	return nil
}

func holderRef(o config.ObligationSeed) (state.OwnerRef, error) {
	switch o.HolderKind {
	case "dealer":
		return state.OwnerRef{Kind: state.OwnerDealer, ID: o.HolderID}, nil
	case "vbt":
		return state.OwnerRef{Kind: state.OwnerVBT, ID: o.HolderID}, nil
	case "trader":
		return state.OwnerRef{Kind: state.OwnerTrader, ID: o.HolderID}, nil
	default:
		return state.OwnerRef{}, fmt.Errorf("unknown holder_kind %q", o.HolderKind)
	}
}

func anchorFor(anchors []config.AnchorConfig, bucket string) (config.AnchorConfig, error) {
	for _, a := range anchors {
		if a.Bucket == bucket {
			return a, nil
		}
	}
	return config.AnchorConfig{}, fmt.Errorf("no anchor config for bucket %q", bucket)
}

// Holding is one line of a holdings report.
type Holding struct {
	Holder  state.OwnerRef
	Cash    decimal.Decimal
	Tickets int
}

// HoldingsReport reads back the final (or intermediate) positions of
// every holder, in deterministic order: dealers and VBTs by partition
// order, then traders by id.
func HoldingsReport(w *state.World) []Holding {
	out := make([]Holding, 0, 2*len(w.Dealers)+len(w.Traders))
	for _, name := range w.Buckets.Names() {
		d := w.Dealer(name)
		out = append(out, Holding{
			Holder:  state.OwnerRef{Kind: state.OwnerDealer, ID: name},
			Cash:    d.Cash,
			Tickets: len(d.Inventory),
		})
		v := w.VBT(name)
		out = append(out, Holding{
			Holder:  state.OwnerRef{Kind: state.OwnerVBT, ID: name},
			Cash:    v.Cash,
			Tickets: len(v.Inventory),
		})
	}
	for _, id := range w.TraderIDs() {
		t := w.Traders[id]
		out = append(out, Holding{
			Holder:  state.OwnerRef{Kind: state.OwnerTrader, ID: id},
			Cash:    t.Cash,
			Tickets: len(t.Inventory),
		})
	}
	return out
}
