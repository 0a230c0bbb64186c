package state

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// World is the single mutable snapshot the orchestrator owns: the
// bucket partition, the ticket arena, and every agent registry. All
// mutation is synchronous and in-process; iteration over registries is
// always in sorted order so a fixed seed reproduces a run exactly.
type World struct {
	Buckets *BucketSet
	Book    *TicketBook
	Dealers map[string]*Dealer
	VBTs    map[string]*VBT
	Traders map[string]*Trader
	Day     int
}

func NewWorld(buckets *BucketSet) *World {
	return &World{
		Buckets: buckets,
		Book:    NewTicketBook(),
		Dealers: make(map[string]*Dealer),
		VBTs:    make(map[string]*VBT),
		Traders: make(map[string]*Trader),
	}
}

// TraderIDs returns trader ids in sorted order.
func (w *World) TraderIDs() []string {
	ids := make([]string, 0, len(w.Traders))
	for id := range w.Traders {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Dealer returns the bucket's dealer or panics: a bucket without a
// dealer ring is a setup bug, not a runtime condition.
func (w *World) Dealer(bucketID string) *Dealer {
	d := w.Dealers[bucketID]
	if d == nil {
		panic(fmt.Sprintf("FATAL: no dealer for bucket %q", bucketID))
	}
	return d
}

// VBT returns the bucket's VBT or panics.
func (w *World) VBT(bucketID string) *VBT {
	v := w.VBTs[bucketID]
	if v == nil {
		panic(fmt.Sprintf("FATAL: no VBT for bucket %q", bucketID))
	}
	return v
}

// Transfer moves a ticket between holders, updating both inventories
// and the ticket's owner tag. Cash settlement is the caller's job.
func (w *World) Transfer(id TicketID, to OwnerRef) {
	t := w.Book.MustGet(id)
	if !w.removeFromOwner(t.Owner, id) {
		panic(fmt.Sprintf("FATAL: ticket %d not in inventory of %s", id, t.Owner))
	}
	w.addToOwner(to, id)
	t.Owner = to
}

func (w *World) removeFromOwner(ref OwnerRef, id TicketID) bool {
	switch ref.Kind {
	case OwnerDealer:
		return w.Dealer(ref.ID).RemoveTicket(id)
	case OwnerVBT:
		return w.VBT(ref.ID).RemoveTicket(id)
	case OwnerTrader:
		return w.mustTrader(ref.ID).RemoveTicket(id)
	default:
		panic(fmt.Sprintf("FATAL: unhandled owner kind %v", ref.Kind))
	}
}

func (w *World) addToOwner(ref OwnerRef, id TicketID) {
	switch ref.Kind {
	case OwnerDealer:
		w.Dealer(ref.ID).AddTicket(id)
	case OwnerVBT:
		w.VBT(ref.ID).AddTicket(id)
	case OwnerTrader:
		w.mustTrader(ref.ID).AddTicket(id)
	default:
		panic(fmt.Sprintf("FATAL: unhandled owner kind %v", ref.Kind))
	}
}

func (w *World) mustTrader(id string) *Trader {
	t := w.Traders[id]
	if t == nil {
		panic(fmt.Sprintf("FATAL: unknown trader %q", id))
	}
	return t
}

// CashOf returns the holder's current cash.
func (w *World) CashOf(ref OwnerRef) decimal.Decimal {
	switch ref.Kind {
	case OwnerDealer:
		return w.Dealer(ref.ID).Cash
	case OwnerVBT:
		return w.VBT(ref.ID).Cash
	case OwnerTrader:
		return w.mustTrader(ref.ID).Cash
	default:
		panic(fmt.Sprintf("FATAL: unhandled owner kind %v", ref.Kind))
	}
}

// AddCash credits (or debits, for negative delta) the holder's cash.
func (w *World) AddCash(ref OwnerRef, delta decimal.Decimal) {
	switch ref.Kind {
	case OwnerDealer:
		d := w.Dealer(ref.ID)
		d.Cash = d.Cash.Add(delta)
	case OwnerVBT:
		v := w.VBT(ref.ID)
		v.Cash = v.Cash.Add(delta)
	case OwnerTrader:
		t := w.mustTrader(ref.ID)
		t.Cash = t.Cash.Add(delta)
	default:
		panic(fmt.Sprintf("FATAL: unhandled owner kind %v", ref.Kind))
	}
}

// Retire deletes a matured ticket: out of its holder's inventory, off
// the issuer's issued list, and out of the arena. Matured tickets are
// extinguished regardless of recovery outcome.
func (w *World) Retire(id TicketID) {
	t := w.Book.MustGet(id)
	if !w.removeFromOwner(t.Owner, id) {
		panic(fmt.Sprintf("FATAL: ticket %d not in inventory of %s", id, t.Owner))
	}
	if issuer := w.Traders[t.IssuerID]; issuer != nil {
		issuer.RemoveIssued(id)
	}
	w.Book.Delete(id)
}

// TotalCash sums cash across every holder. Trades, internal sales, and
// settlement payouts are all zero-sum transfers, so this total is
// constant for the life of a simulation.
func (w *World) TotalCash() decimal.Decimal {
	total := decimal.Zero
	for _, name := range w.Buckets.Names() {
		if d := w.Dealers[name]; d != nil {
			total = total.Add(d.Cash)
		}
		if v := w.VBTs[name]; v != nil {
			total = total.Add(v.Cash)
		}
	}
	for _, id := range w.TraderIDs() {
		total = total.Add(w.Traders[id].Cash)
	}
	return total
}
