package state

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// TicketBook is the arena of live tickets. Holders store TicketIDs
// only; every ticket mutation goes through the book so there is exactly
// one mutable copy of each claim.
type TicketBook struct {
	tickets    map[TicketID]*Ticket
	nextSerial int64
}

func NewTicketBook() *TicketBook {
	return &TicketBook{
		tickets: make(map[TicketID]*Ticket),
	}
}

// Mint creates a ticket owned by owner and returns it. Serials (and
// ids) are assigned in mint order.
func (b *TicketBook) Mint(issuerID string, owner OwnerRef, face decimal.Decimal, maturityDay, currentDay int, bucketID string) *Ticket {
	b.nextSerial++
	t := &Ticket{
		ID:           TicketID(b.nextSerial),
		IssuerID:     issuerID,
		Owner:        owner,
		Face:         face,
		MaturityDay:  maturityDay,
		RemainingTau: maturityDay - currentDay,
		BucketID:     bucketID,
		Serial:       b.nextSerial,
	}
	b.tickets[t.ID] = t
	return t
}

// Get returns the ticket or nil.
func (b *TicketBook) Get(id TicketID) *Ticket {
	return b.tickets[id]
}

// MustGet returns the ticket or panics. A dangling TicketID means an
// owner inventory and the arena disagree, which is a kernel bug.
func (b *TicketBook) MustGet(id TicketID) *Ticket {
	t := b.tickets[id]
	if t == nil {
		panic(fmt.Sprintf("FATAL: ticket %d referenced but not in arena", id))
	}
	return t
}

// Delete removes a ticket from the arena. The caller is responsible
// for removing the id from the owner's inventory first.
func (b *TicketBook) Delete(id TicketID) {
	delete(b.tickets, id)
}

// All returns every live ticket ordered by serial.
func (b *TicketBook) All() []*Ticket {
	out := make([]*Ticket, 0, len(b.tickets))
	for _, t := range b.tickets {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Serial < out[j].Serial })
	return out
}

// MaturingOn returns tickets with the given maturity day, by serial.
func (b *TicketBook) MaturingOn(day int) []*Ticket {
	out := make([]*Ticket, 0)
	for _, t := range b.tickets {
		if t.MaturityDay == day {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Serial < out[j].Serial })
	return out
}

// Len returns the number of live tickets.
func (b *TicketBook) Len() int {
	return len(b.tickets)
}
