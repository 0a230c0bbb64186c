package event

import (
	"github.com/shopspring/decimal"

	"DealerRing/internal/state"
)

// DayStarted opens each simulation day in the log.
type DayStarted struct {
	Day         int
	LiveTickets int
}

func (d *DayStarted) EventType() EventType { return EventTypeDayStarted }
func (d *DayStarted) BucketID() *string    { return nil }

// Rebucketed records a ticket crossing a bucket boundary. Trader-held
// crossings are relabels (no price, no cash); dealer/VBT-held
// crossings are internal sales priced at the receiving bucket's mid
// anchor.
type Rebucketed struct {
	TicketID   state.TicketID
	FromBucket string
	ToBucket   string
	Holder     state.OwnerKind

	// Price is set only for internal sales.
	Price        *decimal.Decimal
	InternalSale bool
}

func (r *Rebucketed) EventType() EventType { return EventTypeRebucketed }
func (r *Rebucketed) BucketID() *string    { b := r.ToBucket; return &b }
