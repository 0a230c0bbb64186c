package state

import "github.com/shopspring/decimal"

// VBT is the value-based trader backstopping one bucket: a passive,
// capital-rich holder quoting wide outside prices around its mid
// anchor. VBT cash is never checked before a pass-through sell; the
// backstop absorbs flow by definition and may run negative.
type VBT struct {
	BucketID  string
	Cash      decimal.Decimal
	Inventory []TicketID

	// Anchors. Mid (M) and Outside (O) move only through the anchor
	// updater after default losses.
	Mid     decimal.Decimal
	Outside decimal.Decimal
}

func NewVBT(bucketID string, cash, mid, outside decimal.Decimal) *VBT {
	return &VBT{BucketID: bucketID, Cash: cash, Mid: mid, Outside: outside}
}

// Ask returns the outside ask A = M + O/2. Never clipped.
func (v *VBT) Ask() decimal.Decimal {
	return v.Mid.Add(v.Outside.Div(decimal.NewFromInt(2)))
}

// Bid returns the outside bid B = M − O/2, clipped to zero when
// clipNonNeg is set.
func (v *VBT) Bid(clipNonNeg bool) decimal.Decimal {
	b := v.Mid.Sub(v.Outside.Div(decimal.NewFromInt(2)))
	if clipNonNeg && b.IsNegative() {
		return decimal.Zero
	}
	return b
}

// AddTicket appends a ticket id to the inventory.
func (v *VBT) AddTicket(id TicketID) {
	v.Inventory = append(v.Inventory, id)
}

// RemoveTicket removes a ticket id, reporting whether it was held.
func (v *VBT) RemoveTicket(id TicketID) bool {
	var ok bool
	v.Inventory, ok = removeTicketID(v.Inventory, id)
	return ok
}
