package state

import "github.com/shopspring/decimal"

// Trader is a customer agent. Traders are also the issuers in this
// market: a ticket's IssuerID names the trader whose cash backs it at
// maturity. Shortfall is the liquidity need driving sell eligibility.
type Trader struct {
	ID        string
	Cash      decimal.Decimal
	Inventory []TicketID
	Issued    []TicketID
	Shortfall decimal.Decimal
}

func NewTrader(id string, cash decimal.Decimal) *Trader {
	return &Trader{ID: id, Cash: cash}
}

// AddTicket appends a ticket id to the inventory.
func (t *Trader) AddTicket(id TicketID) {
	t.Inventory = append(t.Inventory, id)
}

// RemoveTicket removes a ticket id, reporting whether it was held.
func (t *Trader) RemoveTicket(id TicketID) bool {
	var ok bool
	t.Inventory, ok = removeTicketID(t.Inventory, id)
	return ok
}

// RemoveIssued drops a ticket id from the issued list (on maturity).
func (t *Trader) RemoveIssued(id TicketID) {
	t.Issued, _ = removeTicketID(t.Issued, id)
}
