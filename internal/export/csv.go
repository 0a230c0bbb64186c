// Package export flattens the in-memory event log into CSV for
// offline analysis. One row per event; type-specific fields go into a
// generic detail column set so a single file carries the whole run.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"DealerRing/internal/event"
)

var header = []string{
	"sequence", "day", "type", "bucket",
	"side", "price", "ticket_id", "trader_id", "pass_through",
	"bid", "ask", "vbt_bid", "vbt_ask", "cash", "equity", "inventory", "capacity",
	"issuer_id", "recovery", "amount", "detail",
}

// WriteCSV writes the full event log to w.
func WriteCSV(w io.Writer, log *event.Log) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, env := range log.Entries() {
		if err := cw.Write(row(env)); err != nil {
			return fmt.Errorf("write event %d: %w", env.Sequence, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func row(env event.Envelope) []string {
	r := make([]string, len(header))
	r[0] = strconv.FormatInt(env.Sequence, 10)
	r[1] = strconv.Itoa(env.Day)
	r[2] = env.Type.String()
	if env.Bucket != nil {
		r[3] = *env.Bucket
	}

	switch p := env.Payload.(type) {
	case *event.DayStarted:
		r[20] = fmt.Sprintf("live_tickets=%d", p.LiveTickets)
	case *event.QuoteSnapshot:
		r[9] = p.Bid.String()
		r[10] = p.Ask.String()
		r[11] = p.VBTBid.String()
		r[12] = p.VBTAsk.String()
		r[13] = p.Cash.String()
		r[14] = p.Equity.String()
		r[15] = strconv.Itoa(p.Inventory)
		r[16] = p.Capacity.String()
		r[20] = fmt.Sprintf("pinned_ask=%t pinned_bid=%t guard=%t", p.PinnedAsk, p.PinnedBid, p.Guard)
	case *event.TradeExecuted:
		r[4] = p.Side.String()
		r[5] = p.Price.String()
		r[6] = strconv.FormatInt(int64(p.TicketID), 10)
		r[7] = p.TraderID
		r[8] = strconv.FormatBool(p.PassThrough)
	case *event.Rebucketed:
		r[6] = strconv.FormatInt(int64(p.TicketID), 10)
		if p.Price != nil {
			r[5] = p.Price.String()
		}
		r[20] = fmt.Sprintf("from=%s to=%s holder=%s internal_sale=%t",
			p.FromBucket, p.ToBucket, p.Holder, p.InternalSale)
	case *event.IssuerSettled:
		r[17] = p.IssuerID
		r[18] = p.Recovery.String()
		r[19] = p.Paid.String()
		r[20] = fmt.Sprintf("tickets=%d due=%s defaulted=%t", p.TicketCount, p.Due, p.Defaulted)
	case *event.HolderPaid:
		r[17] = p.IssuerID
		r[19] = p.Amount.String()
		r[20] = fmt.Sprintf("holder=%s tickets=%d", p.Holder, p.Tickets)
	case *event.AnchorAdjusted:
		r[18] = p.LossRate.String()
		r[20] = fmt.Sprintf("mid=%s->%s outside=%s->%s ask=%s bid=%s",
			p.OldMid, p.NewMid, p.OldOutside, p.NewOutside, p.NewAsk, p.NewBid)
	}
	return r
}
