package core

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"DealerRing/internal/event"
	"DealerRing/internal/ledger"
	"DealerRing/internal/observability"
	"DealerRing/internal/state"
)

// recoveryPrecision bounds the recovery-rate quotient. The quotient is
// truncated (QuoRem), never rounded up, so total payout can never
// exceed the issuer's cash.
const recoveryPrecision = 16

// BucketLoss aggregates a bucket's default losses for one day:
// LossSum is Σ (1 − R) over defaulted tickets maturing in the bucket,
// so LossSum/Tickets is the ticket-weighted mean loss rate.
type BucketLoss struct {
	Tickets int
	LossSum decimal.Decimal
}

// Settler pays out maturing tickets. Recovery is proportional and
// type-symmetric: every holder of a defaulting issuer receives the
// same per-ticket amount S·R, with no priority between holder classes.
type Settler struct {
	world     *state.World
	size      decimal.Decimal
	sink      event.Sink
	tracker   *ledger.BalanceTracker
	validator *ledger.InvariantValidator
	metrics   *observability.Metrics
}

func NewSettler(world *state.World, size decimal.Decimal, sink event.Sink, tracker *ledger.BalanceTracker, metrics *observability.Metrics) *Settler {
	return &Settler{
		world:     world,
		size:      size,
		sink:      sink,
		tracker:   tracker,
		validator: ledger.NewInvariantValidator(tracker),
		metrics:   metrics,
	}
}

// RunDay settles every ticket maturing today and returns the
// per-bucket loss aggregates for the anchor updater. Matured tickets
// are deleted from every holder regardless of recovery outcome.
func (s *Settler) RunDay() map[string]*BucketLoss {
	matured := s.world.Book.MaturingOn(s.world.Day)
	losses := make(map[string]*BucketLoss)
	if len(matured) == 0 {
		return losses
	}

	byIssuer := make(map[string][]*state.Ticket)
	for _, t := range matured {
		byIssuer[t.IssuerID] = append(byIssuer[t.IssuerID], t)
	}
	issuerIDs := make([]string, 0, len(byIssuer))
	for id := range byIssuer {
		issuerIDs = append(issuerIDs, id)
	}
	sort.Strings(issuerIDs)

	for _, issuerID := range issuerIDs {
		s.settleIssuer(issuerID, byIssuer[issuerID], losses)
	}
	return losses
}

// settleIssuer pays all holders of one issuer's maturing tickets and
// extinguishes the tickets. The issuer is debited the exact sum of
// holder payouts, so holder inflow equals issuer outflow bit-for-bit.
func (s *Settler) settleIssuer(issuerID string, tickets []*state.Ticket, losses map[string]*BucketLoss) {
	issuer := s.world.Traders[issuerID]
	if issuer == nil {
		panic(fmt.Sprintf("FATAL: maturing ticket names unknown issuer %q", issuerID))
	}
	issuerRef := state.OwnerRef{Kind: state.OwnerTrader, ID: issuerID}

	due := s.size.Mul(decimal.NewFromInt(int64(len(tickets))))
	recovery := recoveryRate(issuer.Cash, due)

	// Holder groups in deterministic (kind, id) order.
	byHolder := make(map[state.OwnerRef]int)
	holders := make([]state.OwnerRef, 0)
	for _, t := range tickets {
		if _, seen := byHolder[t.Owner]; !seen {
			holders = append(holders, t.Owner)
		}
		byHolder[t.Owner]++
	}
	sort.Slice(holders, func(i, j int) bool {
		if holders[i].Kind != holders[j].Kind {
			return holders[i].Kind < holders[j].Kind
		}
		return holders[i].ID < holders[j].ID
	})

	batch := ledger.NewBatch(s.world.Day)
	totalPaid := decimal.Zero
	touched := []state.OwnerRef{issuerRef}

	for _, ref := range holders {
		q := byHolder[ref]
		payout := s.size.Mul(recovery).Mul(decimal.NewFromInt(int64(q)))
		s.world.AddCash(ref, payout)
		totalPaid = totalPaid.Add(payout)
		if ref != issuerRef {
			// An issuer holding its own ticket pays itself: net zero,
			// no journal.
			batch.Add(ref, issuerRef, payout, ledger.JournalTypeSettlementPayout)
			touched = append(touched, ref)
		}

		s.sink.Append(s.world.Day, &event.HolderPaid{
			IssuerID: issuerID,
			Holder:   ref,
			Tickets:  q,
			Amount:   payout,
		})
	}

	s.world.AddCash(issuerRef, totalPaid.Neg())

	if err := s.tracker.ApplyBatch(batch); err != nil {
		panic(fmt.Sprintf("FATAL: unbalanced settlement batch: %v", err))
	}
	if err := s.validator.ValidateHolders(s.world, touched); err != nil {
		panic(fmt.Sprintf("FATAL: invariant violated: %v", err))
	}

	defaulted := recovery.LessThan(decimal.NewFromInt(1))
	if defaulted {
		loss := decimal.NewFromInt(1).Sub(recovery)
		for _, t := range tickets {
			agg := losses[t.BucketID]
			if agg == nil {
				agg = &BucketLoss{LossSum: decimal.Zero}
				losses[t.BucketID] = agg
			}
			agg.Tickets++
			agg.LossSum = agg.LossSum.Add(loss)
		}
	}

	for _, t := range tickets {
		s.world.Retire(t.ID)
	}

	s.sink.Append(s.world.Day, &event.IssuerSettled{
		IssuerID:    issuerID,
		TicketCount: len(tickets),
		Due:         due,
		Recovery:    recovery,
		Paid:        totalPaid,
		Defaulted:   defaulted,
	})

	if s.metrics != nil {
		outcome := "full"
		if defaulted {
			outcome = "default"
		}
		s.metrics.Settlements.WithLabelValues(outcome).Inc()
		s.metrics.RecoveryRate.Observe(recoveryFloat(recovery))
		s.metrics.SettlementPaid.Add(recoveryFloat(totalPaid))
	}
}

// recoveryRate computes R = min(1, cash/due), truncated so R·due can
// never exceed cash. Negative issuer cash recovers nothing.
func recoveryRate(cash, due decimal.Decimal) decimal.Decimal {
	if cash.GreaterThanOrEqual(due) {
		return decimal.NewFromInt(1)
	}
	if !cash.IsPositive() {
		return decimal.Zero
	}
	q, _ := cash.QuoRem(due, recoveryPrecision)
	return q
}

func recoveryFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
