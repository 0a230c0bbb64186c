package core

import (
	"math/rand"

	"DealerRing/internal/event"
	"DealerRing/internal/observability"
	"DealerRing/internal/state"
)

// Scheduler runs the daily order flow: per bucket it builds the
// period's eligibility sets, draws up to NMax randomized arrivals, and
// hands each one to the Executor. All randomness comes from the
// injected generator, so a seed fully determines the arrival sequence.
type Scheduler struct {
	world   *state.World
	exec    *Executor
	rng     *rand.Rand
	nmax    int
	metrics *observability.Metrics
}

func NewScheduler(world *state.World, exec *Executor, rng *rand.Rand, nmax int, metrics *observability.Metrics) *Scheduler {
	return &Scheduler{
		world:   world,
		exec:    exec,
		rng:     rng,
		nmax:    nmax,
		metrics: metrics,
	}
}

// RunDay processes every bucket ring in partition order.
func (s *Scheduler) RunDay() {
	for _, bucket := range s.world.Buckets.Names() {
		s.runBucket(bucket)
	}
}

// runBucket draws arrivals for one dealer ring. Set discipline: an
// agent that trades is removed from the set it was drawn from for the
// rest of the period; an agent whose own-side execution fails
// (unaffordable ask, empty backstop book) is retained and the arrival
// produces no trade.
func (s *Scheduler) runBucket(bucket string) {
	sellers := s.sellEligible(bucket)
	buyers := s.buyEligible()

	for i := 0; i < s.nmax; i++ {
		if len(sellers) == 0 && len(buyers) == 0 {
			return
		}

		side := event.SideBuy
		if s.rng.Intn(2) == 1 {
			side = event.SideSell
		}

		// Fallback rule: an empty preferred side defers to the other.
		if side == event.SideBuy && len(buyers) == 0 {
			side = event.SideSell
		} else if side == event.SideSell && len(sellers) == 0 {
			side = event.SideBuy
		}

		switch side {
		case event.SideBuy:
			idx := s.rng.Intn(len(buyers))
			traderID := buyers[idx]
			_, _, ok := s.exec.ExecuteBuy(bucket, traderID)
			if ok {
				buyers = append(buyers[:idx], buyers[idx+1:]...)
			}
			s.countArrival("Buy", ok)

		case event.SideSell:
			idx := s.rng.Intn(len(sellers))
			traderID := sellers[idx]
			ticket := s.lowestBucketTicket(traderID, bucket)
			s.exec.ExecuteSell(bucket, traderID, ticket)
			sellers = append(sellers[:idx], sellers[idx+1:]...)
			s.countArrival("Sell", true)
		}
	}
}

// sellEligible returns traders holding a sellable ticket in the bucket
// with a positive shortfall, in sorted id order.
func (s *Scheduler) sellEligible(bucket string) []string {
	out := make([]string, 0)
	for _, id := range s.world.TraderIDs() {
		t := s.world.Traders[id]
		if !t.Shortfall.IsPositive() {
			continue
		}
		if s.holdsBucketTicket(t, bucket) {
			out = append(out, id)
		}
	}
	return out
}

// buyEligible returns traders with cash on hand, in sorted id order.
func (s *Scheduler) buyEligible() []string {
	out := make([]string, 0)
	for _, id := range s.world.TraderIDs() {
		if s.world.Traders[id].Cash.IsPositive() {
			out = append(out, id)
		}
	}
	return out
}

func (s *Scheduler) holdsBucketTicket(t *state.Trader, bucket string) bool {
	for _, id := range t.Inventory {
		if s.world.Book.MustGet(id).BucketID == bucket {
			return true
		}
	}
	return false
}

// lowestBucketTicket picks the trader's lowest-serial ticket in the
// bucket (eligibility guarantees one exists).
func (s *Scheduler) lowestBucketTicket(traderID, bucket string) state.TicketID {
	t := s.world.Traders[traderID]
	var best state.TicketID = -1
	for _, id := range t.Inventory {
		if s.world.Book.MustGet(id).BucketID != bucket {
			continue
		}
		if best < 0 || id < best {
			best = id
		}
	}
	if best < 0 {
		panic("FATAL: sell-eligible trader holds no ticket in bucket " + bucket)
	}
	return best
}

func (s *Scheduler) countArrival(side string, executed bool) {
	if s.metrics == nil {
		return
	}
	outcome := "executed"
	if !executed {
		outcome = "retained"
	}
	s.metrics.Arrivals.WithLabelValues(side, outcome).Inc()
}
