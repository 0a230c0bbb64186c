package core

import (
	"github.com/shopspring/decimal"

	"DealerRing/internal/event"
	"DealerRing/internal/observability"
	"DealerRing/internal/state"
)

// AnchorUpdater adjusts each bucket's VBT anchors after default
// losses: the mid drops by phiM·l and the outside spread widens by
// phiO·l, where l is the bucket's ticket-weighted mean loss rate for
// the day. The outside ask is never clipped; the bid clip follows the
// ring configuration.
type AnchorUpdater struct {
	world   *state.World
	phiM    decimal.Decimal
	phiO    decimal.Decimal
	clip    bool
	sink    event.Sink
	metrics *observability.Metrics
}

func NewAnchorUpdater(world *state.World, phiM, phiO decimal.Decimal, clipNonNegB bool, sink event.Sink, metrics *observability.Metrics) *AnchorUpdater {
	return &AnchorUpdater{
		world:   world,
		phiM:    phiM,
		phiO:    phiO,
		clip:    clipNonNegB,
		sink:    sink,
		metrics: metrics,
	}
}

// Apply updates anchors for every bucket that took losses today.
// Buckets with no defaults are untouched.
func (a *AnchorUpdater) Apply(losses map[string]*BucketLoss) {
	for _, bucket := range a.world.Buckets.Names() {
		agg := losses[bucket]
		if agg == nil || agg.Tickets == 0 {
			continue
		}

		l := agg.LossSum.Div(decimal.NewFromInt(int64(agg.Tickets)))
		v := a.world.VBT(bucket)
		oldMid := v.Mid
		oldOutside := v.Outside

		v.Mid = oldMid.Sub(a.phiM.Mul(l))
		v.Outside = oldOutside.Add(a.phiO.Mul(l))

		a.sink.Append(a.world.Day, &event.AnchorAdjusted{
			Bucket:     bucket,
			LossRate:   l,
			OldMid:     oldMid,
			NewMid:     v.Mid,
			OldOutside: oldOutside,
			NewOutside: v.Outside,
			NewAsk:     v.Ask(),
			NewBid:     v.Bid(a.clip),
		})

		if a.metrics != nil {
			a.metrics.AnchorAdjustments.WithLabelValues(bucket).Inc()
		}
	}
}
