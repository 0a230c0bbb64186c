package core

import (
	"fmt"
	"math/rand"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"DealerRing/internal/config"
	"DealerRing/internal/event"
	"DealerRing/internal/ledger"
	"DealerRing/internal/observability"
	"DealerRing/internal/pricing"
	"DealerRing/internal/state"
)

// Engine is the simulation orchestrator. It owns the mutable world and
// runs one day at a time to completion: rebucket → kernel precompute →
// order flow → settlement → anchor update. Everything is synchronous
// and single-threaded; the only randomness is the seeded generator
// threaded through the scheduler, so a seed and a scenario fully
// determine the run.
type Engine struct {
	world  *state.World
	cfg    config.RingConfig
	params pricing.Params
	sink   event.Sink

	tracker   *ledger.BalanceTracker
	validator *ledger.InvariantValidator

	executor   *Executor
	scheduler  *Scheduler
	rebucketer *Rebucketer
	settler    *Settler
	anchors    *AnchorUpdater

	opening decimal.Decimal
	metrics *observability.Metrics
	log     zerolog.Logger
}

func NewEngine(
	world *state.World,
	cfg config.RingConfig,
	sink event.Sink,
	metrics *observability.Metrics,
	log zerolog.Logger,
) *Engine {
	params := pricing.Params{
		Size:        cfg.TicketSize.Decimal,
		MMin:        cfg.MMin.Decimal,
		ClipNonNegB: cfg.ClipNonNegB,
	}

	if metrics != nil {
		sink = meteredSink{inner: sink, metrics: metrics}
	}

	// Seed the ledger mirror from the opening balances; from here on
	// it moves by journals only.
	tracker := ledger.NewBalanceTracker()
	for _, name := range world.Buckets.Names() {
		tracker.SetBalance(state.OwnerRef{Kind: state.OwnerDealer, ID: name}, world.Dealer(name).Cash)
		tracker.SetBalance(state.OwnerRef{Kind: state.OwnerVBT, ID: name}, world.VBT(name).Cash)
	}
	for _, id := range world.TraderIDs() {
		tracker.SetBalance(state.OwnerRef{Kind: state.OwnerTrader, ID: id}, world.Traders[id].Cash)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	executor := NewExecutor(world, params, sink, tracker, metrics)

	return &Engine{
		world:      world,
		cfg:        cfg,
		params:     params,
		sink:       sink,
		tracker:    tracker,
		validator:  ledger.NewInvariantValidator(tracker),
		executor:   executor,
		scheduler:  NewScheduler(world, executor, rng, cfg.NMax, metrics),
		rebucketer: NewRebucketer(world, sink, tracker, metrics),
		settler:    NewSettler(world, params.Size, sink, tracker, metrics),
		anchors:    NewAnchorUpdater(world, cfg.PhiM.Decimal, cfg.PhiO.Decimal, cfg.ClipNonNegB, sink, metrics),
		opening:    world.TotalCash(),
		metrics:    metrics,
		log:        log,
	}
}

// World exposes the engine's world for inspection after (or between)
// days. Callers must not mutate dealer/VBT/trader state between
// arrivals; the kernel's read-after-write model assumes the engine is
// the only writer.
func (e *Engine) World() *state.World {
	return e.world
}

// Tracker exposes the cash-audit ledger.
func (e *Engine) Tracker() *ledger.BalanceTracker {
	return e.tracker
}

// RunDay advances the simulation by one day.
func (e *Engine) RunDay() {
	e.world.Day++

	e.sink.Append(e.world.Day, &event.DayStarted{
		Day:         e.world.Day,
		LiveTickets: e.world.Book.Len(),
	})

	e.rebucketer.RunDay()
	e.precomputeQuotes(true)
	e.scheduler.RunDay()
	losses := e.settler.RunDay()
	if e.cfg.EnableAnchorUpdates {
		e.anchors.Apply(losses)
	}
	// Refresh after settlement and anchor moves so no caller ever
	// observes a stale quote block.
	e.precomputeQuotes(false)

	if err := e.validator.ValidateConservation(e.world, e.opening); err != nil {
		panic(fmt.Sprintf("FATAL: invariant violated: %v", err))
	}

	if e.metrics != nil {
		e.metrics.CurrentDay.Set(float64(e.world.Day))
		e.metrics.LiveTickets.Set(float64(e.world.Book.Len()))
	}

	e.log.Debug().
		Int("day", e.world.Day).
		Int("live_tickets", e.world.Book.Len()).
		Msg("day complete")
}

// Run executes days until MaxDays or until every ticket has settled.
func (e *Engine) Run() {
	for d := 0; d < e.cfg.MaxDays; d++ {
		e.RunDay()
		if e.world.Book.Len() == 0 {
			e.log.Info().Int("day", e.world.Day).Msg("all tickets settled")
			return
		}
	}
}

// precomputeQuotes recomputes every bucket's kernel, optionally
// emitting a quote snapshot per bucket.
func (e *Engine) precomputeQuotes(emit bool) {
	for _, name := range e.world.Buckets.Names() {
		d := e.world.Dealer(name)
		v := e.world.VBT(name)
		pricing.Recompute(d, v, e.params)
		if emit {
			e.sink.Append(e.world.Day, snapshotQuote(d, v, e.params))
		}
	}
}

// meteredSink counts appended events.
type meteredSink struct {
	inner   event.Sink
	metrics *observability.Metrics
}

func (m meteredSink) Append(day int, evt event.Event) {
	m.inner.Append(day, evt)
	m.metrics.EventsTotal.Inc()
}
