// Package poller drives the fetch-filter-deliver cycle on a fixed
// interval.
package poller

import (
	"context"
	"log/slog"
	"time"

	"notify_printer/internal/filter"
	"notify_printer/internal/manager"
	"notify_printer/internal/sink"
)

// Poller runs the aggregation manager periodically and forwards each
// delta to the sink. Cycles are independent: a failure inside one
// cycle is logged and never stops the loop.
type Poller struct {
	manager *manager.Manager
	sink    sink.Sink
	rules   []filter.Rule
	log     *slog.Logger
	tick    time.Duration
	prime   bool
}

// New creates a Poller with a 60-second interval and priming enabled.
func New(m *manager.Manager, s sink.Sink, log *slog.Logger) *Poller {
	return &Poller{
		manager: m,
		sink:    s,
		log:     log,
		tick:    time.Minute,
		prime:   true,
	}
}

// SetTickInterval overrides the default 60-second poll interval.
func (p *Poller) SetTickInterval(d time.Duration) {
	if d > 0 {
		p.tick = d
	}
}

// SetPrimeOnStart controls whether Run marks everything currently
// visible as seen before the first cycle, so that notifications
// predating startup are not delivered.
func (p *Poller) SetPrimeOnStart(prime bool) {
	p.prime = prime
}

// SetRules installs filter rules applied to each delta before
// delivery. Filtered-out notifications stay marked seen.
func (p *Poller) SetRules(rules []filter.Rule) {
	p.rules = rules
}

// Run starts the polling loop, blocking until ctx is cancelled.
// Cancellation is honored between cycles, never mid-cycle.
func (p *Poller) Run(ctx context.Context) {
	if p.prime {
		existing := p.manager.GetAll(ctx)
		p.manager.MarkSeen(ctx, existing)
		p.log.Info("primed seen store", "count", len(existing))
	}

	p.cycle(ctx)

	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.cycle(ctx)
		}
	}
}

// RunOnce fetches everything currently visible and delivers it,
// bypassing the seen store. Used for one-shot full listings.
func (p *Poller) RunOnce(ctx context.Context) error {
	all := filter.Apply(p.manager.GetAll(ctx), p.rules)
	p.log.Info("one-shot fetch", "count", len(all))
	return p.sink.Deliver(ctx, all)
}

func (p *Poller) cycle(ctx context.Context) {
	fresh := p.manager.GetNew(ctx)
	if len(fresh) == 0 {
		p.log.Debug("no new notifications")
		return
	}

	delivered := filter.Apply(fresh, p.rules)
	p.log.Info("new notifications", "fetched", len(fresh), "after_filters", len(delivered))

	// Items are already marked seen; a delivery failure does not
	// re-queue them.
	if err := p.sink.Deliver(ctx, delivered); err != nil {
		p.log.Error("deliver notifications", "count", len(delivered), "error", err)
	}
}
