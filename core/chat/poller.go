package chat

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/trezcool/mazungumzo/core"
)

// Poller approximates real-time delivery without a push channel: it re-runs a
// fetch on a fixed interval while its scope (a request-list view, an open
// conversation) is alive, and stops exactly when the scope's context is
// cancelled.
//
// The loop is synchronous, so poll cycles for one scope never overlap: a tick
// that fires while a fetch is still in flight is dropped by the ticker.
// A fetch that fails is logged and retried implicitly on the next tick.
type Poller struct {
	interval time.Duration
	jitter   time.Duration
	fetch    func(context.Context) error
	logger   core.Logger
}

func NewPoller(interval, jitter time.Duration, fetch func(context.Context) error, logger core.Logger) *Poller {
	return &Poller{
		interval: interval,
		jitter:   jitter,
		fetch:    fetch,
		logger:   logger,
	}
}

// Run polls until ctx is cancelled, fetching once immediately. The fetch
// callback receives ctx and must discard results that resolve after
// cancellation instead of applying them to state.
func (p *Poller) Run(ctx context.Context) {
	p.poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	if p.jitter > 0 {
		// spread fetches out to avoid thundering-herd reads on shared scopes
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(rand.Int63n(int64(p.jitter)))):
		}
	}
	if ctx.Err() != nil {
		return
	}
	if err := p.fetch(ctx); err != nil {
		p.logger.Warn(fmt.Sprintf("chat: poll fetch: %v", err), err)
	}
}
