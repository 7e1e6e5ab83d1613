// Package batch primes the snapshot store for a set of filter
// combinations ahead of browsing, so the first mount of each view is
// warm. Fetches are rate limited and the whole run stops on context
// cancellation.
package batch

import (
	"context"
	"log"
	"time"

	"golang.org/x/time/rate"

	"github.com/avencourt/listflow/internal/revalidate"
	"github.com/avencourt/listflow/internal/snapshot"
	"github.com/avencourt/listflow/pkg/api"
)

// Options tune one warm-up run.
type Options struct {
	TTL      time.Duration // entries younger than this are skipped
	Timeout  time.Duration // per-fetch deadline
	PageSize int
	Rate     float64 // fetches per second
	Burst    int
}

func (o *Options) fill() {
	if o.TTL <= 0 {
		o.TTL = 3 * time.Minute
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.PageSize <= 0 {
		o.PageSize = 50
	}
	if o.Rate <= 0 {
		o.Rate = 4
	}
	if o.Burst <= 0 {
		o.Burst = 1
	}
}

// Summary reports one run.
type Summary struct {
	Warmed  int
	Skipped int
	Failed  int
}

// Runner fetches page one for each filter set and writes the result to
// the snapshot store.
type Runner struct {
	scope   string
	store   snapshot.Store
	fetch   revalidate.Fetcher
	opts    Options
	limiter *rate.Limiter
}

// New builds a runner for one scope.
func New(scope string, store snapshot.Store, fetch revalidate.Fetcher, opts Options) *Runner {
	opts.fill()
	return &Runner{
		scope:   scope,
		store:   store,
		fetch:   fetch,
		opts:    opts,
		limiter: rate.NewLimiter(rate.Limit(opts.Rate), opts.Burst),
	}
}

// Run warms every filter set in order. Sets with a still-fresh
// snapshot are skipped without touching the network. Cancelling ctx
// stops scheduling further fetches; a fetch already issued runs to its
// own deadline and its result is kept. The summary covers what
// completed before the stop.
func (r *Runner) Run(ctx context.Context, sets []api.FilterSet) (Summary, error) {
	var s Summary
	for _, fs := range sets {
		if err := ctx.Err(); err != nil {
			return s, err
		}
		hash := fs.Hash()
		if entry, ok := r.store.Read(r.scope, hash); ok && snapshot.Fresh(entry, r.opts.TTL) {
			s.Skipped++
			continue
		}
		if err := r.limiter.Wait(ctx); err != nil {
			return s, err
		}
		// Deliberately not derived from ctx: an issued fetch completes
		// to its natural success or timeout even when the run is
		// cancelled mid-flight.
		fctx, cancel := context.WithTimeout(context.Background(), r.opts.Timeout)
		page, err := r.fetch.FetchPage(fctx, fs, r.opts.PageSize, 0)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return s, ctx.Err()
			}
			s.Failed++
			log.Printf("batch: %s warm %q: %v", r.scope, fs.Canonical(), err)
			continue
		}
		r.store.Write(r.scope, hash, snapshot.Entry{
			Items:     page.Items,
			Cursor:    page.Cursor,
			Timestamp: time.Now().UTC(),
		})
		s.Warmed++
	}
	return s, nil
}
