// Package revalidate implements stale-while-revalidate per filter set:
// show whatever the snapshot store has immediately, fetch page one in
// the background, and reconcile without ever discarding user-visible
// data on failure.
package revalidate

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/avencourt/listflow/internal/order"
	"github.com/avencourt/listflow/internal/snapshot"
	"github.com/avencourt/listflow/pkg/api"
)

// Fetcher fetches one page from the list endpoint.
type Fetcher interface {
	FetchPage(ctx context.Context, fs api.FilterSet, limit, offset int) (api.Page, error)
}

// Status is the view-visible loading state for the active filter set.
type Status int

const (
	StatusIdle       Status = iota
	StatusLoading           // no cache, fetch in flight
	StatusWarmup            // fresh cache shown, fetch pending
	StatusRefreshing        // stale cache shown, refetch in flight
	StatusSettled           // network result shown
	StatusError             // network failed, cached result retained
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusWarmup:
		return "warmup"
	case StatusRefreshing:
		return "refreshing"
	case StatusSettled:
		return "settled"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// Result is one emission toward the owning view. On StatusError the
// item fields are empty and the consumer keeps whatever it already
// shows.
type Result struct {
	FilterSet   api.FilterSet
	Hash        string
	Items       []api.Item
	Cursor      api.PageCursor
	ManualOrder []api.ItemID
	Status      Status
	FromCache   bool
	Err         error
}

// Options tune a Controller.
type Options struct {
	TTL      time.Duration // freshness window, default 3m
	Timeout  time.Duration // per-fetch deadline, default 30s
	PageSize int           // page one size, default 50
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
}

// Controller orchestrates revalidation for one logical list (scope).
// Guarantees: at most one in-flight refresh per filter set, and
// last-request-wins keyed by filter-set identity: a slow response for
// a superseded filter set is discarded, regardless of arrival order.
type Controller struct {
	scope  string
	store  snapshot.Store
	fetch  Fetcher
	opts   Options
	notify func(Result)

	mu         sync.Mutex
	activeHash string
	inflight   map[string]bool
}

// New builds a controller. notify receives every state emission; it is
// called without internal locks held and may re-enter the controller.
func New(scope string, store snapshot.Store, fetch Fetcher, opts Options, notify func(Result)) *Controller {
	opts.fill()
	return &Controller{
		scope:    scope,
		store:    store,
		fetch:    fetch,
		opts:     opts,
		notify:   notify,
		inflight: make(map[string]bool),
	}
}

// Activate is called on mount or filter change. It emits the cached
// state (or a loading placeholder) synchronously, then refreshes page
// one in the background.
func (c *Controller) Activate(ctx context.Context, fs api.FilterSet) {
	hash := fs.Hash()

	c.mu.Lock()
	c.activeHash = hash
	already := c.inflight[hash]
	if !already {
		c.inflight[hash] = true
	}
	c.mu.Unlock()

	if entry, ok := c.store.Read(c.scope, hash); ok {
		st := StatusRefreshing
		if snapshot.Fresh(entry, c.opts.TTL) {
			st = StatusWarmup
		}
		c.notify(Result{
			FilterSet:   fs,
			Hash:        hash,
			Items:       entry.Items,
			Cursor:      entry.Cursor,
			ManualOrder: entry.ManualOrder,
			Status:      st,
			FromCache:   true,
		})
	} else {
		c.notify(Result{FilterSet: fs, Hash: hash, Status: StatusLoading})
	}

	if already {
		// A refresh for this exact filter set is pending; its result
		// will land through the same path.
		return
	}
	go c.run(ctx, fs, hash)
}

// Refresh forces a revalidation of the given filter set, restarting
// pagination from offset zero. Same path as Activate.
func (c *Controller) Refresh(ctx context.Context, fs api.FilterSet) {
	c.Activate(ctx, fs)
}

func (c *Controller) run(ctx context.Context, fs api.FilterSet, hash string) {
	fctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	page, err := c.fetch.FetchPage(fctx, fs, c.opts.PageSize, 0)
	cancel()

	c.mu.Lock()
	delete(c.inflight, hash)
	superseded := c.activeHash != hash
	c.mu.Unlock()

	if superseded {
		// The user moved on to another filter set while this fetch was
		// in flight. Dropping the response keeps a slow stale answer
		// from overwriting a newer one.
		log.Printf("revalidate: %s discarding superseded response for %.8s", c.scope, hash)
		return
	}

	if err != nil {
		log.Printf("revalidate: %s fetch %.8s: %v", c.scope, hash, err)
		c.notify(Result{FilterSet: fs, Hash: hash, Status: StatusError, Err: err})
		return
	}

	manual := c.carryManualOrder(hash, page.Items)
	entry := snapshot.Entry{
		Items:       page.Items,
		Cursor:      page.Cursor,
		ManualOrder: manual,
		Timestamp:   time.Now().UTC(),
	}
	c.store.Write(c.scope, hash, entry)

	c.notify(Result{
		FilterSet:   fs,
		Hash:        hash,
		Items:       page.Items,
		Cursor:      page.Cursor,
		ManualOrder: manual,
		Status:      StatusSettled,
	})
}

// carryManualOrder preserves the previously recorded manual order when
// the fresh item set is a superset of the ordered ids; otherwise it is
// re-derived from the response's own sort-key hints.
func (c *Controller) carryManualOrder(hash string, items []api.Item) []api.ItemID {
	if prior, ok := c.store.Read(c.scope, hash); ok && len(prior.ManualOrder) > 0 {
		idx := order.FromIDs(prior.ManualOrder)
		if idx.CoversAll(api.ItemIDs(items)) {
			return prior.ManualOrder
		}
	}
	return order.Derive(items).IDs()
}
