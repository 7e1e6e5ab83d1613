// Package engine binds the snapshot store, page merger, revalidation
// controller, optimistic mutator, and chunked renderer into one
// controller per list view. The UI talks to the engine only through
// View and the mutation callbacks; it never touches cached state.
package engine

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/avencourt/listflow/internal/merge"
	"github.com/avencourt/listflow/internal/mutate"
	"github.com/avencourt/listflow/internal/render"
	"github.com/avencourt/listflow/internal/revalidate"
	"github.com/avencourt/listflow/internal/snapshot"
	"github.com/avencourt/listflow/pkg/api"
)

// Backend is the full collaborator surface: list fetches plus
// mutations. internal/client implements it over HTTP.
type Backend interface {
	revalidate.Fetcher
	mutate.Persister
}

// Options tune one controller.
type Options struct {
	TTL           time.Duration // snapshot freshness window
	Timeout       time.Duration // per-request deadline
	PageSize      int
	ChunkSize     int
	ChunkInterval time.Duration
}

// View is what the UI renders: the visible prefix of the ordered item
// sequence plus the loading flags.
type View struct {
	Items       []api.Item
	Total       int
	Status      revalidate.Status
	Notice      string
	HasMore     bool
	LoadingMore bool
}

// Controller owns the list state for one view. All exported methods
// are safe for concurrent use.
type Controller struct {
	scope   string
	store   snapshot.Store
	backend Backend
	opts    Options

	merger *merge.Merger
	mut    *mutate.Mutator
	chunk  *render.Chunker
	reval  *revalidate.Controller

	mu     sync.Mutex
	fs     api.FilterSet
	hash   string
	status revalidate.Status
	notice string
	subs   []func()
}

// New builds a controller for one logical list (scope).
func New(scope string, store snapshot.Store, backend Backend, opts Options) *Controller {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 50
	}
	c := &Controller{
		scope:   scope,
		store:   store,
		backend: backend,
		opts:    opts,
		merger:  merge.New(),
		status:  revalidate.StatusIdle,
	}
	c.mut = mutate.New(backend, opts.Timeout, c.onMutationError, c.onMutationChange)
	c.chunk = render.New(opts.ChunkSize, opts.ChunkInterval, c.broadcast)
	c.reval = revalidate.New(scope, store, backend, revalidate.Options{
		TTL:      opts.TTL,
		Timeout:  opts.Timeout,
		PageSize: opts.PageSize,
	}, c.apply)
	return c
}

// Subscribe registers a repaint hook fired after every state change.
func (c *Controller) Subscribe(fn func()) {
	c.mu.Lock()
	c.subs = append(c.subs, fn)
	c.mu.Unlock()
}

func (c *Controller) broadcast() {
	c.mu.Lock()
	subs := append([]func(){}, c.subs...)
	c.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

// Use mounts the view on a filter set: cached state shows immediately,
// a background refresh follows. Call again on every filter change.
func (c *Controller) Use(ctx context.Context, fs api.FilterSet) {
	c.mu.Lock()
	c.fs = fs.Clone()
	c.hash = fs.Hash()
	c.mu.Unlock()
	c.reval.Activate(ctx, fs)
}

// Refresh forces a revalidation of the current filter set, restarting
// pagination from offset zero.
func (c *Controller) Refresh(ctx context.Context) {
	c.mu.Lock()
	fs := c.fs.Clone()
	c.mu.Unlock()
	c.reval.Refresh(ctx, fs)
}

// apply consumes revalidation emissions.
func (c *Controller) apply(r revalidate.Result) {
	c.mu.Lock()
	if r.Hash != c.hash {
		c.mu.Unlock()
		return
	}
	c.status = r.Status
	switch r.Status {
	case revalidate.StatusError:
		// Previously displayed data stays; only the notice changes.
		c.notice = api.UserMessage("load", r.Err)
		c.mu.Unlock()
	case revalidate.StatusLoading:
		c.notice = ""
		c.merger.Restore(nil, api.PageCursor{NextOffset: 0, HasMore: true})
		c.mut.Load(nil, nil)
		c.chunk.Reset(0)
		c.mu.Unlock()
	default:
		c.notice = ""
		c.merger.Restore(r.Items, r.Cursor)
		c.mut.Load(r.Items, r.ManualOrder)
		c.chunk.Reset(len(r.Items))
		c.mu.Unlock()
	}
	c.broadcast()
}

// LoadMore fetches the next page. A call while a prior fetch for the
// same filter set is pending, or when the cursor is exhausted, is a
// no-op.
func (c *Controller) LoadMore(ctx context.Context) bool {
	offset, gen, ok := c.merger.Begin()
	if !ok {
		return false
	}
	c.mu.Lock()
	fs := c.fs.Clone()
	hash := c.hash
	c.mu.Unlock()
	c.broadcast()

	go func() {
		fctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
		page, err := c.backend.FetchPage(fctx, fs, c.opts.PageSize, offset)
		cancel()

		c.mu.Lock()
		if err != nil {
			if c.merger.End(gen, nil) && c.hash == hash {
				c.notice = api.UserMessage("load", err)
				c.mu.Unlock()
				log.Printf("engine: %s load more at %d: %v", c.scope, offset, err)
				c.broadcast()
				return
			}
			c.mu.Unlock()
			return
		}
		// A filter change or a refresh that settled mid-fetch replaced
		// the merged list; the claim's generation is then stale and the
		// page is dropped.
		if !c.merger.End(gen, &page) || c.hash != hash {
			c.mu.Unlock()
			return
		}
		c.mut.Append(page.Items)
		_, cursor := c.merger.Snapshot()
		items := c.mut.Items()
		c.chunk.Reset(len(items))
		c.mu.Unlock()
		c.writeSnapshot(hash, items, cursor)
		c.broadcast()
	}()
	return true
}

// Reorder moves dragged to targetID's position; see mutate.Reorder.
func (c *Controller) Reorder(ctx context.Context, dragged, target api.ItemID) bool {
	return c.mut.Reorder(ctx, dragged, target)
}

// Toggle flips the featured flag; see mutate.Toggle.
func (c *Controller) Toggle(ctx context.Context, id api.ItemID) bool {
	return c.mut.Toggle(ctx, id)
}

// Edit validates and persists a record; see mutate.Edit.
func (c *Controller) Edit(ctx context.Context, it api.Item) error {
	return c.mut.Edit(ctx, it)
}

// Delete removes an item with rollback on failure; see mutate.Delete.
func (c *Controller) Delete(ctx context.Context, id api.ItemID) bool {
	return c.mut.Delete(ctx, id)
}

// ClearAll batch-deletes every item matching the predicate.
func (c *Controller) ClearAll(ctx context.Context, match func(api.Item) bool) int {
	return c.mut.ClearAll(ctx, match)
}

// Flush waits for pending persistence calls. For shutdown and tests.
func (c *Controller) Flush() { c.mut.Flush() }

// View returns the current render state.
func (c *Controller) View() View {
	items := c.mut.Items()
	visible := c.chunk.Visible()
	if visible > len(items) {
		visible = len(items)
	}
	c.mu.Lock()
	v := View{
		Items:       items[:visible],
		Total:       len(items),
		Status:      c.status,
		Notice:      c.notice,
		HasMore:     c.merger.HasMore(),
		LoadingMore: c.merger.Loading(),
	}
	c.mu.Unlock()
	return v
}

// GrowChunk advances the visible window one step and reports whether
// more remain. For owners driving growth on their own frame cadence
// (ChunkInterval == 0); self-scheduling controllers grow on their own.
func (c *Controller) GrowChunk() bool {
	more := c.chunk.Grow()
	c.broadcast()
	return more
}

// ClearNotice drops the current non-blocking error message.
func (c *Controller) ClearNotice() {
	c.mu.Lock()
	c.notice = ""
	c.mu.Unlock()
	c.broadcast()
}

func (c *Controller) onMutationError(action string, err error) {
	c.mu.Lock()
	c.notice = api.UserMessage(action, err)
	c.mu.Unlock()
	c.broadcast()
}

// onMutationChange rewrites the snapshot after every optimistic apply,
// canonical replace, or rollback, so the next mount is warm and agrees
// with local truth.
func (c *Controller) onMutationChange() {
	c.mu.Lock()
	hash := c.hash
	c.mu.Unlock()
	if hash == "" {
		return
	}
	_, cursor := c.merger.Snapshot()
	c.writeSnapshot(hash, c.mut.Items(), cursor)
	c.broadcast()
}

// writeSnapshot stores items in display order together with the manual
// permutation; applying the order to already-ordered items is a no-op,
// so the entry stays self-consistent.
func (c *Controller) writeSnapshot(hash string, items []api.Item, cursor api.PageCursor) {
	c.store.Write(c.scope, hash, snapshot.Entry{
		Items:       items,
		Cursor:      cursor,
		ManualOrder: c.mut.OrderIDs(),
		Timestamp:   time.Now().UTC(),
	})
}
