package revalidate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/avencourt/listflow/internal/snapshot"
	"github.com/avencourt/listflow/pkg/api"
)

type fakeFetcher struct {
	mu      sync.Mutex
	calls   int
	pages   map[string]api.Page // by category filter value
	errs    map[string]error
	release map[string]chan struct{} // block until closed, when set
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		pages:   map[string]api.Page{},
		errs:    map[string]error{},
		release: map[string]chan struct{}{},
	}
}

func (f *fakeFetcher) FetchPage(ctx context.Context, fs api.FilterSet, limit, offset int) (api.Page, error) {
	cat := fs[api.FilterCategory]
	f.mu.Lock()
	f.calls++
	gate := f.release[cat]
	page, err := f.pages[cat], f.errs[cat]
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return api.Page{}, ctx.Err()
		}
	}
	if err != nil {
		return api.Page{}, err
	}
	return page, nil
}

func pageOf(n int, hasMore bool) api.Page {
	items := make([]api.Item, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, api.Item{ID: api.ItemID(fmt.Sprintf("item-%02d", i))})
	}
	return api.Page{Items: items, Cursor: api.PageCursor{NextOffset: n, HasMore: hasMore}}
}

type recorder struct {
	mu      sync.Mutex
	results []Result
	signal  chan struct{}
}

func newRecorder() *recorder {
	return &recorder{signal: make(chan struct{}, 64)}
}

func (r *recorder) notify(res Result) {
	r.mu.Lock()
	r.results = append(r.results, res)
	r.mu.Unlock()
	r.signal <- struct{}{}
}

func (r *recorder) waitFor(t *testing.T, pred func(Result) bool) Result {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		r.mu.Lock()
		for _, res := range r.results {
			if pred(res) {
				r.mu.Unlock()
				return res
			}
		}
		r.mu.Unlock()
		select {
		case <-r.signal:
		case <-deadline:
			t.Fatal("timed out waiting for result")
		}
	}
}

func (r *recorder) last() Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.results) == 0 {
		return Result{}
	}
	return r.results[len(r.results)-1]
}

func TestColdStartLoadsThenSettles(t *testing.T) {
	store := snapshot.NewMem(0)
	ff := newFakeFetcher()
	ff.pages["cat-1"] = pageOf(15, false)
	rec := newRecorder()
	c := New("archive", store, ff, Options{}, rec.notify)

	fs := api.FilterSet{api.FilterCategory: "cat-1"}
	c.Activate(context.Background(), fs)

	require.Equal(t, StatusLoading, rec.last().Status)
	settled := rec.waitFor(t, func(r Result) bool { return r.Status == StatusSettled })
	require.Len(t, settled.Items, 15)

	// Cache is written for the next mount.
	entry, ok := store.Read("archive", fs.Hash())
	require.True(t, ok)
	require.Len(t, entry.Items, 15)
}

func TestCachedShownThenOverwritten(t *testing.T) {
	store := snapshot.NewMem(0)
	fs := api.FilterSet{api.FilterCategory: "cat-1"}
	// Stale cache from an earlier session: 12 items, written past TTL.
	store.Write("archive", fs.Hash(), snapshot.Entry{
		Items:     pageOf(12, false).Items,
		Cursor:    api.PageCursor{NextOffset: 12},
		Timestamp: time.Now().Add(-10 * time.Minute),
	})

	ff := newFakeFetcher()
	ff.pages["cat-1"] = pageOf(15, false)
	rec := newRecorder()
	c := New("archive", store, ff, Options{TTL: 3 * time.Minute}, rec.notify)
	c.Activate(context.Background(), fs)

	first := rec.last()
	require.Equal(t, StatusRefreshing, first.Status)
	require.True(t, first.FromCache)
	require.Len(t, first.Items, 12)

	settled := rec.waitFor(t, func(r Result) bool { return r.Status == StatusSettled })
	require.Len(t, settled.Items, 15)

	entry, _ := store.Read("archive", fs.Hash())
	require.Len(t, entry.Items, 15)
}

func TestFreshCacheReportsWarmup(t *testing.T) {
	store := snapshot.NewMem(0)
	fs := api.FilterSet{api.FilterCategory: "cat-1"}
	store.Write("archive", fs.Hash(), snapshot.Entry{
		Items:     pageOf(5, false).Items,
		Timestamp: time.Now(),
	})
	ff := newFakeFetcher()
	ff.pages["cat-1"] = pageOf(5, false)
	rec := newRecorder()
	c := New("archive", store, ff, Options{}, rec.notify)
	c.Activate(context.Background(), fs)

	require.Equal(t, StatusWarmup, rec.last().Status)
	rec.waitFor(t, func(r Result) bool { return r.Status == StatusSettled })
}

func TestFailureRetainsCache(t *testing.T) {
	store := snapshot.NewMem(0)
	fs := api.FilterSet{api.FilterCategory: "cat-1"}
	store.Write("archive", fs.Hash(), snapshot.Entry{
		Items:     pageOf(7, false).Items,
		Timestamp: time.Now().Add(-10 * time.Minute),
	})
	ff := newFakeFetcher()
	ff.errs["cat-1"] = errors.New("connection refused")
	rec := newRecorder()
	c := New("archive", store, ff, Options{}, rec.notify)
	c.Activate(context.Background(), fs)

	errRes := rec.waitFor(t, func(r Result) bool { return r.Status == StatusError })
	require.Error(t, errRes.Err)
	require.Empty(t, errRes.Items, "error emissions carry no items; the view keeps what it shows")

	// Cache entry survives the failed refresh.
	entry, ok := store.Read("archive", fs.Hash())
	require.True(t, ok)
	require.Len(t, entry.Items, 7)
}

func TestLastRequestWinsByIdentity(t *testing.T) {
	store := snapshot.NewMem(0)
	ff := newFakeFetcher()
	ff.pages["A"] = pageOf(3, false)
	ff.pages["B"] = pageOf(9, false)
	gateA := make(chan struct{})
	ff.release["A"] = gateA

	rec := newRecorder()
	c := New("archive", store, ff, Options{}, rec.notify)

	fsA := api.FilterSet{api.FilterCategory: "A"}
	fsB := api.FilterSet{api.FilterCategory: "B"}

	c.Activate(context.Background(), fsA) // A blocks
	c.Activate(context.Background(), fsB) // B resolves first

	settledB := rec.waitFor(t, func(r Result) bool { return r.Status == StatusSettled })
	require.Equal(t, fsB.Hash(), settledB.Hash)
	require.Len(t, settledB.Items, 9)

	close(gateA) // A's slow response arrives after B
	time.Sleep(50 * time.Millisecond)

	// A's result is discarded: no settled emission for A, no cache write.
	rec.mu.Lock()
	for _, r := range rec.results {
		if r.Status == StatusSettled {
			require.Equal(t, fsB.Hash(), r.Hash)
		}
	}
	rec.mu.Unlock()
	_, ok := store.Read("archive", fsA.Hash())
	require.False(t, ok)
}

func TestAtMostOneInflightPerFilterSet(t *testing.T) {
	store := snapshot.NewMem(0)
	ff := newFakeFetcher()
	ff.pages["A"] = pageOf(3, false)
	gate := make(chan struct{})
	ff.release["A"] = gate

	rec := newRecorder()
	c := New("archive", store, ff, Options{}, rec.notify)
	fs := api.FilterSet{api.FilterCategory: "A"}

	c.Activate(context.Background(), fs)
	c.Activate(context.Background(), fs)
	c.Activate(context.Background(), fs)
	close(gate)

	rec.waitFor(t, func(r Result) bool { return r.Status == StatusSettled })
	ff.mu.Lock()
	defer ff.mu.Unlock()
	require.Equal(t, 1, ff.calls)
}

func TestManualOrderCarriedOnSuperset(t *testing.T) {
	store := snapshot.NewMem(0)
	fs := api.FilterSet{api.FilterCategory: "A"}
	manual := []api.ItemID{"item-02", "item-00", "item-01"}
	store.Write("archive", fs.Hash(), snapshot.Entry{
		Items:       pageOf(3, false).Items,
		ManualOrder: manual,
		Timestamp:   time.Now().Add(-10 * time.Minute),
	})

	ff := newFakeFetcher()
	ff.pages["A"] = pageOf(5, false) // superset of the ordered ids
	rec := newRecorder()
	c := New("archive", store, ff, Options{}, rec.notify)
	c.Activate(context.Background(), fs)

	settled := rec.waitFor(t, func(r Result) bool { return r.Status == StatusSettled })
	require.Equal(t, manual, settled.ManualOrder)
}

func TestManualOrderDroppedWhenItemsGone(t *testing.T) {
	store := snapshot.NewMem(0)
	fs := api.FilterSet{api.FilterCategory: "A"}
	store.Write("archive", fs.Hash(), snapshot.Entry{
		Items:       pageOf(5, false).Items,
		ManualOrder: []api.ItemID{"item-04", "item-00", "item-01", "item-02", "item-03"},
		Timestamp:   time.Now().Add(-10 * time.Minute),
	})

	ff := newFakeFetcher()
	// item-04 no longer exists server-side; the response carries its
	// own sort-key hints instead.
	p := pageOf(3, false)
	p.Items[1].SortKey = api.SortKeyAt(0)
	p.Items[0].SortKey = api.SortKeyAt(1)
	ff.pages["A"] = p

	rec := newRecorder()
	c := New("archive", store, ff, Options{}, rec.notify)
	c.Activate(context.Background(), fs)

	settled := rec.waitFor(t, func(r Result) bool { return r.Status == StatusSettled })
	require.Equal(t, []api.ItemID{"item-01", "item-00", "item-02"}, settled.ManualOrder)
}
