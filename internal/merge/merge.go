// Package merge accumulates successive paginated fetches into one
// growing in-memory list. The backend guarantees disjoint pages for a
// stable filter set and sort mode, so appends never de-duplicate.
package merge

import (
	"sync"

	"github.com/avencourt/listflow/pkg/api"
)

// Merger tracks merged items and the continuation cursor for a single
// filter set. Appends are strictly sequential: a loadMore while one is
// already pending is a no-op. Replace and Restore start a new
// generation; a page claimed under an older generation is dropped on
// End, so a refresh that settles mid-loadMore can never be followed by
// a stale append.
type Merger struct {
	mu       sync.Mutex
	items    []api.Item
	cursor   api.PageCursor
	inFlight bool
	gen      uint64
}

// New returns an empty merger positioned at offset 0.
func New() *Merger {
	return &Merger{cursor: api.PageCursor{NextOffset: 0, HasMore: true}}
}

// Snapshot returns a copy of the merged items and the current cursor.
func (m *Merger) Snapshot() ([]api.Item, api.PageCursor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return api.CloneItems(m.items), m.cursor
}

// Replace discards previously merged items and starts over from the
// given page. Used when filters change or a full reload occurs. Any
// pagination fetch claimed before the call belongs to the discarded
// list and will be dropped on End.
func (m *Merger) Replace(p api.Page) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = api.CloneItems(p.Items)
	m.cursor = p.Cursor
	m.inFlight = false
	m.gen++
}

// Restore seeds the merger from a cached snapshot. Same generation
// semantics as Replace.
func (m *Merger) Restore(items []api.Item, cursor api.PageCursor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = api.CloneItems(items)
	m.cursor = cursor
	m.inFlight = false
	m.gen++
}

// Begin claims the next pagination fetch and returns the generation the
// claim belongs to. ok is false when a fetch is already pending or the
// cursor is exhausted; concurrent appends would otherwise corrupt
// ordering or duplicate pages.
func (m *Merger) Begin() (offset int, gen uint64, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inFlight || !m.cursor.HasMore {
		return 0, 0, false
	}
	m.inFlight = true
	return m.cursor.NextOffset, m.gen, true
}

// End applies the result of a claimed fetch and reports whether it was
// applied. A claim from an older generation is dropped: the list it was
// fetched for no longer exists. A nil page means the fetch failed; the
// cursor is left untouched so the caller may retry.
func (m *Merger) End(gen uint64, p *api.Page) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		return false
	}
	m.inFlight = false
	if p == nil {
		return true
	}
	m.items = append(m.items, api.CloneItems(p.Items)...)
	m.cursor = p.Cursor
	return true
}

// Loading reports whether a pagination fetch is pending.
func (m *Merger) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inFlight
}

// HasMore reports whether further pages remain.
func (m *Merger) HasMore() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cursor.HasMore
}
