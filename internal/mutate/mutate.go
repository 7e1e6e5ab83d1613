// Package mutate applies local mutations (reorder, toggle, edit,
// delete) to in-memory list state immediately, persists them
// asynchronously, and rolls back per the policy of each mutation kind.
//
// The rollback policy is deliberately asymmetric: a failed delete is
// rolled back (a silently-failed delete the user believes succeeded is
// worse than a reappearing item), while a failed toggle keeps its
// optimistic value and only surfaces an error.
package mutate

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/avencourt/listflow/internal/order"
	"github.com/avencourt/listflow/pkg/api"
)

// Persister is the mutation side of the backend collaborator.
type Persister interface {
	// SaveField persists a single field (sort key, featured flag, ...)
	// of one item.
	SaveField(ctx context.Context, id api.ItemID, field, value string) error
	// SaveItem persists a full record and returns the canonical
	// server-side version.
	SaveItem(ctx context.Context, it api.Item) (api.Item, error)
	// DeleteItem removes one item.
	DeleteItem(ctx context.Context, id api.ItemID) error
}

// Mutator owns the in-memory items and manual order for one view.
// Local state is the source of truth between revalidations.
type Mutator struct {
	mu    sync.Mutex
	items []api.Item
	index *order.Index

	persist Persister
	timeout time.Duration
	wg      sync.WaitGroup

	onError  func(action string, err error)
	onChange func()
}

// New builds a mutator. onError surfaces non-blocking failures
// (toasts); onChange fires after every state change so the owner can
// repaint and rewrite its snapshot. Both may be nil.
func New(persist Persister, timeout time.Duration, onError func(string, error), onChange func()) *Mutator {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Mutator{persist: persist, timeout: timeout, onError: onError, onChange: onChange}
}

func (m *Mutator) fireError(action string, err error) {
	if m.onError != nil {
		m.onError(action, err)
	}
}

func (m *Mutator) fireChange() {
	if m.onChange != nil {
		m.onChange()
	}
}

// Load replaces the state from a revalidation result.
func (m *Mutator) Load(items []api.Item, manual []api.ItemID) {
	m.mu.Lock()
	m.items = api.CloneItems(items)
	if len(manual) > 0 {
		m.index = order.FromIDs(manual)
	} else {
		m.index = nil
	}
	m.mu.Unlock()
}

// Append adds a fetched pagination page. New ids order after the last
// explicit manual-order entry, in fetch sequence.
func (m *Mutator) Append(items []api.Item) {
	m.mu.Lock()
	m.items = append(m.items, api.CloneItems(items)...)
	m.index.Append(api.ItemIDs(items))
	m.mu.Unlock()
}

// Items returns the items in effective display order.
func (m *Mutator) Items() []api.Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index.Apply(api.CloneItems(m.items))
}

// OrderIDs returns the current manual-order permutation, nil when
// manual ordering is not active.
func (m *Mutator) OrderIDs() []api.ItemID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index.IDs()
}

// Flush waits for all pending persistence calls. Used on shutdown and
// in tests; the UI never blocks on it.
func (m *Mutator) Flush() { m.wg.Wait() }

func (m *Mutator) findLocked(id api.ItemID) int {
	for i, it := range m.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// Reorder moves dragged to the position of target in the current
// ordered view and assigns every displaced item a fresh stride-spaced
// sort key. Key writes persist individually and concurrently; a
// failure for one item reports only that item. The local order stays
// authoritative until the next full revalidation.
func (m *Mutator) Reorder(ctx context.Context, dragged, target api.ItemID) bool {
	m.mu.Lock()
	if m.index == nil {
		// First manual reorder on this list: seed the index from the
		// current effective order.
		m.index = order.FromIDs(api.ItemIDs(m.items))
	}
	if !m.index.MoveBefore(dragged, target) {
		m.mu.Unlock()
		return false
	}
	keys := m.index.ReassignKeys()
	changed := make(map[api.ItemID]string, len(keys))
	for i, it := range m.items {
		key, ok := keys[it.ID]
		if !ok || it.SortKey == key {
			continue
		}
		m.items[i] = it.WithSortKey(key)
		changed[it.ID] = key
	}
	m.mu.Unlock()
	m.fireChange()

	for id, key := range changed {
		id, key := id, key
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			cctx, cancel := context.WithTimeout(ctx, m.timeout)
			defer cancel()
			if err := m.persist.SaveField(cctx, id, api.FieldSortKey, key); err != nil {
				log.Printf("mutate: sort key for %s: %v", id, err)
				m.fireError("save", err)
			}
		}()
	}
	return true
}

// Toggle flips the featured flag in memory and fires one persistence
// call. On failure the optimistic value is kept; only an error is
// surfaced.
func (m *Mutator) Toggle(ctx context.Context, id api.ItemID) bool {
	m.mu.Lock()
	i := m.findLocked(id)
	if i < 0 {
		m.mu.Unlock()
		return false
	}
	next := !m.items[i].Featured
	m.items[i] = m.items[i].WithFeatured(next)
	m.mu.Unlock()
	m.fireChange()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		cctx, cancel := context.WithTimeout(ctx, m.timeout)
		defer cancel()
		if err := m.persist.SaveField(cctx, id, api.FieldFeatured, strconv.FormatBool(next)); err != nil {
			log.Printf("mutate: toggle %s: %v", id, err)
			m.fireError("save", err)
		}
	}()
	return true
}

// Edit validates, applies the record optimistically, and persists it.
// On success the canonical server record replaces the optimistic
// value; on failure the previous value is restored so no partial state
// stays committed. A missing ID means create.
func (m *Mutator) Edit(ctx context.Context, it api.Item) error {
	if strings.TrimSpace(it.Title) == "" {
		return &api.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if it.Price < 0 {
		return &api.ValidationError{Field: "price", Reason: "must not be negative"}
	}

	created := false
	var prev api.Item
	m.mu.Lock()
	if it.ID == "" {
		it.ID = api.NewID()
		created = true
	}
	i := m.findLocked(it.ID)
	if i >= 0 {
		prev = m.items[i]
		m.items[i] = it.Clone()
	} else {
		created = true
		m.items = append(m.items, it.Clone())
		m.index.Append([]api.ItemID{it.ID})
	}
	m.mu.Unlock()
	m.fireChange()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		cctx, cancel := context.WithTimeout(ctx, m.timeout)
		defer cancel()
		canonical, err := m.persist.SaveItem(cctx, it)
		m.mu.Lock()
		j := m.findLocked(it.ID)
		if err != nil {
			if j >= 0 {
				if created {
					m.items = append(m.items[:j], m.items[j+1:]...)
					m.index.Remove(it.ID)
				} else {
					m.items[j] = prev
				}
			}
			m.mu.Unlock()
			m.fireChange()
			log.Printf("mutate: save %s: %v", it.ID, err)
			m.fireError("save", err)
			return
		}
		if j >= 0 {
			if canonical.ID != it.ID {
				// Backend assigned the real id for a created record.
				if pos, ok := m.index.Remove(it.ID); ok {
					m.index.Restore(canonical.ID, pos)
				}
			}
			m.items[j] = canonical.Clone()
		}
		m.mu.Unlock()
		m.fireChange()
	}()
	return nil
}

// Delete removes the item optimistically. On persistence failure the
// item and its prior order position are restored.
func (m *Mutator) Delete(ctx context.Context, id api.ItemID) bool {
	m.mu.Lock()
	i := m.findLocked(id)
	if i < 0 {
		m.mu.Unlock()
		return false
	}
	removed := m.items[i]
	m.items = append(m.items[:i], m.items[i+1:]...)
	orderPos, inOrder := m.index.Remove(id)
	m.mu.Unlock()
	m.fireChange()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		cctx, cancel := context.WithTimeout(ctx, m.timeout)
		defer cancel()
		if err := m.persist.DeleteItem(cctx, id); err != nil {
			m.mu.Lock()
			pos := i
			if pos > len(m.items) {
				pos = len(m.items)
			}
			m.items = append(m.items, api.Item{})
			copy(m.items[pos+1:], m.items[pos:])
			m.items[pos] = removed
			if inOrder {
				m.index.Restore(id, orderPos)
			}
			m.mu.Unlock()
			m.fireChange()
			log.Printf("mutate: delete %s: %v", id, err)
			m.fireError("delete", err)
		}
	}()
	return true
}

// ClearAll removes every matching item optimistically and issues one
// delete per item concurrently. If any subset fails, the full original
// set is restored and a partial-failure count is reported; failed
// deletions are never silently dropped.
func (m *Mutator) ClearAll(ctx context.Context, match func(api.Item) bool) int {
	m.mu.Lock()
	origItems := api.CloneItems(m.items)
	origOrder := m.index.IDs()
	keep := m.items[:0:0]
	var removed []api.ItemID
	for _, it := range m.items {
		if match(it) {
			removed = append(removed, it.ID)
		} else {
			keep = append(keep, it)
		}
	}
	if len(removed) == 0 {
		m.mu.Unlock()
		return 0
	}
	m.items = keep
	for _, id := range removed {
		m.index.Remove(id)
	}
	m.mu.Unlock()
	m.fireChange()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		var wg sync.WaitGroup
		var failMu sync.Mutex
		failed := 0
		for _, id := range removed {
			id := id
			wg.Add(1)
			go func() {
				defer wg.Done()
				cctx, cancel := context.WithTimeout(ctx, m.timeout)
				defer cancel()
				if err := m.persist.DeleteItem(cctx, id); err != nil {
					log.Printf("mutate: clear %s: %v", id, err)
					failMu.Lock()
					failed++
					failMu.Unlock()
				}
			}()
		}
		wg.Wait()
		if failed == 0 {
			return
		}
		m.mu.Lock()
		m.items = origItems
		if len(origOrder) > 0 {
			m.index = order.FromIDs(origOrder)
		} else {
			m.index = nil
		}
		m.mu.Unlock()
		m.fireChange()
		m.fireError("delete", &api.NoticeError{Msg: fmt.Sprintf("%d of %d deletions failed", failed, len(removed))})
	}()
	return len(removed)
}
