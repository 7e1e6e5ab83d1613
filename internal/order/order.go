// Package order maintains a user-defined manual ordering of list
// items, independent of server-returned order. The index is always a
// permutation of the ids it was built from; items the index does not
// know about render after the last explicit entry, append-ordered by
// fetch sequence.
package order

import (
	"sort"

	"github.com/avencourt/listflow/pkg/api"
)

// Index is a sequence of item ids in the user's manual order.
type Index struct {
	ids []api.ItemID
}

// FromIDs builds an index from an explicit id sequence.
func FromIDs(ids []api.ItemID) *Index {
	return &Index{ids: append([]api.ItemID(nil), ids...)}
}

// Derive builds an index from the items' persisted sort keys: items
// carrying a key come first, sorted by key, the rest keep fetch order.
// Returns nil when no item carries a key; manual ordering is then not
// active for this list.
func Derive(items []api.Item) *Index {
	keyed := make([]api.Item, 0, len(items))
	rest := make([]api.ItemID, 0, len(items))
	for _, it := range items {
		if it.SortKey != "" {
			keyed = append(keyed, it)
		} else {
			rest = append(rest, it.ID)
		}
	}
	if len(keyed) == 0 {
		return nil
	}
	sort.SliceStable(keyed, func(i, j int) bool { return keyed[i].SortKey < keyed[j].SortKey })
	ids := make([]api.ItemID, 0, len(items))
	for _, it := range keyed {
		ids = append(ids, it.ID)
	}
	ids = append(ids, rest...)
	return &Index{ids: ids}
}

// IDs returns a copy of the current permutation.
func (x *Index) IDs() []api.ItemID {
	if x == nil {
		return nil
	}
	return append([]api.ItemID(nil), x.ids...)
}

// Len returns the number of ordered ids.
func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return len(x.ids)
}

func (x *Index) pos(id api.ItemID) int {
	for i, v := range x.ids {
		if v == id {
			return i
		}
	}
	return -1
}

// MoveBefore moves dragged to the position target currently occupies,
// so dragged ends up immediately before target. Reports whether both
// ids were present.
func (x *Index) MoveBefore(dragged, target api.ItemID) bool {
	if x == nil || dragged == target {
		return false
	}
	from := x.pos(dragged)
	if from < 0 || x.pos(target) < 0 {
		return false
	}
	x.ids = append(x.ids[:from], x.ids[from+1:]...)
	to := x.pos(target)
	x.ids = append(x.ids, "")
	copy(x.ids[to+1:], x.ids[to:])
	x.ids[to] = dragged
	return true
}

// Remove drops id and returns its former position for a later Restore.
func (x *Index) Remove(id api.ItemID) (pos int, ok bool) {
	if x == nil {
		return 0, false
	}
	pos = x.pos(id)
	if pos < 0 {
		return 0, false
	}
	x.ids = append(x.ids[:pos], x.ids[pos+1:]...)
	return pos, true
}

// Restore reinserts id at pos (clamped to the current bounds).
func (x *Index) Restore(id api.ItemID, pos int) {
	if x == nil {
		return
	}
	if pos < 0 {
		pos = 0
	}
	if pos > len(x.ids) {
		pos = len(x.ids)
	}
	x.ids = append(x.ids, "")
	copy(x.ids[pos+1:], x.ids[pos:])
	x.ids[pos] = id
}

// Append adds ids not yet present at the end, in the given order.
// Used when a pagination fetch lands under an active manual order.
func (x *Index) Append(ids []api.ItemID) {
	if x == nil {
		return
	}
	for _, id := range ids {
		if x.pos(id) < 0 {
			x.ids = append(x.ids, id)
		}
	}
}

// Apply reorders items per the index. Items the index does not list
// keep their relative fetch order after the ordered prefix; listed ids
// without a loaded item are skipped.
func (x *Index) Apply(items []api.Item) []api.Item {
	if x == nil || len(x.ids) == 0 {
		return items
	}
	byID := make(map[api.ItemID]api.Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	out := make([]api.Item, 0, len(items))
	seen := make(map[api.ItemID]struct{}, len(x.ids))
	for _, id := range x.ids {
		if it, ok := byID[id]; ok {
			out = append(out, it)
			seen[id] = struct{}{}
		}
	}
	for _, it := range items {
		if _, ok := seen[it.ID]; !ok {
			out = append(out, it)
		}
	}
	return out
}

// CoversAll reports whether every id in the index is present in ids,
// the superset condition for carrying a manual order across a refresh.
func (x *Index) CoversAll(ids []api.ItemID) bool {
	if x == nil {
		return false
	}
	set := make(map[api.ItemID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	for _, id := range x.ids {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}

// ReassignKeys returns fresh stride-spaced sort keys for the current
// permutation, id → key.
func (x *Index) ReassignKeys() map[api.ItemID]string {
	out := make(map[api.ItemID]string, len(x.ids))
	for i, id := range x.ids {
		out[id] = api.SortKeyAt(i)
	}
	return out
}
