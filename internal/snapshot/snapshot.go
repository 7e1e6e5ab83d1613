// Package snapshot caches list results per filter-set hash so a view
// can show its last known state instantly while a background refresh
// runs. Entries are immutable once written: updates replace, never
// mutate. Storage faults of any kind degrade to a cache miss and are
// never surfaced to callers.
package snapshot

import (
	"time"

	"github.com/avencourt/listflow/pkg/api"
)

// Entry is one cached list result. Owned exclusively by the store;
// callers receive copies.
type Entry struct {
	Hash        string         `json:"hash"`
	Items       []api.Item     `json:"items"`
	Cursor      api.PageCursor `json:"cursor"`
	ManualOrder []api.ItemID   `json:"manual_order,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}

// Store is the snapshot cache surface. Scope names the logical list
// (archive category, schemes, radar, ...) so each list gets its own
// eviction budget.
type Store interface {
	// Read returns the entry for (scope, hash), or ok=false when
	// absent or unreadable. It never returns an error.
	Read(scope, hash string) (Entry, bool)
	// Write replaces any existing entry for (scope, hash) and evicts
	// the least-recently-written entries beyond the scope cap.
	Write(scope, hash string, e Entry)
}

// DefaultMaxPerScope bounds entries kept per logical list.
const DefaultMaxPerScope = 20

// Fresh reports whether the entry is younger than ttl.
func Fresh(e Entry, ttl time.Duration) bool {
	return FreshAt(e, time.Now(), ttl)
}

// FreshAt is Fresh with an explicit clock.
func FreshAt(e Entry, now time.Time, ttl time.Duration) bool {
	return now.Sub(e.Timestamp) < ttl
}

func cloneEntry(e Entry) Entry {
	out := e
	out.Items = api.CloneItems(e.Items)
	if e.ManualOrder != nil {
		out.ManualOrder = append([]api.ItemID(nil), e.ManualOrder...)
	}
	return out
}
