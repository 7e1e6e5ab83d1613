package snapshot

import "sync"

type memScope struct {
	entries map[string]Entry
	// write recency, most recent first
	order []string
}

// MemStore is the in-memory backend. Used per-test and as the fallback
// when the durable backend cannot be opened.
type MemStore struct {
	mu     sync.RWMutex
	max    int
	scopes map[string]*memScope
}

// NewMem returns a memory-backed store capped at max entries per
// scope (DefaultMaxPerScope when max <= 0).
func NewMem(max int) *MemStore {
	if max <= 0 {
		max = DefaultMaxPerScope
	}
	return &MemStore{max: max, scopes: make(map[string]*memScope)}
}

func (s *MemStore) Read(scope, hash string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.scopes[scope]
	if !ok {
		return Entry{}, false
	}
	e, ok := sc.entries[hash]
	if !ok {
		return Entry{}, false
	}
	return cloneEntry(e), true
}

func (s *MemStore) Write(scope, hash string, e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.scopes[scope]
	if !ok {
		sc = &memScope{entries: make(map[string]Entry)}
		s.scopes[scope] = sc
	}
	if _, exists := sc.entries[hash]; exists {
		sc.order = removeString(sc.order, hash)
	}
	e.Hash = hash
	sc.entries[hash] = cloneEntry(e)
	sc.order = append([]string{hash}, sc.order...)
	for len(sc.order) > s.max {
		victim := sc.order[len(sc.order)-1]
		sc.order = sc.order[:len(sc.order)-1]
		delete(sc.entries, victim)
	}
}

func removeString(in []string, v string) []string {
	out := in[:0]
	for _, s := range in {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}
