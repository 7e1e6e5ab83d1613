package api

import (
	"encoding/hex"
	"sort"
	"strings"

	"github.com/zeebo/blake3"
)

// FilterSet is the combination of active filters that selects a cached
// snapshot and a paginated sequence. Two FilterSets are equal iff their
// canonical serialization is equal; the hash of that serialization is
// the cache key.
type FilterSet map[string]string

// Well-known filter fields. Pages may add their own; anything with an
// empty value is treated as unset.
const (
	FilterKeyword  = "keyword"
	FilterCategory = "category"
	FilterPriceMin = "price_min"
	FilterPriceMax = "price_max"
	FilterSort     = "sort"
)

// Canonical serializes the set with stable key order. Empty values are
// skipped so {"keyword": ""} and {} canonicalize identically.
func (f FilterSet) Canonical() string {
	keys := make([]string, 0, len(f))
	for k, v := range f {
		if strings.TrimSpace(v) == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(f[k])
	}
	return b.String()
}

// Hash returns a deterministic BLAKE3 hash of the canonical form.
// Null delimiters keep key/value boundaries unambiguous.
func (f FilterSet) Hash() string {
	keys := make([]string, 0, len(f))
	for k, v := range f {
		if strings.TrimSpace(v) == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := blake3.New()
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write([]byte(f[k]))
		h.Write([]byte{0})
	}
	sum := h.Sum(nil)
	return hex.EncodeToString(sum)
}

// Equal reports canonical equality.
func (f FilterSet) Equal(other FilterSet) bool {
	return f.Canonical() == other.Canonical()
}

// Clone copies the set.
func (f FilterSet) Clone() FilterSet {
	out := make(FilterSet, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}
