package api

import "time"

// ItemID identifies a list item across fetches and mutations.
type ItemID string

// Item is one record in a list view: a sourcing product, an account
// video, a scheme, and so on. Items are value snapshots; a mutation
// always produces a new Item, never an in-place write shared across
// consumers.
type Item struct {
	ID        ItemID            `json:"id"`
	Title     string            `json:"title"`
	Category  string            `json:"category,omitempty"`
	Price     int64             `json:"price,omitempty"`
	Featured  bool              `json:"featured,omitempty"`
	SortKey   string            `json:"sort_key,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	UpdatedAt time.Time         `json:"updated_at,omitempty"`
}

// Reserved field names used by mutation endpoints. Internal metadata
// lives under the "_meta." prefix so it can never collide with open
// display fields.
const (
	MetaPrefix    = "_meta."
	FieldSortKey  = MetaPrefix + "sort_key"
	FieldFeatured = MetaPrefix + "featured"
)

// Clone returns a deep copy so the caller can mutate freely.
func (it Item) Clone() Item {
	out := it
	if it.Fields != nil {
		out.Fields = make(map[string]string, len(it.Fields))
		for k, v := range it.Fields {
			out.Fields[k] = v
		}
	}
	return out
}

// WithSortKey returns a copy carrying the given manual-order key.
func (it Item) WithSortKey(key string) Item {
	out := it.Clone()
	out.SortKey = key
	return out
}

// WithFeatured returns a copy with the featured flag set.
func (it Item) WithFeatured(v bool) Item {
	out := it.Clone()
	out.Featured = v
	return out
}

// PageCursor tracks pagination progress for one filter set.
// HasMore == false means no further fetch will be attempted until the
// filters change or a manual refresh is requested.
type PageCursor struct {
	NextOffset int  `json:"next_offset"`
	HasMore    bool `json:"has_more"`
}

// Page is one fetched slice of a list.
type Page struct {
	Items  []Item     `json:"items"`
	Cursor PageCursor `json:"cursor"`
}

// CloneItems copies an item slice so callers never alias cached state.
func CloneItems(items []Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

// ItemIDs extracts the ids of items in their current order.
func ItemIDs(items []Item) []ItemID {
	out := make([]ItemID, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}
