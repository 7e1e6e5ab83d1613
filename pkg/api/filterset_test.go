package api

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanonicalStableKeyOrder(t *testing.T) {
	a := FilterSet{FilterCategory: "cat-1", FilterKeyword: "mug", FilterSort: "price"}
	b := FilterSet{FilterSort: "price", FilterKeyword: "mug", FilterCategory: "cat-1"}

	require.Equal(t, a.Canonical(), b.Canonical())
	require.Equal(t, a.Hash(), b.Hash())
	require.True(t, a.Equal(b))
}

func TestCanonicalSkipsEmptyValues(t *testing.T) {
	a := FilterSet{FilterKeyword: "", FilterCategory: "cat-1"}
	b := FilterSet{FilterCategory: "cat-1"}

	require.Equal(t, b.Canonical(), a.Canonical())
	require.Equal(t, b.Hash(), a.Hash())
}

func TestHashDistinguishesValues(t *testing.T) {
	a := FilterSet{FilterCategory: "a"}
	b := FilterSet{FilterCategory: "b"}
	require.NotEqual(t, a.Hash(), b.Hash())

	// Key/value boundaries must matter: {"ab": "c"} vs {"a": "bc"}.
	x := FilterSet{"ab": "c"}
	y := FilterSet{"a": "bc"}
	require.NotEqual(t, x.Hash(), y.Hash())
}

func TestSortKeySpacing(t *testing.T) {
	keys := SortKeys(3)
	require.Equal(t, []string{"00000010", "00000020", "00000030"}, keys)

	// Lexicographic order must agree with numeric order.
	require.Less(t, SortKeyAt(0), SortKeyAt(1))
	require.Less(t, SortKeyAt(9), SortKeyAt(100))
}

func TestItemCloneIsIndependent(t *testing.T) {
	it := Item{ID: "a", Title: "t", Fields: map[string]string{"k": "v"}}
	cp := it.Clone()
	cp.Fields["k"] = "changed"
	require.Equal(t, "v", it.Fields["k"])

	feat := it.WithFeatured(true)
	require.False(t, it.Featured)
	require.True(t, feat.Featured)
}
