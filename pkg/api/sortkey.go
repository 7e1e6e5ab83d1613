package api

import "fmt"

// SortKeyStride is the spacing between freshly assigned manual-order
// keys. The gap leaves room for future insertions between neighbors
// without renumbering the whole list.
const SortKeyStride = 10

// SortKeyAt returns the zero-padded manual-order key for position pos
// (0-based). Padding keeps lexicographic and numeric order aligned.
func SortKeyAt(pos int) string {
	return fmt.Sprintf("%08d", (pos+1)*SortKeyStride)
}

// SortKeys returns stride-spaced keys for n positions.
func SortKeys(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = SortKeyAt(i)
	}
	return out
}
