package snapshot

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/avencourt/listflow/pkg/api"
)

func sampleEntry(n int) Entry {
	items := make([]api.Item, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, api.Item{ID: api.ItemID(fmt.Sprintf("item-%02d", i)), Title: "t"})
	}
	return Entry{
		Items:     items,
		Cursor:    api.PageCursor{NextOffset: n, HasMore: true},
		Timestamp: time.Now().UTC(),
	}
}

func TestFreshnessBoundary(t *testing.T) {
	ttl := 3 * time.Minute
	t0 := time.Now().UTC()
	e := Entry{Timestamp: t0}

	require.True(t, FreshAt(e, t0.Add(ttl-time.Second), ttl))
	require.False(t, FreshAt(e, t0.Add(ttl+time.Second), ttl))
	require.False(t, FreshAt(e, t0.Add(ttl), ttl))
}

func TestMemReadWriteRoundtrip(t *testing.T) {
	s := NewMem(0)
	_, ok := s.Read("archive", "h1")
	require.False(t, ok)

	e := sampleEntry(3)
	e.ManualOrder = []api.ItemID{"item-02", "item-00", "item-01"}
	s.Write("archive", "h1", e)

	got, ok := s.Read("archive", "h1")
	require.True(t, ok)
	require.Len(t, got.Items, 3)
	require.Equal(t, e.ManualOrder, got.ManualOrder)
	require.Equal(t, "h1", got.Hash)

	// Returned copies must not alias the stored entry.
	got.Items[0].Title = "mutated"
	again, _ := s.Read("archive", "h1")
	require.Equal(t, "t", again.Items[0].Title)
}

func TestMemEvictionPerScope(t *testing.T) {
	s := NewMem(2)
	s.Write("a", "h1", sampleEntry(1))
	s.Write("a", "h2", sampleEntry(1))
	s.Write("b", "h1", sampleEntry(1))
	s.Write("a", "h3", sampleEntry(1))

	_, ok := s.Read("a", "h1")
	require.False(t, ok, "oldest entry in scope a should be evicted")
	_, ok = s.Read("a", "h2")
	require.True(t, ok)
	_, ok = s.Read("a", "h3")
	require.True(t, ok)
	// Scope b has its own budget.
	_, ok = s.Read("b", "h1")
	require.True(t, ok)
}

func TestMemRewriteRefreshesRecency(t *testing.T) {
	s := NewMem(2)
	s.Write("a", "h1", sampleEntry(1))
	s.Write("a", "h2", sampleEntry(1))
	s.Write("a", "h1", sampleEntry(2)) // h1 is now the most recent write
	s.Write("a", "h3", sampleEntry(1))

	_, ok := s.Read("a", "h2")
	require.False(t, ok)
	got, ok := s.Read("a", "h1")
	require.True(t, ok)
	require.Len(t, got.Items, 2)
}

func openTestSQLite(t *testing.T, max int) *SQLiteStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "listflow.db")
	s, err := OpenSQLite(path, max)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteRoundtrip(t *testing.T) {
	s := openTestSQLite(t, 0)
	e := sampleEntry(2)
	s.Write("schemes", "h1", e)

	got, ok := s.Read("schemes", "h1")
	require.True(t, ok)
	require.Len(t, got.Items, 2)
	require.Equal(t, e.Cursor, got.Cursor)

	_, ok = s.Read("schemes", "missing")
	require.False(t, ok)
}

func TestSQLiteCorruptEntryReadsAsAbsent(t *testing.T) {
	s := openTestSQLite(t, 0)
	_, err := s.db.Exec(
		`INSERT INTO snapshots(scope, hash, payload, written_at) VALUES(?,?,?,?)`,
		"schemes", "bad", "{not json", time.Now().UTC())
	require.NoError(t, err)

	_, ok := s.Read("schemes", "bad")
	require.False(t, ok)

	// The corrupt row is dropped on read.
	var n int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM snapshots WHERE hash='bad'`).Scan(&n))
	require.Zero(t, n)
}

func TestSQLiteEviction(t *testing.T) {
	s := openTestSQLite(t, 2)
	for i := 0; i < 4; i++ {
		s.Write("archive", fmt.Sprintf("h%d", i), sampleEntry(1))
		time.Sleep(2 * time.Millisecond) // distinct written_at
	}
	var n int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM snapshots WHERE scope='archive'`).Scan(&n))
	require.Equal(t, 2, n)

	_, ok := s.Read("archive", "h3")
	require.True(t, ok)
	_, ok = s.Read("archive", "h0")
	require.False(t, ok)
}
