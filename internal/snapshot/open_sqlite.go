package snapshot

import (
	"database/sql"
	"encoding/json"
	"log"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists snapshots so the next process start is warm.
// Every failure path degrades to cache-miss behavior; a broken cache
// must never take down a page.
type SQLiteStore struct {
	db  *sql.DB
	max int
}

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	scope      TEXT NOT NULL,
	hash       TEXT NOT NULL,
	payload    TEXT NOT NULL,
	written_at TIMESTAMP NOT NULL,
	PRIMARY KEY (scope, hash)
);
CREATE INDEX IF NOT EXISTS idx_snapshots_written ON snapshots(scope, written_at);
`

// OpenSQLite opens (and migrates) the snapshot database at path.
func OpenSQLite(path string, max int) (*SQLiteStore, error) {
	if max <= 0 {
		max = DefaultMaxPerScope
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db, max: max}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Read(scope, hash string) (Entry, bool) {
	var payload string
	row := s.db.QueryRow(`SELECT payload FROM snapshots WHERE scope=? AND hash=?`, scope, hash)
	if err := row.Scan(&payload); err != nil {
		if err != sql.ErrNoRows {
			log.Printf("snapshot: read %s/%s: %v", scope, shortHash(hash), err)
		}
		return Entry{}, false
	}
	var e Entry
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		// Corrupt entry reads as absent; drop it so it stops costing a parse.
		log.Printf("snapshot: corrupt entry %s/%s: %v", scope, shortHash(hash), err)
		_, _ = s.db.Exec(`DELETE FROM snapshots WHERE scope=? AND hash=?`, scope, hash)
		return Entry{}, false
	}
	return e, true
}

func (s *SQLiteStore) Write(scope, hash string, e Entry) {
	e.Hash = hash
	payload, err := json.Marshal(e)
	if err != nil {
		log.Printf("snapshot: encode %s/%s: %v", scope, shortHash(hash), err)
		return
	}
	_, err = s.db.Exec(
		`INSERT INTO snapshots(scope, hash, payload, written_at) VALUES(?,?,?,?)
		 ON CONFLICT(scope, hash) DO UPDATE SET payload=excluded.payload, written_at=excluded.written_at`,
		scope, hash, string(payload), time.Now().UTC())
	if err != nil {
		log.Printf("snapshot: write %s/%s: %v", scope, shortHash(hash), err)
		return
	}
	// Evict least-recently-written beyond the per-scope cap.
	_, err = s.db.Exec(
		`DELETE FROM snapshots WHERE scope=? AND hash NOT IN (
			SELECT hash FROM snapshots WHERE scope=? ORDER BY written_at DESC LIMIT ?
		 )`, scope, scope, s.max)
	if err != nil {
		log.Printf("snapshot: evict %s: %v", scope, err)
	}
}

func shortHash(h string) string {
	if len(h) > 8 {
		return h[:8]
	}
	return h
}
