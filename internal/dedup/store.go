// Package dedup remembers which external items have already been surfaced
// to the owner so background pollers never re-alert. Records are append-only
// and never evicted; for a single-owner deployment the id volume is small
// enough that unbounded growth is an accepted bound.
package dedup

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vthunder/kernel/internal/logging"
)

// Kind distinguishes the disjoint id namespaces
type Kind string

const (
	KindEmail Kind = "email"
	KindEvent Kind = "event"
)

// Store tracks seen item ids. The in-memory sets answer all reads; a sqlite
// log makes marks durable across restarts so a crash cannot cause a repeat
// alert. All operations are safe for concurrent pollers.
type Store struct {
	mu   sync.Mutex
	seen map[Kind]map[string]time.Time
	db   *sql.DB
}

// Open opens or creates the seen-log under statePath and loads it
func Open(statePath string) (*Store, error) {
	dbPath := filepath.Join(statePath, "seen.db")
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open seen-log: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping seen-log: %w", err)
	}

	const schema = `CREATE TABLE IF NOT EXISTS seen_items (
		kind TEXT NOT NULL,
		id TEXT NOT NULL,
		first_seen TIMESTAMP NOT NULL,
		PRIMARY KEY (kind, id)
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate seen-log: %w", err)
	}

	s := &Store{
		seen: map[Kind]map[string]time.Time{
			KindEmail: {},
			KindEvent: {},
		},
		db: db,
	}
	if err := s.load(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT kind, id, first_seen FROM seen_items`)
	if err != nil {
		return fmt.Errorf("load seen-log: %w", err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var kind, id string
		var firstSeen time.Time
		if err := rows.Scan(&kind, &id, &firstSeen); err != nil {
			return fmt.Errorf("scan seen-log: %w", err)
		}
		set, ok := s.seen[Kind(kind)]
		if !ok {
			set = map[string]time.Time{}
			s.seen[Kind(kind)] = set
		}
		set[id] = firstSeen
		count++
	}
	if count > 0 {
		logging.Info("dedup", "Loaded %d seen item(s)", count)
	}
	return rows.Err()
}

// Close closes the underlying log
func (s *Store) Close() error {
	return s.db.Close()
}

// Seen reports whether the item was already surfaced
func (s *Store) Seen(kind Kind, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[kind][id]
	return ok
}

// MarkSeen records an item unconditionally
func (s *Store) MarkSeen(kind Kind, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markLocked(kind, id)
}

// MarkIfUnseen atomically checks and claims an item. Exactly one of any
// number of concurrent callers gets true for a given (kind, id); pollers
// use this so two overlapping cycles cannot both alert on the same item.
func (s *Store) MarkIfUnseen(kind Kind, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[kind][id]; ok {
		return false
	}
	s.markLocked(kind, id)
	return true
}

// Count returns the number of recorded items of a kind
func (s *Store) Count(kind Kind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen[kind])
}

func (s *Store) markLocked(kind Kind, id string) {
	set, ok := s.seen[kind]
	if !ok {
		set = map[string]time.Time{}
		s.seen[kind] = set
	}
	if _, exists := set[id]; exists {
		return
	}
	now := time.Now().UTC()
	set[id] = now

	// The in-memory mark is authoritative for this process; a failed write
	// only weakens restart durability, so log and continue.
	if _, err := s.db.Exec(
		`INSERT OR IGNORE INTO seen_items (kind, id, first_seen) VALUES (?, ?, ?)`,
		string(kind), id, now,
	); err != nil {
		logging.Warn("dedup", "persist %s/%s: %v", kind, id, err)
	}
}
