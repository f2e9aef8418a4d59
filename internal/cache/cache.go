// Package cache is the persistent local snapshot store the repositories sit
// on. It is best-effort, never authoritative: every failure is logged and
// swallowed, and a read that fails reports a cold cache.
package cache

import (
	"database/sql"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"trackany/internal/model"
)

// Slot keys. A missing key means "never fetched", which callers must
// distinguish from an empty collection.
const (
	slotEvents   = "events"
	slotLogs     = "logs"
	slotNotes    = "notes"
	slotLastSync = "last_sync"
)

// entry wraps a full snapshot of one entity collection.
type entry[T any] struct {
	Data      []T   `json:"data"`
	Timestamp int64 `json:"timestamp"`
}

// Store is a durable key-value store over a local SQLite file. The per-slot
// mutexes serialize snapshot read-modify-write sequences; concurrent writers
// must go through the Mutate helpers so neither overwrites the other's rows.
type Store struct {
	db     *sql.DB
	logger *log.Logger

	eventsMu sync.Mutex
	logsMu   sync.Mutex
	notesMu  sync.Mutex
}

// Open opens (creating if needed) the cache database at path.
// If logger is nil, a default logger writing to stderr is used.
func Open(path string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.New(os.Stderr, "[cache] ", log.LstdFlags)
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS slots (k TEXT PRIMARY KEY, v TEXT NOT NULL)`); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// ReadSlot decodes the JSON value stored under key into v.
// Returns false on a missing key or any failure (logged).
func (s *Store) ReadSlot(key string, v any) bool {
	var raw string
	err := s.db.QueryRow(`SELECT v FROM slots WHERE k = ?`, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return false
	}
	if err != nil {
		s.logger.Printf("read %s: %v", key, err)
		return false
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		s.logger.Printf("decode %s: %v", key, err)
		return false
	}
	return true
}

// WriteSlot stores v as JSON under key. Failures are logged and swallowed.
func (s *Store) WriteSlot(key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		s.logger.Printf("encode %s: %v", key, err)
		return
	}
	_, err = s.db.Exec(`INSERT INTO slots(k, v) VALUES(?, ?) ON CONFLICT(k) DO UPDATE SET v = excluded.v`, key, string(raw))
	if err != nil {
		s.logger.Printf("write %s: %v", key, err)
	}
}

// RemoveSlot deletes the value stored under key.
func (s *Store) RemoveSlot(key string) {
	if _, err := s.db.Exec(`DELETE FROM slots WHERE k = ?`, key); err != nil {
		s.logger.Printf("remove %s: %v", key, err)
	}
}

// Events returns the cached events snapshot. ok is false on a cold cache.
func (s *Store) Events() (events []model.Event, ok bool) {
	var e entry[model.Event]
	if !s.ReadSlot(slotEvents, &e) {
		return nil, false
	}
	return e.Data, true
}

func (s *Store) SetEvents(events []model.Event) {
	s.eventsMu.Lock()
	defer s.eventsMu.Unlock()
	s.writeEvents(events)
}

func (s *Store) writeEvents(events []model.Event) {
	s.WriteSlot(slotEvents, entry[model.Event]{Data: events, Timestamp: time.Now().UnixMilli()})
}

// MutateEvents runs fn with the current snapshot under the slot lock and
// persists the returned slice when write is true.
func (s *Store) MutateEvents(fn func(events []model.Event, warm bool) (out []model.Event, write bool)) {
	s.eventsMu.Lock()
	defer s.eventsMu.Unlock()
	cur, ok := s.Events()
	if out, write := fn(cur, ok); write {
		s.writeEvents(out)
	}
}

// Logs returns the cached logs snapshot. ok is false on a cold cache.
func (s *Store) Logs() (logs []model.Log, ok bool) {
	var e entry[model.Log]
	if !s.ReadSlot(slotLogs, &e) {
		return nil, false
	}
	return e.Data, true
}

func (s *Store) SetLogs(logs []model.Log) {
	s.logsMu.Lock()
	defer s.logsMu.Unlock()
	s.writeLogs(logs)
}

func (s *Store) writeLogs(logs []model.Log) {
	s.WriteSlot(slotLogs, entry[model.Log]{Data: logs, Timestamp: time.Now().UnixMilli()})
}

// MutateLogs runs fn with the current snapshot under the slot lock and
// persists the returned slice when write is true.
func (s *Store) MutateLogs(fn func(logs []model.Log, warm bool) (out []model.Log, write bool)) {
	s.logsMu.Lock()
	defer s.logsMu.Unlock()
	cur, ok := s.Logs()
	if out, write := fn(cur, ok); write {
		s.writeLogs(out)
	}
}

// Notes returns the cached notes snapshot. ok is false on a cold cache.
func (s *Store) Notes() (notes []model.Note, ok bool) {
	var e entry[model.Note]
	if !s.ReadSlot(slotNotes, &e) {
		return nil, false
	}
	return e.Data, true
}

func (s *Store) SetNotes(notes []model.Note) {
	s.notesMu.Lock()
	defer s.notesMu.Unlock()
	s.writeNotes(notes)
}

func (s *Store) writeNotes(notes []model.Note) {
	s.WriteSlot(slotNotes, entry[model.Note]{Data: notes, Timestamp: time.Now().UnixMilli()})
}

// MutateNotes runs fn with the current snapshot under the slot lock and
// persists the returned slice when write is true.
func (s *Store) MutateNotes(fn func(notes []model.Note, warm bool) (out []model.Note, write bool)) {
	s.notesMu.Lock()
	defer s.notesMu.Unlock()
	cur, ok := s.Notes()
	if out, write := fn(cur, ok); write {
		s.writeNotes(out)
	}
}

// LastSync returns the last full preload timestamp, if one was recorded.
func (s *Store) LastSync() (time.Time, bool) {
	var ms int64
	if !s.ReadSlot(slotLastSync, &ms) {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

func (s *Store) SetLastSync(t time.Time) {
	s.WriteSlot(slotLastSync, t.UnixMilli())
}

// ClearAll wipes every slot, snapshots and preference maps alike. Invoked on
// sign-out or a detected user-identity change so accounts sharing a device
// never see each other's data.
func (s *Store) ClearAll() {
	s.eventsMu.Lock()
	defer s.eventsMu.Unlock()
	s.logsMu.Lock()
	defer s.logsMu.Unlock()
	s.notesMu.Lock()
	defer s.notesMu.Unlock()
	if _, err := s.db.Exec(`DELETE FROM slots`); err != nil {
		s.logger.Printf("clear: %v", err)
	}
}
