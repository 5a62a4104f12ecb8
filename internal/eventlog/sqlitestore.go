package eventlog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Mavwarf/moodscape/internal/paths"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed-width UTC so timestamps compare correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore implements Store using a SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (or creates) a SQLite database at path and creates
// tables and indexes.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), paths.DirPerm); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Set PRAGMAs before any DDL.
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=2000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite pragma: %w", err)
		}
	}

	ddl := `
CREATE TABLE IF NOT EXISTS transitions (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp   TEXT    NOT NULL,
    mood        TEXT    NOT NULL,
    soundscape  TEXT    NOT NULL DEFAULT '',
    chains      INTEGER NOT NULL DEFAULT 0,
    retired     INTEGER NOT NULL DEFAULT 0,
    source      TEXT    NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_transitions_timestamp ON transitions(timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_transitions_mood      ON transitions(mood);
`
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Log records e. A zero Time is replaced with the current time.
func (s *SQLiteStore) Log(e Entry) error {
	ts := e.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := s.db.Exec(
		`INSERT INTO transitions (timestamp, mood, soundscape, chains, retired, source)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ts.UTC().Format(timeLayout), e.Mood, e.Soundscape, e.Chains, e.Retired, e.Source,
	)
	return err
}

func (s *SQLiteStore) Entries(days int) ([]Entry, error) {
	if days <= 0 {
		return s.queryEntries(`SELECT id, timestamp, mood, soundscape, chains, retired, source
			FROM transitions ORDER BY timestamp, id`)
	}
	return s.EntriesSince(DayCutoff(days))
}

func (s *SQLiteStore) EntriesSince(cutoff time.Time) ([]Entry, error) {
	return s.queryEntries(`SELECT id, timestamp, mood, soundscape, chains, retired, source
		FROM transitions WHERE timestamp >= ? ORDER BY timestamp, id`,
		cutoff.UTC().Format(timeLayout))
}

func (s *SQLiteStore) queryEntries(query string, args ...any) ([]Entry, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var tsStr string
		if err := rows.Scan(&e.ID, &tsStr, &e.Mood, &e.Soundscape, &e.Chains, &e.Retired, &e.Source); err != nil {
			return nil, err
		}
		ts, err := time.Parse(timeLayout, tsStr)
		if err != nil {
			continue
		}
		e.Time = ts.Local()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) Clean(days int) (int, error) {
	cutoff := DayCutoff(days).UTC().Format(timeLayout)
	res, err := s.db.Exec(`DELETE FROM transitions WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *SQLiteStore) Clear() error {
	_, err := s.db.Exec(`DELETE FROM transitions`)
	return err
}

func (s *SQLiteStore) Path() string {
	return s.path
}
