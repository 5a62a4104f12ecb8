package eventlog

import "time"

// Entry is one recorded mood transition.
type Entry struct {
	ID         int64
	Time       time.Time
	Mood       string
	Soundscape string // empty when the mood played silence
	Chains     int    // chains built for the new mood
	Retired    int    // chains handed to teardown
	Source     string // play, listen, interactive, ...
}

// Store abstracts transition history storage.
type Store interface {
	// Write: best-effort callers print errors and continue.
	Log(e Entry) error

	// Read
	Entries(days int) ([]Entry, error)             // 0 = all
	EntriesSince(cutoff time.Time) ([]Entry, error) // entries at or after cutoff

	// Maintenance
	Clean(days int) (int, error) // remove old entries, return removed count
	Clear() error                // delete all data

	// Metadata
	Path() string
	Close() error
}

// DayCutoff returns midnight N days ago (inclusive) in the local timezone.
// For days=1 it returns today at midnight, for days=7 it returns 6 days ago, etc.
func DayCutoff(days int) time.Time {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return today.AddDate(0, 0, -(days - 1))
}
