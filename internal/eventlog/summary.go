package eventlog

import (
	"sort"
	"time"
)

// maxDwell caps the time credited to one transition. Longer gaps usually
// mean the process exited without logging a final transition.
const maxDwell = 30 * time.Minute

// MoodSummary holds how often a mood was entered and how long it played.
type MoodSummary struct {
	Mood  string
	Count int
	Dwell time.Duration
}

// DayGroup holds mood summaries for a single calendar day.
type DayGroup struct {
	Date      time.Time
	Summaries []MoodSummary
}

// dwells returns the time each entry played: the gap to the next entry,
// or to now for the last one, capped at maxDwell. entries must be sorted.
func dwells(entries []Entry, now time.Time) []time.Duration {
	out := make([]time.Duration, len(entries))
	for i, e := range entries {
		end := now
		if i+1 < len(entries) {
			end = entries[i+1].Time
		}
		d := end.Sub(e.Time)
		if d < 0 {
			d = 0
		}
		out[i] = min(d, maxDwell)
	}
	return out
}

func sortEntries(entries []Entry) []Entry {
	sorted := append([]Entry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })
	return sorted
}

// Summarize aggregates entries per mood. Results are sorted by dwell time,
// longest first, then by mood name.
func Summarize(entries []Entry, now time.Time) []MoodSummary {
	sorted := sortEntries(entries)
	ds := dwells(sorted, now)

	byMood := map[string]*MoodSummary{}
	for i, e := range sorted {
		ms, ok := byMood[e.Mood]
		if !ok {
			ms = &MoodSummary{Mood: e.Mood}
			byMood[e.Mood] = ms
		}
		ms.Count++
		ms.Dwell += ds[i]
	}
	return sortSummaries(byMood)
}

// SummarizeByDay groups entries by local calendar day, crediting each
// transition's dwell to the day it started. Days are sorted descending.
// Pass days=0 to include all entries.
func SummarizeByDay(entries []Entry, days int, now time.Time) []DayGroup {
	var cutoff time.Time
	if days > 0 {
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		cutoff = today.AddDate(0, 0, -(days - 1))
	}

	sorted := sortEntries(entries)
	ds := dwells(sorted, now)

	perDay := map[string]map[string]*MoodSummary{}
	dates := map[string]time.Time{}
	for i, e := range sorted {
		local := e.Time.In(now.Location())
		day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, now.Location())
		if days > 0 && day.Before(cutoff) {
			continue
		}
		key := day.Format("2006-01-02")
		moods, ok := perDay[key]
		if !ok {
			moods = map[string]*MoodSummary{}
			perDay[key] = moods
			dates[key] = day
		}
		ms, ok := moods[e.Mood]
		if !ok {
			ms = &MoodSummary{Mood: e.Mood}
			moods[e.Mood] = ms
		}
		ms.Count++
		ms.Dwell += ds[i]
	}

	groups := make([]DayGroup, 0, len(perDay))
	for key, moods := range perDay {
		groups = append(groups, DayGroup{Date: dates[key], Summaries: sortSummaries(moods)})
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Date.After(groups[j].Date)
	})
	return groups
}

func sortSummaries(m map[string]*MoodSummary) []MoodSummary {
	out := make([]MoodSummary, 0, len(m))
	for _, ms := range m {
		out = append(out, *ms)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Dwell != out[j].Dwell {
			return out[i].Dwell > out[j].Dwell
		}
		return out[i].Mood < out[j].Mood
	})
	return out
}
