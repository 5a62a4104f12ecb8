package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Mavwarf/moodscape/internal/config"
	"github.com/Mavwarf/moodscape/internal/eventlog"
)

func historyCmd(opts options, args []string) {
	cfg := loadConfig(opts)
	if len(args) > 0 {
		switch args[0] {
		case "clear":
			historyClear(cfg)
			return
		case "clean":
			historyClean(cfg, args[1:])
			return
		case "export":
			historyExport(cfg, args[1:])
			return
		}
	}
	historySummary(cfg, args)
}

// openStore opens the history database, or returns nil if it does not
// exist yet.
func openStore(cfg config.Config) *eventlog.SQLiteStore {
	path := cfg.HistoryPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	s, err := eventlog.NewSQLiteStore(path)
	if err != nil {
		fatal("%v", err)
	}
	return s
}

// parseDays reads an optional day count; "all" and a missing argument
// give def.
func parseDays(args []string, def int) (int, error) {
	if len(args) == 0 {
		return def, nil
	}
	if args[0] == "all" {
		return 0, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("days must be a positive integer or \"all\"")
	}
	return n, nil
}

func historySummary(cfg config.Config, args []string) {
	days, err := parseDays(args, 7)
	if err != nil {
		fatal("%v", err)
	}
	s := openStore(cfg)
	if s == nil {
		fmt.Println("No history yet. Play some moods first.")
		return
	}
	defer s.Close()

	entries, err := s.Entries(days)
	if err != nil {
		fatal("%v", err)
	}
	groups := eventlog.SummarizeByDay(entries, days, time.Now())
	if len(groups) == 0 {
		if days == 0 {
			fmt.Println("No activity found.")
		} else {
			fmt.Println("No activity in the last", days, "days.")
		}
		return
	}

	var out strings.Builder
	renderSummaryTable(&out, groups)
	fmt.Print(out.String())
}

// --- Table layout constants ---

const (
	colMood   = 16 // width of mood name column
	colNumber = 7  // width of numeric columns
	colTime   = 10 // width of the dwell column
	colGap    = 2  // gap between columns
	colPct    = 5  // width of percentage column (fits " 100%")
	sepWidth  = colMood + colGap + colNumber + colGap + colTime + colGap + colPct
)

// --- ANSI color helpers (disabled when NO_COLOR env var is set) ---

var noColor = os.Getenv("NO_COLOR") != ""

func ansi(code, s string) string {
	if noColor {
		return s
	}
	return code + s + "\033[0m"
}

func bold(s string) string { return ansi("\033[1m", s) }
func dim(s string) string  { return ansi("\033[2m", s) }
func cyan(s string) string { return ansi("\033[36m", s) }

// fmtPct formats n as a percentage of total (e.g. "68%"), or "" if total is 0.
func fmtPct(n, total time.Duration) string {
	if total == 0 {
		return ""
	}
	return strconv.Itoa(int(n*100/total)) + "%"
}

// fmtDwell formats a duration compactly: "45s", "12m05s", "2h03m".
func fmtDwell(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh%02dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm%02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// padL pads s to width with spaces on the left.
func padL(s string, width int) string {
	if pad := width - len(s); pad > 0 {
		return strings.Repeat(" ", pad) + s
	}
	return s
}

// padR pads s to width with spaces on the right.
func padR(s string, width int) string {
	if pad := width - len(s); pad > 0 {
		return s + strings.Repeat(" ", pad)
	}
	return s
}

// renderSummaryTable writes one block per day followed by a total over all
// days.
func renderSummaryTable(w *strings.Builder, groups []eventlog.DayGroup) {
	gap := strings.Repeat(" ", colGap)
	header := padR("Mood", colMood) + gap + padL("Count", colNumber) + gap +
		padL("Time", colTime) + gap + padL("%", colPct)
	sep := dim(strings.Repeat("-", sepWidth))

	totals := map[string]*eventlog.MoodSummary{}
	var order []string
	for _, g := range groups {
		var dayTotal time.Duration
		for _, ms := range g.Summaries {
			dayTotal += ms.Dwell
		}
		fmt.Fprintf(w, "%s\n", bold(g.Date.Format("Mon 2006-01-02")))
		fmt.Fprintf(w, "%s\n%s\n", header, sep)
		for _, ms := range g.Summaries {
			fmt.Fprintf(w, "%s%s%s%s%s%s%s\n",
				cyan(padR(ms.Mood, colMood)), gap,
				padL(strconv.Itoa(ms.Count), colNumber), gap,
				padL(fmtDwell(ms.Dwell), colTime), gap,
				padL(fmtPct(ms.Dwell, dayTotal), colPct))

			t, ok := totals[ms.Mood]
			if !ok {
				t = &eventlog.MoodSummary{Mood: ms.Mood}
				totals[ms.Mood] = t
				order = append(order, ms.Mood)
			}
			t.Count += ms.Count
			t.Dwell += ms.Dwell
		}
		w.WriteString("\n")
	}

	if len(groups) < 2 {
		return
	}
	var grand time.Duration
	for _, t := range totals {
		grand += t.Dwell
	}
	fmt.Fprintf(w, "%s\n%s\n%s\n", bold("Total"), header, sep)
	for _, name := range order {
		t := totals[name]
		fmt.Fprintf(w, "%s%s%s%s%s%s%s\n",
			padR(t.Mood, colMood), gap,
			padL(strconv.Itoa(t.Count), colNumber), gap,
			padL(fmtDwell(t.Dwell), colTime), gap,
			padL(fmtPct(t.Dwell, grand), colPct))
	}
}

func historyClear(cfg config.Config) {
	s := openStore(cfg)
	if s == nil {
		fmt.Println("History is empty.")
		return
	}
	defer s.Close()
	if err := s.Clear(); err != nil {
		fatal("%v", err)
	}
	fmt.Println("History cleared.")
}

func historyClean(cfg config.Config, args []string) {
	if len(args) == 0 {
		// No days argument: clear everything.
		historyClear(cfg)
		return
	}
	days, err := strconv.Atoi(args[0])
	if err != nil || days <= 0 {
		fatal("days must be a positive integer")
	}
	s := openStore(cfg)
	if s == nil {
		fmt.Println("History is empty.")
		return
	}
	defer s.Close()

	removed, err := s.Clean(days)
	if err != nil {
		fatal("%v", err)
	}
	fmt.Printf("Removed %d entries older than %d days.\n", removed, days)
}

type exportEntry struct {
	Time       string `json:"time"`
	Mood       string `json:"mood"`
	Soundscape string `json:"soundscape"`
	Chains     int    `json:"chains"`
	Retired    int    `json:"retired"`
	Source     string `json:"source"`
}

func historyExport(cfg config.Config, args []string) {
	days, err := parseDays(args, 0)
	if err != nil {
		fatal("%v", err)
	}
	out := []exportEntry{}
	if s := openStore(cfg); s != nil {
		entries, err := s.Entries(days)
		s.Close()
		if err != nil {
			fatal("%v", err)
		}
		for _, e := range entries {
			out = append(out, exportEntry{
				Time:       e.Time.Format(time.RFC3339),
				Mood:       e.Mood,
				Soundscape: e.Soundscape,
				Chains:     e.Chains,
				Retired:    e.Retired,
				Source:     e.Source,
			})
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(out)
}
