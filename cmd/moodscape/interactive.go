package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/Mavwarf/moodscape/internal/mood"
)

// moodKeys assigns one key per mood, in mood.All() order.
const moodKeys = "1234567890abc"

const (
	volumeStep      = 0.05
	refreshInterval = 500 * time.Millisecond
)

// moodForKey returns the mood bound to key.
func moodForKey(key byte) (mood.Mood, bool) {
	i := strings.IndexByte(moodKeys, key)
	all := mood.All()
	if i < 0 || i >= len(all) {
		return "", false
	}
	return all[i], true
}

// adjustVolume applies a +/- key to v. The second result is false for other
// keys.
func adjustVolume(v float64, key byte) (float64, bool) {
	switch key {
	case '+', '=':
		v += volumeStep
	case '-', '_':
		v -= volumeStep
	default:
		return v, false
	}
	return min(max(v, 0), 1), true
}

func isQuit(key byte) bool {
	return key == 'q' || key == 'Q' || key == 'x' || key == 'X' || key == 3 // Ctrl+C
}

func interactiveCmd(opts options) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		fatal("interactive mode needs a terminal")
	}
	cfg := loadConfig(opts)

	ctx, stop := interruptContext()
	defer stop()

	s := openSession(ctx, cfg, resolveVolume(opts.volume, cfg), "interactive")
	defer s.Close()
	s.quiet = true
	s.start(ctx)

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fatal("cannot enter raw mode: %v", err)
	}
	defer term.Restore(fd, oldState)

	keys := make(chan byte, 1)
	go func() {
		buf := make([]byte, 1)
		for {
			n, err := os.Stdin.Read(buf)
			if n > 0 {
				keys <- buf[0]
			}
			if err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	for {
		// In raw mode \n doesn't include \r, so convert.
		os.Stdout.WriteString(strings.ReplaceAll(s.screen(), "\n", "\r\n"))

		select {
		case <-ctx.Done():
			os.Stdout.WriteString("\033[2J\033[H")
			return
		case <-ticker.C:
		case key := <-keys:
			if isQuit(key) {
				os.Stdout.WriteString("\033[2J\033[H")
				return
			}
			if m, ok := moodForKey(key); ok {
				s.eng.SetMood(m)
				continue
			}
			if v, ok := adjustVolume(s.eng.State().MasterVolume, key); ok {
				s.eng.SetMasterVolume(v)
			}
		}
	}
}

// screen renders the mood menu and the engine state.
func (s *session) screen() string {
	var b strings.Builder
	b.WriteString("\033[2J\033[H")
	b.WriteString("moodscape interactive  -  +/- volume, q to quit\n\n")

	cur, hasMood := s.current()
	for i, m := range mood.All() {
		scape, _ := mood.Lookup(m)
		marker := " "
		if hasMood && m == cur {
			marker = ">"
		}
		fmt.Fprintf(&b, " %s [%c] %-14s %s\n", marker, moodKeys[i], m, scape.Name)
	}

	st := s.eng.State()
	status := "silent (no audio)"
	if st.Running {
		status = "running"
	}
	fmt.Fprintf(&b, "\n%s  volume %d%%  chains %d  fading %d\n",
		status, int(st.MasterVolume*100+0.5), s.eng.Chains(), s.eng.PendingTeardowns())
	return b.String()
}
