package dashboard

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Mavwarf/moodscape/internal/config"
	"github.com/Mavwarf/moodscape/internal/engine"
	"github.com/Mavwarf/moodscape/internal/eventlog"
	"github.com/Mavwarf/moodscape/internal/mood"
)

type fakeEngine struct {
	mu     sync.Mutex
	moods  []mood.Mood
	volume float64
}

func (f *fakeEngine) SetMood(m mood.Mood) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moods = append(f.moods, m)
}

func (f *fakeEngine) SetMasterVolume(v float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volume = v
}

func (f *fakeEngine) State() engine.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return engine.State{Running: true, MasterVolume: f.volume}
}

func (f *fakeEngine) Current() (mood.Mood, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.moods) == 0 {
		return "", false
	}
	return f.moods[len(f.moods)-1], true
}

func (f *fakeEngine) Chains() int           { return 2 }
func (f *fakeEngine) PendingTeardowns() int { return 1 }

func testServer(t *testing.T) (*Server, *fakeEngine) {
	t.Helper()
	store, err := eventlog.NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	cfg := config.Default()
	cfg.MQTT.Password = "secret"
	fe := &fakeEngine{volume: 0.3}
	return &Server{Engine: fe, Store: store, Config: cfg}, fe
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func TestHandleIndex(t *testing.T) {
	s, _ := testServer(t)
	w := do(t, s, "GET", "/", "")
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Fatalf("expected text/html content type, got %q", ct)
	}
	if !strings.Contains(w.Body.String(), "moodscape dashboard") {
		t.Fatal("expected HTML to contain 'moodscape dashboard'")
	}
}

func TestHandleIndexNotFound(t *testing.T) {
	s, _ := testServer(t)
	if w := do(t, s, "GET", "/nope", ""); w.Code != 404 {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestHandleStateBeforeMood(t *testing.T) {
	s, _ := testServer(t)
	st := decode[jsonState](t, do(t, s, "GET", "/api/state", ""))
	if !st.Running || st.Mood != "" || st.Chains != 2 || st.PendingTeardowns != 1 {
		t.Errorf("state = %+v", st)
	}
}

func TestHandleMoods(t *testing.T) {
	s, _ := testServer(t)
	moods := decode[[]jsonMood](t, do(t, s, "GET", "/api/moods", ""))
	if len(moods) != len(mood.All()) {
		t.Fatalf("got %d moods, want %d", len(moods), len(mood.All()))
	}
	for _, m := range moods {
		if m.Soundscape == "" {
			t.Errorf("mood %s has no soundscape", m.Mood)
		}
	}
}

func TestHandleMoodPost(t *testing.T) {
	s, fe := testServer(t)
	w := do(t, s, "POST", "/api/mood", `{"mood": "wake"}`)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decode[actionResponse](t, w)
	if !resp.OK || resp.Mood != "WAKE" || resp.Soundscape == "" || resp.Warning != "" {
		t.Errorf("response = %+v", resp)
	}
	if len(fe.moods) != 1 || fe.moods[0] != mood.Wake {
		t.Errorf("engine moods = %v", fe.moods)
	}

	st := decode[jsonState](t, do(t, s, "GET", "/api/state", ""))
	if st.Mood != "WAKE" || st.Soundscape != resp.Soundscape {
		t.Errorf("state after mood = %+v", st)
	}
}

func TestHandleMoodGet(t *testing.T) {
	s, fe := testServer(t)
	if w := do(t, s, "GET", "/api/mood?mood=HOPE", ""); w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if len(fe.moods) != 1 || fe.moods[0] != mood.Hope {
		t.Errorf("engine moods = %v", fe.moods)
	}
}

func TestHandleMoodUnknownPassesThrough(t *testing.T) {
	s, fe := testServer(t)
	resp := decode[actionResponse](t, do(t, s, "POST", "/api/mood", `{"mood": "BLISS"}`))
	if !resp.OK || resp.Warning == "" || resp.Soundscape != "" {
		t.Errorf("response = %+v", resp)
	}
	if len(fe.moods) != 1 || fe.moods[0] != mood.Mood("BLISS") {
		t.Errorf("engine moods = %v", fe.moods)
	}
}

func TestHandleMoodBadRequests(t *testing.T) {
	s, fe := testServer(t)
	tests := []struct {
		name, method, body string
		want               int
	}{
		{"invalid json", "POST", `{`, 400},
		{"missing mood", "POST", `{}`, 400},
		{"wrong method", "DELETE", "", 405},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := do(t, s, tt.method, "/api/mood", tt.body); w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
	if len(fe.moods) != 0 {
		t.Errorf("engine received moods: %v", fe.moods)
	}
}

func TestHandleVolume(t *testing.T) {
	s, fe := testServer(t)
	w := do(t, s, "POST", "/api/volume", `{"volume": 55}`)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if fe.volume != 0.55 {
		t.Errorf("volume = %v, want 0.55", fe.volume)
	}

	for _, body := range []string{`{"volume": 101}`, `{"volume": -1}`, `{}`, `nope`} {
		if w := do(t, s, "POST", "/api/volume", body); w.Code != 400 {
			t.Errorf("body %s: status = %d, want 400", body, w.Code)
		}
	}
	if w := do(t, s, "GET", "/api/volume", ""); w.Code != 405 {
		t.Errorf("GET status = %d, want 405", w.Code)
	}
}

func TestHandleHistoryAndSummary(t *testing.T) {
	s, _ := testServer(t)
	now := time.Now()
	s.Store.Log(eventlog.Entry{Time: now.Add(-4 * time.Minute), Mood: "WAKE", Soundscape: "ethereal", Chains: 2, Source: "play"})
	s.Store.Log(eventlog.Entry{Time: now.Add(-time.Minute), Mood: "HOPE", Soundscape: "bright", Chains: 1, Retired: 2})

	hist := decode[[]jsonEntry](t, do(t, s, "GET", "/api/history", ""))
	if len(hist) != 2 || hist[0].Mood != "WAKE" || hist[1].Retired != 2 {
		t.Errorf("history = %+v", hist)
	}

	groups := decode[[]jsonGroup](t, do(t, s, "GET", "/api/summary?days=1", ""))
	if len(groups) != 1 || len(groups[0].Summaries) != 2 {
		t.Fatalf("summary = %+v", groups)
	}
	if groups[0].Summaries[0].Mood != "WAKE" || groups[0].Summaries[0].DwellSeconds < 179 {
		t.Errorf("summary[0] = %+v", groups[0].Summaries[0])
	}
}

func TestHandleHistoryWithoutStore(t *testing.T) {
	s, _ := testServer(t)
	s.Store = nil
	w := do(t, s, "GET", "/api/history", "")
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if hist := decode[[]jsonEntry](t, w); len(hist) != 0 {
		t.Errorf("history = %+v", hist)
	}
}

func TestHandleConfigRedactsPassword(t *testing.T) {
	s, _ := testServer(t)
	w := do(t, s, "GET", "/api/config", "")
	body := w.Body.String()
	if strings.Contains(body, "secret") {
		t.Fatal("password leaked in /api/config")
	}
	if !strings.Contains(body, "***") {
		t.Error("expected redacted password marker")
	}
	if s.Config.MQTT.Password != "secret" {
		t.Error("redaction modified the server's config")
	}
}

func TestQueryDays(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", 7},
		{"days=3", 3},
		{"days=0", 0},
		{"days=-1", 7},
		{"days=x", 7},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/api/summary?"+tt.query, nil)
		if got := queryDays(r, 7); got != tt.want {
			t.Errorf("queryDays(%q) = %d, want %d", tt.query, got, tt.want)
		}
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	s, _ := testServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.serve(ctx, ln, false) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/api/state")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Errorf("status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}
