package dashboard

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"strconv"
	"time"

	"github.com/Mavwarf/moodscape/internal/config"
	"github.com/Mavwarf/moodscape/internal/engine"
	"github.com/Mavwarf/moodscape/internal/eventlog"
	"github.com/Mavwarf/moodscape/internal/mood"
)

// DefaultPort is the port Serve listens on when none is given.
const DefaultPort = 8811

//go:embed static/index.html
var staticFS embed.FS

// Controller is the part of the engine the dashboard drives.
type Controller interface {
	SetMood(m mood.Mood)
	SetMasterVolume(v float64)
	State() engine.State
	Current() (mood.Mood, bool)
	Chains() int
	PendingTeardowns() int
}

// JSON response types used by API handlers.

type jsonState struct {
	Running          bool    `json:"running"`
	Mood             string  `json:"mood,omitempty"`
	Soundscape       string  `json:"soundscape,omitempty"`
	MasterVolume     float64 `json:"master_volume"`
	Chains           int     `json:"chains"`
	PendingTeardowns int     `json:"pending_teardowns"`
}

type jsonMood struct {
	Mood       string `json:"mood"`
	Soundscape string `json:"soundscape"`
}

type jsonEntry struct {
	Time       string `json:"time"`
	Mood       string `json:"mood"`
	Soundscape string `json:"soundscape,omitempty"`
	Chains     int    `json:"chains"`
	Retired    int    `json:"retired"`
	Source     string `json:"source,omitempty"`
}

func entryToJSON(e eventlog.Entry) jsonEntry {
	return jsonEntry{
		Time:       e.Time.Format(time.RFC3339),
		Mood:       e.Mood,
		Soundscape: e.Soundscape,
		Chains:     e.Chains,
		Retired:    e.Retired,
		Source:     e.Source,
	}
}

type jsonSummary struct {
	Mood         string `json:"mood"`
	Count        int    `json:"count"`
	DwellSeconds int    `json:"dwell_seconds"`
}

type jsonGroup struct {
	Date      string        `json:"date"`
	Summaries []jsonSummary `json:"summaries"`
}

type moodRequest struct {
	Mood string `json:"mood"`
}

type volumeRequest struct {
	Volume *int `json:"volume"`
}

type actionResponse struct {
	OK         bool   `json:"ok"`
	Mood       string `json:"mood,omitempty"`
	Soundscape string `json:"soundscape,omitempty"`
	Volume     *int   `json:"volume,omitempty"`
	Warning    string `json:"warning,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Server holds the dependencies of the HTTP handlers. Store may be nil when
// history is disabled.
type Server struct {
	Engine Controller
	Store  eventlog.Store
	Config config.Config
}

// Handler returns the dashboard's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", handleIndex)
	mux.HandleFunc("/api/state", s.handleState)
	mux.HandleFunc("/api/moods", handleMoods)
	mux.HandleFunc("/api/mood", s.handleMood)
	mux.HandleFunc("/api/volume", s.handleVolume)
	mux.HandleFunc("/api/history", s.handleHistory)
	mux.HandleFunc("/api/summary", s.handleSummary)
	mux.HandleFunc("/api/config", s.handleConfig)
	return mux
}

// Serve starts the dashboard HTTP server on 127.0.0.1:port and blocks
// until ctx is done. If open is true, a browser window is launched in
// app mode (chromeless) pointing at the dashboard URL.
func (s *Server) Serve(ctx context.Context, port int, open bool) error {
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	return s.serve(ctx, ln, open)
}

func (s *Server) serve(ctx context.Context, ln net.Listener, open bool) error {
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		srv.Shutdown(shutCtx)
	}()

	url := fmt.Sprintf("http://%s", ln.Addr())
	fmt.Printf("Dashboard: %s\n", url)

	if open {
		go openBrowser(url)
	}

	if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// openBrowser tries to open the URL in a chromeless browser window (app mode).
// It tries Edge, then Chrome, then falls back to the OS default browser.
func openBrowser(url string) {
	appBrowsers := [][]string{
		{"msedge", "--app=" + url},
		{"chrome", "--app=" + url},
		{"google-chrome", "--app=" + url},
		{"chromium", "--app=" + url},
		{"chromium-browser", "--app=" + url},
	}

	for _, b := range appBrowsers {
		if path, err := exec.LookPath(b[0]); err == nil {
			if exec.Command(path, b[1:]...).Start() == nil {
				return
			}
		}
	}

	// Fallback: open in default browser (with address bar).
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	cmd.Start()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	data, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

func (s *Server) state() jsonState {
	st := s.Engine.State()
	out := jsonState{
		Running:          st.Running,
		MasterVolume:     st.MasterVolume,
		Chains:           s.Engine.Chains(),
		PendingTeardowns: s.Engine.PendingTeardowns(),
	}
	if m, ok := s.Engine.Current(); ok {
		out.Mood = m.String()
		if scape, ok := mood.Lookup(m); ok {
			out.Soundscape = scape.Name
		}
	}
	return out
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.state())
}

func handleMoods(w http.ResponseWriter, r *http.Request) {
	all := mood.All()
	out := make([]jsonMood, len(all))
	for i, m := range all {
		scape, _ := mood.Lookup(m)
		out[i] = jsonMood{Mood: m.String(), Soundscape: scape.Name}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMood(w http.ResponseWriter, r *http.Request) {
	var req moodRequest
	switch r.Method {
	case http.MethodPost:
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, actionResponse{Error: "invalid JSON"})
			return
		}
	case http.MethodGet:
		req.Mood = r.URL.Query().Get("mood")
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if req.Mood == "" {
		writeJSON(w, http.StatusBadRequest, actionResponse{Error: "mood is required"})
		return
	}

	resp := actionResponse{OK: true}
	m, err := mood.Parse(req.Mood)
	if err != nil {
		// Unknown moods still reach the engine, which plays silence.
		m = mood.Mood(req.Mood)
		resp.Warning = err.Error()
	}
	s.Engine.SetMood(m)
	resp.Mood = m.String()
	if scape, ok := mood.Lookup(m); ok {
		resp.Soundscape = scape.Name
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVolume(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req volumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, actionResponse{Error: "invalid JSON"})
		return
	}
	if req.Volume == nil || *req.Volume < 0 || *req.Volume > 100 {
		writeJSON(w, http.StatusBadRequest, actionResponse{Error: "volume must be between 0 and 100"})
		return
	}
	s.Engine.SetMasterVolume(float64(*req.Volume) / 100)
	writeJSON(w, http.StatusOK, actionResponse{OK: true, Volume: req.Volume})
}

// queryDays reads ?days=N, falling back to def for missing or bad values.
func queryDays(r *http.Request, def int) int {
	if d := r.URL.Query().Get("days"); d != "" {
		if v, err := strconv.Atoi(d); err == nil && v >= 0 {
			return v
		}
	}
	return def
}

func (s *Server) entries(days int) ([]eventlog.Entry, error) {
	if s.Store == nil {
		return nil, nil
	}
	return s.Store.Entries(days)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.entries(queryDays(r, 1))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, actionResponse{Error: err.Error()})
		return
	}
	out := make([]jsonEntry, len(entries))
	for i, e := range entries {
		out[i] = entryToJSON(e)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	days := queryDays(r, 7)
	entries, err := s.entries(days)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, actionResponse{Error: err.Error()})
		return
	}
	groups := eventlog.SummarizeByDay(entries, days, time.Now())

	out := make([]jsonGroup, len(groups))
	for i, g := range groups {
		sums := make([]jsonSummary, len(g.Summaries))
		for j, ms := range g.Summaries {
			sums[j] = jsonSummary{
				Mood:         ms.Mood,
				Count:        ms.Count,
				DwellSeconds: int(ms.Dwell.Seconds()),
			}
		}
		out[i] = jsonGroup{Date: g.Date.Format("2006-01-02"), Summaries: sums}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, redactConfig(s.Config))
}

func redactConfig(cfg config.Config) config.Config {
	out := cfg
	if out.MQTT.Password != "" {
		out.MQTT.Password = "***"
	}
	return out
}
