package main

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/Mavwarf/moodscape/internal/config"
	"github.com/Mavwarf/moodscape/internal/dashboard"
	"github.com/Mavwarf/moodscape/internal/mood"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// options holds the global flags.
type options struct {
	configPath string
	volume     int    // -1 = config
	dwell      string // "" = config
	output     string
	port       int
	open       bool
	force      bool
}

func main() {
	opts, args, err := parseArgs(os.Args[1:])
	if err != nil {
		fatal("%v", err)
	}

	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "help", "-h", "--help":
		printUsage()
	case "version", "-V", "--version":
		printVersion()
	case "moods", "list", "-l", "--list":
		listMoods()
	case "init":
		initCmd(opts)
	case "play":
		playCmd(opts, args[1:])
	case "interactive", "i":
		interactiveCmd(opts)
	case "listen":
		listenCmd(opts)
	case "send":
		sendCmd(opts, args[1:])
	case "render":
		renderCmd(opts, args[1:])
	case "serve", "dashboard":
		serveCmd(opts)
	case "history":
		historyCmd(opts, args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n", args[0])
		fmt.Fprintf(os.Stderr, "Run 'moodscape help' for usage.\n")
		os.Exit(1)
	}
}

// parseArgs pulls global flags out of args wherever they appear and
// returns the remaining positional arguments.
func parseArgs(args []string) (options, []string, error) {
	opts := options{volume: -1, port: dashboard.DefaultPort}
	var rest []string
	value := func(i int, flag, what string) (string, error) {
		if i+1 >= len(args) {
			return "", fmt.Errorf("%s requires %s", flag, what)
		}
		return args[i+1], nil
	}

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--volume", "-v":
			s, err := value(i, args[i], "a value (0-100)")
			if err != nil {
				return opts, nil, err
			}
			v, err := strconv.Atoi(s)
			if err != nil || v < 0 || v > 100 {
				return opts, nil, fmt.Errorf("volume must be a number between 0 and 100")
			}
			opts.volume = v
			i++
		case "--config", "-c":
			s, err := value(i, args[i], "a file path")
			if err != nil {
				return opts, nil, err
			}
			opts.configPath = s
			i++
		case "--dwell", "-d":
			s, err := value(i, args[i], "a duration (e.g. 30s)")
			if err != nil {
				return opts, nil, err
			}
			opts.dwell = s
			i++
		case "--output", "-o":
			s, err := value(i, args[i], "a file path")
			if err != nil {
				return opts, nil, err
			}
			opts.output = s
			i++
		case "--port", "-p":
			s, err := value(i, args[i], "a port number")
			if err != nil {
				return opts, nil, err
			}
			p, err := strconv.Atoi(s)
			if err != nil || p <= 0 || p > 65535 {
				return opts, nil, fmt.Errorf("port must be between 1 and 65535")
			}
			opts.port = p
			i++
		case "--open":
			opts.open = true
		case "--force", "-f":
			opts.force = true
		default:
			rest = append(rest, args[i])
		}
	}
	return opts, rest, nil
}

func fatal(format string, a ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", a...)
	os.Exit(1)
}

func loadConfig(opts options) config.Config {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fatal("%v", err)
	}
	return cfg
}

// resolveVolume applies the priority CLI --volume > config master_volume.
func resolveVolume(cli int, cfg config.Config) float64 {
	if cli >= 0 {
		return float64(cli) / 100
	}
	return cfg.Audio.MasterVolume
}

// resolveDwell parses --dwell as a Go duration or plain seconds, falling
// back to the configured dwell.
func resolveDwell(flag string, cfg config.Config) (time.Duration, error) {
	if flag == "" {
		return cfg.Dwell(), nil
	}
	d, err := time.ParseDuration(flag)
	if err != nil {
		secs, serr := strconv.ParseFloat(flag, 64)
		if serr != nil {
			return 0, fmt.Errorf("invalid dwell %q", flag)
		}
		d = time.Duration(secs * float64(time.Second))
	}
	if d <= 0 {
		return 0, fmt.Errorf("dwell must be positive")
	}
	return d, nil
}

// parseMoods resolves mood names. Unknown names are kept as-is and reported
// in unknown; the engine plays silence for them.
func parseMoods(names []string) (moods []mood.Mood, unknown []string) {
	for _, n := range names {
		m, err := mood.Parse(n)
		if err != nil {
			m = mood.Mood(n)
			unknown = append(unknown, n)
		}
		moods = append(moods, m)
	}
	return moods, unknown
}

func warnUnknown(unknown []string) {
	for _, n := range unknown {
		fmt.Fprintf(os.Stderr, "Warning: unknown mood %q plays silence\n", n)
	}
}

func printVersion() {
	fmt.Printf("moodscape %s (%s) %s/%s\n", version, buildDate, runtime.GOOS, runtime.GOARCH)
}

func listMoods() {
	for _, m := range mood.All() {
		scape, _ := mood.Lookup(m)
		fmt.Printf("%-14s %s\n", m, scape.Name)
	}
	fmt.Println()
	for _, s := range mood.Soundscapes() {
		fmt.Printf("%s:\n", s.Name)
		for _, l := range s.Layers {
			fmt.Printf("  %s\n", describeLayer(l))
		}
	}
}

// describeLayer renders a recipe layer for listings.
func describeLayer(l mood.Layer) string {
	switch l := l.(type) {
	case mood.Drone:
		freqs := make([]string, len(l.Frequencies))
		for i, f := range l.Frequencies {
			freqs[i] = strconv.FormatFloat(f, 'f', -1, 64)
		}
		return fmt.Sprintf("drone  %-8s %s Hz  vol %.2f", l.Waveform, strings.Join(freqs, "/"), l.Volume)
	case mood.Pulse:
		return fmt.Sprintf("pulse  lfo %.2f Hz  %s %.0f Hz", l.LFORateHz, l.FilterType, l.FilterCutoffHz)
	}
	return "?"
}

func printUsage() {
	fmt.Printf("moodscape %s - Generative ambient soundscapes driven by moods\n", version)
	fmt.Println(`
Usage:
  moodscape [options] <command> [args]

Options:
  --volume, -v <0-100>   Override master volume (default: config or 30)
  --config, -c <path>    Path to moodscape-config.json
  --dwell, -d <dur>      Time per mood for play/render (e.g. 30s, 2m)
  --output, -o <file>    Output WAV file for render
  --port, -p <n>         Dashboard port (default: 8811)
  --open                 Open the dashboard in a browser
  --force, -f            Overwrite an existing config on init

Commands:
  play <mood>...         Play moods in sequence; the last one holds until Ctrl+C
  interactive, i         Pick moods with single keys in the terminal
  listen                 Play moods received over MQTT
  send <mood>            Publish a mood over MQTT
  render <mood>... -o f  Render moods offline to a WAV file
  serve, dashboard       Run the engine behind a local web dashboard
  moods, list            List moods and their soundscapes
  history [days|all]     Show time spent per mood (default: 7 days)
  history export [days]  Print transitions as JSON
  history clean <days>   Remove entries older than N days
  history clear          Remove all entries
  init                   Write a default config file
  version, -V            Show version and build date
  help, -h, --help       Show this help message

Config resolution:
  1. --config <path>                           (explicit)
  2. moodscape-config.json next to binary      (portable)
  3. ~/.config/moodscape/moodscape-config.json (user default)
  MOODSCAPE_* environment variables override file values.

Examples:
  moodscape play wake                 Play WAKE until Ctrl+C
  moodscape -d 1m play wake conflict  One minute of WAKE, then CONFLICT
  moodscape -v 50 interactive         Interactive mode at 50% volume
  moodscape render hope end -o out.wav`)
}
