package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/sweeney/wakelight/internal/alarm"
	"github.com/sweeney/wakelight/internal/config"
	"github.com/sweeney/wakelight/internal/history"
	"github.com/sweeney/wakelight/internal/state"
)

// CLI is the command line. Every flag can also be set from the environment
// or a .env file in the working directory.
type CLI struct {
	DataDir string `name:"data-dir" short:"d" help:"Directory for state, history and images." default:"./data" env:"WAKELIGHT_DATA_DIR" type:"path"`
	Verbose bool   `short:"v" help:"Include file and line in log output." env:"WAKELIGHT_VERBOSE"`

	Serve   ServeCmd   `cmd:"" default:"withargs" help:"Run the alarm daemon (default)."`
	History HistoryCmd `cmd:"" help:"Print recent sleep sessions."`
	State   StateCmd   `cmd:"" help:"Print the persisted session state."`
}

// AfterApply configures logging once flags are parsed.
func (c *CLI) AfterApply() error {
	if c.Verbose {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}
	return nil
}

// ServeCmd runs the daemon.
type ServeCmd struct {
	HTTP          string        `name:"http" help:"HTTP listen address (empty to disable)." default:":3000" env:"WAKELIGHT_HTTP"`
	Broker        string        `help:"MQTT broker URL (empty to disable)." env:"WAKELIGHT_MQTT_BROKER"`
	NATS          string        `name:"nats" help:"NATS server URL (empty to disable)." env:"WAKELIGHT_NATS_URL"`
	PinLight      int           `name:"pin-light" help:"BCM pin driving the light relay." default:"17" env:"WAKELIGHT_PIN_LIGHT"`
	PinButton     int           `name:"pin-button" help:"BCM pin of the push button." default:"22" env:"WAKELIGHT_PIN_BUTTON"`
	NoGPIO        bool          `name:"no-gpio" help:"Run without GPIO hardware (in-memory light and button)." env:"WAKELIGHT_NO_GPIO"`
	Tick          time.Duration `help:"Button polling interval." default:"50ms" env:"WAKELIGHT_TICK"`
	Debounce      time.Duration `help:"Minimum time between two button presses." default:"300ms" env:"WAKELIGHT_DEBOUNCE"`
	Heartbeat     time.Duration `help:"Heartbeat interval (0 to disable)." default:"15m" env:"WAKELIGHT_HEARTBEAT"`
	FrameInterval time.Duration `name:"frame-interval" help:"Video stream frame interval." default:"200ms" env:"WAKELIGHT_FRAME_INTERVAL"`
	NetworkEnv    string        `name:"network-env" help:"pi-helper network env file." default:"/run/pi-helper.env" env:"WAKELIGHT_NETWORK_ENV"`
}

// Config builds the daemon configuration from the flags.
func (s *ServeCmd) Config(dataDir string) config.Config {
	return config.Config{
		DataDir:       dataDir,
		HTTPAddr:      s.HTTP,
		Broker:        s.Broker,
		NATSURL:       s.NATS,
		PinLight:      s.PinLight,
		PinButton:     s.PinButton,
		NoGPIO:        s.NoGPIO,
		Tick:          s.Tick,
		Debounce:      s.Debounce,
		Heartbeat:     s.Heartbeat,
		FrameInterval: s.FrameInterval,
		NetworkEnv:    s.NetworkEnv,
	}
}

// Run starts the daemon and blocks until SIGINT or SIGTERM.
func (s *ServeCmd) Run(cli *CLI) error {
	return run(s.Config(cli.DataDir))
}

// HistoryCmd prints the session log.
type HistoryCmd struct {
	Limit int  `short:"n" help:"Number of sessions to show (max 50)." default:"10"`
	JSON  bool `help:"Print JSON instead of a table."`
}

// Run prints the most recent sessions, newest first. It never creates the
// database.
func (h *HistoryCmd) Run(cli *CLI) error {
	if err := requireDataDir(cli.DataDir); err != nil {
		return err
	}
	cfg := config.Config{DataDir: cli.DataDir}
	if _, err := os.Stat(cfg.DBPath()); errors.Is(err, fs.ErrNotExist) {
		if h.JSON {
			return printJSON(os.Stdout, []alarm.Record{})
		}
		return printSessions(os.Stdout, nil)
	}
	store, err := history.Open(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()

	limit := h.Limit
	if limit <= 0 || limit > alarm.MaxRecentSessions {
		limit = alarm.MaxRecentSessions
	}
	recs, err := store.Recent(context.Background(), limit)
	if err != nil {
		return err
	}
	if h.JSON {
		return printJSON(os.Stdout, recs)
	}
	return printSessions(os.Stdout, recs)
}

// StateCmd prints state.json.
type StateCmd struct{}

// Run prints the persisted session state. A missing state file prints the
// idle state; nothing is written.
func (StateCmd) Run(cli *CLI) error {
	if err := requireDataDir(cli.DataDir); err != nil {
		return err
	}
	st, err := state.ReadFile(filepath.Join(cli.DataDir, state.FileName))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read state: %w", err)
	}
	return printJSON(os.Stdout, st)
}

func requireDataDir(dir string) error {
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("data directory %s does not exist (has the daemon run yet?)", dir)
	}
	if err != nil {
		return fmt.Errorf("data directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data directory %s is not a directory", dir)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printSessions(w io.Writer, recs []alarm.Record) error {
	if len(recs) == 0 {
		_, err := fmt.Fprintln(w, "no sessions recorded")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLIGHT OFF\tALARM\tSLEPT\tIMAGE")
	for _, r := range recs {
		fmt.Fprintf(tw, "%d\t%s %s\t%s\t%dh %02dm\t%s\n",
			r.ID, r.OffDate, r.OffTime, r.AlarmTime, r.SleptMinutes/60, r.SleptMinutes%60, r.ImagePath)
	}
	return tw.Flush()
}
