// Package config holds the daemon configuration and the paths derived from it.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/sweeney/wakelight/internal/history"
	"github.com/sweeney/wakelight/internal/state"
)

// ImagesDirName is the directory under DataDir holding captured hand images.
const ImagesDirName = "images"

// Defaults used by the command line.
const (
	DefaultDataDir    = "./data"
	DefaultHTTPAddr   = ":3000"
	DefaultTick       = 50 * time.Millisecond
	DefaultHeartbeat  = 15 * time.Minute
	DefaultNetworkEnv = "/run/pi-helper.env"
	minTick           = 10 * time.Millisecond
	maxPin            = 27
)

// Config is the validated daemon configuration.
type Config struct {
	DataDir       string
	HTTPAddr      string // empty disables the gateway
	Broker        string // MQTT broker URL, empty disables MQTT
	NATSURL       string // empty disables NATS
	PinLight      int
	PinButton     int
	NoGPIO        bool          // use in-memory light and button
	Tick          time.Duration // button polling interval
	Debounce      time.Duration
	Heartbeat     time.Duration // 0 disables heartbeats
	FrameInterval time.Duration
	NetworkEnv    string // pi-helper env file, empty to skip
}

// Validate reports every problem with c at once.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.DataDir) == "" {
		errs = append(errs, errors.New("data dir is required"))
	}
	if c.Broker != "" && !strings.Contains(c.Broker, "://") {
		errs = append(errs, fmt.Errorf("mqtt broker %q must be a URL such as tcp://host:1883", c.Broker))
	}
	if c.NATSURL != "" && !strings.Contains(c.NATSURL, "://") {
		errs = append(errs, fmt.Errorf("nats url %q must be a URL such as nats://host:4222", c.NATSURL))
	}
	if !c.NoGPIO {
		if c.PinLight < 0 || c.PinLight > maxPin {
			errs = append(errs, fmt.Errorf("light pin %d out of range 0..%d", c.PinLight, maxPin))
		}
		if c.PinButton < 0 || c.PinButton > maxPin {
			errs = append(errs, fmt.Errorf("button pin %d out of range 0..%d", c.PinButton, maxPin))
		}
		if c.PinLight == c.PinButton {
			errs = append(errs, fmt.Errorf("light and button share pin %d", c.PinLight))
		}
	}
	if c.Tick < minTick {
		errs = append(errs, fmt.Errorf("tick %v is below %v", c.Tick, minTick))
	}
	if c.Debounce < 0 {
		errs = append(errs, fmt.Errorf("debounce %v is negative", c.Debounce))
	}
	if c.Heartbeat < 0 {
		errs = append(errs, fmt.Errorf("heartbeat %v is negative", c.Heartbeat))
	}
	if c.FrameInterval <= 0 {
		errs = append(errs, fmt.Errorf("frame interval %v must be positive", c.FrameInterval))
	}
	return errors.Join(errs...)
}

// StatePath is the session state file.
func (c Config) StatePath() string {
	return filepath.Join(c.DataDir, state.FileName)
}

// DBPath is the session history database.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, history.FileName)
}

// ImagesDir holds captured hand images served under /images/.
func (c Config) ImagesDir() string {
	return filepath.Join(c.DataDir, ImagesDirName)
}

// EnsureDirs creates the data and images directories.
func (c Config) EnsureDirs() error {
	if err := os.MkdirAll(c.ImagesDir(), 0o755); err != nil {
		return fmt.Errorf("create data directories: %w", err)
	}
	return nil
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are skipped, so a bare checkout runs without a .env.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// ReadEnvFile parses a KEY=VALUE file. A missing file yields an empty map.
func ReadEnvFile(path string) (map[string]string, error) {
	if path == "" {
		return map[string]string{}, nil
	}
	vals, err := godotenv.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return vals, nil
}
