// Package status provides a thread-safe status tracker for the wakelight daemon.
// It is read by the HTTP status page and the heartbeat publisher.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/wakelight/internal/alarm"
)

// NetworkInfo contains network state as reported by pi-helper.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	TickMs      int64
	DebounceMs  int64
	HeartbeatMs int64
	Broker      string
	NATSURL     string
	HTTPAddr    string
	DataDir     string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Alarm         alarm.Status
	Session       alarm.SessionState
	LightOn       bool
	ButtonPresses int
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	NATSConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu            sync.RWMutex
	snap          Snapshot
	lastHeartbeat time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		lastHeartbeat: startTime,
	}
}

// UpdateAlarm records the controller's view of the alarm.
// Called from runLoop on every tick.
func (t *Tracker) UpdateAlarm(st alarm.Status, session alarm.SessionState) {
	t.mu.Lock()
	t.snap.Alarm = st
	t.snap.Session = session
	t.mu.Unlock()
}

// UpdateDevices sets the light level and the number of button presses seen.
func (t *Tracker) UpdateDevices(lightOn bool, presses int) {
	t.mu.Lock()
	t.snap.LightOn = lightOn
	t.snap.ButtonPresses = presses
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNATSConnected sets the NATS connection status.
func (t *Tracker) SetNATSConnected(connected bool) {
	t.mu.Lock()
	t.snap.NATSConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// HeartbeatDue reports whether interval has elapsed since the last
// heartbeat (or startup) and, if so, restarts the interval at now.
// An interval <= 0 disables heartbeats.
func (t *Tracker) HeartbeatDue(now time.Time, interval time.Duration) bool {
	if interval <= 0 {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if now.Sub(t.lastHeartbeat) < interval {
		return false
	}
	t.lastHeartbeat = now
	return true
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
