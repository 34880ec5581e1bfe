package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	State         string       `json:"state"`
	Alarm         AlarmJSON    `json:"alarm"`
	Light         string       `json:"light"`
	ButtonPresses int          `json:"button_presses"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          BrokerStatus `json:"mqtt"`
	NATS          BrokerStatus `json:"nats"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// AlarmJSON describes the configured or running alarm.
type AlarmJSON struct {
	AlarmTime        string `json:"alarm_time,omitempty"`
	MinutesRemaining *int   `json:"minutes_remaining,omitempty"`
	Image            string `json:"image,omitempty"`
}

// BrokerStatus reports a broker connection.
type BrokerStatus struct {
	Enabled   bool   `json:"enabled"`
	Connected bool   `json:"connected"`
	URL       string `json:"url,omitempty"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	TickMs      int64  `json:"tick_ms"`
	DebounceMs  int64  `json:"debounce_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker,omitempty"`
	NATSURL     string `json:"nats_url,omitempty"`
	HTTPAddr    string `json:"http_addr"`
	DataDir     string `json:"data_dir"`
}

// Alarm states reported in StatusInner.State.
const (
	StateIdle         = "IDLE"
	StateConfigured   = "CONFIGURED"
	StateCountingDown = "COUNTING_DOWN"
)

// StateName returns the state machine state shown for snap.
func StateName(snap Snapshot) string {
	switch {
	case snap.Alarm.Active:
		return StateCountingDown
	case snap.Session.AlarmSet:
		return StateConfigured
	default:
		return StateIdle
	}
}

func lightString(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		State:         StateName(snap),
		Light:         lightString(snap.LightOn),
		ButtonPresses: snap.ButtonPresses,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT: BrokerStatus{
			Enabled:   snap.Config.Broker != "",
			Connected: snap.MQTTConnected,
			URL:       snap.Config.Broker,
		},
		NATS: BrokerStatus{
			Enabled:   snap.Config.NATSURL != "",
			Connected: snap.NATSConnected,
			URL:       snap.Config.NATSURL,
		},
		Config: ConfigJSON{
			TickMs:      snap.Config.TickMs,
			DebounceMs:  snap.Config.DebounceMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			NATSURL:     snap.Config.NATSURL,
			HTTPAddr:    snap.Config.HTTPAddr,
			DataDir:     snap.Config.DataDir,
		},
	}

	switch {
	case snap.Alarm.Active:
		inner.Alarm = AlarmJSON{
			AlarmTime:        snap.Alarm.AlarmTime,
			MinutesRemaining: snap.Alarm.MinutesRemaining,
			Image:            snap.Alarm.Image,
		}
	case snap.Session.AlarmSet:
		inner.Alarm = AlarmJSON{AlarmTime: snap.Session.AlarmTime}
	}
	return inner
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for a broker system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
