package status

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/wakelight/internal/alarm"
)

func intPtr(n int) *int { return &n }

func TestNewTracker(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := Config{TickMs: 50, DebounceMs: 300, Broker: "tcp://localhost:1883", HTTPAddr: ":3000"}
	tr := NewTracker(start, cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.Config.TickMs != 50 {
		t.Errorf("Config.TickMs: got %d, want 50", snap.Config.TickMs)
	}
	if snap.Config.HTTPAddr != ":3000" {
		t.Errorf("Config.HTTPAddr: got %q, want %q", snap.Config.HTTPAddr, ":3000")
	}
	if snap.LightOn {
		t.Error("expected LightOn=false initially")
	}
	if snap.MQTTConnected || snap.NATSConnected {
		t.Error("expected brokers disconnected initially")
	}
}

func TestUpdateAndSnapshot(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.UpdateAlarm(
		alarm.Status{Active: true, AlarmTime: "07:00", MinutesRemaining: intPtr(42)},
		alarm.SessionState{},
	)
	tr.UpdateDevices(true, 3)

	snap := tr.Snapshot()
	if !snap.Alarm.Active || snap.Alarm.AlarmTime != "07:00" {
		t.Errorf("Alarm: got %+v", snap.Alarm)
	}
	if !snap.LightOn {
		t.Error("expected LightOn=true")
	}
	if snap.ButtonPresses != 3 {
		t.Errorf("ButtonPresses: got %d, want 3", snap.ButtonPresses)
	}
}

func TestSetConnections(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.SetMQTTConnected(true)
	tr.SetNATSConnected(true)
	snap := tr.Snapshot()
	if !snap.MQTTConnected || !snap.NATSConnected {
		t.Error("expected both connected")
	}

	tr.SetMQTTConnected(false)
	if tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=false")
	}
}

func TestSnapshotUptime(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{StartTime: start, Now: start.Add(90 * time.Second)}
	if snap.Uptime() != 90*time.Second {
		t.Errorf("Uptime: got %v, want 90s", snap.Uptime())
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.UpdateDevices(true, 1)
	snap := tr.Snapshot()

	tr.UpdateDevices(false, 2)
	if !snap.LightOn || snap.ButtonPresses != 1 {
		t.Error("snapshot changed after later update")
	}
}

func TestHeartbeatDue(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := NewTracker(start, Config{})

	if tr.HeartbeatDue(start.Add(14*time.Minute), 15*time.Minute) {
		t.Error("heartbeat before interval")
	}
	if !tr.HeartbeatDue(start.Add(15*time.Minute), 15*time.Minute) {
		t.Error("expected heartbeat at interval")
	}
	if tr.HeartbeatDue(start.Add(16*time.Minute), 15*time.Minute) {
		t.Error("interval should restart after a heartbeat")
	}
	if !tr.HeartbeatDue(start.Add(30*time.Minute), 15*time.Minute) {
		t.Error("expected second heartbeat")
	}
}

func TestHeartbeatDisabled(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := NewTracker(start, Config{})
	if tr.HeartbeatDue(start.Add(24*time.Hour), 0) {
		t.Error("zero interval should disable heartbeats")
	}
	if tr.HeartbeatDue(start.Add(24*time.Hour), -time.Minute) {
		t.Error("negative interval should disable heartbeats")
	}
}

func TestStateName(t *testing.T) {
	tests := []struct {
		name string
		snap Snapshot
		want string
	}{
		{"idle", Snapshot{}, StateIdle},
		{"configured", Snapshot{Session: alarm.SessionState{Monitoring: true, AlarmSet: true, AlarmTime: "07:00"}}, StateConfigured},
		{"counting down", Snapshot{Alarm: alarm.Status{Active: true}}, StateCountingDown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StateName(tt.snap); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatJSON(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Alarm:         alarm.Status{Active: true, AlarmTime: "07:00", MinutesRemaining: intPtr(525), Image: "hand.jpg"},
		LightOn:       false,
		ButtonPresses: 2,
		StartTime:     start,
		Now:           start.Add(15 * time.Minute),
		MQTTConnected: true,
		Config:        Config{TickMs: 50, DebounceMs: 300, HeartbeatMs: 900000, Broker: "tcp://localhost:1883", HTTPAddr: ":3000"},
	}

	data := FormatJSON(snap)

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.State != StateCountingDown {
		t.Errorf("State: got %q, want %s", parsed.Status.State, StateCountingDown)
	}
	if parsed.Status.Alarm.MinutesRemaining == nil || *parsed.Status.Alarm.MinutesRemaining != 525 {
		t.Errorf("MinutesRemaining: got %v, want 525", parsed.Status.Alarm.MinutesRemaining)
	}
	if parsed.Status.Light != "OFF" {
		t.Errorf("Light: got %q, want OFF", parsed.Status.Light)
	}
	if parsed.Status.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", parsed.Status.UptimeSeconds)
	}
	if !parsed.Status.MQTT.Enabled || !parsed.Status.MQTT.Connected {
		t.Errorf("MQTT: got %+v", parsed.Status.MQTT)
	}
	if parsed.Status.NATS.Enabled {
		t.Error("expected NATS disabled without URL")
	}
	// Event and Reason should be omitted
	if parsed.Status.Event != "" || parsed.Status.Reason != "" {
		t.Errorf("expected empty event/reason for web format, got %q/%q", parsed.Status.Event, parsed.Status.Reason)
	}
}

func TestFormatJSONConfiguredShowsAlarmTime(t *testing.T) {
	snap := Snapshot{
		Alarm:   alarm.Status{Monitoring: true, AwaitingHand: true},
		Session: alarm.SessionState{Monitoring: true, AlarmSet: true, AlarmTime: "06:45"},
	}

	var parsed StatusJSON
	if err := json.Unmarshal(FormatJSON(snap), &parsed); err != nil {
		t.Fatal(err)
	}
	if parsed.Status.State != StateConfigured {
		t.Errorf("State: got %q", parsed.Status.State)
	}
	if parsed.Status.Alarm.AlarmTime != "06:45" {
		t.Errorf("AlarmTime: got %q", parsed.Status.Alarm.AlarmTime)
	}
	if parsed.Status.Alarm.MinutesRemaining != nil {
		t.Error("no countdown while waiting for the hand")
	}
}

func TestFormatStatusEvent(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{StartTime: start, Now: start.Add(time.Hour)}

	var parsed StatusJSON
	if err := json.Unmarshal(FormatStatusEvent(snap, "SHUTDOWN", "SIGTERM"), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Status.Event != "SHUTDOWN" {
		t.Errorf("Event: got %q, want SHUTDOWN", parsed.Status.Event)
	}
	if parsed.Status.Reason != "SIGTERM" {
		t.Errorf("Reason: got %q, want SIGTERM", parsed.Status.Reason)
	}
	if parsed.Status.State != StateIdle {
		t.Errorf("State: got %q, want IDLE", parsed.Status.State)
	}
}

func TestFormatStatusEventOmitsReasonWhenEmpty(t *testing.T) {
	data := FormatStatusEvent(Snapshot{}, "HEARTBEAT", "")

	var raw map[string]map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if _, ok := raw["status"]["reason"]; ok {
		t.Error("reason should be omitted when empty")
	}
}

func TestFormatJSONWithNetwork(t *testing.T) {
	snap := Snapshot{Network: &NetworkInfo{Type: "wifi", IP: "192.168.1.42", Status: "connected", SSID: "MyNet"}}

	var parsed StatusJSON
	if err := json.Unmarshal(FormatJSON(snap), &parsed); err != nil {
		t.Fatal(err)
	}
	if parsed.Status.Network == nil {
		t.Fatal("expected network section")
	}
	if parsed.Status.Network.SSID != "MyNet" {
		t.Errorf("Network.SSID: got %q, want MyNet", parsed.Status.Network.SSID)
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	var wg sync.WaitGroup

	// Writer
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			tr.UpdateAlarm(alarm.Status{Active: i%2 == 0}, alarm.SessionState{})
			tr.UpdateDevices(i%2 == 1, i)
			tr.SetMQTTConnected(i%2 == 0)
			tr.SetNetwork(&NetworkInfo{IP: "1.2.3.4"})
		}
	}()

	// Reader
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			snap := tr.Snapshot()
			_ = snap.Uptime()
			_ = tr.HeartbeatDue(time.Now(), time.Hour)
		}
	}()

	wg.Wait()
}
