package internal

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sweeney/wakelight/internal/alarm"
	"github.com/sweeney/wakelight/internal/events"
	"github.com/sweeney/wakelight/internal/gpio"
	"github.com/sweeney/wakelight/internal/history"
	"github.com/sweeney/wakelight/internal/metrics"
	"github.com/sweeney/wakelight/internal/schedule"
	"github.com/sweeney/wakelight/internal/state"
	"github.com/sweeney/wakelight/internal/status"
	"github.com/sweeney/wakelight/internal/web"
)

type rig struct {
	dir       string
	clock     *clockwork.FakeClock
	ctrl      *alarm.Controller
	records   *history.Store
	light     *gpio.FakeLight
	publisher *events.FakePublisher
	server    *httptest.Server
}

// newRig wires the controller to real state and history stores, the light
// and a fake broker, and serves the HTTP gateway in front of it.
func newRig(t *testing.T) *rig {
	t.Helper()
	dir := t.TempDir()

	states, err := state.Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	records, err := history.Open(filepath.Join(dir, history.FileName))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { records.Close() })

	clock := clockwork.NewFakeClockAt(time.Date(2026, 1, 1, 22, 0, 0, 0, time.UTC))
	ctrl := alarm.NewController(states, records, schedule.NewTimers(clock), clock)

	reg := prometheus.NewRegistry()
	recorder := metrics.NewRecorder(reg)
	light := gpio.NewFakeLight()
	publisher := events.NewFakePublisher()

	fan := events.NewFanout()
	fan.Add("light", events.NewLightSink(light))
	fan.Add("metrics", recorder)
	fan.Add("mqtt", publisher)
	ctrl.SetNotifier(fan)

	srv := web.New("", web.Options{
		Alarm:    ctrl,
		Tracker:  status.NewTracker(clock.Now(), status.Config{}),
		Recorder: recorder,
		Metrics:  metrics.HTTPHandler(reg),
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &rig{dir: dir, clock: clock, ctrl: ctrl, records: records, light: light, publisher: publisher, server: ts}
}

func (r *rig) do(t *testing.T, method, path, body string) (int, string) {
	t.Helper()
	req, err := http.NewRequest(method, r.server.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, string(data)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// TestIntegrationOvernight configures an alarm, hands off at 22:00 and lets
// the fake clock run to 07:00.
func TestIntegrationOvernight(t *testing.T) {
	r := newRig(t)

	code, body := r.do(t, http.MethodPost, "/api/alarma", `{"hora_alarma":"07:00"}`)
	if code != http.StatusOK {
		t.Fatalf("configure: %d %s", code, body)
	}
	if !r.light.IsOn() {
		t.Error("light should be on once an alarm is configured")
	}

	code, body = r.do(t, http.MethodPost, "/api/hand-detected", `{"image_path":"/tmp/captures/hand.jpg"}`)
	if code != http.StatusOK {
		t.Fatalf("hand-detected: %d %s", code, body)
	}
	var hand web.HandResponse
	if err := json.Unmarshal([]byte(body), &hand); err != nil {
		t.Fatal(err)
	}
	if !hand.Success || hand.MinutesToAlarm == nil || *hand.MinutesToAlarm != 540 {
		t.Fatalf("hand response: %s", body)
	}
	if r.light.IsOn() {
		t.Error("light should be off during the countdown")
	}

	// A second hand signal during the countdown is rejected.
	_, body = r.do(t, http.MethodPost, "/api/hand-detected", `{}`)
	if !strings.Contains(body, `"success":false`) {
		t.Errorf("second hand signal: %s", body)
	}

	r.clock.Advance(9 * time.Hour)
	waitFor(t, "session record", func() bool {
		recs, err := r.records.Recent(context.Background(), 10)
		return err == nil && len(recs) == 1
	})
	waitFor(t, "FIRED transition", func() bool { return len(r.publisher.Types()) == 3 })
	if !r.light.IsOn() {
		t.Error("light should be on once the alarm fires")
	}

	code, body = r.do(t, http.MethodGet, "/api/historial", "")
	if code != http.StatusOK {
		t.Fatalf("history: %d %s", code, body)
	}
	var recs []alarm.Record
	if err := json.Unmarshal([]byte(body), &recs); err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("history: got %d records", len(recs))
	}
	rec := recs[0]
	if rec.AlarmTime != "07:00" || rec.SleptMinutes != 540 || rec.ImagePath != "hand.jpg" {
		t.Errorf("record: %+v", rec)
	}
	if rec.OffTime != "22:00:00" {
		t.Errorf("OffTime: got %q", rec.OffTime)
	}

	want := []alarm.TransitionType{alarm.TransitionConfigured, alarm.TransitionCountdown, alarm.TransitionFired}
	got := r.publisher.Types()
	if len(got) != len(want) {
		t.Fatalf("transitions: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("transition %d: got %s, want %s", i, got[i], want[i])
		}
	}

	// The session is over and the persisted state says so.
	reopened, err := state.Open(r.dir)
	if err != nil {
		t.Fatal(err)
	}
	if st := reopened.Read(); st.AlarmSet || st.Monitoring {
		t.Errorf("persisted state after firing: %+v", st)
	}

	_, body = r.do(t, http.MethodGet, "/metrics", "")
	if !strings.Contains(body, `wakelight_alarm_fired_total{persisted="true"} 1`) {
		t.Errorf("metrics missing fired counter:\n%s", body)
	}
}

// TestIntegrationCancelledFromAPI cancels mid-countdown; nothing is recorded
// and the alarm never fires.
func TestIntegrationCancelledFromAPI(t *testing.T) {
	r := newRig(t)

	r.do(t, http.MethodPost, "/api/alarma", `{"hora_alarma":"07:00"}`)
	r.do(t, http.MethodPost, "/api/hand-detected", `{}`)
	r.clock.Advance(time.Hour)

	code, body := r.do(t, http.MethodPost, "/api/alarma/apagar", `{"metodo":"boton"}`)
	if code != http.StatusOK {
		t.Fatalf("apagar: %d %s", code, body)
	}
	if r.light.IsOn() {
		t.Error("light should be off after cancelling")
	}

	r.clock.Advance(12 * time.Hour)
	time.Sleep(50 * time.Millisecond)

	recs, err := r.records.Recent(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 0 {
		t.Errorf("expected no records, got %+v", recs)
	}

	_, body = r.do(t, http.MethodGet, "/api/estado", "")
	var st alarm.Status
	if err := json.Unmarshal([]byte(body), &st); err != nil {
		t.Fatal(err)
	}
	if st.Active || st.Monitoring {
		t.Errorf("status after cancel: %s", body)
	}

	types := r.publisher.Types()
	if len(types) == 0 || types[len(types)-1] != alarm.TransitionCancelled {
		t.Errorf("expected CANCELLED last, got %v", types)
	}
	if r.publisher.Transitions[len(r.publisher.Transitions)-1].Reason != "boton" {
		t.Errorf("cancel reason: %+v", r.publisher.Transitions[len(r.publisher.Transitions)-1])
	}
}

// TestIntegrationRestartRestoresConfiguredAlarm reopens the state directory
// with a fresh controller, as the daemon does after a restart. A running
// countdown is never restored.
func TestIntegrationRestartRestoresConfiguredAlarm(t *testing.T) {
	r := newRig(t)
	r.do(t, http.MethodPost, "/api/alarma", `{"hora_alarma":"06:45"}`)

	states, err := state.Open(r.dir)
	if err != nil {
		t.Fatal(err)
	}
	ctrl := alarm.NewController(states, r.records, schedule.NewTimers(r.clock), r.clock)
	if st := ctrl.State(); !st.AlarmSet || st.AlarmTime != "06:45" {
		t.Errorf("restored state: %+v", st)
	}
	if !ctrl.InProgress() {
		t.Error("restored alarm should be in progress")
	}
	st := ctrl.CurrentStatus()
	if st.Active || !st.AwaitingHand {
		t.Errorf("restored status: %+v", st)
	}

	// The hand-off still works against the restored configuration.
	minutes, err := ctrl.HandDetected("")
	if err != nil {
		t.Fatal(err)
	}
	if minutes != 525 {
		t.Errorf("minutes: got %d, want 525", minutes)
	}
	ctrl.Cancel()
}
