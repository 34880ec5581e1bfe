package main

import (
	"log"
	"os"
	"syscall"
	"time"

	"github.com/sweeney/wakelight/internal/alarm"
	"github.com/sweeney/wakelight/internal/button"
	"github.com/sweeney/wakelight/internal/config"
	"github.com/sweeney/wakelight/internal/events"
	"github.com/sweeney/wakelight/internal/gpio"
	"github.com/sweeney/wakelight/internal/status"
)

// alarmControl is the controller surface the run loop needs.
type alarmControl interface {
	InProgress() bool
	CancelBecause(reason string)
	CurrentStatus() alarm.Status
	State() alarm.SessionState
}

// daemon holds what the run loop touches on each tick.
type daemon struct {
	alarm      alarmControl
	light      gpio.Light
	button     gpio.Button
	detector   *button.Detector
	publishers []events.Publisher
	mqttStatus events.ConnectionStatus
	natsStatus events.ConnectionStatus
	tracker    *status.Tracker
	heartbeat  time.Duration
	networkEnv string
	now        func() time.Time
}

func runLoop(d *daemon, tick <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := events.SystemEvent{
				Timestamp: d.now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if d.tracker != nil {
				d.refresh()
				snap := d.tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			d.publishSystem(event)
			return nil

		case <-tick:
			t := d.now()
			pressed, err := d.button.Pressed()
			if err != nil {
				log.Printf("button read error: %v", err)
				continue
			}

			if d.detector.Process(pressed, t) {
				d.handlePress()
			}

			if d.tracker == nil {
				continue
			}
			if d.tracker.HeartbeatDue(t, d.heartbeat) {
				d.refresh()
				// Refresh network info for heartbeat
				if net := readNetworkInfo(d.networkEnv); net != nil {
					d.tracker.SetNetwork(net)
				}
				snap := d.tracker.Snapshot()
				log.Printf("heartbeat: uptime=%v state=%s light=%v presses=%d",
					snap.Uptime().Truncate(time.Second), status.StateName(snap), snap.LightOn, snap.ButtonPresses)
				d.publishSystem(events.SystemEvent{
					Timestamp:  t,
					Event:      "HEARTBEAT",
					RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
				})
			}

			// Update status tracker for HTTP consumers
			d.refresh()
		}
	}
}

// handlePress cancels a configured or running alarm. With nothing in
// progress the button is a plain light switch.
func (d *daemon) handlePress() {
	if d.alarm.InProgress() {
		log.Printf("button: cancelling alarm")
		d.alarm.CancelBecause("button")
		return
	}
	on := !d.light.IsOn()
	if err := d.light.Set(on); err != nil {
		log.Printf("button: switch light: %v", err)
		return
	}
	log.Printf("button: light %s", onOff(on))
}

// refresh copies controller, device and broker state into the tracker.
func (d *daemon) refresh() {
	if d.tracker == nil {
		return
	}
	d.tracker.UpdateAlarm(d.alarm.CurrentStatus(), d.alarm.State())
	d.tracker.UpdateDevices(d.light.IsOn(), d.detector.Presses())
	if d.mqttStatus != nil {
		d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
	}
	if d.natsStatus != nil {
		d.tracker.SetNATSConnected(d.natsStatus.IsConnected())
	}
}

func (d *daemon) publishSystem(event events.SystemEvent) {
	for _, p := range d.publishers {
		if err := p.PublishSystem(event); err != nil {
			log.Printf("failed to publish %s event: %v", event.Event, err)
		}
	}
	if len(d.publishers) > 0 {
		log.Printf("published %s event", event.Event)
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

// readNetworkInfo reads pi-helper's env file, falling back to the process
// environment for anything the file does not set.
func readNetworkInfo(path string) *status.NetworkInfo {
	vals, err := config.ReadEnvFile(path)
	if err != nil {
		log.Printf("network info: %v", err)
		vals = map[string]string{}
	}
	get := func(key string) string {
		if v, ok := vals[key]; ok {
			return v
		}
		return os.Getenv(key)
	}

	s := get(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       get(envNetworkType),
		IP:         get(envNetworkIP),
		Status:     s,
		Gateway:    get(envNetworkGateway),
		WifiStatus: get(envNetworkWifiStatus),
		SSID:       get(envNetworkWifiSSID),
	}
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}
