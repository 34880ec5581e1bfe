// Package events delivers alarm transitions to the light, the message
// brokers and the metrics recorder.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/sweeney/wakelight/internal/alarm"
)

// Sink receives alarm transitions.
type Sink interface {
	// Publish delivers one transition.
	// Returns error if delivery fails (should not crash the process).
	Publish(t alarm.Transition) error
}

// Publisher is a Sink backed by a message broker.
type Publisher interface {
	Sink

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether a broker connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the broker message for an alarm transition.
type Payload struct {
	Alarm AlarmPayload `json:"alarm"`
}

// AlarmPayload contains the transition details.
type AlarmPayload struct {
	ID           string `json:"id"`
	Timestamp    string `json:"timestamp"`
	Event        string `json:"event"`
	AlarmTime    string `json:"alarm_time,omitempty"`
	MinutesUntil int    `json:"minutes_until,omitempty"`
	Image        string `json:"image,omitempty"`
	Reason       string `json:"reason,omitempty"`
	Persisted    *bool  `json:"persisted,omitempty"`
}

// FormatPayload creates the JSON payload for a transition. Each call gets a
// fresh event id.
func FormatPayload(t alarm.Transition) ([]byte, error) {
	p := AlarmPayload{
		ID:           uuid.NewString(),
		Timestamp:    t.Timestamp.UTC().Format(time.RFC3339),
		Event:        string(t.Type),
		AlarmTime:    t.AlarmTime,
		MinutesUntil: t.MinutesUntil,
		Image:        t.Image,
		Reason:       t.Reason,
	}
	if t.Type == alarm.TransitionFired {
		persisted := t.Persisted
		p.Persisted = &persisted
	}
	return json.Marshal(Payload{Alarm: p})
}

// SystemPayload represents the broker message for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
