// Package mqtt publishes alarm transitions to an MQTT broker.
package mqtt

import (
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/wakelight/internal/events"
)

// TopicEvents is the MQTT topic for alarm transitions.
const TopicEvents = "home/wakelight/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "home/wakelight/system"

// ClientID identifies the daemon to the broker.
const ClientID = "wakelight"

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// client is the subset of paho.Client used by Publisher.
type client interface {
	IsConnectionOpen() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// WillPayload is the retained last-will message the broker publishes on
// TopicSystem when the daemon disappears without a clean shutdown.
func WillPayload() []byte {
	payload, err := events.FormatSystemPayload(events.SystemEvent{
		Timestamp: time.Now(),
		Event:     "OFFLINE",
		Reason:    "connection_lost",
	})
	if err != nil {
		return []byte(`{"system":{"event":"OFFLINE"}}`)
	}
	return payload
}
