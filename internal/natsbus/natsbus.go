// Package natsbus publishes alarm transitions to NATS subjects.
package natsbus

import (
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/sweeney/wakelight/internal/alarm"
	"github.com/sweeney/wakelight/internal/events"
)

const (
	// SubjectEvents carries alarm transitions.
	SubjectEvents = "wakelight.events"
	// SubjectSystem carries system lifecycle events.
	SubjectSystem = "wakelight.system"
)

const flushTimeout = 2 * time.Second

// conn is the subset of *nats.Conn used by Publisher.
type conn interface {
	Publish(subj string, data []byte) error
	FlushTimeout(timeout time.Duration) error
	IsConnected() bool
	Drain() error
}

// Publisher publishes to a NATS server. Core NATS has no persistence;
// nats.go buffers while reconnecting.
type Publisher struct {
	conn conn
}

// NewPublisher connects to the server at url.
func NewPublisher(url string) (*Publisher, error) {
	if url == "" {
		return nil, fmt.Errorf("nats url is empty")
	}
	nc, err := nats.Connect(url,
		nats.Name("wakelight"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Printf("nats: disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("nats: reconnected to %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	log.Printf("nats: connected to %s", nc.ConnectedUrl())
	return &Publisher{conn: nc}, nil
}

// Publish sends an alarm transition on SubjectEvents.
func (p *Publisher) Publish(t alarm.Transition) error {
	payload, err := events.FormatPayload(t)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	if err := p.conn.Publish(SubjectEvents, payload); err != nil {
		return fmt.Errorf("publish %s: %w", SubjectEvents, err)
	}
	return nil
}

// PublishSystem sends a system event on SubjectSystem and flushes, so
// SHUTDOWN leaves the process before the connection is drained.
func (p *Publisher) PublishSystem(event events.SystemEvent) error {
	payload, err := events.FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	if err := p.conn.Publish(SubjectSystem, payload); err != nil {
		return fmt.Errorf("publish %s: %w", SubjectSystem, err)
	}
	if !p.conn.IsConnected() {
		return nil
	}
	if err := p.conn.FlushTimeout(flushTimeout); err != nil {
		return fmt.Errorf("flush %s: %w", SubjectSystem, err)
	}
	return nil
}

// IsConnected reports whether the server connection is up.
func (p *Publisher) IsConnected() bool {
	return p.conn.IsConnected()
}

// Close drains pending messages and closes the connection.
func (p *Publisher) Close() error {
	return p.conn.Drain()
}
