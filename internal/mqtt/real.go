package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/wakelight/internal/alarm"
	"github.com/sweeney/wakelight/internal/events"
)

// Publisher publishes to an MQTT broker. Messages produced while the
// connection is down are kept in a ring buffer and replayed on reconnect.
type Publisher struct {
	client client

	mu  sync.Mutex
	buf *ringBuffer
}

// NewPublisher connects to broker. The connection is retried in the
// background, so an unreachable broker at startup is not an error: events
// are buffered until it comes up.
func NewPublisher(broker string) (*Publisher, error) {
	if broker == "" {
		return nil, fmt.Errorf("mqtt broker address is empty")
	}

	p := &Publisher{buf: newRingBuffer(BufferCapacity)}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(TopicSystem, string(WillPayload()), 1, true).
		SetOnConnectHandler(func(paho.Client) { p.onConnect() }).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		})

	c := paho.NewClient(opts)
	p.client = c

	token := c.Connect()
	if !token.WaitTimeout(connectTimeout) {
		log.Printf("mqtt: broker %s not reachable yet, buffering until connected", broker)
		return p, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return p, nil
}

func newPublisherWithClient(c client) *Publisher {
	return &Publisher{client: c, buf: newRingBuffer(BufferCapacity)}
}

// Publish sends an alarm transition (QoS 0, not retained).
func (p *Publisher) Publish(t alarm.Transition) error {
	payload, err := events.FormatPayload(t)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	return p.send(pendingMsg{topic: TopicEvents, payload: payload, qos: 0})
}

// PublishSystem sends a system lifecycle event (QoS 1).
func (p *Publisher) PublishSystem(event events.SystemEvent) error {
	payload, err := events.FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.send(pendingMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
}

func (p *Publisher) send(msg pendingMsg) error {
	if !p.client.IsConnectionOpen() {
		p.mu.Lock()
		p.buf.push(msg)
		p.mu.Unlock()
		return nil
	}
	return p.publish(msg)
}

func (p *Publisher) publish(msg pendingMsg) error {
	token := p.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s: timeout", msg.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", msg.topic, err)
	}
	return nil
}

// onConnect replays buffered messages in order, then announces the
// reconnection. Runs on paho's callback goroutine.
func (p *Publisher) onConnect() {
	p.mu.Lock()
	pending, dropped := p.buf.drainAll()
	p.mu.Unlock()

	if len(pending) > 0 || dropped > 0 {
		log.Printf("mqtt: connected, replaying %d buffered messages (%d dropped)", len(pending), dropped)
	}
	for _, msg := range pending {
		if err := p.publish(msg); err != nil {
			log.Printf("mqtt: replay: %v", err)
		}
	}

	payload, err := events.FormatSystemPayload(events.SystemEvent{
		Timestamp: time.Now(),
		Event:     "RECONNECTED",
	})
	if err != nil {
		return
	}
	if err := p.publish(pendingMsg{topic: TopicSystem, payload: payload, qos: 1}); err != nil {
		log.Printf("mqtt: %v", err)
	}
}

// Buffered returns the number of messages waiting for a connection.
func (p *Publisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.len()
}

// IsConnected reports whether the broker connection is up.
func (p *Publisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *Publisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
