package events

import (
	"log"

	"github.com/sweeney/wakelight/internal/alarm"
)

// Fanout implements alarm.Notifier by publishing each transition to every
// sink in order. A failing sink is logged and does not stop the others.
type Fanout struct {
	sinks []namedSink
}

type namedSink struct {
	name string
	sink Sink
}

// NewFanout creates an empty Fanout.
func NewFanout() *Fanout {
	return &Fanout{}
}

// Add registers a sink under a name used in log lines. Nil sinks are ignored.
// Not safe to call concurrently with Notify; register sinks during startup.
func (f *Fanout) Add(name string, s Sink) {
	if s == nil {
		return
	}
	f.sinks = append(f.sinks, namedSink{name: name, sink: s})
}

// Len returns the number of registered sinks.
func (f *Fanout) Len() int {
	return len(f.sinks)
}

// Notify publishes t to all sinks.
func (f *Fanout) Notify(t alarm.Transition) {
	for _, s := range f.sinks {
		if err := s.sink.Publish(t); err != nil {
			log.Printf("%s: publish %s: %v", s.name, t.Type, err)
		}
	}
}
