package events

import (
	"fmt"

	"github.com/sweeney/wakelight/internal/alarm"
	"github.com/sweeney/wakelight/internal/gpio"
)

// LightSink switches the bedroom light on alarm transitions: on while
// waiting for the hand, off during the countdown, on when the alarm fires,
// off when cancelled.
type LightSink struct {
	light gpio.Light
}

// NewLightSink creates a LightSink driving light.
func NewLightSink(light gpio.Light) *LightSink {
	return &LightSink{light: light}
}

// Publish applies the light level for t.
func (s *LightSink) Publish(t alarm.Transition) error {
	on, ok := lightLevel(t.Type)
	if !ok {
		return nil
	}
	if err := s.light.Set(on); err != nil {
		return fmt.Errorf("switch light: %w", err)
	}
	return nil
}

func lightLevel(tt alarm.TransitionType) (on bool, ok bool) {
	switch tt {
	case alarm.TransitionConfigured, alarm.TransitionFired:
		return true, true
	case alarm.TransitionCountdown, alarm.TransitionCancelled:
		return false, true
	}
	return false, false
}
