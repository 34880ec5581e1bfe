// Package metrics exposes alarm and camera activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeney/wakelight/internal/alarm"
)

const namespace = "wakelight"

// Recorder implements events.Sink and counts camera traffic.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	transitions   *prom.CounterVec
	fired         *prom.CounterVec
	countdown     prom.Gauge
	frames        prom.Counter
	frameBytes    prom.Histogram
	streamViewers prom.Gauge
}

// NewRecorder constructs the metrics and registers them with reg. A nil reg
// gets a fresh registry.
func NewRecorder(reg *prom.Registry) *Recorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	r := &Recorder{
		transitions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "alarm_transitions_total",
			Help:      "Alarm state machine transitions by type",
		}, []string{"type"}),
		fired: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "alarm_fired_total",
			Help:      "Fired alarms by whether the session record was stored",
		}, []string{"persisted"}),
		countdown: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "alarm_countdown_minutes",
			Help:      "Minutes from hand-off to alarm for the armed countdown, 0 when none",
		}),
		frames: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "camera_frames_total",
			Help:      "Camera frames received",
		}),
		frameBytes: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "camera_frame_bytes",
			Help:      "Size of received camera frames",
			Buckets:   prom.ExponentialBuckets(4096, 2, 8),
		}),
		streamViewers: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "camera_stream_viewers",
			Help:      "Open video stream connections",
		}),
	}
	reg.MustRegister(r.transitions, r.fired, r.countdown, r.frames, r.frameBytes, r.streamViewers)
	return r
}

// Publish records an alarm transition.
func (r *Recorder) Publish(t alarm.Transition) error {
	if r == nil {
		return nil
	}
	r.transitions.WithLabelValues(string(t.Type)).Inc()
	switch t.Type {
	case alarm.TransitionCountdown:
		r.countdown.Set(float64(t.MinutesUntil))
	case alarm.TransitionFired:
		r.fired.WithLabelValues(strconv.FormatBool(t.Persisted)).Inc()
		r.countdown.Set(0)
	case alarm.TransitionCancelled, alarm.TransitionConfigured:
		r.countdown.Set(0)
	}
	return nil
}

// ObserveFrame records a received camera frame of n bytes.
func (r *Recorder) ObserveFrame(n int) {
	if r == nil {
		return
	}
	r.frames.Inc()
	r.frameBytes.Observe(float64(n))
}

// StreamOpened records a new video stream viewer.
func (r *Recorder) StreamOpened() {
	if r == nil {
		return
	}
	r.streamViewers.Inc()
}

// StreamClosed records a video stream viewer leaving.
func (r *Recorder) StreamClosed() {
	if r == nil {
		return
	}
	r.streamViewers.Dec()
}

// HTTPHandler returns an http.Handler that serves the metrics in reg.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
