// Package camera relays the most recent camera frame to stream viewers.
package camera

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Boundary separates parts of the video stream.
const Boundary = "frame"

// ContentType is the response type of a video stream.
const ContentType = "multipart/x-mixed-replace; boundary=" + Boundary

// DefaultInterval is how often a viewer receives the latest frame.
const DefaultInterval = 200 * time.Millisecond

// MaxFrameBytes bounds a single decoded frame.
const MaxFrameBytes = 4 << 20

// ErrFrameTooLarge is returned by SetFrame for frames over MaxFrameBytes.
var ErrFrameTooLarge = errors.New("frame too large")

// Relay holds the latest JPEG frame. Frames are replaced, never queued:
// a slow viewer skips frames rather than delaying the producer.
type Relay struct {
	clock clockwork.Clock

	mu      sync.RWMutex
	frame   []byte
	updated time.Time
}

// NewRelay creates an empty Relay. A nil clock means the real clock.
func NewRelay(clock clockwork.Clock) *Relay {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Relay{clock: clock}
}

// SetFrame replaces the latest frame. Empty frames are ignored.
func (r *Relay) SetFrame(frame []byte) error {
	if len(frame) == 0 {
		return nil
	}
	if len(frame) > MaxFrameBytes {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(frame))
	}
	r.mu.Lock()
	r.frame = frame
	r.updated = r.clock.Now()
	r.mu.Unlock()
	return nil
}

// Latest returns the latest frame and when it arrived; nil before the first.
// The returned slice must not be modified.
func (r *Relay) Latest() ([]byte, time.Time) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frame, r.updated
}

// Stream writes the latest frame to w as a multipart part every interval
// until ctx is done or a write fails. Ticks before the first frame write
// nothing. If w is an http.Flusher each part is flushed.
func (r *Relay) Stream(ctx context.Context, w io.Writer, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultInterval
	}
	mw := multipart.NewWriter(w)
	if err := mw.SetBoundary(Boundary); err != nil {
		return fmt.Errorf("set boundary: %w", err)
	}
	flusher, _ := w.(http.Flusher)

	header := textproto.MIMEHeader{}
	header.Set("Content-Type", "image/jpeg")

	ticker := r.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			frame, _ := r.Latest()
			if frame == nil {
				continue
			}
			part, err := mw.CreatePart(header)
			if err != nil {
				return fmt.Errorf("write part header: %w", err)
			}
			if _, err := part.Write(frame); err != nil {
				return fmt.Errorf("write frame: %w", err)
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}
