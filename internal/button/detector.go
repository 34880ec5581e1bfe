// Package button turns raw push-button samples into presses.
// This package has NO external dependencies (no GPIO or time.Sleep).
// Time is always injectable via time.Time parameters.
package button

import "time"

// DefaultDebounce is the lockout between two counted presses.
const DefaultDebounce = 300 * time.Millisecond

// Confirm is how long a level must hold before it is believed. A tap
// shorter than this is contact noise.
const Confirm = 50 * time.Millisecond

// Detector reports one press per confirmed release-to-press transition,
// ignoring presses that start within the lockout of the previous one.
type Detector struct {
	lockout time.Duration
	confirm time.Duration

	stable       bool // confirmed level, true = pressed
	pending      bool
	pendingSince time.Time
	hasPending   bool
	baselined    bool

	lastPress time.Time
	pressed   bool // at least one press counted

	presses int
}

// NewDetector creates a detector that counts at most one press per lockout.
func NewDetector(lockout time.Duration) *Detector {
	return &Detector{lockout: lockout, confirm: Confirm}
}

// Process takes a raw sample and returns true exactly once per press.
// The first confirmed level only establishes a baseline, so a button held
// down at startup does not count as a press.
func (d *Detector) Process(pressed bool, now time.Time) bool {
	if d.baselined && pressed == d.stable {
		// No change from stable level, clear any pending
		d.hasPending = false
		return false
	}

	if !d.hasPending || d.pending != pressed {
		// New pending level
		d.pending = pressed
		d.pendingSince = now
		d.hasPending = true
		return false
	}

	if now.Sub(d.pendingSince) < d.confirm {
		return false
	}

	d.hasPending = false
	d.stable = pressed
	if !d.baselined {
		d.baselined = true
		return false
	}
	if !pressed {
		return false
	}
	if d.pressed && now.Sub(d.lastPress) < d.lockout {
		return false
	}

	d.lastPress = now
	d.pressed = true
	d.presses++
	return true
}

// IsBaselined returns whether the initial level has been established.
func (d *Detector) IsBaselined() bool {
	return d.baselined
}

// Presses returns the number of presses reported since creation.
func (d *Detector) Presses() int {
	return d.presses
}
