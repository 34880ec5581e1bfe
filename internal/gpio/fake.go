package gpio

import (
	"errors"
	"sync"
)

// FakeLight records Set calls. It is also used when the daemon runs
// without GPIO (--no-gpio).
type FakeLight struct {
	mu sync.Mutex
	on bool

	// History contains every value successfully set.
	History []bool

	// SetError, if set, will be returned by Set().
	SetError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeLight creates a FakeLight that starts off.
func NewFakeLight() *FakeLight {
	return &FakeLight{}
}

// Set records the value.
func (f *FakeLight) Set(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SetError != nil {
		return f.SetError
	}
	f.on = on
	f.History = append(f.History, on)
	return nil
}

// IsOn returns the last value set.
func (f *FakeLight) IsOn() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.on
}

// Close switches the light off and marks it closed.
func (f *FakeLight) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.on = false
	f.Closed = true
	return nil
}

// FakeButton is a test double that returns scripted button levels.
type FakeButton struct {
	// Samples contains scripted levels to return.
	// Each call to Pressed() consumes the next sample.
	Samples []bool

	// index tracks current position in Samples
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Pressed()
	ReadError error
}

// NewFakeButton creates a FakeButton with the given samples.
func NewFakeButton(samples []bool) *FakeButton {
	return &FakeButton{Samples: samples}
}

// Pressed returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeButton) Pressed() (bool, error) {
	if f.ReadError != nil {
		return false, f.ReadError
	}

	if len(f.Samples) == 0 {
		return false, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return sample, nil
}

// Close marks the button as closed.
func (f *FakeButton) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds the button to the first sample.
func (f *FakeButton) Reset() {
	f.index = 0
	f.Closed = false
}
