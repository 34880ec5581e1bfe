//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealLight is not available on non-Linux platforms.
type RealLight struct{}

// NewRealLight returns an error on non-Linux platforms.
func NewRealLight(pin int) (*RealLight, error) {
	return nil, errUnsupported
}

func (l *RealLight) Set(on bool) error { return errUnsupported }
func (l *RealLight) IsOn() bool        { return false }
func (l *RealLight) Close() error      { return nil }

// RealButton is not available on non-Linux platforms.
type RealButton struct{}

// NewRealButton returns an error on non-Linux platforms.
func NewRealButton(pin int) (*RealButton, error) {
	return nil, errUnsupported
}

func (b *RealButton) Pressed() (bool, error) { return false, errUnsupported }
func (b *RealButton) Close() error           { return nil }
