// Package gpio drives the bedroom light relay and reads the push button.
// The real implementation uses the Linux GPIO character device.
// The fake implementations allow testing without hardware.
package gpio

// Light switches the light relay.
type Light interface {
	// Set drives the relay; true = light on.
	Set(on bool) error

	// IsOn returns the last value successfully set.
	IsOn() bool

	// Close turns the light off and releases GPIO resources.
	Close() error
}

// Button reads the push button.
type Button interface {
	// Pressed returns the raw (not debounced) button level; true = pressed.
	Pressed() (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// Pin definitions (BCM numbering)
const (
	DefaultPinLight  = 17 // physical pin 11
	DefaultPinButton = 22 // physical pin 15
)

// Chip is the GPIO character device used on the Raspberry Pi.
const Chip = "gpiochip0"
