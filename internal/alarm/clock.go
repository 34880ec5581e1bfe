package alarm

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Layouts used for the localized light-off date and time in a Record.
const (
	OffDateLayout = "2/1/2006"
	OffTimeLayout = "15:04:05"
)

// ParseClock validates an H:MM or HH:MM wall-clock time and returns it
// normalized to HH:MM together with its hour and minute.
func ParseClock(s string) (string, int, int, error) {
	hs, ms, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(hs) < 1 || len(hs) > 2 || len(ms) != 2 || !digits(hs) || !digits(ms) {
		return "", 0, 0, fmt.Errorf("%w: %q", ErrInvalidAlarmTime, s)
	}
	h, err := strconv.Atoi(hs)
	if err != nil || h < 0 || h > 23 {
		return "", 0, 0, fmt.Errorf("%w: %q", ErrInvalidAlarmTime, s)
	}
	m, err := strconv.Atoi(ms)
	if err != nil || m < 0 || m > 59 {
		return "", 0, 0, fmt.Errorf("%w: %q", ErrInvalidAlarmTime, s)
	}
	return fmt.Sprintf("%02d:%02d", h, m), h, m, nil
}

func digits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// NextFire returns the instant the alarm should fire: today at hour:minute in
// now's location, or the same clock time tomorrow if that is not strictly
// after now.
func NextFire(now time.Time, hour, minute int) time.Time {
	at := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !at.After(now) {
		at = at.AddDate(0, 0, 1)
	}
	return at
}

// RoundMinutes rounds d to the nearest whole minute, halves rounding up.
func RoundMinutes(d time.Duration) int {
	return int(math.Floor(d.Minutes() + 0.5))
}

// SanitizeImage keeps only the base name of a caller supplied image path.
// Empty, ".", ".." and separator-only inputs yield "".
func SanitizeImage(p string) string {
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	if p == "" {
		return ""
	}
	if i := strings.LastIndex(p, "/"); i >= 0 {
		p = p[i+1:]
	}
	if p == "" || p == "." || p == ".." {
		return ""
	}
	return p
}
