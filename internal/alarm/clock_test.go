package alarm

import (
	"errors"
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"07:00", "07:00", false},
		{"7:00", "07:00", false},
		{" 23:59 ", "23:59", false},
		{"00:00", "00:00", false},
		{"24:00", "", true},
		{"12:60", "", true},
		{"12:5", "", true},
		{"1200", "", true},
		{"", "", true},
		{"ab:cd", "", true},
		{"-1:30", "", true},
		{"+7:05", "", true},
		{"07:+5", "", true},
		{"-0:00", "", true},
		{"7 :05", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, _, _, err := ParseClock(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAlarmTime) {
					t.Fatalf("expected ErrInvalidAlarmTime, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNextFire(t *testing.T) {
	day := func(h, m, s int) time.Time {
		return time.Date(2026, 10, 19, h, m, s, 0, time.UTC)
	}

	tests := []struct {
		name   string
		now    time.Time
		hour   int
		minute int
		want   time.Time
	}{
		{"later today", day(6, 0, 0), 7, 0, day(7, 0, 0)},
		{"evening rolls to tomorrow", day(22, 0, 0), 7, 0, day(7, 0, 0).AddDate(0, 0, 1)},
		{"exactly now rolls to tomorrow", day(7, 0, 0), 7, 0, day(7, 0, 0).AddDate(0, 0, 1)},
		{"one second past rolls", day(7, 0, 1), 7, 0, day(7, 0, 0).AddDate(0, 0, 1)},
		{"one second before stays", day(6, 59, 59), 7, 0, day(7, 0, 0)},
		{"midnight target", day(23, 30, 0), 0, 0, time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextFire(tt.now, tt.hour, tt.minute)
			if !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
			if !got.After(tt.now) {
				t.Errorf("fire instant %v not after now %v", got, tt.now)
			}
		})
	}
}

func TestNextFireMonthBoundary(t *testing.T) {
	now := time.Date(2026, 10, 31, 23, 0, 0, 0, time.UTC)
	got := NextFire(now, 6, 30)
	want := time.Date(2026, 11, 1, 6, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestRoundMinutes(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want int
	}{
		{0, 0},
		{29 * time.Second, 0},
		{30 * time.Second, 1},
		{9 * time.Hour, 540},
		{9*time.Hour - 31*time.Second, 539},
		{-29 * time.Second, 0},
		{-31 * time.Second, -1},
		{-90 * time.Second, -1},
	}
	for _, tt := range tests {
		if got := RoundMinutes(tt.d); got != tt.want {
			t.Errorf("RoundMinutes(%v): got %d, want %d", tt.d, got, tt.want)
		}
	}
}

func TestSanitizeImage(t *testing.T) {
	tests := map[string]string{
		"":                         "",
		"hand.jpg":                 "hand.jpg",
		"/data/images/hand_01.jpg": "hand_01.jpg",
		"../../etc/passwd":         "passwd",
		"..":                       "",
		".":                        "",
		"images/":                  "",
		`C:\captures\hand.jpg`:     "hand.jpg",
		"  /tmp/with space.jpg  ":  "with space.jpg",
	}
	for in, want := range tests {
		if got := SanitizeImage(in); got != want {
			t.Errorf("SanitizeImage(%q): got %q, want %q", in, got, want)
		}
	}
}
