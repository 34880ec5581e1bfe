// Package alarm contains the wake-alarm state machine.
// Collaborators (persistence, timers, notifications, time) are injected, so
// the package has no GPIO, MQTT, HTTP or file system dependencies of its own.
package alarm

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNoActiveAlarm is returned by HandDetected when no alarm is configured.
	ErrNoActiveAlarm = errors.New("no active alarm")
	// ErrInvalidAlarmTime is returned by Configure for anything other than H:MM or HH:MM.
	ErrInvalidAlarmTime = errors.New("invalid alarm time")
)

// NoImage is stored in a Record when the hand-off carried no image.
const NoImage = "sin_imagen.jpg"

// MaxRecentSessions caps RecentSessions.
const MaxRecentSessions = 50

// SessionState is the durable monitoring/alarm state. It is mirrored to disk
// as-is, so the JSON names are the file format.
type SessionState struct {
	Monitoring bool   `json:"monitoring"`
	AlarmSet   bool   `json:"alarm_set"`
	AlarmTime  string `json:"alarm_time,omitempty"`
	StartTime  string `json:"start_time,omitempty"`
}

// ActiveAlarm is the countdown currently armed. In memory only.
type ActiveAlarm struct {
	AlarmTime string
	Delay     time.Duration // computed once at hand-off
	Start     time.Time     // instant of the hand-off
	Image     string
}

// Record is one completed sleep session.
type Record struct {
	ID           int64  `json:"id"`
	OffDate      string `json:"fecha_apagado"`
	OffTime      string `json:"hora_apagado"`
	AlarmTime    string `json:"hora_alarma"`
	SleptMinutes int    `json:"tiempo_dormido"`
	ImagePath    string `json:"imagen_path"`
	CreatedAt    string `json:"created_at"`
}

// Status is the result of CurrentStatus.
type Status struct {
	Active           bool   `json:"active"`
	AlarmTime        string `json:"alarm_time,omitempty"`
	MinutesRemaining *int   `json:"minutes_remaining,omitempty"`
	Image            string `json:"image,omitempty"`
	Monitoring       bool   `json:"monitoring"`
	AwaitingHand     bool   `json:"awaiting_hand"`
}

// TransitionType names a state machine transition.
type TransitionType string

const (
	TransitionConfigured TransitionType = "CONFIGURED"
	TransitionCountdown  TransitionType = "COUNTDOWN_STARTED"
	TransitionFired      TransitionType = "FIRED"
	TransitionCancelled  TransitionType = "CANCELLED"
)

// Transition is emitted to the Notifier after every state change.
type Transition struct {
	Timestamp    time.Time
	Type         TransitionType
	AlarmTime    string
	MinutesUntil int
	Image        string
	Reason       string // cancel reason
	Persisted    bool   // FIRED only: whether the record was stored
}

// StateStore holds the SessionState. Save must not fail from the caller's
// point of view; implementations log write errors.
type StateStore interface {
	Save(state SessionState)
	Read() SessionState
}

// RecordStore is the append-only session log.
type RecordStore interface {
	Append(ctx context.Context, rec Record) (Record, error)
	Recent(ctx context.Context, limit int) ([]Record, error)
}

// Job is an armed one-shot task.
type Job interface {
	Cancel()
}

// Scheduler arms one-shot tasks.
type Scheduler interface {
	Schedule(at time.Time, task func()) (Job, error)
}

// Notifier receives transitions. Called without the controller lock held.
type Notifier interface {
	Notify(t Transition)
}
