package alarm

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultPersistTimeout bounds the record insert done when an alarm fires.
const DefaultPersistTimeout = 5 * time.Second

const startTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Controller owns the alarm lifecycle:
// Idle -> Configured -> CountingDown -> Fired|Cancelled -> Idle.
//
// All mutations happen under mu, including timer callbacks, which carry the
// generation they were armed with so a replaced or cancelled job is a no-op.
// Transitions are delivered outside mu but in the order of the state changes.
type Controller struct {
	states    StateStore
	records   RecordStore
	scheduler Scheduler
	clock     clockwork.Clock

	// PersistTimeout bounds the insert performed by a firing alarm.
	PersistTimeout time.Duration

	mu       sync.Mutex
	order    deliveryOrder
	notifier Notifier
	active   *ActiveAlarm
	job      Job
	gen      uint64
}

// NewController creates a Controller. It does not arm anything: a countdown
// armed before a restart is not recovered.
func NewController(states StateStore, records RecordStore, scheduler Scheduler, clock clockwork.Clock) *Controller {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Controller{
		states:         states,
		records:        records,
		scheduler:      scheduler,
		clock:          clock,
		PersistTimeout: DefaultPersistTimeout,
	}
}

// SetNotifier injects the transition receiver.
func (c *Controller) SetNotifier(n Notifier) {
	c.mu.Lock()
	c.notifier = n
	c.mu.Unlock()
}

// Configure sets the wake time and starts waiting for the hand-off signal.
// It replaces any previous configuration and disarms any running countdown.
func (c *Controller) Configure(alarmTime string) error {
	normalized, _, _, err := ParseClock(alarmTime)
	if err != nil {
		return err
	}

	c.mu.Lock()
	now := c.clock.Now()
	c.disarmLocked()
	c.states.Save(SessionState{
		Monitoring: true,
		AlarmSet:   true,
		AlarmTime:  normalized,
		StartTime:  now.UTC().Format(startTimeLayout),
	})
	tk := c.order.take(c.notifier)
	c.mu.Unlock()

	log.Printf("alarm configured for %s, waiting for hand", normalized)
	c.order.deliver(tk, Transition{Timestamp: now, Type: TransitionConfigured, AlarmTime: normalized})
	return nil
}

// HandDetected starts the countdown to the configured wake time and returns
// the whole minutes until it fires.
func (c *Controller) HandDetected(imagePath string) (int, error) {
	c.mu.Lock()
	st := c.states.Read()
	if !st.AlarmSet {
		c.mu.Unlock()
		return 0, ErrNoActiveAlarm
	}
	alarmTime, hour, minute, err := ParseClock(st.AlarmTime)
	if err != nil {
		c.mu.Unlock()
		return 0, fmt.Errorf("stored alarm time: %w", err)
	}

	now := c.clock.Now()
	at := NextFire(now, hour, minute)
	delay := at.Sub(now)

	c.disarmLocked()
	gen := c.gen
	job, err := c.scheduler.Schedule(at, func() { c.fire(gen) })
	if err != nil {
		c.mu.Unlock()
		return 0, fmt.Errorf("arm alarm: %w", err)
	}
	image := SanitizeImage(imagePath)
	c.job = job
	c.active = &ActiveAlarm{
		AlarmTime: alarmTime,
		Delay:     delay,
		Start:     now,
		Image:     image,
	}
	c.states.Save(SessionState{})
	tk := c.order.take(c.notifier)
	c.mu.Unlock()

	minutes := RoundMinutes(delay)
	log.Printf("hand detected, light off; alarm %s fires in %d minutes", alarmTime, minutes)
	c.order.deliver(tk, Transition{
		Timestamp:    now,
		Type:         TransitionCountdown,
		AlarmTime:    alarmTime,
		MinutesUntil: minutes,
		Image:        image,
	})
	return minutes, nil
}

// fire is the scheduler callback for the countdown armed with generation gen.
func (c *Controller) fire(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.active == nil {
		c.mu.Unlock()
		log.Printf("ignoring stale alarm callback (generation %d)", gen)
		return
	}
	active := *c.active
	c.active = nil
	c.job = nil
	now := c.clock.Now()
	tk := c.order.take(c.notifier)
	c.mu.Unlock()

	log.Printf("alarm %s fired, light on", active.AlarmTime)

	image := active.Image
	if image == "" {
		image = NoImage
	}
	rec := Record{
		OffDate:      active.Start.Format(OffDateLayout),
		OffTime:      active.Start.Format(OffTimeLayout),
		AlarmTime:    active.AlarmTime,
		SleptMinutes: RoundMinutes(active.Delay),
		ImagePath:    image,
	}

	timeout := c.PersistTimeout
	if timeout <= 0 {
		timeout = DefaultPersistTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	persisted := true
	if _, err := c.records.Append(ctx, rec); err != nil {
		// Not retried; the alarm stays resolved.
		log.Printf("failed to store session record: %v", err)
		persisted = false
	} else {
		log.Printf("session record stored (%d minutes slept)", rec.SleptMinutes)
	}

	c.order.deliver(tk, Transition{
		Timestamp: now,
		Type:      TransitionFired,
		AlarmTime: active.AlarmTime,
		Image:     active.Image,
		Persisted: persisted,
	})
}

// Cancel resets to Idle from any state. Calling it while Idle is a no-op
// apart from rewriting the idle state.
func (c *Controller) Cancel() {
	c.CancelBecause("api")
}

// CancelBecause is Cancel with a reason attached to the emitted transition.
func (c *Controller) CancelBecause(reason string) {
	c.mu.Lock()
	prev := c.states.Read()
	alarmTime := prev.AlarmTime
	wasBusy := prev.AlarmSet || prev.Monitoring || c.active != nil
	if c.active != nil {
		alarmTime = c.active.AlarmTime
	}
	c.disarmLocked()
	c.states.Save(SessionState{})
	now := c.clock.Now()
	if !wasBusy {
		c.mu.Unlock()
		return
	}
	tk := c.order.take(c.notifier)
	c.mu.Unlock()

	log.Printf("alarm cancelled (%s)", reason)
	c.order.deliver(tk, Transition{
		Timestamp: now,
		Type:      TransitionCancelled,
		AlarmTime: alarmTime,
		Reason:    reason,
	})
}

// CurrentStatus reports the running countdown, or the monitoring flags when
// nothing is armed. MinutesRemaining goes negative if the callback is late.
func (c *Controller) CurrentStatus() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != nil {
		remaining := RoundMinutes(c.active.Delay - c.clock.Since(c.active.Start))
		return Status{
			Active:           true,
			AlarmTime:        c.active.AlarmTime,
			MinutesRemaining: &remaining,
			Image:            c.active.Image,
		}
	}

	st := c.states.Read()
	return Status{
		Monitoring:   st.Monitoring,
		AwaitingHand: st.Monitoring,
	}
}

// State returns the current SessionState.
func (c *Controller) State() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.states.Read()
}

// InProgress reports whether an alarm is configured or counting down.
func (c *Controller) InProgress() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil || c.states.Read().AlarmSet
}

// RecentSessions returns up to limit records, newest first. limit is clamped
// to 1..MaxRecentSessions; zero or less means MaxRecentSessions.
func (c *Controller) RecentSessions(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 || limit > MaxRecentSessions {
		limit = MaxRecentSessions
	}
	recs, err := c.records.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return recs, nil
}

// disarmLocked drops the armed job and Active Alarm. Caller holds mu.
func (c *Controller) disarmLocked() {
	if c.job != nil {
		c.job.Cancel()
		c.job = nil
	}
	c.active = nil
	c.gen++
}

func notify(n Notifier, t Transition) {
	if n != nil {
		n.Notify(t)
	}
}
