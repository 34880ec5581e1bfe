// Package schedule arms one-shot tasks for the alarm controller.
package schedule

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/sweeney/wakelight/internal/alarm"
)

// Cron runs one-time jobs on a gocron scheduler.
type Cron struct {
	scheduler gocron.Scheduler
}

// NewCron creates a Cron scheduler driven by clock. A nil clock means the
// real clock.
func NewCron(clock clockwork.Clock) (*Cron, error) {
	opts := []gocron.SchedulerOption{}
	if clock != nil {
		opts = append(opts, gocron.WithClock(clock))
	}
	s, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, fmt.Errorf("create gocron scheduler: %w", err)
	}
	return &Cron{scheduler: s}, nil
}

// Start begins executing jobs.
func (c *Cron) Start() {
	c.scheduler.Start()
}

// Stop shuts the scheduler down; pending jobs are dropped.
func (c *Cron) Stop() error {
	return c.scheduler.Shutdown()
}

// Schedule runs task once at the given instant.
func (c *Cron) Schedule(at time.Time, task func()) (alarm.Job, error) {
	j, err := c.scheduler.NewJob(
		gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(at)),
		gocron.NewTask(task),
		gocron.WithName("wake-"+at.Format("2006-01-02T15:04")),
	)
	if err != nil {
		return nil, fmt.Errorf("create wake job: %w", err)
	}
	return &cronJob{scheduler: c.scheduler, id: j.ID()}, nil
}

type cronJob struct {
	scheduler gocron.Scheduler
	id        uuid.UUID
	once      sync.Once
}

func (j *cronJob) Cancel() {
	j.once.Do(func() {
		// The job is gone once it has run.
		if err := j.scheduler.RemoveJob(j.id); err != nil && !errors.Is(err, gocron.ErrJobNotFound) {
			log.Printf("remove wake job %s: %v", j.id, err)
		}
	})
}

// Timers arms tasks with clock timers. With a fake clock it makes firing
// deterministic.
type Timers struct {
	clock clockwork.Clock
}

// NewTimers creates a Timers scheduler. A nil clock means the real clock.
func NewTimers(clock clockwork.Clock) *Timers {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Timers{clock: clock}
}

// Schedule runs task once when the clock reaches at.
func (t *Timers) Schedule(at time.Time, task func()) (alarm.Job, error) {
	d := at.Sub(t.clock.Now())
	if d < 0 {
		d = 0
	}
	return &timerJob{timer: t.clock.AfterFunc(d, task)}, nil
}

type timerJob struct {
	timer clockwork.Timer
}

func (j *timerJob) Cancel() {
	j.timer.Stop()
}
