package alarm

import (
	"context"
	"errors"
	"sync"
	"time"
)

type memStates struct {
	mu    sync.Mutex
	state SessionState
	saves int
}

func (m *memStates) Save(s SessionState) {
	m.mu.Lock()
	m.state = s
	m.saves++
	m.mu.Unlock()
}

func (m *memStates) Read() SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

type memRecords struct {
	mu      sync.Mutex
	records []Record
	err     error
}

func (m *memRecords) Append(_ context.Context, rec Record) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return Record{}, m.err
	}
	rec.ID = int64(len(m.records) + 1)
	m.records = append(m.records, rec)
	return rec, nil
}

func (m *memRecords) Recent(_ context.Context, limit int) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []Record
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.records[i])
	}
	return out, nil
}

func (m *memRecords) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// manualScheduler records armed jobs; tests run them by hand.
type manualScheduler struct {
	jobs []*manualJob
	err  error
}

type manualJob struct {
	at        time.Time
	task      func()
	cancelled bool
}

func (j *manualJob) Cancel() { j.cancelled = true }

func (s *manualScheduler) Schedule(at time.Time, task func()) (Job, error) {
	if s.err != nil {
		return nil, s.err
	}
	j := &manualJob{at: at, task: task}
	s.jobs = append(s.jobs, j)
	return j, nil
}

func (s *manualScheduler) last() *manualJob {
	if len(s.jobs) == 0 {
		return nil
	}
	return s.jobs[len(s.jobs)-1]
}

func (s *manualScheduler) armed() int {
	n := 0
	for _, j := range s.jobs {
		if !j.cancelled {
			n++
		}
	}
	return n
}

type recordingNotifier struct {
	mu          sync.Mutex
	transitions []Transition
}

func (r *recordingNotifier) Notify(t Transition) {
	r.mu.Lock()
	r.transitions = append(r.transitions, t)
	r.mu.Unlock()
}

func (r *recordingNotifier) types() []TransitionType {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []TransitionType
	for _, t := range r.transitions {
		out = append(out, t.Type)
	}
	return out
}

var errDiskFull = errors.New("disk full")

// gatedNotifier records transitions and holds the first delivery until
// release is closed.
type gatedNotifier struct {
	recordingNotifier
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newGatedNotifier() *gatedNotifier {
	return &gatedNotifier{entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedNotifier) Notify(t Transition) {
	g.recordingNotifier.Notify(t)
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.entered)
		<-g.release
	}
}
