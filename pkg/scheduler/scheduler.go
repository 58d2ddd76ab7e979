// Package scheduler runs periodic tasks from a single cooperative loop.
//
// Entries are checked in the order they were added. A task that is due runs
// to completion before the next entry is checked, so tasks never overlap and
// the state they share needs no locking.
package scheduler

import (
	"context"
	"time"
)

// DefaultPoll is the idle sleep between two passes over the entries.
const DefaultPoll = time.Millisecond

// Task is one unit of periodic work.
type Task func(ctx context.Context)

type entry struct {
	name     string
	interval time.Duration
	task     Task
	last     time.Time
	runs     int
}

// Scheduler dispatches (interval, task) entries.
type Scheduler struct {
	entries []*entry
	poll    time.Duration
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration)
	started bool
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

// WithSleep replaces the idle sleep used by Run.
func WithSleep(sleep func(ctx context.Context, d time.Duration)) Option {
	return func(s *Scheduler) {
		s.sleep = sleep
	}
}

// WithPoll sets the idle sleep between passes.
func WithPoll(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.poll = d
		}
	}
}

// New creates an empty scheduler.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		poll:  DefaultPoll,
		now:   time.Now,
		sleep: sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Every appends a task that runs once per interval. Entries added first are
// checked first within a pass.
func (s *Scheduler) Every(name string, interval time.Duration, task Task) {
	s.entries = append(s.entries, &entry{
		name:     name,
		interval: interval,
		task:     task,
	})
}

// Start arms every entry so its first run happens one interval from now.
// Step and Run call it implicitly.
func (s *Scheduler) Start(now time.Time) {
	for _, e := range s.entries {
		e.last = now
	}
	s.started = true
}

// Step runs every entry whose interval has elapsed since its last run and
// returns how many ran. Entries polled slightly late keep their period.
func (s *Scheduler) Step(ctx context.Context, now time.Time) int {
	if !s.started {
		s.Start(now)
	}

	ran := 0
	for _, e := range s.entries {
		if ctx.Err() != nil {
			break
		}
		if now.Sub(e.last) < e.interval {
			continue
		}
		e.task(ctx)
		// keep the entry in phase with Start; a run more than one interval
		// late restarts the cadence from now
		e.last = e.last.Add(e.interval)
		if now.Sub(e.last) >= e.interval {
			e.last = now
		}
		e.runs++
		ran++
	}
	return ran
}

// Runs returns how many times the named entry has run.
func (s *Scheduler) Runs(name string) int {
	for _, e := range s.entries {
		if e.name == name {
			return e.runs
		}
	}
	return 0
}

// Run loops until ctx is done. Each pass reads the clock once for all
// entries, so a slow task delays the ones after it but never skips them.
func (s *Scheduler) Run(ctx context.Context) error {
	s.Start(s.now())
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.Step(ctx, s.now())
		s.sleep(ctx, s.poll)
	}
}

func sleepContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
