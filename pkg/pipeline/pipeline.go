// Package pipeline wires the sampler, the intensity filter, the hue animator
// and the telemetry buffer into the four periodic tasks of the indicator.
//
// All state is owned by one Pipeline and touched only from the scheduler
// loop, so nothing here is locked.
package pipeline

import (
	"context"
	"time"

	"github.com/itohio/noisey/pkg/hue"
	"github.com/itohio/noisey/pkg/intensity"
	"github.com/itohio/noisey/pkg/ringbuf"
	"github.com/itohio/noisey/pkg/sampler"
	"github.com/itohio/noisey/pkg/scheduler"
	"github.com/itohio/noisey/pkg/telemetry"
	"github.com/rs/zerolog"
)

// Task names as registered with the scheduler.
const (
	TaskMeasure = "measure"
	TaskUpdate  = "update"
	TaskAnimate = "animate"
	TaskReport  = "report"
)

// Settings are the user tunables read once at startup.
type Settings struct {
	Offset      int8
	Sensitivity int8
}

// Timing holds the task intervals.
type Timing struct {
	Measure time.Duration
	Update  time.Duration
	Animate time.Duration
	Report  time.Duration
}

// Status is what an observer sees after every update tick.
type Status struct {
	Level     sampler.Level
	Filter    intensity.State
	Intensity int16
	Target    int16
	Hue       int16
	Pending   int
}

// Pipeline owns the whole indicator state.
type Pipeline struct {
	sampler  *sampler.Sampler
	filter   *intensity.Filter
	animator *hue.Animator
	ring     *ringbuf.Ring[int16]
	reporter *telemetry.Reporter
	settings Settings
	log      zerolog.Logger

	observer func(Status)
	target   int16
	updates  int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithReporter enables the report task.
func WithReporter(r *telemetry.Reporter) Option {
	return func(p *Pipeline) {
		p.reporter = r
	}
}

// WithObserver registers a callback invoked from the loop after every
// update tick.
func WithObserver(fn func(Status)) Option {
	return func(p *Pipeline) {
		p.observer = fn
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(p *Pipeline) {
		p.log = log
	}
}

// New creates a pipeline. ring receives one difference per update tick and
// is drained by the reporter, if any.
func New(s *sampler.Sampler, a *hue.Animator, ring *ringbuf.Ring[int16], settings Settings, opts ...Option) *Pipeline {
	p := &Pipeline{
		sampler:  s,
		filter:   intensity.New(),
		animator: a,
		ring:     ring,
		settings: settings,
		log:      zerolog.Nop(),
		target:   hue.MaxHue,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Prime takes one measurement and records it as the previous snapshot, so
// the first update starts from a real level instead of zero.
func (p *Pipeline) Prime() {
	p.Measure()
	p.filter.Snapshot()
}

// Measure samples one window and folds it into the running averages.
func (p *Pipeline) Measure() {
	p.filter.Update(p.sampler.Sample())
}

// Update retargets the animator from the current intensity, buffers the
// unclamped difference for telemetry and snapshots the averages.
func (p *Pipeline) Update() {
	current := p.animator.State().Displayed
	p.target = p.animator.Retarget(p.filter.Intensity(), p.settings.Sensitivity, p.settings.Offset)
	p.ring.Push(p.filter.Difference())
	p.filter.Snapshot()
	p.updates++

	st := p.animator.State()
	p.log.Debug().
		Int32("current", int32(current)).
		Int32("next", int32(st.Target)).
		Int32("delta", int32(st.Delta)).
		Int("updates", p.updates).
		Msg("retarget")

	if p.observer != nil {
		p.observer(p.Status())
	}
}

// Animate advances the ring by one frame. Driver errors are logged.
func (p *Pipeline) Animate() {
	if err := p.animator.Advance(); err != nil {
		p.log.Warn().Err(err).Msg("led update failed")
	}
}

// Report drains the telemetry buffer. Without a reporter it does nothing.
func (p *Pipeline) Report(ctx context.Context) telemetry.Stats {
	if p.reporter == nil {
		return telemetry.Stats{}
	}
	return p.reporter.Report(ctx)
}

// Status returns the current state.
func (p *Pipeline) Status() Status {
	return Status{
		Level:     p.sampler.Last(),
		Filter:    p.filter.State(),
		Intensity: p.filter.Intensity(),
		Target:    p.target,
		Hue:       p.animator.Hue(),
		Pending:   p.ring.Pending(),
	}
}

// Updates returns the number of update ticks so far.
func (p *Pipeline) Updates() int {
	return p.updates
}

// Schedule registers the tasks in the order measure, update, animate,
// report. A zero interval leaves that task out.
func (p *Pipeline) Schedule(s *scheduler.Scheduler, t Timing) {
	if t.Measure > 0 {
		s.Every(TaskMeasure, t.Measure, func(context.Context) { p.Measure() })
	}
	if t.Update > 0 {
		s.Every(TaskUpdate, t.Update, func(context.Context) { p.Update() })
	}
	if t.Animate > 0 {
		s.Every(TaskAnimate, t.Animate, func(context.Context) { p.Animate() })
	}
	if t.Report > 0 && p.reporter != nil {
		s.Every(TaskReport, t.Report, func(ctx context.Context) { p.Report(ctx) })
	}
}
