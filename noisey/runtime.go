package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/itohio/noisey/pkg/adc"
	"github.com/itohio/noisey/pkg/config"
	"github.com/itohio/noisey/pkg/hue"
	"github.com/itohio/noisey/pkg/led"
	"github.com/itohio/noisey/pkg/logger"
	"github.com/itohio/noisey/pkg/pipeline"
	"github.com/itohio/noisey/pkg/provision"
	"github.com/itohio/noisey/pkg/ringbuf"
	"github.com/itohio/noisey/pkg/sampler"
	"github.com/itohio/noisey/pkg/scheduler"
	"github.com/itohio/noisey/pkg/telemetry"
	"github.com/itohio/noisey/pkg/transport"
	"github.com/rs/zerolog"
)

// runtime is one provisioned indicator: source, pipeline, driver and
// telemetry, ready to be scheduled.
type runtime struct {
	cfg      *config.Config
	log      zerolog.Logger
	store    *config.Store
	settings config.Snapshot
	deviceID string
	shortID  string

	source   adc.Source
	driver   hue.LEDDriver
	pipeline *pipeline.Pipeline
	sched    *scheduler.Scheduler
	closers  []io.Closer
}

// setup registers the device, opens the analog source and builds the
// pipeline. A nil driver is created from the led section of cfg. observer
// may be nil.
func setup(ctx context.Context, cfg *config.Config, log zerolog.Logger, driver hue.LEDDriver, observer func(pipeline.Status)) (*runtime, error) {
	r := &runtime{
		cfg: cfg,
		log: log,
	}

	store, err := config.OpenStore(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	r.store = store

	r.deviceID = provision.DeviceID()
	client := transport.NewClient(cfg.Server.URL, cfg.Server.UserAgent, cfg.Server.Timeout)

	res, err := provision.Register(ctx, client, cfg.Server.DeviceEndpoint, r.deviceID, store, logger.Component(log, "provision"))
	if err != nil {
		return nil, err
	}
	r.shortID = res.ShortID
	client.SetUserAgent(provision.UserAgent(cfg.Server.UserAgent, r.shortID))

	r.settings = store.Snapshot()
	log.Info().
		Str("device", r.deviceID).
		Str("short_id", r.shortID).
		Int8("offset", r.settings.Offset).
		Int8("sensitivity", r.settings.Sensitivity).
		Uint8("brightness", r.settings.Brightness).
		Int32("report_interval_ms", r.settings.ReportIntervalMs).
		Msg("settings")

	sender, err := r.newSender(ctx, client)
	if err != nil {
		r.Close()
		return nil, err
	}

	source, err := newSource(cfg, logger.Component(log, "source"))
	if err != nil {
		r.Close()
		return nil, err
	}
	if err := source.Connect(); err != nil {
		r.Close()
		return nil, fmt.Errorf("failed to connect %s source: %w", cfg.Source.Kind, err)
	}
	r.source = source
	r.closers = append(r.closers, source)

	if driver == nil {
		driver, err = r.newDriver()
		if err != nil {
			r.Close()
			return nil, err
		}
	}
	r.driver = driver

	ring := ringbuf.New[int16](cfg.Telemetry.BufferCapacity)
	reporter := telemetry.NewReporter(ring, sender, r.shortID, cfg.UpdateInterval(),
		cfg.Telemetry.ChunkSize, cfg.Telemetry.MaxChunks, logger.Component(log, "telemetry"))

	smp := sampler.New(source, cfg.Sampling.Window, sampler.WithShift(adc.Shift(source)))
	animator := hue.New(driver, cfg.Ring.Pixels, cfg.TicksPerUpdate(), r.settings.Brightness)

	opts := []pipeline.Option{
		pipeline.WithReporter(reporter),
		pipeline.WithLogger(logger.Component(log, "pipeline")),
	}
	if observer != nil {
		opts = append(opts, pipeline.WithObserver(observer))
	}
	r.pipeline = pipeline.New(smp, animator, ring, pipeline.Settings{
		Offset:      r.settings.Offset,
		Sensitivity: r.settings.Sensitivity,
	}, opts...)

	r.sched = scheduler.New(scheduler.WithPoll(cfg.Telemetry.PollInterval))
	r.pipeline.Schedule(r.sched, r.timing())

	return r, nil
}

// timing returns the task intervals.
func (r *runtime) timing() pipeline.Timing {
	return pipeline.Timing{
		Measure: r.cfg.Sampling.Interval,
		Update:  r.cfg.UpdateInterval(),
		Animate: r.cfg.Ring.AnimationInterval,
		Report:  time.Duration(r.settings.ReportIntervalMs) * time.Millisecond,
	}
}

// run primes the filter and runs the scheduler until ctx is done.
func (r *runtime) run(ctx context.Context) error {
	r.pipeline.Prime()
	r.log.Info().
		Dur("update", r.cfg.UpdateInterval()).
		Int("ticks_per_update", r.cfg.TicksPerUpdate()).
		Msg("running")

	err := r.sched.Run(ctx)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// Close releases the source, the driver and the transport.
func (r *runtime) Close() error {
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil {
			r.log.Warn().Err(err).Msg("close")
		}
	}
	r.closers = nil
	return nil
}

func (r *runtime) newSender(ctx context.Context, client *transport.Client) (telemetry.Sender, error) {
	switch r.cfg.Telemetry.Transport {
	case "http":
		return transport.NewHTTPSender(client, r.cfg.Server.DataEndpoint), nil
	case "mqtt":
		mqttLog := logger.Component(r.log, "mqtt")
		c, err := transport.DialMQTT(ctx, r.cfg.Telemetry.MQTT, "noisey-"+r.shortID, r.cfg.Server.Timeout, mqttLog)
		if err != nil {
			return nil, err
		}
		s := transport.NewMQTTSender(c, r.cfg.Telemetry.MQTT.Topic, r.cfg.Telemetry.MQTT.QoS, r.cfg.Server.Timeout)
		r.closers = append(r.closers, closerFunc(func() error { s.Close(); return nil }))
		return s, nil
	default:
		return nil, fmt.Errorf("unknown telemetry transport %q", r.cfg.Telemetry.Transport)
	}
}

func newSource(cfg *config.Config, log zerolog.Logger) (adc.Source, error) {
	switch cfg.Source.Kind {
	case "mock":
		return adc.NewMock(&cfg.Mock), nil
	case "serial":
		return adc.NewSerial(cfg.Source.Port, cfg.Source.BaudRate, 0, log), nil
	case "mic":
		return adc.NewMic(0, log), nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
	}
}

func (r *runtime) newDriver() (hue.LEDDriver, error) {
	switch r.cfg.LED.Kind {
	case "terminal":
		return led.NewTerminal(nil, false), nil
	case "serial":
		s, err := led.OpenStrip(r.cfg.LED.Port, r.cfg.LED.BaudRate)
		if err != nil {
			return nil, err
		}
		r.closers = append(r.closers, s)
		return s, nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown led kind %q", r.cfg.LED.Kind)
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
