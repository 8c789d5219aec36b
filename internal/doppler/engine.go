package doppler

import (
	"context"
	"log"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/YassienTawfikk/SonoMetric/internal/monitoring"
	"github.com/YassienTawfikk/SonoMetric/internal/timeutil"
)

// subscriberQueueDepth bounds each frame subscriber's channel. On overflow
// the oldest unconsumed frame is dropped so a slow display degrades its own
// refresh rate without ever blocking the simulation.
const subscriberQueueDepth = 8

// EstimateSink receives every velocity estimate the engine produces,
// tagged with the acquisition session it belongs to. Sinks run on the
// simulation goroutine and must not block.
type EstimateSink func(sessionID string, est VelocityEstimate)

// Engine drives the acquisition pipeline at a fixed real-time cadence on a
// dedicated goroutine: scatterer advance, RF synthesis, ring buffer write,
// and spectral processing, fanning completed frames out to subscribers.
//
// Control parameters live in an atomically swapped Params snapshot; the
// loop loads it exactly once per tick, so an angle or velocity change is
// observed whole at the next tick boundary and never mid-tick.
type Engine struct {
	clock  timeutil.Clock
	logger *log.Logger
	sink   EstimateSink

	params atomic.Pointer[Params]
	latest atomic.Pointer[VelocityEstimate]

	// pipeline; rebuilt by Configure while stopped
	ring    *SampleRing
	field   *Field
	synth   *Synthesizer
	stft    *SpectralEstimator
	vel     VelocityEstimator
	history *frameHistory

	mu        sync.Mutex // lifecycle state below
	running   bool
	cancel    context.CancelFunc
	doneCh    chan struct{}
	sessionID string

	subMu       sync.Mutex
	subscribers map[string]chan SpectrogramFrame
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithClock substitutes the scheduler clock, typically a MockClock in tests.
func WithClock(c timeutil.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithLogger sets the engine's logger. Defaults to log.Default().
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithEstimateSink registers a sink called for every velocity estimate.
func WithEstimateSink(s EstimateSink) Option {
	return func(e *Engine) { e.sink = s }
}

// NewEngine validates the parameter set and assembles the pipeline. The
// engine starts stopped; call Start to begin acquisition.
func NewEngine(p Params, opts ...Option) (*Engine, error) {
	p = p.Normalize()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		clock:       timeutil.RealClock{},
		logger:      log.Default(),
		subscribers: make(map[string]chan SpectrogramFrame),
	}
	for _, o := range opts {
		o(e)
	}
	if err := e.buildPipeline(p); err != nil {
		return nil, err
	}
	e.params.Store(&p)
	return e, nil
}

func (e *Engine) buildPipeline(p Params) error {
	prof, err := NewProfile(p.Geometry())
	if err != nil {
		return err
	}
	field, err := NewField(prof, p.NumScatterers, p.Seed)
	if err != nil {
		return err
	}
	synth, err := NewSynthesizer(p.TransducerFreq, p.SpeedOfSound, p.SampleRate, p.NoiseAmplitude, p.Seed+1)
	if err != nil {
		return err
	}
	ring, err := NewSampleRing(p.RingCapacity)
	if err != nil {
		return err
	}
	e.field = field
	e.synth = synth
	e.ring = ring
	e.stft = NewSpectralEstimator(ring, p)
	e.history = newFrameHistory(p.HistorySize)
	e.latest.Store(nil)
	return nil
}

// Params returns the current parameter snapshot.
func (e *Engine) Params() Params {
	return *e.params.Load()
}

// Configure replaces the whole parameter set and rebuilds the pipeline.
// It fails with *ConfigError on invalid parameters and with ErrRunning if
// acquisition is active; in both cases existing state is untouched.
func (e *Engine) Configure(p Params) error {
	p = p.Normalize()
	if err := p.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return ErrRunning
	}
	if err := e.buildPipeline(p); err != nil {
		return err
	}
	e.params.Store(&p)
	return nil
}

// SetAngle hot-swaps the insonation angle. The new value is observed whole
// at the next tick boundary, never retroactively.
func (e *Engine) SetAngle(deg float64) error {
	if !angleSupported(deg) {
		return &ConfigError{Field: "angle_deg", Reason: "must be one of 30, 60, 75"}
	}
	e.swapParams(func(p *Params) { p.AngleDeg = deg })
	return nil
}

// SetVMax hot-swaps the centerline velocity, applied at the next tick.
func (e *Engine) SetVMax(v float64) error {
	if v <= 0 {
		return &ConfigError{Field: "v_max_mps", Reason: "must be positive"}
	}
	e.swapParams(func(p *Params) { p.VMax = v })
	return nil
}

// swapParams installs a modified copy of the snapshot. Concurrent swaps
// retry so neither update is lost.
func (e *Engine) swapParams(fn func(*Params)) {
	for {
		old := e.params.Load()
		p := *old
		fn(&p)
		if e.params.CompareAndSwap(old, &p) {
			return
		}
	}
}

// Start launches the acquisition loop on its own goroutine and opens a new
// session. Starting a running engine is a no-op.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.doneCh = make(chan struct{})
	e.running = true
	e.sessionID = uuid.NewString()

	session := e.sessionID
	done := e.doneCh
	go func() {
		defer func() {
			e.mu.Lock()
			e.running = false
			e.mu.Unlock()
			close(done)
		}()
		e.run(ctx, session)
	}()
	return nil
}

// Stop cancels the loop and blocks until the in-flight tick has finished.
// The ring buffer and frame history are left consistent: no partial sample
// is written and no partially filled window is emitted.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	cancel := e.cancel
	done := e.doneCh
	e.mu.Unlock()

	cancel()
	<-done
}

// Running reports whether the acquisition loop is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Done returns a channel closed when the current run terminates. Before the
// first Start it returns nil, which never becomes ready.
func (e *Engine) Done() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doneCh
}

// SessionID identifies the current (or most recent) acquisition run.
func (e *Engine) SessionID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessionID
}

func (e *Engine) run(ctx context.Context, session string) {
	p := e.params.Load()
	ticker := e.clock.NewTicker(p.TickInterval)
	defer ticker.Stop()

	e.logger.Printf("doppler engine started: session=%s fs=%.0fHz window=%d hop=%d",
		session, p.SampleRate, p.WindowSize, p.HopSize)

	var carry float64
	for {
		select {
		case <-ctx.Done():
			e.logger.Printf("doppler engine stopped: session=%s samples=%d", session, e.ring.Total())
			return
		case <-ticker.C():
			e.tick(session, &carry)
		}
	}
}

// tick runs one scheduler period: it synthesizes the batch of samples the
// elapsed interval is worth, then processes any windows that became ready.
// A panic inside the tick is recovered and logged; losing one tick's data
// is preferable to halting the loop.
func (e *Engine) tick(session string, carry *float64) {
	defer func() {
		if r := recover(); r != nil {
			monitoring.Logf("doppler: tick skipped: %v", r)
		}
	}()

	p := *e.params.Load()
	prof, err := NewProfile(p.Geometry())
	if err != nil {
		monitoring.Logf("doppler: tick skipped: %v", err)
		return
	}
	// The cached scatterer velocities may predate this tick's snapshot;
	// refresh them so the first sample already reflects a swapped vmax.
	if err := e.field.Refresh(prof); err != nil {
		monitoring.Logf("doppler: tick skipped: %v", err)
		return
	}

	*carry += p.SampleRate * p.TickInterval.Seconds()
	n := int(*carry)
	*carry -= float64(n)

	dt := 1 / p.SampleRate
	cosTheta := p.CosTheta()
	for i := 0; i < n; i++ {
		e.ring.Push(e.synth.Sample(e.field, cosTheta))
		if err := e.field.Advance(prof, dt); err != nil {
			monitoring.Logf("doppler: tick skipped: %v", err)
			return
		}
	}

	for _, frame := range e.stft.Process() {
		est := e.vel.Estimate(frame, p)
		e.latest.Store(&est)
		e.history.add(frame)
		e.publish(frame)
		if e.sink != nil {
			e.sink(session, est)
		}
	}
}

// Subscribe registers a frame consumer and returns its ID and channel. The
// channel is bounded; when the consumer falls behind, the oldest queued
// frame is dropped so the newest is always deliverable.
func (e *Engine) Subscribe() (string, <-chan SpectrogramFrame) {
	id := uuid.NewString()
	ch := make(chan SpectrogramFrame, subscriberQueueDepth)
	e.subMu.Lock()
	e.subscribers[id] = ch
	e.subMu.Unlock()
	return id, ch
}

// Unsubscribe removes and closes a subscriber channel.
func (e *Engine) Unsubscribe(id string) {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	if ch, ok := e.subscribers[id]; ok {
		close(ch)
		delete(e.subscribers, id)
	}
}

func (e *Engine) publish(f SpectrogramFrame) {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	for _, ch := range e.subscribers {
		select {
		case ch <- f:
		default:
			// Full: drop the oldest queued frame, then offer the new one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- f:
			default:
			}
		}
	}
}

// LatestEstimate returns the most recent measurement; ok is false until the
// first frame of a session has been processed.
func (e *Engine) LatestEstimate() (VelocityEstimate, bool) {
	est := e.latest.Load()
	if est == nil {
		return VelocityEstimate{}, false
	}
	return *est, true
}

// History returns the retained spectrogram frames, oldest first.
func (e *Engine) History() []SpectrogramFrame {
	return e.history.snapshot()
}
