package listener

import (
	"context"
	"sync"
	"time"

	"github.com/farmtech/irrigation/internal/irrigation"
	"github.com/farmtech/irrigation/pkg/models"
	"github.com/farmtech/irrigation/pkg/roles"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MinInterval is the shortest sampling interval a listener accepts.
// Shorter intervals are raised to it.
const MinInterval = 5 * time.Second

// DecideFunc turns a sample into a pump decision.
type DecideFunc func(ctx context.Context, in irrigation.Input) irrigation.Decision

// SinkFunc adapts a function to roles.ReadingSink.
type SinkFunc func(ctx context.Context, r *models.SensorReading, source string) (*models.SensorReading, error)

// Record implements roles.ReadingSink.
func (f SinkFunc) Record(ctx context.Context, r *models.SensorReading, source string) (*models.SensorReading, error) {
	return f(ctx, r, source)
}

// Status is a point-in-time view of one listener.
type Status struct {
	Name             string                `json:"name" example:"field-1"`
	RunID            string                `json:"run_id,omitempty"`
	Running          bool                  `json:"running"`
	SimulationActive bool                  `json:"simulation_active"`
	IntervalSeconds  float64               `json:"interval_seconds" example:"5"`
	StartedAt        *time.Time            `json:"started_at,omitempty"`
	LastUpdate       *time.Time            `json:"last_update,omitempty"`
	Samples          int                   `json:"samples"`
	Failures         int                   `json:"failures"`
	LastError        string                `json:"last_error,omitempty"`
	LastReading      *models.SensorReading `json:"last_reading,omitempty"`
}

// Listener samples the simulator on a fixed interval, decides the pump
// state and records the result. Pausing keeps the loop alive but skips
// sampling.
type Listener struct {
	name     string
	interval time.Duration
	sim      *Simulator
	sink     roles.ReadingSink
	decide   DecideFunc
	logger   *zap.Logger
	now      func() time.Time

	// ctl serializes Start and Stop.
	ctl sync.Mutex

	mu         sync.Mutex
	runID      string
	running    bool
	active     bool
	startedAt  time.Time
	lastUpdate time.Time
	last       *models.SensorReading
	samples    int
	failures   int
	lastErr    string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newListener(name string, interval time.Duration, sim *Simulator, sink roles.ReadingSink, decide DecideFunc, logger *zap.Logger) *Listener {
	if interval < MinInterval {
		interval = MinInterval
	}
	return &Listener{
		name:     name,
		interval: interval,
		sim:      sim,
		sink:     sink,
		decide:   decide,
		logger:   logger.With(zap.String("listener", name)),
		now:      time.Now,
	}
}

// Name returns the listener name.
func (l *Listener) Name() string { return l.name }

// Start launches the sampling loop. Starting a running listener is a no-op.
func (l *Listener) Start() {
	l.ctl.Lock()
	defer l.ctl.Unlock()

	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		l.logger.Warn("listener already running")
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.running = true
	l.active = true
	l.runID = uuid.New().String()
	l.startedAt = l.now()
	runID := l.runID
	l.mu.Unlock()

	l.wg.Add(1)
	go l.loop(ctx)

	l.logger.Info("listener started",
		zap.String("run_id", runID),
		zap.Duration("interval", l.interval),
	)
}

// Stop ends the loop and waits for an in-flight sample to finish.
// Stopping a stopped listener is a no-op.
func (l *Listener) Stop() {
	l.ctl.Lock()
	defer l.ctl.Unlock()

	l.mu.Lock()
	cancel := l.cancel
	wasRunning := l.running
	l.cancel = nil
	l.running = false
	l.active = false
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	l.wg.Wait()
	if wasRunning {
		l.logger.Info("listener stopped")
	}
}

// Pause suspends sampling without stopping the loop.
func (l *Listener) Pause() {
	l.mu.Lock()
	l.active = false
	l.mu.Unlock()
	l.logger.Info("simulation paused")
}

// Resume re-enables sampling.
func (l *Listener) Resume() {
	l.mu.Lock()
	l.active = true
	l.mu.Unlock()
	l.logger.Info("simulation resumed")
}

// Status reports the current state.
func (l *Listener) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()

	st := Status{
		Name:             l.name,
		RunID:            l.runID,
		Running:          l.running,
		SimulationActive: l.active,
		IntervalSeconds:  l.interval.Seconds(),
		Samples:          l.samples,
		Failures:         l.failures,
		LastError:        l.lastErr,
	}
	if !l.startedAt.IsZero() {
		t := l.startedAt
		st.StartedAt = &t
	}
	if !l.lastUpdate.IsZero() {
		t := l.lastUpdate
		st.LastUpdate = &t
	}
	if l.last != nil {
		r := *l.last
		st.LastReading = &r
	}
	return st
}

func (l *Listener) loop(ctx context.Context) {
	defer l.wg.Done()
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	// Sample immediately, then on each tick.
	l.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.tick(ctx)
		}
	}
}

func (l *Listener) tick(ctx context.Context) {
	l.mu.Lock()
	active := l.active
	l.mu.Unlock()
	if !active {
		return
	}

	stored, err := l.sample(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastUpdate = l.now()
	if err != nil {
		l.failures++
		l.lastErr = err.Error()
		samplesTotal.WithLabelValues("error").Inc()
		l.logger.Error("failed to record sample", zap.Error(err))
		return
	}
	l.samples++
	l.lastErr = ""
	l.last = stored
	samplesTotal.WithLabelValues("ok").Inc()
	l.logger.Info("sample recorded",
		zap.Int64("reading_id", stored.ID),
		zap.Float64("humidity", stored.Humidity),
		zap.Float64("ph", stored.PH),
		zap.Bool("pump_on", stored.PumpOn),
	)
}

// sample draws, decides and records one reading.
func (l *Listener) sample(ctx context.Context) (*models.SensorReading, error) {
	r := l.sim.Sample(l.now().UTC())

	d := l.decide(ctx, irrigation.Input{
		Humidity:   r.Humidity,
		PH:         r.PH,
		Phosphorus: r.PhosphorusPresent,
		Potassium:  r.PotassiumPresent,
	})
	irrigation.Observe(d)
	r.PumpOn = d.PumpOn
	r.DecisionReason = d.Reason
	r.IsEmergency = d.IsEmergency

	rctx, cancel := context.WithTimeout(ctx, l.interval)
	defer cancel()
	return l.sink.Record(rctx, &r, models.SourceSimulation)
}
