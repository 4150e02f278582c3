package insight

import (
	"sort"
	"sync"

	"github.com/farmtech/irrigation/internal/insight/anomaly"
	"github.com/farmtech/irrigation/internal/insight/baseline"
	"github.com/farmtech/irrigation/pkg/analytics"
	"github.com/farmtech/irrigation/pkg/models"
)

// BaselineView is the public state of one live baseline.
type BaselineView struct {
	Metric    string  `json:"metric"`
	Mean      float64 `json:"mean"`
	StdDev    float64 `json:"std_dev"`
	Samples   int     `json:"samples"`
	Stable    bool    `json:"stable"`
	CUSUMHigh float64 `json:"cusum_high"`
	CUSUMLow  float64 `json:"cusum_low"`
}

// driftWatcher keeps one Tracker per metric and feeds it every new reading.
type driftWatcher struct {
	mu       sync.Mutex
	trackers map[string]*baseline.Tracker
	cfg      DriftConfig
}

func newDriftWatcher(cfg DriftConfig) *driftWatcher {
	return &driftWatcher{
		trackers: make(map[string]*baseline.Tracker),
		cfg:      cfg,
	}
}

// getOrCreate must be called with w.mu held.
func (w *driftWatcher) getOrCreate(metric string) *baseline.Tracker {
	t, ok := w.trackers[metric]
	if !ok {
		t = baseline.NewTracker(w.cfg.EWMAAlpha, w.cfg.CUSUMDrift, w.cfg.CUSUMThreshold, w.cfg.MinSamples)
		w.trackers[metric] = t
	}
	return t
}

// observe folds r into the per-metric baselines and returns an event for
// every metric whose CUSUM crossed its threshold. Drying soil (humidity
// shifting down) is critical; every other shift is a warning.
func (w *driftWatcher) observe(r models.SensorReading) []DriftEvent {
	values := map[string]float64{
		analytics.ColumnHumidity: r.Humidity,
		analytics.ColumnPH:       r.PH,
	}
	if r.Temperature != nil {
		values[analytics.ColumnTemperature] = *r.Temperature
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	var events []DriftEvent
	for _, metric := range analytics.NumericColumns {
		v, ok := values[metric]
		if !ok {
			continue
		}
		obs := w.getOrCreate(metric).Observe(v)
		if !obs.ChangePoint {
			continue
		}
		severity := anomaly.SeverityWarning
		if metric == analytics.ColumnHumidity && obs.Direction == anomaly.DirectionDown {
			severity = anomaly.SeverityCritical
		}
		events = append(events, DriftEvent{
			ReadingID:   r.ID,
			Timestamp:   r.Timestamp,
			Metric:      metric,
			Severity:    severity,
			Observation: obs,
		})
	}
	return events
}

// restore replaces the trackers with persisted state.
func (w *driftWatcher) restore(trackers map[string]*baseline.Tracker) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for metric, t := range trackers {
		w.trackers[metric] = t
	}
}

// snapshot returns deep copies so callers can persist without the lock.
func (w *driftWatcher) snapshot() map[string]*baseline.Tracker {
	w.mu.Lock()
	defer w.mu.Unlock()
	cp := make(map[string]*baseline.Tracker, len(w.trackers))
	for metric, t := range w.trackers {
		ewma := *t.EWMA
		cusum := *t.CUSUM
		cp[metric] = &baseline.Tracker{EWMA: &ewma, CUSUM: &cusum, MinSamples: t.MinSamples}
	}
	return cp
}

// views lists the baselines sorted by metric.
func (w *driftWatcher) views() []BaselineView {
	snap := w.snapshot()
	out := make([]BaselineView, 0, len(snap))
	for metric, t := range snap {
		out = append(out, BaselineView{
			Metric:    metric,
			Mean:      t.EWMA.Mean,
			StdDev:    t.EWMA.StdDev(),
			Samples:   t.EWMA.Samples,
			Stable:    t.Stable(),
			CUSUMHigh: t.CUSUM.High,
			CUSUMLow:  t.CUSUM.Low,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Metric < out[j].Metric })
	return out
}

func (w *driftWatcher) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.trackers)
}
