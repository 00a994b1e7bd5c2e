package forceviz

import (
	"expvar"
	"sync/atomic"
	"time"

	"github.com/opd-ai/go-forceviz/internal/pipeline"
)

// Metrics provides application-level metrics collection for go-forceviz.
// It uses Go's expvar package for exposition, which can be accessed via the
// /debug/vars HTTP endpoint when an HTTP server is running.
//
// Thread-safe for concurrent use.
//
// Example usage:
//
//	metrics := forceviz.NewMetrics()
//	opts := forceviz.DefaultOptions()
//	opts.Metrics = metrics
//	metrics.RegisterExpvar()
//
//	// For HTTP exposition, import expvar's HTTP handler:
//	// import _ "expvar"
//	// This registers /debug/vars automatically.
type Metrics struct {
	// Counters
	starts        atomic.Int64
	stops         atomic.Int64
	restarts      atomic.Int64
	configReloads atomic.Int64
	ticks         atomic.Int64
	tickErrors    atomic.Int64
	errorsTotal   atomic.Int64
	eventsEmitted atomic.Int64
	itemsDrawn    atomic.Int64
	imageLoads    atomic.Int64
	imageFailures atomic.Int64

	// Latency tracking (stored as nanoseconds)
	tickLatencyNs    atomic.Int64
	tickLatencyCount atomic.Int64
	layoutLatencyNs  atomic.Int64
	layoutCount      atomic.Int64
	drawLatencyNs    atomic.Int64
	drawLatencyCount atomic.Int64

	// Current state gauges
	currentlyRunning atomic.Int32
	items            atomic.Int32

	// Registration tracking to prevent duplicate expvar registration
	registered atomic.Bool
}

// NewMetrics creates a new Metrics instance.
// Call RegisterExpvar() to expose metrics via the /debug/vars endpoint.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RegisterExpvar registers all metrics with Go's expvar package.
// Safe to call multiple times; subsequent calls are no-ops. Only one
// Metrics value per process can be registered since expvar names are global.
func (m *Metrics) RegisterExpvar() {
	if m.registered.Swap(true) {
		return
	}

	counter := func(name string, v *atomic.Int64) {
		expvar.Publish(name, expvar.Func(func() any { return v.Load() }))
	}
	average := func(name string, total, count *atomic.Int64) {
		expvar.Publish(name, expvar.Func(func() any {
			return float64(safeDivide(total.Load(), count.Load())) / 1e6
		}))
	}

	counter("forceviz_starts_total", &m.starts)
	counter("forceviz_stops_total", &m.stops)
	counter("forceviz_restarts_total", &m.restarts)
	counter("forceviz_config_reloads_total", &m.configReloads)
	counter("forceviz_ticks_total", &m.ticks)
	counter("forceviz_tick_errors_total", &m.tickErrors)
	counter("forceviz_errors_total", &m.errorsTotal)
	counter("forceviz_events_emitted_total", &m.eventsEmitted)
	counter("forceviz_items_drawn_total", &m.itemsDrawn)
	counter("forceviz_image_loads_total", &m.imageLoads)
	counter("forceviz_image_failures_total", &m.imageFailures)

	expvar.Publish("forceviz_running", expvar.Func(func() any { return m.currentlyRunning.Load() }))
	expvar.Publish("forceviz_items", expvar.Func(func() any { return m.items.Load() }))

	average("forceviz_tick_latency_avg_ms", &m.tickLatencyNs, &m.tickLatencyCount)
	average("forceviz_layout_latency_avg_ms", &m.layoutLatencyNs, &m.layoutCount)
	average("forceviz_draw_latency_avg_ms", &m.drawLatencyNs, &m.drawLatencyCount)
}

// Snapshot returns a point-in-time copy of all metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Starts:        m.starts.Load(),
		Stops:         m.stops.Load(),
		Restarts:      m.restarts.Load(),
		ConfigReloads: m.configReloads.Load(),
		Ticks:         m.ticks.Load(),
		TickErrors:    m.tickErrors.Load(),
		ErrorsTotal:   m.errorsTotal.Load(),
		EventsEmitted: m.eventsEmitted.Load(),
		ItemsDrawn:    m.itemsDrawn.Load(),
		ImageLoads:    m.imageLoads.Load(),
		ImageFailures: m.imageFailures.Load(),

		Running: m.currentlyRunning.Load() > 0,
		Items:   int(m.items.Load()),

		TickLatencyAvg:   safeDivide(m.tickLatencyNs.Load(), m.tickLatencyCount.Load()),
		LayoutLatencyAvg: safeDivide(m.layoutLatencyNs.Load(), m.layoutCount.Load()),
		DrawLatencyAvg:   safeDivide(m.drawLatencyNs.Load(), m.drawLatencyCount.Load()),
	}
}

// MetricsSnapshot is a point-in-time copy of all metrics.
type MetricsSnapshot struct {
	// Counters
	Starts        int64
	Stops         int64
	Restarts      int64
	ConfigReloads int64
	Ticks         int64
	TickErrors    int64
	ErrorsTotal   int64
	EventsEmitted int64
	ItemsDrawn    int64
	ImageLoads    int64
	ImageFailures int64

	// Gauges
	Running bool
	Items   int

	// Latency averages
	TickLatencyAvg   time.Duration
	LayoutLatencyAvg time.Duration
	DrawLatencyAvg   time.Duration
}

// IncrementStarts records a start operation.
func (m *Metrics) IncrementStarts() {
	m.starts.Add(1)
}

// IncrementStops records a stop operation.
func (m *Metrics) IncrementStops() {
	m.stops.Add(1)
}

// IncrementRestarts records a restart operation.
func (m *Metrics) IncrementRestarts() {
	m.restarts.Add(1)
}

// IncrementConfigReloads records a configuration reload.
func (m *Metrics) IncrementConfigReloads() {
	m.configReloads.Add(1)
}

// IncrementErrors records an error occurrence.
func (m *Metrics) IncrementErrors() {
	m.errorsTotal.Add(1)
}

// IncrementEventsEmitted records an event emission.
func (m *Metrics) IncrementEventsEmitted() {
	m.eventsEmitted.Add(1)
}

// AddItemsDrawn adds n to the drawn items counter.
func (m *Metrics) AddItemsDrawn(n int64) {
	m.itemsDrawn.Add(n)
}

// SetImageCounts stores the lifetime image load and failure counts of the
// current run's image cache.
func (m *Metrics) SetImageCounts(loads, failures int64) {
	m.imageLoads.Store(loads)
	m.imageFailures.Store(failures)
}

// SetRunning updates the running state gauge.
func (m *Metrics) SetRunning(running bool) {
	if running {
		m.currentlyRunning.Store(1)
	} else {
		m.currentlyRunning.Store(0)
	}
}

// SetItems updates the registry size gauge.
func (m *Metrics) SetItems(n int) {
	m.items.Store(int32(n))
}

// RecordTick records one tick and its duration.
func (m *Metrics) RecordTick(d time.Duration, err error) {
	m.ticks.Add(1)
	if err != nil {
		m.tickErrors.Add(1)
	}
	m.tickLatencyNs.Add(d.Nanoseconds())
	m.tickLatencyCount.Add(1)
}

// RecordLayoutLatency records the duration of a force layout stage.
func (m *Metrics) RecordLayoutLatency(d time.Duration) {
	m.layoutLatencyNs.Add(d.Nanoseconds())
	m.layoutCount.Add(1)
}

// RecordDrawLatency records the duration of a draw or repaint stage.
func (m *Metrics) RecordDrawLatency(d time.Duration) {
	m.drawLatencyNs.Add(d.Nanoseconds())
	m.drawLatencyCount.Add(1)
}

// Reset clears all metrics. Useful for testing.
func (m *Metrics) Reset() {
	for _, v := range []*atomic.Int64{
		&m.starts, &m.stops, &m.restarts, &m.configReloads,
		&m.ticks, &m.tickErrors, &m.errorsTotal, &m.eventsEmitted,
		&m.itemsDrawn, &m.imageLoads, &m.imageFailures,
		&m.tickLatencyNs, &m.tickLatencyCount,
		&m.layoutLatencyNs, &m.layoutCount,
		&m.drawLatencyNs, &m.drawLatencyCount,
	} {
		v.Store(0)
	}
	m.currentlyRunning.Store(0)
	m.items.Store(0)
}

// safeDivide performs safe division, returning 0 for divide by zero.
func safeDivide(total, count int64) time.Duration {
	if count == 0 {
		return 0
	}
	return time.Duration(total / count)
}

// defaultMetrics is a global metrics instance for convenience.
var defaultMetrics = NewMetrics()

// DefaultMetrics returns the global default Metrics instance.
func DefaultMetrics() *Metrics {
	return defaultMetrics
}

// Stage names whose latency is tracked separately.
const (
	layoutStage  = "force-layout"
	drawStage    = "draw"
	repaintStage = "repaint"
)

// runObserver feeds pipeline callbacks of one run into Metrics and the
// Viz log.
type runObserver struct {
	metrics *Metrics
	log     Logger
	items   func() int
	drawn   func() int64
	images  func() (loads, failures int64)
}

var _ pipeline.Observer = (*runObserver)(nil)

func (o *runObserver) OnTick(t pipeline.Tick, took time.Duration, err error) {
	o.metrics.RecordTick(took, err)
	if o.items != nil {
		o.metrics.SetItems(o.items())
	}
	if o.drawn != nil {
		o.metrics.AddItemsDrawn(o.drawn())
	}
	if o.images != nil {
		o.metrics.SetImageCounts(o.images())
	}
}

func (o *runObserver) OnStage(name string, t pipeline.Tick, took time.Duration, err error) {
	switch name {
	case layoutStage:
		o.metrics.RecordLayoutLatency(took)
	case drawStage, repaintStage:
		o.metrics.RecordDrawLatency(took)
	}
	if err != nil {
		o.log.Debug("stage failed", "stage", name, "tick", t.Index, "error", err)
	}
}

func (o *runObserver) OnState(from, to pipeline.State) {
	o.log.Debug("pipeline state", "from", from.String(), "to", to.String())
}
