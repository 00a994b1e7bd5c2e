package profiling

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"
)

// Sample is one reading of the runtime memory statistics.
type Sample struct {
	Time       time.Time
	HeapAlloc  uint64
	HeapObjs   uint64
	Goroutines int
	NumGC      uint32
}

// ReadSample reads the current statistics.
func ReadSample() Sample {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return Sample{
		Time:       time.Now(),
		HeapAlloc:  ms.HeapAlloc,
		HeapObjs:   ms.HeapObjects,
		Goroutines: runtime.NumGoroutine(),
		NumGC:      ms.NumGC,
	}
}

// Growth compares two samples.
type Growth struct {
	Span       time.Duration
	HeapDelta  int64
	Goroutines int
	// BytesPerSec is the heap growth rate over Span.
	BytesPerSec float64
	// Suspect is set when a threshold was crossed; Reason says which.
	Suspect bool
	Reason  string
}

// String formats g for logs.
func (g Growth) String() string {
	s := fmt.Sprintf("heap %+d B over %s (%.0f B/s), goroutines %+d",
		g.HeapDelta, g.Span.Round(time.Millisecond), g.BytesPerSec, g.Goroutines)
	if g.Suspect {
		s += ": " + g.Reason
	}
	return s
}

// WatchConfig tunes a MemoryWatch. Zero fields take the defaults.
type WatchConfig struct {
	// Interval between samples. Default 10s.
	Interval time.Duration
	// Window is the number of samples kept. Default 60.
	Window int
	// MaxBytesPerSec is the sustained heap growth considered suspect.
	// Default 1 MiB/s.
	MaxBytesPerSec float64
	// MaxGoroutines is the goroutine increase considered suspect.
	// Default 10.
	MaxGoroutines int
}

func (c WatchConfig) withDefaults() WatchConfig {
	if c.Interval <= 0 {
		c.Interval = 10 * time.Second
	}
	if c.Window < 2 {
		c.Window = 60
	}
	if c.MaxBytesPerSec <= 0 {
		c.MaxBytesPerSec = 1 << 20
	}
	if c.MaxGoroutines <= 0 {
		c.MaxGoroutines = 10
	}
	return c
}

// MemoryWatch samples the runtime periodically and reports suspect growth
// between the oldest and newest sample in its window. Every restart of a
// visualization builds a new scene and new goroutines, so a steady climb
// here points at something the previous run left behind.
type MemoryWatch struct {
	cfg     WatchConfig
	log     *slog.Logger
	read    func() Sample
	onSuspect func(Growth)

	mu      sync.Mutex
	samples []Sample
}

// NewMemoryWatch creates a watch logging suspect growth at Warn level to
// logger. onSuspect, if not nil, is also called.
func NewMemoryWatch(cfg WatchConfig, logger *slog.Logger, onSuspect func(Growth)) *MemoryWatch {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &MemoryWatch{cfg: cfg.withDefaults(), log: logger, read: ReadSample, onSuspect: onSuspect}
}

// Sample takes one reading and returns the growth over the window, or
// false while fewer than two samples exist.
func (w *MemoryWatch) Sample() (Growth, bool) {
	s := w.read()

	w.mu.Lock()
	w.samples = append(w.samples, s)
	if n := len(w.samples) - w.cfg.Window; n > 0 {
		w.samples = w.samples[n:]
	}
	if len(w.samples) < 2 {
		w.mu.Unlock()
		return Growth{}, false
	}
	first := w.samples[0]
	w.mu.Unlock()

	g := w.compare(first, s)
	if g.Suspect {
		w.log.Warn("memory growth", "growth", g.String())
		if w.onSuspect != nil {
			w.onSuspect(g)
		}
	} else {
		w.log.Debug("memory sample", "heap", s.HeapAlloc, "goroutines", s.Goroutines)
	}
	return g, true
}

func (w *MemoryWatch) compare(a, b Sample) Growth {
	g := Growth{
		Span:       b.Time.Sub(a.Time),
		HeapDelta:  int64(b.HeapAlloc) - int64(a.HeapAlloc),
		Goroutines: b.Goroutines - a.Goroutines,
	}
	if g.Span > 0 {
		g.BytesPerSec = float64(g.HeapDelta) / g.Span.Seconds()
	}
	switch {
	case g.BytesPerSec > w.cfg.MaxBytesPerSec:
		g.Suspect = true
		g.Reason = fmt.Sprintf("heap grows faster than %.0f B/s", w.cfg.MaxBytesPerSec)
	case g.Goroutines > w.cfg.MaxGoroutines:
		g.Suspect = true
		g.Reason = fmt.Sprintf("%d more goroutines than %s ago", g.Goroutines, g.Span.Round(time.Second))
	}
	return g
}

// Samples returns a copy of the window.
func (w *MemoryWatch) Samples() []Sample {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Sample(nil), w.samples...)
}

// Run samples every interval until ctx is done.
func (w *MemoryWatch) Run(ctx context.Context) {
	t := time.NewTicker(w.cfg.Interval)
	defer t.Stop()
	w.Sample()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.Sample()
		}
	}
}
