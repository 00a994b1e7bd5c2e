package forceviz

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opd-ai/go-forceviz/internal/action"
	"github.com/opd-ai/go-forceviz/internal/config"
	"github.com/opd-ai/go-forceviz/internal/pipeline"
	"github.com/opd-ai/go-forceviz/internal/registry"
)

// run is one Start..stop cycle. err is written before done is closed.
type run struct {
	done chan struct{}
	err  error
}

// vizImpl is the private implementation of the Viz interface.
type vizImpl struct {
	// Configuration
	cfg          *config.Config // as loaded, before option overrides
	opts         Options
	configSource string
	watchPath    string
	configLoader func() (*config.Config, error)

	metrics      *Metrics
	errorTracker *ErrorTracker
	log          Logger
	reloads      *reloadGuard

	// State
	running   atomic.Bool
	lastError atomic.Value // stores error

	mu        sync.RWMutex
	active    *config.Config // effective configuration of the current run
	sc        *scene
	front     frontend
	current   *run
	startTime time.Time
	cancel    context.CancelFunc

	// Handlers
	errorHandler ErrorHandler
	eventHandler EventHandler
}

// Verify interface implementation at compile time.
var _ Viz = (*vizImpl)(nil)

// Start builds a fresh scene and starts its pipeline.
func (v *vizImpl) Start() error {
	v.mu.Lock()

	if v.running.Load() {
		v.mu.Unlock()
		return ErrAlreadyRunning
	}

	cfg := v.opts.apply(*v.cfg)
	logger := slogLogger(v.log)
	sc, err := newScene(&cfg, v.opts.ImageFS, logger)
	if err != nil {
		v.mu.Unlock()
		return fmt.Errorf("failed to initialize: %w", err)
	}

	var front frontend
	var repainter action.Repainter
	if !v.opts.Headless {
		front, err = newFrontend(&cfg, sc)
		if err != nil {
			v.log.Warn("window unavailable, running headless", "error", err)
			front = nil
		} else {
			repainter = front
		}
	}

	obs := &runObserver{
		metrics: v.metrics,
		log:     v.log,
		items:   func() int { return itemCount(sc.reg) },
		images:  func() (int64, int64) { return sc.images.Loads(), sc.images.Failures() },
	}
	err = sc.attach(&cfg, repainter, pipeline.Options{
		Period:     cfg.Pipeline.Period,
		Iterations: cfg.Pipeline.Iterations,
		Duration:   cfg.Pipeline.Duration,
		Observer:   obs,
		Logger:     logger,
	})
	if err != nil {
		v.mu.Unlock()
		return fmt.Errorf("failed to initialize: %w", err)
	}
	if sc.draw != nil {
		obs.drawn = sc.draw.Drawn
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := sc.pipeline.Start(ctx); err != nil {
		cancel()
		v.mu.Unlock()
		return fmt.Errorf("failed to start pipeline: %w", err)
	}

	var watcher *configWatcher
	if v.opts.WatchConfig && v.watchPath != "" {
		watcher, err = newConfigWatcher(v.watchPath, v.opts.WatchDebounce, v.watchReload, func(err error) {
			v.notifyError(NewCategorizedError(fmt.Errorf("config watch: %w", err), ErrorCategoryIO, SeverityWarning))
		})
		if err != nil {
			v.log.Warn("config watch unavailable", "path", v.watchPath, "error", err)
		}
	}

	r := &run{done: make(chan struct{})}
	v.active = &cfg
	v.sc = sc
	v.front = front
	v.current = r
	v.cancel = cancel
	v.startTime = time.Now()
	v.running.Store(true)

	v.metrics.IncrementStarts()
	v.metrics.SetRunning(true)
	v.metrics.SetItems(itemCount(sc.reg))

	reported := make(chan struct{})
	go v.report(sc, reported)
	go v.supervise(ctx, cancel, sc, front, watcher, reported, r)

	v.mu.Unlock()

	v.log.Info("started", "source", v.configSource, "items", itemCount(sc.reg), "headless", front == nil)
	v.emitEvent(EventStarted, "Instance started")
	return nil
}

// report publishes how the pipeline ended. In windowed mode the window
// stays open after the run completes.
func (v *vizImpl) report(sc *scene, reported chan<- struct{}) {
	defer close(reported)
	<-sc.pipeline.Done()

	switch sc.pipeline.State() {
	case pipeline.StateCompleted:
		v.log.Info("pipeline completed", "ticks", sc.pipeline.Ticks())
		v.emitEvent(EventCompleted, fmt.Sprintf("Pipeline completed after %d ticks", sc.pipeline.Ticks()))
	case pipeline.StateFailed:
		v.notifyError(Categorize(sc.pipeline.Err()))
	}
}

// supervise waits for the run to end and releases it.
func (v *vizImpl) supervise(ctx context.Context, cancel context.CancelFunc, sc *scene, front frontend, w *configWatcher, reported <-chan struct{}, r *run) {
	defer close(r.done)

	var runErr error
	if front != nil {
		if err := front.run(ctx); err != nil {
			runErr = NewCategorizedError(fmt.Errorf("render loop error: %w", err), ErrorCategoryRender, SeverityCritical)
			v.notifyError(runErr)
		}
	} else {
		select {
		case <-ctx.Done():
		case <-sc.pipeline.Done():
		}
	}

	cancel()
	sc.pipeline.Cancel()
	<-reported
	if runErr == nil && sc.pipeline.State() == pipeline.StateFailed {
		runErr = sc.pipeline.Err()
	}
	if w != nil {
		w.Stop()
	}

	r.err = runErr
	v.metrics.SetRunning(false)
	v.running.Store(false)
	v.log.Info("stopped", "ticks", sc.pipeline.Ticks())
	v.emitEvent(EventStopped, "Instance stopped")
}

// Stop cancels the current run and waits for it to end.
func (v *vizImpl) Stop() error {
	if !v.running.Load() {
		return nil
	}

	v.mu.Lock()
	cancel, r := v.cancel, v.current
	v.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if r == nil {
		return nil
	}

	timeout := v.opts.shutdownTimeout()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-r.done:
		v.metrics.IncrementStops()
		return nil
	case <-timer.C:
		err := fmt.Errorf("shutdown timeout after %v: run did not stop", timeout)
		v.notifyError(err)
		return err
	}
}

// Restart performs a stop followed by a start with a freshly loaded
// configuration.
func (v *vizImpl) Restart() error {
	if err := v.Stop(); err != nil {
		wrappedErr := fmt.Errorf("stop failed: %w", err)
		v.notifyError(wrappedErr)
		return wrappedErr
	}

	cfg, err := v.configLoader()
	if err != nil {
		wrappedErr := NewCategorizedError(fmt.Errorf("config reload failed: %w", err), ErrorCategoryConfig, SeverityError)
		v.notifyError(wrappedErr)
		return wrappedErr
	}
	v.mu.Lock()
	v.cfg = cfg
	v.mu.Unlock()
	v.emitEvent(EventConfigReloaded, "Configuration reloaded")

	if err := v.Start(); err != nil {
		wrappedErr := fmt.Errorf("start failed: %w", err)
		v.notifyError(wrappedErr)
		return wrappedErr
	}

	v.metrics.IncrementRestarts()
	v.emitEvent(EventRestarted, "Instance restarted")
	return nil
}

// ReloadConfig reloads the configuration in place.
func (v *vizImpl) ReloadConfig() error {
	if !v.running.Load() {
		return ErrNotRunning
	}
	if err := v.reload(); err != nil {
		return err
	}
	v.reloads.reset()
	return nil
}

// watchReload runs a reload triggered by a file change.
func (v *vizImpl) watchReload() {
	if !v.running.Load() {
		return
	}
	err := v.reloads.do(v.reload)
	if errors.Is(err, ErrReloadSuspended) {
		v.log.Warn("config reload skipped", "path", v.watchPath, "guard", v.reloads.current().String())
	}
}

// reload applies a freshly loaded configuration to the running scene. The
// graph, the pipeline cadence and the image source of the running scene
// are kept.
func (v *vizImpl) reload() error {
	loaded, err := v.configLoader()
	if err != nil {
		wrappedErr := NewCategorizedError(fmt.Errorf("config reload failed: %w", err), ErrorCategoryConfig, SeverityError)
		v.notifyError(wrappedErr)
		return wrappedErr
	}
	cfg := v.opts.apply(*loaded)

	v.mu.Lock()
	sc, front, active := v.sc, v.front, v.active
	if sc == nil || active == nil {
		v.mu.Unlock()
		return ErrNotRunning
	}
	cfg.Graph = active.Graph
	cfg.Pipeline = active.Pipeline
	cfg.Renderer.ImageDir = active.Renderer.ImageDir
	v.cfg = loaded
	v.active = &cfg
	v.mu.Unlock()

	_ = sc.reg.Write(func() error {
		sc.configure(&cfg)
		applyFont(sc.reg, cfg.Renderer.Font())
		return nil
	})
	if front != nil {
		front.apply(&cfg)
	}

	v.metrics.IncrementConfigReloads()
	v.log.Info("configuration reloaded", "source", v.configSource)
	v.emitEvent(EventConfigReloaded, "Configuration reloaded in-place")
	return nil
}

// IsRunning returns true if the instance is currently running.
func (v *vizImpl) IsRunning() bool {
	return v.running.Load()
}

// Wait blocks until the current run ends.
func (v *vizImpl) Wait() error {
	v.mu.RLock()
	r := v.current
	v.mu.RUnlock()
	if r == nil {
		return ErrNotStarted
	}
	<-r.done
	return r.err
}

// Status returns detailed status information about the instance.
func (v *vizImpl) Status() Status {
	v.mu.RLock()
	sc := v.sc
	st := Status{
		Running:      v.running.Load(),
		StartTime:    v.startTime,
		LastError:    v.getError(),
		ConfigSource: v.configSource,
	}
	v.mu.RUnlock()

	if sc != nil {
		st.Pipeline = sc.pipeline.State().String()
		st.Ticks = sc.pipeline.Ticks()
		st.Items = itemCount(sc.reg)
		if sc.draw != nil {
			st.Drawn = sc.draw.Drawn()
		}
	}
	return st
}

// Registry returns the registry of the current run.
func (v *vizImpl) Registry() *registry.Registry {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.sc == nil {
		return nil
	}
	return v.sc.reg
}

// Snapshot writes the latest frame as PNG.
func (v *vizImpl) Snapshot(w io.Writer) error {
	v.mu.RLock()
	sc, active := v.sc, v.active
	v.mu.RUnlock()
	if sc == nil {
		return ErrNotStarted
	}
	if sc.canvas != nil && sc.canvas.Frames() > 0 {
		return sc.canvas.WritePNG(w)
	}
	return sc.snapshot(active).WritePNG(w)
}

// SetErrorHandler registers a callback for runtime errors.
func (v *vizImpl) SetErrorHandler(handler ErrorHandler) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.errorHandler = handler
}

// SetEventHandler registers a callback for lifecycle events.
func (v *vizImpl) SetEventHandler(handler EventHandler) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.eventHandler = handler
}

// Health returns a health check result for the instance.
func (v *vizImpl) Health() HealthCheck {
	v.mu.RLock()
	sc := v.sc
	in := healthInput{
		now:       time.Now(),
		running:   v.running.Load(),
		startTime: v.startTime,
		lastError: v.getError(),
	}
	v.mu.RUnlock()

	if sc != nil {
		in.pipeline = sc.pipeline.State().String()
		in.ticks = sc.pipeline.Ticks()
		in.imageLoads = sc.images.Loads()
		in.imageFailures = sc.images.Failures()
	}
	in.recentErrors = v.errorTracker.ErrorRate(ErrorCategoryUnknown, time.Minute)
	return computeHealth(in)
}

// Metrics returns the metrics collector for this instance.
func (v *vizImpl) Metrics() *Metrics {
	return v.metrics
}

// getError retrieves the last error.
func (v *vizImpl) getError() error {
	if err, ok := v.lastError.Load().(error); ok {
		return err
	}
	return nil
}

// notifyError stores an error, records it with the error tracker and
// invokes the error handler if registered.
func (v *vizImpl) notifyError(err error) {
	if err == nil {
		return
	}
	v.lastError.Store(err)
	v.metrics.IncrementErrors()
	v.errorTracker.Record(Categorize(err))
	v.log.Error("runtime error", "error", err)

	v.mu.RLock()
	handler := v.errorHandler
	v.mu.RUnlock()

	if handler != nil {
		go func() {
			defer func() {
				if r := recover(); r != nil {
					v.log.Error("error handler panicked", "panic", r, "original_error", err)
				}
			}()
			handler(err)
		}()
	}

	v.emitEvent(EventError, err.Error())
}

// emitEvent sends an event to the event handler if configured.
func (v *vizImpl) emitEvent(eventType EventType, message string) {
	v.metrics.IncrementEventsEmitted()

	v.mu.RLock()
	handler := v.eventHandler
	v.mu.RUnlock()

	if handler == nil {
		return
	}
	ev := Event{Type: eventType, Timestamp: time.Now(), Message: message}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				v.mu.RLock()
				errHandler := v.errorHandler
				v.mu.RUnlock()
				if errHandler != nil {
					errHandler(fmt.Errorf("panic in event handler: %v", r))
				}
			}
		}()
		handler(ev)
	}()
}

func itemCount(reg *registry.Registry) int {
	var n int
	reg.Read(func() { n = reg.Len() })
	return n
}
