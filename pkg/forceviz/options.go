package forceviz

import (
	"fmt"
	"io/fs"
	"time"

	"github.com/opd-ai/go-forceviz/internal/config"
)

// DefaultShutdownTimeout is the default timeout for graceful shutdown.
// This can be overridden via Options.ShutdownTimeout.
const DefaultShutdownTimeout = 5 * time.Second

// Options configures the Viz instance behavior.
type Options struct {
	// Period overrides the configured time between pipeline ticks.
	// Zero means use the configuration value; a negative value runs ticks
	// back to back.
	Period time.Duration

	// Iterations overrides the configured number of ticks per run.
	// Zero means use the configuration value.
	Iterations int64

	// Graph overrides the configured demo graph kind: "grid", "tree" or
	// "none". Empty means use the configuration value.
	Graph string

	// WindowTitle overrides the window title.
	// Empty string means use the configuration value.
	WindowTitle string

	// Headless runs without a window. Every tick is drawn into an
	// off-screen image available through Snapshot.
	Headless bool

	// ImageFS resolves item image locations. Nil uses the configured image
	// directory on disk.
	ImageFS fs.FS

	// ShutdownTimeout sets the maximum time to wait for graceful shutdown.
	// Zero means use DefaultShutdownTimeout.
	ShutdownTimeout time.Duration

	// Logger sets a custom logger for debug/info messages.
	// If nil, no logging is performed.
	Logger Logger

	// Metrics sets a custom metrics collector.
	// If nil, DefaultMetrics() is used.
	// Metrics can be exposed via /debug/vars by calling Metrics.RegisterExpvar().
	Metrics *Metrics

	// ErrorTracker sets a custom error tracker for error aggregation and
	// alerting. If nil, DefaultErrorTracker() is used.
	ErrorTracker *ErrorTracker

	// WatchConfig reloads the configuration in place (via ReloadConfig)
	// whenever the configuration file changes on disk. Only instances
	// created with New can watch their file.
	WatchConfig bool

	// WatchDebounce sets the debounce interval for file change events.
	// Zero means use DefaultWatchDebounce.
	WatchDebounce time.Duration
}

// DefaultOptions returns Options that take every setting from the
// configuration.
func DefaultOptions() Options {
	return Options{}
}

func (o *Options) validate() error {
	if o.Iterations < 0 {
		return fmt.Errorf("options: iterations must be non-negative, got %d", o.Iterations)
	}
	if o.Graph != "" {
		if _, err := config.ParseGraphKind(o.Graph); err != nil {
			return fmt.Errorf("options: %w", err)
		}
	}
	if o.ShutdownTimeout < 0 {
		return fmt.Errorf("options: shutdown timeout must be non-negative, got %v", o.ShutdownTimeout)
	}
	return nil
}

func (o *Options) shutdownTimeout() time.Duration {
	if o.ShutdownTimeout > 0 {
		return o.ShutdownTimeout
	}
	return DefaultShutdownTimeout
}

func (o *Options) metrics() *Metrics {
	if o.Metrics != nil {
		return o.Metrics
	}
	return DefaultMetrics()
}

func (o *Options) errorTracker() *ErrorTracker {
	if o.ErrorTracker != nil {
		return o.ErrorTracker
	}
	return DefaultErrorTracker()
}

func (o *Options) logger() Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return NopLogger()
}

// apply folds the option overrides into a copy of cfg.
func (o *Options) apply(cfg config.Config) config.Config {
	if o.Period != 0 {
		cfg.Pipeline.Period = o.Period
	}
	if o.Iterations > 0 {
		cfg.Pipeline.Iterations = o.Iterations
	}
	if o.Graph != "" {
		// validate has already accepted the name.
		cfg.Graph.Kind, _ = config.ParseGraphKind(o.Graph)
	}
	if o.WindowTitle != "" {
		cfg.Window.Title = o.WindowTitle
	}
	return cfg
}

// Logger interface for custom logging.
// It follows the slog-style signature for compatibility with Go's structured logging.
type Logger interface {
	// Debug logs a debug-level message with optional key-value pairs.
	Debug(msg string, args ...any)
	// Info logs an info-level message with optional key-value pairs.
	Info(msg string, args ...any)
	// Warn logs a warning-level message with optional key-value pairs.
	Warn(msg string, args ...any)
	// Error logs an error-level message with optional key-value pairs.
	Error(msg string, args ...any)
}
