package forceviz

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"sync"
	"time"

	"github.com/opd-ai/go-forceviz/internal/pipeline"
)

// Lifecycle errors.
var (
	// ErrAlreadyRunning is returned by Start on a running instance.
	ErrAlreadyRunning = errors.New("forceviz instance already running")
	// ErrNotRunning is returned by operations that need a running instance.
	ErrNotRunning = errors.New("forceviz instance not running")
	// ErrNotStarted is returned by Snapshot before the first Start.
	ErrNotStarted = errors.New("forceviz instance never started")
)

// ErrorCategory represents the type of error for categorization purposes.
type ErrorCategory int

const (
	// ErrorCategoryUnknown is the default category for uncategorized errors.
	ErrorCategoryUnknown ErrorCategory = iota
	// ErrorCategoryConfig is for configuration parsing and validation errors.
	ErrorCategoryConfig
	// ErrorCategoryRender is for window and drawing errors.
	ErrorCategoryRender
	// ErrorCategoryPipeline is for failed pipeline stages.
	ErrorCategoryPipeline
	// ErrorCategoryResource is for missing fonts and images.
	ErrorCategoryResource
	// ErrorCategoryIO is for file and I/O errors.
	ErrorCategoryIO

	numCategories
)

// String returns a human-readable name for the error category.
func (c ErrorCategory) String() string {
	switch c {
	case ErrorCategoryConfig:
		return "config"
	case ErrorCategoryRender:
		return "render"
	case ErrorCategoryPipeline:
		return "pipeline"
	case ErrorCategoryResource:
		return "resource"
	case ErrorCategoryIO:
		return "io"
	default:
		return "unknown"
	}
}

// ErrorSeverity indicates the severity level of an error.
type ErrorSeverity int

const (
	// SeverityInfo is for informational messages that don't require action.
	SeverityInfo ErrorSeverity = iota
	// SeverityWarning is for non-critical issues that should be investigated.
	SeverityWarning
	// SeverityError is for errors that affect functionality but allow continued operation.
	SeverityError
	// SeverityCritical is for errors that end a run.
	SeverityCritical
)

// String returns a human-readable name for the severity level.
func (s ErrorSeverity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// CategorizedError wraps an error with metadata for tracking and alerting.
type CategorizedError struct {
	Err       error
	Category  ErrorCategory
	Severity  ErrorSeverity
	Timestamp time.Time
	// Context provides additional key-value metadata, such as the failing
	// stage and tick of a pipeline error.
	Context map[string]string
}

// Error implements the error interface.
func (e *CategorizedError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s/%s] (no error)", e.Severity, e.Category)
	}
	return fmt.Sprintf("[%s/%s] %s", e.Severity, e.Category, e.Err.Error())
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *CategorizedError) Unwrap() error {
	return e.Err
}

// NewCategorizedError creates a new CategorizedError.
func NewCategorizedError(err error, category ErrorCategory, severity ErrorSeverity) *CategorizedError {
	return &CategorizedError{
		Err:       err,
		Category:  category,
		Severity:  severity,
		Timestamp: time.Now(),
		Context:   make(map[string]string),
	}
}

// WithContext adds a key-value pair to the error context and returns the error.
func (e *CategorizedError) WithContext(key, value string) *CategorizedError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// Categorize classifies err. Errors that already carry a category are
// returned as is; stage failures become critical pipeline errors and file
// system errors become IO errors. Everything else is an unknown error.
func Categorize(err error) *CategorizedError {
	if err == nil {
		return nil
	}
	var ce *CategorizedError
	if errors.As(err, &ce) {
		return ce
	}
	var se *pipeline.StageError
	if errors.As(err, &se) {
		return NewCategorizedError(err, ErrorCategoryPipeline, SeverityCritical).
			WithContext("stage", se.Stage).
			WithContext("tick", fmt.Sprint(se.Tick))
	}
	var pe *fs.PathError
	if errors.As(err, &pe) {
		return NewCategorizedError(err, ErrorCategoryIO, SeverityError).WithContext("path", pe.Path)
	}
	return NewCategorizedError(err, ErrorCategoryUnknown, SeverityError)
}

// AlertCondition defines when an alert should be triggered.
type AlertCondition struct {
	// Category filters alerts to a specific error category.
	// Use ErrorCategoryUnknown to match all categories.
	Category ErrorCategory
	// MinSeverity is the minimum severity level to trigger the alert.
	MinSeverity ErrorSeverity
	// Threshold is the number of errors within the window to trigger.
	Threshold int
	// Window is the time window for counting errors.
	Window time.Duration
}

func (c AlertCondition) matches(e *CategorizedError, cutoff time.Time) bool {
	return !e.Timestamp.Before(cutoff) &&
		(c.Category == ErrorCategoryUnknown || e.Category == c.Category) &&
		e.Severity >= c.MinSeverity
}

// AlertHandler is called when an alert condition is met.
// Implementations must not block; use goroutines for slow operations.
type AlertHandler func(condition AlertCondition, errorCount int, recentErrors []CategorizedError)

// ErrorTrackerConfig configures an ErrorTracker.
type ErrorTrackerConfig struct {
	// MaxErrors is the maximum number of errors to retain (default: 1000).
	MaxErrors int
	// RetentionTime is how long to retain errors (default: 1 hour).
	RetentionTime time.Duration
	// AlertCooldown is the minimum time between repeated alerts (default: 5 minutes).
	AlertCooldown time.Duration
}

// DefaultErrorTrackerConfig returns a configuration with sensible defaults.
func DefaultErrorTrackerConfig() ErrorTrackerConfig {
	return ErrorTrackerConfig{
		MaxErrors:     1000,
		RetentionTime: time.Hour,
		AlertCooldown: 5 * time.Minute,
	}
}

// maxAlertExamples bounds the errors passed to an AlertHandler.
const maxAlertExamples = 10

// ErrorTracker keeps a sliding window of recent errors and fires alerts
// when a condition's threshold is reached. Safe for concurrent use.
type ErrorTracker struct {
	cfg ErrorTrackerConfig

	mu         sync.Mutex
	errors     []CategorizedError
	conditions []AlertCondition
	lastAlert  []time.Time // parallel to conditions
	handlers   []AlertHandler
	totals     [numCategories]int64
}

// NewErrorTracker creates a new ErrorTracker. Zero config fields take
// their defaults.
func NewErrorTracker(cfg ErrorTrackerConfig) *ErrorTracker {
	def := DefaultErrorTrackerConfig()
	if cfg.MaxErrors <= 0 {
		cfg.MaxErrors = def.MaxErrors
	}
	if cfg.RetentionTime <= 0 {
		cfg.RetentionTime = def.RetentionTime
	}
	if cfg.AlertCooldown <= 0 {
		cfg.AlertCooldown = def.AlertCooldown
	}
	return &ErrorTracker{cfg: cfg}
}

// AddCondition registers an alert condition to monitor.
func (t *ErrorTracker) AddCondition(cond AlertCondition) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.conditions = append(t.conditions, cond)
	t.lastAlert = append(t.lastAlert, time.Time{})
}

// SetAlertHandler registers a handler for all alert conditions.
// Multiple handlers can be registered by calling this method multiple times.
func (t *ErrorTracker) SetAlertHandler(handler AlertHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers = append(t.handlers, handler)
}

// Record adds an error to the tracker and checks alert conditions.
// Handlers run in their own goroutines.
func (t *ErrorTracker) Record(err *CategorizedError) {
	if err == nil {
		return
	}
	now := time.Now()

	t.mu.Lock()
	if err.Category >= 0 && err.Category < numCategories {
		t.totals[err.Category]++
	}
	t.errors = append(t.errors, *err)
	t.prune(now)

	type alert struct {
		cond     AlertCondition
		count    int
		examples []CategorizedError
	}
	var fired []alert
	for i, cond := range t.conditions {
		if !t.lastAlert[i].IsZero() && now.Sub(t.lastAlert[i]) < t.cfg.AlertCooldown {
			continue
		}
		cutoff := now.Add(-cond.Window)
		a := alert{cond: cond}
		for j := len(t.errors) - 1; j >= 0; j-- {
			e := &t.errors[j]
			if !cond.matches(e, cutoff) {
				continue
			}
			a.count++
			if len(a.examples) < maxAlertExamples {
				a.examples = append(a.examples, *e)
			}
		}
		if a.count >= cond.Threshold {
			t.lastAlert[i] = now
			fired = append(fired, a)
		}
	}
	handlers := slices.Clone(t.handlers)
	t.mu.Unlock()

	for _, a := range fired {
		for _, h := range handlers {
			go func() {
				defer func() { _ = recover() }()
				h(a.cond, a.count, a.examples)
			}()
		}
	}
}

// prune drops errors beyond the capacity or the retention time.
// Must be called with mu held.
func (t *ErrorTracker) prune(now time.Time) {
	if n := len(t.errors) - t.cfg.MaxErrors; n > 0 {
		t.errors = slices.Delete(t.errors, 0, n)
	}
	cutoff := now.Add(-t.cfg.RetentionTime)
	i, _ := slices.BinarySearchFunc(t.errors, cutoff, func(e CategorizedError, c time.Time) int {
		return e.Timestamp.Compare(c)
	})
	if i > 0 {
		t.errors = slices.Delete(t.errors, 0, i)
	}
}

// ErrorRate returns errors per second within window, optionally filtered
// to one category. ErrorCategoryUnknown counts every category.
func (t *ErrorTracker) ErrorRate(category ErrorCategory, window time.Duration) float64 {
	if window <= 0 {
		return 0
	}
	cond := AlertCondition{Category: category, Window: window}
	cutoff := time.Now().Add(-window)

	t.mu.Lock()
	defer t.mu.Unlock()
	count := 0
	for i := range t.errors {
		if cond.matches(&t.errors[i], cutoff) {
			count++
		}
	}
	return float64(count) / window.Seconds()
}

// ErrorStats provides a summary of error statistics.
type ErrorStats struct {
	// Retained is the number of errors currently retained.
	Retained int
	// ByCategory counts retained errors by category.
	ByCategory map[ErrorCategory]int
	// BySeverity counts retained errors by severity.
	BySeverity map[ErrorSeverity]int
	// Lifetime counts every recorded error by category.
	Lifetime map[ErrorCategory]int64
}

// Stats returns a snapshot of error statistics.
func (t *ErrorTracker) Stats() ErrorStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	stats := ErrorStats{
		Retained:   len(t.errors),
		ByCategory: make(map[ErrorCategory]int),
		BySeverity: make(map[ErrorSeverity]int),
		Lifetime:   make(map[ErrorCategory]int64),
	}
	for _, e := range t.errors {
		stats.ByCategory[e.Category]++
		stats.BySeverity[e.Severity]++
	}
	for c, n := range t.totals {
		if n > 0 {
			stats.Lifetime[ErrorCategory(c)] = n
		}
	}
	return stats
}

// RecentErrors returns up to limit of the most recent errors, oldest first.
func (t *ErrorTracker) RecentErrors(limit int) []CategorizedError {
	t.mu.Lock()
	defer t.mu.Unlock()
	if limit <= 0 || len(t.errors) == 0 {
		return nil
	}
	start := max(len(t.errors)-limit, 0)
	return slices.Clone(t.errors[start:])
}

// Clear removes all retained errors and resets alert cooldowns. Lifetime
// totals are kept.
func (t *ErrorTracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.errors = nil
	clear(t.lastAlert)
}

var (
	defaultErrorTracker     *ErrorTracker
	defaultErrorTrackerOnce sync.Once
)

// DefaultErrorTracker returns the global default ErrorTracker instance.
func DefaultErrorTracker() *ErrorTracker {
	defaultErrorTrackerOnce.Do(func() {
		defaultErrorTracker = NewErrorTracker(DefaultErrorTrackerConfig())
	})
	return defaultErrorTracker
}
