package forceviz

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"testing"
	"time"

	"github.com/opd-ai/go-forceviz/internal/pipeline"
)

func TestErrorCategoryString(t *testing.T) {
	tests := []struct {
		category ErrorCategory
		want     string
	}{
		{ErrorCategoryUnknown, "unknown"},
		{ErrorCategoryConfig, "config"},
		{ErrorCategoryRender, "render"},
		{ErrorCategoryPipeline, "pipeline"},
		{ErrorCategoryResource, "resource"},
		{ErrorCategoryIO, "io"},
		{ErrorCategory(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.category.String(); got != tt.want {
				t.Errorf("ErrorCategory.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorSeverityString(t *testing.T) {
	tests := []struct {
		severity ErrorSeverity
		want     string
	}{
		{SeverityInfo, "info"},
		{SeverityWarning, "warning"},
		{SeverityError, "error"},
		{SeverityCritical, "critical"},
		{ErrorSeverity(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.severity.String(); got != tt.want {
				t.Errorf("ErrorSeverity.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCategorizedError(t *testing.T) {
	base := errors.New("test error")
	err := NewCategorizedError(base, ErrorCategoryConfig, SeverityWarning).WithContext("key", "value")

	if got, want := err.Error(), "[warning/config] test error"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, base) {
		t.Error("errors.Is should find the wrapped error")
	}
	if err.Context["key"] != "value" {
		t.Errorf("Context = %v", err.Context)
	}
	if err.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}

	empty := &CategorizedError{}
	if got := empty.Error(); got != "[info/unknown] (no error)" {
		t.Errorf("empty Error() = %q", got)
	}
	if empty.WithContext("a", "b").Context["a"] != "b" {
		t.Error("WithContext should create the context map")
	}
}

func TestCategorize(t *testing.T) {
	stageErr := &pipeline.StageError{Stage: "force-layout", Index: 2, Tick: 7, Err: errors.New("nan")}
	pathErr := &fs.PathError{Op: "open", Path: "img/a.png", Err: fs.ErrNotExist}
	already := NewCategorizedError(errors.New("x"), ErrorCategoryRender, SeverityCritical)

	tests := []struct {
		name     string
		err      error
		category ErrorCategory
		severity ErrorSeverity
		context  map[string]string
	}{
		{"stage", stageErr, ErrorCategoryPipeline, SeverityCritical, map[string]string{"stage": "force-layout", "tick": "7"}},
		{"wrapped stage", fmt.Errorf("run: %w", stageErr), ErrorCategoryPipeline, SeverityCritical, nil},
		{"path", pathErr, ErrorCategoryIO, SeverityError, map[string]string{"path": "img/a.png"}},
		{"categorized", fmt.Errorf("wrap: %w", already), ErrorCategoryRender, SeverityCritical, nil},
		{"plain", errors.New("plain"), ErrorCategoryUnknown, SeverityError, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ce := Categorize(tt.err)
			if ce.Category != tt.category || ce.Severity != tt.severity {
				t.Errorf("got %s/%s, want %s/%s", ce.Severity, ce.Category, tt.severity, tt.category)
			}
			for k, v := range tt.context {
				if ce.Context[k] != v {
					t.Errorf("Context[%q] = %q, want %q", k, ce.Context[k], v)
				}
			}
		})
	}

	if Categorize(nil) != nil {
		t.Error("Categorize(nil) should be nil")
	}
}

func TestErrorTrackerDefaults(t *testing.T) {
	tr := NewErrorTracker(ErrorTrackerConfig{})
	if tr.cfg != DefaultErrorTrackerConfig() {
		t.Errorf("config = %+v, want defaults", tr.cfg)
	}
	if DefaultErrorTracker() != DefaultErrorTracker() {
		t.Error("DefaultErrorTracker should return one instance")
	}
}

func TestErrorTrackerRecordAndStats(t *testing.T) {
	tr := NewErrorTracker(ErrorTrackerConfig{MaxErrors: 3})
	tr.Record(nil)
	tr.Record(NewCategorizedError(errors.New("a"), ErrorCategoryConfig, SeverityError))
	tr.Record(NewCategorizedError(errors.New("b"), ErrorCategoryConfig, SeverityWarning))
	tr.Record(NewCategorizedError(errors.New("c"), ErrorCategoryRender, SeverityCritical))
	tr.Record(NewCategorizedError(errors.New("d"), ErrorCategoryIO, SeverityError))

	st := tr.Stats()
	if st.Retained != 3 {
		t.Errorf("Retained = %d, want 3", st.Retained)
	}
	if st.ByCategory[ErrorCategoryConfig] != 1 {
		t.Errorf("retained config errors = %d, want 1", st.ByCategory[ErrorCategoryConfig])
	}
	if st.Lifetime[ErrorCategoryConfig] != 2 {
		t.Errorf("lifetime config errors = %d, want 2", st.Lifetime[ErrorCategoryConfig])
	}

	recent := tr.RecentErrors(2)
	if len(recent) != 2 || recent[0].Err.Error() != "c" || recent[1].Err.Error() != "d" {
		t.Errorf("RecentErrors(2) = %v", recent)
	}
	if tr.RecentErrors(0) != nil {
		t.Error("RecentErrors(0) should be nil")
	}

	tr.Clear()
	if st := tr.Stats(); st.Retained != 0 || st.Lifetime[ErrorCategoryIO] != 1 {
		t.Errorf("after Clear: %+v", st)
	}
}

func TestErrorTrackerRetention(t *testing.T) {
	tr := NewErrorTracker(ErrorTrackerConfig{RetentionTime: time.Minute})
	old := NewCategorizedError(errors.New("old"), ErrorCategoryIO, SeverityError)
	old.Timestamp = time.Now().Add(-2 * time.Minute)
	tr.Record(old)
	tr.Record(NewCategorizedError(errors.New("new"), ErrorCategoryIO, SeverityError))

	recent := tr.RecentErrors(10)
	if len(recent) != 1 || recent[0].Err.Error() != "new" {
		t.Errorf("RecentErrors = %v, want only the new error", recent)
	}
}

func TestErrorTrackerErrorRate(t *testing.T) {
	tr := NewErrorTracker(ErrorTrackerConfig{})
	for range 4 {
		tr.Record(NewCategorizedError(errors.New("x"), ErrorCategoryConfig, SeverityError))
	}
	tr.Record(NewCategorizedError(errors.New("y"), ErrorCategoryRender, SeverityError))

	if got := tr.ErrorRate(ErrorCategoryConfig, 2*time.Second); got != 2 {
		t.Errorf("config rate = %v, want 2", got)
	}
	if got := tr.ErrorRate(ErrorCategoryUnknown, 10*time.Second); got != 0.5 {
		t.Errorf("overall rate = %v, want 0.5", got)
	}
	if got := tr.ErrorRate(ErrorCategoryConfig, 0); got != 0 {
		t.Errorf("rate over zero window = %v, want 0", got)
	}
}

func TestErrorTrackerAlerts(t *testing.T) {
	tr := NewErrorTracker(ErrorTrackerConfig{AlertCooldown: time.Hour})
	tr.AddCondition(AlertCondition{
		Category:    ErrorCategoryPipeline,
		MinSeverity: SeverityError,
		Threshold:   2,
		Window:      time.Minute,
	})

	var mu sync.Mutex
	var counts []int
	fired := make(chan struct{}, 4)
	tr.SetAlertHandler(func(_ AlertCondition, n int, recent []CategorizedError) {
		mu.Lock()
		counts = append(counts, n)
		mu.Unlock()
		fired <- struct{}{}
	})

	record := func(cat ErrorCategory, sev ErrorSeverity) {
		tr.Record(NewCategorizedError(errors.New("e"), cat, sev))
	}
	record(ErrorCategoryPipeline, SeverityWarning) // below severity
	record(ErrorCategoryRender, SeverityCritical)  // other category
	record(ErrorCategoryPipeline, SeverityCritical)
	record(ErrorCategoryPipeline, SeverityError) // reaches the threshold
	record(ErrorCategoryPipeline, SeverityError) // in cooldown

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("alert not fired")
	}
	select {
	case <-fired:
		t.Fatal("alert fired again during cooldown")
	case <-time.After(50 * time.Millisecond):
	}

	mu.Lock()
	defer mu.Unlock()
	if len(counts) != 1 || counts[0] != 2 {
		t.Errorf("alert counts = %v, want [2]", counts)
	}
}
