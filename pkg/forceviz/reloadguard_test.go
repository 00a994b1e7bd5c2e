package forceviz

import (
	"errors"
	"testing"
	"time"
)

// fakeClock is a settable time source.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestGuard(threshold int, cooldown time.Duration) (*reloadGuard, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	g := newReloadGuard(threshold, cooldown)
	g.now = clock.now
	return g, clock
}

func TestGuardStateString(t *testing.T) {
	tests := []struct {
		state guardState
		want  string
	}{
		{guardClosed, "closed"},
		{guardOpen, "open"},
		{guardHalfOpen, "half-open"},
		{guardState(9), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("guardState(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestReloadGuardDefaults(t *testing.T) {
	g := newReloadGuard(0, 0)
	if g.threshold != defaultReloadFailures || g.cooldown != defaultReloadCooldown {
		t.Errorf("threshold=%d cooldown=%v, want defaults", g.threshold, g.cooldown)
	}
}

func TestReloadGuardOpensAfterThreshold(t *testing.T) {
	g, _ := newTestGuard(2, time.Minute)
	fail := errors.New("broken file")
	calls := 0
	failing := func() error { calls++; return fail }

	if err := g.do(failing); !errors.Is(err, fail) {
		t.Fatalf("first failure = %v", err)
	}
	if g.current() != guardClosed {
		t.Errorf("state after one failure = %s, want closed", g.current())
	}
	_ = g.do(failing)
	if g.current() != guardOpen {
		t.Fatalf("state after threshold = %s, want open", g.current())
	}

	if err := g.do(failing); !errors.Is(err, ErrReloadSuspended) {
		t.Errorf("open guard = %v, want ErrReloadSuspended", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, an open guard must not run the reload", calls)
	}
	if g.rejections != 1 {
		t.Errorf("rejections = %d, want 1", g.rejections)
	}
}

func TestReloadGuardSuccessResetsFailures(t *testing.T) {
	g, _ := newTestGuard(2, time.Minute)
	fail := errors.New("x")

	_ = g.do(func() error { return fail })
	_ = g.do(func() error { return nil })
	_ = g.do(func() error { return fail })
	if g.current() != guardClosed {
		t.Errorf("state = %s, want closed: failures are counted consecutively", g.current())
	}
}

func TestReloadGuardHalfOpenTrial(t *testing.T) {
	g, clock := newTestGuard(1, time.Minute)
	fail := errors.New("x")

	_ = g.do(func() error { return fail })
	if g.current() != guardOpen {
		t.Fatalf("state = %s, want open", g.current())
	}

	clock.t = clock.t.Add(time.Minute)
	if g.current() != guardHalfOpen {
		t.Fatalf("state after cooldown = %s, want half-open", g.current())
	}

	// A failing trial reopens the guard for another cooldown.
	_ = g.do(func() error { return fail })
	if g.current() != guardOpen {
		t.Fatalf("state after failed trial = %s, want open", g.current())
	}

	clock.t = clock.t.Add(time.Minute)
	if err := g.do(func() error { return nil }); err != nil {
		t.Fatalf("successful trial = %v", err)
	}
	if g.current() != guardClosed {
		t.Errorf("state after successful trial = %s, want closed", g.current())
	}
}

func TestReloadGuardSingleTrial(t *testing.T) {
	g, clock := newTestGuard(1, time.Second)
	_ = g.do(func() error { return errors.New("x") })
	clock.t = clock.t.Add(time.Second)

	inner := errors.New("unset")
	err := g.do(func() error {
		// A second reload while the trial runs is rejected.
		inner = g.do(func() error { return nil })
		return nil
	})
	if err != nil {
		t.Fatalf("trial = %v", err)
	}
	if !errors.Is(inner, ErrReloadSuspended) {
		t.Errorf("concurrent reload during trial = %v, want ErrReloadSuspended", inner)
	}
}

func TestReloadGuardReset(t *testing.T) {
	g, _ := newTestGuard(1, time.Hour)
	_ = g.do(func() error { return errors.New("x") })
	g.reset()
	if g.current() != guardClosed {
		t.Errorf("state after reset = %s, want closed", g.current())
	}
	if err := g.do(func() error { return nil }); err != nil {
		t.Errorf("do after reset = %v", err)
	}
}
