package forceviz

import (
	"errors"
	"sync"
	"time"
)

// ErrReloadSuspended is reported instead of a reload while watcher-driven
// reloads are suspended after repeated failures.
var ErrReloadSuspended = errors.New("config reloads suspended after repeated failures")

// guardState is the state of a reloadGuard.
type guardState int

const (
	guardClosed guardState = iota
	guardOpen
	guardHalfOpen
)

func (s guardState) String() string {
	switch s {
	case guardClosed:
		return "closed"
	case guardOpen:
		return "open"
	case guardHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Reload guard defaults.
const (
	defaultReloadFailures = 3
	defaultReloadCooldown = 30 * time.Second
)

// reloadGuard is a circuit breaker around watcher-triggered reloads. An
// editor saving a broken file several times in a row would otherwise
// reparse and report the same error on every save. After threshold
// consecutive failures the guard opens and rejects reloads until cooldown
// has passed; the next reload is then a trial that closes the guard on
// success and reopens it on failure.
type reloadGuard struct {
	threshold int
	cooldown  time.Duration
	now       func() time.Time

	mu         sync.Mutex
	state      guardState
	failures   int
	openedAt   time.Time
	trial      bool
	rejections int64
}

func newReloadGuard(threshold int, cooldown time.Duration) *reloadGuard {
	if threshold <= 0 {
		threshold = defaultReloadFailures
	}
	if cooldown <= 0 {
		cooldown = defaultReloadCooldown
	}
	return &reloadGuard{threshold: threshold, cooldown: cooldown, now: time.Now}
}

// do runs fn unless the guard is open.
func (g *reloadGuard) do(fn func() error) error {
	if !g.allow() {
		return ErrReloadSuspended
	}
	err := fn()
	g.record(err)
	return err
}

func (g *reloadGuard) allow() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.state {
	case guardOpen:
		if g.now().Sub(g.openedAt) < g.cooldown {
			g.rejections++
			return false
		}
		g.state = guardHalfOpen
		g.trial = true
		return true
	case guardHalfOpen:
		if g.trial {
			g.rejections++
			return false
		}
		g.trial = true
		return true
	default:
		return true
	}
}

func (g *reloadGuard) record(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.trial = false
	if err == nil {
		g.state = guardClosed
		g.failures = 0
		return
	}
	g.failures++
	if g.state == guardHalfOpen || g.failures >= g.threshold {
		g.state = guardOpen
		g.openedAt = g.now()
	}
}

// current reports the state, treating an open guard whose cooldown has
// passed as half-open.
func (g *reloadGuard) current() guardState {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == guardOpen && g.now().Sub(g.openedAt) >= g.cooldown {
		return guardHalfOpen
	}
	return g.state
}

// reset closes the guard. Used when a reload is requested explicitly.
func (g *reloadGuard) reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = guardClosed
	g.failures = 0
	g.trial = false
}
