package render

import (
	"sync/atomic"
	"time"
)

// FrameMetrics tracks frame timing for the display and the draw stage.
// All methods are safe for concurrent use.
type FrameMetrics struct {
	frameCount    atomic.Int64
	totalFrames   atomic.Int64
	lastFPS       atomic.Int64 // FPS * 1000
	lastFrameTime atomic.Int64 // nanoseconds
	minFrameTime  atomic.Int64
	maxFrameTime  atomic.Int64
	totalTime     atomic.Int64
	lastUpdate    atomic.Int64 // unix nanoseconds
	updatePeriod  time.Duration
}

// NewFrameMetrics creates a FrameMetrics that recomputes FPS every
// updatePeriod (default one second).
func NewFrameMetrics(updatePeriod time.Duration) *FrameMetrics {
	if updatePeriod <= 0 {
		updatePeriod = time.Second
	}
	fm := &FrameMetrics{updatePeriod: updatePeriod}
	fm.lastUpdate.Store(time.Now().UnixNano())
	fm.minFrameTime.Store(int64(time.Hour))
	return fm
}

// RecordFrame records one frame that took frameTime.
func (fm *FrameMetrics) RecordFrame(frameTime time.Duration) {
	ns := frameTime.Nanoseconds()
	fm.frameCount.Add(1)
	fm.totalFrames.Add(1)
	fm.lastFrameTime.Store(ns)
	fm.totalTime.Add(ns)

	for {
		cur := fm.minFrameTime.Load()
		if ns >= cur || fm.minFrameTime.CompareAndSwap(cur, ns) {
			break
		}
	}
	for {
		cur := fm.maxFrameTime.Load()
		if ns <= cur || fm.maxFrameTime.CompareAndSwap(cur, ns) {
			break
		}
	}

	now := time.Now().UnixNano()
	last := fm.lastUpdate.Load()
	elapsed := time.Duration(now - last)
	if elapsed >= fm.updatePeriod && fm.lastUpdate.CompareAndSwap(last, now) {
		frames := fm.frameCount.Swap(0)
		fm.lastFPS.Store(int64(float64(frames) / elapsed.Seconds() * 1000))
	}
}

// FPS returns the frame rate measured over the last update period.
func (fm *FrameMetrics) FPS() float64 {
	return float64(fm.lastFPS.Load()) / 1000
}

// Frames returns the number of frames recorded since the last Reset.
func (fm *FrameMetrics) Frames() int64 {
	return fm.totalFrames.Load()
}

// LastFrameTime returns the duration of the most recent frame.
func (fm *FrameMetrics) LastFrameTime() time.Duration {
	return time.Duration(fm.lastFrameTime.Load())
}

// MinFrameTime returns the shortest recorded frame, or zero if none.
func (fm *FrameMetrics) MinFrameTime() time.Duration {
	if fm.totalFrames.Load() == 0 {
		return 0
	}
	return time.Duration(fm.minFrameTime.Load())
}

// MaxFrameTime returns the longest recorded frame.
func (fm *FrameMetrics) MaxFrameTime() time.Duration {
	return time.Duration(fm.maxFrameTime.Load())
}

// AverageFrameTime returns the mean frame duration.
func (fm *FrameMetrics) AverageFrameTime() time.Duration {
	n := fm.totalFrames.Load()
	if n == 0 {
		return 0
	}
	return time.Duration(fm.totalTime.Load() / n)
}

// Reset clears all counters.
func (fm *FrameMetrics) Reset() {
	fm.frameCount.Store(0)
	fm.totalFrames.Store(0)
	fm.lastFPS.Store(0)
	fm.lastFrameTime.Store(0)
	fm.minFrameTime.Store(int64(time.Hour))
	fm.maxFrameTime.Store(0)
	fm.totalTime.Store(0)
	fm.lastUpdate.Store(time.Now().UnixNano())
}

// RenderStats counts the draw calls issued to a surface.
type RenderStats struct {
	drawCalls  atomic.Int64
	polygons   atomic.Int64
	textDraws  atomic.Int64
	imageDraws atomic.Int64
	resetTime  atomic.Int64
}

// NewRenderStats creates zeroed counters.
func NewRenderStats() *RenderStats {
	rs := &RenderStats{}
	rs.resetTime.Store(time.Now().UnixNano())
	return rs
}

// RecordDrawCall records one filled draw made of polygons polygons.
func (rs *RenderStats) RecordDrawCall(polygons int) {
	rs.drawCalls.Add(1)
	rs.polygons.Add(int64(polygons))
}

// RecordTextDraw records one text draw.
func (rs *RenderStats) RecordTextDraw() {
	rs.textDraws.Add(1)
}

// RecordImageDraw records one image draw.
func (rs *RenderStats) RecordImageDraw() {
	rs.imageDraws.Add(1)
}

// Stats returns the counters.
func (rs *RenderStats) Stats() (drawCalls, textDraws, imageDraws int64) {
	return rs.drawCalls.Load(), rs.textDraws.Load(), rs.imageDraws.Load()
}

// Reset zeroes the counters.
func (rs *RenderStats) Reset() {
	rs.drawCalls.Store(0)
	rs.polygons.Store(0)
	rs.textDraws.Store(0)
	rs.imageDraws.Store(0)
	rs.resetTime.Store(time.Now().UnixNano())
}

// TimeSinceReset returns how long the counters have been accumulating.
func (rs *RenderStats) TimeSinceReset() time.Duration {
	return time.Since(time.Unix(0, rs.resetTime.Load()))
}
