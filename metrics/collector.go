package metrics

import (
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
)

// defaultWindowSize bounds the FPS window: instantaneous FPS is computed
// over at most this many recent frames.
const defaultWindowSize = 60

// windowEntry pairs a wall-clock instant with the frame number recorded at
// that instant.
type windowEntry struct {
	at    time.Time
	frame uint64
}

// Collector ingests one sample per recorded frame and maintains three
// consistent views: instantaneous (bounded window), cumulative (session
// counters) and peak (running maxima).
//
// Not safe for concurrent use; a single driving loop must own it. Display
// surfaces consume Live() / Finalize() snapshots published by that loop.
type Collector struct {
	sessionID string
	sampler   Sampler

	sessionStart time.Time
	lastRecord   time.Time

	window     []windowEntry
	windowSize int

	samples     []FrameSample
	totalFrames uint64

	peakMemoryMB   float64
	peakCPUPercent float64
	droppedFrames  uint64

	samplerFailures uint64

	now func() time.Time // injected for tests
}

// NewCollector returns a collector sampling system state through sampler.
// The sampler is owned by the collector for the session's lifetime; pass
// NopSampler to run without system telemetry.
func NewCollector(sampler Sampler) *Collector {
	if sampler == nil {
		sampler = NopSampler{}
	}
	c := &Collector{
		sessionID:  uuid.NewString(),
		sampler:    sampler,
		windowSize: defaultWindowSize,
		now:        time.Now,
	}
	c.sessionStart = c.now()
	return c
}

// SessionID returns the session's unique identifier.
func (c *Collector) SessionID() string {
	return c.sessionID
}

// Record appends one frame sample: it computes the wall-clock delta since
// the previous sample, takes a system snapshot, updates running peaks,
// pushes the frame into the FPS window (evicting the oldest entry past
// capacity) and increments the total frame counter.
//
// streamTimestamp is the frame's stream time in seconds.
func (c *Collector) Record(frameNumber uint64, streamTimestamp float64) {
	now := c.now()

	processingMS := 0.0
	if !c.lastRecord.IsZero() {
		processingMS = now.Sub(c.lastRecord).Seconds() * 1000
	}

	snap, err := c.sampler.Sample()
	if err != nil {
		// Sampling failures degrade telemetry but must not stop playback;
		// they are counted and reported in debug logs.
		c.samplerFailures++
		snap = Snapshot{}
		slog.Debug("metrics: system snapshot failed", "error", err, "failures", c.samplerFailures)
	}

	c.peakMemoryMB = math.Max(c.peakMemoryMB, snap.MemoryMB)
	c.peakCPUPercent = math.Max(c.peakCPUPercent, snap.CPUPercent)

	c.samples = append(c.samples, FrameSample{
		FrameNumber:      frameNumber,
		Timestamp:        streamTimestamp,
		ProcessingTimeMS: processingMS,
		MemoryUsageMB:    snap.MemoryMB,
		CPUUsagePercent:  snap.CPUPercent,
	})

	c.window = append(c.window, windowEntry{at: now, frame: frameNumber})
	if len(c.window) > c.windowSize {
		c.window = c.window[1:]
	}

	c.totalFrames++
	c.lastRecord = now
}

// CurrentFPS is the instantaneous frame rate derived from the bounded
// window only: frames spanned over wall time spanned. Returns 0 with fewer
// than two window entries or when no time has elapsed between them.
func (c *Collector) CurrentFPS() float64 {
	if len(c.window) < 2 {
		return 0
	}
	first := c.window[0]
	last := c.window[len(c.window)-1]

	seconds := last.at.Sub(first.at).Seconds()
	if seconds <= 0 {
		return 0
	}
	return float64(last.frame-first.frame) / seconds
}

// AverageFPS is the cumulative session rate: total recorded frames over
// time since the collector was created. Distinct from CurrentFPS, which is
// windowed and reacts faster to pacing changes.
func (c *Collector) AverageFPS() float64 {
	elapsed := c.now().Sub(c.sessionStart).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(c.totalFrames) / elapsed
}

// MaxFPS is computed lazily from consecutive stream-timestamp pairs in the
// full sample log. A zero or negative timestamp delta contributes 0, so an
// all-degenerate log yields 0 rather than an error.
func (c *Collector) MaxFPS() float64 {
	max := 0.0
	for i := 1; i < len(c.samples); i++ {
		if dt := c.samples[i].Timestamp - c.samples[i-1].Timestamp; dt > 0 {
			max = math.Max(max, 1/dt)
		}
	}
	return max
}

// MinFPS is the counterpart of MaxFPS. Degenerate deltas contribute
// +Inf, so an all-degenerate (or too-short) log yields +Inf: "no
// well-defined minimum", not an error.
func (c *Collector) MinFPS() float64 {
	min := math.Inf(1)
	for i := 1; i < len(c.samples); i++ {
		if dt := c.samples[i].Timestamp - c.samples[i-1].Timestamp; dt > 0 {
			min = math.Min(min, 1/dt)
		}
	}
	return min
}

// PeakMemoryMB never decreases across a session.
func (c *Collector) PeakMemoryMB() float64 {
	return c.peakMemoryMB
}

// AverageMemoryMB averages over the full sample log (0 when empty).
func (c *Collector) AverageMemoryMB() float64 {
	if len(c.samples) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range c.samples {
		sum += s.MemoryUsageMB
	}
	return sum / float64(len(c.samples))
}

// PeakCPUPercent never decreases across a session.
func (c *Collector) PeakCPUPercent() float64 {
	return c.peakCPUPercent
}

// AverageCPUPercent averages over the full sample log (0 when empty).
func (c *Collector) AverageCPUPercent() float64 {
	if len(c.samples) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range c.samples {
		sum += s.CPUUsagePercent
	}
	return sum / float64(len(c.samples))
}

// TotalFrames returns the number of recorded frames.
func (c *Collector) TotalFrames() uint64 {
	return c.totalFrames
}

// SessionDuration returns the wall time since the collector was created.
func (c *Collector) SessionDuration() time.Duration {
	return c.now().Sub(c.sessionStart)
}

// DroppedFrames returns the external drop counter.
func (c *Collector) DroppedFrames() uint64 {
	return c.droppedFrames
}

// AddDroppedFrame increments the drop counter. Dropping is an explicit
// external signal: the collector never infers drops from the sample log.
func (c *Collector) AddDroppedFrame() {
	c.droppedFrames++
}

// Live returns a point-in-time view for display surfaces. It takes a fresh
// system snapshot so memory/CPU reflect "now" rather than the last
// recorded frame.
func (c *Collector) Live() LiveStats {
	snap, err := c.sampler.Sample()
	if err != nil {
		c.samplerFailures++
		snap = Snapshot{}
	}
	return LiveStats{
		SessionID:      c.sessionID,
		CurrentFPS:     c.CurrentFPS(),
		AverageFPS:     c.AverageFPS(),
		MemoryMB:       snap.MemoryMB,
		CPUPercent:     snap.CPUPercent,
		TotalFrames:    c.totalFrames,
		DroppedFrames:  c.droppedFrames,
		ElapsedSeconds: c.SessionDuration().Seconds(),
	}
}

// Finalize builds a session report reflecting the collector's state at call
// time. Idempotent and side-effect-free: it may be called repeatedly (for
// display, then export) and never resets counters. The sample log is copied
// so later Record calls cannot mutate an issued report.
func (c *Collector) Finalize() Report {
	samples := make([]FrameSample, len(c.samples))
	copy(samples, c.samples)

	return Report{
		SessionID:         c.sessionID,
		StartTime:         c.sessionStart,
		EndTime:           c.now(),
		TotalFrames:       c.totalFrames,
		Duration:          c.SessionDuration().Seconds(),
		AverageFPS:        c.AverageFPS(),
		MaxFPS:            c.MaxFPS(),
		MinFPS:            c.MinFPS(),
		PeakMemoryMB:      c.peakMemoryMB,
		AverageMemoryMB:   c.AverageMemoryMB(),
		AverageCPUPercent: c.AverageCPUPercent(),
		PeakCPUPercent:    c.peakCPUPercent,
		DroppedFrames:     c.droppedFrames,
		Samples:           samples,
	}
}

// NopSampler is a Sampler that always reports zero usage. Useful when
// process introspection is unavailable.
type NopSampler struct{}

// Sample implements Sampler.
func (NopSampler) Sample() (Snapshot, error) {
	return Snapshot{}, nil
}
