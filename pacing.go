package framebench

import (
	"sync"
	"time"
)

// Pacer decides when the driving loop may advance to the next frame.
//
// Two modes are supported, converging to the same steady-state rate:
//
//   - Poll mode (ShouldAdvance): for always-repainting display loops that
//     tick continuously and only want to know "is the next frame due?".
//   - Blocking mode (Maintain): for synchronous consumption loops that want
//     to sleep away the surplus between decode speed and target rate.
//
// A target of 0 means unconstrained: ShouldAdvance always reports true and
// Maintain returns immediately. The target can be changed at runtime; the
// new rate takes effect on the next pacing decision.
type Pacer struct {
	mu        sync.Mutex
	targetFPS uint32
	lastEmit  time.Time

	// injected for tests
	now   func() time.Time
	sleep func(time.Duration)
}

// NewPacer returns a pacer for the given target rate (0 = unconstrained).
func NewPacer(targetFPS uint32) *Pacer {
	return &Pacer{
		targetFPS: targetFPS,
		now:       time.Now,
		sleep:     time.Sleep,
	}
}

// SetTargetFPS changes the target rate. Takes effect on the next pacing
// decision, not retroactively.
func (p *Pacer) SetTargetFPS(fps uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.targetFPS = fps
}

// TargetFPS returns the current target rate.
func (p *Pacer) TargetFPS() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.targetFPS
}

// interval returns the fixed inter-frame interval for fps > 0.
func interval(fps uint32) time.Duration {
	return time.Duration(uint64(time.Second) / uint64(fps))
}

// ShouldAdvance reports whether the next frame is due (poll mode) and, when
// it is, records the emission instant. With no target it always reports
// true; the very first call reports true unconditionally.
func (p *Pacer) ShouldAdvance() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	if p.targetFPS == 0 || p.lastEmit.IsZero() || now.Sub(p.lastEmit) >= interval(p.targetFPS) {
		p.lastEmit = now
		return true
	}
	return false
}

// Maintain blocks until the next frame is due (blocking mode): it sleeps
// away any deficit between the fixed interval and the time elapsed since
// the previous call, then records the new instant. With no target it is a
// no-op, letting the loop run at maximum decode speed.
//
// The sleep is intentional backpressure to cap throughput, not an error
// condition.
func (p *Pacer) Maintain() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.targetFPS == 0 {
		return
	}

	now := p.now()
	if !p.lastEmit.IsZero() {
		if deficit := interval(p.targetFPS) - now.Sub(p.lastEmit); deficit > 0 {
			p.sleep(deficit)
			now = p.now()
		}
	}
	p.lastEmit = now
}
