package throttle

import (
	"sync"
	"time"
)

// DefaultCooldown is the minimum spacing between accepted extraction requests.
const DefaultCooldown = 30 * time.Second

// State is the observable state of the throttle
type State int

const (
	StateOpen State = iota
	StateCooling
)

func (s State) String() string {
	if s == StateCooling {
		return "cooling"
	}
	return "open"
}

// Decision is the outcome of Admit
type Decision struct {
	Allowed   bool
	Remaining time.Duration
	// WaitSec is Remaining rounded up to whole seconds; zero when allowed.
	WaitSec int
}

// Throttle is a process-wide cooldown gate. The slot is reserved at admission,
// before the guarded call runs, so concurrent callers cannot both pass.
type Throttle struct {
	mu       sync.Mutex
	cooldown time.Duration
	now      func() time.Time
	last     time.Time
}

// Option configures a Throttle
type Option func(*Throttle)

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(t *Throttle) {
		t.now = now
	}
}

// New creates a Throttle. A non-positive cooldown uses DefaultCooldown.
func New(cooldown time.Duration, opts ...Option) *Throttle {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	t := &Throttle{
		cooldown: cooldown,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Cooldown returns the configured cooldown window
func (t *Throttle) Cooldown() time.Duration {
	return t.cooldown
}

// Admit checks and reserves the slot using the throttle's clock
func (t *Throttle) Admit() Decision {
	return t.AdmitAt(t.now())
}

// AdmitAt permits the call and records now when no call has been accepted yet
// or the cooldown has elapsed. Otherwise it reports the remaining wait.
func (t *Throttle) AdmitAt(now time.Time) Decision {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.last.IsZero() {
		t.last = now
		return Decision{Allowed: true}
	}

	elapsed := now.Sub(t.last)
	if elapsed >= t.cooldown {
		t.last = now
		return Decision{Allowed: true}
	}

	remaining := t.cooldown - elapsed
	if remaining > t.cooldown {
		// clock moved backwards
		remaining = t.cooldown
	}
	return Decision{
		Remaining: remaining,
		WaitSec:   int((remaining + time.Second - 1) / time.Second),
	}
}

// Reset forces the throttle open. Used when the guarded call failed on quota,
// since no extraction actually happened.
func (t *Throttle) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = time.Time{}
}

// StateAt reports whether the throttle would admit a call at now
func (t *Throttle) StateAt(now time.Time) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.last.IsZero() || now.Sub(t.last) >= t.cooldown {
		return StateOpen
	}
	return StateCooling
}
