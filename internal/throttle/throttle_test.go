package throttle

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

var base = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func TestAdmitAt(t *testing.T) {
	tests := []struct {
		name        string
		second      time.Duration
		wantAllowed bool
		wantWaitSec int
	}{
		{name: "immediately after", second: 0, wantAllowed: false, wantWaitSec: 30},
		{name: "one ms later", second: time.Millisecond, wantAllowed: false, wantWaitSec: 30},
		{name: "rounds up partial seconds", second: 10*time.Second + 500*time.Millisecond, wantAllowed: false, wantWaitSec: 20},
		{name: "exact seconds", second: 10 * time.Second, wantAllowed: false, wantWaitSec: 20},
		{name: "last millisecond", second: 29*time.Second + 999*time.Millisecond, wantAllowed: false, wantWaitSec: 1},
		{name: "under a millisecond left", second: 30*time.Second - 500*time.Microsecond, wantAllowed: false, wantWaitSec: 1},
		{name: "one nanosecond left", second: 30*time.Second - time.Nanosecond, wantAllowed: false, wantWaitSec: 1},
		{name: "cooldown elapsed", second: 30 * time.Second, wantAllowed: true},
		{name: "long after", second: time.Hour, wantAllowed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := New(30 * time.Second)

			if d := th.AdmitAt(base); !d.Allowed {
				t.Fatal("first call at session start must be allowed")
			}

			d := th.AdmitAt(base.Add(tt.second))
			if d.Allowed != tt.wantAllowed {
				t.Fatalf("expected allowed=%v, got %+v", tt.wantAllowed, d)
			}
			if d.WaitSec != tt.wantWaitSec {
				t.Errorf("expected waitSec %d, got %d", tt.wantWaitSec, d.WaitSec)
			}
		})
	}
}

func TestRejectionDoesNotExtendCooldown(t *testing.T) {
	th := New(30 * time.Second)
	th.AdmitAt(base)
	th.AdmitAt(base.Add(20 * time.Second))

	if d := th.AdmitAt(base.Add(30 * time.Second)); !d.Allowed {
		t.Errorf("rejected calls must not reserve the slot, got %+v", d)
	}
}

func TestAdmitAcceptedCallRestartsWindow(t *testing.T) {
	th := New(30 * time.Second)
	th.AdmitAt(base)
	th.AdmitAt(base.Add(31 * time.Second))

	d := th.AdmitAt(base.Add(40 * time.Second))
	if d.Allowed || d.WaitSec != 21 {
		t.Errorf("expected rejection with 21s wait, got %+v", d)
	}
}

func TestReset(t *testing.T) {
	th := New(30 * time.Second)
	th.AdmitAt(base)

	if th.StateAt(base.Add(time.Second)) != StateCooling {
		t.Fatal("expected cooling after admission")
	}

	th.Reset()

	if th.StateAt(base.Add(time.Second)) != StateOpen {
		t.Fatal("expected open after reset")
	}
	if d := th.AdmitAt(base.Add(time.Second)); !d.Allowed {
		t.Errorf("expected admission right after reset, got %+v", d)
	}
}

func TestClockMovingBackwards(t *testing.T) {
	th := New(30 * time.Second)
	th.AdmitAt(base)

	d := th.AdmitAt(base.Add(-time.Minute))
	if d.Allowed {
		t.Fatal("expected rejection")
	}
	if d.WaitSec != 30 {
		t.Errorf("expected wait capped at cooldown, got %d", d.WaitSec)
	}
}

func TestAdmitUsesClock(t *testing.T) {
	now := base
	th := New(0, WithClock(func() time.Time { return now }))

	if th.Cooldown() != DefaultCooldown {
		t.Fatalf("expected default cooldown, got %s", th.Cooldown())
	}
	if !th.Admit().Allowed {
		t.Fatal("expected first admission")
	}
	now = now.Add(5 * time.Second)
	if d := th.Admit(); d.Allowed || d.WaitSec != 25 {
		t.Errorf("expected 25s wait, got %+v", d)
	}
}

func TestConcurrentAdmitAllowsOne(t *testing.T) {
	th := New(30*time.Second, WithClock(func() time.Time { return base }))

	var allowed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if th.Admit().Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	if allowed.Load() != 1 {
		t.Errorf("expected exactly one admission, got %d", allowed.Load())
	}
}
