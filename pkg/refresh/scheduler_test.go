package refresh

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

func TestFireInvokesEveryRegisteredCallbackOnce(t *testing.T) {
	s := New(zap.NewNop(), clock.New(), time.Second)

	var a, b atomic.Int64
	s.Register("summary", func() { a.Add(1) })
	s.Register("timeline", func() { b.Add(1) })

	s.fire()
	if a.Load() != 1 || b.Load() != 1 {
		t.Fatalf("calls after one tick = %d, %d, want 1, 1", a.Load(), b.Load())
	}

	s.fire()
	if a.Load() != 2 || b.Load() != 2 {
		t.Fatalf("calls after two ticks = %d, %d, want 2, 2", a.Load(), b.Load())
	}
}

func TestTickForUnregisteredIdIsNoOp(t *testing.T) {
	s := New(zap.NewNop(), clock.New(), time.Second)

	var calls atomic.Int64
	s.Register("summary", func() { calls.Add(1) })
	s.Unregister("summary")

	s.fire()
	s.tick("summary")
	s.tick("never-registered")

	if calls.Load() != 0 {
		t.Errorf("calls = %d after unregister, want 0", calls.Load())
	}
}

func TestRegisterReplacesCallback(t *testing.T) {
	s := New(zap.NewNop(), clock.New(), time.Second)

	var old, replacement atomic.Int64
	s.Register("summary", func() { old.Add(1) })
	s.Register("summary", func() { replacement.Add(1) })

	s.fire()
	if old.Load() != 0 {
		t.Errorf("replaced callback still invoked %d times", old.Load())
	}
	if replacement.Load() != 1 {
		t.Errorf("replacement invoked %d times, want 1", replacement.Load())
	}
}

func TestRunFiresOncePerInterval(t *testing.T) {
	mock := clock.NewMock()
	s := New(zap.NewNop(), mock, 30*time.Second)

	ticks := make(chan struct{}, 16)
	s.Register("summary", func() { ticks <- struct{}{} })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	// give Run a moment to install its ticker on the mock clock
	time.Sleep(10 * time.Millisecond)

	expectTicks := func(want int) {
		t.Helper()
		for i := 0; i < want; i++ {
			select {
			case <-ticks:
			case <-time.After(2 * time.Second):
				t.Fatalf("tick %d of %d never fired", i+1, want)
			}
		}
		select {
		case <-ticks:
			t.Fatal("extra tick fired")
		case <-time.After(50 * time.Millisecond):
		}
	}

	mock.Add(30 * time.Second)
	expectTicks(1)

	mock.Add(30 * time.Second)
	expectTicks(1)

	// half an interval elapses: nothing may fire
	mock.Add(15 * time.Second)
	expectTicks(0)

	if got := s.Ticks(); got != 2 {
		t.Errorf("Ticks() = %d, want 2", got)
	}

	cancel()
	time.Sleep(10 * time.Millisecond)
	mock.Add(time.Minute)
	expectTicks(0)
}
