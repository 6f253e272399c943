package reactive

import (
	"sync"
	"testing"
)

// testListener records MarkStale calls for subscription tests.
type testListener struct {
	id uint64

	mu    sync.Mutex
	count int
}

func newTestListener() *testListener {
	return &testListener{id: nextID()}
}

func (l *testListener) MarkStale() {
	l.mu.Lock()
	l.count++
	l.mu.Unlock()
}

func (l *testListener) ID() uint64 { return l.id }

func (l *testListener) staleCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

func TestSignalGetSet(t *testing.T) {
	s := NewSignal(42)

	if got := s.Get(); got != 42 {
		t.Errorf("expected initial value 42, got %d", got)
	}

	s.Set(100)
	if got := s.Get(); got != 100 {
		t.Errorf("expected 100 after Set, got %d", got)
	}
}

func TestSignalUpdate(t *testing.T) {
	s := NewSignal(10)
	s.Update(func(v int) int { return v * 3 })

	if got := s.Get(); got != 30 {
		t.Errorf("expected 30 after Update, got %d", got)
	}
}

func TestSignalEqualWriteIsNoOp(t *testing.T) {
	s := NewSignal(5)
	l := newTestListener()
	s.subscribe(l)

	s.Set(5)
	if got := l.staleCount(); got != 0 {
		t.Errorf("expected no notification for equal write, got %d", got)
	}

	s.Set(6)
	if got := l.staleCount(); got != 1 {
		t.Errorf("expected one notification after change, got %d", got)
	}

	s.Update(func(v int) int { return v })
	if got := l.staleCount(); got != 1 {
		t.Errorf("expected no notification for identity Update, got %d", got)
	}
}

func TestSignalWithEquals(t *testing.T) {
	// Compare only the integer part: writes that change the fraction alone
	// are suppressed.
	s := NewSignal(1.2).WithEquals(func(a, b float64) bool {
		return int(a) == int(b)
	})
	l := newTestListener()
	s.subscribe(l)

	s.Set(1.9)
	if got := l.staleCount(); got != 0 {
		t.Errorf("expected suppressed write, got %d notifications", got)
	}
	if got := s.Get(); got != 1.2 {
		t.Errorf("expected suppressed write to keep 1.2, got %v", got)
	}

	s.Set(2.0)
	if got := l.staleCount(); got != 1 {
		t.Errorf("expected notification after integer part changed, got %d", got)
	}
}

func TestSignalWithEqualsNilAlwaysNotifies(t *testing.T) {
	s := NewSignal(1).WithEquals(nil)
	l := newTestListener()
	s.subscribe(l)

	s.Set(1)
	s.Set(1)
	if got := l.staleCount(); got != 2 {
		t.Errorf("expected every write to notify with nil predicate, got %d", got)
	}
}

func TestSignalDefaultEqualsDeepForComposites(t *testing.T) {
	s := NewSignal([]int{1, 2})
	l := newTestListener()
	s.subscribe(l)

	s.Set([]int{1, 2})
	if got := l.staleCount(); got != 0 {
		t.Errorf("expected deep-equal slice write to be suppressed, got %d", got)
	}

	s.Set([]int{1, 2, 3})
	if got := l.staleCount(); got != 1 {
		t.Errorf("expected changed slice to notify, got %d", got)
	}
}

func TestSignalPeekDoesNotTrack(t *testing.T) {
	s := NewSignal(1)
	runs := 0

	CreateEffect(func() Cleanup {
		s.Peek()
		runs++
		return nil
	})
	if runs != 1 {
		t.Fatalf("expected one initial run, got %d", runs)
	}

	s.Set(2)
	if runs != 1 {
		t.Errorf("expected Peek to leave no subscription, got %d runs", runs)
	}
}

func TestSignalSubscribeDedup(t *testing.T) {
	s := NewSignal(1)
	l := newTestListener()

	s.subscribe(l)
	s.subscribe(l)

	s.Set(2)
	if got := l.staleCount(); got != 1 {
		t.Errorf("expected duplicate subscription to collapse, got %d notifications", got)
	}
}

func TestSignalUnsubscribe(t *testing.T) {
	s := NewSignal(1)
	l := newTestListener()
	s.subscribe(l)
	s.unsubscribe(l)

	s.Set(2)
	if got := l.staleCount(); got != 0 {
		t.Errorf("expected no notification after unsubscribe, got %d", got)
	}
}

func TestSignalNames(t *testing.T) {
	s := NewSignal(0).WithName("counter")
	if s.Name() != "counter" {
		t.Errorf("expected name %q, got %q", "counter", s.Name())
	}
	if s.ID() == 0 {
		t.Error("expected a nonzero id")
	}
}

func TestSignalConcurrentReadsAndWrites(t *testing.T) {
	s := NewSignal(0)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Set(n*100 + j)
				_ = s.Get()
			}
		}(i)
	}
	wg.Wait()

	if got := s.Get(); got < 0 || got >= 800 {
		t.Errorf("final value %d out of range", got)
	}
}
