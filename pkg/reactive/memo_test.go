package reactive

import (
	"errors"
	"testing"
)

func TestMemoLazyFirstRead(t *testing.T) {
	evals := 0
	m := NewMemo(func() int {
		evals++
		return 7
	})

	if evals != 0 {
		t.Fatalf("expected no evaluation before first read, got %d", evals)
	}
	if got := m.Get(); got != 7 {
		t.Errorf("expected 7, got %d", got)
	}
	if evals != 1 {
		t.Errorf("expected one evaluation after first read, got %d", evals)
	}

	m.Get()
	m.Get()
	if evals != 1 {
		t.Errorf("expected cached reads, got %d evaluations", evals)
	}
}

func TestMemoRecomputesOnlyOnReadAfterWrite(t *testing.T) {
	s := NewSignal(2)
	evals := 0
	m := NewMemo(func() int {
		evals++
		return s.Get() * 10
	})

	if got := m.Get(); got != 20 {
		t.Fatalf("expected 20, got %d", got)
	}

	s.Set(3)
	if evals != 1 {
		t.Errorf("expected write to mark stale without recomputing, got %d evaluations", evals)
	}
	if m.State() != StateStale {
		t.Errorf("expected StateStale after write, got %v", m.State())
	}

	if got := m.Get(); got != 30 {
		t.Errorf("expected 30 after read, got %d", got)
	}
	if evals != 2 {
		t.Errorf("expected exactly one recompute, got %d evaluations", evals)
	}
	if m.State() != StateClean {
		t.Errorf("expected StateClean after read, got %v", m.State())
	}
}

func TestMemoChain(t *testing.T) {
	s := NewSignal(1)
	double := NewMemo(func() int { return s.Get() * 2 })
	quad := NewMemo(func() int { return double.Get() * 2 })

	if got := quad.Get(); got != 4 {
		t.Fatalf("expected 4, got %d", got)
	}

	s.Set(5)
	if got := quad.Get(); got != 20 {
		t.Errorf("expected 20 after write, got %d", got)
	}
}

func TestMemoEqualResultKeepsCachedValue(t *testing.T) {
	s := NewSignal(1)
	// Evaluator result only depends on the sign of s.
	m := NewMemo(func() []int {
		if s.Get() > 0 {
			return []int{1}
		}
		return []int{-1}
	})

	first := m.Get()
	s.Set(2)
	second := m.Get()

	if &first[0] != &second[0] {
		t.Error("expected equal recompute to keep the previous cached slice")
	}
}

func TestMemoEqualResultDoesNotRenotify(t *testing.T) {
	s := NewSignal(1)
	m := NewMemo(func() int {
		if s.Get() > 0 {
			return 1
		}
		return -1
	})

	runs := 0
	CreateEffect(func() Cleanup {
		m.Get()
		runs++
		return nil
	})
	if runs != 1 {
		t.Fatalf("expected one initial run, got %d", runs)
	}

	// The write queues the effect, but the memo's own subscribers are not
	// re-marked when the recompute lands on an equal value.
	s.Set(2)
	l := newTestListener()
	m.subscribe(l)
	s.Set(3)
	m.Get()
	if got := l.staleCount(); got != 1 {
		t.Errorf("expected only the write-time mark, got %d", got)
	}
}

func TestMemoWithEquals(t *testing.T) {
	s := NewSignal("a")
	evals := 0
	m := NewMemo(func() string {
		evals++
		return s.Get()
	}).WithEquals(func(a, b string) bool {
		return len(a) == len(b)
	})

	if got := m.Get(); got != "a" {
		t.Fatalf("expected %q, got %q", "a", got)
	}

	s.Set("b")
	if got := m.Get(); got != "a" {
		t.Errorf("expected same-length result to keep %q, got %q", "a", got)
	}
	if evals != 2 {
		t.Errorf("expected recompute to run, got %d evaluations", evals)
	}

	s.Set("long")
	if got := m.Get(); got != "long" {
		t.Errorf("expected %q after length change, got %q", "long", got)
	}
}

func TestMemoPeekRecomputesWithoutTracking(t *testing.T) {
	s := NewSignal(1)
	m := NewMemo(func() int { return s.Get() * 2 })

	runs := 0
	CreateEffect(func() Cleanup {
		m.Peek()
		runs++
		return nil
	})
	if runs != 1 {
		t.Fatalf("expected one initial run, got %d", runs)
	}

	if m.State() != StateClean {
		t.Errorf("expected Peek to have recomputed, state %v", m.State())
	}

	s.Set(9)
	if runs != 1 {
		t.Errorf("expected Peek to leave no subscription, got %d runs", runs)
	}
	if got := m.Peek(); got != 18 {
		t.Errorf("expected Peek to recompute stale memo, got %d", got)
	}
}

func TestMemoErrorCaptureAndRethrow(t *testing.T) {
	s := NewSignal(1)
	evals := 0
	m := NewMemo(func() int {
		v := s.Get()
		evals++
		if v == 1 {
			panic("bad input")
		}
		return v * 2
	})

	mustPanic := func(want any) {
		t.Helper()
		defer func() {
			r := recover()
			if r != want {
				t.Errorf("expected panic %v, got %v", want, r)
			}
		}()
		m.Get()
		t.Error("expected Get to panic")
	}

	mustPanic("bad input")
	if m.State() != StateErrored {
		t.Fatalf("expected StateErrored, got %v", m.State())
	}

	// Repeated reads re-panic the captured value without re-running the
	// evaluator.
	mustPanic("bad input")
	if evals != 1 {
		t.Errorf("expected one evaluation, got %d", evals)
	}

	// A dependency write re-arms the memo.
	s.Set(4)
	if got := m.Get(); got != 8 {
		t.Errorf("expected recovery value 8, got %d", got)
	}
	if evals != 2 {
		t.Errorf("expected second evaluation after recovery, got %d", evals)
	}
}

func TestMemoCycleDirect(t *testing.T) {
	var m *Memo[int]
	m = NewMemo(func() int {
		return m.Get() + 1
	})

	// The re-entrant read reports the cycle and serves the zero value
	// instead of recursing.
	if got := m.Get(); got != 1 {
		t.Errorf("expected 1 from cycle fallback, got %d", got)
	}
}

func TestMemoCycleTransitive(t *testing.T) {
	var m1, m2 *Memo[int]
	m1 = NewMemo(func() int { return m2.Get() + 1 })
	m2 = NewMemo(func() int { return m1.Get() + 1 })

	before := Stats().CyclesDetected
	if got := m1.Get(); got != 2 {
		t.Errorf("expected 2 from transitive cycle fallback, got %d", got)
	}
	if got := Stats().CyclesDetected - before; got != 1 {
		t.Errorf("expected one cycle report, got %d", got)
	}
}

func TestCycleErrorUnwraps(t *testing.T) {
	cerr := &CycleError{NodeID: 3, Name: "loop"}
	if !errors.Is(cerr, ErrCycleDetected) {
		t.Error("expected CycleError to match ErrCycleDetected")
	}
}

func TestMemoDynamicDependencyDropping(t *testing.T) {
	x := NewSignal(1)
	y := NewSignal(5)
	evals := 0
	c := NewMemo(func() int {
		evals++
		if x.Get() > 0 {
			return y.Get()
		}
		return 0
	})

	if got := c.Get(); got != 5 {
		t.Fatalf("expected 5, got %d", got)
	}

	x.Set(-1)
	if got := c.Get(); got != 0 {
		t.Fatalf("expected 0 after branch flip, got %d", got)
	}
	if evals != 2 {
		t.Fatalf("expected 2 evaluations, got %d", evals)
	}

	// y was not read on the last run, so writing it must not touch c.
	y.Set(99)
	if c.State() != StateClean {
		t.Errorf("expected dropped dependency to leave memo clean, got %v", c.State())
	}
	if got := c.Get(); got != 0 {
		t.Errorf("expected cached 0, got %d", got)
	}
	if evals != 2 {
		t.Errorf("expected no recompute after dropped dependency write, got %d evaluations", evals)
	}
}

func TestMemoDisposeKeepsLastValueUntracked(t *testing.T) {
	s := NewSignal(3)
	m := NewMemo(func() int { return s.Get() * 2 })

	if got := m.Get(); got != 6 {
		t.Fatalf("expected 6, got %d", got)
	}

	m.Dispose()
	m.Dispose()
	if m.State() != StateDisposed {
		t.Fatalf("expected StateDisposed, got %v", m.State())
	}

	s.Set(10)
	if got := m.Get(); got != 6 {
		t.Errorf("expected disposed memo to keep cached 6, got %d", got)
	}

	runs := 0
	CreateEffect(func() Cleanup {
		m.Get()
		runs++
		return nil
	})
	s.Set(20)
	if runs != 1 {
		t.Errorf("expected reads of a disposed memo to track nothing, got %d runs", runs)
	}
}

func TestMemoSubscribe(t *testing.T) {
	s := NewSignal(1)
	m := NewMemo(func() int { return s.Get() * 2 })

	var seen []int
	unsub := m.Subscribe(func(v int) {
		seen = append(seen, v)
	})

	if len(seen) != 1 || seen[0] != 2 {
		t.Fatalf("expected immediate delivery of 2, got %v", seen)
	}

	s.Set(5)
	if len(seen) != 2 || seen[1] != 10 {
		t.Fatalf("expected delivery of 10, got %v", seen)
	}

	// Writes that do not change the memo's value deliver nothing.
	s.Set(5)
	if len(seen) != 2 {
		t.Fatalf("expected no delivery for unchanged value, got %v", seen)
	}

	unsub()
	s.Set(7)
	if len(seen) != 2 {
		t.Errorf("expected no delivery after unsubscribe, got %v", seen)
	}
}

func TestMemoRunScopeCleanup(t *testing.T) {
	s := NewSignal(1)
	var order []string
	m := NewMemo(func() int {
		v := s.Get()
		OnCleanup(func() {
			order = append(order, "cleanup")
		})
		order = append(order, "run")
		return v
	})

	m.Get()
	s.Set(2)
	m.Get()

	want := []string{"run", "cleanup", "run"}
	if len(order) != len(want) {
		t.Fatalf("expected order %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, order)
		}
	}

	m.Dispose()
	if got := order[len(order)-1]; got != "cleanup" {
		t.Errorf("expected dispose to run the last scope cleanup, got %q", got)
	}
}
