package reactive

import (
	"testing"
)

func TestBatchCoalescesWrites(t *testing.T) {
	a := NewSignal(1)
	b := NewSignal(2)
	runs := 0
	var seen []int

	CreateEffect(func() Cleanup {
		seen = append(seen, a.Get()+b.Get())
		runs++
		return nil
	})
	if runs != 1 {
		t.Fatalf("expected one initial run, got %d", runs)
	}

	Batch(func() {
		a.Set(10)
		b.Set(20)
		if runs != 1 {
			t.Fatalf("expected no run inside the batch, got %d", runs)
		}
	})

	if runs != 2 {
		t.Fatalf("expected exactly one run after the batch, got %d", runs)
	}
	if seen[1] != 30 {
		t.Errorf("expected the run to observe both writes (30), got %d", seen[1])
	}
}

func TestBatchNested(t *testing.T) {
	s := NewSignal(1)
	runs := 0

	CreateEffect(func() Cleanup {
		s.Get()
		runs++
		return nil
	})

	Batch(func() {
		s.Set(2)
		Batch(func() {
			s.Set(3)
		})
		// The inner close must not flush while the outer batch is open.
		if runs != 1 {
			t.Fatalf("expected inner batch close not to flush, got %d runs", runs)
		}
		s.Set(4)
	})

	if runs != 2 {
		t.Errorf("expected one flush at the outermost close, got %d runs", runs)
	}
	if got := s.Get(); got != 4 {
		t.Errorf("expected final value 4, got %d", got)
	}
}

func TestBatchPanicStillFlushes(t *testing.T) {
	s := NewSignal(1)
	var seen []int

	CreateEffect(func() Cleanup {
		seen = append(seen, s.Get())
		return nil
	})

	func() {
		defer func() {
			if r := recover(); r != "batch boom" {
				t.Errorf("expected panic to propagate, got %v", r)
			}
		}()
		Batch(func() {
			s.Set(9)
			panic("batch boom")
		})
	}()

	if len(seen) != 2 || seen[1] != 9 {
		t.Errorf("expected the committed write to flush during unwind, got %v", seen)
	}
}

func TestBatchReturnsAfterEffectsRan(t *testing.T) {
	s := NewSignal(1)
	ran := false

	CreateEffect(func() Cleanup {
		s.Get()
		ran = true
		return nil
	})
	ran = false

	Batch(func() {
		s.Set(2)
	})
	if !ran {
		t.Error("expected Batch to return only after the flush")
	}
}

func TestEffectWritesDuringFlushJoinSameFlush(t *testing.T) {
	a := NewSignal(1)
	b := NewSignal(0)
	var order []string

	CreateEffect(func() Cleanup {
		v := a.Get()
		if v > 1 {
			order = append(order, "first")
			b.Set(v * 10)
		}
		return nil
	}, EffectName("first"))

	CreateEffect(func() Cleanup {
		if b.Get() > 0 {
			order = append(order, "second")
		}
		return nil
	}, EffectName("second"))

	flushes := Stats().Flushes
	a.Set(2)

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("expected chained effects in order, got %v", order)
	}
	if got := Stats().Flushes - flushes; got != 1 {
		t.Errorf("expected the chained write to join the same flush, got %d flushes", got)
	}
}

func TestNamedBatch(t *testing.T) {
	s := NewSignal(1)
	runs := 0

	CreateEffect(func() Cleanup {
		s.Get()
		runs++
		return nil
	})

	NamedBatch("move", func() {
		s.Set(2)
		s.Set(3)
	})

	if runs != 2 {
		t.Errorf("expected one coalesced run, got %d", runs)
	}
}

func TestUntrackIsolation(t *testing.T) {
	a := NewSignal(1)
	b := NewSignal(10)
	runs := 0
	var sum int

	CreateEffect(func() Cleanup {
		av := a.Get()
		bv := Untrack(func() int { return b.Get() })
		sum = av + bv
		runs++
		return nil
	})

	if sum != 11 {
		t.Fatalf("expected 11, got %d", sum)
	}

	b.Set(100)
	if runs != 1 {
		t.Fatalf("expected untracked read to leave no subscription, got %d runs", runs)
	}

	a.Set(2)
	if runs != 2 {
		t.Fatalf("expected tracked read to rerun, got %d runs", runs)
	}
	if sum != 102 {
		t.Errorf("expected rerun to observe the untracked source's new value, got %d", sum)
	}
}

func TestUntrackedStatementForm(t *testing.T) {
	s := NewSignal(1)
	runs := 0
	var seen int

	CreateEffect(func() Cleanup {
		Untracked(func() {
			seen = s.Get()
		})
		runs++
		return nil
	})

	s.Set(5)
	if runs != 1 {
		t.Errorf("expected no rerun, got %d", runs)
	}
	if seen != 1 {
		t.Errorf("expected initial observation 1, got %d", seen)
	}
}

func TestUntrackKeepsOwnerScope(t *testing.T) {
	s := NewSignal(1)
	cleanups := 0

	e := CreateEffect(func() Cleanup {
		s.Get()
		Untracked(func() {
			OnCleanup(func() { cleanups++ })
		})
		return nil
	})

	e.Dispose()
	if cleanups != 1 {
		t.Errorf("expected OnCleanup inside Untracked to register, got %d", cleanups)
	}
}

func TestOnSettledImmediateWhenIdle(t *testing.T) {
	fired := false
	OnSettled(func() { fired = true })
	if !fired {
		t.Error("expected OnSettled to fire immediately when nothing is pending")
	}
}

func TestOnSettledAfterBatch(t *testing.T) {
	s := NewSignal(1)
	var order []string

	CreateEffect(func() Cleanup {
		if s.Get() > 1 {
			order = append(order, "effect")
		}
		return nil
	})

	Batch(func() {
		s.Set(2)
		OnSettled(func() { order = append(order, "settled") })
		if len(order) != 0 {
			t.Fatalf("expected nothing before the flush, got %v", order)
		}
	})

	if len(order) != 2 || order[0] != "effect" || order[1] != "settled" {
		t.Errorf("expected settled after effects, got %v", order)
	}
}

func TestOnSettledWaitsForChainedEffects(t *testing.T) {
	a := NewSignal(1)
	b := NewSignal(0)
	var order []string

	CreateEffect(func() Cleanup {
		v := a.Get()
		if v > 1 {
			order = append(order, "a-effect")
			b.Set(v)
		}
		return nil
	})
	CreateEffect(func() Cleanup {
		if b.Get() > 0 {
			order = append(order, "b-effect")
		}
		return nil
	})

	Batch(func() {
		a.Set(2)
		OnSettled(func() { order = append(order, "settled") })
	})

	want := []string{"a-effect", "b-effect", "settled"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
}

func TestOnSettledFiresOnce(t *testing.T) {
	s := NewSignal(1)
	fired := 0

	CreateEffect(func() Cleanup {
		s.Get()
		return nil
	})

	Batch(func() {
		s.Set(2)
		OnSettled(func() { fired++ })
	})
	s.Set(3)

	if fired != 1 {
		t.Errorf("expected one-shot settled callback, got %d", fired)
	}
}
