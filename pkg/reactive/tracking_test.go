package reactive

import (
	"sync"
	"testing"
)

func TestWriteFromAnotherGoroutineRunsEffectThere(t *testing.T) {
	s := NewSignal(1)
	var mu sync.Mutex
	var seen []int

	CreateEffect(func() Cleanup {
		v := s.Get()
		mu.Lock()
		seen = append(seen, v)
		mu.Unlock()
		return nil
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Set(2)
	}()
	<-done

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 || seen[1] != 2 {
		t.Errorf("expected the writer's goroutine to flush the effect, got %v", seen)
	}
}

func TestBatchesAreGoroutineLocal(t *testing.T) {
	s1 := NewSignal(0)
	s2 := NewSignal(0)
	var mu sync.Mutex
	runs1, runs2 := 0, 0

	CreateEffect(func() Cleanup {
		s1.Get()
		mu.Lock()
		runs1++
		mu.Unlock()
		return nil
	})
	CreateEffect(func() Cleanup {
		s2.Get()
		mu.Lock()
		runs2++
		mu.Unlock()
		return nil
	})

	enteredBatch := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		Batch(func() {
			s1.Set(1)
			close(enteredBatch)
			<-release
		})
	}()

	<-enteredBatch
	// This goroutine is not inside that batch: its write flushes at once.
	s2.Set(2)

	mu.Lock()
	r1, r2 := runs1, runs2
	mu.Unlock()
	if r2 != 2 {
		t.Errorf("expected this goroutine's write to flush immediately, got %d runs", r2)
	}
	if r1 != 1 {
		t.Errorf("expected the open batch elsewhere to defer only its own flush, got %d runs", r1)
	}

	close(release)
	<-done

	mu.Lock()
	r1 = runs1
	mu.Unlock()
	if r1 != 2 {
		t.Errorf("expected the batch close to flush its write, got %d runs", r1)
	}
}

func TestWithOwnerAdoptsAcrossGoroutines(t *testing.T) {
	s := NewSignal(1)
	owner := NewOwner(nil)
	runs := 0

	done := make(chan struct{})
	go func() {
		defer close(done)
		WithOwner(owner, func() {
			CreateEffect(func() Cleanup {
				s.Get()
				runs++
				return nil
			})
		})
	}()
	<-done

	if runs != 1 {
		t.Fatalf("expected one initial run, got %d", runs)
	}

	owner.Dispose()
	s.Set(2)
	if runs != 1 {
		t.Errorf("expected owner disposal to stop the adopted effect, got %d runs", runs)
	}
}

func TestWithListenerRecordsReads(t *testing.T) {
	s := NewSignal(1)
	l := newTestListener()

	WithListener(l, func() {
		s.Get()
	})

	s.Set(2)
	if got := l.staleCount(); got != 1 {
		t.Errorf("expected custom listener to be subscribed, got %d marks", got)
	}
}

func TestWithListenerRestoresPrevious(t *testing.T) {
	s := NewSignal(1)
	inner := newTestListener()
	runs := 0

	CreateEffect(func() Cleanup {
		WithListener(inner, func() {
			s.Get()
		})
		runs++
		return nil
	})

	s.Set(2)
	if runs != 1 {
		t.Errorf("expected reads under the inner listener not to subscribe the effect, got %d runs", runs)
	}
	if got := inner.staleCount(); got != 1 {
		t.Errorf("expected the inner listener to receive the mark, got %d", got)
	}
}
