package reactive

// Typed signal wrappers for the store layer: each helper is a single Update,
// so it batches and equality-gates like any other write. Collection wrappers
// copy on write; the values handed to subscribers are never mutated in
// place.

// IntSignal wraps Signal[int] with arithmetic helpers.
type IntSignal struct {
	*Signal[int]
}

// NewIntSignal creates an IntSignal with the given initial value.
func NewIntSignal(initial int) *IntSignal {
	return &IntSignal{Signal: NewSignal(initial)}
}

// Inc increments the value by one.
func (s *IntSignal) Inc() {
	s.Update(func(v int) int { return v + 1 })
}

// Dec decrements the value by one.
func (s *IntSignal) Dec() {
	s.Update(func(v int) int { return v - 1 })
}

// Add adds delta to the value.
func (s *IntSignal) Add(delta int) {
	s.Update(func(v int) int { return v + delta })
}

// BoolSignal wraps Signal[bool] with toggle helpers.
type BoolSignal struct {
	*Signal[bool]
}

// NewBoolSignal creates a BoolSignal with the given initial value.
func NewBoolSignal(initial bool) *BoolSignal {
	return &BoolSignal{Signal: NewSignal(initial)}
}

// Toggle flips the value.
func (s *BoolSignal) Toggle() {
	s.Update(func(v bool) bool { return !v })
}

// SetTrue sets the value to true.
func (s *BoolSignal) SetTrue() { s.Set(true) }

// SetFalse sets the value to false.
func (s *BoolSignal) SetFalse() { s.Set(false) }

// StringSignal wraps Signal[string] with text helpers.
type StringSignal struct {
	*Signal[string]
}

// NewStringSignal creates a StringSignal with the given initial value.
func NewStringSignal(initial string) *StringSignal {
	return &StringSignal{Signal: NewSignal(initial)}
}

// Append concatenates suffix onto the value.
func (s *StringSignal) Append(suffix string) {
	s.Update(func(v string) string { return v + suffix })
}

// Prepend concatenates prefix before the value.
func (s *StringSignal) Prepend(prefix string) {
	s.Update(func(v string) string { return prefix + v })
}

// Clear resets the value to the empty string.
func (s *StringSignal) Clear() { s.Set("") }

// Len returns the byte length of the value. Tracked.
func (s *StringSignal) Len() int { return len(s.Get()) }

// IsEmpty reports whether the value is empty. Tracked.
func (s *StringSignal) IsEmpty() bool { return s.Len() == 0 }

// SliceSignal wraps Signal[[]T] with copy-on-write slice helpers.
type SliceSignal[T any] struct {
	*Signal[[]T]
}

// NewSliceSignal creates a SliceSignal with the given initial elements.
func NewSliceSignal[T any](initial []T) *SliceSignal[T] {
	return &SliceSignal[T]{Signal: NewSignal(initial)}
}

// Append adds items to the end.
func (s *SliceSignal[T]) Append(items ...T) {
	if len(items) == 0 {
		return
	}
	s.Update(func(cur []T) []T {
		next := make([]T, 0, len(cur)+len(items))
		next = append(next, cur...)
		next = append(next, items...)
		return next
	})
}

// Prepend adds items to the front.
func (s *SliceSignal[T]) Prepend(items ...T) {
	if len(items) == 0 {
		return
	}
	s.Update(func(cur []T) []T {
		next := make([]T, 0, len(cur)+len(items))
		next = append(next, items...)
		next = append(next, cur...)
		return next
	})
}

// InsertAt inserts item at index i. Out-of-range indexes clamp to the ends.
func (s *SliceSignal[T]) InsertAt(i int, item T) {
	s.Update(func(cur []T) []T {
		if i < 0 {
			i = 0
		}
		if i > len(cur) {
			i = len(cur)
		}
		next := make([]T, 0, len(cur)+1)
		next = append(next, cur[:i]...)
		next = append(next, item)
		next = append(next, cur[i:]...)
		return next
	})
}

// RemoveAt removes the element at index i. Out-of-range indexes are no-ops.
func (s *SliceSignal[T]) RemoveAt(i int) {
	s.Update(func(cur []T) []T {
		if i < 0 || i >= len(cur) {
			return cur
		}
		next := make([]T, 0, len(cur)-1)
		next = append(next, cur[:i]...)
		next = append(next, cur[i+1:]...)
		return next
	})
}

// SetAt replaces the element at index i. Out-of-range indexes are no-ops.
func (s *SliceSignal[T]) SetAt(i int, item T) {
	s.Update(func(cur []T) []T {
		if i < 0 || i >= len(cur) {
			return cur
		}
		next := make([]T, len(cur))
		copy(next, cur)
		next[i] = item
		return next
	})
}

// UpdateAt applies fn to the element at index i. Out-of-range indexes are
// no-ops.
func (s *SliceSignal[T]) UpdateAt(i int, fn func(T) T) {
	s.Update(func(cur []T) []T {
		if i < 0 || i >= len(cur) {
			return cur
		}
		next := make([]T, len(cur))
		copy(next, cur)
		next[i] = fn(next[i])
		return next
	})
}

// Filter keeps only the elements keep returns true for.
func (s *SliceSignal[T]) Filter(keep func(T) bool) {
	s.Update(func(cur []T) []T {
		next := make([]T, 0, len(cur))
		for _, item := range cur {
			if keep(item) {
				next = append(next, item)
			}
		}
		return next
	})
}

// Clear empties the slice.
func (s *SliceSignal[T]) Clear() {
	s.Update(func(cur []T) []T {
		if len(cur) == 0 {
			return cur
		}
		return nil
	})
}

// Len returns the current length. Tracked.
func (s *SliceSignal[T]) Len() int { return len(s.Get()) }

// At returns the element at index i and whether it exists. Tracked.
func (s *SliceSignal[T]) At(i int) (T, bool) {
	cur := s.Get()
	if i < 0 || i >= len(cur) {
		var zero T
		return zero, false
	}
	return cur[i], true
}

// MapSignal wraps Signal[map[K]V] with copy-on-write map helpers.
type MapSignal[K comparable, V any] struct {
	*Signal[map[K]V]
}

// NewMapSignal creates a MapSignal with the given initial entries. A nil
// initial map reads as empty.
func NewMapSignal[K comparable, V any](initial map[K]V) *MapSignal[K, V] {
	return &MapSignal[K, V]{Signal: NewSignal(initial)}
}

// SetKey stores value under key.
func (s *MapSignal[K, V]) SetKey(key K, value V) {
	s.Update(func(cur map[K]V) map[K]V {
		next := make(map[K]V, len(cur)+1)
		for k, v := range cur {
			next[k] = v
		}
		next[key] = value
		return next
	})
}

// DeleteKey removes key. Deleting an absent key is suppressed by the
// equality gate.
func (s *MapSignal[K, V]) DeleteKey(key K) {
	s.Update(func(cur map[K]V) map[K]V {
		if _, ok := cur[key]; !ok {
			return cur
		}
		next := make(map[K]V, len(cur))
		for k, v := range cur {
			if k != key {
				next[k] = v
			}
		}
		return next
	})
}

// GetKey returns the value under key and whether it exists. Tracked.
func (s *MapSignal[K, V]) GetKey(key K) (V, bool) {
	v, ok := s.Get()[key]
	return v, ok
}

// Has reports whether key exists. Tracked.
func (s *MapSignal[K, V]) Has(key K) bool {
	_, ok := s.Get()[key]
	return ok
}

// Len returns the number of entries. Tracked.
func (s *MapSignal[K, V]) Len() int { return len(s.Get()) }

// Keys returns the current keys in unspecified order. Tracked.
func (s *MapSignal[K, V]) Keys() []K {
	cur := s.Get()
	if len(cur) == 0 {
		return nil
	}
	keys := make([]K, 0, len(cur))
	for k := range cur {
		keys = append(keys, k)
	}
	return keys
}

// Clear removes every entry.
func (s *MapSignal[K, V]) Clear() {
	s.Update(func(cur map[K]V) map[K]V {
		if len(cur) == 0 {
			return cur
		}
		return map[K]V{}
	})
}
