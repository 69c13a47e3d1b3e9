// Package slot is the runtime support for code produced by cachedprop.
//
// A Slot holds at most one cached value. It offers two accessors with
// different capabilities:
//
//   - TryGet reads the value if present and never mutates the slot. Generated
//     read accessors use it and fall back to computing without storing.
//   - GetOrInsertWith populates the slot on a miss. Generated prefetch
//     accessors use it, and callers must have exclusive access to the owning
//     value for the duration of the call.
//
// The zero Slot is empty, so a struct of slots is ready to use without
// construction. Slots never expire and are never invalidated.
//
// There is no internal locking. Concurrent TryGet calls are safe with each
// other. GetOrInsertWith must not run concurrently with any other access.
package slot

// Cloner is implemented by values that need a deep copy when they move in or
// out of a slot, typically types wrapping slices or maps.
type Cloner[T any] interface {
	Clone() T
}

// Slot is an optional cached value of type T
type Slot[T any] struct {
	value   T
	present bool
}

// TryGet returns a copy of the cached value and true, or the zero value and
// false when nothing has been cached.
func (s *Slot[T]) TryGet() (T, bool) {
	if !s.present {
		var zero T
		return zero, false
	}
	return clone(s.value), true
}

// GetOrInsertWith returns a copy of the cached value. On a miss it calls
// compute, stores a copy of the result and returns the result itself.
// Once a value is present compute is never called again.
func (s *Slot[T]) GetOrInsertWith(compute func() T) T {
	if s.present {
		return clone(s.value)
	}
	v := compute()
	s.value = clone(v)
	s.present = true
	return v
}

// Present reports whether a value has been cached
func (s *Slot[T]) Present() bool {
	return s.present
}

func clone[T any](v T) T {
	if c, ok := any(v).(Cloner[T]); ok {
		return c.Clone()
	}
	return v
}
