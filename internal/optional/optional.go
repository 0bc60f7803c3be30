// Package optional models a value that may be absent without relying on nil.
package optional

import "fmt"

// Optional holds either Some(value) or None.
// The zero value is None.
type Optional[T any] struct {
	value T
	ok    bool
}

// Some wraps a present value.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, ok: true}
}

// None returns the absent variant.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Of maps a possibly-nil pointer to None, or to Some of the pointed-to value.
func Of[T any](v *T) Optional[T] {
	if v == nil {
		return None[T]()
	}
	return Some(*v)
}

// IsSome reports whether a value is present.
func (o Optional[T]) IsSome() bool {
	return o.ok
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.ok
}

// OrNil returns a pointer to a copy of the value, or nil for None.
func (o Optional[T]) OrNil() *T {
	if !o.ok {
		return nil
	}
	v := o.value
	return &v
}

func (o Optional[T]) String() string {
	if !o.ok {
		return "None"
	}
	return fmt.Sprintf("Some(%v)", o.value)
}
