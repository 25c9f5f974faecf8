// Package optional provides a tri-state field type for partial updates.
//
// A Value is Unset when the caller did not mention the field, Clear when the
// caller explicitly sent null, and Set when a concrete value was supplied.
// JSON decoding follows the same rules: an absent key leaves the zero Value
// (Unset), a null literal produces Clear, anything else produces Set.
package optional

import (
	"bytes"
	"encoding/json"
)

type state uint8

const (
	stateUnset state = iota
	stateClear
	stateSet
)

// Value is a tri-state optional field.
type Value[T any] struct {
	state state
	value T
}

// Unset returns a Value that leaves the existing field untouched.
func Unset[T any]() Value[T] {
	return Value[T]{}
}

// Clear returns a Value that removes the existing field.
func Clear[T any]() Value[T] {
	return Value[T]{state: stateClear}
}

// Set returns a Value carrying v.
func Set[T any](v T) Value[T] {
	return Value[T]{state: stateSet, value: v}
}

// IsUnset reports whether the field was omitted.
func (v Value[T]) IsUnset() bool { return v.state == stateUnset }

// IsClear reports whether the field was explicitly cleared.
func (v Value[T]) IsClear() bool { return v.state == stateClear }

// IsSet reports whether the field carries a value.
func (v Value[T]) IsSet() bool { return v.state == stateSet }

// Get returns the carried value and whether it is Set.
func (v Value[T]) Get() (T, bool) {
	return v.value, v.state == stateSet
}

// Apply resolves the field against an existing optional value.
func (v Value[T]) Apply(existing *T) *T {
	switch v.state {
	case stateClear:
		return nil
	case stateSet:
		val := v.value
		return &val
	default:
		return existing
	}
}

// MarshalJSON encodes Set as the value and everything else as null.
func (v Value[T]) MarshalJSON() ([]byte, error) {
	if v.state != stateSet {
		return []byte("null"), nil
	}
	return json.Marshal(v.value)
}

// UnmarshalJSON only runs when the key is present, so the result is never Unset.
func (v *Value[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		v.state = stateClear
		v.value = zero
		return nil
	}
	var val T
	if err := json.Unmarshal(data, &val); err != nil {
		return err
	}
	v.state = stateSet
	v.value = val
	return nil
}
