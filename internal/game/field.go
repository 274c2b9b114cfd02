package game

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// State is the resolution state of a lazily resolved field.
type State int

const (
	// StateUnresolved means nothing is known yet, or the lookup failed.
	StateUnresolved State = iota
	// StateUnavailable means the lookup succeeded and confirmed there is no value.
	StateUnavailable
	// StateAvailable means the lookup succeeded with a value.
	StateAvailable
)

func (s State) String() string {
	switch s {
	case StateUnresolved:
		return "unresolved"
	case StateUnavailable:
		return "unavailable"
	case StateAvailable:
		return "available"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Field holds a value that is resolved from a remote service. The zero value is unresolved.
//
// A resolved field encodes to JSON as `null` (unavailable) or as the value itself, which is
// the shape stored in the price cache. Unresolved fields cannot be encoded.
type Field[T any] struct {
	state State
	value T
}

// Available creates a resolved field holding v.
func Available[T any](v T) Field[T] {
	return Field[T]{state: StateAvailable, value: v}
}

// Unavailable creates a field that is resolved to "no value".
func Unavailable[T any]() Field[T] {
	return Field[T]{state: StateUnavailable}
}

func (f Field[T]) State() State {
	return f.state
}

// Resolved is true for both available and unavailable fields.
func (f Field[T]) Resolved() bool {
	return f.state != StateUnresolved
}

// Get returns the value and whether it is available.
func (f Field[T]) Get() (T, bool) {
	return f.value, f.state == StateAvailable
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	switch f.state {
	case StateAvailable:
		return json.Marshal(f.value)
	case StateUnavailable:
		return []byte("null"), nil
	}
	return nil, fmt.Errorf("cannot encode an unresolved field")
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*f = Unavailable[T]()
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Available(v)
	return nil
}
