package models

import (
	"encoding/json"
	"fmt"
	"math"
)

// Optional holds either a known value or an explicit "unknown" marker.
// The zero value is unknown, so a missing field can never masquerade as zero.
type Optional[T any] struct {
	value T
	known bool
}

// Number is an optional real number.
type Number = Optional[float64]

// Some wraps a known value.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, known: true}
}

// Unknown returns the explicit unknown marker.
func Unknown[T any]() Optional[T] {
	return Optional[T]{}
}

// Finite returns a known Number for finite v and Unknown for NaN or ±Inf.
func Finite(v float64) Number {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Unknown[float64]()
	}
	return Some(v)
}

// Get returns the value and whether it is known.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.known
}

// IsKnown reports whether the value is present.
func (o Optional[T]) IsKnown() bool {
	return o.known
}

func (o Optional[T]) String() string {
	if !o.known {
		return "unknown"
	}
	return fmt.Sprint(o.value)
}

// MarshalJSON encodes unknown as null.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.known {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

// UnmarshalJSON decodes null as unknown.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = Optional[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

// MarshalYAML encodes unknown as null.
func (o Optional[T]) MarshalYAML() (any, error) {
	if !o.known {
		return nil, nil
	}
	return o.value, nil
}
