package query

import (
	"encoding/json"
	"fmt"
)

// Key identifies a cached resource and its parameters, e.g.
// Key{"stocks-by-period", "Monthly"}. Two keys are equal when their elements
// encode to the same JSON, element by element and in order.
type Key []any

// Hash returns the canonical encoding of the whole tuple. It is the map key of
// the store, so keys sharing a prefix never collide.
func (k Key) Hash() (string, error) {
	b, err := json.Marshal([]any(k))
	if err != nil {
		return "", fmt.Errorf("query key %v: %w", []any(k), err)
	}
	return string(b), nil
}

// String renders the key for logs.
func (k Key) String() string {
	h, err := k.Hash()
	if err != nil {
		return fmt.Sprintf("%v", []any(k))
	}
	return h
}

// Resource returns the first element when it is a string. It is used as a low
// cardinality metrics label.
func (k Key) Resource() string {
	if len(k) == 0 {
		return "unknown"
	}
	if s, ok := k[0].(string); ok {
		return s
	}
	return "unknown"
}

// HasPrefix reports whether the first len(prefix) elements of k equal prefix.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		a, errA := json.Marshal(k[i])
		b, errB := json.Marshal(prefix[i])
		if errA != nil || errB != nil || string(a) != string(b) {
			return false
		}
	}
	return true
}

// Equal reports whether k and other identify the same resource.
func (k Key) Equal(other Key) bool {
	return len(k) == len(other) && k.HasPrefix(other)
}
