// Package series computes client-side aggregates over validated time series.
package series

import (
	"encoding/json"
	"errors"
)

// ErrInvalidWindow is returned when a window is not a positive integer.
var ErrInvalidWindow = errors.New("series: window must be positive")

// Point is a derived sample. Valid is false where there is not enough history.
type Point struct {
	Value float64
	Valid bool
}

// MarshalJSON encodes an absent point as null.
func (p Point) MarshalJSON() ([]byte, error) {
	if !p.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(p.Value)
}

// Some returns a present point.
func Some(v float64) Point { return Point{Value: v, Valid: true} }

// MovingAverage returns the trailing simple moving average of values.
//
// The result has len(values) points. Points 0..window-2 are absent, and point i
// is the mean of values[i-window+1..i]. A window longer than the series yields
// only absent points. values is never modified.
func MovingAverage(values []float64, window int) ([]Point, error) {
	if window <= 0 {
		return nil, ErrInvalidWindow
	}
	out := make([]Point, len(values))
	if window > len(values) {
		return out, nil
	}

	for i := window - 1; i < len(values); i++ {
		sum := 0.0
		for _, v := range values[i-window+1 : i+1] {
			sum += v
		}
		out[i] = Some(sum / float64(window))
	}
	return out, nil
}
