// Package util contains misc internal utilities.
package util

import "time"

// Limiter is a min/max range for one axis.
type Limiter struct {
	Min float64
	Max float64
}

// Contains reports whether v lies within the limiter's range, inclusive.
func (l Limiter) Contains(v float64) bool {
	return v >= l.Min && v <= l.Max
}

// SecsToDuration converts a floating point number of seconds to a Duration.
func SecsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
