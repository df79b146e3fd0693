// Package clock provides the interfaces.Clock implementations shared by
// every component that needs "now": the real wall clock in production, and
// a fixed clock tests can control.
package clock

import "time"

// System returns the real wall-clock time.
type System struct{}

// Now returns time.Now().
func (System) Now() time.Time { return time.Now() }

// Fixed always returns the same instant, for deterministic tests.
type Fixed struct{ At time.Time }

// Now returns the fixed instant.
func (f Fixed) Now() time.Time { return f.At }
