// Package progress defines the observer callback shared by pipeline stages.
package progress

// Func receives progress updates as (fraction, message). Fraction is in
// [0, 1] on the reporting stage's scale. A nil Func is always safe to hold;
// call through Emit.
type Func func(fraction float64, message string)

// Emit invokes cb when non-nil. Absence of a callback never changes
// behavior elsewhere.
func Emit(cb Func, fraction float64, message string) {
	if cb != nil {
		cb(fraction, message)
	}
}

// Monotonic wraps cb so delivered fractions never decrease, clamping any
// late or out-of-order report to the highest fraction seen so far. The
// wrapper is not safe for concurrent use; callers serialize emission.
func Monotonic(cb Func) Func {
	if cb == nil {
		return nil
	}
	high := 0.0
	return func(fraction float64, message string) {
		if fraction < high {
			fraction = high
		}
		if fraction > 1.0 {
			fraction = 1.0
		}
		high = fraction
		cb(fraction, message)
	}
}

// Scale maps a stage-local [0, 1] fraction into the [lo, hi] segment of the
// aggregated pipeline scale.
func Scale(cb Func, lo, hi float64) Func {
	if cb == nil {
		return nil
	}
	return func(fraction float64, message string) {
		cb(lo+fraction*(hi-lo), message)
	}
}
