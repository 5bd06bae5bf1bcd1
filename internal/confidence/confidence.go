// Package confidence aggregates per-token recognition confidences into a
// single score for a grouping unit (block, line or region).
package confidence

// Absent marks a token without a recognition confidence. Structural rows of a
// token table (page, block, paragraph, line) always carry it.
const Absent = -1.0

// IsAbsent reports whether v is the absent-confidence sentinel. Any negative
// value counts as absent.
func IsAbsent(v float64) bool {
	return v < 0
}

// Aggregate returns the arithmetic mean of the present values. It returns 0
// when values is empty or every value is absent. A present 0.0 is counted.
func Aggregate(values []float64) float64 {
	var sum float64
	n := 0
	for _, v := range values {
		if IsAbsent(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Present returns the values that are not absent, preserving order.
func Present(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !IsAbsent(v) {
			out = append(out, v)
		}
	}
	return out
}

// Percent converts a [0,1] confidence to the integer percentage written into
// hOCR titles. The value is floored, and absent confidences map to 0.
func Percent(v float64) int {
	if IsAbsent(v) {
		return 0
	}
	if v > 1 {
		v = 1
	}
	return int(v * 100)
}
