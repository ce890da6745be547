// Package velocity converts historical sale velocity into an expected
// time-to-sell figure. Pure functions only.
package velocity

// Bounds on the estimate: nothing sells faster than a week here and a book
// that never moved is treated as a year of shelf time.
const (
	MinDays = 7
	MaxDays = 365

	// Window is the trailing period the sold count covers.
	Window = 90
)

// Bucket is the categorical velocity classification used by decision rules
// and displays.
type Bucket string

const (
	Fast     Bucket = "Fast"
	Medium   Bucket = "Medium"
	Slow     Bucket = "Slow"
	VerySlow Bucket = "Very Slow"
)

// Bucket cut-points in days. A TTS at the cut-point belongs to the faster
// bucket.
const (
	fastCutoff   = 14
	mediumCutoff = 45
	slowCutoff   = 180
)

// Estimate returns expected days to sell given the trailing-90-day sold
// count: Window / soldCount, clamped to [MinDays, MaxDays]. Absent or
// non-positive counts hit the ceiling; monotonically non-increasing in
// soldCount.
func Estimate(soldCount90d int) int {
	if soldCount90d <= 0 {
		return MaxDays
	}
	tts := Window / soldCount90d
	if tts < MinDays {
		return MinDays
	}
	if tts > MaxDays {
		return MaxDays
	}
	return tts
}

// Classify buckets a TTS estimate at fixed cut-points.
func Classify(days int) Bucket {
	switch {
	case days <= fastCutoff:
		return Fast
	case days <= mediumCutoff:
		return Medium
	case days <= slowCutoff:
		return Slow
	default:
		return VerySlow
	}
}
