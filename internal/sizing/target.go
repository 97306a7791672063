// Package sizing maps a compression strength onto the byte budget handed to
// the compressor.
package sizing

import (
	"fmt"
	"math"
)

// DefaultMinTargetSizeBytes is the smallest budget ever requested from the
// compressor (0.01 MB).
const DefaultMinTargetSizeBytes int64 = 10_000

// DefaultPolicy uses DefaultMinTargetSizeBytes as its floor.
var DefaultPolicy = Policy{MinTargetSizeBytes: DefaultMinTargetSizeBytes}

// InvalidParameterError reports an argument TargetSizeBytes cannot work with.
type InvalidParameterError struct {
	Param  string
	Value  float64
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid %s=%v: %s", e.Param, e.Value, e.Reason)
}

// Policy interpolates between the original size at strength 0 and
// MinTargetSizeBytes at strength 100.
type Policy struct {
	MinTargetSizeBytes int64
}

// TargetSizeBytes returns the compression budget for a file of
// originalSizeBytes at the given strength. Strength is clamped to [0, 100]
// and the result never drops below the policy floor.
func (p Policy) TargetSizeBytes(originalSizeBytes int64, strengthPercent float64) (int64, error) {
	if originalSizeBytes <= 0 {
		return 0, &InvalidParameterError{
			Param:  "original_size_bytes",
			Value:  float64(originalSizeBytes),
			Reason: "must be positive",
		}
	}
	if math.IsNaN(strengthPercent) || math.IsInf(strengthPercent, 0) {
		return 0, &InvalidParameterError{
			Param:  "strength",
			Value:  strengthPercent,
			Reason: "must be finite",
		}
	}

	floor := p.MinTargetSizeBytes
	if floor <= 0 {
		floor = DefaultMinTargetSizeBytes
	}

	strength := clampStrength(strengthPercent)
	if originalSizeBytes <= floor {
		return floor, nil
	}
	if strength == 0 {
		return originalSizeBytes, nil
	}

	// Only the reduction goes through float64, so the result stays exact
	// for originals beyond 2^53 and cannot overflow.
	span := originalSizeBytes - floor
	reduction := math.Ceil(float64(span) * (strength / 100))
	if reduction >= float64(span) {
		return floor, nil
	}
	return originalSizeBytes - int64(reduction), nil
}

// TargetSizeBytes applies DefaultPolicy.
func TargetSizeBytes(originalSizeBytes int64, strengthPercent float64) (int64, error) {
	return DefaultPolicy.TargetSizeBytes(originalSizeBytes, strengthPercent)
}

func clampStrength(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
