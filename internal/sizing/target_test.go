package sizing

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTargetSizeBytes(t *testing.T) {
	tests := []struct {
		name     string
		original int64
		strength float64
		want     int64
	}{
		{name: "no pressure", original: 2_500_000, strength: 0, want: 2_500_000},
		{name: "full pressure", original: 2_500_000, strength: 100, want: DefaultMinTargetSizeBytes},
		{name: "halfway", original: 10_000_000, strength: 50, want: 5_005_000},
		{name: "negative strength clamps to zero", original: 80_000, strength: -20, want: 80_000},
		{name: "strength above range clamps", original: 80_000, strength: 250, want: DefaultMinTargetSizeBytes},
		{name: "original below floor", original: 4_000, strength: 10, want: DefaultMinTargetSizeBytes},
		{name: "beyond float precision keeps original", original: 1<<53 + 1, strength: 0, want: 1<<53 + 1},
		{name: "max int64 keeps original", original: math.MaxInt64, strength: 0, want: math.MaxInt64},
		{name: "max int64 full pressure", original: math.MaxInt64, strength: 100, want: DefaultMinTargetSizeBytes},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := TargetSizeBytes(tc.original, tc.strength)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestTargetSizeBytesMonotonic(t *testing.T) {
	for _, original := range []int64{1, 9_999, 10_000, 10_001, 750_000, 48_000_000, 1<<53 + 1, math.MaxInt64} {
		prev := int64(math.MaxInt64)
		for p := 0.0; p <= 100; p += 0.5 {
			got, err := TargetSizeBytes(original, p)
			require.NoError(t, err)
			assert.LessOrEqual(t, got, prev, "original=%d strength=%v", original, p)
			assert.GreaterOrEqual(t, got, DefaultMinTargetSizeBytes)
			prev = got
		}
	}
}

func TestTargetSizeBytesCustomFloor(t *testing.T) {
	policy := Policy{MinTargetSizeBytes: 50_000}

	got, err := policy.TargetSizeBytes(1_000_000, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(50_000), got)

	got, err = policy.TargetSizeBytes(1_000_000, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000), got)
}

func TestTargetSizeBytesRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name     string
		original int64
		strength float64
		param    string
	}{
		{name: "zero size", original: 0, strength: 50, param: "original_size_bytes"},
		{name: "negative size", original: -10, strength: 50, param: "original_size_bytes"},
		{name: "nan strength", original: 1_000, strength: math.NaN(), param: "strength"},
		{name: "infinite strength", original: 1_000, strength: math.Inf(1), param: "strength"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := TargetSizeBytes(tc.original, tc.strength)
			require.Error(t, err)

			var paramErr *InvalidParameterError
			require.True(t, errors.As(err, &paramErr))
			assert.Equal(t, tc.param, paramErr.Param)
		})
	}
}

func TestTargetSizeBytesLargeOriginals(t *testing.T) {
	for _, original := range []int64{1<<53 + 1, math.MaxInt64 - 1, math.MaxInt64} {
		full, err := TargetSizeBytes(original, 0)
		require.NoError(t, err)
		assert.Equal(t, original, full)

		slight, err := TargetSizeBytes(original, 1)
		require.NoError(t, err)
		assert.Less(t, slight, original, "original=%d", original)
		assert.Greater(t, slight, DefaultMinTargetSizeBytes, "original=%d", original)
	}
}
