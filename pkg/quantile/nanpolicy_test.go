// SPDX-License-Identifier: AGPL-3.0-only

package quantile

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grafana/quantile/pkg/ndarray"
)

// sortedLanes returns the sorted 3x4 sample used by the NaN policy tests: one
// clean lane, one partially NaN lane and one fully NaN lane.
func sortedLanes() *ndarray.Array {
	return ndarray.MustFrom([]float64{
		1, 2, 3, 4,
		5, 6, nan, nan,
		nan, nan, nan, nan,
	}, 3, 4)
}

func TestApplyNaNPolicy(t *testing.T) {
	t.Run("no NaNs leaves the sample untouched", func(t *testing.T) {
		y := ndarray.MustFrom([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
		out, counts := applyNaNPolicy(y, Omit, Linear, false)
		require.Same(t, y, out)
		require.Equal(t, []float64{3, 3}, counts.n)
		require.Equal(t, []bool{false, false}, counts.nanOut)
		require.Zero(t, counts.nanOutCount)
	})

	t.Run("propagate", func(t *testing.T) {
		y := sortedLanes()
		out, counts := applyNaNPolicy(y, Propagate, Linear, true)
		require.Equal(t, []float64{4, 4, 4}, counts.n)
		require.Equal(t, []bool{false, true, true}, counts.nanOut)
		require.Equal(t, 2, counts.nanOutCount)

		require.Equal(t, []float64{1, 2, 3, 4}, out.Lane(0))
		for _, v := range out.Lane(1) {
			require.True(t, math.IsNaN(v))
		}
		// The input is never rewritten.
		require.Equal(t, 5.0, y.Lane(1)[0])
	})

	t.Run("omit", func(t *testing.T) {
		y := sortedLanes()
		out, counts := applyNaNPolicy(y, Omit, Linear, true)
		require.Equal(t, []float64{4, 2, 4}, counts.n)
		require.Equal(t, []bool{false, false, true}, counts.nanOut)
		require.Equal(t, 1, counts.nanOutCount)
		require.Equal(t, []float64{5, 6}, out.Lane(1)[:2])
	})

	t.Run("omit with Harrell-Davis zeroes the leftover NaNs", func(t *testing.T) {
		y := ndarray.MustFrom([]float64{
			1, 2, 3, 4,
			5, 6, nan, nan,
		}, 2, 4)
		out, counts := applyNaNPolicy(y, Omit, HarrellDavis, true)
		require.Equal(t, []float64{4, 2}, counts.n)
		require.Zero(t, counts.nanOutCount)
		require.Equal(t, []float64{5, 6, 0, 0}, out.Lane(1))
		require.True(t, math.IsNaN(y.Lane(1)[2]))
	})

	t.Run("zero-length slices substituted by NaN are detected", func(t *testing.T) {
		y := ndarray.Full(nan, 2, 1)
		_, counts := applyNaNPolicy(y, Omit, Linear, false)
		require.Equal(t, []bool{true, true}, counts.nanOut)
	})
}

func TestSanitizeProbabilities(t *testing.T) {
	p := ndarray.MustFrom([]float64{-0.1, 0, 0.5, 1, 1.1, nan})

	sanitized, mask, masked := sanitizeProbabilities(p)
	require.Equal(t, 3, masked)
	require.Equal(t, []bool{true, false, false, false, true, true}, mask)
	require.Equal(t, []float64{placeholderProbability, 0, 0.5, 1, placeholderProbability, placeholderProbability}, sanitized.Values())
	require.Equal(t, -0.1, p.Values()[0])

	clean := ndarray.MustFrom([]float64{0, 0.25, 1})
	sanitized, _, masked = sanitizeProbabilities(clean)
	require.Zero(t, masked)
	require.Same(t, clean, sanitized)
}
