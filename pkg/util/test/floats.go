// SPDX-License-Identifier: AGPL-3.0-only

package test

import (
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

type helper interface {
	Helper()
}

// RequireFloatsEqual fails t unless expected and actual have the same length and
// every pair of values is within tolerance, relative to the larger magnitude.
// NaNs are equal to each other, and a nil slice is equal to an empty one.
func RequireFloatsEqual(t require.TestingT, expected, actual []float64, tolerance float64, msgAndArgs ...interface{}) {
	if h, ok := t.(helper); ok {
		h.Helper()
	}
	if diff := cmp.Diff(expected, actual, cmpopts.EquateNaNs(), cmpopts.EquateApprox(tolerance, tolerance), cmpopts.EquateEmpty()); diff != "" {
		require.Fail(t, "float slices differ (-want +got):\n"+diff, msgAndArgs...)
	}
}
