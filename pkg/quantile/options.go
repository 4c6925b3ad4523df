// SPDX-License-Identifier: AGPL-3.0-only

package quantile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Method selects the quantile estimator.
type Method string

// The nine Hyndman & Fan sample quantile definitions, in the order they are
// numbered in the paper, followed by the Harrell-Davis estimator.
const (
	InvertedCDF             Method = "inverted_cdf"
	AveragedInvertedCDF     Method = "averaged_inverted_cdf"
	ClosestObservation      Method = "closest_observation"
	InterpolatedInvertedCDF Method = "interpolated_inverted_cdf"
	Hazen                   Method = "hazen"
	Weibull                 Method = "weibull"
	Linear                  Method = "linear"
	MedianUnbiased          Method = "median_unbiased"
	NormalUnbiased          Method = "normal_unbiased"
	HarrellDavis            Method = "harrell-davis"
)

// Methods lists every supported method.
var Methods = []Method{
	InvertedCDF, AveragedInvertedCDF, ClosestObservation, InterpolatedInvertedCDF,
	Hazen, Weibull, Linear, MedianUnbiased, NormalUnbiased, HarrellDavis,
}

// IsValid reports whether m is one of Methods.
func (m Method) IsValid() bool {
	for _, v := range Methods {
		if m == v {
			return true
		}
	}
	return false
}

// discontinuous reports whether m is one of the three step-function estimators.
func (m Method) discontinuous() bool {
	return m == InvertedCDF || m == AveragedInvertedCDF || m == ClosestObservation
}

// String implements flag.Value.
func (m *Method) String() string {
	if m == nil {
		return ""
	}
	return string(*m)
}

// Set implements flag.Value.
func (m *Method) Set(s string) error {
	v := Method(s)
	if !v.IsValid() {
		return invalidArgument("`method` must be one of %s", quotedList(Methods))
	}
	*m = v
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *Method) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return m.Set(s)
}

// NaNPolicy defines how NaNs in the sample are handled.
type NaNPolicy string

const (
	// Propagate makes every quantile of a slice containing a NaN NaN.
	Propagate NaNPolicy = "propagate"
	// Omit ignores NaNs. A slice with nothing left yields NaN.
	Omit NaNPolicy = "omit"
	// Raise fails the call if the sample contains any NaN.
	Raise NaNPolicy = "raise"
)

// NaNPolicies lists every supported policy.
var NaNPolicies = []NaNPolicy{Propagate, Omit, Raise}

func (p NaNPolicy) IsValid() bool {
	return p == Propagate || p == Omit || p == Raise
}

// String implements flag.Value.
func (p *NaNPolicy) String() string {
	if p == nil {
		return ""
	}
	return string(*p)
}

// Set implements flag.Value.
func (p *NaNPolicy) Set(s string) error {
	v := NaNPolicy(s)
	if !v.IsValid() {
		return invalidArgument("`nan_policy` must be one of %s", quotedList(NaNPolicies))
	}
	*p = v
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *NaNPolicy) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return p.Set(s)
}

// KeepDims controls whether the computation axis is kept in the result.
type KeepDims int

const (
	// KeepDimsDefault keeps the axis only if more than one quantile is
	// requested per slice.
	KeepDimsDefault KeepDims = iota
	KeepDimsTrue
	KeepDimsFalse
)

func (k KeepDims) String() string {
	switch k {
	case KeepDimsDefault:
		return "none"
	case KeepDimsTrue:
		return "true"
	case KeepDimsFalse:
		return "false"
	default:
		return fmt.Sprintf("KeepDims(%d)", int(k))
	}
}

// Options configures a single quantile computation. The zero value computes
// linear quantiles along axis 0, propagating NaNs, using the estimator's
// configured defaults for Method and NaNPolicy.
type Options struct {
	// Method defaults to the estimator's configured method when empty.
	Method Method

	// Axis along which quantiles are computed. Negative values count from the
	// last axis. Ignored when Flatten is set.
	Axis int

	// Flatten ravels both the sample and the probabilities before computing,
	// without checking that their original shapes are compatible.
	Flatten bool

	// NaNPolicy defaults to the estimator's configured policy when empty.
	NaNPolicy NaNPolicy

	KeepDims KeepDims
}

// validate checks the enumerated options. Axis is checked once the shapes are known.
func (o Options) validate() error {
	if !o.Method.IsValid() {
		return invalidArgument("`method` must be one of %s", quotedList(Methods))
	}
	if !o.NaNPolicy.IsValid() {
		return invalidArgument("`nan_policy` must be one of %s", quotedList(NaNPolicies))
	}
	if o.KeepDims < KeepDimsDefault || o.KeepDims > KeepDimsFalse {
		return invalidArgument("if specified, `keepdims` must be true or false")
	}
	return nil
}

func quotedList[T ~string](values []T) string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, fmt.Sprintf("%q", string(v)))
	}
	sort.Strings(out)
	return "{" + strings.Join(out, ", ") + "}"
}

var (
	// ErrInvalidArgument is wrapped by every error caused by invalid input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNaNInput is returned when the sample contains NaN and the policy is Raise.
	ErrNaNInput = errors.Wrap(ErrInvalidArgument, "the input contains nan values")

	// ErrTooManySamples is returned when a call would exceed the configured sample limit.
	ErrTooManySamples = errors.New("too many samples")
)

func invalidArgument(format string, args ...any) error {
	return errors.Wrapf(ErrInvalidArgument, format, args...)
}
