package powercurve

import (
	"fmt"
	"math"

	"github.com/uyouii/powercurve-sensitivity/common"
	"github.com/uyouii/powercurve-sensitivity/model"
)

// PowerCurve maps a wind speed to power. Implementations are immutable once
// built and safe for concurrent use.
type PowerCurve interface {
	Power(windSpeed float64) (float64, error)
}

// Strategy selects how a PowerCurve is backed. For in-domain queries all
// strategies agree within the grid accuracy; they trade memory, speed and
// behaviour at the domain edges.
type Strategy string

const (
	// Linear interpolates between samples and saturates outside them.
	Linear Strategy = "linear"
	// GridDict looks up a 0.01 grid over [min, max]; outside it is an error.
	GridDict Strategy = "grid_dict"
	// GridArray indexes a 0.01 grid from zero; below min is 0, above max panics.
	GridArray Strategy = "grid_array"
	// GridNearest snaps to the nearest 0.01 grid point; below min is 0, saturates above.
	GridNearest Strategy = "grid_nearest"
)

var AllStrategies = []Strategy{Linear, GridDict, GridArray, GridNearest}

func ParseStrategy(s string) (Strategy, error) {
	if s == "" {
		return Linear, nil
	}
	for _, strategy := range AllStrategies {
		if string(strategy) == s {
			return strategy, nil
		}
	}
	return "", fmt.Errorf("%w: unknown interpolation strategy %q", common.ErrorInvalidValue, s)
}

// New builds a curve from samples strictly increasing in wind speed.
func New(strategy Strategy, xs, ys []float64) (PowerCurve, error) {
	switch strategy {
	case Linear, "":
		return NewLinearSampler(xs, ys)
	case GridDict:
		return NewGridDictSampler(xs, ys)
	case GridArray:
		return NewGridArraySampler(xs, ys)
	case GridNearest:
		return NewGridNearestSampler(xs, ys)
	}
	return nil, fmt.Errorf("%w: unknown interpolation strategy %q", common.ErrorInvalidValue, strategy)
}

// FromBaseline builds a curve through the populated bins of a baseline curve.
func FromBaseline(strategy Strategy, curve *model.BaselineCurve) (PowerCurve, error) {
	if curve.IsEmpty() {
		return nil, common.ErrorMalformedBaseline
	}
	xs, ys := curve.Samples()
	return New(strategy, xs, ys)
}

func validateSamples(xs, ys []float64) error {
	if len(xs) != len(ys) {
		return fmt.Errorf("%w: %d wind speeds for %d powers", common.ErrorInvalidValue, len(xs), len(ys))
	}
	if len(xs) < 2 {
		return fmt.Errorf("%w: need at least 2 samples, got %d", common.ErrorInvalidValue, len(xs))
	}
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) || math.IsInf(xs[i], 0) {
			return fmt.Errorf("%w: sample %d is not finite", common.ErrorInvalidValue, i)
		}
		if i > 0 && xs[i] <= xs[i-1] {
			return fmt.Errorf("%w: wind speeds not strictly increasing at %d", common.ErrorInvalidValue, i)
		}
	}
	return nil
}
