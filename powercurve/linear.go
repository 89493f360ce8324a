package powercurve

import (
	"fmt"
	"math"

	"github.com/uyouii/powercurve-sensitivity/common"
	"gonum.org/v1/gonum/interp"
)

// LinearSampler is the accuracy reference. Lookups are a binary search over the
// samples; queries outside them return the end values.
type LinearSampler struct {
	pl   interp.PiecewiseLinear
	minX float64
	maxX float64
}

func NewLinearSampler(xs, ys []float64) (*LinearSampler, error) {
	if err := validateSamples(xs, ys); err != nil {
		return nil, err
	}

	s := &LinearSampler{
		minX: xs[0],
		maxX: xs[len(xs)-1],
	}
	if err := s.pl.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInvalidValue, err)
	}
	return s, nil
}

func (s *LinearSampler) Power(windSpeed float64) (float64, error) {
	return s.at(windSpeed), nil
}

func (s *LinearSampler) at(windSpeed float64) float64 {
	if math.IsNaN(windSpeed) {
		return math.NaN()
	}
	return s.pl.Predict(windSpeed)
}

func (s *LinearSampler) Domain() (float64, float64) {
	return s.minX, s.maxX
}
