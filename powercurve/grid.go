package powercurve

import (
	"fmt"
	"math"
	"sort"

	"github.com/uyouii/powercurve-sensitivity/common"
)

func gridIndex(windSpeed float64) int64 {
	return int64(math.Round(windSpeed * gridScale))
}

func gridValue(index int64) float64 {
	return float64(index) / gridScale
}

// GridDictSampler holds the grid points between the rounded sample ends.
// A query is rounded to the grid and fetched; anything that rounds outside
// the precomputed domain is ErrorOutOfDomain.
type GridDictSampler struct {
	points map[int64]float64
}

func NewGridDictSampler(xs, ys []float64) (*GridDictSampler, error) {
	linear, err := NewLinearSampler(xs, ys)
	if err != nil {
		return nil, err
	}

	start, end := gridIndex(xs[0]), gridIndex(xs[len(xs)-1])
	points := make(map[int64]float64, end-start+1)
	for i := start; i <= end; i++ {
		points[i] = linear.at(gridValue(i))
	}
	return &GridDictSampler{points: points}, nil
}

func (s *GridDictSampler) Power(windSpeed float64) (float64, error) {
	if math.IsNaN(windSpeed) {
		return math.NaN(), nil
	}
	value, ok := s.points[gridIndex(windSpeed)]
	if !ok {
		return 0, fmt.Errorf("%w: %v", common.ErrorOutOfDomain, windSpeed)
	}
	return value, nil
}

// GridArraySampler stores the grid densely from zero wind speed up to the
// largest sample, indexed by round(windSpeed / GridStep). Queries below the
// smallest sample return 0 (cut-in). Queries beyond the last grid point are not
// guarded: Power panics with an index out of range, keeping them in domain is
// the caller's job.
type GridArraySampler struct {
	minX   float64
	points []float64
}

func NewGridArraySampler(xs, ys []float64) (*GridArraySampler, error) {
	points, err := zeroBasedGrid(xs, ys)
	if err != nil {
		return nil, err
	}
	return &GridArraySampler{minX: xs[0], points: points}, nil
}

func (s *GridArraySampler) Power(windSpeed float64) (float64, error) {
	if math.IsNaN(windSpeed) {
		return math.NaN(), nil
	}
	if windSpeed < s.minX {
		return 0, nil
	}
	return s.points[gridIndex(windSpeed)], nil
}

// GridNearestSampler snaps queries to the nearest point of the zero based
// grid. Below the smallest sample it returns 0, above the grid it returns the
// last grid value.
type GridNearestSampler struct {
	minX float64
	xs   []float64
	ys   []float64
}

func NewGridNearestSampler(xs, ys []float64) (*GridNearestSampler, error) {
	points, err := zeroBasedGrid(xs, ys)
	if err != nil {
		return nil, err
	}
	grid := make([]float64, len(points))
	for i := range grid {
		grid[i] = gridValue(int64(i))
	}
	return &GridNearestSampler{minX: xs[0], xs: grid, ys: points}, nil
}

func (s *GridNearestSampler) Power(windSpeed float64) (float64, error) {
	if math.IsNaN(windSpeed) {
		return math.NaN(), nil
	}
	if windSpeed < s.minX {
		return 0, nil
	}
	n := len(s.xs)
	if windSpeed >= s.xs[n-1] {
		return s.ys[n-1], nil
	}
	// first grid point not below the query
	i := sort.SearchFloat64s(s.xs, windSpeed)
	if i == 0 {
		return s.ys[0], nil
	}
	// ties go to the lower point
	if windSpeed-s.xs[i-1] <= s.xs[i]-windSpeed {
		return s.ys[i-1], nil
	}
	return s.ys[i], nil
}

// zeroBasedGrid evaluates the linear curve on 0, GridStep, ... round(max),
// with every point below the smallest sample set to 0. The point the smallest
// sample rounds to keeps the first power even when it lies below the sample.
func zeroBasedGrid(xs, ys []float64) ([]float64, error) {
	linear, err := NewLinearSampler(xs, ys)
	if err != nil {
		return nil, err
	}
	if xs[0] < 0 {
		return nil, fmt.Errorf("%w: grid samplers need non-negative wind speeds, got %v", common.ErrorInvalidValue, xs[0])
	}

	first, end := gridIndex(xs[0]), gridIndex(xs[len(xs)-1])
	points := make([]float64, end+1)
	for i := range points {
		x := gridValue(int64(i))
		if x < xs[0] && int64(i) != first {
			continue
		}
		points[i] = linear.at(x)
	}
	return points, nil
}
