package sensitivity

import (
	"fmt"
	"math"
	"sort"

	"github.com/uyouii/powercurve-sensitivity/common"
	"github.com/uyouii/powercurve-sensitivity/model"
	"github.com/uyouii/powercurve-sensitivity/utils"
	"go.uber.org/zap"
)

// Binner splits the covariate values of every wind speed bin into
// model.CategoryCount equal probability classes.
type Binner struct {
	// a bin is categorised only with more than MinCount values
	MinCount int
	logger   *zap.Logger
}

// BinFailure records a wind speed bin that was left unassigned.
type BinFailure struct {
	WindSpeedBin float64
	Count        int
	Err          error
}

func NewBinner(minPointsPerCategory int, logger *zap.Logger) *Binner {
	if minPointsPerCategory <= 0 {
		minPointsPerCategory = DefaultMinPointsPerCategory
	}
	return &Binner{
		MinCount: model.CategoryCount * minPointsPerCategory,
		logger:   utils.OrNop(logger),
	}
}

// Assign returns a category per value, model.Unassigned for NaN values and for
// every value of a skipped bin. Skipped bins are reported, never fatal.
func (b *Binner) Assign(windSpeedBins, values []float64) ([]model.Category, []BinFailure, error) {
	if len(windSpeedBins) != len(values) {
		return nil, nil, fmt.Errorf("%w: %d bins for %d values", common.ErrorInvalidValue, len(windSpeedBins), len(values))
	}

	categories := make([]model.Category, len(values))
	groups := map[float64][]int{}
	for i := range values {
		categories[i] = model.Unassigned
		if math.IsNaN(values[i]) || math.IsNaN(windSpeedBins[i]) {
			continue
		}
		groups[windSpeedBins[i]] = append(groups[windSpeedBins[i]], i)
	}

	bins := make([]float64, 0, len(groups))
	for bin := range groups {
		bins = append(bins, bin)
	}
	sort.Float64s(bins)

	failures := []BinFailure{}
	for _, bin := range bins {
		idx := groups[bin]
		if len(idx) <= b.MinCount {
			err := fmt.Errorf("%w: %d values, need more than %d", common.ErrorInsufficientData, len(idx), b.MinCount)
			b.logger.Debug("wind speed bin too small to categorise", zap.Float64("ws_bin", bin), zap.Int("cnt", len(idx)))
			failures = append(failures, BinFailure{WindSpeedBin: bin, Count: len(idx), Err: err})
			continue
		}

		binValues := make([]float64, len(idx))
		for j, i := range idx {
			binValues[j] = values[i]
		}
		edges, err := quantileEdges(binValues)
		if err != nil {
			b.logger.Debug("could not categorise wind speed bin", zap.Float64("ws_bin", bin), zap.Error(err))
			failures = append(failures, BinFailure{WindSpeedBin: bin, Count: len(idx), Err: err})
			continue
		}

		for _, i := range idx {
			categories[i] = categorise(edges, values[i])
		}
	}
	return categories, failures, nil
}

// quantileEdges returns the CategoryCount+1 edges, first the minimum and last
// the maximum. Equal edges mean the split is degenerate.
func quantileEdges(values []float64) ([]float64, error) {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	edges := make([]float64, model.CategoryCount+1)
	for i := range edges {
		edges[i] = linearQuantile(float64(i)/model.CategoryCount, sorted)
	}
	for i := 1; i < len(edges); i++ {
		if edges[i] <= edges[i-1] {
			return nil, fmt.Errorf("%w: %v", common.ErrorDegenerateQuantile, edges)
		}
	}
	return edges, nil
}

// linearQuantile interpolates between order statistics at h = (n-1)p, the
// rule quantile binning of the measured datasets uses. gonum's LinInterp
// interpolates the empirical cdf instead and shifts the edges.
func linearQuantile(p float64, sorted []float64) float64 {
	h := float64(len(sorted)-1) * p
	lo := int(math.Floor(h))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}

// categorise puts v in the class (edges[i], edges[i+1]]; the minimum joins the first.
func categorise(edges []float64, v float64) model.Category {
	i := sort.SearchFloat64s(edges[1:], v)
	if i >= model.CategoryCount {
		i = model.CategoryCount - 1
	}
	return model.Categories[i]
}
