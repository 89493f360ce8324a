package kde

import (
	"fmt"
	"math"
	"sort"

	"github.com/uyouii/powercurve-sensitivity/common"
	"github.com/uyouii/powercurve-sensitivity/model"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate/quad"
)

// Estimator is a univariate gaussian KDE over non-negative data. The support
// starts at zero; the cdf is renormalised over the grid.
type Estimator struct {
	points  []float64
	weights []float64
	bw      float64
	grid    []float64
	cdf     []model.Cdf
	kernel  *GaussianKernel
}

// NewEstimator fits the density. nil weights weigh every point equally, a zero
// bwAdjust keeps the reference bandwidth.
func NewEstimator(points []float64, weights []float64, bwAdjust float64) (*Estimator, error) {
	if len(points) < MinPointCnt {
		return nil, fmt.Errorf("%w: %d points, need %d", common.ErrorInsufficientData, len(points), MinPointCnt)
	}
	if floats.HasNaN(points) {
		return nil, fmt.Errorf("%w: NaN point", common.ErrorInvalidValue)
	}
	if len(weights) == 0 {
		weights = initOnes(len(points))
	} else if len(weights) != len(points) {
		return nil, common.ErrorInvalidValue
	}
	if bwAdjust == 0 {
		bwAdjust = 1
	}

	sortedPoints, sortedWeights := sortPairs(points, weights)
	total := floats.Sum(sortedWeights)
	if total <= 0 {
		return nil, fmt.Errorf("%w: weights sum to %v", common.ErrorInvalidValue, total)
	}
	floats.Scale(1/total, sortedWeights)

	kernel := NewGaussianKernel()
	bw := NewNormalReferenceBandWidth(kernel).BandWidth(sortedPoints) * bwAdjust
	if !(bw > 0) || math.IsInf(bw, 0) {
		return nil, fmt.Errorf("%w: bandwidth %v", common.ErrorInvalidValue, bw)
	}

	a := math.Max(floats.Min(sortedPoints)-DefaultCut*bw, 0)
	b := floats.Max(sortedPoints) + DefaultCut*bw
	grid := make([]float64, max(len(sortedPoints), MinGridSize))
	floats.Span(grid, a, b)

	k := &Estimator{
		points:  sortedPoints,
		weights: sortedWeights,
		bw:      bw,
		grid:    grid,
		kernel:  kernel,
	}
	k.cdf = k.integrate()
	return k, nil
}

func (k *Estimator) BandWidth() float64 {
	return k.bw
}

func (k *Estimator) Density(x float64) float64 {
	return k.kernel.Density(k.points, k.weights, k.bw, x)
}

// Densities evaluates the estimate on its grid.
func (k *Estimator) Densities() []model.Density {
	res := make([]model.Density, len(k.grid))
	for i, x := range k.grid {
		res[i] = model.Density{X: x, Value: k.Density(x)}
	}
	return res
}

func (k *Estimator) Cdf() []model.Cdf {
	return k.cdf
}

func (k *Estimator) integrate() []model.Cdf {
	res := make([]model.Cdf, 0, len(k.grid))
	res = append(res, model.Cdf{X: k.grid[0], Value: 0})

	cumSum := 0.0
	for i := 1; i < len(k.grid); i++ {
		cumSum += quad.Fixed(k.Density, k.grid[i-1], k.grid[i], quadNodes, nil, 0)
		res = append(res, model.Cdf{X: k.grid[i], Value: cumSum})
	}

	if cumSum > 0 {
		for i := range res {
			res[i].Value /= cumSum
		}
	}
	return res
}

// Quantile inverts the cdf by linear interpolation between grid points.
func (k *Estimator) Quantile(p float64) (float64, error) {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return math.NaN(), fmt.Errorf("%w: quantile %v", common.ErrorInvalidValue, p)
	}
	cdf := k.cdf
	if p <= cdf[0].Value {
		return cdf[0].X, nil
	}
	if p >= cdf[len(cdf)-1].Value {
		return cdf[len(cdf)-1].X, nil
	}

	i := sort.Search(len(cdf), func(i int) bool { return cdf[i].Value > p })
	lowerX, lowerP := cdf[i-1].X, cdf[i-1].Value
	upperX, upperP := cdf[i].X, cdf[i].Value
	return lowerX + (upperX-lowerX)*(p-lowerP)/(upperP-lowerP), nil
}

func sortPairs(points, weights []float64) ([]float64, []float64) {
	idx := make([]int, len(points))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return points[idx[a]] < points[idx[b]] })

	sortedPoints, sortedWeights := make([]float64, len(points)), make([]float64, len(points))
	for i, j := range idx {
		sortedPoints[i], sortedWeights[i] = points[j], weights[j]
	}
	return sortedPoints, sortedWeights
}

func initOnes(n int) []float64 {
	res := make([]float64, n)
	for i := range res {
		res[i] = 1
	}
	return res
}
