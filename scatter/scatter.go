package scatter

import (
	"fmt"
	"math"
	"sort"

	"github.com/uyouii/powercurve-sensitivity/common"
	"github.com/uyouii/powercurve-sensitivity/model"
	"github.com/uyouii/powercurve-sensitivity/powercurve"
	"github.com/uyouii/powercurve-sensitivity/utils"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

// Metric measures the dispersion of actual power around curve power. Both
// slices have the same length and hold no NaN.
type Metric func(actual, curve []float64) float64

// EnergyDeviation is sum|actual - curve| / sum actual. The time step cancels.
func EnergyDeviation(actual, curve []float64) float64 {
	diff := make([]float64, len(actual))
	floats.SubTo(diff, actual, curve)
	return floats.Norm(diff, 1) / floats.Sum(actual)
}

type Calculator struct {
	// Curve gives the curve power of a record's wind speed. nil uses
	// Record.CurvePower.
	Curve  powercurve.PowerCurve
	Metric Metric
	Logger *zap.Logger
}

func NewCalculator(curve powercurve.PowerCurve, metric Metric, logger *zap.Logger) *Calculator {
	if metric == nil {
		metric = EnergyDeviation
	}
	return &Calculator{Curve: curve, Metric: metric, Logger: utils.OrNop(logger)}
}

// Overall is the metric over every record accepted by filter, nil accepts all.
func (c *Calculator) Overall(records []model.Record, filter func(model.Record) bool) (float64, error) {
	selected := make([]model.Record, 0, len(records))
	for _, rec := range records {
		if filter == nil || filter(rec) {
			selected = append(selected, rec)
		}
	}
	metric, _, err := c.compute(selected)
	return metric, err
}

// ByWindSpeed computes the metric per wind speed bin, ascending. Bins below
// cutIn are excluded, a NaN cutIn excludes nothing. Bins left with no usable
// record, with a non finite metric or with a curve lookup error (including a
// query past the end of an array grid) are dropped.
func (c *Calculator) ByWindSpeed(records []model.Record, cutIn float64) []model.ScatterPoint {
	logger := utils.OrNop(c.Logger)

	groups := map[float64][]model.Record{}
	for _, rec := range records {
		if math.IsNaN(rec.WindSpeedBin) || rec.WindSpeedBin < cutIn {
			continue
		}
		groups[rec.WindSpeedBin] = append(groups[rec.WindSpeedBin], rec)
	}
	bins := make([]float64, 0, len(groups))
	for bin := range groups {
		bins = append(bins, bin)
	}
	sort.Float64s(bins)

	res := []model.ScatterPoint{}
	for _, bin := range bins {
		metric, cnt, err := c.compute(groups[bin])
		if err != nil {
			logger.Warn("scatter metric of wind speed bin dropped", zap.Float64("ws_bin", bin), zap.Error(err))
			continue
		}
		res = append(res, model.ScatterPoint{WindSpeedBin: bin, Metric: metric, Count: cnt})
	}
	return res
}

func (c *Calculator) compute(records []model.Record) (value float64, cnt int, err error) {
	// the array grid does not guard its upper end
	defer func() {
		if r := recover(); r != nil {
			value, cnt, err = math.NaN(), 0, fmt.Errorf("%w: %v", common.ErrorOutOfDomain, r)
		}
	}()

	metric := c.Metric
	if metric == nil {
		metric = EnergyDeviation
	}

	actual := make([]float64, 0, len(records))
	curve := make([]float64, 0, len(records))
	for _, rec := range records {
		power := rec.CurvePower
		if c.Curve != nil {
			p, err := c.Curve.Power(rec.WindSpeed)
			if err != nil {
				return math.NaN(), 0, err
			}
			power = p
		}
		if math.IsNaN(rec.ActualPower) || math.IsNaN(power) {
			continue
		}
		actual = append(actual, rec.ActualPower)
		curve = append(curve, power)
	}
	if len(actual) == 0 {
		return math.NaN(), 0, fmt.Errorf("%w: no records with actual and curve power", common.ErrorInsufficientData)
	}

	value = metric(actual, curve)
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return math.NaN(), 0, fmt.Errorf("%w: scatter metric %v", common.ErrorComputation, value)
	}
	return value, len(actual), nil
}
