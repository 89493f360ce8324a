package sensitivity

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/uyouii/powercurve-sensitivity/kde"
	"github.com/uyouii/powercurve-sensitivity/model"
	"github.com/uyouii/powercurve-sensitivity/report"
	"github.com/uyouii/powercurve-sensitivity/utils"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Threshold is the variation metric expected from covariates that carry no
// information, estimated from uniform random columns.
type Threshold struct {
	// Value is the mean random metric, the significance threshold.
	Value    float64 `json:"value"`
	StdDev   float64 `json:"std_dev"`
	Quantile float64 `json:"quantile"`
	// UpperBound is the Quantile of the kde of the random metrics, NaN when
	// the density could not be fitted.
	UpperBound float64   `json:"upper_bound"`
	Metrics    []float64 `json:"metrics"`
}

// Threshold runs the full pipeline on Options.RandomTests random covariates
// over records.
func (e *Engine) Threshold(ctx context.Context, records []model.Record, baseline *model.BaselineCurve) (*Threshold, error) {
	energy, err := e.baselineEnergy(baseline)
	if err != nil {
		return nil, err
	}
	return e.threshold(ctx, e.logger, records, energy)
}

func (e *Engine) threshold(ctx context.Context, logger *zap.Logger, records []model.Record,
	baselineEnergy float64) (*Threshold, error) {
	columns := randomCovariates(len(records), e.opts.RandomTests, e.seed())
	outcomes, err := e.analyzeColumns(ctx, logger, columns, records, baselineEnergy)
	if err != nil {
		return nil, err
	}

	metrics := make([]float64, 0, len(outcomes))
	for _, outcome := range outcomes {
		if outcome.Err != nil || math.IsNaN(outcome.Metric) {
			logger.Debug("random covariate produced no metric", zap.String("covariate", outcome.Name), zap.Error(outcome.Err))
			continue
		}
		metrics = append(metrics, outcome.Metric)
	}

	res := &Threshold{
		Value:      math.NaN(),
		StdDev:     math.NaN(),
		Quantile:   e.opts.UpperQuantile,
		UpperBound: math.NaN(),
		Metrics:    metrics,
	}

	mean, err := stats.Mean(metrics)
	if err != nil {
		logger.Warn("no random covariate could be analysed, significance threshold unknown", zap.Error(err))
		return res, nil
	}
	res.Value = mean
	if stdDev, err := stats.StandardDeviation(metrics); err == nil {
		res.StdDev = stdDev
	}

	estimator, err := kde.NewEstimator(metrics, nil, 1)
	if err != nil {
		logger.Debug("random metric density not fitted", zap.Error(err))
	} else if upper, err := estimator.Quantile(e.opts.UpperQuantile); err == nil {
		res.UpperBound = upper
	}

	logger.Info(fmt.Sprintf("significance threshold for power curve variation metric is %s", report.Percent(res.Value)),
		zap.Int("random_tests", len(metrics)), zap.Float64("std_dev", utils.FormatFloat(res.StdDev, 6)),
		zap.Float64("upper_bound", utils.FormatFloat(res.UpperBound, 6)))
	return res, nil
}

func (e *Engine) seed() uint64 {
	if e.opts.Seed != 0 {
		return e.opts.Seed
	}
	return uint64(time.Now().UnixNano())
}

// randomCovariates draws k columns of n uniform [0, 1) values, named Random 1..k.
func randomCovariates(n, k int, seed uint64) []covariateColumn {
	uniform := distuv.Uniform{Min: 0, Max: 1, Src: rand.NewSource(seed)}

	columns := make([]covariateColumn, k)
	for j := range columns {
		values := make([]float64, n)
		for i := range values {
			values[i] = uniform.Rand()
		}
		columns[j] = covariateColumn{name: fmt.Sprintf("%s%d", randomCovariatePrefix, j+1), values: values}
	}
	return columns
}
