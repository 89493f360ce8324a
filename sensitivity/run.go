package sensitivity

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/uyouii/powercurve-sensitivity/model"
	"github.com/uyouii/powercurve-sensitivity/report"
	"github.com/uyouii/powercurve-sensitivity/utils"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Input is what the analysis hands over: the filtered records and the curve
// the residuals were taken against.
type Input struct {
	Records         []model.Record
	Baseline        *model.BaselineCurve
	Capabilities    model.Capabilities
	ExtraCovariates []string
}

type Report struct {
	RunID     string
	Threshold *Threshold
	// Outcomes holds every covariate in analysis order, failures included.
	Outcomes []model.CovariateOutcome
	// Results keeps the tables of covariates with a non-zero metric.
	Results map[string]*model.SensitivityTable
	// Ranking is by descending metric with the threshold row last.
	Ranking []model.RankedMetric
}

func (r *Report) Failures() []model.CovariateOutcome {
	res := []model.CovariateOutcome{}
	for _, outcome := range r.Outcomes {
		if outcome.Err != nil {
			res = append(res, outcome)
		}
	}
	return res
}

// Err combines the per covariate failures, nil when there were none.
func (r *Report) Err() error {
	var err error
	for _, outcome := range r.Failures() {
		err = multierr.Append(err, fmt.Errorf("%s: %w", outcome.Name, outcome.Err))
	}
	return err
}

func (r *Report) Metric(covariate string) (float64, bool) {
	for _, row := range r.Ranking {
		if row.Name == covariate && !row.Threshold {
			return row.Metric, true
		}
	}
	return math.NaN(), false
}

type covariateColumn struct {
	name   string
	values []float64
	err    error
}

// Run computes the threshold, analyses every covariate and ranks them. Only a
// malformed baseline, a failed re-interpolation or ctx ends it early; a
// covariate that fails is kept in Report.Outcomes and left out of the ranking.
func (e *Engine) Run(ctx context.Context, in Input) (*Report, error) {
	runID := uuid.NewString()
	logger := e.logger.With(zap.String("run_id", runID))

	energy, err := e.baselineEnergy(in.Baseline)
	if err != nil {
		logger.Error("baseline power curve unusable", zap.Error(err))
		return nil, err
	}
	records, err := e.prepareRecords(in.Records, in.Baseline)
	if err != nil {
		logger.Error("interpolate power curve failed", zap.Error(err))
		return nil, err
	}
	logger.Info("attempting power curve sensitivity analysis", zap.String("curve", in.Baseline.Name),
		zap.Int("records", len(records)))

	threshold, err := e.threshold(ctx, logger, records, energy)
	if err != nil {
		return nil, err
	}

	derived := timeCovariates(records)
	names := e.covariateNames(in)
	columns := make([]covariateColumn, len(names))
	for i, name := range names {
		values, err := column(name, records, derived)
		columns[i] = covariateColumn{name: name, values: values, err: err}
	}

	outcomes, err := e.analyzeColumns(ctx, logger, columns, records, energy)
	if err != nil {
		return nil, err
	}

	res := &Report{
		RunID:     runID,
		Threshold: threshold,
		Outcomes:  outcomes,
		Results:   map[string]*model.SensitivityTable{},
	}
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			logger.Warn("could not run sensitivity analysis", zap.String("covariate", outcome.Name), zap.Error(outcome.Err))
			continue
		}
		logger.Info(fmt.Sprintf("variation of power curve with respect to %s is %s", outcome.Name, report.Percent(outcome.Metric)),
			zap.Float64("metric", utils.FormatFloat(outcome.Metric, 6)))
		if outcome.Reportable() {
			res.Results[outcome.Name] = outcome.Table
		}
	}
	res.Ranking = rank(outcomes, threshold.Value)

	logger.Info(fmt.Sprintf("%v of %v covariates ranked", len(res.Ranking)-1, len(outcomes)))
	return res, nil
}

// analyzeColumns runs the columns concurrently. Each task writes only its own
// slot; the caller reads the outcomes after every task is done.
func (e *Engine) analyzeColumns(ctx context.Context, logger *zap.Logger, columns []covariateColumn,
	records []model.Record, baselineEnergy float64) ([]model.CovariateOutcome, error) {
	outcomes := make([]model.CovariateOutcome, len(columns))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Parallelism)
	for i := range columns {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			col := columns[i]
			outcome := model.CovariateOutcome{Name: col.name, Metric: math.NaN(), Err: col.err}
			if col.err == nil {
				logger.Debug("attempting to compute sensitivity of power curve", zap.String("covariate", col.name))
				outcome.Table, outcome.Metric, outcome.Err = e.analyze(logger, col.name, col.values, records, baselineEnergy)
			}
			outcomes[i] = outcome
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func rank(outcomes []model.CovariateOutcome, threshold float64) []model.RankedMetric {
	res := []model.RankedMetric{}
	for _, outcome := range outcomes {
		if !outcome.Reportable() {
			continue
		}
		res = append(res, model.RankedMetric{
			Name:           outcome.Name,
			Metric:         outcome.Metric,
			AboveThreshold: outcome.Metric > threshold,
		})
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].Metric > res[j].Metric })

	return append(res, model.RankedMetric{
		Name:      model.SignificanceThresholdName,
		Metric:    threshold,
		Threshold: true,
	})
}
