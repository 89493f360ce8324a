package sensitivity

import (
	"context"
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

// Engine measures how the power curve residual depends on covariates. It holds
// no per-run state and can be shared between goroutines.
type Engine struct {
	opts   Options
	binner *Binner
	logger *zap.Logger
}

func NewEngine(opts Options) (*Engine, error) {
	opts.applyDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	logger := utils.OrNop(opts.Logger)
	return &Engine{
		opts:   opts,
		binner: NewBinner(opts.MinPointsPerCategory, logger),
		logger: logger,
	}, nil
}

func (e *Engine) Options() Options {
	return e.opts
}

// Analyze splits records by one covariate column (values[i] belongs to
// records[i]) and returns the per cell table with its variation metric.
func (e *Engine) Analyze(ctx context.Context, covariate string, values []float64,
	records []model.Record, baseline *model.BaselineCurve) (*model.SensitivityTable, float64, error) {
	energy, err := e.baselineEnergy(baseline)
	if err != nil {
		return nil, math.NaN(), err
	}
	if err := ctx.Err(); err != nil {
		return nil, math.NaN(), err
	}
	return e.analyze(e.logger, covariate, values, records, energy)
}

// baselineEnergy fails the whole run: without it no metric means anything.
func (e *Engine) baselineEnergy(baseline *model.BaselineCurve) (float64, error) {
	if baseline.IsEmpty() {
		return 0, fmt.Errorf("%w: no bins", common.ErrorMalformedBaseline)
	}
	energy := baseline.Energy(e.opts.TimeStepSeconds)
	if energy == 0 || math.IsNaN(energy) || math.IsInf(energy, 0) {
		return 0, fmt.Errorf("%w: total energy %v", common.ErrorMalformedBaseline, energy)
	}
	return energy, nil
}

type cellKey struct {
	bin      float64
	category model.Category
}

func (e *Engine) analyze(logger *zap.Logger, covariate string, values []float64,
	records []model.Record, baselineEnergy float64) (table *model.SensitivityTable, metric float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("sensitivity computation recover panic error!", zap.String("covariate", covariate),
				zap.Any("err", r), zap.String("panic info", utils.GetPanicInfo()))
			table, metric, err = nil, math.NaN(), fmt.Errorf("%w: %s: %v", common.ErrorComputation, covariate, r)
		}
	}()

	if len(values) != len(records) {
		return nil, math.NaN(), fmt.Errorf("%w: %d values for %d records", common.ErrorInvalidValue, len(values), len(records))
	}

	bins := make([]float64, len(records))
	for i := range records {
		bins[i] = records[i].WindSpeedBin
	}
	categories, failures, err := e.binner.Assign(bins, values)
	if err != nil {
		return nil, math.NaN(), err
	}

	hours := e.opts.TimeStepSeconds / secondsPerHour
	cells := map[cellKey]*model.SensitivityCell{}
	for i, record := range records {
		category := categories[i]
		if category == model.Unassigned || math.IsNaN(record.ActualPower) || math.IsNaN(record.CurvePower) {
			continue
		}
		key := cellKey{bin: record.WindSpeedBin, category: category}
		cell, ok := cells[key]
		if !ok {
			cell = &model.SensitivityCell{WindSpeedBin: key.bin, Category: category}
			cells[key] = cell
		}
		delta := record.ActualPower - record.CurvePower
		cell.Count++
		cell.MeanPower += record.ActualPower
		cell.Energy += record.ActualPower * hours
		cell.MeanPowerDelta += delta
		cell.EnergyDelta += delta * hours
	}

	if len(cells) == 0 {
		if len(failures) > 0 {
			return nil, math.NaN(), fmt.Errorf("no wind speed bin of %s could be categorised, %d skipped: %w",
				covariate, len(failures), failures[0].Err)
		}
		return nil, math.NaN(), fmt.Errorf("%w: no records to categorise %s", common.ErrorInsufficientData, covariate)
	}

	table = &model.SensitivityTable{Covariate: covariate, Cells: make([]model.SensitivityCell, 0, len(cells))}
	for _, cell := range cells {
		cell.MeanPower /= float64(cell.Count)
		cell.MeanPowerDelta /= float64(cell.Count)
		table.Cells = append(table.Cells, *cell)
	}
	sort.Slice(table.Cells, func(i, j int) bool {
		a, b := table.Cells[i], table.Cells[j]
		if a.WindSpeedBin != b.WindSpeedBin {
			return a.WindSpeedBin < b.WindSpeedBin
		}
		return a.Category < b.Category
	})

	energyDeltas := make([]float64, len(table.Cells))
	for i, cell := range table.Cells {
		energyDeltas[i] = cell.EnergyDelta
	}
	metric = floats.Norm(energyDeltas, 1) / baselineEnergy

	return table, metric, nil
}

// prepareRecords re-interpolates curve power when Options.Interpolation is set.
// The input is never modified.
func (e *Engine) prepareRecords(records []model.Record, baseline *model.BaselineCurve) (res []model.Record, err error) {
	if e.opts.Interpolation == "" {
		return records, nil
	}
	curve, err := powercurve.FromBaseline(e.opts.Interpolation, baseline)
	if err != nil {
		return nil, err
	}

	// the array grid does not guard its upper end
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("%w: %v", common.ErrorOutOfDomain, r)
		}
	}()

	res = make([]model.Record, len(records))
	copy(res, records)
	for i := range res {
		power, err := curve.Power(res[i].WindSpeed)
		if err != nil {
			return nil, fmt.Errorf("interpolate record %d: %w", i, err)
		}
		res[i].CurvePower = power
	}
	return res, nil
}
