package sensitivity

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uyouii/powercurve-sensitivity/common"
	"github.com/uyouii/powercurve-sensitivity/model"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const (
	fixtureSize  = 240
	fixtureBin   = 8.0
	fixturePower = 500.0
)

// residualRecords has a residual that grows with "Strong", a permutation of
// 0..239 unrelated to time of day.
func residualRecords() []model.Record {
	records := make([]model.Record, fixtureSize)
	for i := range records {
		strong := float64((i * 97) % fixtureSize)
		delta := (strong - 119.5) * 0.5
		records[i] = model.Record{
			Timestamp:    testStart.Add(time.Duration(i) * time.Hour),
			WindSpeed:    fixtureBin,
			WindSpeedBin: fixtureBin,
			ActualPower:  fixturePower + delta,
			CurvePower:   fixturePower,
			Covariates: map[string]float64{
				"Strong":                   strong,
				"Constant":                 1,
				DefaultHubTurbulenceColumn: float64((i * 11) % fixtureSize),
			},
		}
	}
	return records
}

func residualInput() Input {
	return Input{
		Records:         residualRecords(),
		Baseline:        oneBinBaseline(fixtureBin, fixturePower, fixtureSize),
		Capabilities:    model.Capabilities{HasTurbulence: true},
		ExtraCovariates: []string{"Strong", "Constant", "Missing", model.SignificanceThresholdName},
	}
}

func outcomeByName(t *testing.T, report *Report, name string) model.CovariateOutcome {
	t.Helper()
	for _, outcome := range report.Outcomes {
		if outcome.Name == name {
			return outcome
		}
	}
	t.Fatalf("no outcome for %s", name)
	return model.CovariateOutcome{}
}

func TestRunRanking(t *testing.T) {
	e := newTestEngine(t, Options{})
	report, err := e.Run(context.Background(), residualInput())
	require.NoError(t, err)
	assert.NotEmpty(t, report.RunID)

	names := make([]string, len(report.Outcomes))
	for i, outcome := range report.Outcomes {
		names[i] = outcome.Name
	}
	assert.Equal(t, []string{
		DaysFromDecemberSolstice, HoursFromNoon, DaysElapsedInTest, DefaultHubTurbulenceColumn,
		"Strong", "Constant", "Missing", model.SignificanceThresholdName,
	}, names)

	ranking := report.Ranking
	require.NotEmpty(t, ranking)
	thresholdRows := 0
	for _, row := range ranking {
		if row.Threshold {
			thresholdRows++
			assert.Equal(t, model.SignificanceThresholdName, row.Name)
		}
	}
	assert.Equal(t, 1, thresholdRows)
	last := ranking[len(ranking)-1]
	assert.True(t, last.Threshold)
	assert.Equal(t, report.Threshold.Value, last.Metric)

	assert.Equal(t, "Strong", ranking[0].Name)
	assert.True(t, ranking[0].AboveThreshold)
	assert.InDelta(t, 1152.0/20000.0, ranking[0].Metric, 1e-9)
	for i := 1; i < len(ranking)-1; i++ {
		assert.GreaterOrEqual(t, ranking[i-1].Metric, ranking[i].Metric)
	}

	metric, ok := report.Metric("Strong")
	require.True(t, ok)
	assert.Equal(t, ranking[0].Metric, metric)
	_, ok = report.Metric(model.SignificanceThresholdName)
	assert.False(t, ok)

	assert.Contains(t, report.Results, "Strong")
	assert.NotContains(t, report.Results, "Constant")
	assert.Len(t, report.Results["Strong"].Cells, model.CategoryCount)
}

func TestRunFailuresAreData(t *testing.T) {
	e := newTestEngine(t, Options{})
	report, err := e.Run(context.Background(), residualInput())
	require.NoError(t, err)

	failures := report.Failures()
	require.Len(t, failures, 3)
	assert.ErrorIs(t, outcomeByName(t, report, "Constant").Err, common.ErrorDegenerateQuantile)
	assert.ErrorIs(t, outcomeByName(t, report, "Missing").Err, common.ErrorMissingCovariate)
	assert.ErrorIs(t, outcomeByName(t, report, model.SignificanceThresholdName).Err, common.ErrorReservedName)

	combined := report.Err()
	require.Error(t, combined)
	assert.True(t, errors.Is(combined, common.ErrorMissingCovariate))
	assert.True(t, errors.Is(combined, common.ErrorReservedName))

	for _, row := range report.Ranking {
		assert.NotEqual(t, "Constant", row.Name)
		assert.NotEqual(t, "Missing", row.Name)
	}
}

func TestRunZeroResidualExcluded(t *testing.T) {
	e := newTestEngine(t, Options{RandomTests: 5})
	report, err := e.Run(context.Background(), Input{
		Records:         flatRecords(25, 5, 150),
		Baseline:        oneBinBaseline(5, 150, 25),
		ExtraCovariates: []string{"Flat"},
	})
	require.NoError(t, err)

	flat := outcomeByName(t, report, "Flat")
	require.NoError(t, flat.Err)
	assert.Equal(t, 0.0, flat.Metric)
	require.Len(t, flat.Table.Cells, model.CategoryCount)
	for _, cell := range flat.Table.Cells {
		assert.Equal(t, 0.0, cell.MeanPowerDelta)
	}

	assert.NotContains(t, report.Results, "Flat")
	require.Len(t, report.Ranking, 1)
	assert.True(t, report.Ranking[0].Threshold)
	assert.Equal(t, 0.0, report.Threshold.Value)
	assert.True(t, math.IsNaN(report.Threshold.UpperBound))
}

func TestRunLogsFailures(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	e := newTestEngine(t, Options{RandomTests: 5, Logger: zap.New(core)})

	_, err := e.Run(context.Background(), residualInput())
	require.NoError(t, err)

	failed := logs.FilterMessage("could not run sensitivity analysis")
	assert.Equal(t, 3, failed.Len())
	assert.Equal(t, 1, failed.FilterField(zap.String("covariate", "Missing")).Len())
	assert.Equal(t, 1, logs.FilterMessageSnippet("significance threshold for power curve").Len())

	for _, entry := range logs.FilterMessage("attempting power curve sensitivity analysis").All() {
		assert.NotEmpty(t, entry.ContextMap()["run_id"])
	}
}

func TestRunCancelled(t *testing.T) {
	e := newTestEngine(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Run(ctx, residualInput())
	assert.ErrorIs(t, err, context.Canceled)

	_, _, err = e.Analyze(ctx, "Strong", make([]float64, fixtureSize), residualRecords(),
		oneBinBaseline(fixtureBin, fixturePower, fixtureSize))
	assert.ErrorIs(t, err, context.Canceled)
}
