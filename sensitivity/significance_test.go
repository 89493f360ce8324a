package sensitivity

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uyouii/powercurve-sensitivity/common"
	"github.com/uyouii/powercurve-sensitivity/model"
)

func TestThresholdIsMeanOfRandomMetrics(t *testing.T) {
	e := newTestEngine(t, Options{RandomTests: 12, Seed: 7})
	threshold, err := e.Threshold(context.Background(), residualRecords(), oneBinBaseline(fixtureBin, fixturePower, fixtureSize))
	require.NoError(t, err)
	require.Len(t, threshold.Metrics, 12)

	sum := 0.0
	for _, m := range threshold.Metrics {
		assert.Greater(t, m, 0.0)
		sum += m
	}
	assert.InDelta(t, sum/12, threshold.Value, 1e-12)
	assert.Greater(t, threshold.StdDev, 0.0)
	assert.Equal(t, DefaultUpperQuantile, threshold.Quantile)
	assert.Greater(t, threshold.UpperBound, threshold.Value)
}

func TestThresholdIsDeterministic(t *testing.T) {
	records := residualRecords()
	baseline := oneBinBaseline(fixtureBin, fixturePower, fixtureSize)

	serial := newTestEngine(t, Options{RandomTests: 8, Seed: 11, Parallelism: 1})
	parallel := newTestEngine(t, Options{RandomTests: 8, Seed: 11, Parallelism: 4})

	a, err := serial.Threshold(context.Background(), records, baseline)
	require.NoError(t, err)
	b, err := parallel.Threshold(context.Background(), records, baseline)
	require.NoError(t, err)
	assert.Equal(t, a.Metrics, b.Metrics)
}

func TestRandomCovariateMatchesThresholdScale(t *testing.T) {
	records := residualRecords()
	baseline := oneBinBaseline(fixtureBin, fixturePower, fixtureSize)
	e := newTestEngine(t, Options{Seed: 3})

	threshold, err := e.Threshold(context.Background(), records, baseline)
	require.NoError(t, err)

	other := randomCovariates(len(records), 1, 99)[0]
	_, metric, err := e.Analyze(context.Background(), other.name, other.values, records, baseline)
	require.NoError(t, err)

	ratio := metric / threshold.Value
	assert.Greater(t, ratio, 0.1)
	assert.Less(t, ratio, 10.0)
}

func TestRandomCovariates(t *testing.T) {
	columns := randomCovariates(50, 3, 5)
	require.Len(t, columns, 3)
	assert.Equal(t, "Random 1", columns[0].name)
	assert.Equal(t, "Random 3", columns[2].name)
	for _, col := range columns {
		require.Len(t, col.values, 50)
		for _, v := range col.values {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.Less(t, v, 1.0)
		}
	}
	assert.Equal(t, columns, randomCovariates(50, 3, 5))
	assert.NotEqual(t, columns[0].values, columns[1].values)
}

func TestThresholdWithoutData(t *testing.T) {
	e := newTestEngine(t, Options{RandomTests: 3})
	threshold, err := e.Threshold(context.Background(), nil, oneBinBaseline(5, 100, 10))
	require.NoError(t, err)
	assert.Empty(t, threshold.Metrics)
	assert.True(t, math.IsNaN(threshold.Value))

	_, err = e.Threshold(context.Background(), nil, &model.BaselineCurve{})
	assert.ErrorIs(t, err, common.ErrorMalformedBaseline)
}
