package powercurve

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uyouii/powercurve-sensitivity/common"
	"github.com/uyouii/powercurve-sensitivity/model"
)

var (
	sampleXs = []float64{3, 4, 5, 6, 7}
	sampleYs = []float64{0, 50, 150, 300, 500}
)

func buildAll(t *testing.T, xs, ys []float64) map[Strategy]PowerCurve {
	t.Helper()
	res := map[Strategy]PowerCurve{}
	for _, strategy := range AllStrategies {
		curve, err := New(strategy, xs, ys)
		require.NoError(t, err, strategy)
		res[strategy] = curve
	}
	return res
}

func maxSlope(xs, ys []float64) float64 {
	res := 0.0
	for i := 1; i < len(xs); i++ {
		res = math.Max(res, math.Abs((ys[i]-ys[i-1])/(xs[i]-xs[i-1])))
	}
	return res
}

func TestSamplePointsAreExact(t *testing.T) {
	for strategy, curve := range buildAll(t, sampleXs, sampleYs) {
		for i, x := range sampleXs {
			got, err := curve.Power(x)
			require.NoError(t, err)
			assert.Equal(t, sampleYs[i], got, "%s at %v", strategy, x)
		}
	}
}

func TestLinearExample(t *testing.T) {
	linear, err := NewLinearSampler(sampleXs, sampleYs)
	require.NoError(t, err)

	got, err := linear.Power(4.5)
	require.NoError(t, err)
	assert.Equal(t, 100.0, got)

	lo, hi := linear.Domain()
	assert.Equal(t, 3.0, lo)
	assert.Equal(t, 7.0, hi)
}

func TestGridDictExample(t *testing.T) {
	dict, err := NewGridDictSampler(sampleXs, sampleYs)
	require.NoError(t, err)

	got, err := dict.Power(4.50)
	require.NoError(t, err)
	assert.Equal(t, 100.0, got)
}

func TestGridAccuracyBetweenGridPoints(t *testing.T) {
	linear, err := NewLinearSampler(sampleXs, sampleYs)
	require.NoError(t, err)
	bound := maxSlope(sampleXs, sampleYs) * GridStep / 2
	curves := buildAll(t, sampleXs, sampleYs)

	for x := 3.0013; x < 6.999; x += 0.0137 {
		want, _ := linear.Power(x)
		for _, strategy := range []Strategy{GridDict, GridArray, GridNearest} {
			got, err := curves[strategy].Power(x)
			require.NoError(t, err)
			assert.InDelta(t, want, got, bound+1e-9, "%s at %v", strategy, x)
		}
	}
}

func TestBelowMinimumReturnsZero(t *testing.T) {
	ys := []float64{20, 50, 150, 300, 500}
	curves := buildAll(t, sampleXs, ys)

	for _, x := range []float64{0, 1.5, 2.99, 2.999} {
		for _, strategy := range []Strategy{GridArray, GridNearest} {
			got, err := curves[strategy].Power(x)
			require.NoError(t, err)
			assert.Equal(t, 0.0, got, "%s at %v", strategy, x)
		}
	}
}

func TestOffGridFirstSample(t *testing.T) {
	xs := []float64{3.004, 4, 5}
	ys := []float64{40, 50, 150}
	curves := buildAll(t, xs, ys)

	for strategy, curve := range curves {
		got, err := curve.Power(3.004)
		require.NoError(t, err, strategy)
		assert.InDelta(t, 40.0, got, 1e-9, strategy)
	}
	for _, strategy := range []Strategy{GridArray, GridNearest} {
		got, err := curves[strategy].Power(3.003)
		require.NoError(t, err)
		assert.Equal(t, 0.0, got, strategy)
	}
}

func TestDomainEdges(t *testing.T) {
	curves := buildAll(t, sampleXs, sampleYs)

	_, err := curves[GridDict].Power(2.5)
	assert.ErrorIs(t, err, common.ErrorOutOfDomain)
	_, err = curves[GridDict].Power(7.2)
	assert.ErrorIs(t, err, common.ErrorOutOfDomain)

	assert.Panics(t, func() { _, _ = curves[GridArray].Power(9) })

	got, err := curves[GridNearest].Power(12)
	require.NoError(t, err)
	assert.Equal(t, 500.0, got)

	got, err = curves[Linear].Power(12)
	require.NoError(t, err)
	assert.Equal(t, 500.0, got)
	got, err = curves[Linear].Power(1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestNaNPassesThrough(t *testing.T) {
	for strategy, curve := range buildAll(t, sampleXs, sampleYs) {
		got, err := curve.Power(math.NaN())
		require.NoError(t, err, strategy)
		assert.True(t, math.IsNaN(got), strategy)
	}
}

func TestInvalidSamples(t *testing.T) {
	cases := []struct {
		name string
		xs   []float64
		ys   []float64
	}{
		{"too few", []float64{3}, []float64{0}},
		{"length mismatch", []float64{3, 4}, []float64{0}},
		{"not increasing", []float64{3, 5, 4}, []float64{0, 1, 2}},
		{"duplicate", []float64{3, 3}, []float64{0, 1}},
		{"nan", []float64{3, math.NaN()}, []float64{0, 1}},
	}
	for _, c := range cases {
		for _, strategy := range AllStrategies {
			_, err := New(strategy, c.xs, c.ys)
			assert.ErrorIs(t, err, common.ErrorInvalidValue, "%s/%s", c.name, strategy)
		}
	}

	_, err := New(GridArray, []float64{-1, 2}, []float64{0, 1})
	assert.ErrorIs(t, err, common.ErrorInvalidValue)
	_, err = New("cubic", sampleXs, sampleYs)
	assert.ErrorIs(t, err, common.ErrorInvalidValue)
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, Linear, s)

	s, err = ParseStrategy("grid_nearest")
	require.NoError(t, err)
	assert.Equal(t, GridNearest, s)

	_, err = ParseStrategy("spline")
	assert.ErrorIs(t, err, common.ErrorInvalidValue)
}

func TestFromBaseline(t *testing.T) {
	curve := &model.BaselineCurve{Bins: []model.BaselineBin{
		{WindSpeed: 5, Power: 150, Count: 10},
		{WindSpeed: 4, Power: 50, Count: 12},
		{WindSpeed: 6, Power: 999, Count: 0},
		{WindSpeed: 7, Power: 500, Count: 3},
	}}
	pc, err := FromBaseline(GridDict, curve)
	require.NoError(t, err)

	got, err := pc.Power(6)
	require.NoError(t, err)
	assert.Equal(t, 325.0, got)

	_, err = FromBaseline(Linear, &model.BaselineCurve{})
	assert.ErrorIs(t, err, common.ErrorMalformedBaseline)
}
