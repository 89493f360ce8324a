package sensitivity

import (
	"fmt"
	"runtime"

	"github.com/uyouii/powercurve-sensitivity/common"
	"github.com/uyouii/powercurve-sensitivity/powercurve"
	"go.uber.org/zap"
)

// ColumnNames maps the optional covariates to the dataset's column names.
type ColumnNames struct {
	HubDensity    string
	ShearExponent string
	WindDirection string
	HubTurbulence string
	InflowAngle   string
}

type Options struct {
	TimeStepSeconds      float64
	MinPointsPerCategory int
	// RandomTests is the number of random covariates behind the threshold.
	RandomTests int
	// Seed drives the random covariates, 0 seeds from the clock.
	Seed uint64
	// Parallelism bounds concurrent covariate runs, 0 uses GOMAXPROCS.
	Parallelism int
	// Interpolation, when set, recomputes every record's curve power from the
	// baseline curve with that strategy. Empty keeps the supplied values.
	Interpolation powercurve.Strategy
	// UpperQuantile of the random metric density reported next to the threshold.
	UpperQuantile   float64
	Columns         ColumnNames
	ExtraCovariates []string
	Logger          *zap.Logger
}

func DefaultOptions() Options {
	opts := Options{}
	opts.applyDefaults()
	return opts
}

func (o *Options) applyDefaults() {
	if o.TimeStepSeconds == 0 {
		o.TimeStepSeconds = DefaultTimeStepSeconds
	}
	if o.MinPointsPerCategory == 0 {
		o.MinPointsPerCategory = DefaultMinPointsPerCategory
	}
	if o.RandomTests == 0 {
		o.RandomTests = DefaultRandomTests
	}
	if o.Parallelism == 0 {
		o.Parallelism = runtime.GOMAXPROCS(0)
	}
	if o.UpperQuantile == 0 {
		o.UpperQuantile = DefaultUpperQuantile
	}
	if o.Columns.HubDensity == "" {
		o.Columns.HubDensity = DefaultHubDensityColumn
	}
	if o.Columns.ShearExponent == "" {
		o.Columns.ShearExponent = DefaultShearExponentColumn
	}
	if o.Columns.WindDirection == "" {
		o.Columns.WindDirection = DefaultWindDirectionColumn
	}
	if o.Columns.HubTurbulence == "" {
		o.Columns.HubTurbulence = DefaultHubTurbulenceColumn
	}
	if o.Columns.InflowAngle == "" {
		o.Columns.InflowAngle = DefaultInflowAngleColumn
	}
}

func (o *Options) validate() error {
	if !(o.TimeStepSeconds > 0) {
		return fmt.Errorf("%w: time step %v", common.ErrorInvalidValue, o.TimeStepSeconds)
	}
	if o.MinPointsPerCategory < 1 {
		return fmt.Errorf("%w: min points per category %d", common.ErrorInvalidValue, o.MinPointsPerCategory)
	}
	if o.RandomTests < 1 {
		return fmt.Errorf("%w: random tests %d", common.ErrorInvalidValue, o.RandomTests)
	}
	if o.Parallelism < 1 {
		return fmt.Errorf("%w: parallelism %d", common.ErrorInvalidValue, o.Parallelism)
	}
	if !(o.UpperQuantile > 0 && o.UpperQuantile < 1) {
		return fmt.Errorf("%w: upper quantile %v", common.ErrorInvalidValue, o.UpperQuantile)
	}
	if o.Interpolation != "" {
		if _, err := powercurve.ParseStrategy(string(o.Interpolation)); err != nil {
			return err
		}
	}
	return nil
}
