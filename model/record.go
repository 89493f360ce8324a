package model

import (
	"math"
	"time"
)

// Record is one filtered time step of the measured dataset.
type Record struct {
	Timestamp time.Time
	// WindSpeed is the baseline wind speed used for power curve lookups.
	WindSpeed float64
	// WindSpeedBin is the centre of the fixed-width bin WindSpeed falls in.
	WindSpeedBin float64
	ActualPower  float64
	// CurvePower is the power the measured curve gives at WindSpeed.
	CurvePower float64
	Covariates map[string]float64
}

// Covariate returns NaN when the record has no value for name.
func (r Record) Covariate(name string) float64 {
	v, ok := r.Covariates[name]
	if !ok {
		return math.NaN()
	}
	return v
}

func (r Record) HasCovariate(name string) bool {
	_, ok := r.Covariates[name]
	return ok
}

// Capabilities tells which optional measurements the dataset carries.
type Capabilities struct {
	HasDensity    bool
	HasShear      bool
	HasDirection  bool
	HasTurbulence bool
}
