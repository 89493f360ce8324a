package sensitivity

import (
	"fmt"
	"math"
	"time"

	"github.com/uyouii/powercurve-sensitivity/common"
	"github.com/uyouii/powercurve-sensitivity/model"
	"github.com/uyouii/powercurve-sensitivity/utils"
)

// covariateNames lists what a run analyses, in order: the time covariates,
// the optional measurements the dataset has, then the extra columns.
func (e *Engine) covariateNames(in Input) []string {
	names := []string{DaysFromDecemberSolstice, HoursFromNoon, DaysElapsedInTest}

	cols := e.opts.Columns
	if in.Capabilities.HasDensity {
		names = append(names, cols.HubDensity)
	}
	if in.Capabilities.HasShear {
		names = append(names, cols.ShearExponent)
	}
	if in.Capabilities.HasDirection {
		names = append(names, cols.WindDirection)
	}
	if in.Capabilities.HasTurbulence {
		names = append(names, cols.HubTurbulence)
	}
	if anyRecordHas(in.Records, cols.InflowAngle) {
		names = append(names, cols.InflowAngle)
	}
	names = append(names, e.opts.ExtraCovariates...)
	names = append(names, in.ExtraCovariates...)

	return dedupe(names)
}

// timeCovariates derives the calendar covariates from the timestamps.
func timeCovariates(records []model.Record) map[string][]float64 {
	n := len(records)
	res := map[string][]float64{
		DaysFromDecemberSolstice: make([]float64, n),
		HoursFromNoon:            make([]float64, n),
		HoursFromMidnight:        make([]float64, n),
		DaysFrom182ndDayOfYear:   make([]float64, n),
		DaysElapsedInTest:        make([]float64, n),
	}
	if n == 0 {
		return res
	}

	start := records[0].Timestamp
	for _, record := range records {
		if record.Timestamp.Before(start) {
			start = record.Timestamp
		}
	}

	for i, record := range records {
		ts := record.Timestamp
		hour := float64(ts.Hour())
		res[DaysFromDecemberSolstice][i] = daysFromDecemberSolstice(ts)
		res[HoursFromNoon][i] = math.Abs(hour - 12)
		res[HoursFromMidnight][i] = math.Min(hour, math.Abs(24-hour))
		res[DaysFrom182ndDayOfYear][i] = math.Abs(float64(ts.YearDay() - 182))
		res[DaysElapsedInTest][i] = float64(utils.DayCntBetweenTimestamp(ts.Unix(), start.Unix()))
	}
	return res
}

// daysFromDecemberSolstice counts whole days to 22 December of the same year,
// folded so the distance never exceeds half a year.
func daysFromDecemberSolstice(ts time.Time) float64 {
	solstice := time.Date(ts.Year(), time.December, 22, ts.Hour(), ts.Minute(), ts.Second(), ts.Nanosecond(), ts.Location())
	days := math.Abs(math.Round(solstice.Sub(ts).Hours() / 24))
	return math.Min(days, 365-days)
}

// column returns the values of one covariate aligned with records.
func column(name string, records []model.Record, derived map[string][]float64) ([]float64, error) {
	if name == model.SignificanceThresholdName {
		return nil, fmt.Errorf("%w: %q", common.ErrorReservedName, name)
	}
	if values, ok := derived[name]; ok {
		return values, nil
	}
	if !anyRecordHas(records, name) {
		return nil, fmt.Errorf("%w: %q", common.ErrorMissingCovariate, name)
	}
	values := make([]float64, len(records))
	for i, record := range records {
		values[i] = record.Covariate(name)
	}
	return values, nil
}

func anyRecordHas(records []model.Record, name string) bool {
	for _, record := range records {
		if record.HasCovariate(name) {
			return true
		}
	}
	return false
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	res := make([]string, 0, len(names))
	for _, name := range names {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		res = append(res, name)
	}
	return res
}
