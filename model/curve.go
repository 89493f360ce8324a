package model

import (
	"math"
	"sort"
)

type BaselineBin struct {
	WindSpeed float64 `json:"ws"` // bin centre
	Power     float64 `json:"p"`
	Count     int     `json:"n"`
}

// BaselineCurve is the aggregated curve the residuals are measured against.
type BaselineCurve struct {
	Name string        `json:"name,omitempty"`
	Bins []BaselineBin `json:"bins"`
	// CutIn overrides the cut-in wind speed derived from the bins when positive.
	CutIn float64 `json:"cut_in,omitempty"`
}

func (c *BaselineCurve) IsEmpty() bool {
	if c == nil {
		return true
	}
	return len(c.Bins) == 0
}

// Energy sums power * count * step hours over the curve's own bins.
func (c *BaselineCurve) Energy(timeStepSeconds float64) float64 {
	if c.IsEmpty() {
		return 0
	}
	hours := timeStepSeconds / 3600.0
	res := 0.0
	for _, bin := range c.Bins {
		res += bin.Power * float64(bin.Count) * hours
	}
	return res
}

// CutInWindSpeed is the lowest populated bin producing power, NaN when none does.
func (c *BaselineCurve) CutInWindSpeed() float64 {
	if c == nil {
		return math.NaN()
	}
	if c.CutIn > 0 {
		return c.CutIn
	}
	res := math.Inf(1)
	for _, bin := range c.Bins {
		if bin.Count > 0 && bin.Power > 0 && bin.WindSpeed < res {
			res = bin.WindSpeed
		}
	}
	if math.IsInf(res, 1) {
		return math.NaN()
	}
	return res
}

// Samples returns the populated bins as (wind speed, power) pairs sorted by wind speed.
func (c *BaselineCurve) Samples() ([]float64, []float64) {
	if c.IsEmpty() {
		return nil, nil
	}
	bins := make([]BaselineBin, 0, len(c.Bins))
	for _, bin := range c.Bins {
		if bin.Count > 0 {
			bins = append(bins, bin)
		}
	}
	sort.Slice(bins, func(i, j int) bool { return bins[i].WindSpeed < bins[j].WindSpeed })

	xs, ys := make([]float64, len(bins)), make([]float64, len(bins))
	for i, bin := range bins {
		xs[i], ys[i] = bin.WindSpeed, bin.Power
	}
	return xs, ys
}
