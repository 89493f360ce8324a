package model

import (
	"fmt"
	"math"
)

// Category is the within-bin quantile class of a covariate value.
type Category int

const (
	VeryLow Category = iota
	Low
	Medium
	High
	VeryHigh
)

const (
	Unassigned    Category = -1
	CategoryCount          = 5
)

// Categories lists the ordered labels, lowest quantile first.
var Categories = []Category{VeryLow, Low, Medium, High, VeryHigh}

func (c Category) String() string {
	switch c {
	case VeryLow:
		return "V Low"
	case Low:
		return "Low"
	case Medium:
		return "Medium"
	case High:
		return "High"
	case VeryHigh:
		return "V High"
	}
	return "Unassigned"
}

func (c Category) Valid() bool {
	return c >= VeryLow && c <= VeryHigh
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// SensitivityCell aggregates the records of one (wind speed bin, category) pair.
type SensitivityCell struct {
	WindSpeedBin   float64  `json:"ws_bin"`
	Category       Category `json:"category"`
	MeanPower      float64  `json:"mean_power"`
	Energy         float64  `json:"energy"`
	Count          int      `json:"count"`
	MeanPowerDelta float64  `json:"mean_power_delta"`
	EnergyDelta    float64  `json:"energy_delta"`
}

type SensitivityTable struct {
	Covariate string `json:"covariate"`
	// Cells are ordered by wind speed bin, then category.
	Cells []SensitivityCell `json:"cells"`
}

func (t *SensitivityTable) IsEmpty() bool {
	if t == nil {
		return true
	}
	return len(t.Cells) == 0
}

func (t *SensitivityTable) Cell(windSpeedBin float64, category Category) (SensitivityCell, bool) {
	if t == nil {
		return SensitivityCell{}, false
	}
	for _, cell := range t.Cells {
		if cell.WindSpeedBin == windSpeedBin && cell.Category == category {
			return cell, true
		}
	}
	return SensitivityCell{}, false
}

func (t *SensitivityTable) DebugString() string {
	if t == nil {
		return "<nil>"
	}
	return fmt.Sprintf("covariate: %v, cellCount: %v", t.Covariate, len(t.Cells))
}

// CovariateOutcome is the result, or the failure, of analysing one covariate.
type CovariateOutcome struct {
	Name   string
	Table  *SensitivityTable
	Metric float64
	Err    error
}

// Reportable is false for failures and for zero or NaN metrics.
func (o CovariateOutcome) Reportable() bool {
	return o.Err == nil && !math.IsNaN(o.Metric) && o.Metric != 0
}

const SignificanceThresholdName = "Significance Threshold"

type RankedMetric struct {
	Name           string  `json:"name"`
	Metric         float64 `json:"metric"`
	Threshold      bool    `json:"threshold,omitempty"`
	AboveThreshold bool    `json:"above_threshold,omitempty"`
}

type ScatterPoint struct {
	WindSpeedBin float64 `json:"ws_bin"`
	Metric       float64 `json:"metric"`
	Count        int     `json:"count"`
}
