package model

type Density struct {
	X     float64
	Value float64
}

type Cdf struct {
	X     float64
	Value float64
}
