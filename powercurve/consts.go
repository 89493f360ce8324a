package powercurve

const (
	// GridStep is the wind speed resolution of the grid samplers.
	GridStep = 0.01

	gridScale = 1 / GridStep
)
