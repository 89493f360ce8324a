package kde

const (
	// grid reaches cut bandwidths past the furthest points
	DefaultCut = 3.0

	MinGridSize = 100

	// too few points make the bandwidth meaningless
	MinPointCnt = 5

	// gauss-legendre nodes per grid segment
	quadNodes = 20
)
