package common

import "errors"

var (
	ErrorInvalidValue = errors.New("invalid value")

	// returned by grid samplers that only know their precomputed points
	ErrorOutOfDomain = errors.New("wind speed outside power curve domain")

	ErrorMalformedBaseline  = errors.New("malformed baseline power curve")
	ErrorInsufficientData   = errors.New("insufficient data")
	ErrorDegenerateQuantile = errors.New("quantile bin edges are not unique")
	ErrorMissingCovariate   = errors.New("covariate not present in dataset")
	ErrorReservedName       = errors.New("covariate name is reserved")
	ErrorComputation        = errors.New("sensitivity computation failed")
)
