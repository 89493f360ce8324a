package sensitivity

const (
	DefaultRandomTests          = 20
	DefaultMinPointsPerCategory = 4
	DefaultTimeStepSeconds      = 600.0
	DefaultUpperQuantile        = 0.95

	secondsPerHour = 3600.0
)

// time covariates derived from the record timestamps
const (
	DaysFromDecemberSolstice = "Days From December Solstice"
	HoursFromNoon            = "Hours From Noon"
	HoursFromMidnight        = "Hours From Midnight"
	DaysFrom182ndDayOfYear   = "Days From 182nd Day Of Year"
	DaysElapsedInTest        = "Days Elapsed In Test"

	randomCovariatePrefix = "Random "
)

// default dataset column names of the optional covariates
const (
	DefaultHubDensityColumn    = "Hub Density"
	DefaultShearExponentColumn = "Shear Exponent"
	DefaultWindDirectionColumn = "Wind Direction"
	DefaultHubTurbulenceColumn = "Hub Turbulence"
	DefaultInflowAngleColumn   = "Inflow Angle"
)
