package loadtest

import "time"

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Runner configuration constants.
const (
	SettlePollInterval   = 100 * time.Millisecond
	PercentageMultiplier = 100
	playersToCheck       = 10
)

// Tolerances used by the checks.
const (
	scoreSumTolerance = 1e-9
	deltaTolerance    = 1e-9
	skillTolerance    = 1e-6
	skillFactor       = 3.0
)
