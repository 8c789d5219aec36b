// Package units provides shared constants and validation for velocity units.
package units

// Unit constants. Blood-flow velocities are stored and computed in m/s;
// display surfaces may request cm/s (the clinical convention) or the
// road-speed units kept for parity with other deployments.
const (
	MPS  = "mps"
	CMPS = "cmps"
	KMPH = "kmph"
	MPH  = "mph"
)

// ValidUnits contains all valid unit values.
var ValidUnits = []string{MPS, CMPS, KMPH, MPH}

// IsValid checks if the given unit is in the list of valid units.
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages.
func GetValidUnitsString() string {
	return "mps, cmps, kmph, mph"
}

// ConvertVelocity converts a velocity from meters per second to the target
// units. Unknown units fall back to m/s.
func ConvertVelocity(velocityMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case CMPS:
		return velocityMPS * 100
	case KMPH:
		return velocityMPS * 3.6
	case MPH:
		return velocityMPS * 2.23694
	case MPS:
		return velocityMPS
	default:
		return velocityMPS
	}
}
