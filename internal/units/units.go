// Package units provides shared constants and conversions for speed, angle and mass units.
package units

import "math"

// Unit constants
const (
	MPS  = "mps"
	MPH  = "mph"
	KMPH = "kmph"
	KPH  = "kph"
)

// Conversion factors. All internal kinematics are carried in SI units.
const (
	KPHToMS  = 1 / 3.6
	MSToKPH  = 3.6
	MPHToMS  = 1.609344 / 3.6
	MSToMPH  = 3.6 / 1.609344
	DegToRad = math.Pi / 180
	RadToDeg = 180 / math.Pi
	LbToKg   = 0.453592
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{MPS, MPH, KMPH, KPH}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "mps, mph, kmph, kph"
}

// ConvertSpeed converts a speed from meters per second to the target units
func ConvertSpeed(speedMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case MPH:
		return speedMPS * MSToMPH
	case KMPH, KPH:
		return speedMPS * MSToKPH
	default:
		return speedMPS
	}
}

// ToMPS converts a speed in the given units back to meters per second.
// Unknown units are treated as m/s.
func ToMPS(speed float64, fromUnits string) float64 {
	switch fromUnits {
	case MPH:
		return speed * MPHToMS
	case KMPH, KPH:
		return speed * KPHToMS
	default:
		return speed
	}
}
