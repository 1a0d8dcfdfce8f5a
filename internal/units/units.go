// Package units converts speeds and angles for display.
package units

import (
	"fmt"
	"math"
	"strings"
)

const (
	MPS  = "mps"
	MPH  = "mph"
	KMPH = "kmph"
	KPH  = "kph"
)

// MetersPerSecondToMPH is the factor used for all mph output.
const MetersPerSecondToMPH = 2.2369363

var ValidUnits = []string{MPS, MPH, KMPH, KPH}

func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// Parse normalizes a unit name, rejecting anything not in ValidUnits.
func Parse(unit string) (string, error) {
	u := strings.ToLower(strings.TrimSpace(unit))
	if !IsValid(u) {
		return "", fmt.Errorf("invalid units %q, expected one of %s", unit, strings.Join(ValidUnits, ", "))
	}
	return u, nil
}

// ConvertSpeed converts a speed from meters per second to the target units.
func ConvertSpeed(speedMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case MPH:
		return speedMPS * MetersPerSecondToMPH
	case KMPH, KPH:
		return speedMPS * 3.6
	default:
		return speedMPS
	}
}

// ToMPS is the inverse of ConvertSpeed.
func ToMPS(speed float64, fromUnits string) float64 {
	switch fromUnits {
	case MPH:
		return speed / MetersPerSecondToMPH
	case KMPH, KPH:
		return speed / 3.6
	default:
		return speed
	}
}

func Label(unit string) string {
	switch unit {
	case MPH:
		return "mph"
	case KMPH, KPH:
		return "km/h"
	default:
		return "m/s"
	}
}

func Degrees(rad float64) float64 { return rad * 180 / math.Pi }
func Radians(deg float64) float64 { return deg * math.Pi / 180 }
