// Package units converts between the quantities used by the microscope and
// the quantities used by the acquisition planner.
//
// The coefficients in this package are empirical fits taken from the
// instrument's calibration, not physical laws.  They are approximate, and
// their exact values are part of the contract with downstream analysis
// pipelines; do not "improve" them.
package units

import (
	"fmt"
	"math"
)

// DomainError is generated when an input lies outside the mathematical
// domain of a conversion.
type DomainError struct {
	Conv   string
	Reason string
}

func (e DomainError) Error() string {
	return fmt.Sprintf("units: %s: %s", e.Conv, e.Reason)
}

// PressureToLog converts a column pressure in Pascal to the instrument's
// log-scale readout.  Pressures of zero or below have no logarithm and
// return a DomainError.
func PressureToLog(pascals float64) (float64, error) {
	if pascals <= 0 {
		return 0, DomainError{Conv: "PressureToLog", Reason: "pressure must be > 0 Pa"}
	}
	return 3.5683*math.Log(pascals) + 53.497, nil
}

// TiltSpeed converts an alpha step (degrees) and integration time (seconds)
// to the stage speed setting, in instrument speed units.  The sign of the
// result follows the sign of alphaStep.
func TiltSpeed(alphaStep, integrationTime float64) (float64, error) {
	if integrationTime <= 0 {
		return 0, DomainError{Conv: "TiltSpeed", Reason: "integration time must be > 0 s"}
	}
	return 1.4768*(alphaStep/integrationTime) + 0.0001, nil
}

// NearestMultiple returns the multiple of divisor nearest to value.  Ties
// break toward the multiple with larger magnitude.
func NearestMultiple(value, divisor float64) (float64, error) {
	if divisor == 0 {
		return 0, DomainError{Conv: "NearestMultiple", Reason: "divisor must be nonzero"}
	}
	return divisor * math.Round(value/divisor), nil
}
