package units_test

import (
	"math"
	"testing"

	"github.com/basf/gotem/units"
)

func TestPressureToLogAtOnePascal(t *testing.T) {
	// ln(1) = 0, so the fit collapses to its offset
	v, err := units.PressureToLog(1)
	if err != nil {
		t.Fatalf("PressureToLog(1): %v", err)
	}
	if v != 53.497 {
		t.Errorf("PressureToLog(1) = %v, want 53.497", v)
	}
}

func TestPressureToLogDomain(t *testing.T) {
	for _, p := range []float64{0, -1, -1e6} {
		_, err := units.PressureToLog(p)
		if _, ok := err.(units.DomainError); !ok {
			t.Errorf("PressureToLog(%v) error = %v, want DomainError", p, err)
		}
	}
}

func TestTiltSpeedValue(t *testing.T) {
	v, err := units.TiltSpeed(10, 3)
	if err != nil {
		t.Fatalf("TiltSpeed: %v", err)
	}
	want := 1.4768*(10.0/3.0) + 0.0001
	if math.Abs(v-want) > 1e-12 {
		t.Errorf("TiltSpeed(10, 3) = %v, want %v", v, want)
	}
}

func TestTiltSpeedProportionality(t *testing.T) {
	// doubling the integration time halves the step/time contribution
	const step = 7.5
	for _, texp := range []float64{0.5, 1, 3, 10} {
		v1, err := units.TiltSpeed(step, texp)
		if err != nil {
			t.Fatalf("TiltSpeed(%v, %v): %v", step, texp, err)
		}
		v2, err := units.TiltSpeed(step, 2*texp)
		if err != nil {
			t.Fatalf("TiltSpeed(%v, %v): %v", step, 2*texp, err)
		}
		if math.Abs((v2-0.0001)-(v1-0.0001)/2) > 1e-12 {
			t.Errorf("texp=%v: speed term %v is not half of %v", texp, v2-0.0001, v1-0.0001)
		}
	}
}

func TestTiltSpeedDomain(t *testing.T) {
	for _, texp := range []float64{0, -3} {
		_, err := units.TiltSpeed(10, texp)
		if _, ok := err.(units.DomainError); !ok {
			t.Errorf("TiltSpeed(10, %v) error = %v, want DomainError", texp, err)
		}
	}
}

func TestNearestMultiple(t *testing.T) {
	cases := []struct {
		value, divisor, want float64
	}{
		{12.3, 5, 10},
		{13, 5, 15},
		{2.5, 1, 3},    // tie breaks to larger magnitude
		{-2.5, 1, -3},  // and mirrors for negative values
		{2.5, -1, 3},   // divisor sign does not change the multiple set
		{-7.4, 0.2, -7.4},
		{0, 3, 0},
	}
	for _, tc := range cases {
		got, err := units.NearestMultiple(tc.value, tc.divisor)
		if err != nil {
			t.Fatalf("NearestMultiple(%v, %v): %v", tc.value, tc.divisor, err)
		}
		if math.Abs(got-tc.want) > 1e-12 {
			t.Errorf("NearestMultiple(%v, %v) = %v, want %v", tc.value, tc.divisor, got, tc.want)
		}
	}
}

func TestNearestMultipleZeroDivisor(t *testing.T) {
	_, err := units.NearestMultiple(1, 0)
	if _, ok := err.(units.DomainError); !ok {
		t.Errorf("NearestMultiple(1, 0) error = %v, want DomainError", err)
	}
}
