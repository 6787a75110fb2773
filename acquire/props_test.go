package acquire_test

import (
	"math"
	"testing"
	"time"

	"github.com/basf/gotem/acquire"
	"github.com/basf/gotem/camera"
)

func TestNewPropertiesDerivedFields(t *testing.T) {
	bounds := []float64{-20, -10, 0, 10, 20}
	p, err := acquire.NewProperties("BM-Ceta", bounds, 3*time.Second, camera.Full, "series.fits")
	if err != nil {
		t.Fatalf("NewProperties: %v", err)
	}
	if p.AlphaStep() != 10 {
		t.Errorf("AlphaStep = %v, want 10", p.AlphaStep())
	}
	wantCenters := []float64{-15, -5, 5, 15}
	centers := p.FrameCenterAlphas()
	if len(centers) != len(wantCenters) {
		t.Fatalf("FrameCenterAlphas = %v, want %v", centers, wantCenters)
	}
	for i := range centers {
		if centers[i] != wantCenters[i] {
			t.Errorf("center[%d] = %v, want %v", i, centers[i], wantCenters[i])
		}
	}
	wantSpeed := 1.4768*(10.0/3.0) + 0.0001
	if math.Abs(p.TiltSpeed()-wantSpeed) > 1e-12 {
		t.Errorf("TiltSpeed = %v, want %v", p.TiltSpeed(), wantSpeed)
	}
	if p.FrameCount() != 4 {
		t.Errorf("FrameCount = %d, want 4", p.FrameCount())
	}
}

func TestNewPropertiesDescendingSweep(t *testing.T) {
	p, err := acquire.NewProperties("BM-Ceta", []float64{20, 10, 0, -10, -20}, 2*time.Second, camera.Half, "")
	if err != nil {
		t.Fatalf("NewProperties: %v", err)
	}
	if p.AlphaStep() != -10 {
		t.Errorf("AlphaStep = %v, want -10", p.AlphaStep())
	}
	if p.TiltSpeed() >= 0 {
		t.Errorf("TiltSpeed = %v, want negative for a downward sweep", p.TiltSpeed())
	}
	centers := p.FrameCenterAlphas()
	want := []float64{15, 5, -5, -15}
	for i := range want {
		if centers[i] != want[i] {
			t.Errorf("center[%d] = %v, want %v", i, centers[i], want[i])
		}
	}
}

func TestNewPropertiesValidation(t *testing.T) {
	cases := []struct {
		name     string
		cam      string
		bounds   []float64
		texp     time.Duration
		sampling camera.Sampling
	}{
		{"one bound", "c", []float64{0}, time.Second, camera.Full},
		{"no bounds", "c", nil, time.Second, camera.Full},
		{"zero exposure", "c", []float64{0, 10}, 0, camera.Full},
		{"negative exposure", "c", []float64{0, 10}, -time.Second, camera.Full},
		{"bad sampling", "c", []float64{0, 10}, time.Second, camera.Sampling("third")},
		{"empty camera", "", []float64{0, 10}, time.Second, camera.Full},
	}
	for _, tc := range cases {
		_, err := acquire.NewProperties(tc.cam, tc.bounds, tc.texp, tc.sampling, "")
		if _, ok := err.(acquire.ValidationError); !ok {
			t.Errorf("%s: error = %v, want ValidationError", tc.name, err)
		}
	}
}

func TestPropertiesImmutable(t *testing.T) {
	p, err := acquire.NewProperties("c", []float64{0, 10, 20}, time.Second, camera.Full, "")
	if err != nil {
		t.Fatal(err)
	}
	// accessors hand out copies; scribbling on them must not stick
	p.AlphaBounds()[0] = 999
	p.FrameCenterAlphas()[0] = 999
	if p.AlphaBounds()[0] != 0 {
		t.Error("AlphaBounds leaked internal storage")
	}
	if p.FrameCenterAlphas()[0] != 5 {
		t.Error("FrameCenterAlphas leaked internal storage")
	}
}

func TestAlphaRange(t *testing.T) {
	got, err := acquire.AlphaRange(-20, 20, 10)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{-20, -10, 0, 10, 20}
	if len(got) != len(want) {
		t.Fatalf("AlphaRange = %v, want %v", got, want)
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("bound[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestAlphaRangeDescending(t *testing.T) {
	got, err := acquire.AlphaRange(30, -30, -15)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{30, 15, 0, -15, -30}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("bound[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestAlphaRangeValidation(t *testing.T) {
	cases := []struct {
		name              string
		start, stop, step float64
	}{
		{"zero step", 0, 10, 0},
		{"wrong direction", 0, 10, -1},
		{"uneven", 0, 10, 3},
	}
	for _, tc := range cases {
		if _, err := acquire.AlphaRange(tc.start, tc.stop, tc.step); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}
