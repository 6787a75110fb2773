package acquire

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/basf/gotem/camera"
	"github.com/basf/gotem/units"
)

// ValidationError is generated for malformed acquisition parameters.  It is
// surfaced immediately and the acquisition never starts.
type ValidationError string

func (e ValidationError) Error() string { return "acquire: " + string(e) }

// ConfigurationError is generated during planning when the requested
// camera/sampling combination is unsupported by the current hardware.
type ConfigurationError string

func (e ConfigurationError) Error() string { return "acquire: " + string(e) }

// Properties describes a planned tilt series: which camera, the angular
// sweep, the exposure settings, and the derived tilt speed and frame-center
// angles.  A Properties is immutable after construction; build a new one to
// acquire with different parameters.
type Properties struct {
	cameraName  string
	alphas      []float64
	alphaStep   float64
	centers     []float64
	integration time.Duration
	sampling    camera.Sampling
	outFile     string
	tiltSpeed   float64
}

// NewProperties validates and derives a tilt-series descriptor.
//
// alphas are the sweep sample bounds in degrees, at least two, evenly spaced
// by construction of the caller; the step is bounds[1]-bounds[0] and its sign
// is the sweep direction.  Each frame is centered on the midpoint of two
// consecutive bounds, so len(bounds)-1 frames will be acquired.
func NewProperties(cameraName string, alphas []float64, integration time.Duration, sampling camera.Sampling, outFile string) (*Properties, error) {
	if cameraName == "" {
		return nil, ValidationError("camera name is empty")
	}
	if len(alphas) < 2 {
		return nil, ValidationError("alpha bounds need at least two samples")
	}
	if integration <= 0 {
		return nil, ValidationError("integration time must be positive")
	}
	if !sampling.Valid() {
		return nil, ValidationError(fmt.Sprintf("unknown sampling %q", sampling))
	}
	step := alphas[1] - alphas[0]
	centers := make([]float64, len(alphas)-1)
	for i := range centers {
		centers[i] = alphas[i] + step/2
	}
	speed, err := units.TiltSpeed(step, integration.Seconds())
	if err != nil {
		return nil, err
	}
	bounds := make([]float64, len(alphas))
	copy(bounds, alphas)
	return &Properties{
		cameraName:  cameraName,
		alphas:      bounds,
		alphaStep:   step,
		centers:     centers,
		integration: integration,
		sampling:    sampling,
		outFile:     outFile,
		tiltSpeed:   speed,
	}, nil
}

// AlphaRange builds evenly spaced sweep bounds from start to stop inclusive.
// The step sign must match the sweep direction and divide the span evenly.
func AlphaRange(start, stop, step float64) ([]float64, error) {
	if step == 0 {
		return nil, ValidationError("alpha step must be nonzero")
	}
	span := stop - start
	if span/step <= 0 {
		return nil, ValidationError("alpha step sign does not match sweep direction")
	}
	q := span / step
	if math.Abs(q-math.Round(q)) > 1e-9 {
		return nil, ValidationError("alpha step does not evenly divide the sweep")
	}
	n := int(math.Round(q)) + 1
	if n < 2 {
		return nil, ValidationError("alpha sweep shorter than one step")
	}
	return floats.Span(make([]float64, n), start, stop), nil
}

// CameraName returns the identifier of the camera to expose on.
func (p *Properties) CameraName() string { return p.cameraName }

// AlphaBounds returns a copy of the sweep sample bounds in degrees.
func (p *Properties) AlphaBounds() []float64 {
	out := make([]float64, len(p.alphas))
	copy(out, p.alphas)
	return out
}

// AlphaStep returns the angular step between consecutive bounds; its sign is
// the sweep direction.
func (p *Properties) AlphaStep() float64 { return p.alphaStep }

// FrameCenterAlphas returns a copy of the nominal center angle of each frame.
func (p *Properties) FrameCenterAlphas() []float64 {
	out := make([]float64, len(p.centers))
	copy(out, p.centers)
	return out
}

// IntegrationTime returns the per-frame exposure time.
func (p *Properties) IntegrationTime() time.Duration { return p.integration }

// Sampling returns the resolution class frames will be acquired at.
func (p *Properties) Sampling() camera.Sampling { return p.sampling }

// OutFile returns the destination identifier.  It is opaque to the
// controller; persistence belongs to the caller.
func (p *Properties) OutFile() string { return p.outFile }

// TiltSpeed returns the derived stage speed setting in instrument units.
func (p *Properties) TiltSpeed() float64 { return p.tiltSpeed }

// FrameCount returns the number of frames the series will record.
func (p *Properties) FrameCount() int { return len(p.centers) }
