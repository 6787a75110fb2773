package acquire

import (
	"github.com/basf/gotem/interp"
)

// Reference is an independently measured image shift at a known tilt angle,
// typically obtained from a tracking exposure on a known-good frame.
type Reference struct {
	Alpha  float64 `yaml:"Alpha"`
	ShiftX float64 `yaml:"ShiftX"`
	ShiftY float64 `yaml:"ShiftY"`
}

// Shift is an expected image displacement for one frame.
type Shift struct {
	X float64 `yaml:"X"`
	Y float64 `yaml:"Y"`
}

// CorrectDrift estimates the expected image shift of every frame by locating
// the two references bracketing its nominal center angle and linearly
// interpolating between them.  Frames beyond the reference sweep clamp to
// the nearest reference rather than extrapolating.
//
// The reference angles must be monotonic in the sweep direction; at least
// two references are required.
func CorrectDrift(frames []Frame, refs []Reference) ([]Shift, error) {
	if len(refs) < 2 {
		return nil, ValidationError("drift correction needs at least two references")
	}
	alphas := make([]float64, len(refs))
	for i, r := range refs {
		alphas[i] = r.Alpha
	}
	out := make([]Shift, len(frames))
	for i, f := range frames {
		lo, hi, err := interp.FindBounds(alphas, f.CenterAlpha)
		if err != nil {
			return nil, ValidationError("reference angles are not monotonic")
		}
		if lo < 0 {
			lo = 0
			hi = 0
		}
		if hi >= len(refs) {
			hi = len(refs) - 1
			lo = hi
		}
		if lo == hi {
			out[i] = Shift{X: refs[lo].ShiftX, Y: refs[lo].ShiftY}
			continue
		}
		out[i] = Shift{
			X: interp.Lerp(alphas[lo], refs[lo].ShiftX, alphas[hi], refs[hi].ShiftX, f.CenterAlpha),
			Y: interp.Lerp(alphas[lo], refs[lo].ShiftY, alphas[hi], refs[hi].ShiftY, f.CenterAlpha),
		}
	}
	return out, nil
}
