// Package tem contains the narrow capability interfaces of a transmission
// electron microscope consumed by the acquisition controller, and the value
// types exchanged over them.
//
// The interfaces deliberately mirror one instrument feature group each (stage,
// beam, camera inventory) so that a consumer composes exactly the
// capabilities it needs; a backend implements as many as it supports.
package tem

import "fmt"

// StagePosition is the 5-axis pose of the specimen stage.  X, Y and Z are in
// instrument length units; Alpha and Beta are tilts in degrees.
//
// A StagePosition is a detached snapshot, never a live view: every read of
// instrument state yields a fresh copy, and mutating one has no effect on
// the instrument or on any other snapshot.
type StagePosition struct {
	X     float64 `json:"x" yaml:"X"`
	Y     float64 `json:"y" yaml:"Y"`
	Z     float64 `json:"z" yaml:"Z"`
	Alpha float64 `json:"alpha" yaml:"Alpha"`
	Beta  float64 `json:"beta" yaml:"Beta"`
}

// StageTarget is a partial pose; nil axes are left where they are.
type StageTarget struct {
	X     *float64 `json:"x,omitempty"`
	Y     *float64 `json:"y,omitempty"`
	Z     *float64 `json:"z,omitempty"`
	Alpha *float64 `json:"alpha,omitempty"`
	Beta  *float64 `json:"beta,omitempty"`
}

// AlphaTarget returns a target that commands only the alpha axis.
func AlphaTarget(alpha float64) StageTarget {
	return StageTarget{Alpha: &alpha}
}

// Apply resolves the target against a current pose, returning the pose the
// stage will have once the move completes.
func (t StageTarget) Apply(p StagePosition) StagePosition {
	if t.X != nil {
		p.X = *t.X
	}
	if t.Y != nil {
		p.Y = *t.Y
	}
	if t.Z != nil {
		p.Z = *t.Z
	}
	if t.Alpha != nil {
		p.Alpha = *t.Alpha
	}
	if t.Beta != nil {
		p.Beta = *t.Beta
	}
	return p
}

// HardwareError is generated when an instrument or camera command fails or
// times out.  Op names the failed operation.
type HardwareError struct {
	Op  string
	Err error
}

func (e HardwareError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("tem: %s failed", e.Op)
	}
	return fmt.Sprintf("tem: %s: %v", e.Op, e.Err)
}

func (e HardwareError) Unwrap() error { return e.Err }

// StageController commands and observes the specimen stage.
type StageController interface {
	// GetStagePosition reads the current pose.  The returned value is a
	// detached snapshot.
	GetStagePosition() (StagePosition, error)

	// MoveStage commands motion toward target at the given speed
	// (instrument speed units) and returns without waiting for completion.
	MoveStage(target StageTarget, speed float64) error

	// StageInPosition reports whether the last commanded move has completed.
	StageInPosition() (bool, error)

	// AlphaLimits returns the allowed range of the alpha axis in degrees.
	AlphaLimits() (min, max float64, err error)
}

// BeamController reads and sets the beam blanker.
type BeamController interface {
	GetBeamBlanked() (bool, error)
	SetBeamBlanked(bool) error
}

// CameraInventory lists the cameras the instrument knows about.
type CameraInventory interface {
	GetSupportedCameras() ([]string, error)
}

// Controller is the full microscope-control capability.  It is a single
// exclusively-owned resource: callers must not run concurrent acquisitions
// against the same instrument handle.
type Controller interface {
	StageController
	BeamController
	CameraInventory
}
