// Package beam layers idempotent blanking control over the microscope's beam
// capability.  Blank and Unblank only touch the hardware when the state
// actually changes, so callers may blank unconditionally before every stage
// move without flooding the instrument with redundant commands.
package beam

import "github.com/basf/gotem/tem"

// Control wraps a beam capability with idempotent blank/unblank operations.
type Control struct {
	ctl tem.BeamController
}

// New returns a Control over the given beam capability.
func New(ctl tem.BeamController) *Control {
	return &Control{ctl: ctl}
}

// IsBlanked reports the current blanker state.
func (c *Control) IsBlanked() (bool, error) {
	return c.ctl.GetBeamBlanked()
}

// Blank blanks the beam.  If the beam is already blanked, no command is sent.
func (c *Control) Blank() error {
	return c.set(true)
}

// Unblank unblanks the beam.  If the beam is already unblanked, no command
// is sent.
func (c *Control) Unblank() error {
	return c.set(false)
}

func (c *Control) set(blanked bool) error {
	cur, err := c.ctl.GetBeamBlanked()
	if err != nil {
		return err
	}
	if cur == blanked {
		return nil
	}
	return c.ctl.SetBeamBlanked(blanked)
}
