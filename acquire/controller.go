package acquire

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/basf/gotem/beam"
	"github.com/basf/gotem/camera"
	"github.com/basf/gotem/tem"
	"github.com/basf/gotem/util"
)

// State is a phase of the acquisition state machine.
type State int

// The acquisition states.  Faulted is reachable from any active state.
const (
	Idle State = iota
	Planning
	Moving
	Settling
	Blanked
	Exposing
	Recording
	Finalizing
	Done
	Faulted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Planning:
		return "planning"
	case Moving:
		return "moving"
	case Settling:
		return "settling"
	case Blanked:
		return "blanked"
	case Exposing:
		return "exposing"
	case Recording:
		return "recording"
	case Finalizing:
		return "finalizing"
	case Done:
		return "done"
	case Faulted:
		return "faulted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Fault wraps a hardware failure with the stop it occurred at.  Stop is the
// 1-based ordinal of the failing stop in the sweep.
type Fault struct {
	Stop  int
	State State
	Err   error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("acquire: fault at stop %d while %s: %v", f.Stop, f.State, f.Err)
}

func (f *Fault) Unwrap() error { return f.Err }

// Frame pairs a captured image with the stage pose read immediately after
// exposure and the nominal center angle of the frame.
type Frame struct {
	Image       camera.Image
	Position    tem.StagePosition
	CenterAlpha float64
}

// Result is an acquisition outcome: the frame sequence in sweep order plus
// the originating properties.  On fault or cancellation it holds the frames
// captured so far.
type Result struct {
	Props  *Properties
	Frames []Frame
}

// Observer receives progress callbacks from a running acquisition.
type Observer interface {
	// FrameRecorded is called after each frame lands in the result.
	FrameRecorded(stop int, centerAlpha float64)

	// Finished is called once per Run with the final frame count, the wall
	// time spent, and the surfaced error, if any.
	Finished(frames int, elapsed time.Duration, err error)
}

// Config tunes a Controller.  The zero value is usable.
type Config struct {
	// SettleTimeout bounds how long a stage move may take to report
	// in-position before the controller faults.  Default 30s.
	SettleTimeout time.Duration

	// SettlePoll is the initial interval between in-position queries.
	// Default 10ms; the interval backs off toward 250ms.
	SettlePoll time.Duration

	// LeaveUnblanked leaves the beam unblanked after a clean finish.  The
	// default (false) re-blanks, which is the safe state for the crystal.
	LeaveUnblanked bool

	// Observer, when non-nil, receives progress callbacks.
	Observer Observer
}

// Controller drives the stage through a programmed tilt sweep, synchronizing
// beam blanking and camera exposures.  One Controller owns its instrument
// handle for the duration of a Run; concurrent Runs against the same
// hardware are not supported.
type Controller struct {
	scope tem.Controller
	cam   camera.Camera
	beam  *beam.Control
	cfg   Config
	state State
}

// NewController returns a Controller over the given capabilities.
func NewController(scope tem.Controller, cam camera.Camera, cfg Config) *Controller {
	if cfg.SettleTimeout == 0 {
		cfg.SettleTimeout = 30 * time.Second
	}
	if cfg.SettlePoll == 0 {
		cfg.SettlePoll = 10 * time.Millisecond
	}
	return &Controller{
		scope: scope,
		cam:   cam,
		beam:  beam.New(scope),
		cfg:   cfg,
		state: Idle,
	}
}

// State returns the current phase of the state machine.
func (c *Controller) State() State { return c.state }

// Run executes the tilt series described by p.
//
// Cancellation via ctx is honored at stop boundaries only; the underlying
// hardware operations are not interruptible.  On fault or cancellation the
// returned Result holds the frames captured so far alongside the error, and
// the beam is left blanked.  Run never retries a failed command; re-invoke
// the whole acquisition if a retry is wanted.
func (c *Controller) Run(ctx context.Context, p *Properties) (*Result, error) {
	start := time.Now()
	res := &Result{Props: p}
	err := c.run(ctx, p, res)
	if obs := c.cfg.Observer; obs != nil {
		obs.Finished(len(res.Frames), time.Since(start), err)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			// cancellation is not a fault; finalize already ran
			c.state = Done
			return res, err
		}
		c.state = Faulted
		// best effort: stop exposing the specimen before surfacing
		_ = c.beam.Blank()
		return res, err
	}
	c.state = Done
	return res, nil
}

func (c *Controller) run(ctx context.Context, p *Properties, res *Result) error {
	c.state = Planning
	stops, err := c.plan(p)
	if err != nil {
		return err
	}

	for i, alpha := range stops {
		stop := i + 1
		if i > 0 {
			// stop boundary: the only place cancellation is honored
			select {
			case <-ctx.Done():
				if ferr := c.finalize(); ferr != nil {
					return fmt.Errorf("%w; restoring beam state failed: %w", ctx.Err(), ferr)
				}
				return ctx.Err()
			default:
			}
		}

		c.state = Moving
		// always blank before a move; idempotence in beam.Control makes
		// this free when already blanked
		if err := c.beam.Blank(); err != nil {
			return &Fault{Stop: stop, State: c.state, Err: err}
		}
		if err := c.scope.MoveStage(tem.AlphaTarget(alpha), p.TiltSpeed()); err != nil {
			return &Fault{Stop: stop, State: c.state, Err: err}
		}

		c.state = Settling
		if err := c.settle(); err != nil {
			return &Fault{Stop: stop, State: c.state, Err: err}
		}

		c.state = Blanked
		if err := c.beam.Unblank(); err != nil {
			return &Fault{Stop: stop, State: c.state, Err: err}
		}

		c.state = Exposing
		img, err := c.cam.Acquire(p.CameraName(), p.Sampling(), p.IntegrationTime())
		if err != nil {
			return &Fault{Stop: stop, State: c.state, Err: err}
		}

		c.state = Recording
		pos, err := c.scope.GetStagePosition()
		if err != nil {
			return &Fault{Stop: stop, State: c.state, Err: err}
		}
		res.Frames = append(res.Frames, Frame{Image: img, Position: pos, CenterAlpha: alpha})
		if obs := c.cfg.Observer; obs != nil {
			obs.FrameRecorded(stop, alpha)
		}
		if err := c.beam.Blank(); err != nil {
			return &Fault{Stop: stop, State: c.state, Err: err}
		}
	}

	return c.finalize()
}

// plan validates the properties against the hardware and returns the target
// alpha stops in sweep order.
func (c *Controller) plan(p *Properties) ([]float64, error) {
	cams, err := c.scope.GetSupportedCameras()
	if err != nil {
		return nil, tem.HardwareError{Op: "GetSupportedCameras", Err: err}
	}
	found := false
	for _, name := range cams {
		if name == p.CameraName() {
			found = true
			break
		}
	}
	if !found {
		return nil, ConfigurationError(fmt.Sprintf("camera %q is not among supported cameras %v", p.CameraName(), cams))
	}

	samps, err := c.cam.SupportedSamplings(p.CameraName())
	if err != nil {
		return nil, tem.HardwareError{Op: "SupportedSamplings", Err: err}
	}
	found = false
	for _, s := range samps {
		if s == p.Sampling() {
			found = true
			break
		}
	}
	if !found {
		return nil, ConfigurationError(fmt.Sprintf("camera %q does not support sampling %q", p.CameraName(), p.Sampling()))
	}

	min, max, err := c.scope.AlphaLimits()
	if err != nil {
		return nil, tem.HardwareError{Op: "AlphaLimits", Err: err}
	}
	lim := util.Limiter{Min: min, Max: max}
	for _, a := range p.AlphaBounds() {
		if !lim.Contains(a) {
			return nil, ValidationError(fmt.Sprintf("alpha bound %v outside stage limits [%v, %v]", a, min, max))
		}
	}
	return p.FrameCenterAlphas(), nil
}

var errNotSettled = errors.New("stage has not reached position")

// settle blocks until the stage reports in-position, polling with an
// exponential backoff bounded by the settle timeout.
func (c *Controller) settle() error {
	op := func() error {
		done, err := c.scope.StageInPosition()
		if err != nil {
			return backoff.Permanent(tem.HardwareError{Op: "StageInPosition", Err: err})
		}
		if !done {
			return errNotSettled
		}
		return nil
	}
	err := backoff.Retry(op, &backoff.ExponentialBackOff{
		InitialInterval:     c.cfg.SettlePoll,
		RandomizationFactor: 0.,
		Multiplier:          1.5,
		MaxInterval:         250 * time.Millisecond,
		MaxElapsedTime:      c.cfg.SettleTimeout,
		Clock:               backoff.SystemClock})
	if err == nil {
		return nil
	}
	if errors.Is(err, errNotSettled) {
		return tem.HardwareError{Op: "settle", Err: fmt.Errorf("no in-position signal within %v", c.cfg.SettleTimeout)}
	}
	return err
}

// finalize restores the requested post-acquisition beam state.
func (c *Controller) finalize() error {
	c.state = Finalizing
	var err error
	if c.cfg.LeaveUnblanked {
		err = c.beam.Unblank()
	} else {
		err = c.beam.Blank()
	}
	if err != nil {
		return &Fault{Stop: 0, State: c.state, Err: err}
	}
	return nil
}
