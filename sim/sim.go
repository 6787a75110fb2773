/*Package sim provides a software rendition of a microscope and its cameras.

It implements the microscope-control and camera-control capabilities with
finite-speed stage motion, beam blanking state and synthetic 16-bit frames,
so that acquisition logic, servers and tests run without an instrument.

Reads of stage state return detached snapshots; command pacing mimics the
throughput of a real instrument link.
*/
package sim

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/basf/gotem/camera"
	"github.com/basf/gotem/interp"
	"github.com/basf/gotem/mathx"
	"github.com/basf/gotem/tem"
)

// Config holds the simulated instrument's characteristics.  Zero values are
// replaced with defaults by New.
type Config struct {
	// AlphaMin and AlphaMax are the stage tilt limits in degrees.
	// Default ±70.
	AlphaMin float64
	AlphaMax float64

	// Encoder is the position readout quantum.  Default 1e-4.
	Encoder float64

	// CommandsPerSec paces the simulated command link.  Default 200.
	CommandsPerSec float64

	// Width and Height are the full-frame detector dimensions.
	// Default 2048x2048.
	Width  int
	Height int

	// Seed seeds the synthetic image generator; 0 uses the clock.
	Seed int64
}

type move struct {
	from  tem.StagePosition
	to    tem.StagePosition
	start time.Time
	done  time.Time
}

// TEM is a simulated microscope with an attached camera set.
type TEM struct {
	mu      sync.Mutex
	cfg     Config
	pos     tem.StagePosition
	mv      *move
	blanked bool
	limiter *rate.Limiter
	rng     *rand.Rand
	cameras map[string][]camera.Sampling
}

var (
	_ tem.Controller = (*TEM)(nil)
	_ camera.Camera  = (*TEM)(nil)
)

// New returns a simulated microscope.  The camera inventory carries a fast
// full-featured camera ("BM-Ceta") and a full-frame-only one ("BM-Falcon").
func New(cfg Config) *TEM {
	if cfg.AlphaMin == 0 && cfg.AlphaMax == 0 {
		cfg.AlphaMin, cfg.AlphaMax = -70, 70
	}
	if cfg.Encoder == 0 {
		cfg.Encoder = 1e-4
	}
	if cfg.CommandsPerSec == 0 {
		cfg.CommandsPerSec = 200
	}
	if cfg.Width == 0 {
		cfg.Width = 2048
	}
	if cfg.Height == 0 {
		cfg.Height = 2048
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &TEM{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.CommandsPerSec), 1),
		rng:     rand.New(rand.NewSource(seed)),
		cameras: map[string][]camera.Sampling{
			"BM-Ceta":   {camera.Full, camera.Half, camera.Quarter, camera.Eighth},
			"BM-Falcon": {camera.Full},
		},
	}
}

// command models the latency of the instrument link.
func (t *TEM) command() {
	_ = t.limiter.Wait(context.Background())
}

// position returns the pose at time now, interpolating along an in-flight
// move.  Callers must hold mu.
func (t *TEM) position(now time.Time) tem.StagePosition {
	if t.mv == nil {
		return t.pos
	}
	if !now.Before(t.mv.done) {
		t.pos = t.mv.to
		t.mv = nil
		return t.pos
	}
	frac := float64(now.Sub(t.mv.start)) / float64(t.mv.done.Sub(t.mv.start))
	p := t.mv.to
	p.Alpha = interp.Lerp(0, t.mv.from.Alpha, 1, t.mv.to.Alpha, frac)
	return p
}

// GetStagePosition reads the current pose.  The snapshot is detached:
// mutating it does not touch the simulator's state.
func (t *TEM) GetStagePosition() (tem.StagePosition, error) {
	t.command()
	t.mu.Lock()
	defer t.mu.Unlock()
	p := t.position(time.Now())
	// quantize to the encoder readout
	p.X = mathx.Round(p.X, t.cfg.Encoder)
	p.Y = mathx.Round(p.Y, t.cfg.Encoder)
	p.Z = mathx.Round(p.Z, t.cfg.Encoder)
	p.Alpha = mathx.Round(p.Alpha, t.cfg.Encoder)
	p.Beta = mathx.Round(p.Beta, t.cfg.Encoder)
	return p, nil
}

// MoveStage commands motion toward target.  Alpha motion takes finite time
// derived from the speed setting; the linear axes and beta settle
// immediately.  The call returns before the move completes.
func (t *TEM) MoveStage(target tem.StageTarget, speed float64) error {
	t.command()
	if speed == 0 {
		return tem.HardwareError{Op: "MoveStage", Err: fmt.Errorf("zero speed setting")}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now()
	cur := t.position(now)
	to := target.Apply(cur)
	if to.Alpha < t.cfg.AlphaMin || to.Alpha > t.cfg.AlphaMax {
		return tem.HardwareError{Op: "MoveStage", Err: fmt.Errorf("alpha %v outside limits [%v, %v]", to.Alpha, t.cfg.AlphaMin, t.cfg.AlphaMax)}
	}
	// invert the empirical tilt-speed fit to get degrees per second
	degPerSec := math.Abs(speed-0.0001) / 1.4768
	if degPerSec == 0 {
		degPerSec = 0.01
	}
	dur := time.Duration(math.Abs(to.Alpha-cur.Alpha) / degPerSec * float64(time.Second))
	t.mv = &move{from: cur, to: to, start: now, done: now.Add(dur)}
	return nil
}

// StageInPosition reports whether the last commanded move has completed.
func (t *TEM) StageInPosition() (bool, error) {
	t.command()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.position(time.Now())
	return t.mv == nil, nil
}

// AlphaLimits returns the configured tilt range.
func (t *TEM) AlphaLimits() (float64, float64, error) {
	return t.cfg.AlphaMin, t.cfg.AlphaMax, nil
}

// GetBeamBlanked reads the blanker state.
func (t *TEM) GetBeamBlanked() (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.blanked, nil
}

// SetBeamBlanked commands the blanker.
func (t *TEM) SetBeamBlanked(b bool) error {
	t.command()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.blanked = b
	return nil
}

// GetSupportedCameras lists the camera inventory in stable order.
func (t *TEM) GetSupportedCameras() ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	names := make([]string, 0, len(t.cameras))
	for name := range t.cameras {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// SupportedSamplings lists the sampling classes of the named camera.
func (t *TEM) SupportedSamplings(name string) ([]camera.Sampling, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	samps, ok := t.cameras[name]
	if !ok {
		return nil, tem.HardwareError{Op: "SupportedSamplings", Err: fmt.Errorf("unknown camera %q", name)}
	}
	out := make([]camera.Sampling, len(samps))
	copy(out, samps)
	return out, nil
}

// Acquire blocks for the exposure time and returns a synthetic frame at the
// binned resolution.  A blanked beam yields a dark frame.
func (t *TEM) Acquire(name string, s camera.Sampling, exposure time.Duration) (camera.Image, error) {
	t.command()
	t.mu.Lock()
	samps, ok := t.cameras[name]
	if !ok {
		t.mu.Unlock()
		return camera.Image{}, tem.HardwareError{Op: "Acquire", Err: fmt.Errorf("unknown camera %q", name)}
	}
	supported := false
	for _, have := range samps {
		if have == s {
			supported = true
			break
		}
	}
	if !supported {
		t.mu.Unlock()
		return camera.Image{}, tem.HardwareError{Op: "Acquire", Err: fmt.Errorf("camera %q does not support sampling %q", name, s)}
	}
	blanked := t.blanked
	t.mu.Unlock()

	if exposure <= 0 {
		return camera.Image{}, tem.HardwareError{Op: "Acquire", Err: fmt.Errorf("non-positive exposure %v", exposure)}
	}
	time.Sleep(exposure)

	b := s.Binning()
	w, h := t.cfg.Width/b.H, t.cfg.Height/b.V
	img := camera.Image{Data: make([]uint16, w*h), Width: w, Height: h}
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range img.Data {
		if blanked {
			// dark frame: readout noise only
			img.Data[i] = uint16(t.rng.Intn(16))
		} else {
			img.Data[i] = uint16(t.rng.Intn(1 << 14))
		}
	}
	return img, nil
}
