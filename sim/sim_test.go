package sim_test

import (
	"testing"
	"time"

	"github.com/basf/gotem/camera"
	"github.com/basf/gotem/sim"
	"github.com/basf/gotem/tem"
)

func fastSim() *sim.TEM {
	// small frames and a fast link keep the tests snappy
	return sim.New(sim.Config{
		CommandsPerSec: 10000,
		Width:          64,
		Height:         64,
		Seed:           1,
	})
}

func TestGetStagePositionSnapshotDetached(t *testing.T) {
	s := fastSim()
	p, err := s.GetStagePosition()
	if err != nil {
		t.Fatal(err)
	}
	p.Alpha = 999
	p2, err := s.GetStagePosition()
	if err != nil {
		t.Fatal(err)
	}
	if p2.Alpha == 999 {
		t.Error("mutating a returned snapshot changed simulator state")
	}
}

func TestMoveIsNonBlockingAndSettles(t *testing.T) {
	s := fastSim()
	// fast enough to cross 10 degrees in well under a second
	speed := 1.4768*100 + 0.0001
	if err := s.MoveStage(tem.AlphaTarget(10), speed); err != nil {
		t.Fatal(err)
	}
	ok, err := s.StageInPosition()
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("stage reported in position immediately after commanding a move")
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		ok, err = s.StageInPosition()
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("stage never settled")
		}
		time.Sleep(5 * time.Millisecond)
	}
	p, err := s.GetStagePosition()
	if err != nil {
		t.Fatal(err)
	}
	if p.Alpha != 10 {
		t.Errorf("settled alpha = %v, want 10", p.Alpha)
	}
}

func TestMoveOutsideLimitsRejected(t *testing.T) {
	s := fastSim()
	err := s.MoveStage(tem.AlphaTarget(80), 1)
	if err == nil {
		t.Fatal("expected error moving past the tilt limit")
	}
	if _, ok := err.(tem.HardwareError); !ok {
		t.Errorf("error = %T, want tem.HardwareError", err)
	}
}

func TestBeamBlanking(t *testing.T) {
	s := fastSim()
	b, err := s.GetBeamBlanked()
	if err != nil {
		t.Fatal(err)
	}
	if b {
		t.Error("beam starts blanked")
	}
	if err := s.SetBeamBlanked(true); err != nil {
		t.Fatal(err)
	}
	b, err = s.GetBeamBlanked()
	if err != nil {
		t.Fatal(err)
	}
	if !b {
		t.Error("blank command did not stick")
	}
}

func TestCameraInventory(t *testing.T) {
	s := fastSim()
	cams, err := s.GetSupportedCameras()
	if err != nil {
		t.Fatal(err)
	}
	if len(cams) != 2 || cams[0] != "BM-Ceta" || cams[1] != "BM-Falcon" {
		t.Errorf("cameras = %v", cams)
	}
	samps, err := s.SupportedSamplings("BM-Falcon")
	if err != nil {
		t.Fatal(err)
	}
	if len(samps) != 1 || samps[0] != camera.Full {
		t.Errorf("BM-Falcon samplings = %v", samps)
	}
	if _, err := s.SupportedSamplings("BM-Nonesuch"); err == nil {
		t.Error("expected error for an unknown camera")
	}
}

func TestAcquireDimensionsFollowSampling(t *testing.T) {
	s := fastSim()
	cases := []struct {
		s    camera.Sampling
		w, h int
	}{
		{camera.Full, 64, 64},
		{camera.Half, 32, 32},
		{camera.Quarter, 16, 16},
		{camera.Eighth, 8, 8},
	}
	for _, tc := range cases {
		img, err := s.Acquire("BM-Ceta", tc.s, time.Millisecond)
		if err != nil {
			t.Fatalf("%s: %v", tc.s, err)
		}
		if img.Width != tc.w || img.Height != tc.h {
			t.Errorf("%s: dims = %dx%d, want %dx%d", tc.s, img.Width, img.Height, tc.w, tc.h)
		}
		if len(img.Data) != tc.w*tc.h {
			t.Errorf("%s: len(Data) = %d", tc.s, len(img.Data))
		}
	}
}

func TestAcquireErrors(t *testing.T) {
	s := fastSim()
	if _, err := s.Acquire("BM-Nonesuch", camera.Full, time.Millisecond); err == nil {
		t.Error("expected error for an unknown camera")
	}
	if _, err := s.Acquire("BM-Falcon", camera.Half, time.Millisecond); err == nil {
		t.Error("expected error for an unsupported sampling")
	}
	if _, err := s.Acquire("BM-Ceta", camera.Full, 0); err == nil {
		t.Error("expected error for a zero exposure")
	}
}

func TestBlankedAcquireIsDark(t *testing.T) {
	s := fastSim()
	if err := s.SetBeamBlanked(true); err != nil {
		t.Fatal(err)
	}
	img, err := s.Acquire("BM-Ceta", camera.Eighth, time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range img.Data {
		if v >= 16 {
			t.Fatalf("pixel %d = %d, want readout noise only while blanked", i, v)
		}
	}
}
