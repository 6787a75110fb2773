package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserverCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := NewAcquisition(reg)

	a.FrameRecorded(1, -15)
	a.FrameRecorded(2, -5)
	a.Finished(2, 3*time.Second, nil)
	a.Finished(0, time.Second, errors.New("stage fault"))

	if got := testutil.ToFloat64(a.frames); got != 2 {
		t.Errorf("frames_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(a.series); got != 2 {
		t.Errorf("series_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(a.faults); got != 1 {
		t.Errorf("faults_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(a.lastAlpha); got != -5 {
		t.Errorf("last_frame_alpha_degrees = %v, want -5", got)
	}
}

func TestCollectorsRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewAcquisition(reg)
	fams, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	// counters and the gauge appear at zero; histograms appear once observed
	if len(fams) == 0 {
		t.Error("no metric families registered")
	}
}
