// Package metrics publishes acquisition counters and timings in Prometheus
// format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/basf/gotem/acquire"
)

// Acquisition observes tilt series runs.  It satisfies acquire.Observer and
// may be registered on any prometheus registry.
type Acquisition struct {
	frames    prometheus.Counter
	series    prometheus.Counter
	faults    prometheus.Counter
	duration  prometheus.Histogram
	lastAlpha prometheus.Gauge
}

var _ acquire.Observer = (*Acquisition)(nil)

// NewAcquisition creates the collectors and registers them on reg.
func NewAcquisition(reg prometheus.Registerer) *Acquisition {
	f := promauto.With(reg)
	return &Acquisition{
		frames: f.NewCounter(prometheus.CounterOpts{
			Namespace: "gotem",
			Subsystem: "acquire",
			Name:      "frames_total",
			Help:      "Frames recorded across all tilt series.",
		}),
		series: f.NewCounter(prometheus.CounterOpts{
			Namespace: "gotem",
			Subsystem: "acquire",
			Name:      "series_total",
			Help:      "Tilt series runs, successful or not.",
		}),
		faults: f.NewCounter(prometheus.CounterOpts{
			Namespace: "gotem",
			Subsystem: "acquire",
			Name:      "faults_total",
			Help:      "Tilt series runs that ended in an error.",
		}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gotem",
			Subsystem: "acquire",
			Name:      "run_duration_seconds",
			Help:      "Wall time of tilt series runs.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		lastAlpha: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "gotem",
			Subsystem: "acquire",
			Name:      "last_frame_alpha_degrees",
			Help:      "Center angle of the most recently recorded frame.",
		}),
	}
}

// FrameRecorded implements acquire.Observer.
func (a *Acquisition) FrameRecorded(stop int, centerAlpha float64) {
	a.frames.Inc()
	a.lastAlpha.Set(centerAlpha)
}

// Finished implements acquire.Observer.
func (a *Acquisition) Finished(frames int, elapsed time.Duration, err error) {
	a.series.Inc()
	a.duration.Observe(elapsed.Seconds())
	if err != nil {
		a.faults.Inc()
	}
}
