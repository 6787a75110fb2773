// tiltseries acquires a tilt series against the simulated microscope and
// writes it to a FITS file with a YAML metadata sidecar.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/theckman/yacspin"

	"github.com/basf/gotem/acquire"
	"github.com/basf/gotem/camera"
	"github.com/basf/gotem/sim"
	"github.com/basf/gotem/util"
)

type spinnerObserver struct {
	spin  *yacspin.Spinner
	total int
}

func (o spinnerObserver) FrameRecorded(stop int, centerAlpha float64) {
	o.spin.Message(fmt.Sprintf("frame %d/%d at alpha %.2f deg", stop, o.total, centerAlpha))
}

func (o spinnerObserver) Finished(frames int, elapsed time.Duration, err error) {
	if err != nil {
		o.spin.StopFailMessage(fmt.Sprintf("%d/%d frames after %v: %v", frames, o.total, elapsed.Round(time.Millisecond), err))
		return
	}
	o.spin.StopMessage(fmt.Sprintf("%d frames in %v", frames, elapsed.Round(time.Millisecond)))
}

func main() {
	var (
		start          = flag.Float64("start", -60, "first alpha bound, degrees")
		stop           = flag.Float64("stop", 60, "last alpha bound, degrees")
		step           = flag.Float64("step", 2, "alpha increment between bounds, degrees")
		texp           = flag.Float64("texp", 1, "integration time per frame, seconds")
		cam            = flag.String("camera", "BM-Ceta", "camera to expose with")
		sampling       = flag.String("sampling", "full", "sampling class: full, half, quarter or eighth")
		out            = flag.String("out", "series.fits", "output FITS file")
		leaveUnblanked = flag.Bool("leave-unblanked", false, "leave the beam unblanked after the series")
	)
	flag.Parse()

	samp, err := camera.ParseSampling(*sampling)
	if err != nil {
		log.Fatal(err)
	}
	bounds, err := acquire.AlphaRange(*start, *stop, *step)
	if err != nil {
		log.Fatal(err)
	}
	props, err := acquire.NewProperties(*cam, bounds, util.SecsToDuration(*texp), samp, *out)
	if err != nil {
		log.Fatal(err)
	}

	spin, err := yacspin.New(yacspin.Config{
		Frequency:         100 * time.Millisecond,
		CharSet:           yacspin.CharSets[59],
		Suffix:            " tilt series",
		SuffixAutoColon:   true,
		StopCharacter:     "done",
		StopFailCharacter: "fault",
	})
	if err != nil {
		log.Fatal(err)
	}

	scope := sim.New(sim.Config{})
	ctl := acquire.NewController(scope, scope, acquire.Config{
		LeaveUnblanked: *leaveUnblanked,
		Observer:       spinnerObserver{spin: spin, total: props.FrameCount()},
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	spin.Start()
	res, err := ctl.Run(ctx, props)
	if err != nil {
		spin.StopFail()
		if len(res.Frames) == 0 {
			log.Fatal(err)
		}
		log.Printf("writing %d frames captured before the error", len(res.Frames))
	} else {
		spin.Stop()
	}

	f, err := os.Create(*out)
	if err != nil {
		log.Fatal(err)
	}
	if err := acquire.WriteFITS(f, res); err != nil {
		f.Close()
		log.Fatal(err)
	}
	if err := f.Close(); err != nil {
		log.Fatal(err)
	}

	buf, err := res.MetadataYAML()
	if err != nil {
		log.Fatal(err)
	}
	sidecar := strings.TrimSuffix(*out, ".fits") + ".yaml"
	if err := os.WriteFile(sidecar, buf, 0666); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("wrote %s and %s\n", *out, sidecar)
}
