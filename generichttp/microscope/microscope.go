// Package microscope exposes microscope control and tilt series acquisition
// over HTTP.
package microscope

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/basf/gotem/acquire"
	"github.com/basf/gotem/camera"
	"github.com/basf/gotem/generichttp"
	"github.com/basf/gotem/imgrec"
	"github.com/basf/gotem/tem"
	"github.com/basf/gotem/util"
)

// moveT is the payload of a stage move request.  Nil axes are held.
type moveT struct {
	X     *float64 `json:"x"`
	Y     *float64 `json:"y"`
	Z     *float64 `json:"z"`
	Alpha *float64 `json:"alpha"`
	Beta  *float64 `json:"beta"`
	Speed float64  `json:"speed"`
}

// limitsT is the payload of a stage limits response.
type limitsT struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// AcquireRequest describes a tilt series to run.
type AcquireRequest struct {
	Camera         string  `json:"camera"`
	Start          float64 `json:"start"`
	Stop           float64 `json:"stop"`
	Step           float64 `json:"step"`
	IntegrationSec float64 `json:"integrationSec"`
	Sampling       string  `json:"sampling"`
	LeaveUnblanked bool    `json:"leaveUnblanked"`
}

// AcquireResponse carries the series metadata back to the client, plus the
// on-disk location when a recorder is attached.
type AcquireResponse struct {
	File     string           `json:"file,omitempty"`
	Metadata acquire.Metadata `json:"metadata"`
}

// HTTPWrapper wraps a microscope and camera in an HTTP route table.
type HTTPWrapper struct {
	Scope tem.Controller
	Cam   camera.Camera

	// Cfg tunes acquisitions run through the wrapper; LeaveUnblanked is
	// overridden per request.
	Cfg acquire.Config

	// Rec, when non-nil and enabled, persists each series to disk.
	Rec *imgrec.Recorder

	RouteTable generichttp.RouteTable
}

// NewHTTPWrapper returns an HTTP wrapper around the microscope.
func NewHTTPWrapper(scope tem.Controller, cam camera.Camera, cfg acquire.Config, rec *imgrec.Recorder) *HTTPWrapper {
	w := &HTTPWrapper{Scope: scope, Cam: cam, Cfg: cfg, Rec: rec}
	rt := generichttp.RouteTable{
		generichttp.MethodPath{Method: http.MethodGet, Path: "/stage/pos"}:          w.getPos,
		generichttp.MethodPath{Method: http.MethodPost, Path: "/stage/pos"}:         w.move,
		generichttp.MethodPath{Method: http.MethodGet, Path: "/stage/in-position"}:  generichttp.GetBool(scope.StageInPosition),
		generichttp.MethodPath{Method: http.MethodGet, Path: "/stage/limits"}:       w.getLimits,
		generichttp.MethodPath{Method: http.MethodGet, Path: "/beam/blanked"}:       generichttp.GetBool(scope.GetBeamBlanked),
		generichttp.MethodPath{Method: http.MethodPost, Path: "/beam/blanked"}:      generichttp.SetBool(scope.SetBeamBlanked),
		generichttp.MethodPath{Method: http.MethodGet, Path: "/cameras"}:            generichttp.GetStrings(scope.GetSupportedCameras),
		generichttp.MethodPath{Method: http.MethodGet, Path: "/samplings/{camera}"}: w.getSamplings,
		generichttp.MethodPath{Method: http.MethodPost, Path: "/acquire"}:           w.acquire,
	}
	w.RouteTable = rt
	if rec != nil {
		imgrec.NewHTTPWrapper(rec).Inject(w)
	}
	return w
}

// RT satisfies generichttp.HTTPer
func (h *HTTPWrapper) RT() generichttp.RouteTable {
	return h.RouteTable
}

func (h *HTTPWrapper) getPos(w http.ResponseWriter, r *http.Request) {
	pos, err := h.Scope.GetStagePosition()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	generichttp.JSONEncode(w, pos)
}

func (h *HTTPWrapper) move(w http.ResponseWriter, r *http.Request) {
	var m moveT
	err := json.NewDecoder(r.Body).Decode(&m)
	defer r.Body.Close()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	target := tem.StageTarget{X: m.X, Y: m.Y, Z: m.Z, Alpha: m.Alpha, Beta: m.Beta}
	if err := h.Scope.MoveStage(target, m.Speed); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *HTTPWrapper) getLimits(w http.ResponseWriter, r *http.Request) {
	min, max, err := h.Scope.AlphaLimits()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	generichttp.JSONEncode(w, limitsT{Min: min, Max: max})
}

func (h *HTTPWrapper) getSamplings(w http.ResponseWriter, r *http.Request) {
	cam := chi.URLParam(r, "camera")
	samps, err := h.Cam.SupportedSamplings(cam)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	strs := make([]string, len(samps))
	for i, s := range samps {
		strs[i] = string(s)
	}
	generichttp.JSONEncode(w, strs)
}

func (h *HTTPWrapper) acquire(w http.ResponseWriter, r *http.Request) {
	var req AcquireRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	defer r.Body.Close()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sampling, err := camera.ParseSampling(req.Sampling)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	bounds, err := acquire.AlphaRange(req.Start, req.Stop, req.Step)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	props, err := acquire.NewProperties(req.Camera, bounds, util.SecsToDuration(req.IntegrationSec), sampling, "")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	cfg := h.Cfg
	cfg.LeaveUnblanked = req.LeaveUnblanked
	ctl := acquire.NewController(h.Scope, h.Cam, cfg)
	res, err := ctl.Run(r.Context(), props)
	if err != nil {
		var verr acquire.ValidationError
		var cerr acquire.ConfigurationError
		status := http.StatusInternalServerError
		if errors.As(err, &verr) || errors.As(err, &cerr) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	resp := AcquireResponse{Metadata: res.Metadata()}
	if h.Rec != nil && h.Rec.Enabled {
		h.Rec.Incr()
		if err := acquire.WriteFITS(h.Rec, res); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		buf, err := res.MetadataYAML()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if err := h.Rec.WriteSidecar(buf); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		resp.File = h.Rec.LastName()
	}
	generichttp.JSONEncode(w, resp)
}
