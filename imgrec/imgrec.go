// Package imgrec contains a recorder that saves tilt series to disk with
// incrementing filenames in yyyy-mm-dd subfolders.
package imgrec

import (
	"fmt"
	"net/http"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/basf/gotem/generichttp"
)

// Recorder writes FITS streams and their metadata sidecars under dated
// subfolders of Root.  It is not thread safe.
type Recorder struct {
	// counter is the internally incrementing serial number
	counter int

	// Root is the root path
	Root string

	// Prefix is the prefix for the filenames
	Prefix string

	// dateFldr is the subfolder in yyyy-mm-dd format
	dateFldr string

	// Enabled lets consumers toggle recording without dropping the recorder
	Enabled bool
}

// updateFolder stamps the dated subfolder from the current day.
func (r *Recorder) updateFolder() {
	now := time.Now()
	r.dateFldr = fmt.Sprintf("%04d-%02d-%02d", now.Year(), now.Month(), now.Day())
}

// mkDir makes the dated folder and returns it.
func (r *Recorder) mkDir() (string, error) {
	fldr := path.Join(r.Root, r.dateFldr)
	err := os.MkdirAll(fldr, 0777)
	return fldr, err
}

// target returns the path of the current series file with the given extension.
func (r *Recorder) target(ext string) (string, error) {
	r.updateFolder()
	fldr, err := r.mkDir()
	if err != nil {
		return "", err
	}
	return path.Join(fldr, fmt.Sprintf("%s%06d%s", r.Prefix, r.counter, ext)), nil
}

// Write implements io.Writer, appending the contents of a FITS stream to the
// current series file.
func (r *Recorder) Write(p []byte) (int, error) {
	fn, err := r.target(".fits")
	if err != nil {
		return 0, err
	}
	fid, err := os.OpenFile(fn, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0666)
	if err != nil {
		return 0, err
	}
	defer fid.Close()
	return fid.Write(p)
}

// WriteSidecar writes the series metadata next to the FITS file, sharing its
// basename with a .yaml extension.
func (r *Recorder) WriteSidecar(p []byte) error {
	fn, err := r.target(".yaml")
	if err != nil {
		return err
	}
	return os.WriteFile(fn, p, 0666)
}

// LastName returns the path the current counter resolves to, for reporting to
// clients after a series lands.
func (r *Recorder) LastName() string {
	fn, err := r.target(".fits")
	if err != nil {
		return ""
	}
	return fn
}

// Incr advances the filename counter past the largest serial already present
// in today's folder.  On scan errors the counter is left alone.
func (r *Recorder) Incr() {
	r.updateFolder()
	dn, _ := r.mkDir()
	entries, err := os.ReadDir(dn)
	if err != nil {
		return
	}
	count := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fn := entry.Name()
		if !strings.HasSuffix(fn, ".fits") || !strings.HasPrefix(fn, r.Prefix) {
			continue
		}
		bit := strings.TrimSuffix(strings.TrimPrefix(fn, r.Prefix), ".fits")
		n, err := strconv.Atoi(bit)
		if err != nil {
			continue
		}
		if count < n {
			count = n
		}
	}
	r.counter = count + 1
}

// HTTPWrapper allows a recorder's folder, prefix and enablement to be changed
// on the fly.
//
// It does not implement generichttp.HTTPer; Inject places its routes onto
// another HTTPer's table.
type HTTPWrapper struct {
	*Recorder
}

// NewHTTPWrapper returns an HTTP wrapper around a recorder.
func NewHTTPWrapper(r *Recorder) HTTPWrapper {
	return HTTPWrapper{r}
}

func (h HTTPWrapper) setRoot(s string) error {
	h.Recorder.Root = s
	h.Recorder.updateFolder()
	_, err := h.Recorder.mkDir()
	return err
}

func (h HTTPWrapper) setPrefix(s string) error {
	h.Recorder.Prefix = s
	h.Recorder.counter = 0
	return nil
}

func (h HTTPWrapper) setEnabled(b bool) error {
	h.Recorder.Enabled = b
	return nil
}

// Inject adds /autowrite routes manipulating the recorder to the HTTPer.
func (h HTTPWrapper) Inject(other generichttp.HTTPer) {
	rt := other.RT()
	rt[generichttp.MethodPath{Method: http.MethodPost, Path: "/autowrite/root"}] = generichttp.SetString(h.setRoot)
	rt[generichttp.MethodPath{Method: http.MethodGet, Path: "/autowrite/root"}] = generichttp.GetString(func() (string, error) { return h.Recorder.Root, nil })
	rt[generichttp.MethodPath{Method: http.MethodPost, Path: "/autowrite/prefix"}] = generichttp.SetString(h.setPrefix)
	rt[generichttp.MethodPath{Method: http.MethodGet, Path: "/autowrite/prefix"}] = generichttp.GetString(func() (string, error) { return h.Recorder.Prefix, nil })
	rt[generichttp.MethodPath{Method: http.MethodPost, Path: "/autowrite/enabled"}] = generichttp.SetBool(h.setEnabled)
	rt[generichttp.MethodPath{Method: http.MethodGet, Path: "/autowrite/enabled"}] = generichttp.GetBool(func() (bool, error) { return h.Recorder.Enabled, nil })
}
