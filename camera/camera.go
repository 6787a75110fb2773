/*Package camera describes the camera-control capability used during a tilt
series and the image payloads it returns.

Sampling is the enumerated resolution class exposed to users; it maps onto a
symmetric pixel Binning on the detector.
*/
package camera

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/snksoft/crc"
)

// Binning encapsulates information about pixel addition on camera
type Binning struct {
	// H is the horizontal binning factor
	H int `json:"h"`

	// V is the vertical binning factor
	V int `json:"v"`
}

// Sampling is an enumerated resolution class trading resolution for exposure
// efficiency.
type Sampling string

// The supported resolution classes.
const (
	Full    Sampling = "full"
	Half    Sampling = "half"
	Quarter Sampling = "quarter"
	Eighth  Sampling = "eighth"
)

// Valid reports whether s is one of the enumerated classes.
func (s Sampling) Valid() bool {
	switch s {
	case Full, Half, Quarter, Eighth:
		return true
	}
	return false
}

// Binning returns the symmetric binning factor for the class.
func (s Sampling) Binning() Binning {
	switch s {
	case Half:
		return Binning{H: 2, V: 2}
	case Quarter:
		return Binning{H: 4, V: 4}
	case Eighth:
		return Binning{H: 8, V: 8}
	default:
		return Binning{H: 1, V: 1}
	}
}

// ParseSampling converts a string to a Sampling, erroring on unknown input.
func ParseSampling(s string) (Sampling, error) {
	smp := Sampling(s)
	if !smp.Valid() {
		return "", fmt.Errorf("camera: unknown sampling %q", s)
	}
	return smp, nil
}

var crcTable = crc.NewTable(crc.XMODEM)

// Image is a single strided 16-bit frame.  The data is a 1D slice strided by
// the frame width.
type Image struct {
	Data   []uint16 `json:"-"`
	Width  int      `json:"width"`
	Height int      `json:"height"`
}

// Checksum returns the XMODEM CRC16 of the frame payload, little endian.
// Downstream tooling uses it to verify frame integrity across serialization.
func (im Image) Checksum() uint16 {
	buf := make([]byte, 2*len(im.Data))
	for i, v := range im.Data {
		binary.LittleEndian.PutUint16(buf[2*i:], v)
	}
	c := crcTable.InitCrc()
	c = crcTable.UpdateCrc(c, buf)
	return crcTable.CRC16(c)
}

// Camera is the camera-control capability consumed by the acquisition
// controller.
type Camera interface {
	// Acquire exposes a single frame on the named camera.  It blocks for
	// the duration of the exposure and errors if the camera is busy or the
	// command fails.
	Acquire(camera string, s Sampling, exposure time.Duration) (Image, error)

	// SupportedSamplings lists the sampling classes the named camera
	// supports.
	SupportedSamplings(camera string) ([]Sampling, error)
}
