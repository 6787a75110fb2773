package acquire

import yaml "gopkg.in/yaml.v2"

// Metadata echoes the acquisition parameters and per-frame stage poses in a
// serialization-friendly form.  The field set round-trips losslessly through
// YAML or JSON for downstream tooling.
type Metadata struct {
	Camera          string      `yaml:"Camera" json:"camera"`
	AlphaBounds     []float64   `yaml:"AlphaBounds" json:"alphaBounds"`
	AlphaStep       float64     `yaml:"AlphaStep" json:"alphaStep"`
	IntegrationSec  float64     `yaml:"IntegrationSec" json:"integrationSec"`
	Sampling        string      `yaml:"Sampling" json:"sampling"`
	TiltSpeed       float64     `yaml:"TiltSpeed" json:"tiltSpeed"`
	OutFile         string      `yaml:"OutFile,omitempty" json:"outFile,omitempty"`
	Frames          []FrameMeta `yaml:"Frames" json:"frames"`
}

// FrameMeta is the per-frame slice of Metadata: the nominal angle, the stage
// pose at capture time, and an integrity reference to the image payload.
type FrameMeta struct {
	Alpha    float64 `yaml:"Alpha" json:"alpha"`
	X        float64 `yaml:"X" json:"x"`
	Y        float64 `yaml:"Y" json:"y"`
	Z        float64 `yaml:"Z" json:"z"`
	Beta     float64 `yaml:"Beta" json:"beta"`
	Checksum uint16  `yaml:"Checksum" json:"checksum"`
}

// Metadata flattens the result for serialization.
func (r *Result) Metadata() Metadata {
	p := r.Props
	md := Metadata{
		Camera:         p.CameraName(),
		AlphaBounds:    p.AlphaBounds(),
		AlphaStep:      p.AlphaStep(),
		IntegrationSec: p.IntegrationTime().Seconds(),
		Sampling:       string(p.Sampling()),
		TiltSpeed:      p.TiltSpeed(),
		OutFile:        p.OutFile(),
		Frames:         make([]FrameMeta, len(r.Frames)),
	}
	for i, f := range r.Frames {
		md.Frames[i] = FrameMeta{
			Alpha:    f.CenterAlpha,
			X:        f.Position.X,
			Y:        f.Position.Y,
			Z:        f.Position.Z,
			Beta:     f.Position.Beta,
			Checksum: f.Image.Checksum(),
		}
	}
	return md
}

// MetadataYAML renders the flattened result as a YAML sidecar document.
func (r *Result) MetadataYAML() ([]byte, error) {
	return yaml.Marshal(r.Metadata())
}
