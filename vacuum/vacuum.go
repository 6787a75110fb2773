// Package vacuum talks to the column vacuum gauge over its serial ASCII
// protocol and exposes readings in both pascal and the instrument's
// logarithmic display units.
package vacuum

import (
	"bufio"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tarm/serial"

	"github.com/basf/gotem/generichttp"
	"github.com/basf/gotem/units"
)

var terminators = []byte("\r")

func makeSerConf(addr string) *serial.Config {
	return &serial.Config{
		Name:        addr,
		Baud:        19200,
		Size:        8,
		Parity:      serial.ParityOdd,
		StopBits:    serial.Stop1,
		ReadTimeout: 1 * time.Second}
}

// Sensor has a serial connection to a vacuum gauge and can make commands
type Sensor struct {
	conn *serial.Port
}

// NewSensor opens the serial link to a gauge at addr
func NewSensor(addr string) (*Sensor, error) {
	cfg := makeSerConf(addr)
	conn, err := serial.OpenPort(cfg)
	if err != nil {
		return nil, err
	}
	return &Sensor{conn: conn}, nil
}

// MkMsg generates a message that conforms to the gauge's framing
func (s *Sensor) MkMsg(cmd string) []byte {
	return append([]byte("#01"+cmd), terminators...)
}

// Send sends a command to the gauge.
// If not terminated by terminators, behavior is undefined
func (s *Sensor) Send(cmd []byte) error {
	_, err := s.conn.Write(cmd)
	return err
}

// Recv reads a reply from the gauge, stripping the leading *
func (s *Sensor) Recv() (string, error) {
	reader := bufio.NewReader(s.conn)
	bytes, err := reader.ReadBytes('\r')
	return strings.TrimLeft(string(bytes), "*"), err
}

// SWVersion returns the gauge firmware identification
func (s *Sensor) SWVersion() (string, error) {
	err := s.Send(s.MkMsg("VER"))
	if err != nil {
		return "", err
	}
	return s.Recv()
}

// Read returns the pressure in pascal
func (s *Sensor) Read() (float64, error) {
	err := s.Send(s.MkMsg("RD"))
	if err != nil {
		return 0, err
	}
	resp, err := s.Recv()
	if err != nil {
		return 0, err
	}
	strs := strings.Split(resp, "_")
	if len(strs) < 2 {
		return 0, fmt.Errorf("malformed gauge reply %q", resp)
	}
	return strconv.ParseFloat(strs[1], 64)
}

// ReadLog returns the pressure in the instrument's logarithmic display units
func (s *Sensor) ReadLog() (float64, error) {
	pa, err := s.Read()
	if err != nil {
		return 0, err
	}
	return units.PressureToLog(pa)
}

// HTTPWrapper wraps a Sensor in an HTTP route table
type HTTPWrapper struct {
	Sensor *Sensor

	RouteTable generichttp.RouteTable
}

// NewHTTPWrapper returns a route table over an existing sensor
func NewHTTPWrapper(s *Sensor) HTTPWrapper {
	w := HTTPWrapper{Sensor: s}
	w.RouteTable = generichttp.RouteTable{
		generichttp.MethodPath{Method: http.MethodGet, Path: "/pressure"}:     generichttp.GetFloat(s.Read),
		generichttp.MethodPath{Method: http.MethodGet, Path: "/pressure-log"}: generichttp.GetFloat(s.ReadLog),
		generichttp.MethodPath{Method: http.MethodGet, Path: "/version"}:      generichttp.GetString(s.SWVersion),
	}
	return w
}

// RT satisfies generichttp.HTTPer
func (w HTTPWrapper) RT() generichttp.RouteTable {
	return w.RouteTable
}
