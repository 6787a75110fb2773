// temsrv exposes microscope control and tilt series acquisition over HTTP.
package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	yml "gopkg.in/yaml.v2"

	"github.com/basf/gotem/acquire"
	"github.com/basf/gotem/generichttp"
	"github.com/basf/gotem/generichttp/microscope"
	"github.com/basf/gotem/imgrec"
	"github.com/basf/gotem/metrics"
	"github.com/basf/gotem/sim"
	"github.com/basf/gotem/util"
	"github.com/basf/gotem/vacuum"
)

var (
	// Version is the version number.  Typically injected via ldflags with git build
	Version = "1"

	// ConfigFileName is what it sounds like
	ConfigFileName = "temsrv.yml"
	k              = koanf.New(".")
)

type recorder struct {
	// Root is the root folder to write series to
	Root string `yaml:"Root"`

	// Prefix is the filename prefix to use
	Prefix string `yaml:"Prefix"`

	// Enabled turns on automatic writes of acquired series
	Enabled bool `yaml:"Enabled"`
}

type simulator struct {
	AlphaMin float64 `yaml:"AlphaMin"`
	AlphaMax float64 `yaml:"AlphaMax"`
	Width    int     `yaml:"Width"`
	Height   int     `yaml:"Height"`
}

type gauge struct {
	// Addr is the serial device of the vacuum gauge, e.g. /dev/ttyUSB0.
	// Empty disables the gauge routes.
	Addr string `yaml:"Addr"`
}

type config struct {
	Addr             string    `yaml:"Addr"`
	Root             string    `yaml:"Root"`
	Mock             bool      `yaml:"Mock"`
	SettleTimeoutSec float64   `yaml:"SettleTimeoutSec"`
	Recorder         recorder  `yaml:"Recorder"`
	Sim              simulator `yaml:"Sim"`
	Vacuum           gauge     `yaml:"Vacuum"`
}

func setupconfig() {
	k.Load(structs.Provider(config{
		Addr:             ":8001",
		Root:             "/",
		Mock:             true,
		SettleTimeoutSec: 30,
		Recorder:         recorder{Prefix: "series"},
		Sim: simulator{
			AlphaMin: -70,
			AlphaMax: 70,
			Width:    2048,
			Height:   2048}}, "koanf"), nil)
	if err := k.Load(file.Provider(ConfigFileName), yaml.Parser()); err != nil {
		errtxt := err.Error()
		if !strings.Contains(errtxt, "no such") { // file missing, who cares
			log.Fatalf("error loading config: %v", err)
		}
	}
}

func root() {
	str := `temsrv exposes control of a transmission electron microscope over HTTP.
This enables a server-client architecture,
and the clients can leverage the excellent HTTP
libraries for any programming language,
instead of custom socket logic.

Usage:
	temsrv <command>

Commands:
	run
	help
	mkconf
	conf
	version`
	fmt.Println(str)
}

func help() {
	str := `temsrv is amenable to configuration via its .yaml file.  For a primer on YAML, see
https://yaml.org/start.html

When no configuration is provided, the defaults are used.  Keys are not case-sensitive.
The command mkconf generates the configuration file with the default values.

Mock true runs against a simulated microscope; there is no vendor transport in
this build, so Mock false refuses to start.

Vacuum.Addr names the serial device of the column vacuum gauge; when set, its
readings are served under /vacuum.

Acquired series land under Recorder.Root in yyyy-mm-dd folders when
Recorder.Enabled is true.  Prometheus metrics are served at /metrics.`
	fmt.Println(str)
}

func mkconf() {
	c := config{}
	err := k.Unmarshal("", &c)
	if err != nil {
		log.Fatal(err)
	}
	f, err := os.Create(ConfigFileName)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	err = yml.NewEncoder(f).Encode(c)
	if err != nil {
		log.Fatal(err)
	}
}

func printconf() {
	c := config{}
	err := k.Unmarshal("", &c)
	if err != nil {
		log.Fatal(err)
	}
	err = yml.NewEncoder(os.Stdout).Encode(c)
	if err != nil {
		log.Fatal(err)
	}
}

func pversion() {
	fmt.Printf("temsrv version %v\n", Version)
}

func run() {
	cfg := config{}
	k.Unmarshal("", &cfg)
	if !cfg.Mock {
		log.Fatal("no vendor microscope transport in this build; set Mock: true to run against the simulator")
	}
	scope := sim.New(sim.Config{
		AlphaMin: cfg.Sim.AlphaMin,
		AlphaMax: cfg.Sim.AlphaMax,
		Width:    cfg.Sim.Width,
		Height:   cfg.Sim.Height,
	})

	reg := prometheus.NewRegistry()
	obs := metrics.NewAcquisition(reg)

	var rec *imgrec.Recorder
	if cfg.Recorder.Root != "" {
		rec = &imgrec.Recorder{
			Root:    cfg.Recorder.Root,
			Prefix:  cfg.Recorder.Prefix,
			Enabled: cfg.Recorder.Enabled,
		}
	}
	acfg := acquire.Config{
		SettleTimeout: util.SecsToDuration(cfg.SettleTimeoutSec),
		Observer:      obs,
	}
	w := microscope.NewHTTPWrapper(scope, scope, acfg, rec)

	hndlrS := generichttp.SubMuxSanitize(cfg.Root)
	root := chi.NewRouter()
	root.Use(middleware.Logger)
	mux := chi.NewRouter()
	root.Mount(hndlrS, mux)
	w.RT().Bind(mux)

	if cfg.Vacuum.Addr != "" {
		sens, err := vacuum.NewSensor(cfg.Vacuum.Addr)
		if err != nil {
			log.Fatalf("error opening vacuum gauge: %v", err)
		}
		vmux := chi.NewRouter()
		root.Mount("/vacuum", vmux)
		vacuum.NewHTTPWrapper(sens).RT().Bind(vmux)
	}

	root.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	addr := cfg.Addr + cfg.Root
	log.Println("now listening for requests at ", addr)
	log.Fatal(http.ListenAndServe(cfg.Addr, root))
}

func main() {
	var cmd string
	args := os.Args
	if len(args) == 1 {
		root()
		return
	}
	setupconfig()
	cmd = args[1]
	cmd = strings.ToLower(cmd)
	switch cmd {
	case "help":
		help()
		return
	case "mkconf":
		mkconf()
		return
	case "conf":
		printconf()
		return
	case "run":
		run()
		return
	case "version":
		pversion()
		return
	default:
		log.Fatal("unknown command")
	}
}
