// Package config loads the daemon's JSON configuration document and
// exposes it to the core as an immutable [View]. The core never mutates
// configuration, and never reloads it mid-process — the controller and
// heartbeat hardware, not this document, are the source of truth for
// runtime state.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/go-multierror"
)

// SerialPort describes one of the two serial links.
type SerialPort struct {
	Path string `json:"path"`
	Baud int    `json:"baud"`
}

// BeltSensor binds a side to a named belt-tension sensor exposed by the
// belt-sensor service.
type BeltSensor struct {
	Side   string `json:"side"`
	Sensor string `json:"sensor"`
}

// document is the on-disk JSON shape (spec §6). Durations are expressed in
// seconds as the source protocol does.
type document struct {
	ShutterPort         SerialPort        `json:"shutter_port"`
	HeartbeatPort       SerialPort        `json:"heartbeat_port"`
	ReadTimeoutSeconds  float64           `json:"read_timeout"`
	CommandDelaySeconds float64           `json:"command_delay"`
	StepCommandDelay    float64           `json:"step_command_delay"`
	ShutterTimeout      float64           `json:"shutter_timeout"`
	HasLegacyController bool              `json:"has_legacy_controller"`
	HasBumperGuard      bool              `json:"has_bumper_guard"`
	SlowOpenSteps       int               `json:"slow_open_steps"`
	Sides               map[string]string `json:"sides"`
	SideLabels          map[string]string `json:"side_labels"`
	InvertOnClose       bool              `json:"invert_on_close"`
	BeltSensors         []BeltSensor      `json:"belt_sensors,omitempty"`
	DomeAlertHost       string            `json:"domealert_host,omitempty"`
	DomeAlertPort       int               `json:"domealert_port,omitempty"`
	ControlIPs          []string          `json:"control_ips"`
}

// View is the immutable, typed configuration the core reads. Construct one
// with [Load] or [Parse]; there is no public constructor that lets callers
// assemble partially-valid state.
type View struct {
	ShutterPort         SerialPort
	HeartbeatPort       SerialPort
	ReadTimeout         time.Duration
	CommandDelay        time.Duration
	StepCommandDelay    time.Duration
	ShutterTimeout      time.Duration
	HasLegacyController bool
	HasBumperGuard      bool
	SlowOpenSteps       int
	Sides               map[string]string
	SideLabels          map[string]string
	InvertOnClose       bool
	BeltSensors         map[string]string // side -> sensor name
	DomeAlertAddr       string            // empty if no belt sensor service configured
	ControlIPs          map[string]bool
}

const (
	defaultCommandDelay     = 500 * time.Millisecond
	defaultStepCommandDelay = 2 * time.Second
)

// Load reads and validates the JSON document at path.
func Load(path string) (*View, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse validates and converts a JSON document already in memory. Errors
// from every independently-checkable field are accumulated rather than
// returning on the first failure, so a misconfigured document reports all
// of its problems in one pass.
func Parse(raw []byte) (*View, error) {
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	var errs *multierror.Error

	if doc.ShutterPort.Path == "" {
		errs = multierror.Append(errs, fmt.Errorf("shutter_port.path is required"))
	}
	if doc.HeartbeatPort.Path == "" {
		errs = multierror.Append(errs, fmt.Errorf("heartbeat_port.path is required"))
	}
	if doc.ShutterPort.Baud <= 0 {
		doc.ShutterPort.Baud = 9600
	}
	if doc.HeartbeatPort.Baud <= 0 {
		doc.HeartbeatPort.Baud = 9600
	}
	if doc.ReadTimeoutSeconds <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("read_timeout must be > 0"))
	}
	if doc.ShutterTimeout <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("shutter_timeout must be > 0"))
	}
	if doc.SlowOpenSteps < 0 {
		errs = multierror.Append(errs, fmt.Errorf("slow_open_steps must be >= 0"))
	}
	if len(doc.Sides) == 0 {
		errs = multierror.Append(errs, fmt.Errorf("sides mapping must not be empty"))
	}
	for name, order := range doc.Sides {
		for _, r := range order {
			if r != 'a' && r != 'b' {
				errs = multierror.Append(errs, fmt.Errorf("sides[%s]: invalid side letter %q", name, r))
			}
		}
	}

	if errs.ErrorOrNil() != nil {
		return nil, errs
	}

	commandDelay := defaultCommandDelay
	if doc.CommandDelaySeconds > 0 {
		commandDelay = time.Duration(doc.CommandDelaySeconds * float64(time.Second))
	}
	stepCommandDelay := defaultStepCommandDelay
	if doc.StepCommandDelay > 0 {
		stepCommandDelay = time.Duration(doc.StepCommandDelay * float64(time.Second))
	}

	belts := make(map[string]string, len(doc.BeltSensors))
	for _, b := range doc.BeltSensors {
		belts[b.Side] = b.Sensor
	}

	domeAlertAddr := ""
	if doc.DomeAlertHost != "" {
		domeAlertAddr = fmt.Sprintf("%s:%d", doc.DomeAlertHost, doc.DomeAlertPort)
	}

	controlIPs := make(map[string]bool, len(doc.ControlIPs))
	for _, ip := range doc.ControlIPs {
		controlIPs[ip] = true
	}

	return &View{
		ShutterPort:         doc.ShutterPort,
		HeartbeatPort:       doc.HeartbeatPort,
		ReadTimeout:         time.Duration(doc.ReadTimeoutSeconds * float64(time.Second)),
		CommandDelay:        commandDelay,
		StepCommandDelay:    stepCommandDelay,
		ShutterTimeout:      time.Duration(doc.ShutterTimeout * float64(time.Second)),
		HasLegacyController: doc.HasLegacyController,
		HasBumperGuard:      doc.HasBumperGuard,
		SlowOpenSteps:       doc.SlowOpenSteps,
		Sides:               doc.Sides,
		SideLabels:          doc.SideLabels,
		InvertOnClose:       doc.InvertOnClose,
		BeltSensors:         belts,
		DomeAlertAddr:       domeAlertAddr,
		ControlIPs:          controlIPs,
	}, nil
}

// Authorized reports whether ip is in the control-IP allowlist. An empty
// allowlist authorizes everything, matching a single-operator deployment
// with no ACL configured.
func (v *View) Authorized(ip string) bool {
	if len(v.ControlIPs) == 0 {
		return true
	}
	return v.ControlIPs[ip]
}

// BeltSensorFor returns the sensor name bound to side, and whether one is
// configured.
func (v *View) BeltSensorFor(side byte) (string, bool) {
	name, ok := v.BeltSensors[string(side)]
	return name, ok
}
