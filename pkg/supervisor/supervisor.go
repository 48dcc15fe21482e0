// Package supervisor owns the dome's mutable state for the life of the
// process (spec §3 "Ownership and lifecycle") and implements the command
// surface described in spec §4.5–§4.10. It is constructed once by main,
// never as a package-level singleton (spec §9: "model as a constructed
// value owned by main and passed by reference").
package supervisor

import (
	"sync"
	"time"

	"github.com/rockit-astro/domed/internal/config"
	"github.com/rockit-astro/domed/pkg/beltsensor"
	"github.com/rockit-astro/domed/pkg/domelog"
	"github.com/rockit-astro/domed/pkg/heartbeat"
	"github.com/rockit-astro/domed/pkg/serial"
	"github.com/rockit-astro/domed/pkg/shutter"
)

// Supervisor is the dome's single owner of mutable state. The zero value is
// not usable; construct with [New].
type Supervisor struct {
	cfg    *config.View
	logger domelog.Logger
	belt   beltsensor.Client

	shutterLink    *serial.Reconnecting
	heartbeatLink  *serial.Reconnecting
	shutterDecoder *shutter.Decoder
	heartbeatStore *heartbeat.Store

	// statusMu guards the fields below, matching spec §5's status_mutex:
	// held briefly by writers, held for the duration of status assembly by
	// readers.
	statusMu      sync.Mutex
	statusTime    time.Time
	heartbeatTime time.Time
	engineering   bool
	sirenEnabled  bool
	forceStopped  bool

	// commandMu is spec §5's command_mutex: the right to issue movement or
	// toggle engineering mode. Always tried non-blockingly by commands;
	// Stop acquires it blockingly, after setting forceStopped, to drain any
	// in-flight mover.
	commandMu sync.Mutex

	closeOnce sync.Once
	stopCh    chan struct{}
}

// Deps bundles the supervisor's external collaborators — everything spec §1
// scopes out of the core (serial transports aside, which the core does own
// the lifecycle of, per spec §2's component table).
type Deps struct {
	Config        *config.View
	Logger        domelog.Logger
	ShutterOpen   serial.Opener
	HeartbeatOpen serial.Opener
	BeltSensor    beltsensor.Client // nil if none configured
}

// New constructs a Supervisor. It does not start the monitor loops or open
// any link; call [Supervisor.Start].
func New(deps Deps) *Supervisor {
	logger := deps.Logger
	if logger == nil {
		logger = domelog.Discard
	}
	return &Supervisor{
		cfg:            deps.Config,
		logger:         logger,
		belt:           deps.BeltSensor,
		shutterLink:    serial.NewReconnecting("[SHUTTER]", deps.ShutterOpen, logger),
		heartbeatLink:  serial.NewReconnecting("[HEARTBEAT]", deps.HeartbeatOpen, logger),
		shutterDecoder: shutter.NewDecoder(deps.Config.HasLegacyController),
		heartbeatStore: heartbeat.NewStore(),
		stopCh:         make(chan struct{}),
	}
}

// Start spawns the two monitor loops (spec §2: "the supervisor starts the
// two monitor loops at boot"). It returns immediately; the loops run until
// [Supervisor.Close].
func (s *Supervisor) Start() {
	go s.runShutterMonitor()
	go s.runHeartbeatMonitor()
}

// Close stops the monitor loops and releases both serial links.
func (s *Supervisor) Close() {
	s.closeOnce.Do(func() {
		close(s.stopCh)
		s.shutterLink.Close()
		s.heartbeatLink.Close()
	})
}

func (s *Supervisor) stamp() time.Time {
	return time.Now()
}
