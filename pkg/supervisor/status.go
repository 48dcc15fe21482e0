package supervisor

import (
	"time"

	"github.com/rockit-astro/domed/pkg/heartbeat"
	"github.com/rockit-astro/domed/pkg/shutter"
)

// StatusSnapshot is the read-only view the status command returns (spec
// §4.10 / §3). Belt fields are nil when no belt sensor is configured for
// that side.
type StatusSnapshot struct {
	ShutterA      shutter.Status
	ShutterB      shutter.Status
	ShutterALabel string
	ShutterBLabel string
	ClosedBoth    bool
	StatusTime    time.Time

	Engineering bool

	Heartbeat          heartbeat.Kind
	HeartbeatRemaining float64
	HeartbeatTime      time.Time

	SirenEnabled bool

	BeltATensioned *bool
	BeltBTensioned *bool
}

// Status assembles a [StatusSnapshot] (spec §4.10). It queries the belt
// sensor client synchronously if one is configured for a side; a query
// failure is reported through err rather than silently omitted, so a
// caller can decide whether to surface a partial status or fail the
// request outright.
func (s *Supervisor) Status() (StatusSnapshot, error) {
	pair := s.shutterDecoder.Snapshot()
	hb := s.heartbeatStore.Get()

	s.statusMu.Lock()
	out := StatusSnapshot{
		ShutterA:           pair.A,
		ShutterB:           pair.B,
		ClosedBoth:         pair.ClosedBoth(),
		StatusTime:         s.statusTime,
		Engineering:        s.engineering,
		Heartbeat:          hb.Kind,
		HeartbeatRemaining: hb.Remaining,
		HeartbeatTime:      s.heartbeatTime,
		SirenEnabled:       s.sirenEnabled,
	}
	s.statusMu.Unlock()

	out.ShutterALabel = s.cfg.SideLabels["a"]
	out.ShutterBLabel = s.cfg.SideLabels["b"]

	if s.belt == nil {
		return out, nil
	}

	var firstErr error
	if _, ok := s.cfg.BeltSensorFor('a'); ok {
		tensioned, err := s.belt.Tensioned(shutter.SideA)
		if err != nil {
			firstErr = err
		} else {
			out.BeltATensioned = &tensioned
		}
	}
	if _, ok := s.cfg.BeltSensorFor('b'); ok {
		tensioned, err := s.belt.Tensioned(shutter.SideB)
		if err != nil && firstErr == nil {
			firstErr = err
		} else if err == nil {
			out.BeltBTensioned = &tensioned
		}
	}

	return out, firstErr
}
