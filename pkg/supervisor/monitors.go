package supervisor

import (
	"time"

	"github.com/rockit-astro/domed/pkg/heartbeat"
	"github.com/rockit-astro/domed/pkg/serial"
	"github.com/rockit-astro/domed/pkg/shutter"
)

// runShutterMonitor is the sole reader of the shutter link (spec §4.2 /
// §5). It owns the reconnect loop and feeds every byte to the decoder.
func (s *Supervisor) runShutterMonitor() {
	for {
		select {
		case <-s.stopCh:
			return
		default:
		}

		link := s.shutterLink.Ensure()
		if link == nil {
			return // Close() was called
		}

		b, err := link.ReadByte()
		if err != nil {
			if err == serial.ErrReadTimeout && s.cfg.HasLegacyController {
				// Normal idle for a legacy controller (spec §4.1).
				continue
			}
			s.shutterLink.Invalidate(err)
			continue
		}

		s.shutterDecoder.Consume(b,
			func(unknown byte) {
				s.logger.Warn("[SHUTTER]", "unknown status code", "byte", unknown)
			},
			func() {
				s.logger.Info("[SHUTTER]", "Bumper guard relay reset")
			},
		)
		s.statusMu.Lock()
		s.statusTime = s.stamp()
		s.statusMu.Unlock()
	}
}

// runHeartbeatMonitor is the sole reader of the heartbeat link (spec §4.3 /
// §5). On a trip it forces both shutter states and, on recovery under a
// legacy controller, provokes a fresh status byte.
func (s *Supervisor) runHeartbeatMonitor() {
	for {
		select {
		case <-s.stopCh:
			return
		default:
		}

		link := s.heartbeatLink.Ensure()
		if link == nil {
			return
		}

		b, err := link.ReadByte()
		if err != nil {
			s.heartbeatLink.Invalidate(err)
			s.heartbeatStore.Set(heartbeat.State{Kind: heartbeat.Unavailable})
			continue
		}

		next := heartbeat.DecodeSample(b)
		prev, changed := s.heartbeatStore.Set(next)
		s.statusMu.Lock()
		s.heartbeatTime = s.stamp()
		s.statusMu.Unlock()

		if !changed {
			continue
		}

		switch next.Kind {
		case heartbeat.TrippedClosing:
			s.shutterDecoder.Set(shutter.HeartbeatMonitorForceClosing, shutter.HeartbeatMonitorForceClosing)
			s.statusMu.Lock()
			s.statusTime = s.stamp()
			s.statusMu.Unlock()
			s.logger.Info("[HEARTBEAT]", "closing dome")

		case heartbeat.TrippedIdle:
			s.logger.Info("[HEARTBEAT]", "finished closing dome")
			if s.cfg.HasLegacyController {
				s.provokeStatusByte()
			}

		case heartbeat.Disabled:
			s.logger.Info("[HEARTBEAT]", "disabled")

		case heartbeat.Active:
			s.logger.Info("[HEARTBEAT]", "armed", "remaining", next.Remaining, "prev", prev.Kind.String())
		}
	}
}

// provokeStatusByte issues one 'A' and one 'B' step to the shutter link,
// each a single write followed by command_delay, to provoke a fresh status
// byte from a legacy controller that the heartbeat monitor may have
// interrupted (spec §4.3). Per spec §9 this is preserved verbatim even
// though it always issues close-direction bytes regardless of the
// shutter's intended state prior to the trip.
func (s *Supervisor) provokeStatusByte() {
	link := s.shutterLink.Ensure()
	if link == nil {
		return
	}
	for _, b := range heartbeat.LegacyRecoverySteps() {
		if err := link.WriteByte(b); err != nil {
			s.logger.Warn("[HEARTBEAT]", "recovery step write failed", "byte", b, "err", err)
		}
		time.Sleep(s.cfg.CommandDelay)
	}
}
