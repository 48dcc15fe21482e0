package supervisor

import (
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rockit-astro/domed/pkg/heartbeat"
	"github.com/rockit-astro/domed/pkg/mover"
	"github.com/rockit-astro/domed/pkg/outcome"
	"github.com/rockit-astro/domed/pkg/shutter"
)

// preconditionCheck mirrors spec §4.5's ordered precondition list. Open and
// close share it unchanged, the heartbeat-idle check included (spec §4.6's
// "same preconditions").
func (s *Supervisor) preconditionCheck(authorized bool) outcome.Outcome {
	if !authorized {
		return outcome.InvalidControlIP
	}
	s.statusMu.Lock()
	engineering := s.engineering
	s.statusMu.Unlock()
	if engineering {
		return outcome.EngineeringModeActive
	}
	hb := s.heartbeatStore.Get()
	if hb.Kind == heartbeat.TrippedClosing {
		return outcome.HeartbeatCloseInProgress
	}
	if hb.Kind == heartbeat.TrippedIdle {
		return outcome.HeartbeatTimedOut
	}
	return outcome.Succeeded
}

// Open implements open_shutters (spec §4.5). sides is an ordered string
// over {a,b}.
func (s *Supervisor) Open(authorized bool, sides string, steps int) outcome.Outcome {
	if oc := s.preconditionCheck(authorized); oc != outcome.Succeeded {
		return oc
	}
	if !s.commandMu.TryLock() {
		return outcome.Blocked
	}
	defer s.commandMu.Unlock()

	s.logStart("open", sides)

	var errs *multierror.Error
	for _, r := range sides {
		side := shutter.Side(r)
		if s.shutterDecoder.Snapshot().Get(side) == shutter.Open {
			continue
		}
		if err := s.openSide(side, steps); err != nil {
			errs = multierror.Append(errs, err)
		}
	}

	if errs.ErrorOrNil() != nil {
		s.logger.Error("[SUPERVISOR]", "Failed to open dome", "err", errs)
		return outcome.Failed
	}
	s.logger.Info("[SUPERVISOR]", "Open complete")
	return outcome.Succeeded
}

func (s *Supervisor) openSide(side shutter.Side, steps int) error {
	cmdByte := byte(side) // 'a' or 'b' opens
	heartbeatLink := s.heartbeatLink.Ensure()
	shutterLink := s.shutterLink.Ensure()
	if shutterLink == nil {
		return fmt.Errorf("side %c: shutter link unavailable", side)
	}

	failed := false

	statusOf := func(sd shutter.Side) shutter.Status { return s.shutterDecoder.Snapshot().Get(sd) }
	belt := func() mover.Predicate {
		if _, ok := s.cfg.BeltSensorFor(byte(side)); !ok || s.belt == nil {
			return nil
		}
		return &mover.BeltSlackPredicate{
			Side:      side,
			Tensioned: s.belt.Tensioned,
			Failed:    &failed,
			Logger:    s.logger,
			Tag:       "[MOVER]",
		}
	}
	withBelt := func(preds ...mover.Predicate) mover.Any {
		if b := belt(); b != nil {
			preds = append(preds, b)
		}
		return mover.Any(preds)
	}

	if steps > 0 {
		pred := withBelt(
			&mover.LimitPredicate{Side: side, Target: shutter.Open, Status: statusOf},
			&mover.StepCountPredicate{Max: steps},
		)
		ok := mover.Move(mover.Options{
			Tag:           "[MOVER]",
			ShutterLink:   shutterLink,
			HeartbeatLink: heartbeatLink,
			CmdByte:       cmdByte,
			Predicate:     pred,
			StepDelay:     s.cfg.StepCommandDelay,
			BumperGuard:   s.cfg.HasBumperGuard,
			ForceStopped:  s.isForceStopped,
			Heartbeat:     s.heartbeatStore.Get,
			Logger:        s.logger,
		})
		if failed {
			return fmt.Errorf("side %c: belt slack during stepped open", side)
		}
		if !ok {
			return fmt.Errorf("side %c: stepped open interrupted before target reached", side)
		}
		return nil
	}

	sirenEnabled := s.sirenEnabledSnapshot()
	playSiren := true
	if s.cfg.SlowOpenSteps > 0 {
		rampPred := withBelt(
			&mover.LimitPredicate{Side: side, Target: shutter.Open, Status: statusOf},
			&mover.StepCountPredicate{Max: s.cfg.SlowOpenSteps},
		)
		ok := mover.Move(mover.Options{
			Tag:           "[MOVER]",
			ShutterLink:   shutterLink,
			HeartbeatLink: heartbeatLink,
			CmdByte:       cmdByte,
			Predicate:     rampPred,
			StepDelay:     s.cfg.StepCommandDelay,
			BumperGuard:   s.cfg.HasBumperGuard,
			Siren:         playSiren,
			SirenEnabled:  sirenEnabled,
			ForceStopped:  s.isForceStopped,
			Heartbeat:     s.heartbeatStore.Get,
			Logger:        s.logger,
		})
		if failed {
			return fmt.Errorf("side %c: belt slack during slow-open ramp", side)
		}
		if !ok {
			return fmt.Errorf("side %c: slow-open ramp interrupted before target reached", side)
		}
		playSiren = false // already played during the ramp phase
	}

	fullPred := withBelt(&mover.LimitPredicate{Side: side, Target: shutter.Open, Status: statusOf})
	ok := mover.Move(mover.Options{
		Tag:           "[MOVER]",
		ShutterLink:   shutterLink,
		HeartbeatLink: heartbeatLink,
		CmdByte:       cmdByte,
		Predicate:     fullPred,
		StepDelay:     s.cfg.CommandDelay,
		Timeout:       s.cfg.ShutterTimeout,
		BumperGuard:   s.cfg.HasBumperGuard,
		Siren:         playSiren,
		SirenEnabled:  sirenEnabled,
		ForceStopped:  s.isForceStopped,
		Heartbeat:     s.heartbeatStore.Get,
		Logger:        s.logger,
	})
	if failed {
		return fmt.Errorf("side %c: belt slack during full open", side)
	}
	if !ok {
		return fmt.Errorf("side %c: open interrupted before target reached", side)
	}
	return nil
}

// Close implements close_shutters (spec §4.6). sides is an ordered string
// over {a,b} in either case; each side is moved toward Closed with its
// upper-case command byte ('A'/'B').
func (s *Supervisor) Close(authorized bool, sides string, steps int) outcome.Outcome {
	if oc := s.preconditionCheck(authorized); oc != outcome.Succeeded {
		return oc
	}
	if !s.commandMu.TryLock() {
		return outcome.Blocked
	}
	defer s.commandMu.Unlock()

	s.logStart("close", sides)

	var errs *multierror.Error
	for _, r := range sides {
		side := shutter.Side(r | 0x20) // normalize to lowercase for status lookups
		if s.shutterDecoder.Snapshot().Get(side) == shutter.Closed {
			continue
		}
		if err := s.closeSide(side, steps); err != nil {
			errs = multierror.Append(errs, err)
		}
	}

	if errs.ErrorOrNil() != nil {
		s.logger.Error("[SUPERVISOR]", "Failed to close dome", "err", errs)
		return outcome.Failed
	}
	s.logger.Info("[SUPERVISOR]", "Close complete")
	return outcome.Succeeded
}

func (s *Supervisor) closeSide(side shutter.Side, steps int) error {
	cmdByte := byte(side) - 0x20 // uppercase closes
	heartbeatLink := s.heartbeatLink.Ensure()
	shutterLink := s.shutterLink.Ensure()
	if shutterLink == nil {
		return fmt.Errorf("side %c: shutter link unavailable", side)
	}

	statusOf := func(sd shutter.Side) shutter.Status { return s.shutterDecoder.Snapshot().Get(sd) }

	var stepDelay, timeout time.Duration
	var pred mover.Any
	if steps > 0 {
		stepDelay = s.cfg.StepCommandDelay
		pred = mover.Any{
			&mover.LimitPredicate{Side: side, Target: shutter.Closed, Status: statusOf},
			&mover.StepCountPredicate{Max: steps},
		}
	} else {
		stepDelay = s.cfg.CommandDelay
		timeout = s.cfg.ShutterTimeout
		pred = mover.Any{
			&mover.LimitPredicate{Side: side, Target: shutter.Closed, Status: statusOf},
		}
	}

	ok := mover.Move(mover.Options{
		Tag:           "[MOVER]",
		ShutterLink:   shutterLink,
		HeartbeatLink: heartbeatLink,
		CmdByte:       cmdByte,
		Predicate:     pred,
		StepDelay:     stepDelay,
		Timeout:       timeout,
		BumperGuard:   s.cfg.HasBumperGuard,
		ForceStopped:  s.isForceStopped,
		Heartbeat:     s.heartbeatStore.Get,
		Logger:        s.logger,
	})
	if !ok {
		return fmt.Errorf("side %c: close interrupted before target reached", side)
	}
	return nil
}

func (s *Supervisor) logStart(verb, sides string) {
	lower := strings.ToLower(sides)
	if lower == "ab" || lower == "ba" {
		s.logger.Info("[SUPERVISOR]", fmt.Sprintf("%sing both shutters", verb))
		return
	}
	label := lower
	if l, ok := s.cfg.SideLabels[lower]; ok {
		label = l
	}
	s.logger.Info("[SUPERVISOR]", fmt.Sprintf("%sing %s shutter", verb, label))
}

func (s *Supervisor) isForceStopped() bool {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	return s.forceStopped
}

func (s *Supervisor) sirenEnabledSnapshot() bool {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	return s.sirenEnabled
}

// Stop implements stop (spec §4.7).
func (s *Supervisor) Stop(authorized bool) outcome.Outcome {
	if !authorized {
		return outcome.InvalidControlIP
	}
	if s.heartbeatStore.Get().Kind == heartbeat.TrippedClosing {
		return outcome.HeartbeatCloseInProgress
	}

	s.statusMu.Lock()
	s.forceStopped = true
	s.statusMu.Unlock()

	// Acquire and release the command mutex blockingly: by the time we
	// reclaim it, any in-flight movement has observed the flag and
	// returned (spec §4.7 / §5's ordering guarantee).
	s.commandMu.Lock()
	s.commandMu.Unlock()

	s.statusMu.Lock()
	s.forceStopped = false
	s.statusMu.Unlock()

	return outcome.Succeeded
}

// SetEngineeringMode implements set_engineering_mode (spec §4.8).
func (s *Supervisor) SetEngineeringMode(authorized bool, enabled bool) outcome.Outcome {
	if !authorized {
		return outcome.InvalidControlIP
	}
	if !s.commandMu.TryLock() {
		return outcome.Blocked
	}
	defer s.commandMu.Unlock()

	hb := s.heartbeatStore.Get()
	if hb.Kind == heartbeat.TrippedClosing {
		return outcome.HeartbeatCloseInProgress
	}
	if enabled && hb.Kind == heartbeat.Active {
		return outcome.EngineeringModeRequiresHeartbeatDisabled
	}

	s.statusMu.Lock()
	s.engineering = enabled
	s.statusMu.Unlock()
	s.logger.Info("[SUPERVISOR]", "engineering mode changed", "enabled", enabled)
	return outcome.Succeeded
}

// SetHeartbeatTimer implements set_heartbeat_timer (spec §4.9).
func (s *Supervisor) SetHeartbeatTimer(authorized bool, timeoutSeconds int) outcome.Outcome {
	if !authorized {
		return outcome.InvalidControlIP
	}
	if !heartbeat.ValidTimeout(timeoutSeconds) {
		return outcome.HeartbeatInvalidTimeout
	}
	s.statusMu.Lock()
	engineering := s.engineering
	s.statusMu.Unlock()
	if engineering {
		return outcome.EngineeringModeActive
	}

	hb := s.heartbeatStore.Get()
	if hb.Kind == heartbeat.Unavailable {
		return outcome.HeartbeatUnavailable
	}
	if hb.Kind == heartbeat.TrippedClosing {
		return outcome.HeartbeatCloseInProgress
	}
	// A zero timeout bypasses the TrippedIdle check — this lets an
	// operator disarm from the tripped state (spec §9: "preserve").
	if hb.Kind == heartbeat.TrippedIdle && timeoutSeconds != 0 {
		return outcome.HeartbeatTimedOut
	}

	link := s.heartbeatLink.Ensure()
	if link == nil {
		return outcome.Failed
	}
	if err := link.WriteByte(heartbeat.ArmByte(timeoutSeconds)); err != nil {
		s.logger.Error("[SUPERVISOR]", "heartbeat arm write failed", "err", err)
		return outcome.Failed
	}
	return outcome.Succeeded
}

// SetHeartbeatSiren implements set_heartbeat_siren (spec §4.9). This only
// toggles the pre-movement siren; the hardware emergency-close siren is
// unaffected.
func (s *Supervisor) SetHeartbeatSiren(authorized bool, enabled bool) outcome.Outcome {
	if !authorized {
		return outcome.InvalidControlIP
	}
	s.statusMu.Lock()
	s.sirenEnabled = enabled
	s.statusMu.Unlock()
	return outcome.Succeeded
}
