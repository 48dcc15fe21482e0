// Package mover implements the movement driver described in spec §4.4: it
// paces single-byte shutter commands and supervises them against stop,
// heartbeat trip, a caller-supplied termination predicate, and an optional
// overall timeout.
package mover

import (
	"time"

	"github.com/rockit-astro/domed/pkg/domelog"
	"github.com/rockit-astro/domed/pkg/heartbeat"
)

// ByteWriter is satisfied by [*serial.Link] (and by the reconnect wrapper's
// ByteLink). Kept minimal so tests can substitute an in-memory double.
type ByteWriter interface {
	WriteByte(b byte) error
}

// Options parameterizes one call to [Move]. Every field is required unless
// noted.
type Options struct {
	Tag string // log component tag, e.g. "[MOVER]"

	ShutterLink ByteWriter
	CmdByte     byte // 'a'/'A'/'b'/'B' (spec §4.4's case convention)

	Predicate Predicate
	StepDelay time.Duration
	Timeout   time.Duration // 0 disables the timeout termination condition

	// Bumper guard reset, optional (config has_bumper_guard).
	BumperGuard bool

	// Siren, optional: written to the heartbeat link before movement
	// starts, if Siren && SirenEnabled.
	Siren         bool
	SirenEnabled  bool
	HeartbeatLink ByteWriter // only required if Siren && SirenEnabled

	// Cooperative cancellation, read once per loop iteration (spec §5:
	// "within at most step_delay seconds").
	ForceStopped func() bool
	Heartbeat    func() heartbeat.State

	Logger domelog.Logger

	// Sleep defaults to time.Sleep; tests override it to run instantly.
	Sleep func(time.Duration)
}

func (o *Options) sleep(d time.Duration) {
	if o.Sleep != nil {
		o.Sleep(d)
		return
	}
	time.Sleep(d)
}

func (o *Options) logger() domelog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return domelog.Discard
}

const sirenDelay = 5 * time.Second

// Move executes one side's movement per spec §4.4 and returns true iff the
// loop terminated solely because the predicate returned true — never on
// stop, heartbeat trip, or timeout.
func Move(opts Options) bool {
	logger := opts.logger()

	if opts.BumperGuard {
		if err := opts.ShutterLink.WriteByte('R'); err != nil {
			logger.Warn(opts.Tag, "bumper guard reset write failed", "err", err)
		}
		opts.sleep(opts.StepDelay)
	}

	if opts.Siren && opts.SirenEnabled {
		if opts.HeartbeatLink != nil {
			if err := opts.HeartbeatLink.WriteByte(heartbeat.SirenByte()); err != nil {
				logger.Warn(opts.Tag, "siren write failed", "err", err)
			}
		}
		opts.sleep(sirenDelay)
	}

	stepCount := 0
	start := time.Now()

	for {
		if err := opts.ShutterLink.WriteByte(opts.CmdByte); err != nil {
			logger.Warn(opts.Tag, "command write failed, continuing", "err", err)
		}
		stepCount++
		opts.sleep(opts.StepDelay)

		forceStopped := opts.ForceStopped != nil && opts.ForceStopped()
		hbTripped := opts.Heartbeat != nil && opts.Heartbeat().Tripped()
		predicateDone := opts.Predicate != nil && opts.Predicate.Satisfied(stepCount)
		timedOut := opts.Timeout > 0 && time.Since(start) > opts.Timeout

		if forceStopped || hbTripped || predicateDone || timedOut {
			return predicateDone && !forceStopped && !hbTripped && !timedOut
		}
	}
}
