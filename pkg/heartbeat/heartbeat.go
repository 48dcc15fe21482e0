// Package heartbeat models the independent hardware watchdog's state
// machine (spec §4.3) and the host-side arming protocol (spec §4.9).
package heartbeat

import (
	"fmt"
	"sync"
)

// Kind tags the variant of [State].
type Kind uint8

const (
	Unavailable Kind = iota
	Disabled
	Active
	TrippedClosing
	TrippedIdle
)

func (k Kind) String() string {
	switch k {
	case Unavailable:
		return "Unavailable"
	case Disabled:
		return "Disabled"
	case Active:
		return "Active"
	case TrippedClosing:
		return "TrippedClosing"
	case TrippedIdle:
		return "TrippedIdle"
	default:
		return "Unknown"
	}
}

// State is the tagged union described in spec §3. Remaining is only
// meaningful when Kind == Active, and is expressed in seconds (the wire
// format's half-second ticks already divided down).
type State struct {
	Kind      Kind
	Remaining float64
}

func (s State) String() string {
	if s.Kind == Active {
		return fmt.Sprintf("Active(%.1fs)", s.Remaining)
	}
	return s.Kind.String()
}

// Tripped reports whether the watchdog has decided to close the dome and
// has not yet been reset.
func (s State) Tripped() bool {
	return s.Kind == TrippedClosing || s.Kind == TrippedIdle
}

// Store holds the shared heartbeat state, guarded by the same mutex
// discipline spec §5 calls the status_mutex: the reader is the sole
// writer, everyone else reads.
type Store struct {
	mu    sync.Mutex
	state State
}

// NewStore constructs a Store starting Unavailable, matching a link that
// has not yet produced a sample.
func NewStore() *Store {
	return &Store{state: State{Kind: Unavailable}}
}

// Get returns the current state.
func (s *Store) Get() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Set overwrites the state. Used by the reader loop and, on a serial
// failure, by the link's error path (spec §7: "heartbeat state becomes
// Unavailable").
func (s *Store) Set(next State) (prev State, changed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev = s.state
	s.state = next
	return prev, prev.Kind != next.Kind
}

// DecodeSample interprets one byte emitted by the heartbeat monitor,
// exactly per spec §4.3 / §6.
func DecodeSample(b byte) State {
	switch b {
	case 254:
		return State{Kind: TrippedClosing}
	case 255:
		return State{Kind: TrippedIdle}
	case 0:
		return State{Kind: Disabled}
	default:
		return State{Kind: Active, Remaining: float64(b) / 2}
	}
}

// ArmByte computes the byte to write to the heartbeat link to arm (or, for
// 0, disarm) the watchdog for the given timeout in seconds. Callers must
// validate the [0,120) bound first (spec §4.9 / §6); this function does not
// re-validate.
func ArmByte(timeoutSeconds int) byte {
	return byte(2 * timeoutSeconds)
}

// ValidTimeout reports whether t is a legal argument to
// set_heartbeat_timer (spec §4.9: "Requires 0 <= timeout < 120").
func ValidTimeout(t int) bool {
	return t >= 0 && t < 120
}

// sirenByte is written to the heartbeat link to trigger the pre-movement
// siren (spec §6).
const sirenByte = 0xFF

// SirenByte returns the wire value that triggers the pre-movement siren.
func SirenByte() byte { return sirenByte }

// legacyRecoverySteps are the single-byte commands the supervisor's heartbeat
// monitor issues against the shutter link after a TrippedIdle transition in legacy
// mode, to provoke a fresh status byte (spec §4.3). The monitor may have
// interrupted the controller link mid-stream, so the controller's next
// status byte can't be relied on to arrive unprompted.
var legacyRecoverySteps = []byte{'A', 'B'}

// LegacyRecoverySteps returns the bytes to write (the caller sleeps
// command_delay after each) to provoke a fresh controller status byte following a
// TrippedIdle transition in legacy mode (spec §4.3's "provoke a status
// byte" quirk — the bytes are always 'A'/'B' (close), regardless of the
// shutter's intended state prior to the trip; preserved as-is, per spec §9).
func LegacyRecoverySteps() []byte {
	out := make([]byte, len(legacyRecoverySteps))
	copy(out, legacyRecoverySteps)
	return out
}
