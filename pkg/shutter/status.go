// Package shutter implements the controller status decoder described in
// spec §4.2: it consumes single ASCII bytes emitted by the dome controller
// and maintains the (shutter_a, shutter_b) pair under a shared mutex.
package shutter

import "sync"

// Status is the per-side shutter state (spec §3).
type Status uint8

const (
	Closed Status = iota
	Open
	PartiallyOpen
	Opening
	Closing
	HeartbeatMonitorForceClosing
)

var names = map[Status]string{
	Closed:                       "Closed",
	Open:                         "Open",
	PartiallyOpen:                "PartiallyOpen",
	Opening:                      "Opening",
	Closing:                      "Closing",
	HeartbeatMonitorForceClosing: "HeartbeatMonitorForceClosing",
}

func (s Status) String() string {
	if n, ok := names[s]; ok {
		return n
	}
	return "Unknown"
}

// Side identifies one of the two mechanically independent shutters.
type Side byte

const (
	SideA Side = 'a'
	SideB Side = 'b'
)

// Pair holds both sides' status. The zero value is the documented initial
// convention (both Closed) and is overwritten by the first controller byte
// observed. Pair itself is not safe for concurrent use — callers guard it
// with their own mutex; [Decoder] holds the shared pair under its own
// mutex and hands out copies.
type Pair struct {
	A Status
	B Status
}

// Get returns the status for the given side.
func (p Pair) Get(side Side) Status {
	if side == SideA {
		return p.A
	}
	return p.B
}

// ClosedBoth reports whether both sides are Closed.
func (p Pair) ClosedBoth() bool {
	return p.A == Closed && p.B == Closed
}

// Decoder owns the shared (a, b) pair and applies the controller protocol's
// transition rules under a mutex, exactly as spec §4.2 defines them. Legacy
// controllers report partial-open state through the per-side transition
// bytes instead of the modern Opening/Closing; the legacy argument of
// [NewDecoder] selects that behavior.
type Decoder struct {
	mu     sync.Mutex
	pair   Pair
	legacy bool
}

// NewDecoder constructs a decoder. legacy mirrors config's
// has_legacy_controller.
func NewDecoder(legacy bool) *Decoder {
	return &Decoder{legacy: legacy}
}

// Snapshot returns a copy of the current pair.
func (d *Decoder) Snapshot() Pair {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pair
}

// Set forcibly assigns both sides, used by the heartbeat reader on a trip
// (spec §4.3: "On entry, forcibly set both shutter states to
// HeartbeatMonitorForceClosing").
func (d *Decoder) Set(a, b Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pair.A = a
	d.pair.B = b
}

// UnknownByteHandler is invoked for a controller byte the decoder doesn't
// recognize (spec §4.2: "logged as unknown status code but does not break
// the stream"). b is the byte in question.
type UnknownByteHandler func(b byte)

// BumperResetHandler is invoked when the controller reports the bumper
// guard relay reset ('R').
type BumperResetHandler func()

// Consume applies one controller byte's transition rule to the shared pair
// and returns the resulting snapshot. onUnknown and onBumperReset may be
// nil.
func (d *Decoder) Consume(b byte, onUnknown UnknownByteHandler, onBumperReset BumperResetHandler) Pair {
	d.mu.Lock()

	isBumperReset := false
	isUnknown := false

	switch b {
	case '0':
		d.pair.A = Closed
		d.pair.B = Closed
	case '1':
		d.pair.A = Closed
		d.pair.B = demoteUnlessOpen(d.pair.B)
	case '2':
		d.pair.A = demoteUnlessOpen(d.pair.A)
		d.pair.B = Closed
	case '3':
		d.pair.A = demoteUnlessOpen(d.pair.A)
		d.pair.B = demoteUnlessOpen(d.pair.B)
	case 'A':
		d.pair.A = d.transition(true)
	case 'a':
		d.pair.A = d.transition(false)
	case 'X':
		d.pair.A = Closed
	case 'x':
		d.pair.A = Open
	case 'B':
		d.pair.B = d.transition(true)
	case 'b':
		d.pair.B = d.transition(false)
	case 'Y':
		d.pair.B = Closed
	case 'y':
		d.pair.B = Open
	case 'R':
		isBumperReset = true
	default:
		isUnknown = true
	}
	snapshot := d.pair
	d.mu.Unlock()

	if isBumperReset && onBumperReset != nil {
		onBumperReset()
	}
	if isUnknown && onUnknown != nil {
		onUnknown(b)
	}
	return snapshot
}

// transition computes the per-side status for a close ('A'/'B', closing=true)
// or open ('a'/'b', closing=false) transition byte.
func (d *Decoder) transition(closing bool) Status {
	if d.legacy {
		return PartiallyOpen
	}
	if closing {
		return Closing
	}
	return Opening
}

// demoteUnlessOpen implements the "unchanged if Open" rule: an aggregate
// partial report must not demote a side the per-side byte already pinned
// to Open.
func demoteUnlessOpen(current Status) Status {
	if current == Open {
		return Open
	}
	return PartiallyOpen
}
