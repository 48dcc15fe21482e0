package mover

import (
	"sync"
	"testing"
	"time"

	"github.com/rockit-astro/domed/pkg/heartbeat"
	"github.com/rockit-astro/domed/pkg/shutter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu      sync.Mutex
	written []byte
	failN   int // fail the first failN writes
}

func (f *fakeWriter) WriteByte(b byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failN > 0 {
		f.failN--
		return assertErr
	}
	f.written = append(f.written, b)
	return nil
}

var assertErr = &writeErr{}

type writeErr struct{}

func (*writeErr) Error() string { return "write failed" }

func noSleep(time.Duration) {}

func TestMoveTerminatesOnPredicate(t *testing.T) {
	w := &fakeWriter{}
	ok := Move(Options{
		Tag:         "[TEST]",
		ShutterLink: w,
		CmdByte:     'a',
		Predicate:   &StepCountPredicate{Max: 3},
		StepDelay:   time.Millisecond,
		Sleep:       noSleep,
	})
	assert.True(t, ok)
	assert.Len(t, w.written, 3)
}

func TestMoveTerminatesOnForceStopped(t *testing.T) {
	w := &fakeWriter{}
	stopped := false
	n := 0
	ok := Move(Options{
		ShutterLink: w,
		CmdByte:     'a',
		Predicate:   &StepCountPredicate{Max: 1000},
		StepDelay:   time.Millisecond,
		Sleep: func(time.Duration) {
			n++
			if n == 2 {
				stopped = true
			}
		},
		ForceStopped: func() bool { return stopped },
	})
	assert.False(t, ok)
	assert.Len(t, w.written, 2)
}

func TestMoveTerminatesOnHeartbeatTrip(t *testing.T) {
	w := &fakeWriter{}
	ok := Move(Options{
		ShutterLink: w,
		CmdByte:     'a',
		Predicate:   &StepCountPredicate{Max: 1000},
		StepDelay:   time.Millisecond,
		Sleep:       noSleep,
		Heartbeat:   func() heartbeat.State { return heartbeat.State{Kind: heartbeat.TrippedClosing} },
	})
	assert.False(t, ok)
	assert.Len(t, w.written, 1)
}

func TestMoveTerminatesOnTimeout(t *testing.T) {
	w := &fakeWriter{}
	elapsed := time.Duration(0)
	ok := Move(Options{
		ShutterLink: w,
		CmdByte:     'a',
		Predicate:   &StepCountPredicate{Max: 1000000},
		StepDelay:   time.Millisecond,
		Timeout:     10 * time.Millisecond,
		Sleep: func(d time.Duration) {
			elapsed += d
		},
	})
	assert.False(t, ok)
}

func TestMoveContinuesAfterWriteFailure(t *testing.T) {
	w := &fakeWriter{failN: 2}
	ok := Move(Options{
		ShutterLink: w,
		CmdByte:     'a',
		Predicate:   &StepCountPredicate{Max: 3},
		StepDelay:   time.Millisecond,
		Sleep:       noSleep,
	})
	// step_count advances on every iteration regardless of write success
	// (spec §4.4: "log and continue" — the loop proceeds either way), so
	// two failed writes followed by one successful write still satisfies a
	// 3-step budget, even though only the 3rd byte actually reached the
	// link.
	assert.True(t, ok)
	assert.Len(t, w.written, 1)
}

func TestMoveWritesBumperResetAndSiren(t *testing.T) {
	w := &fakeWriter{}
	hb := &fakeWriter{}
	sleeps := []time.Duration{}
	Move(Options{
		ShutterLink:   w,
		HeartbeatLink: hb,
		CmdByte:       'a',
		Predicate:     &StepCountPredicate{Max: 1},
		StepDelay:     time.Millisecond,
		BumperGuard:   true,
		Siren:         true,
		SirenEnabled:  true,
		Sleep: func(d time.Duration) {
			sleeps = append(sleeps, d)
		},
	})
	assert.Equal(t, byte('R'), w.written[0])
	assert.Equal(t, heartbeat.SirenByte(), hb.written[0])
	assert.Contains(t, sleeps, sirenDelay)
}

func TestAnyPredicateShortCircuits(t *testing.T) {
	a := &StepCountPredicate{Max: 5}
	b := &StepCountPredicate{Max: 1}
	any := Any{a, b}
	assert.True(t, any.Satisfied(1))
	assert.False(t, any.Satisfied(0))
}

func TestBeltSlackPredicateMarksFailed(t *testing.T) {
	failed := false
	p := &BeltSlackPredicate{
		Side:      shutter.SideA,
		Tensioned: func(shutter.Side) (bool, error) { return false, nil },
		Failed:    &failed,
		Tag:       "[TEST]",
	}
	require.True(t, p.Satisfied(0))
	assert.True(t, failed)
}

func TestBeltSlackPredicateQueryError(t *testing.T) {
	failed := false
	p := &BeltSlackPredicate{
		Side:      shutter.SideA,
		Tensioned: func(shutter.Side) (bool, error) { return false, assertErr },
		Failed:    &failed,
		Tag:       "[TEST]",
	}
	assert.False(t, p.Satisfied(0))
	assert.False(t, failed)
}
