package serial

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLink struct {
	closed atomic.Bool
}

func (f *fakeLink) ReadByte() (byte, error) { return 0, nil }
func (f *fakeLink) WriteByte(b byte) error  { return nil }
func (f *fakeLink) Close() error            { f.closed.Store(true); return nil }

func newTestReconnecting(open Opener) *Reconnecting {
	return &Reconnecting{
		open:    open,
		logger:  noopLogger{},
		tag:     "[TEST]",
		backoff: time.Millisecond,
		stopCh:  make(chan struct{}),
	}
}

func TestReconnectingOpensOnFirstEnsure(t *testing.T) {
	var attempts int32
	open := func() (ByteLink, error) {
		atomic.AddInt32(&attempts, 1)
		return &fakeLink{}, nil
	}
	r := newTestReconnecting(open)
	defer r.Close()

	link := r.Ensure()
	require.NotNil(t, link)
	assert.EqualValues(t, 1, atomic.LoadInt32(&attempts))

	// A second Ensure reuses the existing link without reopening.
	link2 := r.Ensure()
	assert.Same(t, link, link2)
	assert.EqualValues(t, 1, atomic.LoadInt32(&attempts))
}

func TestReconnectingRetriesOnOpenFailure(t *testing.T) {
	var attempts int32
	open := func() (ByteLink, error) {
		n := atomic.AddInt32(&attempts, 1)
		if n < 3 {
			return nil, errors.New("no such device")
		}
		return &fakeLink{}, nil
	}
	r := newTestReconnecting(open)
	defer r.Close()

	link := r.Ensure()
	require.NotNil(t, link)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&attempts), int32(3))
}

func TestInvalidateForcesReopen(t *testing.T) {
	var attempts int32
	var last *fakeLink
	open := func() (ByteLink, error) {
		atomic.AddInt32(&attempts, 1)
		last = &fakeLink{}
		return last, nil
	}
	r := newTestReconnecting(open)
	defer r.Close()

	first := r.Ensure()
	require.NotNil(t, first)
	r.Invalidate(errors.New("read timeout"))
	assert.True(t, last.closed.Load())

	second := r.Ensure()
	require.NotNil(t, second)
	assert.NotSame(t, first, second)
	assert.EqualValues(t, 2, atomic.LoadInt32(&attempts))
}

func TestCloseStopsPendingRetries(t *testing.T) {
	blocked := make(chan struct{})
	open := func() (ByteLink, error) {
		return nil, errors.New("device busy")
	}
	r := newTestReconnecting(open)
	r.backoff = time.Hour

	go func() {
		r.Ensure()
		close(blocked)
	}()
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, r.Close())

	select {
	case <-blocked:
	case <-time.After(time.Second):
		t.Fatal("Ensure did not return after Close")
	}
}

type noopLogger struct{}

func (noopLogger) Info(string, string, ...any)  {}
func (noopLogger) Warn(string, string, ...any)  {}
func (noopLogger) Error(string, string, ...any) {}
