package serial

import (
	"sync"
	"time"

	"github.com/rockit-astro/domed/pkg/domelog"
)

// ByteLink is the minimal contract the reconnect loop needs: single-byte
// read/write plus close. [*Link] satisfies it; tests substitute a fake.
type ByteLink interface {
	ReadByte() (byte, error)
	WriteByte(b byte) error
	Close() error
}

// Opener constructs a fresh [ByteLink], e.g. serial.Open bound to a path.
type Opener func() (ByteLink, error)

const reconnectBackoff = 5 * time.Second

// Reconnecting wraps an [Opener] with the reconnect-on-error discipline of
// spec §4.1: on construction failure or any I/O error, close the handle,
// wait 5 seconds, retry. The first-ever successful open logs "Established";
// subsequent recoveries log "Restored"; the transition into the error state
// is logged exactly once per episode, not on every retry attempt.
type Reconnecting struct {
	open    Opener
	logger  domelog.Logger
	tag     string
	backoff time.Duration

	mu         sync.Mutex
	link       ByteLink
	everOpened bool
	inErrorLog bool // true once the current episode's error has been logged
	reopenWait bool // set by Invalidate: wait one backoff before reopening
	stopped    bool
	stopCh     chan struct{}
}

// NewReconnecting does not open the link yet; call Ensure before the first
// use, from the owning monitor loop's goroutine.
func NewReconnecting(tag string, open Opener, logger domelog.Logger) *Reconnecting {
	if logger == nil {
		logger = domelog.Discard
	}
	return &Reconnecting{
		open:    open,
		logger:  logger,
		tag:     tag,
		backoff: reconnectBackoff,
		stopCh:  make(chan struct{}),
	}
}

// Close stops any background reconnect attempts and closes the current
// link, if any.
func (r *Reconnecting) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return nil
	}
	r.stopped = true
	close(r.stopCh)
	if r.link != nil {
		err := r.link.Close()
		r.link = nil
		return err
	}
	return nil
}

// Ensure blocks until a link is open, retrying every 5 seconds on failure.
// It returns immediately if a link is already open.
func (r *Reconnecting) Ensure() ByteLink {
	for {
		r.mu.Lock()
		if r.link != nil {
			l := r.link
			r.mu.Unlock()
			return l
		}
		if r.stopped {
			r.mu.Unlock()
			return nil
		}
		wait := r.reopenWait
		r.reopenWait = false
		r.mu.Unlock()

		if wait {
			select {
			case <-time.After(r.backoff):
			case <-r.stopCh:
				return nil
			}
		}

		link, err := r.open()
		r.mu.Lock()
		if err != nil {
			if !r.inErrorLog {
				r.logger.Error(r.tag, "link unavailable, retrying", "err", err)
				r.inErrorLog = true
			}
			r.mu.Unlock()
			select {
			case <-time.After(r.backoff):
			case <-r.stopCh:
				return nil
			}
			continue
		}
		r.link = link
		if !r.everOpened {
			r.logger.Info(r.tag, "Established")
			r.everOpened = true
		} else {
			r.logger.Info(r.tag, "Restored")
		}
		r.inErrorLog = false
		r.mu.Unlock()
		return link
	}
}

// Invalidate closes and discards the current link, so the next Ensure call
// reopens it after one backoff interval. Call this when an I/O error is
// observed against the link returned by Ensure.
func (r *Reconnecting) Invalidate(causeErr error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.link != nil {
		r.link.Close()
		r.link = nil
	}
	r.reopenWait = true
	if !r.inErrorLog {
		r.logger.Error(r.tag, "link error, reconnecting", "err", causeErr)
		r.inErrorLog = true
	}
}
