//go:build linux

// Package serial implements the scoped serial-link handle described in
// spec §4.1: a blocking, 8-N-1 byte-oriented tty with a configured read
// timeout, and the reconnect-on-error loop that owns it.
//
// The framing and timeout are configured directly via termios ioctls
// (golang.org/x/sys/unix), the same dependency the teacher codebase already
// carries for low-level POSIX access (github.com/samsamfire/gocanopen's
// bus_manager.go uses golang.org/x/sys/unix for SocketCAN id masks); no
// general-purpose serial module was available in the retrieval pack, so the
// termios technique is applied directly rather than introducing an
// unfetched dependency.
package serial

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// ErrWrite is returned when a single-byte write did not write exactly one
// byte (spec §4.1).
var ErrWrite = errors.New("serial: write did not send exactly one byte")

// ErrReadTimeout is returned when a read produced zero bytes within the
// configured timeout (spec §4.1). For a legacy shutter link, callers are
// told in spec §4.1 that a zero-byte read is normal idle, not an error —
// [Link.ReadByte] still returns ErrReadTimeout uniformly; it is the
// reader loop's job to decide whether that's fatal.
var ErrReadTimeout = errors.New("serial: read timed out")

var baudRates = map[int]uint32{
	1200:   unix.B1200,
	2400:   unix.B2400,
	4800:   unix.B4800,
	9600:   unix.B9600,
	19200:  unix.B19200,
	38400:  unix.B38400,
	57600:  unix.B57600,
	115200: unix.B115200,
}

// Link is a scoped handle over a byte-oriented tty. It is not safe for
// concurrent reads, and not safe for concurrent writes against each other —
// but per spec §5, one concurrent reader and one concurrent writer (the
// monitor loop and the movement/arming path, respectively) are expected and
// fine, since the underlying fd's read and write directions don't block
// each other.
type Link struct {
	path    string
	baud    int
	timeout time.Duration
	file    *os.File
}

// Open configures and opens the tty at path. timeout bounds ReadByte.
func Open(path string, baud int, timeout time.Duration) (*Link, error) {
	rate, ok := baudRates[baud]
	if !ok {
		return nil, fmt.Errorf("serial: unsupported baud rate %d", baud)
	}

	f, err := os.OpenFile(path, os.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		return nil, err
	}

	fd := int(f.Fd())
	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("serial: get termios: %w", err)
	}

	// Raw 8-N-1, no flow control.
	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	t.Oflag &^= unix.OPOST
	t.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Cflag &^= unix.CSIZE | unix.PARENB | unix.CSTOPB | unix.CRTSCTS
	t.Cflag |= unix.CS8 | unix.CREAD | unix.CLOCAL
	t.Ispeed = rate
	t.Ospeed = rate

	// VTIME is in deciseconds; VMIN=0 means "return as soon as VTIME
	// elapses, even with zero bytes" — exactly the read-timeout contract
	// spec §4.1 wants.
	deciseconds := timeout.Milliseconds() / 100
	if deciseconds < 1 {
		deciseconds = 1
	}
	if deciseconds > 255 {
		deciseconds = 255
	}
	t.Cc[unix.VMIN] = 0
	t.Cc[unix.VTIME] = uint8(deciseconds)

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, t); err != nil {
		f.Close()
		return nil, fmt.Errorf("serial: set termios: %w", err)
	}

	link := &Link{path: path, baud: baud, timeout: timeout, file: f}
	if err := link.flush(); err != nil {
		f.Close()
		return nil, err
	}
	return link, nil
}

func (l *Link) flush() error {
	return unix.IoctlSetInt(int(l.file.Fd()), unix.TCFLSH, unix.TCIOFLUSH)
}

// Close releases the underlying file descriptor.
func (l *Link) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// WriteByte writes a single byte (spec §4.1: "returns number written;
// anything other than 1 fails with a Write error").
func (l *Link) WriteByte(b byte) error {
	n, err := l.file.Write([]byte{b})
	if err != nil {
		return err
	}
	if n != 1 {
		return ErrWrite
	}
	return nil
}

// ReadByte blocks up to the configured timeout and returns the byte read.
// A zero-byte read returns ErrReadTimeout (spec §4.1).
func (l *Link) ReadByte() (byte, error) {
	buf := make([]byte, 1)
	n, err := l.file.Read(buf)
	// os.File reports a zero-byte read (VTIME expiry) as io.EOF.
	if n == 0 && (err == nil || errors.Is(err, io.EOF)) {
		return 0, ErrReadTimeout
	}
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

// Path returns the configured tty path, for logging.
func (l *Link) Path() string { return l.path }
