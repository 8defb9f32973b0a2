//go:build linux

package devnode

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/unix"

	"github.com/ardnew/axififo/pkg"
)

// pollInterval bounds how long a wait runs before rechecking for teardown.
const pollInterval = 100 * time.Millisecond

// closeWatch reports when a reader of a FIFO closes it. Closing the server
// end does not end a client session: the client keeps its read end open
// until it has drained the pipe, and reopening the server end before then
// would hand the same client another report line.
type closeWatch struct {
	fd  int // inotify file descriptor
	buf [unix.SizeofInotifyEvent + unix.NAME_MAX + 1]byte
}

func newCloseWatch(path string) (*closeWatch, error) {
	fd, err := unix.InotifyInit1(unix.IN_NONBLOCK | unix.IN_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("inotify init: %w", err)
	}
	if _, err := unix.InotifyAddWatch(fd, path, unix.IN_CLOSE_NOWRITE); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("inotify watch: %w", err)
	}
	return &closeWatch{fd: fd}, nil
}

// drain discards pending events. Readers that closed while no client was
// being served are not waited on.
func (w *closeWatch) drain() {
	for {
		n, err := unix.Read(w.fd, w.buf[:])
		if n <= 0 || err != nil {
			return
		}
	}
}

// wait blocks until a reader closes the FIFO. It reports false when stop
// returns true first.
func (w *closeWatch) wait(stop func() bool) bool {
	fds := []unix.PollFd{{Fd: int32(w.fd), Events: unix.POLLIN}}

	for {
		if stop() {
			return false
		}

		n, err := unix.Poll(fds, int(pollInterval/time.Millisecond))
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			pkg.LogWarn(pkg.ComponentDevnode, "close watch failed", "error", err)
			return true
		}
		if n == 0 {
			continue
		}

		n, err = unix.Read(w.fd, w.buf[:])
		if err != nil {
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
				continue
			}
			pkg.LogWarn(pkg.ComponentDevnode, "close watch failed", "error", err)
			return true
		}
		if n > 0 {
			return true
		}
	}
}

func (w *closeWatch) Close() error {
	return unix.Close(w.fd)
}
