//go:build linux

package platform

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/ardnew/axififo/pkg"
)

// pollInterval bounds how long Run waits before rechecking its context.
const pollInterval = 100 * time.Millisecond

// =============================================================================
// Hotplug Monitor
// =============================================================================

// Monitor reports platform and UIO device uevents.
type Monitor struct {
	fd        int                    // Netlink socket file descriptor
	buf       [UEventBufferSize]byte // Buffer for receiving events
	closeOnce sync.Once
}

// NewMonitor opens a netlink socket bound to the kernel uevent group.
func NewMonitor() (*Monitor, error) {
	fd, err := unix.Socket(
		unix.AF_NETLINK,
		unix.SOCK_DGRAM|unix.SOCK_CLOEXEC|unix.SOCK_NONBLOCK,
		unix.NETLINK_KOBJECT_UEVENT,
	)
	if err != nil {
		return nil, err
	}

	addr := unix.SockaddrNetlink{
		Family: unix.AF_NETLINK,
		Groups: 1, // Kernel broadcast group
	}
	if err := unix.Bind(fd, &addr); err != nil {
		unix.Close(fd)
		return nil, err
	}

	return &Monitor{fd: fd}, nil
}

// Close shuts down the monitor socket.
func (m *Monitor) Close() error {
	var err error
	m.closeOnce.Do(func() {
		err = unix.Close(m.fd)
	})
	return err
}

// Run delivers platform and UIO events to out until ctx is done. Events are
// dropped when out is full.
func (m *Monitor) Run(ctx context.Context, out chan<- Event) error {
	fds := []unix.PollFd{{Fd: int32(m.fd), Events: unix.POLLIN}}

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		n, err := unix.Poll(fds, int(pollInterval/time.Millisecond))
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return err
		}
		if n == 0 {
			continue
		}

		evt, ok, err := m.receive()
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		select {
		case out <- evt:
		default:
			pkg.LogWarn(pkg.ComponentPlatform, "hotplug event dropped",
				"action", evt.Action.String(),
				"devpath", evt.DevPath)
		}
	}
}

// receive reads one uevent. It reports false for events of other subsystems
// or when no data is pending.
func (m *Monitor) receive() (Event, bool, error) {
	n, err := unix.Read(m.fd, m.buf[:])
	if err != nil {
		if errors.Is(err, unix.EAGAIN) {
			return Event{}, false, nil
		}
		return Event{}, false, err
	}
	if n <= 0 {
		return Event{}, false, nil
	}

	evt := ParseUEvent(m.buf[:n])
	switch evt.Subsystem {
	case SubsystemPlatform, SubsystemUIO:
		return evt, true, nil
	default:
		return Event{}, false, nil
	}
}
