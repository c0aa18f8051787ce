package display

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// ErrWaiterClosed is returned by Interrupt after Close.
var ErrWaiterClosed = errors.New("waiter closed")

// Wake describes why Waiter.Wait returned.
type Wake uint8

const (
	// WakeProtocol is set when display server events are pending.
	WakeProtocol Wake = 1 << iota
	// WakeInterrupt is set when Interrupt was called since the last wake.
	WakeInterrupt
)

func (w Wake) Protocol() bool  { return w&WakeProtocol != 0 }
func (w Wake) Interrupt() bool { return w&WakeInterrupt != 0 }

// Waiter blocks until a file descriptor becomes readable or until it is
// interrupted from another goroutine. Interrupts are counted by an eventfd,
// so one raised before Wait is called is not lost.
type Waiter struct {
	fd int

	// mu guards interrupt against being closed while Interrupt writes to
	// it, since the fd number could already belong to another file.
	mu        sync.Mutex
	interrupt int
	closed    bool
}

// NewWaiter creates a Waiter for fd. The fd is not owned by the Waiter.
func NewWaiter(fd int) (*Waiter, error) {
	interrupt, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return nil, fmt.Errorf("eventfd: %w", err)
	}

	return &Waiter{
		fd:        fd,
		interrupt: interrupt,
	}, nil
}

// Wait blocks until the fd is readable or an interrupt is pending. When an
// interrupt is observed it is consumed.
func (w *Waiter) Wait() (Wake, error) {
	fds := []unix.PollFd{
		{Fd: int32(w.fd), Events: unix.POLLIN},
		{Fd: int32(w.interrupt), Events: unix.POLLIN},
	}

	for {
		_, err := unix.Poll(fds, -1)
		if errors.Is(err, unix.EINTR) {
			continue
		}

		if err != nil {
			return 0, fmt.Errorf("poll: %w", err)
		}

		break
	}

	var wake Wake

	if fds[1].Revents&unix.POLLIN != 0 {
		if err := w.drain(); err != nil {
			return 0, err
		}

		wake |= WakeInterrupt
	}

	if revents := fds[0].Revents; revents&unix.POLLIN != 0 {
		wake |= WakeProtocol
	} else if revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
		return wake, fmt.Errorf("poll: connection hung up (revents %#x)", revents)
	}

	return wake, nil
}

// Interrupt wakes up a goroutine blocked in Wait, or the next call to Wait.
// It is safe to call from any goroutine.
func (w *Waiter) Interrupt() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWaiterClosed
	}

	var buf [8]byte

	binary.NativeEndian.PutUint64(buf[:], 1)

	if _, err := unix.Write(w.interrupt, buf[:]); err != nil && !errors.Is(err, unix.EAGAIN) {
		return fmt.Errorf("write eventfd: %w", err)
	}

	return nil
}

func (w *Waiter) drain() error {
	var buf [8]byte

	if _, err := unix.Read(w.interrupt, buf[:]); err != nil && !errors.Is(err, unix.EAGAIN) {
		return fmt.Errorf("read eventfd: %w", err)
	}

	return nil
}

// Close releases the eventfd. Wait must not be running. Calling Close more
// than once is a no-op.
func (w *Waiter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}

	w.closed = true

	if err := unix.Close(w.interrupt); err != nil {
		return fmt.Errorf("close eventfd: %w", err)
	}

	return nil
}
