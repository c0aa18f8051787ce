//go:build linux

package display

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func newTestWaiter(t *testing.T) (*Waiter, *[2]int) {
	t.Helper()

	fds := &[2]int{}
	require.NoError(t, unix.Pipe2(fds[:], unix.O_CLOEXEC))

	w, err := NewWaiter(fds[0])
	require.NoError(t, err)

	t.Cleanup(func() {
		w.Close()
		for _, fd := range fds {
			if fd >= 0 {
				unix.Close(fd)
			}
		}
	})

	return w, fds
}

func TestWaiter_interruptBeforeWait(t *testing.T) {
	w, _ := newTestWaiter(t)

	require.NoError(t, w.Interrupt())
	require.NoError(t, w.Interrupt())

	wake, err := w.Wait()
	require.NoError(t, err)
	assert.True(t, wake.Interrupt())
	assert.False(t, wake.Protocol())
}

func TestWaiter_protocol(t *testing.T) {
	w, fds := newTestWaiter(t)

	require.NoError(t, w.Interrupt())

	wake, err := w.Wait()
	require.NoError(t, err)
	assert.Equal(t, WakeInterrupt, wake)

	_, err = unix.Write(fds[1], []byte{1})
	require.NoError(t, err)

	// The interrupt was consumed by the previous Wait.
	wake, err = w.Wait()
	require.NoError(t, err)
	assert.Equal(t, WakeProtocol, wake)

	require.NoError(t, w.Interrupt())

	wake, err = w.Wait()
	require.NoError(t, err)
	assert.Equal(t, WakeProtocol|WakeInterrupt, wake)
}

func TestWaiter_interruptWhileWaiting(t *testing.T) {
	w, _ := newTestWaiter(t)

	wakeCh := make(chan Wake, 1)
	errCh := make(chan error, 1)

	go func() {
		wake, err := w.Wait()
		wakeCh <- wake
		errCh <- err
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, w.Interrupt())

	select {
	case wake := <-wakeCh:
		require.NoError(t, <-errCh)
		assert.True(t, wake.Interrupt())
	case <-time.After(5 * time.Second):
		t.Fatal("Wait was not interrupted")
	}
}

func TestWaiter_hangup(t *testing.T) {
	w, fds := newTestWaiter(t)

	require.NoError(t, unix.Close(fds[1]))
	fds[1] = -1

	_, err := w.Wait()
	assert.Error(t, err)
}

func TestWaiter_interruptAfterClose(t *testing.T) {
	w, _ := newTestWaiter(t)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	assert.ErrorIs(t, w.Interrupt(), ErrWaiterClosed)
}
