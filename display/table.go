package display

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Table is a gamma table in anonymous shared memory. The file descriptor is
// handed to the display server, which maps it to read the ramps.
type Table struct {
	fd   int
	data []byte
	ramp []uint16
}

// NewTable allocates shared memory for 3*rampSize 16-bit samples and maps it
// for reading and writing.
func NewTable(rampSize int) (*Table, error) {
	if rampSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRampSize, rampSize)
	}

	size := 3 * rampSize * 2

	fd, err := createAnonymousFile(int64(size))
	if err != nil {
		return nil, fmt.Errorf("%w: allocate shared memory: %w", ErrResourceExhausted, err)
	}

	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("%w: mmap: %w", ErrResourceExhausted, err)
	}

	return &Table{
		fd:   fd,
		data: data,
		ramp: unsafe.Slice((*uint16)(unsafe.Pointer(unsafe.SliceData(data))), 3*rampSize),
	}, nil
}

// Fd returns the file descriptor backing the table.
func (t *Table) Fd() int {
	return t.fd
}

// Ramp returns the red, green and blue ramps in a single slice. It is only
// valid until Release is called.
func (t *Table) Ramp() []uint16 {
	return t.ramp
}

// Release unmaps the table. The file descriptor is left open.
func (t *Table) Release() error {
	if t.data == nil {
		return nil
	}

	data := t.data

	t.data = nil
	t.ramp = nil

	if err := unix.Munmap(data); err != nil {
		return fmt.Errorf("munmap: %w", err)
	}

	return nil
}

// Close unmaps the table and closes the file descriptor.
func (t *Table) Close() error {
	err := t.Release()

	if t.fd >= 0 {
		if closeErr := unix.Close(t.fd); closeErr != nil && err == nil {
			err = fmt.Errorf("close: %w", closeErr)
		}

		t.fd = -1
	}

	return err
}

func createAnonymousFile(size int64) (int, error) {
	fd, err := unix.MemfdCreate("gammarelay-table", unix.MFD_CLOEXEC)
	if errors.Is(err, unix.ENOSYS) {
		fd, err = unix.Open("/dev/shm", unix.O_TMPFILE|unix.O_RDWR|unix.O_EXCL|unix.O_CLOEXEC, 0o600)
	}

	if err != nil {
		return -1, err
	}

	for {
		err = unix.Ftruncate(fd, size)
		if !errors.Is(err, unix.EINTR) {
			break
		}
	}

	if err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("ftruncate: %w", err)
	}

	return fd, nil
}
