package display

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/peer-calls/log"
	"golang.org/x/sys/unix"
)

func newTestLogger() log.Logger {
	return log.New().WithConfig(log.NewConfig(log.ConfigMap{"**": log.LevelError}))
}

type fakeControl struct {
	proto *fakeProtocol
	id    OutputID

	// tables contains the ramps read from each fd passed to SetGamma.
	tables    [][]uint16
	destroyed bool
}

func (c *fakeControl) SetGamma(fd int) error {
	c.proto.mu.Lock()
	hook := c.proto.onSetGamma
	err := c.proto.setGammaErrs[c.id]
	c.proto.mu.Unlock()

	if hook != nil {
		hook(c.id)
	}

	if err != nil {
		return err
	}

	table, err := readTable(fd)
	if err != nil {
		return err
	}

	c.proto.mu.Lock()
	defer c.proto.mu.Unlock()

	c.tables = append(c.tables, table)

	return nil
}

func (c *fakeControl) Destroy() error {
	c.proto.mu.Lock()
	defer c.proto.mu.Unlock()

	if c.destroyed {
		return errors.New("destroyed twice")
	}

	c.destroyed = true

	return nil
}

// readTable reads the whole shared memory file as samples.
func readTable(fd int) ([]uint16, error) {
	var stat unix.Stat_t
	if err := unix.Fstat(fd, &stat); err != nil {
		return nil, fmt.Errorf("fstat: %w", err)
	}

	buf := make([]byte, stat.Size)
	if _, err := unix.Pread(fd, buf, 0); err != nil {
		return nil, fmt.Errorf("pread: %w", err)
	}

	table := make([]uint16, len(buf)/2)
	for i := range table {
		table[i] = binary.NativeEndian.Uint16(buf[2*i:])
	}

	return table, nil
}

// fakeProtocol hands out fakeControls and records them per output.
type fakeProtocol struct {
	mu sync.Mutex

	controls     map[OutputID][]*fakeControl
	getErrs      map[OutputID]error
	setGammaErrs map[OutputID]error
	onSetGamma   func(id OutputID)
}

func newFakeProtocol() *fakeProtocol {
	return &fakeProtocol{
		controls:     map[OutputID][]*fakeControl{},
		getErrs:      map[OutputID]error{},
		setGammaErrs: map[OutputID]error{},
	}
}

func (p *fakeProtocol) GetGammaControl(id OutputID) (GammaControl, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.getErrs[id]; err != nil {
		return nil, err
	}

	c := &fakeControl{proto: p, id: id}
	p.controls[id] = append(p.controls[id], c)

	return c, nil
}

// control returns the most recent control for the output.
func (p *fakeProtocol) control(id OutputID) *fakeControl {
	p.mu.Lock()
	defer p.mu.Unlock()

	controls := p.controls[id]
	if len(controls) == 0 {
		return nil
	}

	return controls[len(controls)-1]
}

func (p *fakeProtocol) numControls(id OutputID) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.controls[id])
}

// lastTable returns the last ramp sent for the output.
func (p *fakeProtocol) lastTable(id OutputID) []uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()

	controls := p.controls[id]
	if len(controls) == 0 {
		return nil
	}

	tables := controls[len(controls)-1].tables
	if len(tables) == 0 {
		return nil
	}

	return tables[len(tables)-1]
}

func (p *fakeProtocol) numTables(id OutputID) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	count := 0
	for _, c := range p.controls[id] {
		count += len(c.tables)
	}

	return count
}

func (p *fakeProtocol) destroyed(id OutputID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, c := range p.controls[id] {
		if !c.destroyed {
			return false
		}
	}

	return true
}

// fakeConnection replays scripted events. Roundtrip runs the next script,
// Dispatch runs everything queued by inject. Its Fd is the read end of a
// pipe which becomes readable when events are injected.
type fakeConnection struct {
	*fakeProtocol

	roundtrips []func(h Handler)

	mu          sync.Mutex
	pending     []func(h Handler)
	dispatchErr error
	flushes     int
	closed      bool

	readFd  int
	writeFd int
}

func newFakeConnection(roundtrips ...func(h Handler)) (*fakeConnection, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC|unix.O_NONBLOCK); err != nil {
		return nil, err
	}

	return &fakeConnection{
		fakeProtocol: newFakeProtocol(),
		roundtrips:   roundtrips,
		readFd:       fds[0],
		writeFd:      fds[1],
	}, nil
}

var _ Connection = (*fakeConnection)(nil)

func (c *fakeConnection) Fd() int {
	return c.readFd
}

// inject queues events and makes Fd readable.
func (c *fakeConnection) inject(f func(h Handler)) error {
	c.mu.Lock()
	c.pending = append(c.pending, f)
	c.mu.Unlock()

	_, err := unix.Write(c.writeFd, []byte{1})

	return err
}

func (c *fakeConnection) failDispatch(err error) error {
	c.mu.Lock()
	c.dispatchErr = err
	c.mu.Unlock()

	_, werr := unix.Write(c.writeFd, []byte{1})

	return werr
}

func (c *fakeConnection) Dispatch(h Handler) error {
	buf := make([]byte, 64)
	for {
		if _, err := unix.Read(c.readFd, buf); err != nil {
			break
		}
	}

	c.mu.Lock()
	pending := c.pending
	c.pending = nil
	err := c.dispatchErr
	c.mu.Unlock()

	if err != nil {
		return err
	}

	for _, f := range pending {
		f(h)
	}

	return nil
}

func (c *fakeConnection) Roundtrip(h Handler) error {
	if len(c.roundtrips) == 0 {
		return nil
	}

	f := c.roundtrips[0]
	c.roundtrips = c.roundtrips[1:]

	f(h)

	return nil
}

func (c *fakeConnection) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.flushes++

	return nil
}

func (c *fakeConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errors.New("closed twice")
	}

	c.closed = true

	unix.Close(c.readFd)
	unix.Close(c.writeFd)

	return nil
}

func (c *fakeConnection) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closed
}
