// Package wayland is a minimal Wayland client which binds outputs and the
// wlr-gamma-control-unstable-v1 extension for display.Display.
package wayland

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jeremija/wl-gammarelay/display"
	"github.com/peer-calls/log"
	"golang.org/x/sys/unix"
)

const (
	displayID = 1

	outputInterface              = "wl_output"
	gammaControlManagerInterface = "zwlr_gamma_control_manager_v1"

	maxOutputVersion = 4
)

// Request opcodes.
const (
	displaySync        = 0
	displayGetRegistry = 1

	registryBind = 0

	outputRelease = 0

	managerGetGammaControl = 0
	managerDestroy         = 1

	controlSetGamma = 0
	controlDestroy  = 1
)

// Event opcodes.
const (
	displayError    = 0
	displayDeleteID = 1

	registryGlobal       = 0
	registryGlobalRemove = 1

	callbackDone = 0

	outputName = 4

	controlGammaSize = 0
	controlFailed    = 1
)

type objectKind int

const (
	kindDisplay objectKind = iota
	kindRegistry
	kindCallback
	kindOutput
	kindManager
	kindControl
)

type object struct {
	kind objectKind
	// output is set for outputs and gamma controls.
	output display.OutputID
}

type output struct {
	id      uint32
	version uint32
	name    string
}

// ProtocolError is a fatal error sent by the display server.
type ProtocolError struct {
	ObjectID uint32
	Code     uint32
	Message  string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("wayland protocol error on object %d, code %d: %s", e.ObjectID, e.Code, e.Message)
}

// Client is a connection to a Wayland display server. It implements
// display.Connection and is not safe for concurrent use.
type Client struct {
	fd  int
	log log.Logger

	out    []byte
	outFds []int
	in     []byte

	nextID  uint32
	objects map[uint32]object

	registryID  uint32
	managerID   uint32
	managerName uint32
	outputs     map[display.OutputID]*output
	callbacks   map[uint32]bool
}

var _ display.Connection = (*Client)(nil)

// Connect connects to the display named name, or to $WAYLAND_DISPLAY if name
// is empty.
func Connect(logger log.Logger, name string) (*Client, error) {
	fd, err := dial(name)
	if err != nil {
		return nil, err
	}

	return newClient(logger, fd), nil
}

// newClient takes ownership of fd and queues the get_registry request.
func newClient(logger log.Logger, fd int) *Client {
	c := &Client{
		fd:      fd,
		log:     logger.WithNamespaceAppended("wayland"),
		nextID:  displayID,
		objects: map[uint32]object{displayID: {kind: kindDisplay}},
		outputs: map[display.OutputID]*output{},

		callbacks: map[uint32]bool{},
	}

	c.registryID = c.newObject(object{kind: kindRegistry})
	c.queue(newMessage().putUint(c.registryID), displayID, displayGetRegistry)

	return c
}

func dial(name string) (int, error) {
	if socket := os.Getenv("WAYLAND_SOCKET"); socket != "" && name == "" {
		os.Unsetenv("WAYLAND_SOCKET")

		fd, err := strconv.Atoi(socket)
		if err != nil {
			return -1, fmt.Errorf("parsing WAYLAND_SOCKET: %w", err)
		}

		unix.CloseOnExec(fd)

		return fd, nil
	}

	path, err := socketPath(name)
	if err != nil {
		return -1, err
	}

	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, fmt.Errorf("socket: %w", err)
	}

	if err := unix.Connect(fd, &unix.SockaddrUnix{Name: path}); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("connect to %s: %w", path, err)
	}

	return fd, nil
}

func socketPath(name string) (string, error) {
	if name == "" {
		name = os.Getenv("WAYLAND_DISPLAY")
	}

	if name == "" {
		name = "wayland-0"
	}

	if filepath.IsAbs(name) {
		return name, nil
	}

	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir == "" {
		return "", errors.New("XDG_RUNTIME_DIR is not set")
	}

	return filepath.Join(runtimeDir, name), nil
}

func (c *Client) newObject(o object) uint32 {
	c.nextID++
	c.objects[c.nextID] = o

	return c.nextID
}

// queue appends a request to the output buffer. It is written by Flush.
func (c *Client) queue(m *message, sender uint32, opcode uint16) {
	c.out = append(c.out, m.finish(sender, opcode)...)
	c.outFds = append(c.outFds, m.fds...)
}

// Fd returns the socket to poll for events.
func (c *Client) Fd() int {
	return c.fd
}

// Flush writes all queued requests and closes the file descriptors that were
// sent with them.
func (c *Client) Flush() error {
	defer c.closeOutFds()

	for len(c.out) > 0 {
		var oob []byte
		if len(c.outFds) > 0 {
			oob = unix.UnixRights(c.outFds...)
		}

		n, err := unix.SendmsgN(c.fd, c.out, oob, nil, unix.MSG_NOSIGNAL)
		if errors.Is(err, unix.EINTR) {
			continue
		}

		if err != nil {
			return fmt.Errorf("sendmsg: %w", err)
		}

		// File descriptors are sent along with the first byte.
		c.closeOutFds()

		c.out = c.out[n:]
	}

	c.out = c.out[:0]

	return nil
}

func (c *Client) closeOutFds() {
	for _, fd := range c.outFds {
		unix.Close(fd)
	}

	c.outFds = c.outFds[:0]
}

// Dispatch reads the events that are available and delivers them to h.
func (c *Client) Dispatch(h display.Handler) error {
	if err := c.read(unix.MSG_DONTWAIT); err != nil {
		return err
	}

	return c.dispatchBuffered(h)
}

// Roundtrip sends a sync request and dispatches events until the server
// answers it.
func (c *Client) Roundtrip(h display.Handler) error {
	callbackID := c.newObject(object{kind: kindCallback})
	c.callbacks[callbackID] = false

	defer delete(c.callbacks, callbackID)

	c.queue(newMessage().putUint(callbackID), displayID, displaySync)

	if err := c.Flush(); err != nil {
		return err
	}

	for !c.callbacks[callbackID] {
		if err := c.read(0); err != nil {
			return err
		}

		if err := c.dispatchBuffered(h); err != nil {
			return err
		}
	}

	return nil
}

func (c *Client) read(flags int) error {
	buf := make([]byte, 4096)
	oob := make([]byte, unix.CmsgSpace(28*4))

	var (
		n, oobn int
		err     error
	)

	for {
		n, oobn, _, _, err = unix.Recvmsg(c.fd, buf, oob, flags|unix.MSG_CMSG_CLOEXEC)
		if !errors.Is(err, unix.EINTR) {
			break
		}
	}

	if errors.Is(err, unix.EAGAIN) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("recvmsg: %w", err)
	}

	if oobn > 0 {
		// None of the events handled here carry file descriptors.
		c.closeReceivedFds(oob[:oobn])
	}

	if n == 0 {
		return errors.New("connection closed by display server")
	}

	c.in = append(c.in, buf[:n]...)

	return nil
}

func (c *Client) closeReceivedFds(oob []byte) {
	msgs, err := unix.ParseSocketControlMessage(oob)
	if err != nil {
		c.log.Warn("Failed to parse control message", log.Ctx{
			"error": err,
		})

		return
	}

	for i := range msgs {
		fds, err := unix.ParseUnixRights(&msgs[i])
		if err != nil {
			continue
		}

		for _, fd := range fds {
			unix.Close(fd)
		}
	}
}

func (c *Client) dispatchBuffered(h display.Handler) error {
	for {
		ev, n, err := parseEvent(c.in)
		if err != nil {
			return err
		}

		if n == 0 {
			break
		}

		if err := c.handleEvent(h, ev); err != nil {
			return err
		}

		c.in = c.in[n:]
	}

	if len(c.in) == 0 {
		c.in = nil
	}

	return nil
}

func (c *Client) handleEvent(h display.Handler, ev event) error {
	obj, ok := c.objects[ev.sender]
	if !ok {
		// Events for objects that were destroyed on our side.
		return nil
	}

	args := &argReader{buf: ev.args}

	switch obj.kind {
	case kindDisplay:
		switch ev.opcode {
		case displayError:
			err := &ProtocolError{
				ObjectID: args.readUint(),
				Code:     args.readUint(),
				Message:  args.readString(),
			}

			return err
		case displayDeleteID:
			id := args.readUint()
			if o, ok := c.objects[id]; ok && o.kind == kindCallback {
				delete(c.objects, id)
			}
		}
	case kindRegistry:
		switch ev.opcode {
		case registryGlobal:
			name := args.readUint()
			iface := args.readString()
			version := args.readUint()

			if args.err != nil {
				return fmt.Errorf("wl_registry.global: %w", args.err)
			}

			c.handleGlobal(h, name, iface, version)
		case registryGlobalRemove:
			c.handleGlobalRemove(h, args.readUint())
		}
	case kindCallback:
		if ev.opcode == callbackDone {
			c.callbacks[ev.sender] = true
		}
	case kindOutput:
		if ev.opcode == outputName {
			if o, ok := c.outputs[obj.output]; ok {
				o.name = args.readString()

				c.log.Debug("Output name", log.Ctx{
					"output": obj.output,
					"name":   o.name,
				})
			}
		}
	case kindControl:
		switch ev.opcode {
		case controlGammaSize:
			h.GammaSize(obj.output, args.readUint())
		case controlFailed:
			h.GammaFailed(obj.output)
		}
	}

	if args.err != nil {
		return fmt.Errorf("event %d on object %d: %w", ev.opcode, ev.sender, args.err)
	}

	return nil
}

func (c *Client) handleGlobal(h display.Handler, name uint32, iface string, version uint32) {
	switch iface {
	case outputInterface:
		version = min(version, maxOutputVersion)

		outputID := display.OutputID(name)
		id := c.bind(name, iface, version, object{kind: kindOutput, output: outputID})

		c.outputs[outputID] = &output{
			id:      id,
			version: version,
		}

		h.OutputAdded(outputID)
	case gammaControlManagerInterface:
		if c.managerID != 0 {
			return
		}

		c.managerName = name
		c.managerID = c.bind(name, iface, 1, object{kind: kindManager})

		h.ManagerAvailable()
	}
}

func (c *Client) handleGlobalRemove(h display.Handler, name uint32) {
	if name == c.managerName && c.managerID != 0 {
		c.log.Warn("Gamma control manager removed", nil)

		c.queue(newMessage(), c.managerID, managerDestroy)
		delete(c.objects, c.managerID)

		c.managerID = 0
		c.managerName = 0

		return
	}

	outputID := display.OutputID(name)

	o, ok := c.outputs[outputID]
	if !ok {
		return
	}

	h.OutputRemoved(outputID)

	if o.version >= 3 {
		c.queue(newMessage(), o.id, outputRelease)
	}

	delete(c.objects, o.id)
	delete(c.outputs, outputID)
}

func (c *Client) bind(name uint32, iface string, version uint32, o object) uint32 {
	id := c.newObject(o)

	c.queue(newMessage().
		putUint(name).
		putString(iface).
		putUint(version).
		putUint(id), c.registryID, registryBind)

	return id
}

// GetGammaControl creates a zwlr_gamma_control_v1 for the output.
func (c *Client) GetGammaControl(id display.OutputID) (display.GammaControl, error) {
	if c.managerID == 0 {
		return nil, display.ErrNoGammaControlSupport
	}

	o, ok := c.outputs[id]
	if !ok {
		return nil, fmt.Errorf("output %d: %w", id, display.ErrUnknownOutput)
	}

	controlID := c.newObject(object{kind: kindControl, output: id})

	c.queue(newMessage().
		putUint(controlID).
		putUint(o.id), c.managerID, managerGetGammaControl)

	return &gammaControl{
		client: c,
		id:     controlID,
	}, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	c.closeOutFds()

	if err := unix.Close(c.fd); err != nil {
		return fmt.Errorf("close: %w", err)
	}

	return nil
}

type gammaControl struct {
	client    *Client
	id        uint32
	destroyed bool
}

// SetGamma queues a set_gamma request with a duplicate of fd.
func (g *gammaControl) SetGamma(fd int) error {
	if g.destroyed {
		return errors.New("gamma control destroyed")
	}

	dup, err := unix.FcntlInt(uintptr(fd), unix.F_DUPFD_CLOEXEC, 0)
	if err != nil {
		return fmt.Errorf("dup: %w", err)
	}

	g.client.queue(newMessage().putFd(dup), g.id, controlSetGamma)

	return nil
}

func (g *gammaControl) Destroy() error {
	if g.destroyed {
		return nil
	}

	g.destroyed = true

	g.client.queue(newMessage(), g.id, controlDestroy)
	delete(g.client.objects, g.id)

	return nil
}
