package wayland

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const headerSize = 8

var errShortMessage = errors.New("short message")

// message is a request being encoded.
type message struct {
	buf []byte
	fds []int
}

func newMessage() *message {
	return &message{
		buf: make([]byte, headerSize, 64),
	}
}

func (m *message) putUint(v uint32) *message {
	m.buf = binary.NativeEndian.AppendUint32(m.buf, v)
	return m
}

func (m *message) putString(s string) *message {
	m.putUint(uint32(len(s) + 1))
	m.buf = append(m.buf, s...)
	m.buf = append(m.buf, 0)

	for len(m.buf)%4 != 0 {
		m.buf = append(m.buf, 0)
	}

	return m
}

func (m *message) putFd(fd int) *message {
	m.fds = append(m.fds, fd)
	return m
}

// finish writes the header and returns the encoded message.
func (m *message) finish(sender uint32, opcode uint16) []byte {
	binary.NativeEndian.PutUint32(m.buf[0:4], sender)
	binary.NativeEndian.PutUint32(m.buf[4:8], uint32(len(m.buf))<<16|uint32(opcode))

	return m.buf
}

// event is a decoded event header with its arguments.
type event struct {
	sender uint32
	opcode uint16
	args   []byte
}

// parseEvent decodes the first event in buf. It returns the number of bytes
// consumed, or 0 if buf does not contain a complete event.
func parseEvent(buf []byte) (event, int, error) {
	if len(buf) < headerSize {
		return event{}, 0, nil
	}

	sender := binary.NativeEndian.Uint32(buf[0:4])
	word := binary.NativeEndian.Uint32(buf[4:8])
	size := int(word >> 16)

	if size < headerSize || size%4 != 0 {
		return event{}, 0, fmt.Errorf("invalid message size %d", size)
	}

	if len(buf) < size {
		return event{}, 0, nil
	}

	return event{
		sender: sender,
		opcode: uint16(word),
		args:   buf[headerSize:size],
	}, size, nil
}

// argReader reads arguments from an event.
type argReader struct {
	buf []byte
	err error
}

func (r *argReader) readUint() uint32 {
	if r.err != nil {
		return 0
	}

	if len(r.buf) < 4 {
		r.err = errShortMessage
		return 0
	}

	v := binary.NativeEndian.Uint32(r.buf)
	r.buf = r.buf[4:]

	return v
}

func (r *argReader) readString() string {
	size := int(r.readUint())
	if r.err != nil || size == 0 {
		return ""
	}

	padded := (size + 3) &^ 3
	if len(r.buf) < padded {
		r.err = errShortMessage
		return ""
	}

	s := string(r.buf[:size-1])
	r.buf = r.buf[padded:]

	return s
}
