package wayland

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage_finish(t *testing.T) {
	buf := newMessage().
		putUint(7).
		putString("wl_output").
		putUint(4).
		finish(2, registryBind)

	// header + uint + (len + "wl_output\0" padded to 12) + uint
	require.Len(t, buf, 8+4+4+12+4)

	assert.Equal(t, uint32(2), binary.NativeEndian.Uint32(buf[0:4]))
	assert.Equal(t, uint32(len(buf))<<16|registryBind, binary.NativeEndian.Uint32(buf[4:8]))
	assert.Equal(t, uint32(7), binary.NativeEndian.Uint32(buf[8:12]))
	assert.Equal(t, uint32(10), binary.NativeEndian.Uint32(buf[12:16]))
	assert.Equal(t, "wl_output\x00\x00\x00", string(buf[16:28]))
	assert.Equal(t, uint32(4), binary.NativeEndian.Uint32(buf[28:32]))
}

func TestMessage_putFd(t *testing.T) {
	m := newMessage().putFd(42)

	buf := m.finish(3, controlSetGamma)

	// File descriptors do not take up space in the message.
	assert.Len(t, buf, headerSize)
	assert.Equal(t, []int{42}, m.fds)
}

func TestParseEvent(t *testing.T) {
	first := newMessage().putUint(256).finish(6, controlGammaSize)
	second := newMessage().putString("DP-1").finish(4, outputName)

	buf := append(append([]byte{}, first...), second...)

	ev, n, err := parseEvent(buf)
	require.NoError(t, err)
	assert.Equal(t, len(first), n)
	assert.Equal(t, uint32(6), ev.sender)
	assert.Equal(t, uint16(controlGammaSize), ev.opcode)

	args := &argReader{buf: ev.args}
	assert.Equal(t, uint32(256), args.readUint())
	require.NoError(t, args.err)

	ev, n, err = parseEvent(buf[n:])
	require.NoError(t, err)
	assert.Equal(t, len(second), n)

	args = &argReader{buf: ev.args}
	assert.Equal(t, "DP-1", args.readString())
	require.NoError(t, args.err)
	assert.Empty(t, args.buf)
}

func TestParseEvent_incomplete(t *testing.T) {
	buf := newMessage().putUint(1).putUint(2).finish(1, displayDeleteID)

	for _, size := range []int{0, 4, headerSize, len(buf) - 1} {
		_, n, err := parseEvent(buf[:size])
		require.NoError(t, err)
		assert.Zero(t, n, "size: %d", size)
	}
}

func TestParseEvent_invalidSize(t *testing.T) {
	buf := make([]byte, headerSize)
	binary.NativeEndian.PutUint32(buf[4:8], 6<<16)

	_, _, err := parseEvent(buf)
	assert.Error(t, err)
}

func TestArgReader_short(t *testing.T) {
	args := &argReader{buf: []byte{1, 0}}
	assert.Zero(t, args.readUint())
	assert.ErrorIs(t, args.err, errShortMessage)

	// Subsequent reads keep the first error.
	assert.Empty(t, args.readString())
	assert.ErrorIs(t, args.err, errShortMessage)

	buf := newMessage().putString("truncated").buf[headerSize:]
	args = &argReader{buf: buf[:8]}
	assert.Empty(t, args.readString())
	assert.ErrorIs(t, args.err, errShortMessage)
}

func TestArgReader_nullString(t *testing.T) {
	args := &argReader{buf: make([]byte, 4)}
	assert.Empty(t, args.readString())
	assert.NoError(t, args.err)
}
