// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package rfbauto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchFramebufferUpdateRawRectangle(t *testing.T) {
	var buf bytes.Buffer
	_ = writeUint8(&buf, msgFramebufferUpdate)
	_ = writeUint8(&buf, 0)
	_ = writeUint16(&buf, 1)
	_ = writeUint16(&buf, 0)
	_ = writeUint16(&buf, 0)
	_ = writeUint16(&buf, 2)
	_ = writeUint16(&buf, 2)
	_ = writeInt32(&buf, encodingRaw)
	buf.Write([]byte{1, 2, 3, 4})

	fb := NewFramebuffer(2, 2, 1)
	isUpdate, err := dispatchServerMessage(&buf, fb, PixelFormat{BPP: 8}, 0)
	require.NoError(t, err)
	assert.True(t, isUpdate)
	assert.Equal(t, []byte{1, 2, 3, 4}, fb.Flatten())
}

func TestDispatchFramebufferUpdateDesktopSizeAppliesBeforeRaw(t *testing.T) {
	var buf bytes.Buffer
	_ = writeUint8(&buf, msgFramebufferUpdate)
	_ = writeUint8(&buf, 0)
	_ = writeUint16(&buf, 2)

	// rectangle 1: DesktopSize growing to 3x3
	_ = writeUint16(&buf, 0)
	_ = writeUint16(&buf, 0)
	_ = writeUint16(&buf, 3)
	_ = writeUint16(&buf, 3)
	_ = writeInt32(&buf, encodingDesktopSize)

	// rectangle 2: Raw paint of the new bottom-right corner
	_ = writeUint16(&buf, 2)
	_ = writeUint16(&buf, 2)
	_ = writeUint16(&buf, 1)
	_ = writeUint16(&buf, 1)
	_ = writeInt32(&buf, encodingRaw)
	buf.Write([]byte{0x42})

	fb := NewFramebuffer(2, 2, 1)
	isUpdate, err := dispatchServerMessage(&buf, fb, PixelFormat{BPP: 8}, 0)
	require.NoError(t, err)
	assert.True(t, isUpdate)
	assert.Equal(t, 3, fb.Width())
	assert.Equal(t, 3, fb.Height())
	assert.Equal(t, byte(0x42), fb.Flatten()[2*3+2])
}

func TestDispatchUnsupportedEncodingErrors(t *testing.T) {
	var buf bytes.Buffer
	_ = writeUint8(&buf, msgFramebufferUpdate)
	_ = writeUint8(&buf, 0)
	_ = writeUint16(&buf, 1)
	_ = writeUint16(&buf, 0)
	_ = writeUint16(&buf, 0)
	_ = writeUint16(&buf, 1)
	_ = writeUint16(&buf, 1)
	_ = writeInt32(&buf, 5) // Hextile, unsupported

	fb := NewFramebuffer(2, 2, 1)
	_, err := dispatchServerMessage(&buf, fb, PixelFormat{BPP: 8}, 0)
	assert.True(t, IsVNCError(err, ErrUnsupportedEncoding))
}

func TestDispatchSetColourMapEntriesDrains(t *testing.T) {
	var buf bytes.Buffer
	_ = writeUint8(&buf, msgSetColourMapEntries)
	_ = writeUint8(&buf, 0)
	_ = writeUint16(&buf, 0)
	_ = writeUint16(&buf, 2)
	buf.Write(make([]byte, 12))
	buf.Write([]byte{0xAA}) // trailing byte for a subsequent message

	fb := NewFramebuffer(1, 1, 1)
	isUpdate, err := dispatchServerMessage(&buf, fb, PixelFormat{BPP: 8}, 0)
	require.NoError(t, err)
	assert.False(t, isUpdate)
	assert.Equal(t, 1, buf.Len())
}

func TestDispatchBellIsNoBody(t *testing.T) {
	var buf bytes.Buffer
	_ = writeUint8(&buf, msgBell)

	fb := NewFramebuffer(1, 1, 1)
	isUpdate, err := dispatchServerMessage(&buf, fb, PixelFormat{BPP: 8}, 0)
	require.NoError(t, err)
	assert.False(t, isUpdate)
}

// TestDispatchServerCutText asserts the payload is drained, not decoded or
// returned: clipboard content semantics are out of scope (see Non-goals),
// so the only observable effect of a ServerCutText message is that its
// bytes are consumed off the wire and the next message can be read cleanly.
func TestDispatchServerCutText(t *testing.T) {
	var buf bytes.Buffer
	_ = writeUint8(&buf, msgServerCutText)
	buf.Write([]byte{0, 0, 0})
	_ = writeUint32(&buf, 5)
	buf.WriteString("hello")
	buf.Write([]byte{0xAA}) // trailing byte for a subsequent message

	fb := NewFramebuffer(1, 1, 1)
	isUpdate, err := dispatchServerMessage(&buf, fb, PixelFormat{BPP: 8}, 0)
	require.NoError(t, err)
	assert.False(t, isUpdate)
	assert.Equal(t, 1, buf.Len())
}

func TestDispatchServerCutTextRejectsOversizedPayload(t *testing.T) {
	var buf bytes.Buffer
	_ = writeUint8(&buf, msgServerCutText)
	buf.Write([]byte{0, 0, 0})
	_ = writeUint32(&buf, 10)
	buf.WriteString("0123456789")

	fb := NewFramebuffer(1, 1, 1)
	_, err := dispatchServerMessage(&buf, fb, PixelFormat{BPP: 8}, 4)
	assert.Error(t, err)
}

func TestDispatchUnknownMessageTypeIsProtocolViolation(t *testing.T) {
	var buf bytes.Buffer
	_ = writeUint8(&buf, 99)

	fb := NewFramebuffer(1, 1, 1)
	_, err := dispatchServerMessage(&buf, fb, PixelFormat{BPP: 8}, 0)
	assert.True(t, IsVNCError(err, ErrProtocolViolation))
}
