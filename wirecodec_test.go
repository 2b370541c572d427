// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package rfbauto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadWriteRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeUint8(&buf, 0xAB))
	require.NoError(t, writeUint16(&buf, 0xBEEF))
	require.NoError(t, writeUint32(&buf, 0xCAFEBABE))
	require.NoError(t, writeInt32(&buf, -223))

	got8, err := readUint8(&buf)
	require.NoError(t, err)
	assert.Equal(t, uint8(0xAB), got8)

	got16, err := readUint16(&buf)
	require.NoError(t, err)
	assert.Equal(t, uint16(0xBEEF), got16)

	got32, err := readUint32(&buf)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xCAFEBABE), got32)

	gotI32, err := readInt32(&buf)
	require.NoError(t, err)
	assert.Equal(t, int32(-223), gotI32)
}

func TestReadBytesShortReadErrors(t *testing.T) {
	buf := bytes.NewBuffer([]byte{1, 2, 3})
	_, err := readBytes(buf, 10)
	assert.Error(t, err)
}

func TestDrain(t *testing.T) {
	buf := bytes.NewBuffer([]byte{1, 2, 3, 4, 5})
	require.NoError(t, drain(buf, 3))
	rest, err := readBytes(buf, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{4, 5}, rest)
}

func TestDrainZeroIsNoop(t *testing.T) {
	buf := bytes.NewBuffer([]byte{1, 2, 3})
	require.NoError(t, drain(buf, 0))
	assert.Equal(t, 3, buf.Len())
}
