// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package rfbauto

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPixelFormatRoundTrip(t *testing.T) {
	wire := writePixelFormat(DefaultPixelFormat)
	assert.Len(t, wire, 16)

	var got PixelFormat
	require.NoError(t, readPixelFormat(bytes.NewReader(wire), &got))
	assert.Equal(t, DefaultPixelFormat, got)
}

func TestDefaultPixelFormatBytesPerPixel(t *testing.T) {
	assert.Equal(t, 4, DefaultPixelFormat.BytesPerPixel())
}

func TestPixelFormatValidateRejectsBadBPP(t *testing.T) {
	pf := DefaultPixelFormat
	pf.BPP = 24
	assert.Error(t, pf.Validate())
}

func TestPixelFormatValidateRejectsZeroColorMax(t *testing.T) {
	pf := DefaultPixelFormat
	pf.RedMax, pf.GreenMax, pf.BlueMax = 0, 0, 0
	assert.Error(t, pf.Validate())
}

func TestPixelFormatValidateAcceptsDefault(t *testing.T) {
	assert.NoError(t, DefaultPixelFormat.Validate())
}

func TestConvertPixelFormatIdentity(t *testing.T) {
	src := []byte{0xFF, 0x00, 0x00, 0x00}
	out, err := ConvertPixelFormat(context.Background(), src, DefaultPixelFormat, DefaultPixelFormat)
	require.NoError(t, err)
	assert.Len(t, out, 4)
}
