// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package rfbauto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeysymPrintableRune(t *testing.T) {
	sym, err := Keysym('a')
	require.NoError(t, err)
	assert.Equal(t, uint32('a'), sym)
}

func TestKeysymPrintableString(t *testing.T) {
	sym, err := Keysym("$")
	require.NoError(t, err)
	assert.Equal(t, uint32('$'), sym)
}

func TestKeysymNamedKey(t *testing.T) {
	sym, err := Keysym("Enter")
	require.NoError(t, err)
	assert.Equal(t, uint32(KeyEnter), sym)

	sym, err = Keysym("return")
	require.NoError(t, err)
	assert.Equal(t, uint32(KeyEnter), sym)
}

func TestKeysymRawIntegers(t *testing.T) {
	sym, err := Keysym(uint32(0xffbe))
	require.NoError(t, err)
	assert.Equal(t, uint32(0xffbe), sym)

	sym, err = Keysym(int(0xff08))
	require.NoError(t, err)
	assert.Equal(t, uint32(KeyBackspace), sym)
}

func TestKeysymUnrecognizedNameErrors(t *testing.T) {
	_, err := Keysym("not-a-real-key")
	assert.Error(t, err)
}

func TestKeysymNonPrintableRuneErrors(t *testing.T) {
	_, err := Keysym(rune(0x01))
	assert.Error(t, err)
}

func TestKeysymUnsupportedTypeErrors(t *testing.T) {
	_, err := Keysym(3.14)
	assert.Error(t, err)
}
