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

func TestAuthRegistryNegotiatePrefersNoneOverPassword(t *testing.T) {
	registry := NewAuthRegistry()
	auth, secType, err := registry.NegotiateAuth(context.Background(), []uint8{2, 1})
	require.NoError(t, err)
	assert.Equal(t, uint8(1), secType)
	assert.Equal(t, "None", auth.String())
}

func TestAuthRegistryNegotiateFallsBackToPassword(t *testing.T) {
	registry := NewAuthRegistry()
	auth, secType, err := registry.NegotiateAuth(context.Background(), []uint8{2})
	require.NoError(t, err)
	assert.Equal(t, uint8(2), secType)
	assert.Equal(t, "VNC Password", auth.String())
}

func TestAuthRegistryNegotiateRejectsUnsupportedTypes(t *testing.T) {
	registry := NewAuthRegistry()
	_, _, err := registry.NegotiateAuth(context.Background(), []uint8{16})
	assert.True(t, IsVNCError(err, ErrUnsupportedSecurityTypes))
}

func TestClientAuthNoneHandshakeIsNoop(t *testing.T) {
	auth := &ClientAuthNone{}
	var buf bytes.Buffer
	assert.NoError(t, auth.Handshake(context.Background(), &buf))
	assert.Zero(t, buf.Len())
}

func TestPasswordAuthHandshakeWritesResponse(t *testing.T) {
	auth := NewPasswordAuth("secret")
	var buf bytes.Buffer
	buf.Write(make([]byte, vncChallengeSize))

	require.NoError(t, auth.Handshake(context.Background(), &buf))
	assert.Equal(t, vncChallengeSize, buf.Len())
}

func TestPasswordAuthClearPasswordErasesField(t *testing.T) {
	auth := NewPasswordAuth("secret")
	auth.ClearPassword()
	assert.Empty(t, auth.Password)
}
