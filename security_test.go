// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package rfbauto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDESChallengeKeyFixedVector pins the password "password" to the key
// bytes a bit-reversed-per-RFC-6143 DES key schedule must produce: each
// ASCII byte of "password" reversed bit-for-bit (bit 0 <-> bit 7, ...).
// Any change to the padding, truncation, or reversal steps would break
// interoperability with real servers, so this vector is load-bearing.
func TestDESChallengeKeyFixedVector(t *testing.T) {
	key := desChallengeKey("password")
	assert.Equal(t, []byte{0x0E, 0x86, 0xCE, 0xCE, 0xEE, 0xF6, 0x4E, 0x26}, key)
}

func TestDESChallengeKeyPadsShortPasswords(t *testing.T) {
	key := desChallengeKey("ab")
	assert.Len(t, key, 8)
}

func TestDESChallengeKeyTruncatesLongPasswords(t *testing.T) {
	short := desChallengeKey("password")
	long := desChallengeKey("passwordXXXXXXXX")
	assert.Equal(t, short, long)
}

func TestEncryptVNCChallengeRejectsWrongSize(t *testing.T) {
	_, err := encryptVNCChallenge("password", make([]byte, 8))
	assert.Error(t, err)
}

func TestEncryptVNCChallengeProducesTwoBlocks(t *testing.T) {
	challenge := make([]byte, vncChallengeSize)
	for i := range challenge {
		challenge[i] = byte(i)
	}
	response, err := encryptVNCChallenge("password", challenge)
	require.NoError(t, err)
	assert.Len(t, response, vncChallengeSize)
	assert.NotEqual(t, challenge, response)
}

func TestEncryptVNCChallengeIsDeterministic(t *testing.T) {
	challenge := make([]byte, vncChallengeSize)
	a, err := encryptVNCChallenge("password", challenge)
	require.NoError(t, err)
	b, err := encryptVNCChallenge("password", challenge)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestConstantTimeAuthSleepsOutRemainder(t *testing.T) {
	start := time.Now()
	err := constantTimeAuth(func() error { return nil }, 30*time.Millisecond)
	elapsed := time.Since(start)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, elapsed, 30*time.Millisecond)
}

func TestConstantTimeAuthPropagatesError(t *testing.T) {
	sentinel := assert.AnError
	err := constantTimeAuth(func() error { return sentinel }, time.Millisecond)
	assert.Equal(t, sentinel, err)
}

func TestSecureMemoryClearBytesZeroes(t *testing.T) {
	data := []byte{1, 2, 3, 4}
	(secureMemory{}).clearBytes(data)
	assert.Equal(t, []byte{0, 0, 0, 0}, data)
}
