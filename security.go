// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package rfbauto

import (
	"crypto/des" // #nosec G502 - DES is required by the VNC authentication scheme (RFC 6143 §7.2.2)
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"runtime"
	"time"
)

// SECURITY NOTE: VNC authentication is built on DES, which is
// cryptographically weak by modern standards and not salted. It is used
// here only because the wire protocol mandates it. Prefer tunnelling VNC
// over SSH or a TLS-capable variant where the deployment allows it.

// VNC authentication sizing constants.
const (
	vncChallengeSize = 16
	desKeySize       = 8
)

// secureMemory provides best-effort clearing of sensitive byte slices.
type secureMemory struct{}

// clearBytes overwrites data with random bytes, then zeros, to reduce the
// chance a later heap scan recovers a stale password key.
func (secureMemory) clearBytes(data []byte) {
	if len(data) == 0 {
		return
	}
	if random := make([]byte, len(data)); true {
		if _, err := rand.Read(random); err == nil {
			copy(data, random)
		}
	}
	for i := range data {
		data[i] = 0
	}
	runtime.GC()
}

// constantTimeEqual compares two byte slices without leaking timing
// information about where they first differ.
func constantTimeEqual(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// desChallengeKey derives the 8-byte DES key VNC authentication uses from a
// password: pad with NUL bytes to at least 8 bytes, truncate to exactly 8,
// then bit-reverse each byte (bit 0 <-> bit 7, bit 1 <-> bit 6, ...). The
// bit reversal is protocol-mandated, not a security enhancement — RFC 6143
// inherited it from the original RealVNC DES key schedule.
func desChallengeKey(password string) []byte {
	padded := make([]byte, desKeySize)
	copy(padded, password)

	key := make([]byte, desKeySize)
	for i, b := range padded {
		key[i] = reverseBits[b]
	}
	return key
}

// reverseBits maps a byte to its bit-reversed counterpart via table lookup,
// which is both fast and constant-time.
var reverseBits = [256]byte{
	0x00, 0x80, 0x40, 0xc0, 0x20, 0xa0, 0x60, 0xe0,
	0x10, 0x90, 0x50, 0xd0, 0x30, 0xb0, 0x70, 0xf0,
	0x08, 0x88, 0x48, 0xc8, 0x28, 0xa8, 0x68, 0xe8,
	0x18, 0x98, 0x58, 0xd8, 0x38, 0xb8, 0x78, 0xf8,
	0x04, 0x84, 0x44, 0xc4, 0x24, 0xa4, 0x64, 0xe4,
	0x14, 0x94, 0x54, 0xd4, 0x34, 0xb4, 0x74, 0xf4,
	0x0c, 0x8c, 0x4c, 0xcc, 0x2c, 0xac, 0x6c, 0xec,
	0x1c, 0x9c, 0x5c, 0xdc, 0x3c, 0xbc, 0x7c, 0xfc,
	0x02, 0x82, 0x42, 0xc2, 0x22, 0xa2, 0x62, 0xe2,
	0x12, 0x92, 0x52, 0xd2, 0x32, 0xb2, 0x72, 0xf2,
	0x0a, 0x8a, 0x4a, 0xca, 0x2a, 0xaa, 0x6a, 0xea,
	0x1a, 0x9a, 0x5a, 0xda, 0x3a, 0xba, 0x7a, 0xfa,
	0x06, 0x86, 0x46, 0xc6, 0x26, 0xa6, 0x66, 0xe6,
	0x16, 0x96, 0x56, 0xd6, 0x36, 0xb6, 0x76, 0xf6,
	0x0e, 0x8e, 0x4e, 0xce, 0x2e, 0xae, 0x6e, 0xee,
	0x1e, 0x9e, 0x5e, 0xde, 0x3e, 0xbe, 0x7e, 0xfe,
	0x01, 0x81, 0x41, 0xc1, 0x21, 0xa1, 0x61, 0xe1,
	0x11, 0x91, 0x51, 0xd1, 0x31, 0xb1, 0x71, 0xf1,
	0x09, 0x89, 0x49, 0xc9, 0x29, 0xa9, 0x69, 0xe9,
	0x19, 0x99, 0x59, 0xd9, 0x39, 0xb9, 0x79, 0xf9,
	0x05, 0x85, 0x45, 0xc5, 0x25, 0xa5, 0x65, 0xe5,
	0x15, 0x95, 0x55, 0xd5, 0x35, 0xb5, 0x75, 0xf5,
	0x0d, 0x8d, 0x4d, 0xcd, 0x2d, 0xad, 0x6d, 0xed,
	0x1d, 0x9d, 0x5d, 0xdd, 0x3d, 0xbd, 0x7d, 0xfd,
	0x03, 0x83, 0x43, 0xc3, 0x23, 0xa3, 0x63, 0xe3,
	0x13, 0x93, 0x53, 0xd3, 0x33, 0xb3, 0x73, 0xf3,
	0x0b, 0x8b, 0x4b, 0xcb, 0x2b, 0xab, 0x6b, 0xeb,
	0x1b, 0x9b, 0x5b, 0xdb, 0x3b, 0xbb, 0x7b, 0xfb,
	0x07, 0x87, 0x47, 0xc7, 0x27, 0xa7, 0x67, 0xe7,
	0x17, 0x97, 0x57, 0xd7, 0x37, 0xb7, 0x77, 0xf7,
	0x0f, 0x8f, 0x4f, 0xcf, 0x2f, 0xaf, 0x6f, 0xef,
	0x1f, 0x9f, 0x5f, 0xdf, 0x3f, 0xbf, 0x7f, 0xff,
}

// encryptVNCChallenge encrypts a 16-byte VNC authentication challenge with
// the DES key derived from password, per RFC 6143 §7.2.2: the challenge is
// encrypted as two independent 8-byte ECB blocks (not CBC-chained).
func encryptVNCChallenge(password string, challenge []byte) ([]byte, error) {
	if len(challenge) != vncChallengeSize {
		return nil, NewVNCError("encryptVNCChallenge", ErrUnsupportedSecurityTypes,
			fmt.Sprintf("challenge must be exactly %d bytes, got %d", vncChallengeSize, len(challenge)), nil)
	}

	var secMem secureMemory
	key := desChallengeKey(password)
	defer secMem.clearBytes(key)

	block, err := des.NewCipher(key) // #nosec G405 - DES is required by the VNC authentication scheme
	if err != nil {
		return nil, NewVNCError("encryptVNCChallenge", ErrUnsupportedSecurityTypes, "failed to construct DES cipher", err)
	}

	response := make([]byte, vncChallengeSize)
	block.Encrypt(response[0:desKeySize], challenge[0:desKeySize])
	block.Encrypt(response[desKeySize:vncChallengeSize], challenge[desKeySize:vncChallengeSize])
	return response, nil
}

// constantTimeAuth runs authFunc and, if it completes faster than
// baseDelay, sleeps out the remainder (plus a small jitter) so that a
// network observer cannot distinguish "wrong password, rejected instantly"
// from "right password, slow handshake" by timing alone.
func constantTimeAuth(authFunc func() error, baseDelay time.Duration) error {
	start := time.Now()
	err := authFunc()
	elapsed := time.Since(start)

	if elapsed >= baseDelay {
		return err
	}

	remaining := baseDelay - elapsed
	jitterBytes := make([]byte, 2)
	jitter := remaining / 20
	if _, rerr := rand.Read(jitterBytes); rerr == nil {
		span := uint32(jitterBytes[0])<<8 | uint32(jitterBytes[1])
		jitter = time.Duration(span%uint32(remaining/10+1)) * time.Nanosecond // #nosec G115 - remaining is a bounded positive duration
	}
	time.Sleep(remaining + jitter)
	return err
}
