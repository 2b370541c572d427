// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package rfbauto

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultClientConfig(t *testing.T) {
	cfg := defaultClientConfig()
	assert.Equal(t, DefaultPixelFormat, cfg.PixelFormat)
	assert.Equal(t, time.Second, cfg.RecvTimeout)
	assert.IsType(t, &NoOpLogger{}, cfg.Logger)
}

func TestClientOptionsApply(t *testing.T) {
	cfg := defaultClientConfig()
	WithPassword("secret")(cfg)
	WithShare(true)(cfg)
	WithRecvTimeout(5 * time.Second)(cfg)

	assert.Equal(t, "secret", cfg.Password)
	assert.True(t, cfg.Share)
	assert.Equal(t, 5*time.Second, cfg.RecvTimeout)
}

func TestWithLoggerIgnoresNil(t *testing.T) {
	cfg := defaultClientConfig()
	original := cfg.Logger
	WithLogger(nil)(cfg)
	assert.Equal(t, original, cfg.Logger)
}

func TestLoadSessionConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.yaml")
	contents := `
hostname: vnc.example.internal
port: 5901
password: hunter2
share: true
recv_timeout: 2s
log_level: debug
log_format: standard
pixel_format:
  bpp: 32
  depth: 24
  big_endian: false
  true_color: true
  red_max: 255
  green_max: 255
  blue_max: 255
  red_shift: 16
  green_shift: 8
  blue_shift: 0
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	cfg, err := LoadSessionConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "vnc.example.internal", cfg.Hostname)
	assert.Equal(t, 5901, cfg.Port)
	assert.Equal(t, "hunter2", cfg.Password)
	assert.True(t, cfg.Share)
	assert.Equal(t, 2*time.Second, cfg.RecvTimeout)
	require.NotNil(t, cfg.PixelFormat)
	assert.Equal(t, uint8(32), cfg.PixelFormat.BPP)

	opts := cfg.Options()
	applied := defaultClientConfig()
	for _, opt := range opts {
		opt(applied)
	}
	assert.Equal(t, "hunter2", applied.Password)
	assert.Equal(t, uint8(24), applied.PixelFormat.Depth)
}

func TestLoadSessionConfigMissingFile(t *testing.T) {
	_, err := LoadSessionConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
