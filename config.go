// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package rfbauto

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ReconnectPolicy bounds how the duplex core retries a lost connection.
// MaxAttempts of 0 means retry forever. Each attempt waits Backoff before
// trying again, so a flapping link does not spin the reconnect loop.
type ReconnectPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// defaultReconnectPolicy retries forever with a 2-second pause between
// attempts, matching the duplex core's description in this client's design.
var defaultReconnectPolicy = ReconnectPolicy{MaxAttempts: 0, Backoff: 2 * time.Second}

// ClientConfig holds everything Dial needs to establish and maintain a
// session. Build one with functional options rather than populating it
// directly; the zero value is not a valid configuration (PixelFormat in
// particular must be set). Dial starts from defaultClientConfig, which fills
// in PixelFormat and the other defaults, and applies the options on top.
type ClientConfig struct {
	Password        string
	Share           bool
	PixelFormat     PixelFormat
	RecvTimeout     time.Duration
	ReconnectPolicy ReconnectPolicy
	Logger          Logger
	MaxCutTextBytes int

	authRegistry *AuthRegistry
}

// ClientOption configures a ClientConfig.
type ClientOption func(*ClientConfig)

// defaultClientConfig is the config Dial starts from before applying options.
func defaultClientConfig() *ClientConfig {
	return &ClientConfig{
		PixelFormat:     DefaultPixelFormat,
		RecvTimeout:     time.Second,
		ReconnectPolicy: defaultReconnectPolicy,
		Logger:          &NoOpLogger{},
		MaxCutTextBytes: 1 << 20,
	}
}

// WithPassword sets the password used if the server requires VNC
// authentication. Required whenever a server doesn't also offer None.
func WithPassword(password string) ClientOption {
	return func(c *ClientConfig) { c.Password = password }
}

// WithShare sets the ClientInit share flag: true asks the server to leave
// other clients connected, false asks it to disconnect them.
func WithShare(share bool) ClientOption {
	return func(c *ClientConfig) { c.Share = share }
}

// WithPixelFormat overrides the pixel format this client advertises.
// DefaultPixelFormat (32bpp BGRX) is almost always the right choice; this
// exists for servers that only support a narrower format.
func WithPixelFormat(format PixelFormat) ClientOption {
	return func(c *ClientConfig) { c.PixelFormat = format }
}

// WithRecvTimeout sets the reader goroutine's socket read deadline. A
// shorter timeout makes Stop() more responsive at the cost of more wakeups;
// the default of one second is a reasonable middle ground.
func WithRecvTimeout(d time.Duration) ClientOption {
	return func(c *ClientConfig) { c.RecvTimeout = d }
}

// WithReconnectPolicy overrides how the duplex core retries a lost connection.
func WithReconnectPolicy(policy ReconnectPolicy) ClientOption {
	return func(c *ClientConfig) { c.ReconnectPolicy = policy }
}

// WithLogger attaches a Logger. Defaults to NoOpLogger.
func WithLogger(logger Logger) ClientOption {
	return func(c *ClientConfig) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// WithMaxCutTextBytes bounds the ServerCutText payload length this client
// accepts. Payloads are always drained, never buffered; one longer than n is
// drained and reported as an error. n <= 0 disables the bound.
func WithMaxCutTextBytes(n int) ClientOption {
	return func(c *ClientConfig) { c.MaxCutTextBytes = n }
}

// WithAuthRegistry overrides the security-type registry, e.g. to register
// an additional ClientAuth implementation beyond None and VNC Password.
func WithAuthRegistry(registry *AuthRegistry) ClientOption {
	return func(c *ClientConfig) { c.authRegistry = registry }
}

// SessionConfig is the YAML-shaped twin of ClientConfig used by the CLI
// demo (cmd/rfbauto) so a connection can be described in a file instead of
// entirely on the command line.
type SessionConfig struct {
	Hostname    string              `yaml:"hostname"`
	Port        int                 `yaml:"port"`
	Password    string              `yaml:"password"`
	Share       bool                `yaml:"share"`
	PixelFormat *SessionPixelFormat `yaml:"pixel_format"`
	RecvTimeout time.Duration       `yaml:"recv_timeout"`
	LogLevel    string              `yaml:"log_level"`
	LogFormat   string              `yaml:"log_format"`
}

// SessionPixelFormat is the YAML-friendly mirror of PixelFormat.
type SessionPixelFormat struct {
	BPP        uint8  `yaml:"bpp"`
	Depth      uint8  `yaml:"depth"`
	BigEndian  bool   `yaml:"big_endian"`
	TrueColor  bool   `yaml:"true_color"`
	RedMax     uint16 `yaml:"red_max"`
	GreenMax   uint16 `yaml:"green_max"`
	BlueMax    uint16 `yaml:"blue_max"`
	RedShift   uint8  `yaml:"red_shift"`
	GreenShift uint8  `yaml:"green_shift"`
	BlueShift  uint8  `yaml:"blue_shift"`
}

// toPixelFormat converts the YAML mirror into a PixelFormat.
func (s *SessionPixelFormat) toPixelFormat() PixelFormat {
	return PixelFormat{
		BPP: s.BPP, Depth: s.Depth, BigEndian: s.BigEndian, TrueColor: s.TrueColor,
		RedMax: s.RedMax, GreenMax: s.GreenMax, BlueMax: s.BlueMax,
		RedShift: s.RedShift, GreenShift: s.GreenShift, BlueShift: s.BlueShift,
	}
}

// LoadSessionConfig reads and parses a YAML SessionConfig file.
func LoadSessionConfig(path string) (*SessionConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, configFileError("LoadSessionConfig", err)
	}

	var cfg SessionConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, configFileError("LoadSessionConfig", err)
	}
	return &cfg, nil
}

func configFileError(op string, err error) error {
	return fmt.Errorf("rfbauto: %s: %w", op, err)
}

// Options translates a SessionConfig into ClientOptions, for callers (like
// the CLI demo) that build a ClientConfig from a loaded file.
func (s *SessionConfig) Options() []ClientOption {
	opts := []ClientOption{
		WithShare(s.Share),
	}
	if s.Password != "" {
		opts = append(opts, WithPassword(s.Password))
	}
	if s.PixelFormat != nil {
		opts = append(opts, WithPixelFormat(s.PixelFormat.toPixelFormat()))
	}
	if s.RecvTimeout > 0 {
		opts = append(opts, WithRecvTimeout(s.RecvTimeout))
	}
	if s.LogFormat == "charm" {
		opts = append(opts, WithLogger(NewCharmLogger(s.LogLevel)))
	} else if s.LogLevel != "" {
		opts = append(opts, WithLogger(&StandardLogger{}))
	}
	return opts
}
