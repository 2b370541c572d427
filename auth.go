// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package rfbauto

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// ClientAuth is one security type this client can negotiate with a server.
type ClientAuth interface {
	SecurityType() uint8
	Handshake(ctx context.Context, rw io.ReadWriter) error
	String() string
}

// ClientAuthNone implements security type 1 ("None"): no challenge/response
// at all, just proceed to ClientInit.
type ClientAuthNone struct {
	logger Logger
}

// SecurityType returns 1.
func (c *ClientAuthNone) SecurityType() uint8 { return 1 }

// Handshake is a no-op beyond honoring context cancellation.
func (c *ClientAuthNone) Handshake(ctx context.Context, _ io.ReadWriter) error {
	select {
	case <-ctx.Done():
		return NewVNCError("ClientAuthNone.Handshake", ErrConnectionLost, "authentication cancelled", ctx.Err())
	default:
	}
	if c.logger != nil {
		c.logger.Debug("completed None authentication")
	}
	return nil
}

// String returns "None".
func (c *ClientAuthNone) String() string { return "None" }

// SetLogger attaches a logger.
func (c *ClientAuthNone) SetLogger(logger Logger) { c.logger = logger }

// PasswordAuth implements VNC Authentication (security type 2): DES
// challenge/response keyed by a password.
type PasswordAuth struct {
	Password string
	logger   Logger
}

// NewPasswordAuth builds a PasswordAuth for the given password.
func NewPasswordAuth(password string) *PasswordAuth {
	return &PasswordAuth{Password: password}
}

// SecurityType returns 2.
func (p *PasswordAuth) SecurityType() uint8 { return 2 }

// Handshake reads the server's 16-byte challenge, encrypts it with the DES
// key derived from Password, and writes back the 16-byte response.
func (p *PasswordAuth) Handshake(ctx context.Context, rw io.ReadWriter) error {
	select {
	case <-ctx.Done():
		return NewVNCError("PasswordAuth.Handshake", ErrConnectionLost, "authentication cancelled", ctx.Err())
	default:
	}

	challenge := make([]byte, vncChallengeSize)
	if err := readFull(rw, challenge); err != nil {
		return connectionLostError("PasswordAuth.Handshake", err)
	}

	var response []byte
	err := constantTimeAuth(func() error {
		var encErr error
		response, encErr = encryptVNCChallenge(p.Password, challenge)
		return encErr
	}, 50*time.Millisecond)
	if err != nil {
		return err
	}
	defer (secureMemory{}).clearBytes(response)

	if _, err := rw.Write(response); err != nil {
		return connectionLostError("PasswordAuth.Handshake", err)
	}

	if p.logger != nil {
		p.logger.Debug("completed VNC password authentication")
	}
	return nil
}

// String returns "VNC Password".
func (p *PasswordAuth) String() string { return "VNC Password" }

// SetLogger attaches a logger.
func (p *PasswordAuth) SetLogger(logger Logger) { p.logger = logger }

// ClearPassword overwrites the stored password after it is no longer
// needed, since Go strings themselves cannot be mutated in place.
func (p *PasswordAuth) ClearPassword() {
	if p.Password == "" {
		return
	}
	p.Password = (secureMemory{}).clearString(p.Password)
}

func (secureMemory) clearString(s string) string {
	b := []byte(s)
	secureMemory{}.clearBytes(b)
	return ""
}

// AuthFactory builds a fresh ClientAuth instance for a security type.
type AuthFactory func() ClientAuth

// AuthRegistry maps security types to the ClientAuth implementations this
// client knows about, and negotiates the type to use against what a server
// offers.
type AuthRegistry struct {
	mu        sync.RWMutex
	factories map[uint8]AuthFactory
	logger    Logger
}

// NewAuthRegistry returns a registry pre-populated with None (1) and VNC
// Password (2).
func NewAuthRegistry() *AuthRegistry {
	r := &AuthRegistry{factories: make(map[uint8]AuthFactory), logger: &NoOpLogger{}}
	r.Register(1, func() ClientAuth { return &ClientAuthNone{} })
	r.Register(2, func() ClientAuth { return &PasswordAuth{} })
	return r
}

// Register adds or replaces the factory for a security type.
func (r *AuthRegistry) Register(securityType uint8, factory AuthFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[securityType] = factory
}

// CreateAuth instantiates the ClientAuth registered for securityType.
func (r *AuthRegistry) CreateAuth(securityType uint8) (ClientAuth, error) {
	r.mu.RLock()
	factory, ok := r.factories[securityType]
	r.mu.RUnlock()
	if !ok {
		return nil, NewVNCError("AuthRegistry.CreateAuth", ErrUnsupportedSecurityTypes,
			fmt.Sprintf("security type %d is not registered", securityType), nil)
	}
	return factory(), nil
}

// IsSupported reports whether securityType has a registered factory.
func (r *AuthRegistry) IsSupported(securityType uint8) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[securityType]
	return ok
}

// SetLogger attaches a logger used during negotiation.
func (r *AuthRegistry) SetLogger(logger Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// preferredSecurityOrder is the order this client tries security types in:
// None first (cheapest, no secret needed), then VNC password auth. A
// server offering both gets the handshake the protocol designers intended
// as the common case.
var preferredSecurityOrder = []uint8{1, 2}

// NegotiateAuth picks the first type in preferredSecurityOrder that the
// server also offered and this registry supports.
func (r *AuthRegistry) NegotiateAuth(ctx context.Context, serverTypes []uint8) (ClientAuth, uint8, error) {
	select {
	case <-ctx.Done():
		return nil, 0, NewVNCError("AuthRegistry.NegotiateAuth", ErrConnectionLost, "negotiation cancelled", ctx.Err())
	default:
	}

	for _, preferred := range preferredSecurityOrder {
		for _, offered := range serverTypes {
			if preferred != offered || !r.IsSupported(preferred) {
				continue
			}
			auth, err := r.CreateAuth(preferred)
			if err != nil {
				continue
			}
			if r.logger != nil {
				r.logger.Info("negotiated security type", fieldSecurityType(preferred), fieldAuthMethod(auth.String()))
			}
			return auth, preferred, nil
		}
	}

	return nil, 0, unsupportedSecurityTypesError("AuthRegistry.NegotiateAuth", serverTypes)
}
