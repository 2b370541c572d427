// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package rfbauto

import (
	"bytes"
	"context"
	"fmt"
	"io"
)

const protocolVersion38 = "RFB 003.008\n"

// handshakeResult carries everything the server told us during the
// handshake that the session needs afterward.
type handshakeResult struct {
	width      int
	height     int
	pixelFmt   PixelFormat
	name       string
	authMethod ClientAuth
	secType    uint8
}

// runHandshake executes the full RFB 3.8 handshake over rw: protocol
// version exchange, security negotiation, ClientInit/ServerInit, then
// SetEncodings and SetPixelFormat. ctx bounds the whole sequence; each
// blocking step is wrapped so a cancellation interrupts promptly instead
// of waiting out a socket timeout.
func runHandshake(ctx context.Context, rw io.ReadWriter, cfg *ClientConfig, logger Logger) (*handshakeResult, error) {
	if err := negotiateProtocolVersion(ctx, rw); err != nil {
		return nil, err
	}

	auth, secType, err := negotiateSecurity(ctx, rw, cfg, logger)
	if err != nil {
		return nil, err
	}

	if err := writeClientInit(ctx, rw, cfg.Share); err != nil {
		return nil, err
	}

	width, height, pixelFmt, name, err := readServerInit(ctx, rw)
	if err != nil {
		return nil, err
	}

	if err := writeSetEncodings(ctx, rw); err != nil {
		return nil, err
	}

	advertised := cfg.PixelFormat
	if err := writeSetPixelFormat(ctx, rw, advertised); err != nil {
		return nil, err
	}

	return &handshakeResult{
		width:      width,
		height:     height,
		pixelFmt:   pixelFmt,
		name:       name,
		authMethod: auth,
		secType:    secType,
	}, nil
}

// withCancel runs fn in a goroutine and returns its error, unless ctx is
// cancelled first, in which case ctx.Err() wins. fn is expected to be a
// blocking I/O call; the goroutine it runs in is abandoned on cancellation
// (the underlying conn's own deadline/close is what actually unblocks it).
func withCancel(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

func negotiateProtocolVersion(ctx context.Context, rw io.ReadWriter) error {
	return withCancel(ctx, func() error {
		buf := make([]byte, 12)
		if err := readFull(rw, buf); err != nil {
			return connectionLostError("negotiateProtocolVersion", err)
		}

		if string(buf) != protocolVersion38 {
			return unsupportedProtocolError("negotiateProtocolVersion",
				fmt.Sprintf("server announced %q, only RFB 003.008 is supported", string(buf)))
		}

		if _, err := rw.Write([]byte(protocolVersion38)); err != nil {
			return connectionLostError("negotiateProtocolVersion", err)
		}
		return nil
	})
}

func readFailureReason(rw io.ReadWriter) (string, error) {
	length, err := readUint32(rw)
	if err != nil {
		return "", connectionLostError("readFailureReason", err)
	}
	reason, err := readBytes(rw, int(length))
	if err != nil {
		return "", connectionLostError("readFailureReason", err)
	}
	return string(reason), nil
}

func negotiateSecurity(ctx context.Context, rw io.ReadWriter, cfg *ClientConfig, logger Logger) (ClientAuth, uint8, error) {
	var auth ClientAuth
	var secType uint8

	err := withCancel(ctx, func() error {
		count, err := readUint8(rw)
		if err != nil {
			return connectionLostError("negotiateSecurity", err)
		}

		if count == 0 {
			reason, err := readFailureReason(rw)
			if err != nil {
				return err
			}
			return serverRefusedError("negotiateSecurity", reason)
		}

		offered, err := readBytes(rw, int(count))
		if err != nil {
			return connectionLostError("negotiateSecurity", err)
		}

		registry := cfg.authRegistry
		if registry == nil {
			registry = NewAuthRegistry()
		}
		registry.SetLogger(logger)

		selected, selectedType, err := registry.NegotiateAuth(ctx, offered)
		if err != nil {
			return err
		}

		if pw, ok := selected.(*PasswordAuth); ok {
			if cfg.Password == "" {
				return passwordRequiredError("negotiateSecurity")
			}
			pw.Password = cfg.Password
			pw.SetLogger(logger)
		}

		if err := writeUint8(rw, selectedType); err != nil {
			return connectionLostError("negotiateSecurity", err)
		}

		if err := selected.Handshake(ctx, rw); err != nil {
			return err
		}

		if selectedType != 1 {
			result, err := readUint32(rw)
			if err != nil {
				return connectionLostError("negotiateSecurity", err)
			}
			if result != 0 {
				reason, err := readFailureReason(rw)
				if err != nil {
					return err
				}
				return serverRefusedError("negotiateSecurity", reason)
			}
		}

		auth = selected
		secType = selectedType
		return nil
	})

	return auth, secType, err
}

func writeClientInit(ctx context.Context, rw io.ReadWriter, share bool) error {
	return withCancel(ctx, func() error {
		var b byte
		if share {
			b = 1
		}
		return writeUint8(rw, b)
	})
}

func readServerInit(ctx context.Context, rw io.ReadWriter) (width, height int, pixelFmt PixelFormat, name string, err error) {
	err = withCancel(ctx, func() error {
		w, rerr := readUint16(rw)
		if rerr != nil {
			return connectionLostError("readServerInit", rerr)
		}
		h, rerr := readUint16(rw)
		if rerr != nil {
			return connectionLostError("readServerInit", rerr)
		}

		var pf PixelFormat
		if rerr := readPixelFormat(rw, &pf); rerr != nil {
			return rerr
		}

		nameLen, rerr := readUint32(rw)
		if rerr != nil {
			return connectionLostError("readServerInit", rerr)
		}
		nameBytes, rerr := readBytes(rw, int(nameLen))
		if rerr != nil {
			return connectionLostError("readServerInit", rerr)
		}

		width, height, pixelFmt, name = int(w), int(h), pf, string(nameBytes)
		return nil
	})
	return width, height, pixelFmt, name, err
}

// advertisedEncodings is the fixed SetEncodings list this client sends:
// Raw for pixel data, DesktopSize so a server-initiated resolution change
// is reported instead of silently ignored.
var advertisedEncodings = []int32{encodingRaw, encodingDesktopSize}

func writeSetEncodings(ctx context.Context, rw io.ReadWriter) error {
	return withCancel(ctx, func() error {
		var buf bytes.Buffer
		_ = writeUint8(&buf, msgSetEncodingsOut)
		_ = writeUint8(&buf, 0)
		_ = writeUint16(&buf, uint16(len(advertisedEncodings)))
		for _, enc := range advertisedEncodings {
			_ = writeInt32(&buf, enc)
		}
		_, err := rw.Write(buf.Bytes())
		if err != nil {
			return connectionLostError("writeSetEncodings", err)
		}
		return nil
	})
}

func writeSetPixelFormat(ctx context.Context, rw io.ReadWriter, format PixelFormat) error {
	return withCancel(ctx, func() error {
		var buf bytes.Buffer
		_ = writeUint8(&buf, msgSetPixelFormatOut)
		_ = writeUint8(&buf, 0)
		_ = writeUint8(&buf, 0)
		_ = writeUint8(&buf, 0)
		buf.Write(writePixelFormat(format))
		if _, err := rw.Write(buf.Bytes()); err != nil {
			return connectionLostError("writeSetPixelFormat", err)
		}
		return nil
	})
}
