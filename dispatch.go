// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package rfbauto

import (
	"io"
)

// Server-to-client message types (RFC 6143 §7.6).
const (
	msgFramebufferUpdate   = 0
	msgSetColourMapEntries = 1
	msgBell                = 2
	msgServerCutText       = 3
)

// pendingResize tracks the last DesktopSize rectangle seen in an update;
// multiple DesktopSize rectangles in one update is last-wins, per the
// order they're read off the wire.
type pendingResize struct {
	width, height int
	set           bool
}

// dispatchServerMessage reads and processes exactly one server-to-client
// message from rw, applying any framebuffer changes to fb. It reports only
// whether the message was a FramebufferUpdate (used by the
// framebufferUpdated rendezvous); ServerCutText and SetColourMapEntries
// payloads are drained, never surfaced (see Non-goals: clipboard content
// semantics and colour-map rendering are both out of scope).
func dispatchServerMessage(rw io.Reader, fb *Framebuffer, pixelFmt PixelFormat, maxCutText int) (isUpdate bool, err error) {
	msgType, err := readUint8(rw)
	if err != nil {
		return false, connectionLostError("dispatchServerMessage", err)
	}

	switch msgType {
	case msgFramebufferUpdate:
		if err := handleFramebufferUpdate(rw, fb, pixelFmt); err != nil {
			return false, err
		}
		return true, nil

	case msgSetColourMapEntries:
		if err := handleSetColourMapEntries(rw); err != nil {
			return false, err
		}
		return false, nil

	case msgBell:
		return false, nil

	case msgServerCutText:
		if err := handleServerCutText(rw, maxCutText); err != nil {
			return false, err
		}
		return false, nil

	default:
		return false, protocolViolationError("dispatchServerMessage", msgType)
	}
}

// handleFramebufferUpdate reads a FramebufferUpdate message: a 1-byte pad,
// a rectangle count, then that many rectangles. DesktopSize rectangles
// carry no pixel data and only update fb's dimensions; Raw rectangles
// carry exactly width*height*bytesPerPixel bytes of pixel data. The
// resize (if any) is applied before any Raw rectangle is written, so a
// server that changes the desktop size and paints it in the same update
// does not see its Raw rectangles clipped against stale dimensions.
func handleFramebufferUpdate(rw io.Reader, fb *Framebuffer, pixelFmt PixelFormat) error {
	if _, err := readUint8(rw); err != nil {
		return connectionLostError("handleFramebufferUpdate", err)
	}
	count, err := readUint16(rw)
	if err != nil {
		return connectionLostError("handleFramebufferUpdate", err)
	}

	type rect struct {
		x, y, w, h int
		encoding   int32
		pixels     []byte
	}
	rects := make([]rect, 0, count)
	var resize pendingResize

	for i := uint16(0); i < count; i++ {
		x, err := readUint16(rw)
		if err != nil {
			return connectionLostError("handleFramebufferUpdate", err)
		}
		y, err := readUint16(rw)
		if err != nil {
			return connectionLostError("handleFramebufferUpdate", err)
		}
		w, err := readUint16(rw)
		if err != nil {
			return connectionLostError("handleFramebufferUpdate", err)
		}
		h, err := readUint16(rw)
		if err != nil {
			return connectionLostError("handleFramebufferUpdate", err)
		}
		encoding, err := readInt32(rw)
		if err != nil {
			return connectionLostError("handleFramebufferUpdate", err)
		}

		switch encoding {
		case encodingDesktopSize:
			resize = pendingResize{width: int(w), height: int(h), set: true}

		case encodingRaw:
			numBytes := int(w) * int(h) * pixelFmt.BytesPerPixel()
			pixels, err := readBytes(rw, numBytes)
			if err != nil {
				return connectionLostError("handleFramebufferUpdate", err)
			}
			rects = append(rects, rect{x: int(x), y: int(y), w: int(w), h: int(h), encoding: encoding, pixels: pixels})

		default:
			return unsupportedEncodingError("handleFramebufferUpdate", encoding)
		}
	}

	if resize.set {
		fb.Resize(resize.width, resize.height)
	}

	for _, r := range rects {
		if err := fb.SetPixels(r.x, r.y, r.w, r.h, r.pixels); err != nil {
			return err
		}
	}

	return nil
}

// handleSetColourMapEntries drains a SetColourMapEntries message without
// storing its contents: indexed-color palettes are never exposed by this
// client (see Non-goals), so there is nothing useful to keep.
func handleSetColourMapEntries(rw io.Reader) error {
	if _, err := readUint8(rw); err != nil {
		return connectionLostError("handleSetColourMapEntries", err)
	}
	if _, err := readUint16(rw); err != nil {
		return connectionLostError("handleSetColourMapEntries", err)
	}
	numColors, err := readUint16(rw)
	if err != nil {
		return connectionLostError("handleSetColourMapEntries", err)
	}
	if err := drain(rw, int(numColors)*6); err != nil {
		return connectionLostError("handleSetColourMapEntries", err)
	}
	return nil
}

// handleServerCutText reads a ServerCutText message and drains its payload
// without decoding it: clipboard content semantics are out of scope, so the
// bytes are discarded after the length check, matching how
// handleSetColourMapEntries drains indexed-colour data it likewise never
// exposes.
func handleServerCutText(rw io.Reader, maxLength int) error {
	if err := drain(rw, 3); err != nil {
		return connectionLostError("handleServerCutText", err)
	}
	length, err := readUint32(rw)
	if err != nil {
		return connectionLostError("handleServerCutText", err)
	}
	if maxLength > 0 && int(length) > maxLength {
		if err := drain(rw, int(length)); err != nil {
			return connectionLostError("handleServerCutText", err)
		}
		return invalidRectangleError("handleServerCutText", "clipboard payload exceeds configured maximum")
	}
	if err := drain(rw, int(length)); err != nil {
		return connectionLostError("handleServerCutText", err)
	}
	return nil
}
