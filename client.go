// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package rfbauto

import (
	"bytes"
	"context"
	"sync/atomic"
	"time"
)

// Client-to-server message types (RFC 6143 §7.5).
const (
	msgSetPixelFormatOut = 0
	msgSetEncodingsOut   = 2
	msgFramebufferReqOut = 3
	msgKeyEventOut       = 4
	msgPointerEventOut   = 5
	msgClientCutTextOut  = 6
)

// Pointer button mask bits (RFC 6143 §7.5.5).
const (
	ButtonLeft     uint8 = 1 << 0
	ButtonMiddle   uint8 = 1 << 1
	ButtonRight    uint8 = 1 << 2
	ButtonScrollUp uint8 = 1 << 3
	ButtonScrollDn uint8 = 1 << 4
)

// pointerJitter alternates between 0 and 1 across calls so two pointer
// events at the same coordinate don't collapse into a single server-side
// motion: some server implementations coalesce identical consecutive
// PointerEvent messages, which would make a deliberate "click here twice"
// sequence look like one click.
var pointerJitterState int32

func pointerJitter() int {
	if atomic.AddInt32(&pointerJitterState, 1)%2 == 0 {
		return 1
	}
	return 0
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// KeyDown sends a key-press-down event. key accepts anything Keysym
// understands: a rune, a uint32/int keysym, or a symbolic name like
// "enter".
func (c *Client) KeyDown(key interface{}) error {
	sym, err := Keysym(key)
	if err != nil {
		return err
	}
	return c.sendKeyEvent(sym, true)
}

// KeyUp sends a key-release event for the same key passed to KeyDown.
func (c *Client) KeyUp(key interface{}) error {
	sym, err := Keysym(key)
	if err != nil {
		return err
	}
	return c.sendKeyEvent(sym, false)
}

// defaultPressHold is how long PressKey holds a key down when the caller
// passes a non-positive hold duration.
const defaultPressHold = 100 * time.Millisecond

// PressKey sends a key-down followed by a key-up after hold, simulating a
// single keystroke. hold <= 0 uses defaultPressHold instead of issuing the
// two events back to back, since most servers expect to observe a key
// held for some minimal interval.
func (c *Client) PressKey(key interface{}, hold time.Duration) error {
	if hold <= 0 {
		hold = defaultPressHold
	}
	if err := c.KeyDown(key); err != nil {
		return err
	}
	time.Sleep(hold)
	return c.KeyUp(key)
}

func (c *Client) sendKeyEvent(keysym uint32, down bool) error {
	var buf bytes.Buffer
	_ = writeUint8(&buf, msgKeyEventOut)
	var downByte uint8
	if down {
		downByte = 1
	}
	_ = writeUint8(&buf, downByte)
	_ = writeUint16(&buf, 0)
	_ = writeUint32(&buf, keysym)
	return c.writeMessage(buf.Bytes())
}

// buttonBit maps a 1-based button index (1=left, 2=middle, 3=right,
// 4=wheel-up, 5=wheel-down) to its RFB pointer-mask bit.
func buttonBit(button int) uint8 {
	switch button {
	case 1:
		return ButtonLeft
	case 2:
		return ButtonMiddle
	case 3:
		return ButtonRight
	case 4:
		return ButtonScrollUp
	case 5:
		return ButtonScrollDn
	default:
		return 0
	}
}

// PointerEvent updates the session-scoped pointer button mask and sends a
// PointerEvent message carrying the whole mask, not just the one button
// named here: down=true sets button's bit, down=false clears it, and
// whatever other buttons are already held stays held, matching how a real
// pointer reports all currently-pressed buttons on every move. (x, y) is
// clamped to the current framebuffer's bounds after x is offset by 0 or +1
// pixel on alternating calls (y is not offset), so repeated identical calls
// are not silently coalesced by the server; at the right edge the clamp
// cancels the offset.
func (c *Client) PointerEvent(button int, down bool, x, y int) error {
	fb := c.Framebuffer()
	maxX, maxY := 0, 0
	if fb != nil {
		maxX, maxY = fb.Width()-1, fb.Height()-1
	}
	if maxX < 0 {
		maxX = 0
	}
	if maxY < 0 {
		maxY = 0
	}

	jx := clamp(x+pointerJitter(), 0, maxX)
	jy := clamp(y, 0, maxY)

	bit := buttonBit(button)
	c.pointerMu.Lock()
	if down {
		c.pointerMask |= bit
	} else {
		c.pointerMask &^= bit
	}
	mask := c.pointerMask
	c.pointerMu.Unlock()

	var buf bytes.Buffer
	_ = writeUint8(&buf, msgPointerEventOut)
	_ = writeUint8(&buf, mask)
	_ = writeUint16(&buf, uint16(jx))
	_ = writeUint16(&buf, uint16(jy))
	return c.writeMessage(buf.Bytes())
}

// click presses and releases a single button at (x, y).
func (c *Client) click(button int, x, y int) error {
	if err := c.PointerEvent(button, true, x, y); err != nil {
		return err
	}
	return c.PointerEvent(button, false, x, y)
}

// LeftClick presses and releases the left mouse button at (x, y).
func (c *Client) LeftClick(x, y int) error { return c.click(1, x, y) }

// RightClick presses and releases the right mouse button at (x, y).
func (c *Client) RightClick(x, y int) error { return c.click(3, x, y) }

// MiddleClick presses and releases the middle mouse button at (x, y).
func (c *Client) MiddleClick(x, y int) error { return c.click(2, x, y) }

// ScrollUp sends one scroll-wheel-up tick at (x, y).
func (c *Client) ScrollUp(x, y int) error { return c.click(4, x, y) }

// ScrollDown sends one scroll-wheel-down tick at (x, y).
func (c *Client) ScrollDown(x, y int) error { return c.click(5, x, y) }

// RefreshFramebuffer requests a full (non-incremental) FramebufferUpdate
// covering the entire desktop and blocks until the reader has processed at
// least one resulting update, or ctx is cancelled.
func (c *Client) RefreshFramebuffer(ctx context.Context) error {
	fb := c.Framebuffer()
	w, h := uint16(0), uint16(0)
	if fb != nil {
		w, h = uint16(fb.Width()), uint16(fb.Height())
	}

	seq := c.lastUpdateSeq()
	if err := c.writeMessage(frameBufferUpdateRequest(false, 0, 0, w, h)); err != nil {
		return err
	}
	_, err := c.waitForUpdate(ctx, seq)
	return err
}

// RefreshResolution requests a 1x1 incremental FramebufferUpdate, just
// enough to pick up a pending DesktopSize change without paying for a full
// pixel transfer, and reports the framebuffer's dimensions afterward.
func (c *Client) RefreshResolution(ctx context.Context) (width, height int, err error) {
	seq := c.lastUpdateSeq()
	if err := c.writeMessage(frameBufferUpdateRequest(true, 0, 0, 1, 1)); err != nil {
		return 0, 0, err
	}
	if _, err := c.waitForUpdate(ctx, seq); err != nil {
		return 0, 0, err
	}
	fb := c.Framebuffer()
	return fb.Width(), fb.Height(), nil
}

// CutBuffer sends a ClientCutText message, setting the server-side
// clipboard to text.
func (c *Client) CutBuffer(text string) error {
	var buf bytes.Buffer
	_ = writeUint8(&buf, msgClientCutTextOut)
	_ = writeUint8(&buf, 0)
	_ = writeUint8(&buf, 0)
	_ = writeUint8(&buf, 0)
	_ = writeUint32(&buf, uint32(len(text)))
	buf.WriteString(text)
	return c.writeMessage(buf.Bytes())
}
