// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package rfbauto

import (
	"bytes"
	"context"
	"net"
	"sync"
	"time"
)

// Client is a synchronous RFB automation session: one TCP connection to a
// VNC server, a background reader draining server messages into a
// Framebuffer, and a command surface (key/pointer/clipboard) serialized
// behind a single writer lock. A lost connection is retried automatically
// according to its ReconnectPolicy; a protocol-level failure (bad
// handshake, unsupported encoding) is not.
type Client struct {
	addr   string
	cfg    *ClientConfig
	logger Logger

	// connMu guards conn and the fields the handshake populates. It is held
	// only briefly: writeMessage serializes on writerLock and readLoop takes
	// no lock of its own; both fetch conn through currentConn each time they
	// need it, and writeMessage first waits out any reconnect in progress
	// (reconnectLock), so a command never writes to a half-replaced
	// connection.
	connMu sync.Mutex
	conn   net.Conn

	writerLock    sync.Mutex
	reconnectLock sync.Mutex

	width, height int
	serverName    string
	fb            *Framebuffer
	authType      uint8

	// pointerMask is the session-scoped pointer button state: PointerEvent
	// sets or clears one bit and always sends the whole mask, matching how
	// a real pointer reports all currently-held buttons on every move.
	pointerMu   sync.Mutex
	pointerMask uint8

	stopOnce   sync.Once
	stopCh     chan struct{}
	readerDone chan struct{}

	updateMu   sync.Mutex
	updateCond *sync.Cond
	updateSeq  uint64
}

// Dial connects to a VNC server at addr ("host:port"), completes the RFB
// 3.8 handshake, and starts the background reader. The returned Client is
// ready for KeyDown, PointerEvent, and the rest of the command surface.
func Dial(ctx context.Context, addr string, opts ...ClientOption) (*Client, error) {
	cfg := defaultClientConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	c := &Client{
		addr:       addr,
		cfg:        cfg,
		logger:     cfg.Logger,
		stopCh:     make(chan struct{}),
		readerDone: make(chan struct{}),
	}
	c.updateCond = sync.NewCond(&c.updateMu)

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	go c.readLoop()
	return c, nil
}

// connect dials a fresh TCP connection and runs the handshake, replacing
// any previous connection and framebuffer state.
func (c *Client) connect(ctx context.Context) error {
	dialer := net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return connectionLostError("Client.connect", err)
	}

	result, err := runHandshake(ctx, conn, c.cfg, c.logger)
	if err != nil {
		_ = conn.Close()
		return err
	}

	c.connMu.Lock()
	c.conn = conn
	c.width = result.width
	c.height = result.height
	c.serverName = result.name
	c.authType = result.secType
	c.fb = NewFramebuffer(result.width, result.height, c.cfg.PixelFormat.BytesPerPixel())
	c.connMu.Unlock()

	c.logger.Info("connected", fieldAddr(c.addr), fieldServerName(result.name),
		fieldWidth(result.width), fieldHeight(result.height))
	return nil
}

// currentConn returns the live connection under connMu.
func (c *Client) currentConn() net.Conn {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	return c.conn
}

// Framebuffer returns the client's view of the remote screen. Safe to read
// concurrently with the background reader updating it.
func (c *Client) Framebuffer() *Framebuffer {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	return c.fb
}

// ServerName returns the desktop name the server announced in ServerInit.
func (c *Client) ServerName() string {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	return c.serverName
}

// readLoop owns the connection's read side: it dispatches one server
// message at a time, applying a short read deadline so Stop() can interrupt
// it promptly instead of blocking on a socket read indefinitely. A read
// timeout is not an error worth reconnecting over; a genuine connection
// loss is, and triggers reconnectWithBackoff.
func (c *Client) readLoop() {
	defer close(c.readerDone)

	for {
		select {
		case <-c.stopCh:
			return
		default:
		}

		conn := c.currentConn()
		if conn == nil {
			return
		}

		if c.cfg.RecvTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(c.cfg.RecvTimeout))
		}

		fb := c.Framebuffer()
		isUpdate, err := dispatchServerMessage(conn, fb, c.cfg.PixelFormat, c.cfg.MaxCutTextBytes)
		if err != nil {
			if isReadTimeout(err) {
				continue
			}
			if !IsVNCError(err, ErrConnectionLost) {
				c.logger.Error("server message dispatch failed", fieldErr(err))
				continue
			}

			c.logger.Warn("connection lost, attempting reconnect", fieldErr(err))
			if rErr := c.reconnectWithBackoff(); rErr != nil {
				c.logger.Error("reconnect failed, giving up", fieldErr(rErr))
				return
			}
			continue
		}

		if isUpdate {
			c.updateMu.Lock()
			c.updateSeq++
			c.updateCond.Broadcast()
			c.updateMu.Unlock()
		}
	}
}

// reconnectWithBackoff retries connect until it succeeds or the configured
// ReconnectPolicy's attempt budget is exhausted. It holds reconnectLock for
// its whole duration so a command in flight waits for the new connection
// rather than racing a half-torn-down one.
func (c *Client) reconnectWithBackoff() error {
	c.reconnectLock.Lock()
	defer c.reconnectLock.Unlock()

	if old := c.currentConn(); old != nil {
		_ = old.Close()
	}

	policy := c.cfg.ReconnectPolicy
	attempt := 0
	for {
		select {
		case <-c.stopCh:
			return connectionLostError("Client.reconnectWithBackoff", context.Canceled)
		default:
		}

		attempt++
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := c.connect(ctx)
		cancel()
		if err == nil {
			return nil
		}

		if policy.MaxAttempts > 0 && attempt >= policy.MaxAttempts {
			return err
		}

		select {
		case <-c.stopCh:
			return connectionLostError("Client.reconnectWithBackoff", context.Canceled)
		case <-time.After(policy.Backoff):
		}
	}
}

// Stop flips the cooperative stop flag and waits for the reader to exit on
// its next read-timeout cycle, then closes the connection. A stopped
// Client is not reusable; call Dial again for a new session. No message
// in flight is aborted mid-structure: the reader only checks stopCh
// between messages, never inside dispatchServerMessage.
func (c *Client) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
		c.updateMu.Lock()
		c.updateCond.Broadcast()
		c.updateMu.Unlock()

		<-c.readerDone

		c.connMu.Lock()
		if c.conn != nil {
			_ = c.conn.Close()
		}
		c.connMu.Unlock()
	})
}

// writeMessage serializes one client-to-server message under writerLock,
// so two command calls never interleave their bytes on the wire.
func (c *Client) writeMessage(payload []byte) error {
	c.writerLock.Lock()
	defer c.writerLock.Unlock()

	// Wait for any reconnect in progress to finish before picking up conn.
	c.reconnectLock.Lock()
	c.reconnectLock.Unlock()

	conn := c.currentConn()
	if conn == nil {
		return connectionLostError("Client.writeMessage", context.Canceled)
	}
	if _, err := conn.Write(payload); err != nil {
		return connectionLostError("Client.writeMessage", err)
	}
	return nil
}

// waitForUpdate blocks until at least one FramebufferUpdate has been
// processed since seq was captured, the context is cancelled, or Stop is
// called. It returns the new sequence number.
func (c *Client) waitForUpdate(ctx context.Context, seq uint64) (uint64, error) {
	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		c.updateMu.Lock()
		c.updateCond.Broadcast()
		c.updateMu.Unlock()
		close(done)
	}()

	c.updateMu.Lock()
	defer c.updateMu.Unlock()
	for c.updateSeq == seq {
		select {
		case <-c.stopCh:
			return c.updateSeq, connectionLostError("Client.waitForUpdate", context.Canceled)
		default:
		}
		if ctx.Err() != nil {
			return c.updateSeq, ctx.Err()
		}
		c.updateCond.Wait()
	}
	return c.updateSeq, nil
}

// lastUpdateSeq returns the current update sequence number without blocking.
func (c *Client) lastUpdateSeq() uint64 {
	c.updateMu.Lock()
	defer c.updateMu.Unlock()
	return c.updateSeq
}

// frameBufferUpdateRequest builds a FramebufferUpdateRequest message.
func frameBufferUpdateRequest(incremental bool, x, y, w, h uint16) []byte {
	var buf bytes.Buffer
	_ = writeUint8(&buf, msgFramebufferReqOut)
	var incByte uint8
	if incremental {
		incByte = 1
	}
	_ = writeUint8(&buf, incByte)
	_ = writeUint16(&buf, x)
	_ = writeUint16(&buf, y)
	_ = writeUint16(&buf, w)
	_ = writeUint16(&buf, h)
	return buf.Bytes()
}
