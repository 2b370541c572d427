// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

// Package rfbauto implements a synchronous RFB (Remote Framebuffer) client
// for unattended automation of remote desktops: reading the framebuffer and
// injecting keyboard and pointer events.
//
// The client speaks RFB 3.8 only, supports the None and VNC-DES security
// types, and understands the Raw and DesktopSize encodings. It is built for
// scripted control rather than interactive display: there is no image
// encoding, no GUI, and no support for the richer compressed encodings a
// general-purpose viewer would need.
//
// # Basic Usage
//
//	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
//	defer cancel()
//
//	client, err := rfbauto.Dial(ctx, "localhost:5900",
//		rfbauto.WithPassword("secret"),
//		rfbauto.WithLogger(&rfbauto.StandardLogger{}),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Stop()
//
// # Input Events
//
//	client.PressKey(rfbauto.KeyEnter, 0)
//	client.LeftClick(100, 100)
//	client.CutBuffer("pasted text")
//
// # Framebuffer Access
//
//	if err := client.RefreshFramebuffer(ctx); err != nil {
//		log.Fatal(err)
//	}
//	pixels := client.Framebuffer().Flatten()
//
// # Error Handling
//
//	if rfbauto.IsVNCError(err, rfbauto.ErrServerRefused, rfbauto.ErrPasswordRequired) {
//		log.Printf("authentication failed: %v", err)
//	}
//
// # Reconnection
//
// The client keeps a background reader goroutine attached to the
// connection for as long as the session runs. A connection-level error
// triggers an automatic reconnect-and-rehandshake cycle; a read timeout
// does not. See WithReconnectPolicy to bound the number of attempts.
package rfbauto
