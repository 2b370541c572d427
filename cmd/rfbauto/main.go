// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

// Command rfbauto is a small demonstration client: it connects to a VNC
// server, optionally drives a key press or a click, and can dump the
// current framebuffer to a file of raw pixel bytes in the negotiated pixel
// format (32bpp BGRX by default). It is not a viewer — there is no image
// encoding here, only the bytes the wire protocol gives us.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/ryanjohnson/rfbauto"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "rfbauto:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		host      = pflag.String("host", "localhost", "VNC server host")
		port      = pflag.Int("port", 5900, "VNC server port")
		password  = pflag.String("password", "", "VNC password, if the server requires authentication")
		share     = pflag.Bool("share", true, "ask the server to leave other clients connected")
		cfgPath   = pflag.String("config", "", "path to a YAML session config; overrides the flags above")
		key       = pflag.String("key", "", "press a single key (e.g. enter, a, f5) and exit")
		click     = pflag.String("click", "", "click at \"x,y\" and exit")
		dumpPath  = pflag.String("dump", "", "write the framebuffer to this path as raw pixel bytes")
		logFormat = pflag.String("log-format", "standard", "logging backend: standard or charm")
		logLevel  = pflag.String("log-level", "info", "log level for the charm backend")
		timeout   = pflag.Duration("timeout", 30*time.Second, "overall session timeout")
	)
	pflag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	opts := []rfbauto.ClientOption{rfbauto.WithShare(*share)}
	addr := net.JoinHostPort(*host, strconv.Itoa(*port))

	if *cfgPath != "" {
		sessionCfg, err := rfbauto.LoadSessionConfig(*cfgPath)
		if err != nil {
			return err
		}
		addr = net.JoinHostPort(sessionCfg.Hostname, strconv.Itoa(sessionCfg.Port))
		opts = sessionCfg.Options()
	} else {
		if *password != "" {
			opts = append(opts, rfbauto.WithPassword(*password))
		}
		if *logFormat == "charm" {
			opts = append(opts, rfbauto.WithLogger(rfbauto.NewCharmLogger(*logLevel)))
		} else {
			opts = append(opts, rfbauto.WithLogger(&rfbauto.StandardLogger{}))
		}
	}

	client, err := rfbauto.Dial(ctx, addr, opts...)
	if err != nil {
		return err
	}
	defer client.Stop()

	if *key != "" {
		if err := client.PressKey(*key, 50*time.Millisecond); err != nil {
			return err
		}
	}

	if *click != "" {
		x, y, err := parsePoint(*click)
		if err != nil {
			return err
		}
		if err := client.LeftClick(x, y); err != nil {
			return err
		}
	}

	if *dumpPath != "" {
		if err := client.RefreshFramebuffer(ctx); err != nil {
			return err
		}
		fb := client.Framebuffer()
		if err := os.WriteFile(*dumpPath, fb.Flatten(), 0o600); err != nil {
			return fmt.Errorf("writing framebuffer dump: %w", err)
		}
		fmt.Printf("wrote %dx%d framebuffer to %s\n", fb.Width(), fb.Height(), *dumpPath)
	}

	return nil
}

func parsePoint(s string) (x, y int, err error) {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected \"x,y\", got %q", s)
	}
	x, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid x coordinate: %w", err)
	}
	y, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid y coordinate: %w", err)
	}
	return x, y, nil
}
