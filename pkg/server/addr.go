// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"time"
)

const defaultPort = "3000"

// SplitListenAddr splits the user-provided address arg to a proto and an
// address to be used with net.Listen.
//
// addresses can be:
//
//	unix://absolute_path for unix sockets
//	<host>:<port> for TCP (more specifically, an address that can be passed to net.Listen)
//
// A TCP address without a port listens on the default port.
func SplitListenAddr(arg string) (string, string, error) {
	if after, ok := strings.CutPrefix(arg, "unix://"); ok {
		path := after
		if !filepath.IsAbs(path) {
			return "", "", fmt.Errorf("path %s (%s) is not absolute", path, arg)
		}
		return "unix", path, nil
	}

	if !strings.Contains(arg, ":") {
		arg += ":" + defaultPort
	}
	return "tcp", arg, nil
}

// DialURL returns the base URL of the server listening on arg, and whether
// it listens on a unix socket.
func DialURL(arg string) (string, bool, error) {
	proto, addr, err := SplitListenAddr(arg)
	if err != nil {
		return "", false, err
	}
	if proto == "unix" {
		return "http://unix", true, nil
	}
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr, false, nil
}

// NewClient returns a client for the server listening on arg, and its base
// URL.
func NewClient(arg string, timeout time.Duration) (*http.Client, string, error) {
	url, unix, err := DialURL(arg)
	if err != nil {
		return nil, "", err
	}
	client := &http.Client{Timeout: timeout}
	if unix {
		_, path, _ := SplitListenAddr(arg)
		client.Transport = &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, "unix", path)
			},
		}
	}
	return client, url, nil
}
