package adb

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/electricbubble/gadb"
)

// DefaultServerAddr is the conventional adb server listen address.
const DefaultServerAddr = "127.0.0.1:5037"

// ServerDialer lists devices from a running adb server over its wire
// protocol. It dials fresh on each listing so a restarted server or newly
// plugged device is picked up without process restarts.
type ServerDialer struct {
	host string
	port int
}

// NewServerDialer parses addr as host:port of the adb server. An empty addr
// selects DefaultServerAddr.
func NewServerDialer(addr string) (*ServerDialer, error) {
	if addr == "" {
		addr = DefaultServerAddr
	}
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid adb server address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid adb server port %q: %w", portStr, err)
	}
	return &ServerDialer{host: host, port: port}, nil
}

// Devices implements Dialer.
func (d *ServerDialer) Devices(ctx context.Context) ([]Conn, error) {
	type listing struct {
		devices []gadb.Device
		err     error
	}
	ch := make(chan listing, 1)
	go func() {
		client, err := gadb.NewClientWith(d.host, d.port)
		if err != nil {
			ch <- listing{err: fmt.Errorf("connect adb server %s:%d: %w", d.host, d.port, err)}
			return
		}
		devices, err := client.DeviceList()
		if err != nil {
			ch <- listing{err: fmt.Errorf("list devices: %w", err)}
			return
		}
		ch <- listing{devices: devices}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case l := <-ch:
		if l.err != nil {
			return nil, l.err
		}
		conns := make([]Conn, 0, len(l.devices))
		for _, dev := range l.devices {
			conns = append(conns, &gadbConn{dev: dev})
		}
		return conns, nil
	}
}

// gadbConn adapts a gadb.Device to Conn. gadb's calls are not context-aware,
// so each one runs on a goroutine and the caller's ctx can abandon it; the
// underlying socket work finishes in the background.
type gadbConn struct {
	dev gadb.Device
}

func (c *gadbConn) Serial() string {
	return c.dev.Serial()
}

func (c *gadbConn) State() string {
	state, err := c.dev.State()
	if err != nil {
		return "unknown"
	}
	return string(state)
}

func (c *gadbConn) Properties() map[string]string {
	return c.dev.DeviceInfo()
}

func (c *gadbConn) Shell(ctx context.Context, command string) (string, error) {
	out, err := await(ctx, func() ([]byte, error) {
		s, err := c.dev.RunShellCommand(command)
		return []byte(s), err
	})
	return string(out), err
}

func (c *gadbConn) ShellBytes(ctx context.Context, command string) ([]byte, error) {
	return await(ctx, func() ([]byte, error) {
		return c.dev.RunShellCommandWithBytes(command)
	})
}

func (c *gadbConn) Push(ctx context.Context, src io.Reader, remotePath string) error {
	_, err := await(ctx, func() ([]byte, error) {
		return nil, c.dev.Push(src, remotePath, time.Now())
	})
	return err
}

func (c *gadbConn) Pull(ctx context.Context, remotePath string, dst io.Writer) error {
	_, err := await(ctx, func() ([]byte, error) {
		return nil, c.dev.Pull(remotePath, dst)
	})
	return err
}

// await bridges a blocking call onto ctx cancellation.
func await(ctx context.Context, fn func() ([]byte, error)) ([]byte, error) {
	type result struct {
		out []byte
		err error
	}
	ch := make(chan result, 1)
	go func() {
		out, err := fn()
		ch <- result{out: out, err: err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		return r.out, r.err
	}
}
